package signup_test

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/edupro/schoolportal/core"
	"github.com/edupro/schoolportal/core/account"
	"github.com/edupro/schoolportal/core/identity"
	"github.com/edupro/schoolportal/core/payment"
	"github.com/edupro/schoolportal/core/session"
	"github.com/edupro/schoolportal/core/signup"
	dummyid "github.com/edupro/schoolportal/services/identity/dummy"
	dummypay "github.com/edupro/schoolportal/services/payment/dummy"
	dummydb "github.com/edupro/schoolportal/storage/database/dummy"
	inmemstore "github.com/edupro/schoolportal/storage/session/inmem"
)

var testConf = &core.Config{
	AppName:         "Edu Pro",
	FrontendBaseURL: "http://localhost:8501",
	Debug:           true,
	TestMode:        true,
}

func TestMain(m *testing.M) {
	testConf.WorkDir = core.Getwd()
	core.InitEmailTemplates(testConf)
	os.Exit(m.Run())
}

type mailRecorder struct {
	sent []*core.EmailMessage
}

func (svc *mailRecorder) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		if err := msg.Render(); err != nil {
			log.Printf("rendering email: %v", err)
		}
		svc.sent = append(svc.sent, msg)
	}
}

type testEnv struct {
	sessions  session.Store
	ids       *dummyid.Service
	directory *dummydb.SchoolDirectory
	payments  *dummypay.Service
	mail      *mailRecorder
}

func newTestEnv(t *testing.T) (*signup.Service, *testEnv) {
	t.Helper()

	validate, _ := core.NewValidator()
	e := &testEnv{
		sessions:  inmemstore.NewSessionStore(),
		ids:       dummyid.NewService(),
		directory: dummydb.NewSchoolDirectory(),
		payments:  dummypay.NewService(),
		mail:      &mailRecorder{},
	}
	svc := signup.NewService(
		e.sessions, e.ids, e.directory, e.payments, e.mail,
		testConf, validate, core.NewStdLogger(log.New(os.Stderr, "TEST : ", log.LstdFlags)),
	)
	return svc, e
}

func TestService_Start(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects incomplete data without touching the gateway", func(t *testing.T) {
		tests := []struct {
			name string
			data signup.NewSignup
		}{
			{"all empty", signup.NewSignup{}},
			{"missing school name", signup.NewSignup{Email: "a@school.test", Password: "secret"}},
			{"missing email", signup.NewSignup{SchoolName: "Acme High", Password: "secret"}},
			{"missing password", signup.NewSignup{SchoolName: "Acme High", Email: "a@school.test"}},
			{"malformed email", signup.NewSignup{SchoolName: "Acme High", Email: "not-an-email", Password: "secret"}},
			{"whitespace only", signup.NewSignup{SchoolName: "   ", Email: "  ", Password: "secret"}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				svc, e := newTestEnv(t)
				sess := session.New()

				_, err := svc.Start(ctx, sess, tt.data)
				var vErrs validator.ValidationErrors
				assert.ErrorAs(t, err, &vErrs)
				assert.Equal(t, 0, e.payments.CreateCalls)
				assert.Nil(t, sess.Pending)
				assert.Equal(t, session.ScreenLanding, sess.CurrentScreen())
			})
		}
	})

	t.Run("parks the signup on the session", func(t *testing.T) {
		svc, e := newTestEnv(t)
		sess := session.New()
		require.NoError(t, e.sessions.SaveSession(ctx, sess))

		intent, err := svc.Start(ctx, sess, signup.NewSignup{
			SchoolName: "  Acme High ",
			Email:      "Admin@Acme.Test",
			Password:   "s3cret!",
		})
		require.NoError(t, err)

		assert.Equal(t, payment.StatusCreated, intent.Status)
		assert.NotEmpty(t, intent.ApprovalURL)
		assert.Equal(t, signup.SubscriptionPrice, intent.Total)
		assert.Equal(t, signup.SubscriptionCurrency, intent.Currency)

		assert.Equal(t, session.ScreenSignupSignin, sess.CurrentScreen())
		require.NotNil(t, sess.Pending)
		assert.Equal(t, "Acme High", sess.Pending.SchoolName)
		assert.Equal(t, "admin@acme.test", sess.Pending.Email)
		assert.Equal(t, intent.ID, sess.Pending.IntentID)
		assert.NoError(t, bcrypt.CompareHashAndPassword(sess.Pending.PasswordHash, []byte("s3cret!")))
		// the raw password is never kept
		assert.NotContains(t, string(sess.Pending.PasswordHash), "s3cret!")

		// the committed session carries the pending signup too
		stored, err := e.sessions.GetSession(ctx, sess.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.Pending)
		assert.Equal(t, intent.ID, stored.Pending.IntentID)

		// no account exists until the payment is approved
		assert.Empty(t, e.directory.All())
	})

	t.Run("gateway failure leaves the session untouched", func(t *testing.T) {
		svc, e := newTestEnv(t)
		e.payments.FailCreation = "insufficient scope"
		sess := session.New()

		_, err := svc.Start(ctx, sess, signup.NewSignup{
			SchoolName: "Acme High", Email: "admin@acme.test", Password: "s3cret!",
		})
		assert.True(t, payment.IsCreationError(err))
		assert.Nil(t, sess.Pending)
		assert.Equal(t, session.ScreenLanding, sess.CurrentScreen())
	})
}

func TestService_Complete(t *testing.T) {
	ctx := context.Background()

	startSignup := func(t *testing.T, svc *signup.Service, sess *session.Session) payment.Intent {
		t.Helper()
		intent, err := svc.Start(ctx, sess, signup.NewSignup{
			SchoolName: "Acme High", Email: "admin@acme.test", Password: "s3cret!",
		})
		require.NoError(t, err)
		return intent
	}

	t.Run("no pending signup", func(t *testing.T) {
		svc, _ := newTestEnv(t)
		sess := session.New()

		_, _, err := svc.Complete(ctx, sess, "PAY-1", "PAYER-1")
		assert.Equal(t, signup.ErrNoPendingSignup, err)
	})

	t.Run("intent mismatch", func(t *testing.T) {
		svc, e := newTestEnv(t)
		sess := session.New()
		startSignup(t, svc, sess)

		_, _, err := svc.Complete(ctx, sess, "PAY-other", "PAYER-1")
		assert.Equal(t, signup.ErrIntentMismatch, err)
		assert.NotNil(t, sess.Pending) // a mismatch does not burn the pending signup
		assert.Equal(t, 0, e.payments.ConfirmCalls)
	})

	t.Run("approved payment creates exactly one account", func(t *testing.T) {
		svc, e := newTestEnv(t)
		usr := e.ids.Register("admin@acme.test", "Acme High", "s3cret!")
		sess := session.New()
		intent := startSignup(t, svc, sess)

		acct, confirmed, err := svc.Complete(ctx, sess, intent.ID, "PAYER-1")
		require.NoError(t, err)

		assert.Equal(t, payment.StatusApproved, confirmed.Status)
		assert.Equal(t, "Acme High", acct.SchoolName)
		assert.Equal(t, "admin@acme.test", acct.Email)
		assert.Equal(t, usr.UID, acct.CredentialRef)
		assert.NotEmpty(t, acct.ID)

		all := e.directory.All()
		require.Len(t, all, 1)
		assert.Equal(t, acct.ID, all[0].ID)

		// pending cleared, user stays on the signup/signin screen to log in
		assert.Nil(t, sess.Pending)
		assert.Equal(t, session.ScreenSignupSignin, sess.CurrentScreen())
		stored, err := e.sessions.GetSession(ctx, sess.ID)
		require.NoError(t, err)
		assert.Nil(t, stored.Pending)

		require.Len(t, e.mail.sent, 1)
		msg := e.mail.sent[0]
		require.True(t, msg.HasRecipients())
		assert.Equal(t, "admin@acme.test", msg.To[0].Address)
		assert.Equal(t, "Welcome to Edu Pro", msg.Subject)
		assert.Contains(t, msg.TextContent, "Acme High")
	})

	t.Run("credential ref is empty when the identity provider has no record", func(t *testing.T) {
		svc, _ := newTestEnv(t)
		sess := session.New()
		intent := startSignup(t, svc, sess)

		acct, _, err := svc.Complete(ctx, sess, intent.ID, "PAYER-1")
		require.NoError(t, err)
		assert.Empty(t, acct.CredentialRef)
	})

	t.Run("cancelled payment creates nothing", func(t *testing.T) {
		svc, e := newTestEnv(t)
		sess := session.New()
		intent := startSignup(t, svc, sess)
		e.payments.CancelOnConfirm = true

		acct, confirmed, err := svc.Complete(ctx, sess, intent.ID, "PAYER-1")
		require.NoError(t, err)

		assert.Equal(t, payment.StatusCancelled, confirmed.Status)
		assert.Empty(t, acct.ID)
		assert.Empty(t, e.directory.All())
		assert.Empty(t, e.mail.sent)
		assert.Nil(t, sess.Pending)
		assert.Equal(t, session.ScreenSignupSignin, sess.CurrentScreen())
	})

	t.Run("a redirect cannot be replayed", func(t *testing.T) {
		svc, e := newTestEnv(t)
		e.ids.Register("admin@acme.test", "Acme High", "s3cret!")
		sess := session.New()
		intent := startSignup(t, svc, sess)

		_, _, err := svc.Complete(ctx, sess, intent.ID, "PAYER-1")
		require.NoError(t, err)

		_, _, err = svc.Complete(ctx, sess, intent.ID, "PAYER-1")
		assert.Equal(t, signup.ErrNoPendingSignup, err)
		assert.Len(t, e.directory.All(), 1)
	})
}

func TestService_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("clears the pending signup", func(t *testing.T) {
		svc, _ := newTestEnv(t)
		sess := session.New()
		intent, err := svc.Start(ctx, sess, signup.NewSignup{
			SchoolName: "Acme High", Email: "admin@acme.test", Password: "s3cret!",
		})
		require.NoError(t, err)

		require.NoError(t, svc.Cancel(ctx, sess, intent.ID))
		assert.Nil(t, sess.Pending)
		assert.Equal(t, session.ScreenSignupSignin, sess.CurrentScreen())
	})

	t.Run("nothing pending", func(t *testing.T) {
		svc, _ := newTestEnv(t)
		assert.Equal(t, signup.ErrNoPendingSignup, svc.Cancel(ctx, session.New(), "PAY-1"))
	})
}

func TestService_SignIn(t *testing.T) {
	ctx := context.Background()
	creds := signup.Credentials{Email: "admin@acme.test", Password: "s3cret!"}

	t.Run("unknown user", func(t *testing.T) {
		svc, _ := newTestEnv(t)
		sess := session.New()
		sess.Screen = session.ScreenSignupSignin

		_, err := svc.SignIn(ctx, sess, creds)
		assert.Equal(t, signup.ErrSignInFailed, err)
		assert.Equal(t, session.ScreenSignupSignin, sess.CurrentScreen())
		assert.Nil(t, sess.Auth)
	})

	t.Run("known user without school data", func(t *testing.T) {
		svc, e := newTestEnv(t)
		e.ids.Register("admin@acme.test", "Acme High", "s3cret!")
		sess := session.New()
		sess.Screen = session.ScreenSignupSignin

		_, err := svc.SignIn(ctx, sess, creds)
		assert.Equal(t, account.ErrNotFound, err)
		assert.Equal(t, session.ScreenSignupSignin, sess.CurrentScreen())
		assert.Nil(t, sess.Auth)
	})

	t.Run("identity provider outage", func(t *testing.T) {
		svc, e := newTestEnv(t)
		e.ids.Unavailable = true
		sess := session.New()

		_, err := svc.SignIn(ctx, sess, creds)
		assert.Equal(t, identity.ErrGatewayUnavailable, errors.Cause(err))
		assert.Nil(t, sess.Auth)
	})

	t.Run("invalid credentials payload", func(t *testing.T) {
		svc, _ := newTestEnv(t)
		_, err := svc.SignIn(ctx, session.New(), signup.Credentials{Email: "admin@acme.test"})
		var vErrs validator.ValidationErrors
		assert.ErrorAs(t, err, &vErrs)
	})

	t.Run("successful sign-in lands on the main app", func(t *testing.T) {
		svc, e := newTestEnv(t)
		e.ids.Register("admin@acme.test", "Acme High", "s3cret!")
		_, err := e.directory.CreateAccount(ctx, account.Account{SchoolName: "Acme High", Email: "admin@acme.test"})
		require.NoError(t, err)

		sess := session.New()
		sess.Screen = session.ScreenSignupSignin
		require.NoError(t, e.sessions.SaveSession(ctx, sess))

		acct, err := svc.SignIn(ctx, sess, creds)
		require.NoError(t, err)

		assert.Equal(t, "Acme High", acct.SchoolName)
		assert.Equal(t, session.ScreenMainApp, sess.CurrentScreen())
		require.NotNil(t, sess.Auth)
		assert.Equal(t, "admin@acme.test", sess.Auth.Email)
		assert.Equal(t, "Acme High", sess.Auth.SchoolName)

		stored, err := e.sessions.GetSession(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, session.ScreenMainApp, stored.CurrentScreen())
	})
}

func TestService_Logout(t *testing.T) {
	ctx := context.Background()
	svc, e := newTestEnv(t)

	sess := session.New()
	sess.Screen = session.ScreenMainApp
	sess.Auth = &session.AuthInfo{Email: "admin@acme.test", SchoolName: "Acme High"}
	require.NoError(t, e.sessions.SaveSession(ctx, sess))

	require.NoError(t, svc.Logout(ctx, sess))
	assert.Equal(t, session.ScreenLanding, sess.CurrentScreen())
	assert.Nil(t, sess.Auth)

	stored, err := e.sessions.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ScreenLanding, stored.CurrentScreen())
	assert.Nil(t, stored.Auth)
}
