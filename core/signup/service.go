package signup

import (
	"context"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/edupro/schoolportal/core"
	"github.com/edupro/schoolportal/core/account"
	"github.com/edupro/schoolportal/core/identity"
	"github.com/edupro/schoolportal/core/payment"
	"github.com/edupro/schoolportal/core/session"
)

var (
	// errors
	ErrNoPendingSignup = errors.New("no signup pending payment confirmation")
	ErrIntentMismatch  = errors.New("payment does not match the pending signup")
	ErrSignInFailed    = errors.New("login failed")
)

// Subscription charge, as sold on the signup screen.
const (
	SubscriptionSKU         = "subscription001"
	SubscriptionItemName    = "School Pro Subscription"
	SubscriptionPrice       = "1.00"
	SubscriptionCurrency    = "USD"
	subscriptionDescription = "Pro subscription for School Management Portal."
)

// Service drives the signup/payment/login workflow. Each call is one
// synchronous handling cycle: it reads the session, talks to the gateways
// and commits the new session state before returning.
type Service struct {
	sessions  session.Store
	idGateway identity.Gateway
	directory account.Directory
	payments  payment.Gateway
	mailSvc   core.EmailService
	conf      *core.Config
	validate  *validator.Validate
	log       core.Logger
}

func NewService(
	sessions session.Store,
	idGateway identity.Gateway,
	directory account.Directory,
	payments payment.Gateway,
	mailSvc core.EmailService,
	conf *core.Config,
	validate *validator.Validate,
	log core.Logger,
) *Service {
	return &Service{
		sessions:  sessions,
		idGateway: idGateway,
		directory: directory,
		payments:  payments,
		mailSvc:   mailSvc,
		conf:      conf,
		validate:  validate,
		log:       log,
	}
}

// SubscriptionCharge returns the fixed sale created for every signup.
func (svc *Service) SubscriptionCharge() payment.Charge {
	return payment.Charge{
		Total:       SubscriptionPrice,
		Currency:    SubscriptionCurrency,
		Description: subscriptionDescription,
		Items: []payment.Item{{
			Name:     SubscriptionItemName,
			SKU:      SubscriptionSKU,
			Price:    SubscriptionPrice,
			Currency: SubscriptionCurrency,
			Quantity: 1,
		}},
		ReturnURL: svc.conf.FrontendBaseURL + "/success",
		CancelURL: svc.conf.FrontendBaseURL + "/cancel",
	}
}

// Start validates the signup data, creates a payment intent and parks the
// signup on the session until the payment redirect comes back.
// The account is NOT created here.
func (svc *Service) Start(ctx context.Context, sess *session.Session, ns NewSignup) (payment.Intent, error) {
	if err := ns.Validate(svc.validate); err != nil {
		return payment.Intent{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(ns.Password), bcrypt.DefaultCost)
	if err != nil {
		return payment.Intent{}, errors.Wrap(err, "hashing password")
	}

	intent, err := svc.payments.CreateIntent(ctx, svc.SubscriptionCharge())
	if err != nil {
		// signup data stays out of the session; the user re-attempts
		return payment.Intent{}, err
	}

	_ = session.Transition(sess, session.ScreenSignupSignin)
	sess.Pending = &session.PendingSignup{
		SchoolName:   ns.SchoolName,
		Email:        ns.Email,
		PasswordHash: hash,
		IntentID:     intent.ID,
	}
	if err := svc.sessions.SaveSession(ctx, sess); err != nil {
		return payment.Intent{}, errors.Wrap(err, "saving session")
	}

	signupsStarted.Inc()
	return intent, nil
}

// Complete reconciles an approval redirect with the pending signup.
// Approved: exactly one account is created from the pending data, a welcome
// email is sent and the pending signup is cleared; the screen is unchanged
// (the user signs in explicitly). Cancelled: the pending signup is cleared
// and no account is created.
func (svc *Service) Complete(ctx context.Context, sess *session.Session, intentID, payerID string) (account.Account, payment.Intent, error) {
	if sess.Pending == nil {
		return account.Account{}, payment.Intent{}, ErrNoPendingSignup
	}
	if sess.Pending.IntentID != intentID {
		return account.Account{}, payment.Intent{}, ErrIntentMismatch
	}

	intent, err := svc.payments.ConfirmIntent(ctx, intentID, payerID)
	if err != nil {
		return account.Account{}, payment.Intent{}, errors.Wrap(err, "confirming payment")
	}

	if intent.Status != payment.StatusApproved {
		svc.clearPending(ctx, sess)
		signupsCancelled.Inc()
		return account.Account{}, intent, nil
	}

	acct := account.Account{
		SchoolName:    sess.Pending.SchoolName,
		Email:         sess.Pending.Email,
		CredentialRef: svc.lookupCredentialRef(ctx, sess.Pending.Email),
		CreatedAt:     time.Now().UTC(),
	}
	acct, err = svc.directory.CreateAccount(ctx, acct)
	if err != nil {
		return account.Account{}, intent, errors.Wrap(err, "creating account")
	}

	svc.clearPending(ctx, sess)
	svc.sendWelcomeEmail(acct)

	signupsCompleted.Inc()
	return acct, intent, nil
}

// Cancel handles the cancel redirect: the pending signup is dropped and the
// user stays on the signup/signin screen.
func (svc *Service) Cancel(ctx context.Context, sess *session.Session, intentID string) error {
	if sess.Pending == nil {
		return ErrNoPendingSignup
	}
	if intentID != "" && sess.Pending.IntentID != intentID {
		return ErrIntentMismatch
	}
	svc.clearPending(ctx, sess)
	signupsCancelled.Inc()
	return nil
}

// SignIn authenticates a returning admin and moves the session to MainApp.
// The identity gateway is only asked whether the email is known; the
// submitted password is not checked against it (kept as the product
// currently behaves). A directory miss is an error state even when the
// identity gateway knows the user.
func (svc *Service) SignIn(ctx context.Context, sess *session.Session, creds Credentials) (account.Account, error) {
	if err := creds.Validate(svc.validate); err != nil {
		return account.Account{}, err
	}

	if _, err := svc.idGateway.FindUserByEmail(ctx, creds.Email); err != nil {
		if errors.Cause(err) == identity.ErrUserNotFound {
			return account.Account{}, ErrSignInFailed
		}
		return account.Account{}, err
	}

	acct, err := svc.directory.FindAccountByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Cause(err) == account.ErrNotFound {
			return account.Account{}, account.ErrNotFound
		}
		return account.Account{}, errors.Wrap(err, "finding account by email")
	}

	if err := session.Transition(sess, session.ScreenMainApp); err != nil {
		return account.Account{}, err
	}
	sess.Auth = &session.AuthInfo{Email: acct.Email, SchoolName: acct.SchoolName}
	if err := svc.sessions.SaveSession(ctx, sess); err != nil {
		return account.Account{}, errors.Wrap(err, "saving session")
	}

	signins.Inc()
	return acct, nil
}

// Logout clears all session data and returns to the Landing screen.
func (svc *Service) Logout(ctx context.Context, sess *session.Session) error {
	sess.Reset()
	return errors.Wrap(svc.sessions.SaveSession(ctx, sess), "saving session")
}

func (svc *Service) clearPending(ctx context.Context, sess *session.Session) {
	sess.Pending = nil
	sess.UpdatedAt = time.Now().UTC()
	if err := svc.sessions.SaveSession(ctx, sess); err != nil {
		svc.log.Error("saving session", errors.Wrap(err, "clearing pending signup"))
	}
}

// lookupCredentialRef resolves the identity-provider UID for the new
// account; identity records are provisioned out-of-band so a miss is fine.
func (svc *Service) lookupCredentialRef(ctx context.Context, email string) string {
	usr, err := svc.idGateway.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) != identity.ErrUserNotFound {
			svc.log.Warn("looking up credential ref", err)
		}
		return ""
	}
	return usr.UID
}

func (svc *Service) sendWelcomeEmail(acct account.Account) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: acct.SchoolName, Address: acct.Email}},
		Subject:      "Welcome to " + svc.conf.AppName,
		TemplateName: "welcome",
		TemplateData: acct,
	})
}
