package inmemstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupro/schoolportal/core/session"
)

func Test_sessionStore(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()

	t.Run("unknown id", func(t *testing.T) {
		_, err := store.GetSession(ctx, "nope")
		assert.Equal(t, session.ErrNotFound, err)
	})

	t.Run("round trip", func(t *testing.T) {
		sess := session.New()
		sess.Screen = session.ScreenSignupSignin
		sess.Pending = &session.PendingSignup{
			SchoolName:   "Acme High",
			Email:        "admin@acme.test",
			PasswordHash: []byte("hash"),
			IntentID:     "PAY-1",
		}
		require.NoError(t, store.SaveSession(ctx, sess))

		got, err := store.GetSession(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, sess.ID, got.ID)
		assert.Equal(t, session.ScreenSignupSignin, got.CurrentScreen())
		require.NotNil(t, got.Pending)
		assert.Equal(t, "PAY-1", got.Pending.IntentID)
	})

	t.Run("callers get copies, not aliases", func(t *testing.T) {
		sess := session.New()
		sess.Pending = &session.PendingSignup{IntentID: "PAY-2"}
		require.NoError(t, store.SaveSession(ctx, sess))

		// mutating the caller's session must not leak into the store
		sess.Pending.IntentID = "PAY-tampered"
		sess.Screen = session.ScreenMainApp

		got, err := store.GetSession(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, "PAY-2", got.Pending.IntentID)
		assert.Equal(t, session.ScreenLanding, got.CurrentScreen())

		// and neither must mutating a loaded copy
		got.Pending.IntentID = "PAY-tampered-again"
		again, err := store.GetSession(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, "PAY-2", again.Pending.IntentID)
	})

	t.Run("delete", func(t *testing.T) {
		sess := session.New()
		require.NoError(t, store.SaveSession(ctx, sess))
		require.NoError(t, store.DeleteSession(ctx, sess.ID))

		_, err := store.GetSession(ctx, sess.ID)
		assert.Equal(t, session.ErrNotFound, err)
	})
}
