package inmemstore

import (
	"context"
	"sync"

	"github.com/edupro/schoolportal/core/session"
)

// sessionStore is a mutex-guarded in-process store; fine for a single
// instance, swapped for the redis store in multi-instance deployments.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]session.Session
}

var _ session.Store = (*sessionStore)(nil)

func NewSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]session.Session)}
}

func (st *sessionStore) GetSession(ctx context.Context, id string) (*session.Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	sess, ok := st.sessions[id]
	if !ok {
		return nil, session.ErrNotFound
	}
	// hand out a copy; the caller owns its session until the next Save
	out := sess
	if sess.Pending != nil {
		pending := *sess.Pending
		out.Pending = &pending
	}
	if sess.Auth != nil {
		auth := *sess.Auth
		out.Auth = &auth
	}
	return &out, nil
}

func (st *sessionStore) SaveSession(ctx context.Context, sess *session.Session) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	stored := *sess
	if sess.Pending != nil {
		pending := *sess.Pending
		stored.Pending = &pending
	}
	if sess.Auth != nil {
		auth := *sess.Auth
		stored.Auth = &auth
	}
	st.sessions[sess.ID] = stored
	return nil
}

func (st *sessionStore) DeleteSession(ctx context.Context, id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
	return nil
}
