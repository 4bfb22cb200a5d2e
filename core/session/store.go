package session

import (
	"context"
	"errors"
)

var (
	// errors
	ErrNotFound = errors.New("session not found")
)

// Store persists sessions keyed by their opaque identifier. The identifier
// is supplied by the hosting layer (HTTP cookie middleware).
type Store interface {
	GetSession(ctx context.Context, id string) (*Session, error)
	SaveSession(ctx context.Context, sess *Session) error
	DeleteSession(ctx context.Context, id string) error
}
