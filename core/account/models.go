package account

import (
	"context"
	"errors"
	"time"
)

var (
	// errors
	ErrNotFound   = errors.New("school data not found")
	ErrEmailTaken = errors.New("a school with this email already exists")
)

// Account is a school record persisted in the account directory once a
// signup completes. It is created exactly once per approved payment and
// never mutated or deleted by this app.
type Account struct {
	ID            string    `json:"id"`
	SchoolName    string    `json:"school_name"`
	Email         string    `json:"email"`
	CredentialRef string    `json:"-"`
	CreatedAt     time.Time `json:"created_at"` // UTC
}

// Directory abstracts the external document store holding school records,
// queried by equality on the email field.
type Directory interface {
	FindAccountByEmail(ctx context.Context, email string) (Account, error)
	CreateAccount(ctx context.Context, acct Account) (Account, error)
}
