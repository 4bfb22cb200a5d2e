package identity

import (
	"context"
	"errors"
)

var (
	// errors
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrGatewayUnavailable = errors.New("authentication service unavailable")
)

// User holds the display attributes of an identity-provider user.
type User struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Disabled    bool   `json:"disabled"`
}

// Gateway abstracts the external authentication service.
// An unreachable service surfaces as ErrGatewayUnavailable; it is shown to
// the user and never retried automatically.
type Gateway interface {
	FindUserByEmail(ctx context.Context, email string) (User, error)
	VerifyCredentials(ctx context.Context, email, password string) (User, error)
}
