package dummyid

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/edupro/schoolportal/core"
	"github.com/edupro/schoolportal/core/identity"
)

// Service is an in-memory identity gateway for dev and tests.
type Service struct {
	mu     sync.Mutex
	users  map[string]identity.User // keyed by email
	pwds   map[string][]byte        // email -> bcrypt hash
	nextID int

	// Unavailable makes every call fail with ErrGatewayUnavailable.
	Unavailable bool
}

var _ identity.Gateway = (*Service)(nil)

func NewService() *Service {
	return &Service{
		users:  make(map[string]identity.User),
		pwds:   make(map[string][]byte),
		nextID: 1,
	}
}

// Register seeds a user; panics on bcrypt failure (test helper).
func (svc *Service) Register(email, displayName, password string) identity.User {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	usr := identity.User{
		UID:         "uid-" + strconv.Itoa(svc.nextID),
		Email:       core.CleanString(email, true /* lower */),
		DisplayName: displayName,
	}
	svc.nextID++

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	svc.users[usr.Email] = usr
	svc.pwds[usr.Email] = hash
	return usr
}

func (svc *Service) FindUserByEmail(ctx context.Context, email string) (identity.User, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if svc.Unavailable {
		return identity.User{}, identity.ErrGatewayUnavailable
	}
	usr, ok := svc.users[core.CleanString(email, true)]
	if !ok {
		return identity.User{}, identity.ErrUserNotFound
	}
	return usr, nil
}

func (svc *Service) VerifyCredentials(ctx context.Context, email, password string) (identity.User, error) {
	usr, err := svc.FindUserByEmail(ctx, email)
	if err != nil {
		if err == identity.ErrUserNotFound {
			return identity.User{}, identity.ErrInvalidCredentials
		}
		return identity.User{}, err
	}

	svc.mu.Lock()
	hash := svc.pwds[usr.Email]
	svc.mu.Unlock()
	if bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		return identity.User{}, identity.ErrInvalidCredentials
	}
	return usr, nil
}
