package dummydb

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/edupro/schoolportal/core"
	"github.com/edupro/schoolportal/core/account"
)

// SchoolDirectory is an in-memory account directory for dev and tests.
type SchoolDirectory struct {
	mu      sync.Mutex
	schools map[string]account.Account // keyed by email
}

var _ account.Directory = (*SchoolDirectory)(nil)

func NewSchoolDirectory() *SchoolDirectory {
	return &SchoolDirectory{schools: make(map[string]account.Account)}
}

func (repo *SchoolDirectory) FindAccountByEmail(ctx context.Context, email string) (account.Account, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	acct, ok := repo.schools[core.CleanString(email, true /* lower */)]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}
	return acct, nil
}

func (repo *SchoolDirectory) CreateAccount(ctx context.Context, acct account.Account) (account.Account, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	email := core.CleanString(acct.Email, true)
	if _, ok := repo.schools[email]; ok {
		return account.Account{}, account.ErrEmailTaken
	}

	acct.ID = uuid.New().String()
	acct.Email = email
	if acct.CreatedAt.IsZero() {
		acct.CreatedAt = time.Now().UTC()
	}
	repo.schools[email] = acct
	return acct, nil
}

// All returns every stored account (test helper).
func (repo *SchoolDirectory) All() []account.Account {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	out := make([]account.Account, 0, len(repo.schools))
	for _, acct := range repo.schools {
		out = append(out, acct)
	}
	return out
}
