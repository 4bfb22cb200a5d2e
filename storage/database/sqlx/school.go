package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/edupro/schoolportal/core"
	"github.com/edupro/schoolportal/core/account"
)

const uniqueViolation = "23505"

type schoolDirectory struct {
	db *sqlx.DB
}

var _ account.Directory = (*schoolDirectory)(nil)

func NewSchoolDirectory(db *sqlx.DB) *schoolDirectory {
	return &schoolDirectory{db: db}
}

type dbSchool struct {
	ID            string    `db:"id"`
	Name          string    `db:"name"`
	Email         string    `db:"email"`
	CredentialRef string    `db:"credential_ref"`
	CreatedAt     time.Time `db:"created_at"`
}

func (s dbSchool) toAccount() account.Account {
	return account.Account{
		ID:            s.ID,
		SchoolName:    s.Name,
		Email:         s.Email,
		CredentialRef: s.CredentialRef,
		CreatedAt:     s.CreatedAt.UTC(),
	}
}

func (repo *schoolDirectory) FindAccountByEmail(ctx context.Context, email string) (account.Account, error) {
	var sch dbSchool
	q := `SELECT id, name, email, credential_ref, created_at FROM schools WHERE email = $1`
	if err := repo.db.GetContext(ctx, &sch, q, core.CleanString(email, true /* lower */)); err != nil {
		if err == sql.ErrNoRows {
			return account.Account{}, account.ErrNotFound
		}
		return account.Account{}, errors.Wrap(err, "querying school by email")
	}
	return sch.toAccount(), nil
}

func (repo *schoolDirectory) CreateAccount(ctx context.Context, acct account.Account) (account.Account, error) {
	if acct.CreatedAt.IsZero() {
		acct.CreatedAt = time.Now().UTC()
	}

	var sch dbSchool
	q := `INSERT INTO schools (name, email, credential_ref, created_at)
		  VALUES ($1, $2, $3, $4)
		  RETURNING id, name, email, credential_ref, created_at`
	err := repo.db.GetContext(ctx, &sch, q,
		acct.SchoolName, core.CleanString(acct.Email, true), acct.CredentialRef, acct.CreatedAt)
	if err != nil {
		if pqErr, ok := errors.Cause(err).(*pq.Error); ok && string(pqErr.Code) == uniqueViolation {
			return account.Account{}, account.ErrEmailTaken
		}
		return account.Account{}, errors.Wrap(err, "inserting school")
	}
	return sch.toAccount(), nil
}
