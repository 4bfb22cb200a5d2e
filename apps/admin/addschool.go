package main

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/edupro/schoolportal/core"
	"github.com/edupro/schoolportal/core/account"
	"github.com/edupro/schoolportal/storage/database"
	sqlxrepos "github.com/edupro/schoolportal/storage/database/sqlx"
)

// addSchool provisions a directory record directly, bypassing the signup
// payment flow (support/backoffice path). Credentials are provisioned at
// the identity provider out-of-band.
func (cli *commandLine) addSchool(name, email string) error {
	db, err := database.Open(cli.conf)
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = db.Close() }()

	if err := database.Ping(db); err != nil {
		return err
	}

	directory := sqlxrepos.NewSchoolDirectory(db)
	acct, err := directory.CreateAccount(context.Background(), account.Account{
		SchoolName: core.CleanString(name),
		Email:      core.CleanString(email, true /* lower */),
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		return errors.Wrap(err, "creating school record")
	}

	cli.log.Info("school record created", acct)
	return nil
}
