package main

import (
	"github.com/pkg/errors"

	"github.com/edupro/schoolportal/storage/database"
)

func (cli *commandLine) migrate() error {
	if err := database.CreateIfNotExist(cli.conf); err != nil {
		return errors.Wrap(err, "creating database")
	}

	db, err := database.Open(cli.conf)
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = db.Close() }()

	if err := database.Ping(db); err != nil {
		return err
	}
	if err := database.Migrate(db.DB); err != nil {
		return err
	}

	cli.log.Info("migrations applied")
	return nil
}
