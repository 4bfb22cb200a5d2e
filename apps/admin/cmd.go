package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/edupro/schoolportal/core"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf *core.Config
	log  core.Logger
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate                           - create the database if needed and apply migrations")
	fmt.Println("  addschool -name NAME -email EMAIL - provision a school record in the directory")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addSchoolCmd := flag.NewFlagSet("addschool", flag.ExitOnError)
	addSchoolName := addSchoolCmd.String("name", "", "The school's display name.")
	addSchoolEmail := addSchoolCmd.String("email", "", "The school admin's email.")

	switch args[1] {
	case "migrate":
		return cli.migrate()
	case "addschool":
		if err := addSchoolCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addSchoolName == "" || *addSchoolEmail == "" {
			addSchoolCmd.Usage()
			return errHelp
		}
		return cli.addSchool(*addSchoolName, *addSchoolEmail)
	default:
		cli.printUsage()
		return errHelp
	}
}
