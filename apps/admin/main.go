package main

import (
	"log"
	"os"

	"github.com/edupro/schoolportal/core"
)

func main() {
	conf := core.NewConfig()
	logger := core.NewStdLogger(log.New(os.Stdout, conf.AppName+" admin : ", log.LstdFlags))

	cli := &commandLine{conf: conf, log: logger}
	if err := cli.run(os.Args); err != nil {
		if err == errHelp {
			os.Exit(2)
		}
		logger.Fatal("command failed", err)
	}
}
