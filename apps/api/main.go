package main

import (
	"log"
	"os"

	echoapi "github.com/edupro/schoolportal/apps/api/echo"
	"github.com/edupro/schoolportal/core"
	"github.com/edupro/schoolportal/core/account"
	"github.com/edupro/schoolportal/core/identity"
	"github.com/edupro/schoolportal/core/payment"
	"github.com/edupro/schoolportal/core/session"
	"github.com/edupro/schoolportal/core/signup"
	emailsvc "github.com/edupro/schoolportal/services/email"
	sendgridmail "github.com/edupro/schoolportal/services/email/sendgrid"
	dummyid "github.com/edupro/schoolportal/services/identity/dummy"
	firebaseid "github.com/edupro/schoolportal/services/identity/firebase"
	logsvc "github.com/edupro/schoolportal/services/logger"
	dummypay "github.com/edupro/schoolportal/services/payment/dummy"
	paypalpay "github.com/edupro/schoolportal/services/payment/paypal"
	"github.com/edupro/schoolportal/storage/database"
	dummydb "github.com/edupro/schoolportal/storage/database/dummy"
	sqlxrepos "github.com/edupro/schoolportal/storage/database/sqlx"
	inmemstore "github.com/edupro/schoolportal/storage/session/inmem"
	redisstore "github.com/edupro/schoolportal/storage/session/redis"
)

func main() {
	conf := core.NewConfig()
	std := log.New(os.Stdout, conf.AppName+" : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	var logger core.Logger
	if conf.Debug || conf.RollbarToken == "" {
		logger = core.NewStdLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std, conf)
	}

	core.InitEmailTemplates(conf)
	validate, translator := core.NewValidator()

	// set up the session store
	var sessions session.Store
	redisClient, err := redisstore.NewClient(conf)
	if err != nil {
		logger.Fatal("connecting to redis", err)
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
		sessions = redisstore.NewSessionStore(redisClient, conf.Session.TTL)
	} else {
		sessions = inmemstore.NewSessionStore()
	}

	// set up the account directory
	var directory account.Directory
	if conf.Debug {
		directory = dummydb.NewSchoolDirectory()
	} else {
		db, err := database.Open(conf)
		if err != nil {
			logger.Fatal("opening database", err)
		}
		defer func() { _ = db.Close() }()
		if err := database.Ping(db); err != nil {
			logger.Fatal("pinging database", err)
		}
		directory = sqlxrepos.NewSchoolDirectory(db)
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug || conf.SendgridAPIKey == "" {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = sendgridmail.NewService(conf, logger)
	}

	var idGateway identity.Gateway
	if conf.Identity.BaseURL == "" {
		logger.Warn("no identity service configured; using the in-memory gateway")
		idGateway = dummyid.NewService()
	} else {
		idGateway = firebaseid.NewService(conf)
	}

	var payGateway payment.Gateway
	if conf.PayPal.ClientID == "" {
		logger.Warn("no payment provider configured; using the in-memory gateway")
		payGateway = dummypay.NewService()
	} else {
		payGateway = paypalpay.NewService(conf)
	}

	signupSvc := signup.NewService(sessions, idGateway, directory, payGateway, mailSvc, conf, validate, logger)

	// start API server
	app := echoapi.NewServer(&echoapi.Options{
		Conf:       conf,
		Logger:     logger,
		Sessions:   sessions,
		SignupSvc:  signupSvc,
		Validate:   validate,
		Translator: translator,
	})
	if err := app.Start(); err != nil {
		logger.Fatal("server stopped", err)
	}
}
