package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Debug            bool
	TestMode         bool
	Env              string
	Build            string
	AppName          string
	SecretKey        string
	FrontendBaseURL  string
	DefaultFromEmail string
	WorkDir          string
	RollbarToken     string
	SendgridAPIKey   string

	Server struct {
		Host            string
		Port            string
		ShutdownTimeout time.Duration
	}

	Session struct {
		CookieName string
		TTL        time.Duration
	}

	Database struct {
		Engine        string
		Name          string
		Host          string
		Port          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	Redis struct {
		URL string
	}

	Identity struct {
		BaseURL    string
		ServiceKey string
		Timeout    time.Duration
	}

	PayPal struct {
		BaseURL      string
		ClientID     string
		ClientSecret string
		Timeout      time.Duration
	}
}

func (c *Config) ServerAddress() string { return c.Server.Host + ":" + c.Server.Port }

func (c *Config) DatabaseAddress() string { return c.Database.Host + ":" + c.Database.Port }

// NewConfig loads the app configuration from defaults, an optional
// config/.env.<env> file and environment variables (in increasing precedence).
func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("env", "DEV") // DEV (local; default), TEST, QA, PROD
	v.SetDefault("build", "dev")
	v.SetDefault("appName", "Edu Pro")
	v.SetDefault("secretKey", "+wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("frontendBaseURL", "http://localhost:8501")
	v.SetDefault("defaultFromEmail", "noreply@localhost")

	v.SetDefault("serverHost", "")
	v.SetDefault("serverPort", "8000")
	v.SetDefault("shutdownTimeout", 5*time.Second)

	v.SetDefault("sessionCookieName", "sessionid")
	v.SetDefault("sessionTTL", 7*24*time.Hour)

	v.SetDefault("dbEngine", "postgres")
	v.SetDefault("dbName", "schoolportal")
	v.SetDefault("dbHost", "localhost")
	v.SetDefault("dbPort", "5432")
	v.SetDefault("dbUser", "")
	v.SetDefault("dbPassword", "")
	v.SetDefault("dbAdminUser", "")
	v.SetDefault("dbAdminPassword", "")
	v.SetDefault("dbDisableTLS", true)

	v.SetDefault("redisURL", "")

	v.SetDefault("identityBaseURL", "")
	v.SetDefault("identityServiceKey", "")
	v.SetDefault("identityTimeout", 10*time.Second)

	v.SetDefault("paypalBaseURL", "https://api.sandbox.paypal.com")
	v.SetDefault("paypalClientID", "")
	v.SetDefault("paypalClientSecret", "")
	v.SetDefault("paypalTimeout", 20*time.Second)

	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridAPIKey", "")

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	if env == "TEST" {
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	wd := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := &Config{
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		Env:              env,
		Build:            v.GetString("build"),
		AppName:          v.GetString("appName"),
		SecretKey:        v.GetString("secretKey"),
		FrontendBaseURL:  v.GetString("frontendBaseURL"),
		DefaultFromEmail: v.GetString("defaultFromEmail"),
		WorkDir:          wd,
		RollbarToken:     v.GetString("rollbarToken"),
		SendgridAPIKey:   v.GetString("sendgridAPIKey"),
	}
	conf.Server.Host = v.GetString("serverHost")
	conf.Server.Port = v.GetString("serverPort")
	conf.Server.ShutdownTimeout = v.GetDuration("shutdownTimeout")
	conf.Session.CookieName = v.GetString("sessionCookieName")
	conf.Session.TTL = v.GetDuration("sessionTTL")
	conf.Database.Engine = v.GetString("dbEngine")
	conf.Database.Name = v.GetString("dbName")
	conf.Database.Host = v.GetString("dbHost")
	conf.Database.Port = v.GetString("dbPort")
	conf.Database.User = v.GetString("dbUser")
	conf.Database.Password = v.GetString("dbPassword")
	conf.Database.AdminUser = v.GetString("dbAdminUser")
	conf.Database.AdminPassword = v.GetString("dbAdminPassword")
	conf.Database.DisableTLS = v.GetBool("dbDisableTLS")
	conf.Redis.URL = v.GetString("redisURL")
	conf.Identity.BaseURL = v.GetString("identityBaseURL")
	conf.Identity.ServiceKey = v.GetString("identityServiceKey")
	conf.Identity.Timeout = v.GetDuration("identityTimeout")
	conf.PayPal.BaseURL = v.GetString("paypalBaseURL")
	conf.PayPal.ClientID = v.GetString("paypalClientID")
	conf.PayPal.ClientSecret = v.GetString("paypalClientSecret")
	conf.PayPal.Timeout = v.GetDuration("paypalTimeout")
	return conf
}
