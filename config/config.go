package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type SystemConfig struct {
	Appid    string `yaml:"appid" json:"appid"`
	Location string `yaml:"location" json:"location"`
	Workdir  string `yaml:"workdir" json:"workdir"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

type WebConfig struct {
	Host      string `yaml:"host" json:"host"`
	Port      int    `yaml:"port" json:"port"`
	Secret    string `yaml:"secret" json:"secret"`
	JwtSecret string `yaml:"jwt_secret" json:"jwt_secret"`
}

type DatabaseConfig struct {
	Type     string `yaml:"type" json:"type"`
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Name     string `yaml:"name" json:"name"`
	User     string `yaml:"user" json:"user"`
	Passwd   string `yaml:"passwd" json:"passwd"`
	MaxConn  int    `yaml:"max_conn" json:"max_conn"`
	IdleConn int    `yaml:"idle_conn" json:"idle_conn"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

type StripeConfig struct {
	ApiKey        string `yaml:"api_key" json:"api_key"`
	WebhookSecret string `yaml:"webhook_secret" json:"webhook_secret"`
	Currency      string `yaml:"currency" json:"currency"`
	SuccessURL    string `yaml:"success_url" json:"success_url"`
	CancelURL     string `yaml:"cancel_url" json:"cancel_url"`
}

type SmtpConfig struct {
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
	From     string `yaml:"from" json:"from"`
}

type CheckoutConfig struct {
	// ProbeTimeout bounds the file existence check, in seconds.
	ProbeTimeout int `yaml:"probe_timeout" json:"probe_timeout"`
	// FallbackEmail is used when the gateway session carries no customer
	// email. Order creation never blocks on a missing email.
	FallbackEmail string `yaml:"fallback_email" json:"fallback_email"`
}

type RateLimitConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	Limit   int  `yaml:"limit" json:"limit"`
	// Window is the counting window, in seconds.
	Window int `yaml:"window" json:"window"`
}

type LoggerConfig struct {
	Mode       string `yaml:"mode" json:"mode"`
	FileEnable bool   `yaml:"file_enable" json:"file_enable"`
	Filename   string `yaml:"filename" json:"filename"`
}

type AppConfig struct {
	System    SystemConfig    `yaml:"system" json:"system"`
	Web       WebConfig       `yaml:"web" json:"web"`
	Database  DatabaseConfig  `yaml:"database" json:"database"`
	Stripe    StripeConfig    `yaml:"stripe" json:"stripe"`
	Smtp      SmtpConfig      `yaml:"smtp" json:"smtp"`
	Checkout  CheckoutConfig  `yaml:"checkout" json:"checkout"`
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
	Logger    LoggerConfig    `yaml:"logger" json:"logger"`
}

func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		System: SystemConfig{
			Appid:    "digistore",
			Location: "Asia/Shanghai",
			Workdir:  "/var/digistore",
		},
		Web: WebConfig{
			Host:      "0.0.0.0",
			Port:      1816,
			Secret:    "9b6de5cc-digistore-b9c3-0a0f",
			JwtSecret: "9b6de5cc-digistore-jwt-0a0f",
		},
		Database: DatabaseConfig{
			Type:     "postgres",
			Host:     "127.0.0.1",
			Port:     5432,
			Name:     "digistore",
			User:     "postgres",
			Passwd:   "",
			MaxConn:  100,
			IdleConn: 10,
		},
		Stripe: StripeConfig{
			Currency:   "usd",
			SuccessURL: "http://127.0.0.1:1816/checkout/success",
			CancelURL:  "http://127.0.0.1:1816/checkout/cancel",
		},
		Smtp: SmtpConfig{
			Host: "127.0.0.1",
			Port: 25,
			From: "no-reply@digistore.local",
		},
		Checkout: CheckoutConfig{
			ProbeTimeout:  5,
			FallbackEmail: "anonymous@checkout.local",
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			Limit:   30,
			Window:  60,
		},
		Logger: LoggerConfig{
			Mode:       "development",
			FileEnable: false,
			Filename:   "/var/digistore/digistore.log",
		},
	}
}

// LoadConfig reads the YAML config file if it exists and applies environment
// overrides with the DIGISTORE prefix. Missing files fall back to defaults so
// a bare binary can start for local development.
func LoadConfig(cfile string) *AppConfig {
	cfg := DefaultAppConfig()
	if data, err := os.ReadFile(cfile); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "invalid config file %s: %v\n", cfile, err)
			os.Exit(1)
		}
	}
	if err := envconfig.Process("digistore", cfg); err != nil {
		fmt.Fprintf(os.Stderr, "invalid environment override: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
