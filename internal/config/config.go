package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/eshop/storefront/pkg/redisx"
)

type SMTPConfig struct {
	Host     string `default:"localhost"`
	Port     int    `default:"587"`
	Username string
	Password string
	Sender   string `default:"noreply@eshop.com"`
}

type TwitterConfig struct {
	APIKey       string `envconfig:"API_KEY"`
	APISecret    string `envconfig:"API_SECRET"`
	AccessToken  string `split_words:"true"`
	AccessSecret string `split_words:"true"`
}

type Config struct {
	Environment string `default:"development"`
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8080"`
	MySQLDSN    string `envconfig:"MYSQL_DSN" default:"root:root@tcp(localhost:3306)/storefront?parseTime=true"`

	// SessionTTLHours bounds both the login session and its cart.
	SessionTTLHours int `split_words:"true" default:"24"`

	AnnounceQueueSize int `split_words:"true" default:"1000"`
	AnnounceWorkers   int `split_words:"true" default:"4"`

	Redis   redisx.Config
	SMTP    SMTPConfig
	Twitter TwitterConfig
}

// Load reads an optional .env file and then the STOREFRONT_* environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("storefront", &cfg); err != nil {
		return nil, fmt.Errorf("process env config: %w", err)
	}

	return &cfg, nil
}
