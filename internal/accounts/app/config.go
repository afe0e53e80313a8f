package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Env       string `env:"ACCOUNTS_ENV" envDefault:"dev"`
	LogLevel  string `env:"ACCOUNTS_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"ACCOUNTS_LOG_FORMAT" envDefault:"json"`

	Port                int           `env:"ACCOUNTS_PORT" envDefault:"8080"`
	ShutdownGracePeriod time.Duration `env:"ACCOUNTS_SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`

	DatabaseFile string `env:"ACCOUNTS_DATABASE_FILE" envDefault:"accounts.db"`

	Issuer              string        `env:"ACCOUNTS_JWT_ISSUER" envDefault:"accounts-service"`
	AccessTokenSecret   string        `env:"ACCOUNTS_JWT_ACCESS_SECRET"`
	RefreshTokenSecret  string        `env:"ACCOUNTS_JWT_REFRESH_SECRET"`
	AccessTokenTTL      time.Duration `env:"ACCOUNTS_JWT_ACCESS_TTL" envDefault:"15m"`
	RefreshTokenTTL     time.Duration `env:"ACCOUNTS_JWT_REFRESH_TTL" envDefault:"168h"`
	GoogleOAuthClientID string        `env:"ACCOUNTS_GOOGLE_CLIENT_ID"`
}

// LoadConfig reads the environment, after loading a local .env file when one
// is present.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg Config) validate() error {
	if cfg.AccessTokenSecret == "" {
		return errors.New("ACCOUNTS_JWT_ACCESS_SECRET is required")
	}
	if cfg.RefreshTokenSecret == "" {
		return errors.New("ACCOUNTS_JWT_REFRESH_SECRET is required")
	}
	// Distinct secrets keep the two token kinds non-interchangeable.
	if cfg.AccessTokenSecret == cfg.RefreshTokenSecret {
		return errors.New("access and refresh token secrets must differ")
	}
	return nil
}
