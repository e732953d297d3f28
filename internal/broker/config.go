package broker

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the brokerage API credentials and client tuning.
type Config struct {
	Secret           string `env:"PUBLIC_COM_SECRET"`
	AccountID        string `env:"PUBLIC_COM_ACCOUNT_ID"`
	BaseURL          string `env:"PUBLIC_COM_BASE_URL" envDefault:"https://api.public.com"`
	TokenValidityMin int    `env:"PUBLIC_COM_TOKEN_VALIDITY_MIN" envDefault:"60"`
	RatePerSec       int    `env:"PUBLIC_COM_RATE_PER_SEC" envDefault:"5"`
	TimeoutSec       int    `env:"PUBLIC_COM_TIMEOUT_SEC" envDefault:"20"`

	// Computed (not from env)
	TokenValidity time.Duration `env:"-"`
	Timeout       time.Duration `env:"-"`
}

// LoadConfig reads PUBLIC_COM_* environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{}); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	cfg.TokenValidity = time.Duration(cfg.TokenValidityMin) * time.Minute
	cfg.Timeout = time.Duration(cfg.TimeoutSec) * time.Second

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Secret == "" {
		return fmt.Errorf("secret is required (set PUBLIC_COM_SECRET env var)")
	}
	if c.RatePerSec < 1 {
		return fmt.Errorf("rate per second must be >= 1")
	}
	if c.TokenValidityMin < 1 {
		return fmt.Errorf("token validity must be >= 1 minute")
	}
	return nil
}
