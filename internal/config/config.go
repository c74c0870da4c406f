// Package config reads and validates the service configuration.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds every externally supplied setting. It is constructed once at
// startup and injected into the components that need it.
type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	AppURL      string `env:"APP_URL" envDefault:"http://localhost:8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`

	AdminPassword    string `env:"ADMIN_PASSWORD"`
	EncryptionSecret string `env:"ENCRYPTION_SECRET"`

	KakaoPayCID    string `env:"KAKAOPAY_CID"`
	KakaoPaySecret string `env:"KAKAOPAY_SECRET"`

	SMTPHost  string `env:"SMTP_HOST"`
	SMTPPort  string `env:"SMTP_PORT"`
	SMTPUser  string `env:"SMTP_USER"`
	SMTPPass  string `env:"SMTP_PASS"`
	EmailFrom string `env:"EMAIL_FROM" envDefault:"donation@localhost"`

	OrgName         string `env:"ORG_NAME" envDefault:"에코행복연구소 자유후원"`
	OrgUniqueNumber string `env:"ORG_UNIQUE_NUMBER"`
}

// Load parses the environment into a Config and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate enforces the settings the service cannot run without.
// KakaoPay and SMTP credentials are optional: their absence disables the
// gateway flow and outbound email respectively.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.AdminPassword == "" {
		return fmt.Errorf("ADMIN_PASSWORD is required")
	}
	if len(c.EncryptionSecret) < 32 {
		return fmt.Errorf("ENCRYPTION_SECRET must be at least 32 characters")
	}
	return nil
}

// KakaoPayConfigured reports whether the gateway flow can be used.
func (c *Config) KakaoPayConfigured() bool {
	return c.KakaoPayCID != "" && c.KakaoPaySecret != ""
}
