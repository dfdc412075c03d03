package config

import (
	"encoding/base64"
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config is read from the environment (CHAT_* variables); cmd/server applies
// flag overrides on top. SigningSecret is the base64-encoded HMAC key shared
// with the external auth service. DatabaseDSN may be empty, in which case the
// engine runs without a history store.
type Config struct {
	ServerAddr     string   `envconfig:"SERVER_ADDR" default:":8000"`
	DatabaseDSN    string   `envconfig:"DATABASE_DSN"`
	SigningSecret  string   `envconfig:"SIGNING_SECRET"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS"`
	HistoryBuffer  int      `envconfig:"HISTORY_BUFFER" default:"512"`

	SigningKey []byte `ignored:"true"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("chat", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	return &cfg, nil
}

// Finalize validates the config and decodes derived fields. Called after any
// flag overrides are applied.
func (c *Config) Finalize() error {
	if c.ServerAddr == "" {
		return fmt.Errorf("server address cannot be empty")
	}
	if c.SigningSecret == "" {
		return fmt.Errorf("signing secret cannot be empty")
	}
	if c.HistoryBuffer <= 0 {
		return fmt.Errorf("history buffer must be positive")
	}

	signingKey, err := base64.StdEncoding.DecodeString(c.SigningSecret)
	if err != nil {
		return fmt.Errorf("decode signing secret: %w", err)
	}
	c.SigningKey = signingKey

	return nil
}
