package postgres

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the PostgreSQL store module configuration.
type Config struct {
	// DSN is a libpq connection string or URL. Supports ${VAR} expansion
	// through the config loader.
	DSN string `yaml:"dsn"`

	// MaxConns caps the pool size. Defaults to 4.
	MaxConns int32 `yaml:"max_conns"`

	// ConnectTimeout bounds the initial connection. Defaults to 10s.
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

func (c *Config) defaults() {
	if c.MaxConns == 0 {
		c.MaxConns = 4
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 10 * time.Second
	}
}

func (c *Config) validate() error {
	if c.DSN == "" {
		return errors.New("postgres: dsn is required")
	}
	if c.MaxConns < 1 {
		return fmt.Errorf("postgres: max_conns must be positive, got %d", c.MaxConns)
	}
	return nil
}
