package config

import (
	"fmt"
	"time"
)

// Config carries settings for both binaries; each binds only the flags it
// uses. Values come from flags or CODEWORDS_-prefixed environment variables.
type Config struct {
	// Authority server.
	Bind      string
	Port      int
	PublicURL string

	// Journal (optional; empty RedisAddr disables it).
	RedisAddr    string
	RedisDB      int
	JournalQueue string

	// Historian.
	DatabaseURL       string
	MigrationsPath    string
	BatchSize         int
	FlushInterval     time.Duration
	InactivityTimeout time.Duration

	Verbose bool
}

// Validate rejects settings that cannot work before anything binds or dials.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	return nil
}

// ValidateHistorian covers the settings only the historian binary uses.
func (c *Config) ValidateHistorian() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("database URL is required")
	}
	if c.RedisAddr == "" {
		return fmt.Errorf("redis address is required")
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("invalid batch size: %d", c.BatchSize)
	}
	return nil
}

// Addr is the listen address for the authority server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Bind, c.Port)
}
