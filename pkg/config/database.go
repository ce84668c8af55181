package config

import (
	"fmt"
	"strings"
	"time"
)

type DatabaseConfig struct {
	URL          string        `koanf:"url"`
	Timeout      time.Duration `koanf:"timeout"`
	QueryTimeout time.Duration `koanf:"querytimeout"`
	Pool         struct {
		MinConns int32 `koanf:"minconns"`
		MaxConns int32 `koanf:"maxconns"`
	} `koanf:"pool"`
}

func (c *DatabaseConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("database URL is not configured")
	}
	if !isValidPostgresURL(c.URL) {
		return fmt.Errorf("database URL must start with 'postgres://': %s", c.URL)
	}
	if c.QueryTimeout <= 0 {
		return fmt.Errorf("database query timeout is not configured")
	}
	if c.Pool.MinConns < 0 {
		return fmt.Errorf("database pool minconns must not be negative: %d", c.Pool.MinConns)
	}
	if c.Pool.MaxConns <= 0 {
		return fmt.Errorf("database pool maxconns must be positive: %d", c.Pool.MaxConns)
	}
	if c.Pool.MinConns > c.Pool.MaxConns {
		return fmt.Errorf("database pool minconns (%d) exceeds maxconns (%d)", c.Pool.MinConns, c.Pool.MaxConns)
	}
	return nil
}

// isValidPostgresURL checks if the provided URL is a valid PostgreSQL URL
func isValidPostgresURL(url string) bool {
	return strings.HasPrefix(url, "postgres://") ||
		strings.HasPrefix(url, "postgresql://")
}
