package config

import (
	"fmt"
	"strings"
	"time"
)

type CacheConfig struct {
	Addr         string        `koanf:"addr"`
	Timeout      time.Duration `koanf:"timeout"`
	TTL          time.Duration `koanf:"ttl"`
	ScanPageSize int64         `koanf:"scanpagesize"`
}

// String returns a string representation of the cache configuration.
func (c *CacheConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Cache ---\n")
	b.WriteString(fmt.Sprintf("  addr: %s\n", c.Addr))
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Timeout))
	b.WriteString(fmt.Sprintf("  ttl: %s\n", c.TTL))
	b.WriteString(fmt.Sprintf("  scanpagesize: %d\n", c.ScanPageSize))
	return b.String()
}

func (c *CacheConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("cache address is not configured")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("cache dial timeout is not configured")
	}
	if c.TTL <= 0 {
		return fmt.Errorf("cache TTL is not configured")
	}
	if c.ScanPageSize <= 0 {
		return fmt.Errorf("cache scan page size must be positive: %d", c.ScanPageSize)
	}
	return nil
}
