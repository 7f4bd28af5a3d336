package storage

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the server configuration persisted as config.yaml in the data
// directory.
type Config struct {
	// MaxStoreBytes caps the flat store size. 0 disables the quota.
	MaxStoreBytes int64 `yaml:"max_store_bytes"`
	// History enables git snapshots of the data directory after each save.
	History bool `yaml:"history"`
	// JWTSecret signs session tokens. Generated on first run.
	JWTSecret []byte `yaml:"jwt_secret"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns the configuration written on first run, minus the
// generated secret.
func DefaultConfig() *Config {
	return &Config{
		MaxStoreBytes: 5 << 20,
		History:       true,
		LogLevel:      "info",
	}
}

// LoadConfig reads config.yaml from dataDir, creating it with defaults and a
// fresh random secret if absent.
func LoadConfig(dataDir string) (*Config, error) {
	p := filepath.Join(dataDir, "config.yaml")
	raw, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		c := DefaultConfig()
		c.JWTSecret = make([]byte, 32)
		if _, err := rand.Read(c.JWTSecret); err != nil {
			return nil, fmt.Errorf("failed to generate secret: %w", err)
		}
		if err := c.Save(dataDir); err != nil {
			return nil, err
		}
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", p, err)
	}
	c := &Config{}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", p, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", p, err)
	}
	return c, nil
}

// Save writes the configuration to config.yaml in dataDir.
func (c *Config) Save(dataDir string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	p := filepath.Join(dataDir, "config.yaml")
	if err := os.WriteFile(p, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", p, err)
	}
	return nil
}

// Validate checks the configuration for values that would break at runtime.
func (c *Config) Validate() error {
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("jwt_secret must be at least 32 bytes, got %d", len(c.JWTSecret))
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("bad log_level %q: %w", c.LogLevel, err)
	}
	if c.MaxStoreBytes < 0 {
		return fmt.Errorf("max_store_bytes must not be negative, got %d", c.MaxStoreBytes)
	}
	return nil
}
