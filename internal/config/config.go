// Package config loads server settings from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the server configuration. Flags override these values.
type Config struct {
	DBPath    string `env:"MOLTEN_DB" envDefault:"molten.sqlite3"`
	Addr      string `env:"MOLTEN_ADDR" envDefault:":8080"`
	AdminUser string `env:"MOLTEN_ADMIN_USER" envDefault:"Admin"`
	LogPath   string `env:"MOLTEN_LOG_FILE"`
}

// Load parses the configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
