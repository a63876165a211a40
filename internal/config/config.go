package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every environment variable name, e.g.
// TERMEVENTS_LOG_LEVEL.
const Prefix = "TERMEVENTS"

// Config holds all application configuration.
type Config struct {
	// Input decoding
	KittyDisambiguate bool `envconfig:"KITTY_DISAMBIGUATE" default:"false"`
	UTF8Mouse         bool `envconfig:"UTF8_MOUSE" default:"false"`
	DebugEvents       bool `envconfig:"DEBUG_EVENTS" default:"false"`
	EventBuffer       int  `envconfig:"EVENT_BUFFER" default:"64"`

	// Logging
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	LogDevelopment bool   `envconfig:"LOG_DEV" default:"false"`
	LogPath        string `envconfig:"LOG_PATH" default:"termevents.log"`

	// MetricsAddr is the listen address for the Prometheus endpoint. Empty
	// disables it.
	MetricsAddr string `envconfig:"METRICS_ADDR"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.EventBuffer <= 0 {
		return nil, fmt.Errorf("failed to load config: %s_EVENT_BUFFER must be positive, got %d", Prefix, cfg.EventBuffer)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		EventBuffer: 64,
		LogLevel:    "info",
		LogPath:     "termevents.log",
	}
}
