package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	History   HistoryConfig
	Companion CompanionConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8600"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// HistoryConfig bounds the retained uid map history.
type HistoryConfig struct {
	// MaxBytes is the advisory byte budget for snapshots plus changes.
	MaxBytes uint64 `envconfig:"UIDMAP_MAX_BYTES" default:"262144"`
	// Compress enables zstd compression of snapshot payloads.
	Compress bool `envconfig:"UIDMAP_SNAPSHOT_COMPRESS" default:"false"`
}

// CompanionConfig holds the snapshot-trigger companion service settings.
type CompanionConfig struct {
	Address string `envconfig:"COMPANION_ADDR" default:"http://localhost:8601"`
	Enabled bool   `envconfig:"COMPANION_ENABLED" default:"true"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
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
		Server: ServerConfig{
			Port: "8600",
			Host: "0.0.0.0",
		},
		History: HistoryConfig{
			MaxBytes: 256 << 10,
		},
		Companion: CompanionConfig{
			Address: "http://localhost:8601",
			Enabled: true,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
