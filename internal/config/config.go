// internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all process-wide settings, read from environment variables.
// An empty DatabaseURL means the directory runs in-memory only; an empty
// RedisAddr disables lifecycle event publishing.
type Config struct {
	Port         string        `env:"PORT" envDefault:"8082"`
	DatabaseURL  string        `env:"DATABASE_URL"`
	RedisAddr    string        `env:"REDIS_ADDR"`
	RoomTTL      time.Duration `env:"ROOM_TTL" envDefault:"24h"`
	TickInterval time.Duration `env:"TICK_INTERVAL" envDefault:"50ms"`
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}
