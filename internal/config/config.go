// Package config reads runtime settings from OVERLAY_* environment
// variables, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the runtime configuration.
type Config struct {
	DataDir  string        `env:"OVERLAY_DATA_DIR" envDefault:"data"`
	SaveDB   string        `env:"OVERLAY_SAVE_DB" envDefault:"overlay.db"`
	LogLevel string        `env:"OVERLAY_LOG_LEVEL" envDefault:"info"`
	Reclaim  bool          `env:"OVERLAY_RECLAIM" envDefault:"true"`
	Tick     time.Duration `env:"OVERLAY_TICK" envDefault:"16ms"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads dotenv, when it exists, into the environment without
// overriding variables that are already set, then parses Config.
// An empty dotenv path skips the file.
func Load(dotenv string) (Config, error) {
	if dotenv != "" {
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", dotenv, err)
		}
	}

	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if _, err := cfg.Level(); err != nil {
		return Config{}, err
	}
	if cfg.Tick <= 0 {
		return Config{}, fmt.Errorf("OVERLAY_TICK must be positive, got %s", cfg.Tick)
	}
	return cfg, nil
}

// Level parses LogLevel (debug, info, warn, error).
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("OVERLAY_LOG_LEVEL: %w", err)
	}
	return level, nil
}
