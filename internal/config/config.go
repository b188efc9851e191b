package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDSN          string
	Environment    string
	SweepInterval  time.Duration
	MigrationsPath string
}

// Load reads configuration from the environment, seeding it from a .env file
// when one is present.
func Load() (*Config, error) {
	// missing .env is fine; plain environment variables still apply
	_ = godotenv.Load(".env")

	cfg := &Config{
		DBDSN:          os.Getenv("DB_DSN"),
		Environment:    os.Getenv("ENV"),
		MigrationsPath: os.Getenv("MIGRATIONS_DIR"),
		SweepInterval:  time.Minute,
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.MigrationsPath == "" {
		cfg.MigrationsPath = "migrations"
	}
	if raw := os.Getenv("SWEEP_INTERVAL"); raw != "" {
		interval, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("parse SWEEP_INTERVAL: %w", err)
		}
		if interval <= 0 {
			return nil, fmt.Errorf("SWEEP_INTERVAL must be positive")
		}
		cfg.SweepInterval = interval
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}

	return cfg, nil
}
