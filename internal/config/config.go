package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	StoreMemory  = "memory"
	StoreRocksDB = "rocksdb"
	StoreBolt    = "bolt"
	StoreSQLite  = "sqlite"
)

type Config struct {
	Store          string        `env:"GARAGE_STORE"           envDefault:"memory"`
	Path           string        `env:"GARAGE_PATH"            envDefault:"./garagedb"`
	QuotaBytes     int           `env:"GARAGE_QUOTA_BYTES"     envDefault:"5242880"`
	IndexKey       string        `env:"GARAGE_INDEX_KEY"       envDefault:"GARAGEITEMS"`
	ExpirationDays int           `env:"GARAGE_EXPIRATION_DAYS" envDefault:"7"`
	Blacklist      []string      `env:"GARAGE_BLACKLIST"       envSeparator:","`
	SweepInterval  time.Duration `env:"GARAGE_SWEEP_INTERVAL"  envDefault:"1h"`

	SocketPath string `env:"GARAGE_SOCKET"    envDefault:"/tmp/garage.sock"`
	HTTPAddr   string `env:"GARAGE_HTTP_ADDR" envDefault:":8080"`

	UpstreamURL     string        `env:"GARAGE_UPSTREAM_URL"`
	UpstreamTimeout time.Duration `env:"GARAGE_UPSTREAM_TIMEOUT" envDefault:"5s"`
}

// Load reads the configuration from the environment and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Store {
	case StoreMemory:
		if c.QuotaBytes < 0 {
			return fmt.Errorf("quota bytes cannot be negative")
		}
	case StoreRocksDB, StoreBolt, StoreSQLite:
		if c.Path == "" {
			return fmt.Errorf("path is required for store %q", c.Store)
		}
	default:
		return fmt.Errorf("unknown store: %s", c.Store)
	}
	if c.IndexKey == "" {
		return fmt.Errorf("index key cannot be empty")
	}
	if c.SweepInterval < 0 {
		return fmt.Errorf("sweep interval cannot be negative")
	}
	if c.HTTPAddr == "" && c.SocketPath == "" {
		return fmt.Errorf("at least one of http addr or socket path is required")
	}
	if c.UpstreamURL != "" && c.UpstreamTimeout <= 0 {
		return fmt.Errorf("upstream timeout must be positive")
	}
	return nil
}
