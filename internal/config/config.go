// Package config loads ironsign settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/jmcleod/ironsign/crypto"
)

// EnvPrefix is prepended to every variable name.
const EnvPrefix = "IRONSIGN_"

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverBolt     = "bbolt"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Config contains ironsign configuration parameters.
type Config struct {
	LogLevel    string        `env:"LOG_LEVEL" envDefault:"info"`
	HashScheme  string        `env:"HASH_SCHEME" envDefault:"sha256"`
	PasswordTTL time.Duration `env:"PASSWORD_TTL" envDefault:"30m"`
	Storage     Storage       `envPrefix:"STORAGE_"`
}

// Storage selects and configures the vault backend.
type Storage struct {
	Driver      string `env:"DRIVER" envDefault:"bbolt"`
	Path        string `env:"PATH" envDefault:"./data/ironsign.db"`
	PostgresDSN string `env:"POSTGRES_DSN"`
	RedisAddr   string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisDB     int    `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix string `env:"REDIS_PREFIX" envDefault:"ironsign"`
}

// Load reads the given .env files (missing files are ignored) and then parses
// IRONSIGN_* variables. Variables already set in the environment win over
// .env values.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return Parse(nil)
}

// Parse builds a Config from environment (or from vars when non-nil).
func Parse(vars map[string]string) (*Config, error) {
	cfg := Config{}
	opts := env.Options{Prefix: EnvPrefix}
	if vars != nil {
		opts.Environment = vars
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated values and driver requirements.
func (c *Config) Validate() error {
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if _, err := c.Hash(); err != nil {
		return err
	}
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverBolt:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage path is required for the %s driver", DriverBolt)
		}
	case DriverPostgres:
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("postgres DSN is required for the %s driver", DriverPostgres)
		}
	case DriverRedis:
		if c.Storage.RedisAddr == "" {
			return fmt.Errorf("redis address is required for the %s driver", DriverRedis)
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.PasswordTTL <= 0 {
		return fmt.Errorf("password TTL must be positive, got %s", c.PasswordTTL)
	}
	return nil
}

// SlogLevel maps LogLevel onto a slog.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return lvl, nil
}

// Hash returns the configured message hash scheme.
func (c *Config) Hash() (crypto.HashScheme, error) {
	return crypto.ParseHashScheme(c.HashScheme)
}
