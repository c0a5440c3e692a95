// Package config reads process settings from the environment
package config

import (
	"fmt"
	"log/slog"
	"net"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Storage backends
const (
	StorageJSON     = "json"
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Economy backends
const (
	EconomyMemory = "memory"
	EconomyRedis  = "redis"
	EconomyNone   = "none"
)

// Config holds everything the server needs at startup
type Config struct {
	Host string `env:"PRISONS_HOST" envDefault:"0.0.0.0"`
	Port int    `env:"PRISONS_PORT" envDefault:"8080"`

	DataDir     string `env:"PRISONS_DATA_DIR"     envDefault:"data"`
	StorageType string `env:"PRISONS_STORAGE_TYPE" envDefault:"json"`
	RedisURL    string `env:"REDIS_URL"`
	RedisPrefix string `env:"REDIS_KEY_PREFIX"     envDefault:"prisons"`
	SQLitePath  string `env:"SQLITE_PATH"`
	DatabaseURL string `env:"DATABASE_URL"`
	EconomyType string `env:"PRISONS_ECONOMY_TYPE" envDefault:"memory"`

	AutosaveInterval     time.Duration `env:"PRISONS_AUTOSAVE_INTERVAL"      envDefault:"300s"`
	ShutdownFlushTimeout time.Duration `env:"PRISONS_SHUTDOWN_FLUSH_TIMEOUT" envDefault:"10s"`
	TickInterval         time.Duration `env:"PRISONS_TICK_INTERVAL"          envDefault:"50ms"`

	// Policy file paths; relative paths resolve against DataDir
	ProgressionFile string `env:"PRISONS_PROGRESSION_FILE" envDefault:"progression.yml"`
	RewardsFile     string `env:"PRISONS_REWARDS_FILE"     envDefault:"blockrewards.yml"`

	// AdminTokenHash is a bcrypt hash of the admin bearer token. Empty
	// disables the admin endpoints.
	AdminTokenHash string `env:"PRISONS_ADMIN_TOKEN_HASH"`

	DebugFormulas bool   `env:"PRISONS_DEBUG_FORMULAS"`
	DebugXP       bool   `env:"PRISONS_DEBUG_XP"`
	LogLevel      string `env:"PRISONS_LOG_LEVEL" envDefault:"info"`
}

// Load parses the environment and validates the result
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements
func (c Config) Validate() error {
	switch c.StorageType {
	case StorageJSON, StorageMemory, StorageSQLite:
	case StorageRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL required when storage type is %q", c.StorageType)
		}
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL required when storage type is %q", c.StorageType)
		}
	default:
		return fmt.Errorf("invalid storage type %q", c.StorageType)
	}

	switch c.EconomyType {
	case EconomyMemory, EconomyNone:
	case EconomyRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL required when economy type is %q", c.EconomyType)
		}
	default:
		return fmt.Errorf("invalid economy type %q", c.EconomyType)
	}

	if c.AutosaveInterval <= 0 {
		return fmt.Errorf("autosave interval must be positive, got %s", c.AutosaveInterval)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %s", c.TickInterval)
	}
	return nil
}

// Addr is the listen address
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ProgressionPath resolves the progression policy file
func (c Config) ProgressionPath() string {
	return c.resolve(c.ProgressionFile)
}

// RewardsPath resolves the resource rewards file
func (c Config) RewardsPath() string {
	return c.resolve(c.RewardsFile)
}

// SQLiteFile is SQLitePath, or a database inside DataDir
func (c Config) SQLiteFile() string {
	if c.SQLitePath != "" {
		return c.SQLitePath
	}
	return filepath.Join(c.DataDir, "prisons.db")
}

func (c Config) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.DataDir, path)
}

// SlogLevel maps LogLevel onto slog, defaulting to info
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
