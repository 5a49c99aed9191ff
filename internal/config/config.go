// Package config loads drillz configuration from an optional YAML file,
// a .env file, and DRILLZ_* environment variables, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/drillz/internal/store"
)

// Config holds all drillz configuration.
type Config struct {
	// DBPath is the SQLite file. Empty means store.DefaultDBPath.
	DBPath string `yaml:"db"`

	// User is the acting user id for CLI commands.
	User string `yaml:"user"`

	Log     LogConfig     `yaml:"log"`
	HTTP    HTTPConfig    `yaml:"http"`
	Auth    AuthConfig    `yaml:"auth"`
	Redis   RedisConfig   `yaml:"redis"`
	Persist PersistConfig `yaml:"persist"`
}

// LogConfig selects the zap logger.
type LogConfig struct {
	Level       string `yaml:"level"`       // debug, info, warn, error
	Development bool   `yaml:"development"` // console encoder instead of JSON
}

// HTTPConfig configures `drillz serve`.
type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// AuthConfig configures JWT identity for the HTTP API.
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	Issuer    string        `yaml:"issuer"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// RedisConfig enables the question-set cache when Addr is set.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// PersistConfig configures save retries.
type PersistConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	InitialWait time.Duration `yaml:"initial_wait"`
	MaxWait     time.Duration `yaml:"max_wait"`
	Multiplier  float64       `yaml:"multiplier"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	retry := store.DefaultRetryConfig()
	return Config{
		User: "local",
		Log: LogConfig{
			Level: "info",
		},
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Auth: AuthConfig{
			Issuer:   "drillz",
			TokenTTL: 24 * time.Hour,
		},
		Redis: RedisConfig{
			TTL: 10 * time.Minute,
		},
		Persist: PersistConfig{
			MaxAttempts: retry.MaxAttempts,
			InitialWait: retry.InitialWait,
			MaxWait:     retry.MaxWait,
			Multiplier:  retry.Multiplier,
		},
	}
}

// Load builds the configuration. path names an optional YAML file; an
// empty path skips it. A .env file in the working directory is loaded
// if present, without overriding variables already set.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// applyEnv overrides cfg from DRILLZ_* variables.
func applyEnv(cfg *Config) error {
	if v := os.Getenv("DRILLZ_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("DRILLZ_USER"); v != "" {
		cfg.User = v
	}

	if v := os.Getenv("DRILLZ_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("DRILLZ_LOG_DEVELOPMENT"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("DRILLZ_LOG_DEVELOPMENT: %w", err)
		}
		cfg.Log.Development = b
	}

	if v := os.Getenv("DRILLZ_HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}

	if v := os.Getenv("DRILLZ_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("DRILLZ_JWT_ISSUER"); v != "" {
		cfg.Auth.Issuer = v
	}
	if v := os.Getenv("DRILLZ_TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("DRILLZ_TOKEN_TTL: %w", err)
		}
		cfg.Auth.TokenTTL = d
	}

	if v := os.Getenv("DRILLZ_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("DRILLZ_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("DRILLZ_REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DRILLZ_REDIS_DB: %w", err)
		}
		cfg.Redis.DB = n
	}

	if v := os.Getenv("DRILLZ_SAVE_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DRILLZ_SAVE_ATTEMPTS: %w", err)
		}
		cfg.Persist.MaxAttempts = n
	}
	return nil
}

// Validate checks value ranges. Missing secrets are checked by the
// commands that need them.
func (c Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level: %q", c.Log.Level)
	}
	if c.Persist.MaxAttempts < 1 {
		return fmt.Errorf("persist.max_attempts must be at least 1, got %d", c.Persist.MaxAttempts)
	}
	if c.Persist.Multiplier < 1 {
		return fmt.Errorf("persist.multiplier must be at least 1, got %v", c.Persist.Multiplier)
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}
	return nil
}

// RetryConfig converts the persist section for store.WithRetry.
func (c Config) RetryConfig() store.RetryConfig {
	return store.RetryConfig{
		MaxAttempts: c.Persist.MaxAttempts,
		InitialWait: c.Persist.InitialWait,
		MaxWait:     c.Persist.MaxWait,
		Multiplier:  c.Persist.Multiplier,
	}
}

// ResolveDBPath returns DBPath, or the default location when unset, and
// makes sure its directory exists.
func (c Config) ResolveDBPath() (string, error) {
	if c.DBPath != "" {
		return c.DBPath, store.EnsureDir(c.DBPath)
	}
	return store.DefaultDBPath()
}
