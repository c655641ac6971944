// Package config handles loading and validating application configuration.
//
// Values come from a YAML file when a path is given, and every field can be
// overridden by the environment variable named in its env:"..." tag. With no
// file at all the environment alone is read, which is how containers run it.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is the root configuration structure.
type Config struct {
	// Env selects the log format: "local"/"dev" → text, "staging"/"prod" → JSON.
	Env string `yaml:"env" env:"ENV" env-default:"local"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`

	Storage    Storage    `yaml:"storage"`
	HTTPServer HTTPServer `yaml:"http_server"`
	Auth       Auth       `yaml:"auth"`
	Metrics    Metrics    `yaml:"metrics"`
}

// Storage picks and addresses the database.
type Storage struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"sqlite"`
	// Path is the SQLite file (or ":memory:").
	Path string `yaml:"path" env:"STORAGE_PATH" env-default:"data/snippets.db"`
	// DSN is the Postgres connection string.
	DSN string `yaml:"dsn" env:"STORAGE_DSN"`
}

// HTTPServer holds settings specific to the HTTP server.
type HTTPServer struct {
	Addr            string        `yaml:"address" env:"HTTP_SERVER_ADDR" env-default:":8000"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_SERVER_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_SERVER_WRITE_TIMEOUT" env-default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"HTTP_SERVER_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SERVER_SHUTDOWN_TIMEOUT" env-default:"30s"`
	// TrustProxyHeaders honours X-Forwarded-Proto when building links.
	// Enable only behind a reverse proxy that sets it.
	TrustProxyHeaders bool `yaml:"trust_proxy_headers" env:"HTTP_SERVER_TRUST_PROXY_HEADERS" env-default:"false"`
}

// Auth configures token signing and password hashing.
type Auth struct {
	JWTSecret       string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	Issuer          string        `yaml:"issuer" env:"JWT_ISSUER" env-default:"tagged-snippets"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl" env:"ACCESS_TOKEN_TTL" env-default:"24h"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl" env:"REFRESH_TOKEN_TTL" env-default:"168h"`
	BcryptCost      int           `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"12"`
}

// Metrics toggles the Prometheus endpoint. No env-default here: cleanenv
// treats an explicit false as unset and would apply it.
type Metrics struct {
	Enabled bool `yaml:"enabled" env:"METRICS_ENABLED"`
}

// Load reads the config file at path (if non-empty), applies environment
// overrides and defaults, and validates the result.
func Load(path string) (*Config, error) {
	var cfg Config

	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: reading environment: %w", err)
		}
	} else {
		// A clear message beats cleanenv's "open ...: no such file".
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: file does not exist: %s", path)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every problem at once rather than the first.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.Path == "" {
			errs = append(errs, errors.New("storage.path is required for the sqlite driver"))
		}
	case DriverPostgres:
		if c.Storage.DSN == "" {
			errs = append(errs, errors.New("storage.dsn is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q is not one of sqlite, postgres", c.Storage.Driver))
	}

	if len(c.Auth.JWTSecret) < 16 {
		errs = append(errs, errors.New("auth.jwt_secret must be at least 16 characters"))
	}
	if c.Auth.Issuer == "" {
		errs = append(errs, errors.New("auth.issuer is required"))
	}
	if c.Auth.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("auth.access_token_ttl must be positive"))
	}
	if c.Auth.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("auth.refresh_token_ttl must be positive"))
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("auth.bcrypt_cost %d is outside 4..31", c.Auth.BcryptCost))
	}

	if c.HTTPServer.Addr == "" {
		errs = append(errs, errors.New("http_server.address is required"))
	}
	if c.HTTPServer.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("http_server.shutdown_timeout must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
