package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FileWithDefaults(t *testing.T) {
	path := writeFile(t, `
env: dev
storage:
  driver: sqlite
  path: ":memory:"
auth:
  jwt_secret: "0123456789abcdef"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, ":memory:", cfg.Storage.Path)
	assert.Equal(t, ":8000", cfg.HTTPServer.Addr)
	assert.Equal(t, 24*time.Hour, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, 168*time.Hour, cfg.Auth.RefreshTokenTTL)
	assert.Equal(t, 30*time.Second, cfg.HTTPServer.ShutdownTimeout)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, "tagged-snippets", cfg.Auth.Issuer)
	assert.False(t, cfg.Metrics.Enabled)
	assert.False(t, cfg.HTTPServer.TrustProxyHeaders)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, `
storage:
  path: "from-file.db"
auth:
  jwt_secret: "0123456789abcdef"
  access_token_ttl: 1h
`)
	t.Setenv("STORAGE_PATH", "from-env.db")
	t.Setenv("ACCESS_TOKEN_TTL", "5m")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env.db", cfg.Storage.Path)
	assert.Equal(t, 5*time.Minute, cfg.Auth.AccessTokenTTL)
}

func TestLoad_EnvOnly(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-secret-0123456789")
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("STORAGE_DSN", "postgres://u:p@localhost/db")
	t.Setenv("METRICS_ENABLED", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, "postgres://u:p@localhost/db", cfg.Storage.DSN)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func validConfig() Config {
	return Config{
		Storage:    Storage{Driver: DriverSQLite, Path: "x.db"},
		HTTPServer: HTTPServer{Addr: ":8000", ShutdownTimeout: time.Second},
		Auth: Auth{
			JWTSecret:       "0123456789abcdef",
			Issuer:          "i",
			AccessTokenTTL:  time.Hour,
			RefreshTokenTTL: time.Hour,
			BcryptCost:      10,
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "mysql" }, "storage.driver"},
		{"postgres without dsn", func(c *Config) { c.Storage.Driver = DriverPostgres }, "storage.dsn"},
		{"short secret", func(c *Config) { c.Auth.JWTSecret = "short" }, "jwt_secret"},
		{"zero access ttl", func(c *Config) { c.Auth.AccessTokenTTL = 0 }, "access_token_ttl"},
		{"negative refresh ttl", func(c *Config) { c.Auth.RefreshTokenTTL = -time.Second }, "refresh_token_ttl"},
		{"bcrypt cost too low", func(c *Config) { c.Auth.BcryptCost = 3 }, "bcrypt_cost"},
		{"bcrypt cost too high", func(c *Config) { c.Auth.BcryptCost = 32 }, "bcrypt_cost"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Driver = "mysql"
	cfg.Auth.JWTSecret = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.driver")
	assert.Contains(t, err.Error(), "jwt_secret")
}
