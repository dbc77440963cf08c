package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GIN_MODE", "debug")
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("DATABASE_HOST", "localhost")
	t.Setenv("DATABASE_USER", "postgres")
	t.Setenv("DATABASE_DBNAME", "jee_prep")
}

func TestLoad_DefaultsFromEnvironment(t *testing.T) {
	// Arrange
	setRequiredEnv(t)

	// Act
	cfg, err := Load("")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 30*24*time.Hour, cfg.JWT.TokenExpiry())
	assert.Equal(t, time.Minute, cfg.JWT.WSTicketExpiry())
	assert.Equal(t, time.Second, cfg.Session.CountdownIntervalDuration())
	assert.Equal(t, 30*time.Second, cfg.Session.AutosaveIntervalDuration())
	assert.Equal(t, 300, cfg.Session.TimeWarning)
	assert.Equal(t, "gochannel", cfg.Events.Driver)
	assert.Equal(t, "host=localhost port=5432 user=postgres password= dbname=jee_prep sslmode=disable",
		cfg.Database.PostgresConnectionString())
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	// Arrange
	setRequiredEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9000"
session:
  autosave_interval: 10
events:
  driver: kafka
  brokers: ["kafka-1:9092"]
`), 0o600))
	t.Setenv("SERVER_PORT", "9100")
	t.Setenv("REDIS_ADDRS", "redis-a:6379,redis-b:6379")

	// Act
	cfg, err := Load(path)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Session.AutosaveIntervalDuration())
	assert.Equal(t, []string{"kafka-1:9092"}, cfg.Events.Brokers)
	assert.Equal(t, []string{"redis-a:6379", "redis-b:6379"}, cfg.Redis.Addrs)
}

func TestLoad_MissingFileIsNotAnError(t *testing.T) {
	setRequiredEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))

	assert.NoError(t, err)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database: DatabaseConfig{Host: "db", User: "u", DBName: "d", Password: "p"},
			JWT:      JWTConfig{Secret: testSecret, ExpirationHrs: 1, WSTicketExpirySec: 60},
			Session:  SessionConfig{CountdownIntervalMs: 1000, AutosaveInterval: 30},
			Events:   EventsConfig{Driver: "gochannel"},
		}
	}

	tests := []struct {
		name       string
		mutate     func(c *Config)
		production bool
		wantErr    bool
	}{
		{"valid", func(c *Config) {}, true, false},
		{"short secret", func(c *Config) { c.JWT.Secret = "short" }, false, true},
		{"no database host", func(c *Config) { c.Database.Host = "" }, false, true},
		{"no password in debug", func(c *Config) { c.Database.Password = "" }, false, false},
		{"no password in release", func(c *Config) { c.Database.Password = "" }, true, true},
		{"zero autosave", func(c *Config) { c.Session.AutosaveInterval = 0 }, false, true},
		{"kafka without brokers", func(c *Config) { c.Events.Driver = "kafka" }, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate(tt.production)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
