package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9000"
  environment: production
postgres:
  dsn: postgres://club@localhost/club
redis:
  db: 2
jwt:
  secret: yaml-secret
  ttl: 1h
reminders:
  lead: 90m
club:
  timezone: Europe/Lisbon
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "postgres://club@localhost/club", cfg.Postgres.DSN)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, "yaml-secret", cfg.JWT.Secret)
	assert.Equal(t, time.Hour, cfg.JWT.TTL)
	assert.Equal(t, 90*time.Minute, cfg.Reminders.Lead)

	// untouched keys keep their defaults
	assert.Equal(t, "volei:audit", cfg.Redis.AuditQueue)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, 50, cfg.Historian.BatchSize)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Lisbon", loc.String())
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "jwt:\n  secret: yaml-secret\n")
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("REDIS_DB", "5")
	t.Setenv("REMINDER_LEAD", "45m")
	t.Setenv("RATE_LIMIT_RPS", "2.5")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-secret", cfg.JWT.Secret)
	assert.Equal(t, 5, cfg.Redis.DB)
	assert.Equal(t, 45*time.Minute, cfg.Reminders.Lead)
	assert.Equal(t, 2.5, cfg.RateLimit.RequestsPerSecond)
}

func TestMissingFileFallsBackToEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "postgres://env", cfg.Postgres.DSN)
	assert.NoError(t, cfg.RequireDatabase())
	assert.Error(t, cfg.RequireJWT())
}

func TestInvalidValues(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [not, a, map]\n"))
	assert.Error(t, err)

	t.Setenv("REDIS_DB", "two")
	_, err = Load("")
	assert.ErrorContains(t, err, "REDIS_DB")
}

func TestCORSOrigins(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "https://club.example,https://admin.club.example")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://*", "http://*"}, cfg.CORSOrigins())

	cfg.Server.Environment = "production"
	assert.Equal(t, []string{"https://club.example", "https://admin.club.example"}, cfg.CORSOrigins())
}
