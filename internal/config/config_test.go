package config

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp runs the test from an empty directory so no stray tracker.yaml or
// .env from the repository leaks into Load.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:8080"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, int64(4096), cfg.Server.MaxMessageSize)
	assert.Equal(t, 10, cfg.Server.RateLimit.Burst)
	assert.Equal(t, time.Second, cfg.Server.RateLimit.RefillInterval)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, time.Hour, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, 24*time.Hour, cfg.Auth.RefreshTokenTTL)
	assert.Empty(t, cfg.Redis.URL)
}

func TestLoadRequiresSecret(t *testing.T) {
	chdirTemp(t)
	t.Setenv("JWT_SECRET", "")

	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadEnvOverride(t *testing.T) {
	chdirTemp(t)
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("ALLOWED_ORIGINS", "http://a.example, http://b.example")
	t.Setenv("MAX_MESSAGE_SIZE", "1024")
	t.Setenv("RATE_LIMIT_BURST", "3")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2")
	t.Setenv("DB_DRIVER", "MEMORY")
	t.Setenv("JWT_ACCESS_TTL", "15m")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Port)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, int64(1024), cfg.Server.MaxMessageSize)
	assert.Equal(t, 3, cfg.Server.RateLimit.Burst)
	assert.Equal(t, 2*time.Second, cfg.Server.RateLimit.RefillInterval)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
}

func TestLoadInvalidEnvFallsBack(t *testing.T) {
	chdirTemp(t)
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("MAX_MESSAGE_SIZE", "-5")
	t.Setenv("RATE_LIMIT_BURST", "abc")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "0")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, int64(4096), cfg.Server.MaxMessageSize)
	assert.Equal(t, 10, cfg.Server.RateLimit.Burst)
	assert.Equal(t, time.Second, cfg.Server.RateLimit.RefillInterval)
}

func TestLoadYAMLFile(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "custom.yaml")
	content := `
server:
  port: ":7000"
  rate_limit:
    burst: 20
    refill_interval: 500ms
database:
  driver: memory
auth:
  jwt_secret: from-file
  access_token_ttl: 5m
log:
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Server.Port)
	assert.Equal(t, 20, cfg.Server.RateLimit.Burst)
	assert.Equal(t, 500*time.Millisecond, cfg.Server.RateLimit.RefillInterval)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
	assert.Equal(t, 5*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	chdirTemp(t)
	t.Setenv("JWT_SECRET", "secret")

	_, err := Load("does-not-exist.yaml")
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TRACKER_DOTENV_PROBE=1\n"), 0o600))
	t.Setenv("JWT_SECRET", "secret")
	t.Cleanup(func() { _ = os.Unsetenv("TRACKER_DOTENV_PROBE") })

	_, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "1", os.Getenv("TRACKER_DOTENV_PROBE"))
}

func TestConnectionString(t *testing.T) {
	db := DatabaseConfig{
		Host:     "db",
		Port:     "5432",
		User:     "tracker",
		Password: "p@ss",
		Name:     "tracker",
		SSLMode:  "disable",
	}
	assert.Equal(t, "postgres://tracker:p%40ss@db:5432/tracker?sslmode=disable", db.ConnectionString())

	db.URL = "postgres://override"
	assert.Equal(t, "postgres://override", db.ConnectionString())
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := LogConfig{Level: "debug", Format: "json"}.NewLogger(&buf)
	logger.Debug("hello", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"k":"v"`)

	buf.Reset()
	logger = LogConfig{Level: "nonsense", Format: "text"}.NewLogger(&buf)
	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
	logger.Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}
