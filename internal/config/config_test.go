package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("HTTP_PORT", "")
	t.Setenv("STORE_BACKEND", "")

	cfg := Load()
	assert.Equal(t, "5000", cfg.HTTPPort)
	assert.Equal(t, "postgres", cfg.StoreBackend)
	assert.Equal(t, 75.0, cfg.WarningThreshold)
	assert.Equal(t, 12*time.Hour, cfg.AccessTTL)
	assert.False(t, cfg.Production())
}

func TestLoadFromEnvAndDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("STORE_BACKEND=memory\nHTTP_PORT=7000\n"), 0o600))

	t.Setenv("ENV_FILE", envFile)
	t.Setenv("HTTP_PORT", "8000") // set variables win over the file
	t.Setenv("APP_ENV", "prod")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("ATTENDANCE_WARNING_THRESHOLD", "60.5")
	t.Setenv("ACCESS_TTL", "bogus")
	t.Setenv("RATE_LIMIT_PER_MIN", "30")
	t.Setenv("METRICS_ENABLED", "false")
	require.NoError(t, os.Unsetenv("STORE_BACKEND"))
	t.Cleanup(func() { os.Unsetenv("STORE_BACKEND") })

	cfg := Load()
	assert.Equal(t, "memory", cfg.StoreBackend)
	assert.Equal(t, "8000", cfg.HTTPPort)
	assert.True(t, cfg.Production())
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, 60.5, cfg.WarningThreshold)
	assert.Equal(t, 12*time.Hour, cfg.AccessTTL)
	assert.Equal(t, 30, cfg.RateLimitPerMin)
	assert.False(t, cfg.MetricsEnabled)
}

func TestTypedGetters(t *testing.T) {
	t.Setenv("X_BOOL", "true")
	t.Setenv("X_BAD_BOOL", "maybe")
	t.Setenv("X_PCT", "140")

	assert.True(t, boolEnv("X_BOOL", false))
	assert.True(t, boolEnv("X_BAD_BOOL", true))
	assert.Equal(t, 75.0, floatEnv("X_PCT", 75))
	assert.Equal(t, []string{"d"}, listEnv("X_UNSET_LIST", []string{"d"}))
}
