package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FromFile(t *testing.T) {
	// Given: a config file overriding a few values
	path := filepath.Join(t.TempDir(), "config.yml")
	err := os.WriteFile(path, []byte(`
log-level: debug
http:
  addr: ":9090"
session:
  store: redis
  ai-delay: 250ms
redis:
  addr: "redis:6379"
auth:
  secret: "a-very-long-test-secret"
`), 0o600)
	require.NoError(t, err)

	// When: the config is loaded
	cfg, err := Load(path)
	require.NoError(t, err)

	// Then: file values win and the rest fall back to defaults
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, StoreRedis, cfg.Session.Store)
	assert.Equal(t, 250*time.Millisecond, cfg.Session.AIDelay)
	assert.Equal(t, 2*time.Second, cfg.Session.LevelUpDelay)
	assert.Equal(t, 3*time.Second, cfg.Session.ConquerDelay)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.False(t, cfg.Telemetry.Enabled)
}

func TestLoad_EnvOnly(t *testing.T) {
	t.Setenv("AUTH_SECRET", "another-long-test-secret")
	t.Setenv("SESSION_AI_DELAY", "1s")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, StoreMemory, cfg.Session.Store)
	assert.Equal(t, time.Second, cfg.Session.AIDelay)
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("Missing secret", func(t *testing.T) {
		t.Setenv("AUTH_SECRET", "")

		_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
		require.Error(t, err)
	})

	t.Run("Unknown store", func(t *testing.T) {
		t.Setenv("AUTH_SECRET", "another-long-test-secret")
		t.Setenv("SESSION_STORE", "sqlite")

		_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
		require.Error(t, err)
	})
}
