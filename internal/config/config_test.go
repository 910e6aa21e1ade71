package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestMustLoad(t *testing.T) {
	t.Run("Applies defaults", func(t *testing.T) {
		path := writeConfig(t, "log-level: debug\n")

		config := MustLoad(path)

		assert.Equal(t, "debug", config.LogLevel)
		assert.Equal(t, "9090", config.HTTPPort)
		assert.Equal(t, 10*time.Second, config.HeartbeatInterval)
		assert.Equal(t, "localhost:6379", config.Redis.GetRedisAddr())
		assert.Equal(t, DriverSQLite, config.Storage.Driver)
		assert.Equal(t, AuthModeIntrospection, config.Auth.Mode)
		assert.False(t, config.TLS.Enabled())
	})

	t.Run("Environment overrides the file", func(t *testing.T) {
		t.Setenv("BSI_HEARTBEAT_INTERVAL", "250ms")
		t.Setenv("BSI_AUTH_MODE", "jwt")
		t.Setenv("BSI_JWT_SECRET", "secret")

		path := writeConfig(t, "heartbeat-interval: 30s\n")

		config := MustLoad(path)

		assert.Equal(t, 250*time.Millisecond, config.HeartbeatInterval)
		assert.Equal(t, AuthModeJWT, config.Auth.Mode)
		assert.Equal(t, "secret", config.Auth.JWTSecret)
	})

	t.Run("Panics on an unknown auth mode", func(t *testing.T) {
		path := writeConfig(t, "auth:\n  mode: magic\n")

		assert.Panics(t, func() { MustLoad(path) })
	})

	t.Run("Panics when jwt mode has no secret", func(t *testing.T) {
		path := writeConfig(t, "auth:\n  mode: jwt\n")

		assert.Panics(t, func() { MustLoad(path) })
	})

	t.Run("Panics on a missing file", func(t *testing.T) {
		assert.Panics(t, func() { MustLoad(filepath.Join(t.TempDir(), "missing.yml")) })
	})
}
