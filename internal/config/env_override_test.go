package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvOverrides(t *testing.T) {
	t.Run("HIREDESK_API_URL replaces base url", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("HIREDESK_API_URL", "https://staging.example.com")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "https://staging.example.com", cfg.API.BaseURL)
	})

	t.Run("HIREDESK_HOME sets storage dir", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("HIREDESK_HOME", "/var/lib/hiredesk")

		cfg := &Config{}
		cfg.applyEnvOverrides()

		assert.Equal(t, "/var/lib/hiredesk", cfg.Storage.Dir)
	})

	t.Run("HIREDESK_DEBUG toggles debug mode", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("HIREDESK_DEBUG", "true")

		cfg := &Config{}
		cfg.applyEnvOverrides()
		assert.True(t, cfg.Logging.DebugMode)

		t.Setenv("HIREDESK_DEBUG", "0")
		cfg.applyEnvOverrides()
		assert.False(t, cfg.Logging.DebugMode)
	})

	t.Run("unparseable HIREDESK_DEBUG is ignored", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("HIREDESK_DEBUG", "sometimes")

		cfg := &Config{Logging: LoggingConfig{DebugMode: true}}
		cfg.applyEnvOverrides()
		assert.True(t, cfg.Logging.DebugMode)
	})

	t.Run("HIREDESK_JWT_SECRET sets mock secret", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("HIREDESK_JWT_SECRET", "s3cret")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "s3cret", cfg.Mock.JWTSecret)
	})

	t.Run("env beats file", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("HIREDESK_API_URL", "https://env.example.com")

		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("api:\n  base_url: https://file.example.com\n"), 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "https://env.example.com", cfg.API.BaseURL)
	})
}

func TestDotEnvNextToConfig(t *testing.T) {
	clearEnv(t)
	// clearEnv leaves the var set to "", which godotenv treats as present.
	require.NoError(t, os.Unsetenv("HIREDESK_JWT_SECRET"))
	t.Cleanup(func() { os.Unsetenv("HIREDESK_JWT_SECRET") })

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("HIREDESK_JWT_SECRET=from-dotenv\n"), 0o600))

	cfg, err := Load(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Mock.JWTSecret)
}
