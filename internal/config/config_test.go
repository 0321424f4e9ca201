package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// CONFIG TESTS
// =============================================================================

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"HIREDESK_API_URL", "HIREDESK_HOME", "HIREDESK_DEBUG", "HIREDESK_JWT_SECRET"} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.API.BaseURL != "http://localhost:8787" {
		t.Errorf("expected default base url, got %s", cfg.API.BaseURL)
	}
	if cfg.Auth.PasswordMinLength != 8 {
		t.Errorf("expected PasswordMinLength=8, got %d", cfg.Auth.PasswordMinLength)
	}
	if cfg.GetResendCooldown() != 30*time.Second {
		t.Errorf("expected 30s cooldown, got %v", cfg.GetResendCooldown())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestConfig_SaveLoadYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.API.BaseURL = "https://api.example.com"
	cfg.Auth.PasswordMinLength = 12
	cfg.Logging.Categories = map[string]bool{"ui": false}

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", loaded.API.BaseURL)
	assert.Equal(t, 12, loaded.Auth.PasswordMinLength)
	assert.False(t, loaded.Logging.IsCategoryEnabled("ui"))
}

func TestConfig_SaveLoadTOML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := DefaultConfig()
	cfg.UI.Theme = "light"
	cfg.Mock.Addr = "127.0.0.1:9999"
	require.NoError(t, cfg.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[mock]")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "light", loaded.UI.Theme)
	assert.Equal(t, "127.0.0.1:9999", loaded.Mock.Addr)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  timeout: 5s\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.GetTimeout())
	assert.Equal(t, "http://localhost:8787", cfg.API.BaseURL)
}

func TestLoad_BadYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [unclosed"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestDurationFallbacks(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, 15*time.Second, cfg.GetTimeout())
	assert.Equal(t, 30*time.Second, cfg.GetResendCooldown())
	assert.Equal(t, 10*time.Minute, cfg.GetOTPTTL())
	assert.Equal(t, 24*time.Hour, cfg.GetTokenTTL())

	cfg.API.Timeout = "-1s"
	assert.Equal(t, 15*time.Second, cfg.GetTimeout())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad scheme", func(c *Config) { c.API.BaseURL = "ftp://example.com" }},
		{"no host", func(c *Config) { c.API.BaseURL = "http://" }},
		{"bad timeout", func(c *Config) { c.API.Timeout = "soon" }},
		{"bad cooldown", func(c *Config) { c.Auth.ResendCooldown = "30" }},
		{"negative min length", func(c *Config) { c.Auth.PasswordMinLength = -1 }},
		{"bad theme", func(c *Config) { c.UI.Theme = "neon" }},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestMarshalUnknownFormat(t *testing.T) {
	_, err := DefaultConfig().Marshal("ini")
	assert.Error(t, err)
}

func TestHome(t *testing.T) {
	t.Setenv("HIREDESK_HOME", "/tmp/hd-home")
	cfg := &Config{}
	assert.Equal(t, "/tmp/hd-home", cfg.Home())

	cfg.Storage.Dir = "/srv/hd"
	assert.Equal(t, "/srv/hd", cfg.Home())
	assert.Equal(t, filepath.Join("/srv/hd", "config.yaml"), DefaultPath(cfg.Home()))
}

func TestLoggingOptions(t *testing.T) {
	lc := LoggingConfig{Level: "debug", Format: "json", DebugMode: true}
	opts := lc.Options()
	assert.True(t, opts.DebugMode)
	assert.True(t, opts.JSONFormat)
	assert.Equal(t, "debug", opts.Level)
	assert.True(t, lc.IsCategoryEnabled("api"))

	lc.DebugMode = false
	assert.False(t, lc.IsCategoryEnabled("api"))
}
