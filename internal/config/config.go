package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"hiredesk/internal/logging"
)

// Config holds all hiredesk configuration.
type Config struct {
	// Remote recruiting API
	API APIConfig `yaml:"api" toml:"api"`

	// Auth flow tuning
	Auth AuthConfig `yaml:"auth" toml:"auth"`

	// Terminal UI
	UI UIConfig `yaml:"ui" toml:"ui"`

	// Local state (session database, logs)
	Storage StorageConfig `yaml:"storage" toml:"storage"`

	// Logging
	Logging LoggingConfig `yaml:"logging" toml:"logging"`

	// Local mock backend
	Mock MockConfig `yaml:"mock" toml:"mock"`
}

// APIConfig configures the HTTP client.
type APIConfig struct {
	BaseURL      string `yaml:"base_url" toml:"base_url"`
	Timeout      string `yaml:"timeout" toml:"timeout"`
	UserAgent    string `yaml:"user_agent" toml:"user_agent"`
	DashboardURL string `yaml:"dashboard_url" toml:"dashboard_url"`
}

// AuthConfig configures the auth flows.
type AuthConfig struct {
	ResendCooldown    string `yaml:"resend_cooldown" toml:"resend_cooldown"`
	PasswordMinLength int    `yaml:"password_min_length" toml:"password_min_length"`
}

// StorageConfig configures where local state lives.
type StorageConfig struct {
	// Dir overrides the home directory. Empty means DefaultHome().
	Dir string `yaml:"dir" toml:"dir"`
}

// MockConfig configures the mock-api command.
type MockConfig struct {
	Addr           string   `yaml:"addr" toml:"addr"`
	Fixtures       string   `yaml:"fixtures" toml:"fixtures"`
	JWTSecret      string   `yaml:"jwt_secret" toml:"jwt_secret"`
	OTPTTL         string   `yaml:"otp_ttl" toml:"otp_ttl"`
	TokenTTL       string   `yaml:"token_ttl" toml:"token_ttl"`
	AllowedOrigins []string `yaml:"allowed_origins" toml:"allowed_origins"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:      "http://localhost:8787",
			Timeout:      "15s",
			UserAgent:    "hiredesk-cli",
			DashboardURL: "http://localhost:3000/dashboard",
		},
		Auth: AuthConfig{
			ResendCooldown:    "30s",
			PasswordMinLength: 8,
		},
		UI: *DefaultUIConfig(),
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Mock: MockConfig{
			Addr:           "127.0.0.1:8787",
			JWTSecret:      "hiredesk-dev-secret",
			OTPTTL:         "10m",
			TokenTTL:       "24h",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
	}
}

// isTOML reports whether path should be read and written as TOML.
func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Load loads configuration from a YAML file, or TOML when the path ends in .toml.
// A .env file next to the config (and one in the working directory) is loaded
// into the environment first; variables already set win.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	loadDotEnv(filepath.Join(filepath.Dir(path), ".env"), ".env")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.ConfigDebug("no config at %s, using defaults", path)
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if isTOML(path) {
		err = toml.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func loadDotEnv(paths ...string) {
	seen := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil || seen[abs] {
			continue
		}
		seen[abs] = true
		if err := godotenv.Load(abs); err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.ConfigWarn("could not load %s: %v", abs, err)
		}
	}
}

// Marshal encodes the configuration as "yaml" or "toml".
func (c *Config) Marshal(format string) ([]byte, error) {
	switch format {
	case "toml":
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case "yaml", "":
		return yaml.Marshal(c)
	}
	return nil, fmt.Errorf("unknown config format %q", format)
}

// Save saves configuration to path, choosing the format by extension.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	format := "yaml"
	if isTOML(path) {
		format = "toml"
	}
	data, err := c.Marshal(format)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("HIREDESK_API_URL"); v != "" {
		c.API.BaseURL = v
		logging.ConfigDebug("api.base_url from HIREDESK_API_URL")
	}
	if v := os.Getenv("HIREDESK_HOME"); v != "" {
		c.Storage.Dir = v
	}
	if v := os.Getenv("HIREDESK_DEBUG"); v != "" {
		if on, err := strconv.ParseBool(v); err == nil {
			c.Logging.DebugMode = on
		}
	}
	if v := os.Getenv("HIREDESK_JWT_SECRET"); v != "" {
		c.Mock.JWTSecret = v
	}
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// GetTimeout returns the per-request API timeout.
func (c *Config) GetTimeout() time.Duration {
	return parseDuration(c.API.Timeout, 15*time.Second)
}

// GetResendCooldown returns how long resend stays disabled after a resend.
func (c *Config) GetResendCooldown() time.Duration {
	return parseDuration(c.Auth.ResendCooldown, 30*time.Second)
}

// GetOTPTTL returns how long a mock-issued code stays valid.
func (c *Config) GetOTPTTL() time.Duration {
	return parseDuration(c.Mock.OTPTTL, 10*time.Minute)
}

// GetTokenTTL returns the lifetime of mock-issued tokens.
func (c *Config) GetTokenTTL() time.Duration {
	return parseDuration(c.Mock.TokenTTL, 24*time.Hour)
}

// Home returns the directory holding the session database and logs.
func (c *Config) Home() string {
	if c.Storage.Dir != "" {
		return c.Storage.Dir
	}
	return DefaultHome()
}

// DefaultHome returns $HIREDESK_HOME, else ~/.hiredesk.
func DefaultHome() string {
	if v := os.Getenv("HIREDESK_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".hiredesk"
	}
	return filepath.Join(home, ".hiredesk")
}

// DefaultPath returns the config file path inside home.
func DefaultPath(home string) string {
	return filepath.Join(home, "config.yaml")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api.base_url %q: must be an http(s) URL", c.API.BaseURL)
	}
	if c.API.Timeout != "" {
		if _, err := time.ParseDuration(c.API.Timeout); err != nil {
			return fmt.Errorf("invalid api.timeout %q: %w", c.API.Timeout, err)
		}
	}
	if c.Auth.ResendCooldown != "" {
		if _, err := time.ParseDuration(c.Auth.ResendCooldown); err != nil {
			return fmt.Errorf("invalid auth.resend_cooldown %q: %w", c.Auth.ResendCooldown, err)
		}
	}
	if c.Auth.PasswordMinLength < 0 {
		return fmt.Errorf("auth.password_min_length must not be negative")
	}
	if err := c.UI.Validate(); err != nil {
		return err
	}
	return c.Logging.Validate()
}
