package config

import "fmt"

// UIConfig holds terminal UI configuration.
type UIConfig struct {
	// Theme is "auto", "dark" or "light". Auto asks the terminal.
	Theme string `yaml:"theme" toml:"theme"`

	// GlamourStyle is a glamour standard style name, or "auto".
	GlamourStyle string `yaml:"glamour_style" toml:"glamour_style"`

	// Width wraps rendered resumes (0 = 80 columns).
	Width int `yaml:"width,omitempty" toml:"width,omitempty"`
}

// DefaultUIConfig returns sensible UI defaults.
func DefaultUIConfig() *UIConfig {
	return &UIConfig{
		Theme:        "auto",
		GlamourStyle: "auto",
		Width:        80,
	}
}

// ValidThemes lists the accepted theme names.
var ValidThemes = []string{"auto", "dark", "light"}

// Validate checks the theme name.
func (c UIConfig) Validate() error {
	if c.Theme == "" {
		return nil
	}
	for _, t := range ValidThemes {
		if c.Theme == t {
			return nil
		}
	}
	return fmt.Errorf("invalid ui.theme %q (valid: %v)", c.Theme, ValidThemes)
}
