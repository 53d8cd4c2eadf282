// Package config persists application preferences between runs
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/james-see/launchkeyctl/pkg/clock"
	"github.com/james-see/launchkeyctl/pkg/layout"
)

const (
	appDir       = "launchkeyctl"
	configFile   = "config.json"
	settingsFile = "settings.json"
)

// Config holds the selected ports and runtime toggles
type Config struct {
	Input             string      `json:"input"`
	DAWInput          string      `json:"daw_input"`
	Output            string      `json:"output"`
	Mode              layout.Mode `json:"mode"`
	BPM               int         `json:"bpm"`
	LoggingEnabled    bool        `json:"logging_enabled"`
	ThrottlingEnabled bool        `json:"throttling_enabled"`
	Addr              string      `json:"addr"`

	path string
}

// Default returns the configuration of a fresh install
func Default() *Config {
	return &Config{
		Mode:              layout.Drum,
		BPM:               clock.DefaultBPM,
		LoggingEnabled:    false,
		ThrottlingEnabled: false,
		Addr:              ":8080",
	}
}

// Dir returns the per-user directory holding config and settings
func Dir() (string, error) {
	configHome, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configHome, appDir), nil
}

// Path returns the default config file location
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// SettingsPath returns the location of the LED settings document
func SettingsPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, settingsFile), nil
}

// Load reads the config at the default location
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads the config at path. A missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	cfg.path = path

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if !cfg.Mode.Valid() {
		cfg.Mode = layout.Drum
	}
	cfg.BPM = clock.ClampBPM(cfg.BPM)
	return cfg, nil
}

// Save writes the config back to where it was loaded from
func (c *Config) Save() error {
	path := c.path
	if path == "" {
		var err error
		if path, err = Path(); err != nil {
			return err
		}
		c.path = path
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// File returns the path the config is saved to
func (c *Config) File() string {
	return c.path
}
