// Package config handles reading and writing ~/.config/todoit/config.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	xdgAppName = "todoit"
	configFile = "config.yaml"
)

// Config is the top-level structure for config.yaml.
type Config struct {
	// FocusMinutes is the focus session duration.
	FocusMinutes int `yaml:"focus_minutes"`
	// HideCompleted removes completed tasks from task views.
	HideCompleted bool `yaml:"hide_completed"`
	// DefaultList is the list id opened on startup; empty means ask.
	DefaultList string `yaml:"default_list"`
	// NotifyChannel is the channel id attached to scheduled notifications.
	NotifyChannel string `yaml:"notify_channel"`
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		FocusMinutes:  25,
		HideCompleted: true,
		NotifyChannel: "focus-session",
	}
}

// Dir returns the TODOIT config directory (~/.config/todoit).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", xdgAppName), nil
}

// Load reads the config from the default location. A missing file yields the
// defaults, not an error.
func Load() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	return LoadFrom(filepath.Join(dir, configFile))
}

// LoadFrom reads the config from an explicit path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FocusMinutes <= 0 {
		cfg.FocusMinutes = DefaultConfig().FocusMinutes
	}
	if cfg.NotifyChannel == "" {
		cfg.NotifyChannel = DefaultConfig().NotifyChannel
	}
	return cfg, nil
}

// Save writes the config to the default location, creating the directory if
// needed.
func Save(cfg *Config) error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	return SaveTo(filepath.Join(dir, configFile), cfg)
}

// SaveTo writes the config to an explicit path.
func SaveTo(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
