// Package config loads and validates lapse configuration.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/adrg/xdg"
)

const Version = "v0.3.1"

const appDir = "lapse"

type (
	// Config holds all configuration settings.
	Config struct {
		Settings     SettingsConfig     `mapstructure:"settings"`
		Notification NotificationConfig `mapstructure:"notifications"`
		System       SystemConfig       `mapstructure:"-"`
	}

	// SettingsConfig holds tracking behavior settings.
	SettingsConfig struct {
		// Cmd is an optional command executed on every working-state
		// flip. Split with shell quoting rules before execution.
		Cmd string `mapstructure:"cmd"`

		// Author is recorded on user edits.
		Author string `mapstructure:"author"`

		// LogLevel is one of debug, info, warn, error.
		LogLevel string `mapstructure:"log_level"`
	}

	// NotificationConfig holds desktop notification settings.
	NotificationConfig struct {
		Enabled bool `mapstructure:"enabled"`
	}

	// SystemConfig holds derived file locations.
	SystemConfig struct {
		ConfigPath string
		DBPath     string
		LogPath    string
	}

	// Option is a function that modifies Config.
	Option func(*Config) error
)

// New creates a Config after applying the provided options.
func New(opts ...Option) (*Config, error) {
	c := &Config{}

	if err := setPaths(c); err != nil {
		return nil, err
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Default loads the standard configuration file, creating it with
// defaults on first run.
func Default() (*Config, error) {
	c, err := New()
	if err != nil {
		return nil, err
	}

	if err := WithViperConfig(c.System.ConfigPath)(c); err != nil {
		return nil, err
	}

	return c, nil
}

func setPaths(c *Config) error {
	configPath, err := xdg.ConfigFile(filepath.Join(appDir, "config.yml"))
	if err != nil {
		return fmt.Errorf("resolving config path: %w", err)
	}

	dbPath, err := xdg.DataFile(filepath.Join(appDir, "lapse.db"))
	if err != nil {
		return fmt.Errorf("resolving database path: %w", err)
	}

	logPath, err := xdg.StateFile(filepath.Join(appDir, "lapse.log"))
	if err != nil {
		return fmt.Errorf("resolving log path: %w", err)
	}

	c.System = SystemConfig{
		ConfigPath: configPath,
		DBPath:     dbPath,
		LogPath:    logPath,
	}

	return nil
}
