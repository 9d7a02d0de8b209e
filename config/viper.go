package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// viperKeys defines the mapping between config keys and their Viper
// counterparts.
const (
	keySessionCmd           = "settings.cmd"
	keyAuthor               = "settings.author"
	keyLogLevel             = "settings.log_level"
	keyNotificationsEnabled = "notifications.enabled"
)

// WithViperConfig returns an Option that loads configuration from Viper,
// writing a default config file when none exists yet.
func WithViperConfig(configPath string) Option {
	return func(c *Config) error {
		v := viper.New()

		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")

		setupViper(v)

		err := v.ReadInConfig()
		if err == nil {
			return loadViperConfig(v, c)
		}

		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("reading config file failed: %w", err)
		}

		if err := v.WriteConfig(); err != nil {
			return fmt.Errorf("writing default config failed: %w", err)
		}

		return loadViperConfig(v, c)
	}
}

// setupViper configures Viper with defaults.
func setupViper(v *viper.Viper) {
	v.SetDefault(keySessionCmd, "")
	v.SetDefault(keyAuthor, defaultAuthor())
	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyNotificationsEnabled, true)
}

// loadViperConfig loads configuration from Viper into the Config struct.
func loadViperConfig(v *viper.Viper, c *Config) error {
	if err := v.Unmarshal(c); err != nil {
		return fmt.Errorf("config unmarshal failed: %w", err)
	}

	return nil
}

func defaultAuthor() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}

	return "local"
}
