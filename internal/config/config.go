// Package config loads grimoire settings from ~/.grimoire/config.yaml and
// GRIMOIRE_* environment overrides, and resolves the on-disk roots the
// engine writes to.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/grimoire-labs/grimoire/internal/branding"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Defaults for engine settings.
const (
	DefaultLogLevel   = "info"
	DefaultGitTimeout = 2 * time.Minute
	DefaultSyncMaxAge = 7 * 24 * time.Hour
)

// Settings carries the engine-relevant configuration values.
type Settings struct {
	LogLevel          string
	GitTimeout        time.Duration
	SyncMaxAge        time.Duration
	OfficialSourceURL string
}

// Dir returns the path to the grimoire home directory (~/.grimoire).
// GRIMOIRE_HOME overrides it.
func Dir() string {
	if v := os.Getenv(branding.EnvVar("HOME")); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.grimoire/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the home directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// Load initializes viper from the config file and environment and returns
// the resolved engine settings. A missing config file is not an error.
func Load() Settings {
	viper.SetConfigFile(FilePath())
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.AutomaticEnv()

	viper.SetDefault("log_level", DefaultLogLevel)
	viper.SetDefault("git_timeout", DefaultGitTimeout)
	viper.SetDefault("sync_max_age", DefaultSyncMaxAge)
	viper.SetDefault("catalog_repo", branding.OfficialSourceURL())

	_ = viper.ReadInConfig()

	return Settings{
		LogLevel:          viper.GetString("log_level"),
		GitTimeout:        viper.GetDuration("git_timeout"),
		SyncMaxAge:        viper.GetDuration("sync_max_age"),
		OfficialSourceURL: viper.GetString("catalog_repo"),
	}
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// Set writes a config key-value pair and saves the config file.
func Set(key, value string) error {
	if err := EnsureDir(); err != nil {
		return err
	}

	viper.Set(key, value)

	configFile := FilePath()
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", configFile, err)
		}
		f.Close()
	}

	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
