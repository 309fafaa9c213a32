// Package config loads the client-side configuration: where the backend
// lives and where local files (log, history) go. The server-side
// ingestion config is a different thing and round-trips through the API.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config is the client configuration.
type Config struct {
	ServerURL   string `mapstructure:"server_url"`
	LogFile     string `mapstructure:"log_file"`
	HistoryFile string `mapstructure:"history_file"`
}

// Load reads config.yaml from the user config directory, falling back to
// defaults for anything missing. A missing file is not an error.
func Load() (*Config, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("resolve config directory: %w", err)
	}
	return LoadFrom(filepath.Join(base, "kbsearch"))
}

// LoadFrom reads the configuration from the given directory.
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetDefault("server_url", "http://127.0.0.1:8000")
	v.SetDefault("log_file", filepath.Join(dir, "kbsearch.log"))
	v.SetDefault("history_file", filepath.Join(dir, "history.db"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}
