package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Loader handles loading and parsing of the slipway configuration file.
type Loader struct {
	dir   string
	viper *viper.Viper
}

// NewLoader creates a loader rooted at the user config directory.
func NewLoader() *Loader {
	return NewLoaderAt(Dir())
}

// NewLoaderAt creates a loader rooted at an explicit directory.
func NewLoaderAt(dir string) *Loader {
	return &Loader{
		dir:   dir,
		viper: viper.New(),
	}
}

// Load reads and parses the configuration file.
func (l *Loader) Load() (*Config, error) {
	configPath := l.ConfigPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, &ConfigNotFoundError{Path: configPath}
	}

	l.viper.SetConfigFile(configPath)
	l.viper.SetConfigType("yaml")

	defaults := DefaultConfig()
	l.viper.SetDefault(KeyRegistry, defaults.Registry)
	l.viper.SetDefault(KeyImage, defaults.Image)
	l.viper.SetDefault(KeyDockerfile, defaults.Dockerfile)
	l.viper.SetDefault(KeyLogFile, defaults.LogFile)
	l.viper.SetDefault(KeyBuildKit, defaults.BuildKit)

	if err := l.viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := l.viper.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// LoadOrDefault reads the configuration file, falling back to the built-in
// defaults when no file exists. A fresh install needs no setup.
func (l *Loader) LoadOrDefault() (*Config, error) {
	cfg, err := l.Load()
	if IsConfigNotFound(err) {
		return DefaultConfig(), nil
	}
	return cfg, err
}

// ConfigPath returns the full path to the config file.
func (l *Loader) ConfigPath() string {
	return filepath.Join(l.dir, ConfigFileName)
}

// Exists checks if the configuration file exists.
func (l *Loader) Exists() bool {
	_, err := os.Stat(l.ConfigPath())
	return err == nil
}

// ConfigNotFoundError is returned when the config file doesn't exist.
type ConfigNotFoundError struct {
	Path string
}

func (e *ConfigNotFoundError) Error() string {
	return fmt.Sprintf("configuration file not found: %s", e.Path)
}

// IsConfigNotFound returns true if the error is a ConfigNotFoundError.
func IsConfigNotFound(err error) bool {
	_, ok := err.(*ConfigNotFoundError)
	return ok
}
