// Package config loads and persists slipway's user-level configuration.
//
// Configuration lives in a single YAML file under the user config directory
// and supplies defaults for release runs: the registry to push to, a fixed
// image name, the Dockerfile path, a log file, and whether builds go through
// BuildKit. Command-line flags always take precedence over configuration
// values, and registry credentials never come from this file.
package config

import (
	"fmt"
	"strconv"
)

const (
	// ConfigDirEnv overrides the directory containing the configuration file.
	ConfigDirEnv = "SLIPWAY_CONFIG_DIR"
	// ConfigFileName is the configuration file name inside the config directory.
	ConfigFileName = "config.yml"
)

// Configuration keys, in display order.
const (
	KeyRegistry   = "registry"
	KeyImage      = "image"
	KeyDockerfile = "dockerfile"
	KeyLogFile    = "log_file"
	KeyBuildKit   = "buildkit"
)

// Config holds the user-level defaults applied to release runs.
type Config struct {
	// Registry is the registry prefix prepended to pushed image references.
	Registry string `mapstructure:"registry"`
	// Image fixes the image name instead of inferring it from the git remote.
	Image string `mapstructure:"image"`
	// Dockerfile is the Dockerfile path relative to the build context root.
	Dockerfile string `mapstructure:"dockerfile"`
	// LogFile mirrors structured logs to the given path when set.
	LogFile string `mapstructure:"log_file"`
	// BuildKit routes builds through the BuildKit backend.
	BuildKit bool `mapstructure:"buildkit"`
}

// DefaultConfig returns the built-in defaults used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Dockerfile: "Dockerfile",
	}
}

// Option describes one configuration key for the config command's output.
type Option struct {
	Key         string
	Description string
	Default     string
}

// Options returns every supported configuration key in display order.
func Options() []Option {
	return []Option{
		{Key: KeyRegistry, Description: "registry prefix prepended to pushed image references"},
		{Key: KeyImage, Description: "image name to use instead of inferring one from the git remote"},
		{Key: KeyDockerfile, Description: "Dockerfile path relative to the build context root", Default: "Dockerfile"},
		{Key: KeyLogFile, Description: "file that structured logs are mirrored to"},
		{Key: KeyBuildKit, Description: "route builds through the BuildKit backend", Default: "false"},
	}
}

// ValidKey reports whether key names a supported configuration option.
func ValidKey(key string) bool {
	for _, opt := range Options() {
		if opt.Key == key {
			return true
		}
	}
	return false
}

// Value returns the display form of the named key's current value.
func (c *Config) Value(key string) (string, error) {
	switch key {
	case KeyRegistry:
		return c.Registry, nil
	case KeyImage:
		return c.Image, nil
	case KeyDockerfile:
		return c.Dockerfile, nil
	case KeyLogFile:
		return c.LogFile, nil
	case KeyBuildKit:
		return strconv.FormatBool(c.BuildKit), nil
	default:
		return "", &KeyNotFoundError{Key: key}
	}
}

// KeyNotFoundError is returned for configuration keys slipway does not define.
type KeyNotFoundError struct {
	Key string
}

func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("unknown configuration key: %s", e.Key)
}
