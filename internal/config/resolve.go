package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const (
	xdgConfigHome = "XDG_CONFIG_HOME"
	appData       = "AppData"
)

// Dir returns the slipway config directory.
func Dir() string {
	if a := os.Getenv(ConfigDirEnv); a != "" {
		return a
	}
	if b := os.Getenv(xdgConfigHome); b != "" {
		return filepath.Join(b, "slipway")
	}
	if runtime.GOOS == "windows" {
		if c := os.Getenv(appData); c != "" {
			return filepath.Join(c, "slipway")
		}
	}
	d, _ := os.UserHomeDir()
	return filepath.Join(d, ".config", "slipway")
}
