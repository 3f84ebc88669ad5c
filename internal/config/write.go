package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Set validates and persists a single key, creating the config file and its
// directory when they do not exist yet. Other keys in the file are preserved.
func (l *Loader) Set(key, value string) error {
	if !ValidKey(key) {
		return &KeyNotFoundError{Key: key}
	}

	parsed, err := parseValue(key, value)
	if err != nil {
		return err
	}

	return writeKeyToFile(l.ConfigPath(), key, parsed)
}

// parseValue coerces the string form from the command line into the value
// type the key holds, so booleans round-trip as YAML booleans.
func parseValue(key, value string) (any, error) {
	switch key {
	case KeyBuildKit:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q for %s: expected true or false", value, key)
		}
		return b, nil
	default:
		return value, nil
	}
}

func writeKeyToFile(path, key string, value any) error {
	return withFileLock(path, func() error {
		v, _, err := openConfigForWrite(path)
		if err != nil {
			return err
		}

		v.Set(key, value)

		encoded, err := yaml.Marshal(v.AllSettings())
		if err != nil {
			return fmt.Errorf("encoding config %s: %w", path, err)
		}

		return atomicWriteFile(path, encoded, 0o644)
	})
}

// withFileLock acquires an advisory file lock on path+".lock" before running fn,
// providing cross-process mutual exclusion for config file writes.
func withFileLock(path string, fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory for %s: %w", path, err)
	}

	fl := flock.New(path + ".lock")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	locked, err := fl.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return fmt.Errorf("acquiring file lock for %s: %w", path, err)
	}
	if !locked {
		return fmt.Errorf("timed out acquiring file lock for %s", path)
	}
	defer func() { _ = fl.Unlock() }()

	return fn()
}

// atomicWriteFile writes data to path using a temp-file + fsync + rename
// strategy so that a crash mid-write never leaves the target truncated or
// partial. The temp file is created in the target's parent directory to
// guarantee same-filesystem rename semantics on POSIX.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, ".slipway-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing temp file for %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("syncing temp file for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file for %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), perm); err != nil {
		return fmt.Errorf("setting permissions on temp file for %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming temp file to %s: %w", path, err)
	}

	success = true
	return nil
}

func openConfigForWrite(path string) (*viper.Viper, bool, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(path)

	exists := true
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			exists = false
		} else {
			return nil, false, fmt.Errorf("failed to stat config %s: %w", path, err)
		}
	}

	if exists {
		if err := v.ReadInConfig(); err != nil {
			return nil, false, fmt.Errorf("loading config %s: %w", path, err)
		}
	}

	return v, exists, nil
}
