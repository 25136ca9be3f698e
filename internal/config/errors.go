package config

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig marks a value that loaded but cannot be used.
	ErrInvalidConfig = errors.New("invalid epidata config")
	// ErrLoadConfig marks a source (YAML file, .env file, environment) that could not be read.
	ErrLoadConfig = errors.New("cannot load epidata config")
)

// invalid reports a bad value under its config key.
func invalid(key, format string, args ...any) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidConfig, key, fmt.Sprintf(format, args...))
}

// loadFailed reports a source that could not be read. path may be empty.
func loadFailed(path string, err error) error {
	if path == "" {
		return fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
}
