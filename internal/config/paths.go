// Package config handles configuration loading, saving, and path management.
package config

import (
	"os"
	"path/filepath"
)

const (
	// GlobalDirName is the name of the global vigil directory.
	GlobalDirName = ".vigil"

	// ConfigFileName is the client configuration file inside GlobalDirName.
	ConfigFileName = "config.yaml"

	// LogFileName is the debug log written while the TUI owns the terminal.
	LogFileName = "vigil.log"
)

// GlobalDir returns the path to the global vigil directory (~/.vigil/).
// VIGIL_HOME overrides the location.
func GlobalDir() (string, error) {
	if dir := os.Getenv("VIGIL_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, GlobalDirName), nil
}

// GlobalConfigFile returns the path to config.yaml.
func GlobalConfigFile() (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

// DefaultLogFile returns the path to the debug log.
func DefaultLogFile() (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, LogFileName), nil
}

// EnsureGlobalDir creates the global vigil directory if it doesn't exist.
func EnsureGlobalDir() error {
	dir, err := GlobalDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}
