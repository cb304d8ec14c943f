// Package storage persists viewer preferences between runs.
package storage

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "chessvision"

// GetDataDir returns the platform-specific data directory for the application.
// - macOS: ~/Library/Application Support/chessvision/
// - Linux: ~/.local/share/chessvision/
// - Windows: %APPDATA%/chessvision/
func GetDataDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		baseDir = filepath.Join(homeDir, "Library", "Application Support")

	case "windows":
		baseDir = os.Getenv("APPDATA")
		if baseDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			baseDir = filepath.Join(homeDir, "AppData", "Roaming")
		}

	default:
		// XDG_DATA_HOME wins over ~/.local/share.
		baseDir = os.Getenv("XDG_DATA_HOME")
		if baseDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			baseDir = filepath.Join(homeDir, ".local", "share")
		}
	}

	dataDir := filepath.Join(baseDir, appName)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}
	return dataDir, nil
}

// GetDatabaseDir returns the directory for the preferences database under
// base, or under the platform data directory when base is empty.
func GetDatabaseDir(base string) (string, error) {
	if base == "" {
		var err error
		if base, err = GetDataDir(); err != nil {
			return "", err
		}
	}

	dbDir := filepath.Join(base, "db")
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return "", err
	}
	return dbDir, nil
}
