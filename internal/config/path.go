package config

import (
	"os"
	"path/filepath"
)

// DefaultDataDir returns the default data directory based on the host OS.
// It prefers per-user standard locations and falls back to a dotdir in the
// user's home directory.
func DefaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		return "./data"
	}

	// XDG (Linux) override
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "logbook")
	}

	// macOS: ~/Library/Application Support/Logbook
	if isDir(filepath.Join(homeDir, "Library", "Application Support")) {
		return filepath.Join(homeDir, "Library", "Application Support", "Logbook")
	}

	// Windows: %USERPROFILE%/AppData/Local/Logbook
	if isDir(filepath.Join(homeDir, "AppData")) {
		return filepath.Join(homeDir, "AppData", "Local", "Logbook")
	}

	// XDG default
	if isDir(filepath.Join(homeDir, ".local", "share")) {
		return filepath.Join(homeDir, ".local", "share", "logbook")
	}

	// Fallback: ~/.logbook
	return filepath.Join(homeDir, ".logbook")
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
