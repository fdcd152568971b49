package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultDataDirXDG(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/custom/data")
	if got := DefaultDataDir(); got != "/custom/data/logbook" {
		t.Errorf("Expected /custom/data/logbook, got %s", got)
	}
}

func TestDefaultDataDirNoHome(t *testing.T) {
	t.Setenv("HOME", "")
	os.Unsetenv("HOME")
	if got := DefaultDataDir(); got != "./data" {
		t.Errorf("Expected fallback to './data', got %s", got)
	}
}

func TestDefaultDataDirCrossPlatform(t *testing.T) {
	result := DefaultDataDir()
	if !filepath.IsAbs(result) && !strings.HasPrefix(result, "./") {
		t.Errorf("DefaultDataDir should return absolute path or start with ./, got %s", result)
	}
	base := strings.ToLower(filepath.Base(result))
	if base != "logbook" && base != ".logbook" && base != "data" {
		t.Errorf("unexpected data dir %s", result)
	}
}

func TestIsDir(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected bool
	}{
		{"existing directory", ".", true},
		{"non-existent path", "/non/existent/path/that/does/not/exist", false},
		{"file instead of directory", os.Args[0], false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isDir(tt.path); got != tt.expected {
				t.Errorf("isDir(%s) = %v, expected %v", tt.path, got, tt.expected)
			}
		})
	}
}
