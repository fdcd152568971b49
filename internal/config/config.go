package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	// DataDir holds the storage engine files.
	DataDir string `json:"dataDir" yaml:"dataDir"`
	// Engine selects the storage engine: pebble or sqlite.
	Engine string `json:"engine" yaml:"engine"`
	// Fsync is always, interval or never.
	Fsync           string `json:"fsync" yaml:"fsync"`
	FsyncIntervalMs int    `json:"fsyncIntervalMs" yaml:"fsyncIntervalMs"`
	// HTTPAddr is the listen address of the local API.
	HTTPAddr string        `json:"httpAddr" yaml:"httpAddr"`
	Log      LogConfig     `json:"log" yaml:"log"`
	History  HistoryConfig `json:"history" yaml:"history"`
	// Location is the IANA zone used to section logs by date. Empty means
	// the host's local zone.
	Location string `json:"location" yaml:"location"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
	Output string `json:"output" yaml:"output"`
}

// HistoryConfig controls autocomplete input history.
type HistoryConfig struct {
	// Kinds are the placeholder kinds whose values are recorded.
	Kinds []string `json:"kinds" yaml:"kinds"`
	// Limit caps each list; 0 keeps everything.
	Limit int `json:"limit" yaml:"limit"`
}

const (
	EnginePebble = "pebble"
	EngineSQLite = "sqlite"
)

// Default returns built-in defaults.
func Default() Config {
	return Config{
		DataDir:         DefaultDataDir(),
		Engine:          EnginePebble,
		Fsync:           "always",
		FsyncIntervalMs: 5,
		HTTPAddr:        "127.0.0.1:8787",
		Log:             LogConfig{Level: "info", Format: "text", Output: "stderr"},
		History:         HistoryConfig{Kinds: []string{"text-input"}, Limit: 50},
	}
}

// Load reads configuration from a JSON or YAML file (by extension) over the
// defaults. If path is empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	}
	return cfg, nil
}

// Validate checks enumerations and ranges.
func (c Config) Validate() error {
	var errs []error
	if c.DataDir == "" {
		errs = append(errs, errors.New("dataDir is required"))
	}
	switch c.Engine {
	case EnginePebble, EngineSQLite:
	default:
		errs = append(errs, fmt.Errorf("engine %q: use pebble|sqlite", c.Engine))
	}
	switch c.Fsync {
	case "always", "interval", "never":
	default:
		errs = append(errs, fmt.Errorf("fsync %q: use always|interval|never", c.Fsync))
	}
	if c.FsyncIntervalMs < 0 {
		errs = append(errs, errors.New("fsyncIntervalMs must not be negative"))
	}
	if c.History.Limit < 0 {
		errs = append(errs, errors.New("history.limit must not be negative"))
	}
	if c.Location != "" {
		if _, err := time.LoadLocation(c.Location); err != nil {
			errs = append(errs, fmt.Errorf("location: %w", err))
		}
	}
	return errors.Join(errs...)
}

// TimeLocation resolves Location.
func (c Config) TimeLocation() *time.Location {
	if c.Location == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Location)
	if err != nil {
		return time.Local
	}
	return loc
}

// FsyncInterval returns FsyncIntervalMs as a duration.
func (c Config) FsyncInterval() time.Duration {
	return time.Duration(c.FsyncIntervalMs) * time.Millisecond
}
