package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads KEY=VALUE pairs from the given files (".env" when none
// are named) into the process environment. Variables already set win.
// Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	return godotenv.Load(present...)
}

// FromEnv overlays LOGBOOK_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("LOGBOOK_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("LOGBOOK_ENGINE"); v != "" {
		cfg.Engine = strings.ToLower(v)
	}
	if v := os.Getenv("LOGBOOK_FSYNC"); v != "" {
		cfg.Fsync = strings.ToLower(v)
	}
	if v := os.Getenv("LOGBOOK_FSYNC_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.FsyncIntervalMs = n
		}
	}
	if v := os.Getenv("LOGBOOK_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("LOGBOOK_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOGBOOK_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("LOGBOOK_LOG_OUTPUT"); v != "" {
		cfg.Log.Output = v
	}
	if v := os.Getenv("LOGBOOK_HISTORY_KINDS"); v != "" {
		cfg.History.Kinds = nil
		for _, p := range strings.Split(v, ",") {
			p = strings.TrimSpace(p)
			if p != "" {
				cfg.History.Kinds = append(cfg.History.Kinds, p)
			}
		}
	}
	if v := os.Getenv("LOGBOOK_HISTORY_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.History.Limit = n
		}
	}
	if v := os.Getenv("LOGBOOK_LOCATION"); v != "" {
		cfg.Location = v
	}
}
