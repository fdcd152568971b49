package serverrun

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	cfgpkg "github.com/rzbill/logbook/internal/config"
	logpkg "github.com/rzbill/logbook/pkg/log"
)

func TestGetenvDefault(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		def      string
		envValue string
		expected string
	}{
		{
			name:     "environment variable set",
			key:      "TEST_VAR",
			def:      "default",
			envValue: "env_value",
			expected: "env_value",
		},
		{
			name:     "environment variable not set",
			key:      "TEST_VAR_NOT_SET",
			def:      "default",
			envValue: "",
			expected: "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.envValue)
			result := getenvDefault(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("getenvDefault(%s, %s) = %s, expected %s", tt.key, tt.def, result, tt.expected)
			}
		})
	}
}

func TestLoadConfigLayers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logbook.yaml")
	if err := os.WriteFile(path, []byte("engine: sqlite\nhttpAddr: 127.0.0.1:9999\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("LOGBOOK_HTTP_ADDR=127.0.0.1:7777\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LOGBOOK_CONFIG", path)
	t.Setenv("LOGBOOK_HTTP_ADDR", "")
	os.Unsetenv("LOGBOOK_HTTP_ADDR")

	cfg, err := LoadConfig("", envFile)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Engine != cfgpkg.EngineSQLite {
		t.Errorf("engine = %q, want sqlite from file", cfg.Engine)
	}
	if cfg.HTTPAddr != "127.0.0.1:7777" {
		t.Errorf("httpAddr = %q, want env override", cfg.HTTPAddr)
	}
}

func TestNewLoggerFallsBack(t *testing.T) {
	if l := NewLogger(cfgpkg.LogConfig{Level: "debug", Format: "xml", Output: "null"}); l == nil {
		t.Fatal("nil logger")
	}
}

// TestRunIntegration verifies Run serves until the context ends.
func TestRunIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	cfg := cfgpkg.Default()
	cfg.DataDir = t.TempDir()
	cfg.HTTPAddr = "127.0.0.1:0"
	cfg.Fsync = "never"

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := Run(ctx, Options{Config: cfg, Logger: logpkg.NewLogger(logpkg.WithOutput(logpkg.NullOutput{}))})
	if err != nil {
		t.Errorf("run: %v", err)
	}
}

func TestRunRejectsBadConfig(t *testing.T) {
	cfg := cfgpkg.Default()
	cfg.DataDir = t.TempDir()
	cfg.Engine = "leveldb"
	if err := Run(context.Background(), Options{Config: cfg, Logger: logpkg.NewLogger(logpkg.WithOutput(logpkg.NullOutput{}))}); err == nil {
		t.Fatal("expected config error")
	}
}
