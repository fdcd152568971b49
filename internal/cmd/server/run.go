package serverrun

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	cfgpkg "github.com/rzbill/logbook/internal/config"
	"github.com/rzbill/logbook/internal/runtime"
	httpserver "github.com/rzbill/logbook/internal/server/http"
	logpkg "github.com/rzbill/logbook/pkg/log"
)

func getenvDefault(key, def string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return def
}

// small wrapper to allow testing
var getenv = os.Getenv

// Options configures Run.
type Options struct {
	Config cfgpkg.Config
	// Logger overrides the process logger built from Config.Log.
	Logger logpkg.Logger
}

// LoadConfig resolves the server configuration: .env files are loaded
// into the environment, then the config file at path (LOGBOOK_CONFIG when
// path is empty, defaults when both are) is read and LOGBOOK_* variables
// are overlaid.
func LoadConfig(path string, envFiles ...string) (cfgpkg.Config, error) {
	if err := cfgpkg.LoadDotEnv(envFiles...); err != nil {
		return cfgpkg.Config{}, fmt.Errorf("dotenv: %w", err)
	}
	if path == "" {
		path = getenvDefault("LOGBOOK_CONFIG", "")
	}
	cfg, err := cfgpkg.Load(path)
	if err != nil {
		return cfgpkg.Config{}, err
	}
	cfgpkg.FromEnv(&cfg)
	return cfg, nil
}

// NewLogger builds the process logger from cfg, falling back to a text
// logger at the parsed (or info) level when cfg is invalid.
func NewLogger(cfg cfgpkg.LogConfig) logpkg.Logger {
	lc := &logpkg.Config{Level: cfg.Level, Format: cfg.Format, Output: cfg.Output}
	logger, err := logpkg.ApplyConfig(lc)
	if err == nil {
		return logger
	}
	lvl := logpkg.InfoLevel
	if l, e := logpkg.ParseLevel(cfg.Level); e == nil {
		lvl = l
	}
	logger = logpkg.NewLogger(logpkg.WithLevel(lvl), logpkg.WithFormatter(&logpkg.TextFormatter{}))
	logger.Warn("invalid log config, using defaults", logpkg.Err(err))
	return logger
}

// Run opens the runtime and serves the HTTP API until ctx is cancelled or
// SIGINT/SIGTERM arrives.
func Run(ctx context.Context, opts Options) error {
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := opts.Config
	if cfg.DataDir == "" {
		cfg.DataDir = cfgpkg.DefaultDataDir()
	}
	logger := opts.Logger
	if logger == nil {
		logger = NewLogger(cfg.Log)
	}
	// stdlib log output goes through the process logger
	logpkg.RedirectStdLog(logger)

	rt, err := runtime.Open(runtime.Options{Config: cfg, Logger: logger})
	if err != nil {
		return err
	}
	defer rt.Close()

	logger.Info("Starting logbook server",
		logpkg.Str("http", cfg.HTTPAddr),
		logpkg.Str("data_dir", cfg.DataDir),
		logpkg.Str("engine", cfg.Engine),
		logpkg.Str("fsync", cfg.Fsync),
		logpkg.Str("level", cfg.Log.Level),
		logpkg.Str("format", cfg.Log.Format),
	)

	hsrv := httpserver.New(rt, logger)
	err = hsrv.ListenAndServe(sctx, cfg.HTTPAddr)
	// stop accepting before the runtime closes the store
	hsrv.Close()
	if err != nil && sctx.Err() == nil {
		return fmt.Errorf("http: %w", err)
	}
	return nil
}
