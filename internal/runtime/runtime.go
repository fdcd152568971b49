package runtime

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	cfgpkg "github.com/rzbill/logbook/internal/config"
	"github.com/rzbill/logbook/internal/journal"
	"github.com/rzbill/logbook/internal/kv"
	"github.com/rzbill/logbook/internal/logtype"
	"github.com/rzbill/logbook/internal/query"
	"github.com/rzbill/logbook/internal/registry"
	pebblestore "github.com/rzbill/logbook/internal/storage/pebble"
	sqlitestore "github.com/rzbill/logbook/internal/storage/sqlite"
	logpkg "github.com/rzbill/logbook/pkg/log"
)

// Table names.
const (
	TableLogTypes = "logtype"
	TableLogs     = "log"
	TableLogIndex = "logindex"
	TableHistory  = "history"
)

// Options for building the Runtime.
type Options struct {
	Config cfgpkg.Config
	// Logger is optional; a default Info logger is used when nil.
	Logger logpkg.Logger
}

// Runtime wires storage, config, and the journal components for one data
// directory.
type Runtime struct {
	engine kv.Engine
	config cfgpkg.Config
	logger logpkg.Logger

	types    *logtype.Store
	registry *registry.Registry
	journal  *journal.Journal
	query    *query.Engine
}

// Open initializes the storage engine, builds the components and loads the
// registry.
func Open(opts Options) (*Runtime, error) {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewLogger(logpkg.WithLevel(logpkg.InfoLevel))
	}

	engine, err := openEngine(cfg, logger)
	if err != nil {
		return nil, err
	}

	kinds := make([]logtype.Kind, 0, len(cfg.History.Kinds))
	for _, k := range cfg.History.Kinds {
		kind, err := logtype.ParseKind(k)
		if err != nil {
			_ = engine.Close()
			return nil, fmt.Errorf("history kinds: %w", err)
		}
		kinds = append(kinds, kind)
	}

	rt := &Runtime{engine: engine, config: cfg, logger: logger}
	rt.types = logtype.NewWithLogger(kv.NewTable(engine, TableLogTypes), logger)
	rt.registry = registry.NewWithLogger(rt.types, logger)
	rt.journal = journal.NewWithLogger(rt.types, journal.Tables{
		Logs:    kv.NewTable(engine, TableLogs),
		Index:   kv.NewTable(engine, TableLogIndex),
		History: kv.NewTable(engine, TableHistory),
	}, journal.Options{HistoryKinds: kinds, HistoryLimit: cfg.History.Limit}, logger)
	rt.query = query.NewWithLogger(rt.journal, rt.registry, logger)

	if err := rt.registry.Load(context.Background()); err != nil {
		_ = engine.Close()
		return nil, fmt.Errorf("load registry: %w", err)
	}
	logger.Info("runtime opened", logpkg.Str("engine", cfg.Engine), logpkg.Str("data_dir", cfg.DataDir))
	return rt, nil
}

func openEngine(cfg cfgpkg.Config, logger logpkg.Logger) (kv.Engine, error) {
	switch cfg.Engine {
	case cfgpkg.EngineSQLite:
		sync := "FULL"
		if cfg.Fsync == "never" {
			sync = "OFF"
		} else if cfg.Fsync == "interval" {
			sync = "NORMAL"
		}
		db, err := sqlitestore.Open(sqlitestore.Options{Path: filepath.Join(cfg.DataDir, "logbook.db"), Synchronous: sync})
		if err != nil {
			return nil, err
		}
		return kv.SQLite(db), nil
	default:
		mode, err := pebblestore.ParseFsyncMode(cfg.Fsync)
		if err != nil {
			return nil, err
		}
		db, err := pebblestore.Open(pebblestore.Options{
			DataDir:       cfg.DataDir,
			Fsync:         mode,
			FsyncInterval: cfg.FsyncInterval(),
			Metrics:       newStorageMetrics(logger),
			Logger:        logger,
		})
		if err != nil {
			return nil, err
		}
		return kv.Pebble(db), nil
	}
}

// Close closes underlying resources.
func (r *Runtime) Close() error {
	if r.engine == nil {
		return nil
	}
	err := r.engine.Close()
	r.engine = nil
	return err
}

// CheckHealth performs a simple health check.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.engine == nil {
		return errors.New("engine not open")
	}
	return r.engine.CheckHealth(ctx)
}

// LogTypes returns the log type revision store.
func (r *Runtime) LogTypes() *logtype.Store { return r.types }

// Registry returns the log type registry.
func (r *Runtime) Registry() *registry.Registry { return r.registry }

// Journal returns the commit pipeline.
func (r *Runtime) Journal() *journal.Journal { return r.journal }

// Query returns the query engine.
func (r *Runtime) Query() *query.Engine { return r.query }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }

// Logger returns the runtime logger.
func (r *Runtime) Logger() logpkg.Logger { return r.logger }

// Location is the zone used to section logs by date.
func (r *Runtime) Location() *time.Location { return r.config.TimeLocation() }
