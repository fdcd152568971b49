package journal

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rzbill/logbook/internal/kv"
	"github.com/rzbill/logbook/internal/logtype"
	"github.com/rzbill/logbook/pkg/id"
	logpkg "github.com/rzbill/logbook/pkg/log"
)

var (
	// ErrUnknownLogType is returned when committing against a log type that
	// was never persisted.
	ErrUnknownLogType = errors.New("journal: unknown log type")
	// ErrNeedsInput is returned by QuickCommit for types with input
	// placeholders.
	ErrNeedsInput = errors.New("journal: log type needs input")
)

// Tables are the kv tables the journal owns.
type Tables struct {
	// Logs holds serialized logs by id.
	Logs *kv.Table
	// Index holds log ids per canonical log type id, newest first.
	Index *kv.Table
	// History holds previously entered values per placeholder id.
	History *kv.Table
}

// Options tunes the journal.
type Options struct {
	// HistoryKinds are the placeholder kinds whose committed values are
	// recorded for autocomplete. Defaults to text-input.
	HistoryKinds []logtype.Kind
	// HistoryLimit caps each history list. 0 keeps everything.
	HistoryLimit int
}

// Journal is the commit pipeline and the reactive list of loaded logs.
type Journal struct {
	types  *logtype.Store
	tables Tables
	opts   Options
	logger logpkg.Logger

	// serializes commits
	mu sync.Mutex

	listMu   sync.Mutex
	list     []Log
	version  uint64
	notifyCh chan struct{}
}

// New creates a Journal with a default logger.
func New(types *logtype.Store, tables Tables, opts Options) *Journal {
	return NewWithLogger(types, tables, opts, nil)
}

// NewWithLogger creates a Journal with a custom logger. It installs itself
// as the store's usage guard, so canonical edits wait for in-flight commits.
func NewWithLogger(types *logtype.Store, tables Tables, opts Options, logger logpkg.Logger) *Journal {
	if logger == nil {
		logger = logpkg.NewLogger(logpkg.WithLevel(logpkg.InfoLevel))
	}
	if opts.HistoryKinds == nil {
		opts.HistoryKinds = []logtype.Kind{logtype.KindTextInput}
	}
	j := &Journal{
		types:    types,
		tables:   tables,
		opts:     opts,
		logger:   logger.With(logpkg.Component("journal")),
		notifyCh: make(chan struct{}),
	}
	types.SetUsageGuard(usage{j})
	return j
}

// usage answers the store's usage guard. Lock is the commit mutex.
type usage struct{ j *Journal }

func (u usage) Lock()   { u.j.mu.Lock() }
func (u usage) Unlock() { u.j.mu.Unlock() }

// BoundHash returns the fingerprint of the newest log bound to the canonical
// record itself. Callers hold the commit mutex.
func (u usage) BoundHash(canonicalID string) (string, bool, error) {
	prior, ok, err := u.j.lastLog(canonicalID)
	if err != nil || !ok {
		return "", false, err
	}
	if prior.RevisionID != "" && prior.RevisionID != canonicalID {
		return "", false, nil
	}
	return prior.LogTypeHash, true, nil
}

// MakeDefault builds a draft log for lt stamped with the store clock.
func (j *Journal) MakeDefault(lt logtype.LogType) Log {
	return MakeDefault(lt, j.types.Now())
}

// Commit persists l against the current schema of its log type. A new
// revision is cut when the schema drifted since the previous log of the
// type. Writes happen in order: revision snapshot, log record, log index,
// input history. The committed log is returned and prepended to the list.
func (j *Journal) Commit(ctx context.Context, l Log) (Log, error) {
	if err := ctx.Err(); err != nil {
		return Log{}, err
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	typeID := logtype.CanonicalID(l.LogType.ID)
	canonical, err := j.types.Get(typeID)
	if errors.Is(err, kv.ErrNotFound) {
		return Log{}, fmt.Errorf("commit %q: %w", typeID, ErrUnknownLogType)
	}
	if err != nil {
		return Log{}, err
	}

	prior, hasPrior, err := j.lastLog(typeID)
	if err != nil {
		return Log{}, err
	}
	current := logtype.Fingerprint(canonical)
	drift := canonical.Revision > 0
	if hasPrior {
		drift = prior.LogTypeHash != current
	}

	var bound logtype.LogType
	if drift {
		bound, err = j.types.SnapshotRevision(canonical)
	} else {
		bound, err = j.types.LoadRevision(canonical)
	}
	if err != nil {
		return Log{}, fmt.Errorf("commit %q: %w", typeID, err)
	}
	hash := logtype.Fingerprint(bound)

	if l.ID == "" {
		l.ID = id.New()
	}
	if l.CreateAt.IsZero() {
		l.CreateAt = j.types.Now()
	}
	l.CreateAt = l.CreateAt.UTC().Truncate(time.Millisecond)
	l.LogType = bound
	l.RevisionID = bound.ID
	l.PlaceholderValues = alignValues(bound, l.PlaceholderValues)
	l.Content = Content(l.PlaceholderValues)

	if err := j.tables.Logs.Set(l.ID, Serialize(l, bound.ID, hash)); err != nil {
		return Log{}, err
	}
	if _, err := j.tables.Index.PrependID(typeID, l.ID); err != nil {
		return Log{}, err
	}
	j.prepend(l)
	j.recordHistory(bound, l)

	j.logger.Info("log committed",
		logpkg.Str("id", l.ID),
		logpkg.Str("type", typeID),
		logpkg.Str("revision", bound.ID),
		logpkg.Bool("drift", drift))
	return l, nil
}

// QuickCommit commits the default log of a type that needs no input.
func (j *Journal) QuickCommit(ctx context.Context, lt logtype.LogType) (Log, error) {
	if lt.NeedsInput() {
		return Log{}, fmt.Errorf("quick commit %q: %w", lt.ID, ErrNeedsInput)
	}
	return j.Commit(ctx, j.MakeDefault(lt))
}

func (j *Journal) recordHistory(schema logtype.LogType, l Log) {
	for _, p := range schema.Placeholders {
		if !slices.Contains(j.opts.HistoryKinds, p.Kind) {
			continue
		}
		v, ok := l.Value(p.ID)
		if !ok || v == "" {
			continue
		}
		if _, err := j.tables.History.PrependIDLimit(p.ID, v, j.opts.HistoryLimit); err != nil {
			// the log is already committed
			j.logger.Warn("input history not recorded", logpkg.Str("placeholder", p.ID), logpkg.Err(err))
		}
	}
}

// Get reads a committed log by id.
func (j *Journal) Get(logID string) (SerializedLog, error) {
	var s SerializedLog
	if err := j.tables.Logs.Get(logID, &s); err != nil {
		return SerializedLog{}, err
	}
	return s, nil
}

// ReadAll bulk-reads the log table. Undecodable entries are skipped.
func (j *Journal) ReadAll(ctx context.Context) ([]SerializedLog, error) {
	entries, err := kv.All[SerializedLog](ctx, j.tables.Logs)
	if err != nil {
		return nil, err
	}
	out := make([]SerializedLog, len(entries))
	for i, e := range entries {
		out[i] = e.Value
	}
	return out, nil
}

// LogIDs returns the log ids of a log type, newest first.
func (j *Journal) LogIDs(typeID string) ([]string, error) {
	return j.tables.Index.GetIDList(logtype.CanonicalID(typeID))
}

// LastLog returns the most recent log of a type. Index entries whose log is
// missing are skipped.
func (j *Journal) LastLog(typeID string) (SerializedLog, bool, error) {
	return j.lastLog(logtype.CanonicalID(typeID))
}

func (j *Journal) lastLog(typeID string) (SerializedLog, bool, error) {
	ids, err := j.tables.Index.GetIDList(typeID)
	if err != nil {
		return SerializedLog{}, false, err
	}
	for _, logID := range ids {
		var s SerializedLog
		err := j.tables.Logs.Get(logID, &s)
		if err == nil {
			return s, true, nil
		}
		if !errors.Is(err, kv.ErrNotFound) && !errors.Is(err, kv.ErrCorrupt) {
			return SerializedLog{}, false, err
		}
		j.logger.Debug("skipping dangling log index entry", logpkg.Str("type", typeID), logpkg.Str("log", logID))
	}
	return SerializedLog{}, false, nil
}

// Schema resolves the schema a committed log is pinned to.
func (j *Journal) Schema(ctx context.Context, s SerializedLog) (logtype.LogType, error) {
	if err := ctx.Err(); err != nil {
		return logtype.LogType{}, err
	}
	revisionID := s.RevisionID
	if revisionID == "" {
		revisionID = s.LogTypeID
	}
	return j.types.ResolvePinned(revisionID, s.LogTypeHash)
}

// Load reads a committed log together with its pinned schema.
func (j *Journal) Load(ctx context.Context, logID string) (Log, error) {
	s, err := j.Get(logID)
	if err != nil {
		return Log{}, err
	}
	lt, err := j.Schema(ctx, s)
	if err != nil {
		return Log{}, err
	}
	return Deserialize(s, lt)
}

// InputHistory returns previously entered values for a placeholder, newest
// first.
func (j *Journal) InputHistory(pid string) ([]string, error) {
	return j.tables.History.GetIDList(pid)
}

// ClearLogs removes every log, log index and input history entry. Log types
// and their revisions are kept.
func (j *Journal) ClearLogs(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, t := range []*kv.Table{j.tables.Logs, j.tables.Index, j.tables.History} {
		if err := t.Clear(ctx); err != nil {
			return err
		}
	}
	j.SetLogs(nil)
	j.logger.Info("logs cleared")
	return nil
}
