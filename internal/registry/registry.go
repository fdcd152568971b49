// Package registry keeps the in-memory list of known log types in step with
// the persisted all index.
//
// The registry only remembers which ids are known. Values are read through
// the revision store's per-id handles, so an edit published by the store is
// visible in All and Active without a refresh.
package registry

import (
	"context"
	"slices"
	"sync"

	"github.com/rzbill/logbook/internal/logtype"
	logpkg "github.com/rzbill/logbook/pkg/log"
)

// Registry is the observable projection of the all index.
type Registry struct {
	store  *logtype.Store
	logger logpkg.Logger

	mu       sync.Mutex
	indexIDs []string
	ids      []string
	version  uint64
	notifyCh chan struct{}
}

// New creates a Registry over store with a default logger.
func New(store *logtype.Store) *Registry {
	return NewWithLogger(store, nil)
}

// NewWithLogger creates a Registry with a custom logger.
func NewWithLogger(store *logtype.Store, logger logpkg.Logger) *Registry {
	if logger == nil {
		logger = logpkg.NewLogger(logpkg.WithLevel(logpkg.InfoLevel))
	}
	return &Registry{
		store:    store,
		logger:   logger.With(logpkg.Component("registry")),
		notifyCh: make(chan struct{}),
	}
}

// Load reads the all index and batch-fetches every canonical record,
// republishing each through its handle. Dangling ids are skipped.
func (r *Registry) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ids, err := r.store.IDs()
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ids)
}

func (r *Registry) load(indexIDs []string) error {
	lts, err := r.store.LoadMany(indexIDs)
	if err != nil {
		return err
	}
	ids := make([]string, len(lts))
	for i, lt := range lts {
		ids[i] = lt.ID
	}
	r.indexIDs = indexIDs
	r.ids = ids
	r.version++
	close(r.notifyCh)
	r.notifyCh = make(chan struct{})
	r.logger.Debug("registry loaded", logpkg.Int("count", len(ids)), logpkg.Int("dangling", len(indexIDs)-len(ids)))
	return nil
}

// Refresh re-reads the all index and reloads only when the id sequence
// changed. It reports whether it republished.
func (r *Registry) Refresh(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	ids, err := r.store.IDs()
	if err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.version > 0 && slices.Equal(ids, r.indexIDs) {
		return false, nil
	}
	if err := r.load(ids); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Registry) snapshot(includeArchived bool) []logtype.LogType {
	r.mu.Lock()
	ids := slices.Clone(r.ids)
	r.mu.Unlock()
	out := make([]logtype.LogType, 0, len(ids))
	for _, id := range ids {
		lt, ok := r.store.Handle(id).Get()
		if !ok {
			continue
		}
		if !includeArchived && lt.Archived() {
			continue
		}
		out = append(out, lt)
	}
	return out
}

// All returns every known log type, archived included, newest first.
func (r *Registry) All() []logtype.LogType { return r.snapshot(true) }

// Active returns the log types offered in pickers. Archived types are
// excluded.
func (r *Registry) Active() []logtype.LogType { return r.snapshot(false) }

// Lookup resolves the current canonical record for id, or for the canonical
// id of a revision id. Archived types resolve too.
func (r *Registry) Lookup(id string) (logtype.LogType, error) {
	canonical := logtype.CanonicalID(id)
	if lt, ok := r.store.Handle(canonical).Get(); ok {
		return lt, nil
	}
	return r.store.Get(canonical)
}

// Version increments whenever the id list is republished.
func (r *Registry) Version() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.version
}

// Changed returns a channel closed by the next republish.
func (r *Registry) Changed() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.notifyCh
}
