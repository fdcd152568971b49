package logtype

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/rzbill/logbook/internal/kv"
	"github.com/rzbill/logbook/pkg/id"
	logpkg "github.com/rzbill/logbook/pkg/log"
)

var (
	// ErrNotFound aliases kv.ErrNotFound for strict reads.
	ErrNotFound = kv.ErrNotFound
	// ErrPlaceholderNotFound is returned when a placeholder id is not part of
	// the canonical record.
	ErrPlaceholderNotFound = errors.New("logtype: placeholder not found")
	// ErrRevisionRecord is returned when a canonical-only operation is given
	// a revision snapshot.
	ErrRevisionRecord = errors.New("logtype: record is a revision snapshot")
	// ErrDuplicatePlaceholder is returned when an edit would leave two
	// placeholders with the same id.
	ErrDuplicatePlaceholder = errors.New("logtype: duplicate placeholder id")
	// ErrInvalidPatch is returned when a merge patch cannot be applied.
	ErrInvalidPatch = errors.New("logtype: invalid patch")
)

// AllKey is the index of canonical ids, newest first.
const AllKey = "all"

// DefaultPlaceholderName names placeholders added without a name.
const DefaultPlaceholderName = "new text"

// RevisionsKey is the index of revision ids for canonical, newest first.
func RevisionsKey(canonical string) string { return canonical + "_revisions" }

// LoadOptions controls LoadCanonical.
type LoadOptions struct {
	// PersistImmediate writes a freshly constructed default through to the
	// store and the all index.
	PersistImmediate bool
}

// UpdateOptions controls edits of the canonical record.
type UpdateOptions struct {
	// BumpTimestamp refreshes updateAt.
	BumpTimestamp bool
}

// Patch carries a partial log type edit. Nil fields are left unchanged; a
// non-nil Placeholders replaces the whole list.
type Patch struct {
	Name         *string       `json:"name,omitempty"`
	Placeholders []Placeholder `json:"placeholders,omitempty"`
	Color        *string       `json:"color,omitempty"`
	Icon         *string       `json:"icon,omitempty"`
}

// Store persists canonical log types and their revision snapshots in one
// kv table.
type Store struct {
	table  *kv.Table
	logger logpkg.Logger

	mu      sync.Mutex
	handles map[string]*Handle
	now     func() time.Time
	usage   UsageGuard
}

// New creates a Store over table with a default logger.
func New(table *kv.Table) *Store {
	return NewWithLogger(table, nil)
}

// NewWithLogger creates a Store with a custom logger.
func NewWithLogger(table *kv.Table, logger logpkg.Logger) *Store {
	if logger == nil {
		logger = logpkg.NewLogger(logpkg.WithLevel(logpkg.InfoLevel))
	}
	return &Store{
		table:   table,
		logger:  logger.With(logpkg.Component("logtype")),
		handles: make(map[string]*Handle),
		now:     func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// SetClock replaces the time source. Times are truncated to milliseconds.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = func() time.Time { return now().UTC().Truncate(time.Millisecond) }
}

// UsageGuard reports the fingerprint that the committed logs of a canonical
// log type are bound to. Its lock is held around every canonical edit, so no
// log binds to the record while it changes.
type UsageGuard interface {
	sync.Locker
	BoundHash(canonicalID string) (hash string, bound bool, err error)
}

// SetUsageGuard installs the guard used to decide whether a revision-0
// canonical record is referenced by a committed log. Without a guard the
// record is assumed unreferenced.
func (s *Store) SetUsageGuard(p UsageGuard) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usage = p
}

func (s *Store) usageGuard() UsageGuard {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usage
}

// Now returns the store clock's current time.
func (s *Store) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now()
}

func (s *Store) get(key string) (LogType, error) {
	var rec SerializedLogType
	if err := s.table.Get(key, &rec); err != nil {
		return LogType{}, err
	}
	return Deserialize(rec)
}

func (s *Store) put(lt LogType) error {
	return s.table.Set(lt.ID, Serialize(lt))
}

func (s *Store) indexCanonical(id string) error {
	ok, err := s.table.ContainsID(AllKey, id)
	if err != nil || ok {
		return err
	}
	_, err = s.table.PrependID(AllKey, id)
	return err
}

func (s *Store) handle(id string) (*Handle, bool) {
	h, ok := s.handles[id]
	if !ok {
		h = newHandle(id)
		s.handles[id] = h
	}
	return h, ok
}

func (s *Store) publish(lt LogType) {
	h, _ := s.handle(lt.ID)
	h.publish(lt)
}

// LoadCanonical reads the canonical record for id. When absent it returns a
// fresh default, persisted and indexed only with PersistImmediate.
func (s *Store) LoadCanonical(id string, opts LoadOptions) (LogType, error) {
	if IsRevisionID(id) {
		return LogType{}, fmt.Errorf("load canonical %q: %w", id, ErrRevisionRecord)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	lt, err := s.get(id)
	switch {
	case err == nil:
		s.publish(lt)
		return lt, nil
	case !errors.Is(err, kv.ErrNotFound):
		return LogType{}, err
	}
	lt = Default(id, s.now())
	if opts.PersistImmediate {
		if err := s.put(lt); err != nil {
			return LogType{}, err
		}
		if err := s.indexCanonical(id); err != nil {
			return LogType{}, err
		}
		s.publish(lt)
		s.logger.Debug("log type created", logpkg.Str("id", id))
	}
	return lt, nil
}

// Get reads the record stored under id, canonical or revision. Missing
// records fail with ErrNotFound.
func (s *Store) Get(id string) (LogType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(id)
}

// IDs returns the all index, newest first.
func (s *Store) IDs() ([]string, error) {
	return s.table.GetIDList(AllKey)
}

// LoadMany batch-reads canonical records in the order of ids, publishing
// each through its handle. Missing or undecodable ids are skipped.
func (s *Store) LoadMany(ids []string) ([]LogType, error) {
	entries, err := kv.GetMultiple[SerializedLogType](s.table, ids)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LogType, 0, len(entries))
	for _, e := range entries {
		if !e.Found {
			s.logger.Warn("dangling log type id", logpkg.Str("id", e.Key))
			continue
		}
		lt, err := Deserialize(e.Value)
		if err != nil {
			s.logger.Warn("skipping undecodable log type", logpkg.Str("id", e.Key), logpkg.Err(err))
			continue
		}
		s.publish(lt)
		out = append(out, lt)
	}
	return out, nil
}

// Create persists a new log type with the default schema and indexes it.
func (s *Store) Create(name string) (LogType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lt := Default(id.New(), s.now())
	if name != "" {
		lt.Name = name
	}
	if err := s.put(lt); err != nil {
		return LogType{}, err
	}
	if err := s.indexCanonical(lt.ID); err != nil {
		return LogType{}, err
	}
	s.publish(lt)
	s.logger.Info("log type created", logpkg.Str("id", lt.ID), logpkg.Str("name", lt.Name))
	return lt, nil
}

// Update merges patch into the canonical record for id and persists it.
func (s *Store) Update(id string, patch Patch, opts UpdateOptions) (LogType, error) {
	return s.edit(id, opts, func(lt *LogType) error {
		if patch.Name != nil {
			lt.Name = *patch.Name
		}
		if patch.Color != nil {
			lt.Color = *patch.Color
		}
		if patch.Icon != nil {
			lt.Icon = *patch.Icon
		}
		if patch.Placeholders != nil {
			ps, err := checkPlaceholders(patch.Placeholders)
			if err != nil {
				return err
			}
			lt.Placeholders = ps
		}
		return nil
	})
}

// UpdateJSON applies an RFC 7386 merge patch to the serialized canonical
// record. id, revision, createAt and archiveAt cannot be changed this way.
// Placeholders without an id get a fresh one.
func (s *Store) UpdateJSON(id string, mergePatch []byte, opts UpdateOptions) (LogType, error) {
	return s.edit(id, opts, func(lt *LogType) error {
		orig, err := json.Marshal(Serialize(*lt))
		if err != nil {
			return err
		}
		merged, err := jsonpatch.MergePatch(orig, mergePatch)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPatch, err)
		}
		var rec SerializedLogType
		if err := json.Unmarshal(merged, &rec); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPatch, err)
		}
		for i := range rec.Placeholders {
			if _, err := ParseKind(string(rec.Placeholders[i].Kind)); err != nil {
				return err
			}
			if rec.Placeholders[i].ID == "" {
				rec.Placeholders[i].ID = newPlaceholderID()
			}
		}
		ps, err := checkPlaceholders(rec.Placeholders)
		if err != nil {
			return err
		}
		lt.Name = rec.Name
		lt.Color = rec.Color
		lt.Icon = rec.Icon
		lt.Placeholders = ps
		return nil
	})
}

var newPlaceholderID = id.New

func checkPlaceholders(in []Placeholder) ([]Placeholder, error) {
	seen := make(map[string]struct{}, len(in))
	out := make([]Placeholder, len(in))
	for i, p := range in {
		if p.ID == "" {
			return nil, fmt.Errorf("placeholder %d: %w: empty id", i, ErrInvalidPlaceholder)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("placeholder %q: %w", p.ID, ErrDuplicatePlaceholder)
		}
		seen[p.ID] = struct{}{}
		if _, err := ParseKind(string(p.Kind)); err != nil {
			return nil, err
		}
		out[i] = normalize(p)
	}
	return out, nil
}

// edit loads (or defaults) the canonical record, applies fn and persists the
// result. A revision-0 record that a committed log already references gets
// its immutable "id:0" base copy written before the edit lands.
func (s *Store) edit(id string, opts UpdateOptions, fn func(*LogType) error) (LogType, error) {
	if IsRevisionID(id) {
		return LogType{}, fmt.Errorf("update %q: %w", id, ErrRevisionRecord)
	}
	usage := s.usageGuard()
	if usage != nil {
		usage.Lock()
		defer usage.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.get(id)
	exists := err == nil
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			return LogType{}, err
		}
		cur = Default(id, s.now())
	}
	next := cur.Clone()
	if err := fn(&next); err != nil {
		return LogType{}, fmt.Errorf("update %q: %w", id, err)
	}
	next.ID, next.Revision, next.CreateAt = cur.ID, cur.Revision, cur.CreateAt
	next.ArchiveAt = cur.Clone().ArchiveAt
	if opts.BumpTimestamp {
		next.UpdateAt = s.now()
	}

	if exists && cur.Revision == 0 && usage != nil {
		hash, bound, err := usage.BoundHash(id)
		if err != nil {
			return LogType{}, fmt.Errorf("update %q: %w", id, err)
		}
		if bound && hash == Fingerprint(cur) {
			if err := s.preserveBase(cur); err != nil {
				return LogType{}, err
			}
		}
	}
	if err := s.put(next); err != nil {
		return LogType{}, err
	}
	if err := s.indexCanonical(id); err != nil {
		return LogType{}, err
	}
	s.publish(next)
	s.logger.Debug("log type updated", logpkg.Str("id", id), logpkg.Bool("bumped", opts.BumpTimestamp))
	return next, nil
}

// preserveBase writes cur as "id:0". A base copy left behind by logs that
// no longer exist is replaced.
func (s *Store) preserveBase(cur LogType) error {
	key := RevisionID(cur.ID, 0)
	old, err := s.get(key)
	if err == nil && Fingerprint(old) == Fingerprint(cur) {
		return nil
	}
	if err != nil && !errors.Is(err, kv.ErrNotFound) && !errors.Is(err, kv.ErrCorrupt) {
		return err
	}
	base := cur.Clone()
	base.ID = key
	if err := s.put(base); err != nil {
		return err
	}
	s.logger.Debug("preserved revision 0 base", logpkg.Str("id", cur.ID))
	return nil
}

// Clear removes every canonical record, revision snapshot and index. Handles
// handed out earlier stop receiving updates.
func (s *Store) Clear(ctx context.Context) error {
	if usage := s.usageGuard(); usage != nil {
		usage.Lock()
		defer usage.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.table.Clear(ctx); err != nil {
		return err
	}
	s.handles = make(map[string]*Handle)
	s.logger.Info("log types cleared")
	return nil
}

// Archive hides the log type from pickers. Committed logs keep resolving it.
func (s *Store) Archive(id string) (LogType, error) {
	return s.setArchived(id, true)
}

// Unarchive clears archiveAt.
func (s *Store) Unarchive(id string) (LogType, error) {
	return s.setArchived(id, false)
}

func (s *Store) setArchived(id string, archived bool) (LogType, error) {
	if IsRevisionID(id) {
		return LogType{}, fmt.Errorf("archive %q: %w", id, ErrRevisionRecord)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	lt, err := s.get(id)
	if err != nil {
		return LogType{}, err
	}
	if archived {
		at := s.now()
		lt.ArchiveAt = &at
	} else {
		lt.ArchiveAt = nil
	}
	if err := s.put(lt); err != nil {
		return LogType{}, err
	}
	s.publish(lt)
	return lt, nil
}

// SnapshotRevision writes an immutable copy of lt under "canonical:N+1",
// moves the canonical revision counter to N+1 and prepends the snapshot id to
// the revisions index, in that order. lt must be a canonical record.
func (s *Store) SnapshotRevision(lt LogType) (LogType, error) {
	if lt.IsRevision() {
		return LogType{}, fmt.Errorf("snapshot %q: %w", lt.ID, ErrRevisionRecord)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next := lt.Revision + 1
	snap := lt.Clone()
	snap.ID = RevisionID(lt.ID, next)
	snap.Revision = next
	if err := s.put(snap); err != nil {
		return LogType{}, err
	}

	canonical, err := s.get(lt.ID)
	if errors.Is(err, kv.ErrNotFound) {
		canonical = lt.Clone()
		err = s.indexCanonical(lt.ID)
	}
	if err != nil {
		return LogType{}, err
	}
	canonical.Revision = next
	if err := s.put(canonical); err != nil {
		return LogType{}, err
	}
	if _, err := s.table.PrependID(RevisionsKey(lt.ID), snap.ID); err != nil {
		return LogType{}, err
	}
	s.publish(canonical)
	s.logger.Info("revision snapshot", logpkg.Str("id", snap.ID))
	return snap, nil
}

// LoadRevision returns the snapshot at lt's revision counter, or the
// canonical record when the counter is 0. A canonical record that was never
// persisted is returned as given.
func (s *Store) LoadRevision(lt LogType) (LogType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	canonical := lt.CanonicalID()
	if lt.Revision > 0 {
		return s.get(RevisionID(canonical, lt.Revision))
	}
	out, err := s.get(canonical)
	if errors.Is(err, kv.ErrNotFound) {
		return lt, nil
	}
	return out, err
}

// Revisions returns the revision ids of canonical, newest first.
func (s *Store) Revisions(canonical string) ([]string, error) {
	return s.table.GetIDList(RevisionsKey(CanonicalID(canonical)))
}

// GetRevision reads a revision snapshot by id.
func (s *Store) GetRevision(revisionID string) (LogType, error) {
	if !IsRevisionID(revisionID) {
		return LogType{}, fmt.Errorf("get revision %q: not a revision id", revisionID)
	}
	return s.Get(revisionID)
}

// ResolvePinned returns the schema a committed log is bound to. Snapshots are
// immutable and returned as stored. A binding to a canonical record whose
// fingerprint no longer matches hash resolves to the "id:0" base copy when
// that copy carries hash.
func (s *Store) ResolvePinned(revisionID, hash string) (LogType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lt, err := s.get(revisionID)
	if err != nil {
		return LogType{}, err
	}
	if IsRevisionID(revisionID) || hash == "" || Fingerprint(lt) == hash {
		return lt, nil
	}
	base, err := s.get(RevisionID(revisionID, 0))
	if err != nil && !errors.Is(err, kv.ErrNotFound) {
		return LogType{}, err
	}
	if err == nil && Fingerprint(base) == hash {
		return base, nil
	}
	s.logger.Warn("pinned schema drifted without matching base copy",
		logpkg.Str("id", revisionID), logpkg.Str("hash", hash))
	return lt, nil
}

// Handle returns the observable handle for canonical id. Repeated calls for
// the same id return the same instance.
func (s *Store) Handle(id string) *Handle {
	id = CanonicalID(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	h, existed := s.handle(id)
	if !existed {
		if lt, err := s.get(id); err == nil {
			h.publish(lt)
		}
	}
	return h
}
