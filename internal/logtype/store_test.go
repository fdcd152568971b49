package logtype

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rzbill/logbook/internal/kv"
	pebblestore "github.com/rzbill/logbook/internal/storage/pebble"
	logpkg "github.com/rzbill/logbook/pkg/log"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	s := NewWithLogger(kv.NewTable(kv.Pebble(db), "logtype"), logpkg.NewLogger(logpkg.WithOutput(logpkg.NullOutput{})))
	clock := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	})
	return s
}

func placeholderIDs(lt LogType) []string {
	out := []string{}
	for _, p := range lt.Placeholders {
		out = append(out, p.ID)
	}
	return out
}

func TestLoadCanonicalDefault(t *testing.T) {
	s := newTestStore(t)

	lt, err := s.LoadCanonical("draft", LoadOptions{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if lt.ID != "draft" || lt.Name != DefaultName || len(lt.Placeholders) != 2 {
		t.Fatalf("unexpected default %+v", lt)
	}
	if _, err := s.Get("draft"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("default must not be persisted, got %v", err)
	}
	ids, _ := s.IDs()
	if len(ids) != 0 {
		t.Fatalf("all index touched: %v", ids)
	}

	lt, err = s.LoadCanonical("kept", LoadOptions{PersistImmediate: true})
	if err != nil {
		t.Fatalf("load persist: %v", err)
	}
	stored, err := s.Get("kept")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if diff := cmp.Diff(placeholderIDs(lt), placeholderIDs(stored)); diff != "" {
		t.Fatalf("stored (-want +got):\n%s", diff)
	}
	ids, _ = s.IDs()
	if diff := cmp.Diff([]string{"kept"}, ids); diff != "" {
		t.Fatalf("all (-want +got):\n%s", diff)
	}

	if _, err := s.LoadCanonical("kept:1", LoadOptions{}); !errors.Is(err, ErrRevisionRecord) {
		t.Fatalf("expected ErrRevisionRecord, got %v", err)
	}
}

func TestCreateIndexesNewestFirst(t *testing.T) {
	s := newTestStore(t)
	a, _ := s.Create("walk")
	b, _ := s.Create("")
	if b.Name != DefaultName {
		t.Fatalf("empty name should default, got %q", b.Name)
	}
	ids, _ := s.IDs()
	if diff := cmp.Diff([]string{b.ID, a.ID}, ids); diff != "" {
		t.Fatalf("all (-want +got):\n%s", diff)
	}
}

func TestUpdate(t *testing.T) {
	s := newTestStore(t)
	lt, _ := s.Create("walk")

	got, err := s.Update(lt.ID, Patch{Name: ptr("run"), Color: ptr("red")}, UpdateOptions{})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Name != "run" || got.Color != "red" || !got.UpdateAt.Equal(lt.UpdateAt) {
		t.Fatalf("unexpected update %+v", got)
	}
	got, _ = s.Update(lt.ID, Patch{}, UpdateOptions{BumpTimestamp: true})
	if !got.UpdateAt.After(lt.UpdateAt) {
		t.Fatalf("updateAt not bumped")
	}
	if got.Revision != 0 {
		t.Fatalf("edits must not bump the revision")
	}
	ids, _ := s.IDs()
	if len(ids) != 1 {
		t.Fatalf("update must not duplicate index entries: %v", ids)
	}

	dup := []Placeholder{{ID: "x", Kind: KindNumber}, {ID: "x", Kind: KindText}}
	if _, err := s.Update(lt.ID, Patch{Placeholders: dup}, UpdateOptions{}); !errors.Is(err, ErrDuplicatePlaceholder) {
		t.Fatalf("expected ErrDuplicatePlaceholder, got %v", err)
	}
	if _, err := s.Update(lt.ID+":1", Patch{}, UpdateOptions{}); !errors.Is(err, ErrRevisionRecord) {
		t.Fatalf("expected ErrRevisionRecord, got %v", err)
	}
}

func TestUpdateUnsavedDraftIndexesIt(t *testing.T) {
	s := newTestStore(t)
	draft, _ := s.LoadCanonical("d1", LoadOptions{})
	if _, err := s.Update(draft.ID, Patch{Name: ptr("Sleep")}, UpdateOptions{BumpTimestamp: true}); err != nil {
		t.Fatalf("update: %v", err)
	}
	ids, _ := s.IDs()
	if diff := cmp.Diff([]string{"d1"}, ids); diff != "" {
		t.Fatalf("all (-want +got):\n%s", diff)
	}
}

func TestUpdateJSON(t *testing.T) {
	s := newTestStore(t)
	lt, _ := s.Create("walk")

	patch := []byte(`{
		"id": "hijack",
		"revision": 9,
		"name": "Evening walk",
		"placeholders": [
			{"id": "` + lt.Placeholders[0].ID + `", "name": "intro", "kind": "text", "content": "Walked", "options": ["dropped"]},
			{"name": "km", "kind": "number"}
		]
	}`)
	got, err := s.UpdateJSON(lt.ID, patch, UpdateOptions{BumpTimestamp: true})
	if err != nil {
		t.Fatalf("update json: %v", err)
	}
	if got.ID != lt.ID || got.Revision != 0 || got.Name != "Evening walk" {
		t.Fatalf("immutable fields changed: %+v", got)
	}
	if len(got.Placeholders) != 2 || got.Placeholders[0].Options != nil || got.Placeholders[1].ID == "" {
		t.Fatalf("placeholders not normalized: %+v", got.Placeholders)
	}
	if got.Placeholders[0].Content != "Walked" {
		t.Fatalf("content lost: %+v", got.Placeholders[0])
	}

	if _, err := s.UpdateJSON(lt.ID, []byte(`{"placeholders":[{"id":"a","kind":"slider"}]}`), UpdateOptions{}); !errors.Is(err, ErrInvalidPlaceholder) {
		t.Fatalf("unknown kind: err = %v", err)
	}
	if _, err := s.UpdateJSON(lt.ID, []byte(`{"placeholders":`), UpdateOptions{}); !errors.Is(err, ErrInvalidPatch) {
		t.Fatalf("malformed patch: err = %v", err)
	}
}

func TestPlaceholderOps(t *testing.T) {
	s := newTestStore(t)
	lt, _ := s.Create("walk")

	p, err := s.AddPlaceholder(lt.ID, KindSelect, "")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if p.Name != DefaultPlaceholderName || len(p.Options) != 1 {
		t.Fatalf("unexpected placeholder %+v", p)
	}

	up, err := s.UpdatePlaceholder(lt.ID, p.ID, PlaceholderPatch{Name: ptr("where"), Options: []string{"park", "beach"}})
	if err != nil {
		t.Fatalf("update placeholder: %v", err)
	}
	if up.ID != p.ID {
		t.Fatalf("placeholder id changed: %q -> %q", p.ID, up.ID)
	}
	k := KindText
	up, _ = s.UpdatePlaceholder(lt.ID, p.ID, PlaceholderPatch{Kind: &k})
	if up.ID != p.ID || up.Options != nil || up.Name != "where" {
		t.Fatalf("kind change: %+v", up)
	}

	if _, err := s.UpdatePlaceholder(lt.ID, "nope", PlaceholderPatch{}); !errors.Is(err, ErrPlaceholderNotFound) {
		t.Fatalf("expected ErrPlaceholderNotFound, got %v", err)
	}
	if err := s.RemovePlaceholder(lt.ID, "nope"); !errors.Is(err, ErrPlaceholderNotFound) {
		t.Fatalf("expected ErrPlaceholderNotFound, got %v", err)
	}

	if err := s.MovePlaceholder(lt.ID, p.ID, 0); err != nil {
		t.Fatalf("move: %v", err)
	}
	cur, _ := s.Get(lt.ID)
	want := []string{p.ID, lt.Placeholders[0].ID, lt.Placeholders[1].ID}
	if diff := cmp.Diff(want, placeholderIDs(cur)); diff != "" {
		t.Fatalf("order (-want +got):\n%s", diff)
	}
	if err := s.MovePlaceholder(lt.ID, p.ID, 99); err != nil {
		t.Fatalf("move: %v", err)
	}
	cur, _ = s.Get(lt.ID)
	want = []string{lt.Placeholders[0].ID, lt.Placeholders[1].ID, p.ID}
	if diff := cmp.Diff(want, placeholderIDs(cur)); diff != "" {
		t.Fatalf("order (-want +got):\n%s", diff)
	}

	if err := s.RemovePlaceholder(lt.ID, p.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	cur, _ = s.Get(lt.ID)
	if diff := cmp.Diff(placeholderIDs(lt), placeholderIDs(cur)); diff != "" {
		t.Fatalf("after remove (-want +got):\n%s", diff)
	}
}

func TestSnapshotRevision(t *testing.T) {
	s := newTestStore(t)
	lt, _ := s.Create("walk")

	snap, err := s.SnapshotRevision(lt)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.ID != lt.ID+":1" || snap.Revision != 1 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if _, err := s.SnapshotRevision(snap); !errors.Is(err, ErrRevisionRecord) {
		t.Fatalf("expected ErrRevisionRecord, got %v", err)
	}

	canonical, _ := s.Get(lt.ID)
	if canonical.Revision != 1 || canonical.Name != lt.Name || !canonical.UpdateAt.Equal(lt.UpdateAt) {
		t.Fatalf("canonical changed beyond the counter: %+v", canonical)
	}
	if Fingerprint(canonical) != Fingerprint(snap) {
		t.Fatalf("snapshot and canonical fingerprints differ")
	}

	loaded, err := s.LoadRevision(canonical)
	if err != nil || loaded.ID != snap.ID {
		t.Fatalf("load revision: %+v %v", loaded, err)
	}

	// snapshots never follow canonical edits
	_, _ = s.AddPlaceholder(lt.ID, KindNumber, "km")
	canonical, _ = s.Get(lt.ID)
	snap2, _ := s.SnapshotRevision(canonical)
	if snap2.ID != lt.ID+":2" {
		t.Fatalf("second snapshot id %q", snap2.ID)
	}
	old, _ := s.GetRevision(snap.ID)
	if diff := cmp.Diff(placeholderIDs(lt), placeholderIDs(old)); diff != "" {
		t.Fatalf("snapshot mutated (-want +got):\n%s", diff)
	}
	revs, _ := s.Revisions(lt.ID)
	if diff := cmp.Diff([]string{lt.ID + ":2", lt.ID + ":1"}, revs); diff != "" {
		t.Fatalf("revisions (-want +got):\n%s", diff)
	}
}

func TestLoadRevisionZeroIsCanonical(t *testing.T) {
	s := newTestStore(t)
	lt, _ := s.Create("walk")
	got, err := s.LoadRevision(lt)
	if err != nil || got.ID != lt.ID {
		t.Fatalf("load revision: %+v %v", got, err)
	}
	if ok, _ := s.table.Has(lt.ID + ":0"); ok {
		t.Fatalf("revision 0 must not be snapshotted")
	}
}

// boundHashes is a UsageGuard backed by a map of canonical id to the
// fingerprint its logs are bound to.
type boundHashes struct {
	sync.Mutex
	hashes map[string]string
}

func (b *boundHashes) BoundHash(id string) (string, bool, error) {
	h, ok := b.hashes[id]
	return h, ok, nil
}

func TestBaseCopyPreservedWhenReferenced(t *testing.T) {
	s := newTestStore(t)
	usage := &boundHashes{hashes: map[string]string{}}
	s.SetUsageGuard(usage)

	lt, _ := s.Create("feed")
	// unreferenced edits leave no base copy
	_, _ = s.Update(lt.ID, Patch{Name: ptr("Feed")}, UpdateOptions{BumpTimestamp: true})
	if ok, _ := s.table.Has(lt.ID + ":0"); ok {
		t.Fatalf("unexpected base copy")
	}

	pinned, _ := s.Get(lt.ID)
	pinnedHash := Fingerprint(pinned)
	usage.hashes[lt.ID] = pinnedHash

	if _, err := s.AddPlaceholder(lt.ID, KindNumber, "grams"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := s.AddPlaceholder(lt.ID, KindNumber, "more"); err != nil {
		t.Fatalf("add: %v", err)
	}

	base, err := s.Get(lt.ID + ":0")
	if err != nil {
		t.Fatalf("base copy: %v", err)
	}
	if diff := cmp.Diff(placeholderIDs(pinned), placeholderIDs(base)); diff != "" {
		t.Fatalf("base (-want +got):\n%s", diff)
	}

	resolved, err := s.ResolvePinned(lt.ID, pinnedHash)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if diff := cmp.Diff(placeholderIDs(pinned), placeholderIDs(resolved)); diff != "" {
		t.Fatalf("resolved (-want +got):\n%s", diff)
	}

	cur, _ := s.Get(lt.ID)
	resolved, _ = s.ResolvePinned(lt.ID, Fingerprint(cur))
	if len(resolved.Placeholders) != 4 {
		t.Fatalf("matching hash should resolve the canonical record, got %d placeholders", len(resolved.Placeholders))
	}
	revs, _ := s.Revisions(lt.ID)
	if len(revs) != 0 {
		t.Fatalf("base copy must not enter the revisions index: %v", revs)
	}
}

func TestStaleBaseCopyReplaced(t *testing.T) {
	s := newTestStore(t)
	usage := &boundHashes{hashes: map[string]string{}}
	s.SetUsageGuard(usage)

	lt, _ := s.Create("feed")
	first, _ := s.Get(lt.ID)
	usage.hashes[lt.ID] = Fingerprint(first)
	if _, err := s.AddPlaceholder(lt.ID, KindNumber, "grams"); err != nil {
		t.Fatalf("add: %v", err)
	}

	// logs bound to the first state are gone; a new one binds to the current
	second, _ := s.Get(lt.ID)
	usage.hashes[lt.ID] = Fingerprint(second)
	if _, err := s.AddPlaceholder(lt.ID, KindNumber, "more"); err != nil {
		t.Fatalf("add: %v", err)
	}
	base, err := s.Get(lt.ID + ":0")
	if err != nil {
		t.Fatalf("base copy: %v", err)
	}
	if diff := cmp.Diff(placeholderIDs(second), placeholderIDs(base)); diff != "" {
		t.Fatalf("base (-want +got):\n%s", diff)
	}

	// a hash matching neither the canonical nor the base resolves the canonical
	cur, _ := s.Get(lt.ID)
	got, err := s.ResolvePinned(lt.ID, Fingerprint(first))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if diff := cmp.Diff(placeholderIDs(cur), placeholderIDs(got)); diff != "" {
		t.Fatalf("resolved (-want +got):\n%s", diff)
	}
}

func TestArchive(t *testing.T) {
	s := newTestStore(t)
	lt, _ := s.Create("walk")
	got, err := s.Archive(lt.ID)
	if err != nil || !got.Archived() {
		t.Fatalf("archive: %+v %v", got, err)
	}
	got, _ = s.Get(lt.ID)
	if !got.Archived() {
		t.Fatalf("archive not persisted")
	}
	got, _ = s.Unarchive(lt.ID)
	if got.Archived() {
		t.Fatalf("unarchive")
	}
	if _, err := s.Archive("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestHandle(t *testing.T) {
	s := newTestStore(t)
	lt, _ := s.Create("walk")

	h := s.Handle(lt.ID)
	if h != s.Handle(lt.ID) || h != s.Handle(lt.ID+":3") {
		t.Fatalf("handles must be cached per canonical id")
	}
	got, ok := h.Get()
	if !ok || got.Name != "walk" {
		t.Fatalf("handle value %+v %v", got, ok)
	}
	v := h.Version()
	changed := h.Changed()

	if _, err := s.Update(lt.ID, Patch{Name: ptr("run")}, UpdateOptions{}); err != nil {
		t.Fatalf("update: %v", err)
	}
	select {
	case <-changed:
	default:
		t.Fatalf("changed channel not closed")
	}
	got, _ = h.Get()
	if got.Name != "run" || h.Version() != v+1 {
		t.Fatalf("handle not republished: %+v v=%d", got, h.Version())
	}

	// identical republish is a no-op
	v = h.Version()
	_, _ = s.LoadCanonical(lt.ID, LoadOptions{})
	if h.Version() != v {
		t.Fatalf("identical publish bumped version")
	}
	if h.Wait(10 * time.Millisecond) {
		t.Fatalf("wait should time out")
	}

	missing := s.Handle("nothing-yet")
	if _, ok := missing.Get(); ok {
		t.Fatalf("unknown id should not be loaded")
	}
}
