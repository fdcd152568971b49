package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rzbill/logbook/internal/kv"
	"github.com/rzbill/logbook/internal/logtype"
	pebblestore "github.com/rzbill/logbook/internal/storage/pebble"
	logpkg "github.com/rzbill/logbook/pkg/log"
)

func newTestRegistry(t *testing.T) (*Registry, *logtype.Store, *kv.Table) {
	t.Helper()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	logger := logpkg.NewLogger(logpkg.WithOutput(logpkg.NullOutput{}))
	table := kv.NewTable(kv.Pebble(db), "logtype")
	store := logtype.NewWithLogger(table, logger)
	return NewWithLogger(store, logger), store, table
}

func names(lts []logtype.LogType) []string {
	out := []string{}
	for _, lt := range lts {
		out = append(out, lt.Name)
	}
	return out
}

func TestLoadSkipsDangling(t *testing.T) {
	r, store, table := newTestRegistry(t)
	ctx := context.Background()
	a, _ := store.Create("walk")
	_, _ = store.Create("sleep")
	if _, err := table.PrependID(logtype.AllKey, "ghost"); err != nil {
		t.Fatalf("prepend: %v", err)
	}
	_ = a

	if err := r.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff([]string{"sleep", "walk"}, names(r.All())); diff != "" {
		t.Fatalf("all (-want +got):\n%s", diff)
	}
}

func TestRefreshShortCircuits(t *testing.T) {
	r, store, _ := newTestRegistry(t)
	ctx := context.Background()
	_, _ = store.Create("walk")
	changed, err := r.Refresh(ctx)
	if err != nil || !changed {
		t.Fatalf("first refresh: %v %v", changed, err)
	}
	v := r.Version()
	changed, _ = r.Refresh(ctx)
	if changed || r.Version() != v {
		t.Fatalf("unchanged index must not republish")
	}

	ch := r.Changed()
	_, _ = store.Create("sleep")
	changed, _ = r.Refresh(ctx)
	if !changed {
		t.Fatalf("new id must republish")
	}
	select {
	case <-ch:
	default:
		t.Fatalf("changed channel not closed")
	}
	if diff := cmp.Diff([]string{"sleep", "walk"}, names(r.All())); diff != "" {
		t.Fatalf("all (-want +got):\n%s", diff)
	}
}

func TestEditsVisibleWithoutRefresh(t *testing.T) {
	r, store, _ := newTestRegistry(t)
	lt, _ := store.Create("walk")
	_ = r.Load(context.Background())

	name := "evening walk"
	if _, err := store.Update(lt.ID, logtype.Patch{Name: &name}, logtype.UpdateOptions{}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if diff := cmp.Diff([]string{"evening walk"}, names(r.All())); diff != "" {
		t.Fatalf("all (-want +got):\n%s", diff)
	}
}

func TestArchivedExcludedFromActiveOnly(t *testing.T) {
	r, store, _ := newTestRegistry(t)
	walk, _ := store.Create("walk")
	_, _ = store.Create("sleep")
	_ = r.Load(context.Background())

	if _, err := store.Archive(walk.ID); err != nil {
		t.Fatalf("archive: %v", err)
	}
	if diff := cmp.Diff([]string{"sleep"}, names(r.Active())); diff != "" {
		t.Fatalf("active (-want +got):\n%s", diff)
	}
	if len(r.All()) != 2 {
		t.Fatalf("all must keep archived types")
	}
	got, err := r.Lookup(walk.ID + ":3")
	if err != nil || got.ID != walk.ID || !got.Archived() {
		t.Fatalf("lookup archived: %+v %v", got, err)
	}
	if _, err := r.Lookup("missing"); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
