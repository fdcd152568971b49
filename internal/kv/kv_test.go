package kv

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	pebblestore "github.com/rzbill/logbook/internal/storage/pebble"
	sqlitestore "github.com/rzbill/logbook/internal/storage/sqlite"
)

type rec struct {
	Name string `json:"name"`
	N    int    `json:"n"`
}

func forEachEngine(t *testing.T, fn func(t *testing.T, eng Engine)) {
	t.Helper()
	t.Run("pebble", func(t *testing.T) {
		db, err := pebblestore.Open(pebblestore.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeAlways})
		if err != nil {
			t.Fatalf("open pebble: %v", err)
		}
		eng := Pebble(db)
		t.Cleanup(func() { _ = eng.Close() })
		fn(t, eng)
	})
	t.Run("sqlite", func(t *testing.T) {
		db, err := sqlitestore.Open(sqlitestore.Options{Path: filepath.Join(t.TempDir(), "kv.db")})
		if err != nil {
			t.Fatalf("open sqlite: %v", err)
		}
		eng := SQLite(db)
		t.Cleanup(func() { _ = eng.Close() })
		fn(t, eng)
	})
}

func TestRecordRoundTrip(t *testing.T) {
	forEachEngine(t, func(t *testing.T, eng Engine) {
		tbl := NewTable(eng, "logtype")
		var got rec
		if err := tbl.Get("a", &got); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if err := tbl.Set("a", rec{Name: "walk", N: 2}); err != nil {
			t.Fatalf("set: %v", err)
		}
		if err := tbl.Get("a", &got); err != nil {
			t.Fatalf("get: %v", err)
		}
		if diff := cmp.Diff(rec{Name: "walk", N: 2}, got); diff != "" {
			t.Fatalf("mismatch (-want +got):\n%s", diff)
		}
		ok, err := tbl.Has("a")
		if err != nil || !ok {
			t.Fatalf("has: %v %v", ok, err)
		}
		if err := tbl.Delete("a"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if ok, _ := tbl.Has("a"); ok {
			t.Fatalf("expected deleted")
		}
	})
}

func TestIDLists(t *testing.T) {
	forEachEngine(t, func(t *testing.T, eng Engine) {
		tbl := NewTable(eng, "logtype")
		ids, err := tbl.GetIDList("all")
		if err != nil || len(ids) != 0 {
			t.Fatalf("empty list: %v %v", ids, err)
		}
		for _, id := range []string{"a", "b", "c", "a"} {
			if _, err := tbl.PrependID("all", id); err != nil {
				t.Fatalf("prepend: %v", err)
			}
		}
		ids, _ = tbl.GetIDList("all")
		if diff := cmp.Diff([]string{"a", "c", "b"}, ids); diff != "" {
			t.Fatalf("list (-want +got):\n%s", diff)
		}
		got, err := tbl.PrependIDLimit("all", "d", 2)
		if err != nil {
			t.Fatalf("prepend limit: %v", err)
		}
		if diff := cmp.Diff([]string{"d", "a"}, got); diff != "" {
			t.Fatalf("limited (-want +got):\n%s", diff)
		}
		ok, _ := tbl.ContainsID("all", "a")
		if !ok {
			t.Fatalf("expected a in list")
		}
		// a list is not a record
		var r rec
		if err := tbl.Get("all", &r); !errors.Is(err, ErrCorrupt) {
			t.Fatalf("expected ErrCorrupt reading list as record, got %v", err)
		}
	})
}

func TestBatchReadsDegrade(t *testing.T) {
	forEachEngine(t, func(t *testing.T, eng Engine) {
		tbl := NewTable(eng, "log")
		_ = tbl.Set("1", rec{Name: "one"})
		_ = tbl.Set("3", rec{Name: "three"})
		// torn value written behind the table's back
		if err := eng.Set([]byte("log/2"), []byte{1, 'r', '{', 0, 0, 0, 0}); err != nil {
			t.Fatalf("raw set: %v", err)
		}
		if err := tbl.SetIDList("idx", []string{"1"}); err != nil {
			t.Fatalf("set list: %v", err)
		}

		entries, err := GetMultiple[rec](tbl, []string{"1", "2", "3", "4"})
		if err != nil {
			t.Fatalf("get multiple: %v", err)
		}
		found := []bool{}
		for _, e := range entries {
			found = append(found, e.Found)
		}
		if diff := cmp.Diff([]bool{true, false, true, false}, found); diff != "" {
			t.Fatalf("found (-want +got):\n%s", diff)
		}
		if entries[2].Value.Name != "three" {
			t.Fatalf("wrong value %+v", entries[2])
		}

		var r rec
		if err := tbl.Get("2", &r); !errors.Is(err, ErrCorrupt) {
			t.Fatalf("direct read of torn value: %v", err)
		}

		all, err := All[rec](context.Background(), tbl)
		if err != nil {
			t.Fatalf("all: %v", err)
		}
		var keys []string
		for _, e := range all {
			keys = append(keys, e.Key)
		}
		if diff := cmp.Diff([]string{"1", "3"}, keys); diff != "" {
			t.Fatalf("all keys (-want +got):\n%s", diff)
		}
	})
}

func TestTablesAreIsolated(t *testing.T) {
	forEachEngine(t, func(t *testing.T, eng Engine) {
		ctx := context.Background()
		logs := NewTable(eng, "log")
		index := NewTable(eng, "logindex")
		_ = logs.Set("x", rec{Name: "log"})
		_ = index.SetIDList("x", []string{"x"})

		if err := logs.Clear(ctx); err != nil {
			t.Fatalf("clear: %v", err)
		}
		keys, _ := logs.Keys(ctx)
		if len(keys) != 0 {
			t.Fatalf("expected empty log table, got %v", keys)
		}
		ids, _ := index.GetIDList("x")
		if diff := cmp.Diff([]string{"x"}, ids); diff != "" {
			t.Fatalf("index touched (-want +got):\n%s", diff)
		}
	})
}

func TestDecodeValueRejectsBitFlip(t *testing.T) {
	b := encodeValue(kindRecord, []byte(`{"a":1}`))
	if _, _, ok := decodeValue(b); !ok {
		t.Fatalf("expected valid value")
	}
	b[3] ^= 0x01
	if _, _, ok := decodeValue(b); ok {
		t.Fatalf("expected checksum failure")
	}
}
