package sqlitestore

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(Options{Path: filepath.Join(t.TempDir(), "store", "logbook.db")})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestLookupSetDelete(t *testing.T) {
	db := newTestDB(t)
	if err := db.CheckHealth(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
	if _, ok, err := db.Lookup([]byte("k")); ok || err != nil {
		t.Fatalf("missing key: ok=%v err=%v", ok, err)
	}
	if err := db.Set([]byte("k"), []byte("v1")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := db.Set([]byte("k"), []byte("v2")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	v, ok, err := db.Lookup([]byte("k"))
	if err != nil || !ok || string(v) != "v2" {
		t.Fatalf("lookup: %q %v %v", v, ok, err)
	}
	if err := db.Delete([]byte("k")); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := db.Lookup([]byte("k")); ok {
		t.Fatalf("expected deleted")
	}
}

func TestSetManyAndScan(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	err := db.SetMany(ctx, []KV{
		{Key: []byte("log/2"), Value: []byte("b")},
		{Key: []byte("log/1"), Value: []byte("a")},
		{Key: []byte("logindex/x"), Value: []byte("i")},
	})
	if err != nil {
		t.Fatalf("set many: %v", err)
	}
	var got []string
	err = db.Scan(ctx, []byte("log/"), func(k, v []byte) error {
		got = append(got, string(k)+"="+string(v))
		return nil
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(got) != 2 || got[0] != "log/1=a" || got[1] != "log/2=b" {
		t.Fatalf("scan got %v", got)
	}
}
