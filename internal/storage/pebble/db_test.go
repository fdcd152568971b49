package pebblestore

import (
	"context"
	"errors"
	"testing"
	"time"
)

type testMetrics struct {
	wrote        int
	read         int
	batchCommits int
	batchBytes   int
}

func (m *testMetrics) ObserveWrite(d time.Duration, bytes int) { m.wrote += bytes }
func (m *testMetrics) ObserveRead(d time.Duration, bytes int)  { m.read += bytes }
func (m *testMetrics) ObserveBatchCommit(d time.Duration, numOps int, bytes int) {
	m.batchCommits++
	m.batchBytes += bytes
}

func newTestDB(t *testing.T) (*DB, *testMetrics) {
	t.Helper()
	dir := t.TempDir()
	metrics := &testMetrics{}
	db, err := Open(Options{
		DataDir:       dir,
		Fsync:         FsyncModeInterval,
		FsyncInterval: 2 * time.Millisecond,
		Metrics:       metrics,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, metrics
}

func TestCRUD(t *testing.T) {
	db, metrics := newTestDB(t)

	key := []byte("k1")
	val := []byte("v1")
	if err := db.Set(key, val); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := db.Get(key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != string(val) {
		t.Fatalf("got %q want %q", got, val)
	}
	if metrics.read == 0 || metrics.wrote == 0 {
		t.Fatalf("expected read/write metrics to record bytes")
	}

	if err := db.Delete(key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := db.Get(key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if _, ok, err := db.Lookup(key); ok || err != nil {
		t.Fatalf("lookup after delete: ok=%v err=%v", ok, err)
	}
}

func TestSetManyAtomicBatch(t *testing.T) {
	db, metrics := newTestDB(t)

	if err := db.Set([]byte("gone"), []byte("x")); err != nil {
		t.Fatalf("set: %v", err)
	}
	before := metrics.batchCommits
	err := db.SetMany(context.Background(), []KV{
		{Key: []byte("a"), Value: []byte("1")},
		{Key: []byte("b"), Value: []byte("2")},
		{Key: []byte("gone"), Delete: true},
	})
	if err != nil {
		t.Fatalf("set many: %v", err)
	}
	if metrics.batchCommits != before+1 {
		t.Fatalf("want 1 batch commit, got %d", metrics.batchCommits-before)
	}
	if metrics.batchBytes <= 0 {
		t.Fatalf("expected positive batch bytes")
	}
	if v, ok, _ := db.Lookup([]byte("b")); !ok || string(v) != "2" {
		t.Fatalf("b = %q, %v", v, ok)
	}
	if _, ok, _ := db.Lookup([]byte("gone")); ok {
		t.Fatalf("gone should be deleted")
	}
}

func TestScanPrefix(t *testing.T) {
	db, _ := newTestDB(t)
	for _, k := range []string{"log/b", "log/a", "logindex/a", "lo", "log/c"} {
		if err := db.Set([]byte(k), []byte(k)); err != nil {
			t.Fatalf("set: %v", err)
		}
	}
	var keys []string
	err := db.Scan(context.Background(), []byte("log/"), func(k, v []byte) error {
		keys = append(keys, string(k))
		return nil
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	want := []string{"log/a", "log/b", "log/c"}
	if len(keys) != len(want) {
		t.Fatalf("keys %v want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys %v want %v", keys, want)
		}
	}
}

func TestScanReadsSnapshot(t *testing.T) {
	db, _ := newTestDB(t)
	ctx := context.Background()

	if err := db.Set([]byte("log/a"), []byte("old")); err != nil {
		t.Fatalf("set: %v", err)
	}
	var seen []string
	err := db.Scan(ctx, []byte("log/"), func(key, value []byte) error {
		seen = append(seen, string(key)+"="+string(value))
		// writes during the scan are not observed by it
		if err := db.Set([]byte("log/a"), []byte("new")); err != nil {
			return err
		}
		return db.Set([]byte("log/b"), []byte("late"))
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(seen) != 1 || seen[0] != "log/a=old" {
		t.Fatalf("scan saw %v", seen)
	}
	valNew, err := db.Get([]byte("log/a"))
	if err != nil {
		t.Fatalf("db get: %v", err)
	}
	if string(valNew) != "new" {
		t.Fatalf("db saw %q want %q", valNew, "new")
	}
}

func TestPrefixEnd(t *testing.T) {
	tests := []struct {
		in, want []byte
	}{
		{[]byte("log/"), []byte("log0")},
		{[]byte{0x01, 0xff}, []byte{0x02}},
		{[]byte{0xff, 0xff}, nil},
	}
	for _, tt := range tests {
		if got := prefixEnd(tt.in); string(got) != string(tt.want) {
			t.Errorf("prefixEnd(%q) = %q want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseFsyncMode(t *testing.T) {
	if m, err := ParseFsyncMode("interval"); err != nil || m != FsyncModeInterval {
		t.Fatalf("interval: %v %v", m, err)
	}
	if _, err := ParseFsyncMode("sometimes"); err == nil {
		t.Fatalf("expected error")
	}
}
