// Package pebblestore is the default storage engine behind logbook's key-value
// adapter: a thin wrapper around Pebble with fsync policy, atomic batches,
// prefix scans and minimal metrics hooks.
//
// Usage:
//
//	db, err := pebblestore.Open(pebblestore.Options{
//	    DataDir: "./data/store",
//	    Fsync:   pebblestore.FsyncModeAlways,
//	})
//	if err != nil { /* handle */ }
//	defer db.Close()
//
//	_ = db.Set([]byte("logtype/all"), payload)
//	v, ok, _ := db.Lookup([]byte("logtype/all"))
//
//	// Atomic multi-key writes
//	_ = db.SetMany(ctx, []pebblestore.KV{{Key: k1, Value: v1}, {Key: k2, Delete: true}})
//
//	// Bulk reads
//	_ = db.Scan(ctx, []byte("log/"), func(k, v []byte) error { return nil })
package pebblestore
