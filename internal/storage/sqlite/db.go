package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// KV is a key/value pair for SetMany.
type KV struct {
	Key    []byte
	Value  []byte
	Delete bool
}

// Options configures the SQLite engine.
type Options struct {
	// Path is the database file. Parent directories are created.
	Path string
	// Synchronous maps to PRAGMA synchronous (FULL, NORMAL, OFF). Defaults to FULL.
	Synchronous string
}

// DB is a key/value table in a SQLite database.
type DB struct {
	sql *sql.DB
}

// Open creates or opens the database and ensures the kv table exists.
func Open(opts Options) (*DB, error) {
	if opts.Path == "" {
		return nil, errors.New("sqlite: Options.Path is required")
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return nil, err
	}
	sdb, err := sql.Open("sqlite", opts.Path)
	if err != nil {
		return nil, err
	}
	// one connection keeps read-after-write trivially consistent
	sdb.SetMaxOpenConns(1)

	sync := opts.Synchronous
	if sync == "" {
		sync = "FULL"
	}
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		fmt.Sprintf(`PRAGMA synchronous=%s;`, sync),
		`CREATE TABLE IF NOT EXISTS kv (
			k BLOB PRIMARY KEY,
			v BLOB NOT NULL
		) WITHOUT ROWID;`,
	}
	for _, s := range stmts {
		if _, err := sdb.Exec(s); err != nil {
			_ = sdb.Close()
			return nil, fmt.Errorf("sqlite init: %w", err)
		}
	}
	return &DB{sql: sdb}, nil
}

// Close closes the database.
func (db *DB) Close() error {
	if db == nil || db.sql == nil {
		return nil
	}
	err := db.sql.Close()
	db.sql = nil
	return err
}

// CheckHealth pings the database.
func (db *DB) CheckHealth(ctx context.Context) error {
	if db == nil || db.sql == nil {
		return errors.New("sqlite: db not open")
	}
	return db.sql.PingContext(ctx)
}

// Lookup returns the value for key and whether it exists.
func (db *DB) Lookup(key []byte) ([]byte, bool, error) {
	var v []byte
	err := db.sql.QueryRow(`SELECT v FROM kv WHERE k = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// Set upserts key.
func (db *DB) Set(key, value []byte) error {
	_, err := db.sql.Exec(`INSERT INTO kv (k, v) VALUES (?, ?) ON CONFLICT(k) DO UPDATE SET v = excluded.v`, key, value)
	return err
}

// Delete removes key. Missing keys are not an error.
func (db *DB) Delete(key []byte) error {
	_, err := db.sql.Exec(`DELETE FROM kv WHERE k = ?`, key)
	return err
}

// SetMany applies all pairs in one transaction.
func (db *DB) SetMany(ctx context.Context, kvs []KV) error {
	if len(kvs) == 0 {
		return nil
	}
	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, kv := range kvs {
		if kv.Delete {
			_, err = tx.ExecContext(ctx, `DELETE FROM kv WHERE k = ?`, kv.Key)
		} else {
			_, err = tx.ExecContext(ctx, `INSERT INTO kv (k, v) VALUES (?, ?) ON CONFLICT(k) DO UPDATE SET v = excluded.v`, kv.Key, kv.Value)
		}
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Scan visits every key with prefix in key order.
func (db *DB) Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) error) error {
	var (
		rows *sql.Rows
		err  error
	)
	if end := prefixEnd(prefix); end != nil {
		rows, err = db.sql.QueryContext(ctx, `SELECT k, v FROM kv WHERE k >= ? AND k < ? ORDER BY k`, prefix, end)
	} else {
		rows, err = db.sql.QueryContext(ctx, `SELECT k, v FROM kv WHERE k >= ? ORDER BY k`, prefix)
	}
	if err != nil {
		return err
	}
	// Buffer before calling fn so callbacks may issue their own queries on
	// the single connection.
	type pair struct{ k, v []byte }
	var pairs []pair
	for rows.Next() {
		var p pair
		if err := rows.Scan(&p.k, &p.v); err != nil {
			_ = rows.Close()
			return err
		}
		pairs = append(pairs, p)
	}
	if err := rows.Close(); err != nil {
		return err
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for _, p := range pairs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(p.k, p.v); err != nil {
			return err
		}
	}
	return nil
}

func prefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
