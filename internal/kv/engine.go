package kv

import (
	"context"

	pebblestore "github.com/rzbill/logbook/internal/storage/pebble"
	sqlitestore "github.com/rzbill/logbook/internal/storage/sqlite"
)

// Mutation is one write in an atomic SetMany.
type Mutation struct {
	Key    []byte
	Value  []byte
	Delete bool
}

// Engine is the ordered byte store underneath every Table. Writes must be
// visible to subsequent reads in the same process once they return.
type Engine interface {
	Lookup(key []byte) ([]byte, bool, error)
	Set(key, value []byte) error
	Delete(key []byte) error
	SetMany(ctx context.Context, muts []Mutation) error
	Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) error) error
	CheckHealth(ctx context.Context) error
	Close() error
}

// Pebble wraps a Pebble database as an Engine.
func Pebble(db *pebblestore.DB) Engine { return pebbleEngine{db} }

type pebbleEngine struct{ *pebblestore.DB }

func (e pebbleEngine) SetMany(ctx context.Context, muts []Mutation) error {
	kvs := make([]pebblestore.KV, len(muts))
	for i, m := range muts {
		kvs[i] = pebblestore.KV{Key: m.Key, Value: m.Value, Delete: m.Delete}
	}
	return e.DB.SetMany(ctx, kvs)
}

// SQLite wraps a SQLite database as an Engine.
func SQLite(db *sqlitestore.DB) Engine { return sqliteEngine{db} }

type sqliteEngine struct{ *sqlitestore.DB }

func (e sqliteEngine) SetMany(ctx context.Context, muts []Mutation) error {
	kvs := make([]sqlitestore.KV, len(muts))
	for i, m := range muts {
		kvs[i] = sqlitestore.KV{Key: m.Key, Value: m.Value, Delete: m.Delete}
	}
	return e.DB.SetMany(ctx, kvs)
}
