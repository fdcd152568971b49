package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
)

var (
	// ErrNotFound is returned by direct reads of a missing key.
	ErrNotFound = errors.New("kv: not found")
	// ErrCorrupt is returned by direct reads of a value that fails its
	// checksum, has the wrong kind, or does not decode.
	ErrCorrupt = errors.New("kv: corrupt value")
)

// Table is one logical keyspace over an Engine.
type Table struct {
	eng    Engine
	name   string
	prefix []byte

	// guards read-modify-write of id lists
	mu sync.Mutex
}

// NewTable returns the table called name. Keys are stored under "name/".
func NewTable(eng Engine, name string) *Table {
	return &Table{eng: eng, name: name, prefix: []byte(name + "/")}
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

func (t *Table) key(k string) []byte {
	out := make([]byte, 0, len(t.prefix)+len(k))
	out = append(out, t.prefix...)
	return append(out, k...)
}

func (t *Table) read(key string, kind valueKind) ([]byte, error) {
	raw, ok, err := t.eng.Lookup(t.key(key))
	if err != nil {
		return nil, fmt.Errorf("kv %s get %q: %w", t.name, key, err)
	}
	if !ok {
		return nil, fmt.Errorf("kv %s get %q: %w", t.name, key, ErrNotFound)
	}
	k, payload, ok := decodeValue(raw)
	if !ok || k != kind {
		return nil, fmt.Errorf("kv %s get %q: %w", t.name, key, ErrCorrupt)
	}
	return payload, nil
}

// Get decodes the record under key into v.
func (t *Table) Get(key string, v any) error {
	payload, err := t.read(key, kindRecord)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("kv %s get %q: %w: %v", t.name, key, ErrCorrupt, err)
	}
	return nil
}

// Set encodes v as JSON and stores it under key.
func (t *Table) Set(key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("kv %s set %q: %w", t.name, key, err)
	}
	if err := t.eng.Set(t.key(key), encodeValue(kindRecord, payload)); err != nil {
		return fmt.Errorf("kv %s set %q: %w", t.name, key, err)
	}
	return nil
}

// Has reports whether any value is stored under key.
func (t *Table) Has(key string) (bool, error) {
	_, ok, err := t.eng.Lookup(t.key(key))
	if err != nil {
		return false, fmt.Errorf("kv %s has %q: %w", t.name, key, err)
	}
	return ok, nil
}

// Delete removes key. Deleting a missing key is not an error.
func (t *Table) Delete(key string) error {
	if err := t.eng.Delete(t.key(key)); err != nil {
		return fmt.Errorf("kv %s delete %q: %w", t.name, key, err)
	}
	return nil
}

// GetIDList returns the ordered id list under key, or an empty list when the
// key is absent.
func (t *Table) GetIDList(key string) ([]string, error) {
	payload, err := t.read(key, kindIDList)
	if errors.Is(err, ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(payload, &ids); err != nil {
		return nil, fmt.Errorf("kv %s list %q: %w: %v", t.name, key, ErrCorrupt, err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// SetIDList replaces the id list under key.
func (t *Table) SetIDList(key string, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	payload, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("kv %s list %q: %w", t.name, key, err)
	}
	if err := t.eng.Set(t.key(key), encodeValue(kindIDList, payload)); err != nil {
		return fmt.Errorf("kv %s list %q: %w", t.name, key, err)
	}
	return nil
}

// PrependID inserts id at the front of the list under key, removing any
// earlier occurrence. It returns the new list.
func (t *Table) PrependID(key, id string) ([]string, error) {
	return t.PrependIDLimit(key, id, 0)
}

// PrependIDLimit is PrependID keeping at most limit entries (0 = unlimited).
func (t *Table) PrependIDLimit(key, id string, limit int) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids, err := t.GetIDList(key)
	if err != nil {
		return nil, err
	}
	if len(ids) > 0 && ids[0] == id && (limit <= 0 || len(ids) <= limit) {
		return ids, nil
	}
	next := make([]string, 0, len(ids)+1)
	next = append(next, id)
	for _, x := range ids {
		if x != id {
			next = append(next, x)
		}
	}
	if limit > 0 && len(next) > limit {
		next = next[:limit]
	}
	if err := t.SetIDList(key, next); err != nil {
		return nil, err
	}
	return next, nil
}

// ContainsID reports whether id is in the list under key.
func (t *Table) ContainsID(key, id string) (bool, error) {
	ids, err := t.GetIDList(key)
	if err != nil {
		return false, err
	}
	return slices.Contains(ids, id), nil
}

// Keys returns every key in the table in key order.
func (t *Table) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	err := t.eng.Scan(ctx, t.prefix, func(k, _ []byte) error {
		keys = append(keys, string(k[len(t.prefix):]))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("kv %s scan: %w", t.name, err)
	}
	return keys, nil
}

// Clear deletes every key in the table in one batch.
func (t *Table) Clear(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	var muts []Mutation
	err := t.eng.Scan(ctx, t.prefix, func(k, _ []byte) error {
		muts = append(muts, Mutation{Key: k, Delete: true})
		return nil
	})
	if err != nil {
		return fmt.Errorf("kv %s clear: %w", t.name, err)
	}
	if err := t.eng.SetMany(ctx, muts); err != nil {
		return fmt.Errorf("kv %s clear: %w", t.name, err)
	}
	return nil
}

// Entry is one result of a batch read.
type Entry[T any] struct {
	Key   string
	Value T
	Found bool
}

// GetMultiple reads keys in order. Missing, corrupt, or undecodable entries
// come back with Found=false; only engine failures fail the batch.
func GetMultiple[T any](t *Table, keys []string) ([]Entry[T], error) {
	out := make([]Entry[T], len(keys))
	for i, k := range keys {
		out[i].Key = k
		raw, ok, err := t.eng.Lookup(t.key(k))
		if err != nil {
			return nil, fmt.Errorf("kv %s get %q: %w", t.name, k, err)
		}
		if !ok {
			continue
		}
		kind, payload, ok := decodeValue(raw)
		if !ok || kind != kindRecord {
			continue
		}
		var v T
		if err := json.Unmarshal(payload, &v); err != nil {
			continue
		}
		out[i].Value = v
		out[i].Found = true
	}
	return out, nil
}

// All reads every record in the table in key order. Id lists and entries that
// fail to decode are skipped.
func All[T any](ctx context.Context, t *Table) ([]Entry[T], error) {
	var out []Entry[T]
	err := t.eng.Scan(ctx, t.prefix, func(k, raw []byte) error {
		kind, payload, ok := decodeValue(raw)
		if !ok || kind != kindRecord {
			return nil
		}
		var v T
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil
		}
		out = append(out, Entry[T]{Key: string(k[len(t.prefix):]), Value: v, Found: true})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("kv %s scan: %w", t.name, err)
	}
	return out, nil
}
