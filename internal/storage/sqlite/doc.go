// Package sqlitestore is an alternative storage engine for logbook's key-value
// adapter, backed by a single SQLite file through the pure-Go modernc driver.
// It exposes the same method set as pebblestore so either can sit behind
// kv.Engine.
package sqlitestore
