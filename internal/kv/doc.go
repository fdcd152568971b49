// Package kv adapts an ordered byte key-value engine into named tables of
// JSON records and ordered id lists.
//
// Every table is a flat string keyspace mapped onto an engine key prefix
// ("logtype/", "log/", ...). Values are framed with a one-byte kind header and
// a crc32c trailer so a torn or foreign value is detected on read. Direct reads
// of a missing key fail with ErrNotFound; batch reads degrade missing and
// corrupt entries to "not found" without failing the batch.
package kv
