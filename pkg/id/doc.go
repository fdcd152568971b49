// Package id provides the 128-bit, lexicographically sortable identifiers used
// for log types, placeholders and logs.
//
// # Format
//
// The ID is 16 bytes big-endian: [8 bytes ms_timestamp][8 bytes sequence].
// Byte-wise comparison preserves creation order, and IDs generated within
// the same millisecond remain strictly increasing by sequence.
//
// The string form is 26 characters of lowercase Crockford base32. It sorts
// the same way as the bytes and never contains ':' or '_', which the storage
// keyspace reserves for revision and index suffixes.
//
// # Monotonicity
//
// The Generator ensures per-process monotonicity:
//   - If the system clock regresses, it pins to the last seen millisecond and
//     increments the sequence to avoid going backwards.
//   - If the sequence would overflow within a millisecond, it waits for the
//     next millisecond before emitting the next ID.
//
// Usage
//
//	s := id.New()            // string form from the process-wide generator
//	g := id.NewGenerator()
//	raw := g.Next()
//	back, _ := id.Parse(raw.String())
package id
