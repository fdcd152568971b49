// Package journal commits logs against log types and keeps every committed
// log bound to the schema revision it was written against.
//
// A commit compares the fingerprint recorded on the most recent log of the
// same type with the fingerprint of the type's current canonical record.
// Only when they differ is a new immutable revision cut, so a run of commits
// against an unchanged schema shares one revision.
package journal
