// Package logtype stores user-defined log types and their immutable schema
// revisions.
//
// The canonical record of a log type lives under its id and is edited in
// place. Revision snapshots live under "id:N" and are never mutated after
// they are written; the commit pipeline decides when to cut one. A log type
// whose canonical record is still at revision 0 has no "id:N" snapshot: the
// canonical record itself is revision 0 until a log has been committed
// against it and the record is edited, at which point an immutable "id:0"
// base copy is written first.
//
// Every read and write of a canonical record republishes it through a per-id
// Handle so observers see edits without polling the store.
package logtype
