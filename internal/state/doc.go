// Package state implements the chain database: an ordered key/value store
// with an undo log, tables scoped by a fixed-width key prefix, and the four
// secondary-index stores.
//
// ARCHITECTURE:
//
// Undo Log:
// Every mutation appends the record needed to invert it before touching the
// underlying maps. Snapshot returns the current log length; RevertTo replays
// the log back to front down to that mark and truncates it. The log is plain
// data (one struct per change kind with an invert method), never closures.
//
// Key Layout:
// A table prefix is owner‖scope‖name, 8 bytes each, big-endian.
// A row key is prefix‖primaryKey, also big-endian, so lexicographic byte
// order equals (owner, scope, name, primaryKey) numeric order and a range
// scan that leaves the prefix has left the table.
//
// CRITICAL PATTERNS:
//
// CRITICAL-1: Rollback Symmetry
// Row count and row sequence live on the Table and are restored by the same
// undo records that restore the rows. A table removed because its last row
// was deleted is re-registered, with the same id, when that delete is undone.
//
// CRITICAL-2: Mirrored Indexes
// Each secondary index keeps two B-trees (by primary key, by secondary key).
// Every mutation updates both or neither.
//
// CRITICAL-3: Invariant Violations Panic
// An inconsistency found while reverting means the engine itself is broken.
// It panics with *InvariantError and is never returned as an error.
//
// The store is single-writer and holds no locks. The dispatcher guarantees
// that only the running action touches it.
package state
