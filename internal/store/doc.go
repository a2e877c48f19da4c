// Package store provides SQLite-backed durable storage for transaction
// traces.
//
// The store is an append-only log with:
//   - Transactions: one record per applied transaction, executed or failed,
//     with the packed transaction and the full console
//   - Action traces: one record per executed context of a transaction, in
//     execution order
//
// # Critical Patterns
//
// Logical ordering:
//   - Transactions are ordered by seq, traces by execution_order
//   - Chain time is stored for display only and never used for ordering
//
// Idempotent writes:
//   - Both tables use ON CONFLICT DO NOTHING
//   - UNIQUE(transaction_id, execution_order) makes re-writing a trace a
//     no-op
//
// Deterministic reads:
//   - Every query has an ORDER BY
//   - Reads return empty slices, never nil
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
