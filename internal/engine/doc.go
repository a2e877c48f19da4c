// Package engine implements the chainsim blockchain: accounts, time, the
// state store and the action dispatcher that runs transactions.
//
// ARCHITECTURE:
//
// Single-Threaded Dispatch:
// A transaction runs start to finish on the calling goroutine. This ensures:
// - Notifications and inline actions execute in one well-defined order
// - Replaying a transaction reproduces the same traces
// - The state store needs no locks
//
// Transaction Flow:
// 1. Every contract's module instance is reset and the console cleared
// 2. The store snapshot mark is taken
// 3. Each top-level action becomes the sole entry of a fresh local queue
// 4. The drain loop runs queued notifications first, then the local front
// 5. Inline actions of a notification go to the front of the local queue,
//    inline actions of a regular action to the back
// 6. On failure the store reverts to the mark; on success the undo log is
//    committed
// 7. The transaction and its traces are written to the trace log, if any
//
// The only concurrency is step 1: module instances reset in parallel and
// all of them finish before any action runs.
//
// CRITICAL PATTERNS:
//
// Logical Ordering:
// Transactions are numbered by a monotonic Clock. Action ordinals and
// execution orders are counters local to one transaction. Wall time is never
// used for ordering; blockchain time only changes through SetTime, AddTime
// and SubtractTime.
//
// Fatal Invariants:
// *state.InvariantError and *itercache.InvariantError panics are not
// recovered here. They mean the engine itself is broken.
package engine
