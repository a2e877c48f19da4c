// Package chain provides the shared chain-level value types for chainsim.
//
// This package contains names, permission levels, actions, transactions and
// execution traces plus their binary packing. All other internal packages
// import chain; chain imports nothing internal.
//
// Key design constraints:
//   - Account, action, table and permission identifiers are Name (uint64)
//   - Binary packing is little-endian with varuint32 length prefixes
//   - All JSON tags use snake_case
//   - Ordering is logical (action ordinal, execution order), never wall-clock
package chain
