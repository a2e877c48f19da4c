// Package harness runs scenario files against a fresh blockchain.
//
// A scenario deploys contracts, applies transactions in order and asserts
// on the resulting traces, console output and contract tables.
//
// # Scenario Format
//
// Scenarios are YAML (.yaml, .yml) or CUE (.cue) files with the same
// fields:
//
//	name: token_transfer
//	description: "Transfer notifies both parties"
//	time_ms: 1000
//	accounts: [alice, bob]
//	contracts:
//	  - name: eosio.token
//	    builtin: token
//	  - name: mycontract
//	    wasm: build/mycontract.wasm
//	    sends_inline: true
//	transactions:
//	  - actions:
//	      - account: eosio.token
//	        name: create
//	        authorization: [eosio.token@active]
//	        data: ["name:alice", "asset:1000.0000 TOK"]
//	  - advance_ms: 500
//	    actions:
//	      - account: eosio.token
//	        name: transfer
//	        authorization: [alice@active]
//	        data_hex: "0000000000855c34..."
//	    expect_error: "overdrawn balance"
//	assertions:
//	  - type: trace_order
//	    actions: [eosio.token::transfer]
//	  - type: row_exists
//	    code: eosio.token
//	    scope: alice
//	    table: accounts
//	    primary_key: "symbol_code:TOK"
//
// Wasm paths are resolved relative to the scenario file.
//
// # Action Data
//
// data is a list of typed fields packed in order:
//
//   - name:alice
//   - asset:1.0000 TOK
//   - symbol:4,TOK
//   - string:hello
//   - u64:5
//   - i64:-5
//
// data_hex gives the packed payload directly. An action has at most one of
// the two.
//
// # Assertion Types
//
//   - trace_order: the listed "contract::action" labels appear in the
//     trace in this order, other contexts may run in between
//   - console_equals: the console of all transactions, concatenated
//   - row_exists / row_absent: a row of code/scope/table under
//     primary_key, optionally with value_hex
//   - table_size: the number of rows of code/scope/table
//
// # Deterministic Testing
//
// Every run uses:
//   - Transaction ids derived from the scenario name (testutil.ScenarioIDGenerator)
//   - A chain clock starting at time_ms (testutil.ChainClock)
//   - An in-memory SQLite trace log, unless WithTraceLog supplies one
//
// so the same scenario always produces identical traces for golden file
// comparison.
package harness
