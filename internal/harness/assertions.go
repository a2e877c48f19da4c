package harness

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/roach88/chainsim/internal/chain"
	"github.com/roach88/chainsim/internal/engine"
	"github.com/roach88/chainsim/internal/state"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string                 // Assertion type for categorization
	Expected string                 // Human-readable expected outcome
	Actual   string                 // Human-readable actual outcome
	Trace    []chain.ExecutionTrace // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, t := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s\n", t.ExecutionOrder, t.Label())
		}
	}
	return buf.String()
}

// assertTraceOrder checks that the labels appear in the given order.
// Actions don't need to be consecutive (intervening contexts are allowed),
// and a label may be listed more than once.
func assertTraceOrder(trace []chain.ExecutionTrace, a Assertion) error {
	next := 0
	for _, t := range trace {
		if next < len(a.Actions) && t.Label() == a.Actions[next] {
			next++
		}
	}
	if next == len(a.Actions) {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceOrder,
		Expected: fmt.Sprintf("actions in order: %v", a.Actions),
		Actual:   fmt.Sprintf("matched %d of %d, missing %s after the previous match", next, len(a.Actions), a.Actions[next]),
		Trace:    trace,
	}
}

func assertConsoleEquals(result *Result, a Assertion) error {
	if result.Console == *a.Console {
		return nil
	}
	return &AssertionError{
		Type:     AssertConsoleEquals,
		Expected: fmt.Sprintf("%q", *a.Console),
		Actual:   fmt.Sprintf("%q", result.Console),
	}
}

// tableRef resolves the assertion's code, scope and table names.
func tableRef(a Assertion) (code, scope, table chain.Name, err error) {
	if code, err = chain.ParseName(a.Code); err != nil {
		return
	}
	if scope, err = chain.ParseName(a.Scope); err != nil {
		return
	}
	table, err = chain.ParseName(a.Table)
	return
}

func describeRow(a Assertion) string {
	return fmt.Sprintf("%s/%s/%s[%s]", a.Code, a.Scope, a.Table, a.PrimaryKey)
}

func findRow(st *state.Store, a Assertion) (*state.KeyValueObject, error) {
	code, scope, table, err := tableRef(a)
	if err != nil {
		return nil, err
	}
	pk, err := ParseKey(a.PrimaryKey)
	if err != nil {
		return nil, err
	}
	tab := st.FindTable(uint64(code), uint64(scope), uint64(table))
	if tab == nil {
		return nil, nil
	}
	return tab.Get(pk), nil
}

func assertRowExists(st *state.Store, a Assertion) error {
	row, err := findRow(st, a)
	if err != nil {
		return fmt.Errorf("row_exists: %w", err)
	}
	if row == nil {
		return &AssertionError{
			Type:     AssertRowExists,
			Expected: "row " + describeRow(a),
			Actual:   "row not found",
		}
	}
	if a.ValueHex == "" {
		return nil
	}
	want, err := hex.DecodeString(a.ValueHex)
	if err != nil {
		return fmt.Errorf("row_exists: value_hex: %w", err)
	}
	if !bytes.Equal(want, row.Value) {
		return &AssertionError{
			Type:     AssertRowExists,
			Expected: fmt.Sprintf("row %s = %s", describeRow(a), a.ValueHex),
			Actual:   hex.EncodeToString(row.Value),
		}
	}
	return nil
}

func assertRowAbsent(st *state.Store, a Assertion) error {
	row, err := findRow(st, a)
	if err != nil {
		return fmt.Errorf("row_absent: %w", err)
	}
	if row != nil {
		return &AssertionError{
			Type:     AssertRowAbsent,
			Expected: "no row " + describeRow(a),
			Actual:   "row found: " + hex.EncodeToString(row.Value),
		}
	}
	return nil
}

func assertTableSize(st *state.Store, a Assertion) error {
	code, scope, table, err := tableRef(a)
	if err != nil {
		return fmt.Errorf("table_size: %w", err)
	}
	size := 0
	if tab := st.FindTable(uint64(code), uint64(scope), uint64(table)); tab != nil {
		size = int(tab.Size())
	}
	if size != *a.Size {
		return &AssertionError{
			Type:     AssertTableSize,
			Expected: fmt.Sprintf("%d rows in %s/%s/%s", *a.Size, a.Code, a.Scope, a.Table),
			Actual:   fmt.Sprintf("%d rows", size),
		}
	}
	return nil
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Chain *engine.Blockchain
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides the blockchain for table assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, a := range assertions {
		var err error

		switch a.Type {
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertConsoleEquals:
			err = assertConsoleEquals(result, a)
		case AssertRowExists, AssertRowAbsent, AssertTableSize:
			if actx == nil || actx.Chain == nil {
				err = fmt.Errorf("assertion[%d]: %s requires a blockchain", i, a.Type)
				break
			}
			st := actx.Chain.Store()
			switch a.Type {
			case AssertRowExists:
				err = assertRowExists(st, a)
			case AssertRowAbsent:
				err = assertRowAbsent(st, a)
			default:
				err = assertTableSize(st, a)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
