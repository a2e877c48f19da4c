package harness

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/chainsim/internal/chain"
)

func traceOf(labels ...string) []chain.ExecutionTrace {
	out := make([]chain.ExecutionTrace, len(labels))
	for i, l := range labels {
		contract, action, _ := strings.Cut(l, "::")
		out[i] = chain.ExecutionTrace{
			Contract:       chain.N(contract),
			Action:         chain.N(action),
			ExecutionOrder: i,
		}
	}
	return out
}

func TestAssertTraceOrder(t *testing.T) {
	trace := traceOf("a::x", "b::y", "a::x", "c::z")

	tests := []struct {
		name    string
		actions []string
		ok      bool
	}{
		{"exact", []string{"a::x", "b::y", "a::x", "c::z"}, true},
		{"gaps allowed", []string{"a::x", "c::z"}, true},
		{"repeated label", []string{"a::x", "a::x"}, true},
		{"wrong order", []string{"c::z", "a::x"}, false},
		{"missing", []string{"d::w"}, false},
		{"too many repeats", []string{"a::x", "a::x", "a::x"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := assertTraceOrder(trace, Assertion{Type: AssertTraceOrder, Actions: tt.actions})
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestAssertionError_Format(t *testing.T) {
	err := assertTraceOrder(traceOf("a::x", "b::y"), Assertion{Actions: []string{"b::y", "a::x"}})
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: trace_order")
	assert.Contains(t, msg, "Expected: actions in order: [b::y a::x]")
	assert.Contains(t, msg, "missing a::x")
	assert.Contains(t, msg, "[0] a::x")
	assert.Contains(t, msg, "[1] b::y")
}

func TestAssertConsoleEquals(t *testing.T) {
	r := NewResult()
	r.Console = " 1 "

	assert.NoError(t, assertConsoleEquals(r, Assertion{Console: strPtr(" 1 ")}))
	err := assertConsoleEquals(r, Assertion{Console: strPtr("1")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `Actual: " 1 "`)
}

func TestEvaluateAssertions_TableAssertionsNeedChain(t *testing.T) {
	errs := EvaluateAssertions(NewResult(), []Assertion{
		{Type: AssertTableSize, Code: "a", Scope: "a", Table: "t", Size: intPtr(0)},
	}, nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "requires a blockchain")
}

func TestEvaluateAssertions_UnknownType(t *testing.T) {
	errs := EvaluateAssertions(NewResult(), []Assertion{{Type: "trace_count"}}, &AssertionContext{})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], `unknown assertion type "trace_count"`)
}

func TestRowAssertions(t *testing.T) {
	s := counterScenario()
	// alice's counter holds 1 as a little-endian u64.
	s.Assertions = []Assertion{
		{Type: AssertRowExists, Code: "counter", Scope: "counter", Table: "counts", PrimaryKey: "name:alice", ValueHex: "0100000000000000"},
		{Type: AssertRowAbsent, Code: "counter", Scope: "counter", Table: "counts", PrimaryKey: "name:bob"},
		{Type: AssertRowAbsent, Code: "counter", Scope: "nobody", Table: "counts", PrimaryKey: "name:alice"},
		{Type: AssertTableSize, Code: "counter", Scope: "nobody", Table: "counts", Size: intPtr(0)},
	}
	result := mustRun(t, s)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	s.Assertions = []Assertion{
		{Type: AssertRowExists, Code: "counter", Scope: "counter", Table: "counts", PrimaryKey: "name:alice", ValueHex: "0200000000000000"},
		{Type: AssertRowExists, Code: "counter", Scope: "counter", Table: "counts", PrimaryKey: "name:bob"},
	}
	result = mustRun(t, s)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "Actual: 0100000000000000")
	assert.Contains(t, result.Errors[1], "row not found")
}
