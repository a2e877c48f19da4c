package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/chainsim/internal/chain"
)

// TraceSnapshot captures the complete trace of a scenario run.
// All fields use canonical JSON serialization for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string                 `json:"scenario_name"`
	Transactions []TransactionResult    `json:"transactions"`
	Trace        []chain.ExecutionTrace `json:"trace"`
}

// toCanonicalMap converts a TraceSnapshot to a map[string]any for canonical JSON serialization.
// This is required because chain.MarshalCanonical only handles maps, slices and primitives.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	txs := make([]any, len(s.Transactions))
	for i, tx := range s.Transactions {
		m := map[string]any{
			"id":      tx.ID,
			"status":  tx.Status,
			"console": tx.Console,
		}
		if tx.Error != "" {
			m["error"] = tx.Error
		}
		txs[i] = m
	}

	traces := make([]any, len(s.Trace))
	for i, t := range s.Trace {
		traces[i] = t.CanonicalMap()
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"transactions":  txs,
		"trace":         traces,
	}
}

// Snapshot renders a result as canonical JSON, the format of golden files.
func Snapshot(name string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: name,
		Transactions: result.Transactions,
		Trace:        result.Trace,
	}
	return chain.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can check Pass and Errors as well.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares the given result's trace against a golden file.
// This is useful when you've already run a scenario and want to compare
// the result against a golden file without re-running.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)

	return nil
}
