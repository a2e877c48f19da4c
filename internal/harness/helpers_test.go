package harness

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

// writeScenario writes content to name in a fresh temp dir and returns the
// path.
func writeScenario(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// counterScenario is a valid in-memory scenario tests can tweak.
func counterScenario() *Scenario {
	return &Scenario{
		Name:        "counter",
		Description: "counter scenario",
		Accounts:    []string{"alice"},
		Contracts:   []ContractSpec{{Name: "counter", Builtin: "counter"}},
		Transactions: []TransactionStep{{
			Actions: []ActionStep{{
				Account:       "counter",
				Name:          "inc",
				Authorization: []string{"alice@active"},
				Data:          []string{"name:alice"},
			}},
		}},
	}
}

func mustRun(t *testing.T, s *Scenario) *Result {
	t.Helper()
	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	return result
}
