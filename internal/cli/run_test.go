package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/chainsim/internal/harness"
	"github.com/roach88/chainsim/internal/store"
)

func TestRun_TextPass(t *testing.T) {
	path := writeFile(t, t.TempDir(), "counter.yaml", counterYAML)

	out, _, err := executeCommand(t, "run", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Scenario: cli_counter")
	assert.Contains(t, out, "cli_counter-0001")
	assert.Contains(t, out, `"alice=2"`)
	assert.Contains(t, out, "✓ PASS")
}

func TestRun_VerboseListsTraces(t *testing.T) {
	path := writeFile(t, t.TempDir(), "counter.yaml", counterYAML)

	_, errOut, err := executeCommand(t, "run", path, "-v")
	require.NoError(t, err)
	assert.Contains(t, errOut, "2 traces")
	assert.Contains(t, errOut, "counter::inc")
}

func TestRun_JSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "counter.yaml", counterYAML)

	out, _, err := executeCommand(t, "run", path, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string
		Data   struct {
			Pass         bool
			Console      string
			Transactions []harness.TransactionResult
		}
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Pass)
	assert.Equal(t, "alice=1alice=2", resp.Data.Console)
	require.Len(t, resp.Data.Transactions, 2)
	assert.Equal(t, "executed", resp.Data.Transactions[1].Status)
}

func TestRun_FailedExpectation(t *testing.T) {
	path := writeFile(t, t.TempDir(), "failing.yaml", failingYAML)

	out, _, err := executeCommand(t, "run", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ FAIL")
	assert.Contains(t, out, `console: expected " 1 ", got " 1  2 "`)
}

func TestRun_MissingScenario(t *testing.T) {
	_, _, err := executeCommand(t, "run", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load scenario")
}

func TestRun_RecordsTraceLog(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "counter.yaml", counterYAML)
	db := filepath.Join(dir, "chain.db")

	_, _, err := executeCommand(t, "run", path, "--db", db)
	require.NoError(t, err)

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	txs, err := st.ListTransactions(context.Background())
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "cli_counter-0001", txs[0].ID)
	assert.Equal(t, "alice=2", txs[1].Console)
}

func TestRun_DatabaseFromEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "counter.yaml", counterYAML)
	db := filepath.Join(dir, "env.db")
	t.Setenv("CHAINSIM_DB", db)

	_, _, err := executeCommand(t, "run", path)
	require.NoError(t, err)
	assert.FileExists(t, db)
}
