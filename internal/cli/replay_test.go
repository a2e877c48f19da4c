package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noContractYAML has the counter scenario's accounts but deploys nothing,
// so every recorded inc fails on replay.
const noContractYAML = `name: cli_counter
description: "counter account without its contract"
accounts: [alice, counter]
transactions:
  - actions:
      - account: counter
        name: inc
        authorization: [alice@active]
        data: ["name:alice"]
`

func TestReplay_Deterministic(t *testing.T) {
	db := recordCounter(t)
	path := writeFile(t, t.TempDir(), "counter.yaml", counterYAML)

	out, _, err := executeCommand(t, "replay", path, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Replayed 2 transaction(s) of scenario cli_counter")
	assert.Contains(t, out, "✓ Replay reproduced the trace log")
}

func TestReplay_JSON(t *testing.T) {
	db := recordCounter(t)
	path := writeFile(t, t.TempDir(), "counter.yaml", counterYAML)

	out, _, err := executeCommand(t, "replay", path, "--db", db, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string
		Data   ReplayResult
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Deterministic)
	assert.Equal(t, 2, resp.Data.Transactions)
	assert.Zero(t, resp.Data.Failed)
}

func TestReplay_Mismatch(t *testing.T) {
	db := recordCounter(t)
	path := writeFile(t, t.TempDir(), "nocontract.yaml", noContractYAML)

	out, _, err := executeCommand(t, "replay", path, "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Replay diverged")
	assert.Contains(t, out, "REPLAY_MISMATCH")
}

func TestReplay_RequiresDatabase(t *testing.T) {
	path := writeFile(t, t.TempDir(), "counter.yaml", counterYAML)

	_, _, err := executeCommand(t, "replay", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestReplay_EmptyLog(t *testing.T) {
	path := writeFile(t, t.TempDir(), "counter.yaml", counterYAML)
	db := filepath.Join(t.TempDir(), "empty.db")

	out, _, err := executeCommand(t, "replay", path, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Replayed 0 transaction(s)")
}
