package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTest_AllPass(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "counter.yaml", counterYAML)

	out, _, err := executeCommand(t, "test", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ cli_counter")
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
}

func TestTest_ReportsFailures(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "counter.yaml", counterYAML)
	writeFile(t, dir, "failing.yaml", failingYAML)

	out, _, err := executeCommand(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ cli_failing")
	assert.Contains(t, out, "Test Summary: 1 passed, 1 failed, 2 total")
}

func TestTest_Filter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "counter.yaml", counterYAML)
	writeFile(t, dir, "failing.yaml", failingYAML)

	out, _, err := executeCommand(t, "test", dir, "--filter", "count*")
	require.NoError(t, err)
	assert.Contains(t, out, "1 total")
	assert.NotContains(t, out, "cli_failing")
}

func TestTest_InvalidFilter(t *testing.T) {
	_, _, err := executeCommand(t, "test", t.TempDir(), "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTest_MissingDirectory(t *testing.T) {
	_, _, err := executeCommand(t, "test", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTest_EmptyDirectory(t *testing.T) {
	out, _, err := executeCommand(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTest_GoldenFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "counter.yaml", counterYAML)
	golden := filepath.Join(dir, "golden", "cli_counter.golden")

	_, _, err := executeCommand(t, "test", dir, "--update")
	require.NoError(t, err)
	require.FileExists(t, golden)

	_, _, err = executeCommand(t, "test", dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(golden, []byte("{}"), 0644))
	out, _, err := executeCommand(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTest_GoldenDirFlag(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "counter.yaml", counterYAML)
	goldenDir := filepath.Join(t.TempDir(), "snapshots")

	_, _, err := executeCommand(t, "test", dir, "--update", "--golden-dir", goldenDir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(goldenDir, "cli_counter.golden"))
	assert.NoDirExists(t, filepath.Join(dir, "golden"))
}

func TestTest_JSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "failing.yaml", failingYAML)

	out, _, err := executeCommand(t, "test", dir, "--format", "json")
	require.Error(t, err)

	var resp struct {
		Status string
		Data   TestResult
		Error  *CLIError
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, 1, resp.Data.Failed)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.False(t, resp.Data.Scenarios[0].Pass)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeTestFailed, resp.Error.Code)
}

func TestFilterScenarios(t *testing.T) {
	paths := []string{"s/a_one.yaml", "s/b_two.cue", "s/a_three.yml"}

	got, err := filterScenarios(paths, "a_*")
	require.NoError(t, err)
	assert.Equal(t, []string{"s/a_one.yaml", "s/a_three.yml"}, got)

	got, err = filterScenarios(paths, "")
	require.NoError(t, err)
	assert.Equal(t, paths, got)
}
