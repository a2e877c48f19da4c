package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const counterYAML = `name: cli_counter
description: "alice increments her counter twice"
accounts: [alice]
contracts:
  - name: counter
    builtin: counter
transactions:
  - actions:
      - account: counter
        name: inc
        authorization: [alice@active]
        data: ["name:alice"]
    expect_console: "alice=1"
  - actions:
      - account: counter
        name: inc
        authorization: [alice@active]
        data: ["name:alice"]
assertions:
  - type: trace_order
    actions: [counter::inc, counter::inc]
  - type: table_size
    code: counter
    scope: counter
    table: counts
    size: 1
`

const failingYAML = `name: cli_failing
description: "expects a console the contract never prints"
accounts: [alice]
contracts:
  - name: counter
    builtin: counter
transactions:
  - actions:
      - account: counter
        name: count
        authorization: [alice@active]
        data: ["u64:2"]
    expect_console: " 1 "
`

// executeCommand runs the root command with args and returns what it wrote
// to stdout and stderr.
func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
