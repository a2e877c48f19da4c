package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestName_Encode(t *testing.T) {
	out, _, err := executeCommand(t, "name", "encode", "eosio")
	require.NoError(t, err)
	assert.Equal(t, "eosio\t6138663577826885632\t0x5530ea0000000000\n", out)
}

func TestName_Decode(t *testing.T) {
	for _, in := range []string{"6138663577826885632", "0x5530ea0000000000"} {
		t.Run(in, func(t *testing.T) {
			out, _, err := executeCommand(t, "name", "decode", in, "--format", "json")
			require.NoError(t, err)

			var resp struct {
				Data NameResult
			}
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			assert.Equal(t, "eosio", resp.Data.Name)
			assert.Equal(t, uint64(6138663577826885632), resp.Data.Value)
		})
	}
}

func TestName_EncodeInvalid(t *testing.T) {
	for _, in := range []string{"", "UPPER", "thirteenchars", "a@b"} {
		t.Run(in, func(t *testing.T) {
			_, _, err := executeCommand(t, "name", "encode", in)
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))
		})
	}
}

func TestName_DecodeInvalid(t *testing.T) {
	_, _, err := executeCommand(t, "name", "decode", "alice")
	require.Error(t, err)
}
