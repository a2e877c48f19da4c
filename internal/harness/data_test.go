package harness

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/chainsim/internal/chain"
	"github.com/roach88/chainsim/internal/contracts"
	"github.com/roach88/chainsim/internal/native"
)

func TestEncodeData_MatchesContractEncoders(t *testing.T) {
	qty, err := native.ParseAsset("1.0000 TOK")
	require.NoError(t, err)

	got, err := EncodeData([]string{"name:alice", "name:bob", "asset:1.0000 TOK", "string:memo"})
	require.NoError(t, err)
	assert.Equal(t, contracts.TransferData(chain.N("alice"), chain.N("bob"), qty, "memo"), got)
}

func TestEncodeData_Integers(t *testing.T) {
	got, err := EncodeData([]string{"u64:5", "i64:-1"})
	require.NoError(t, err)
	assert.Equal(t, "0500000000000000ffffffffffffffff", hex.EncodeToString(got))
}

func TestEncodeData_Symbol(t *testing.T) {
	got, err := EncodeData([]string{"symbol:4,TOK"})
	require.NoError(t, err)
	assert.Equal(t, "04544f4b00000000", hex.EncodeToString(got))
}

func TestEncodeData_Empty(t *testing.T) {
	got, err := EncodeData(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEncodeData_Errors(t *testing.T) {
	for _, f := range []string{"alice", "name:ALICE", "asset:1 tok", "u64:-1", "i64:x", "symbol:TOK", "bool:true"} {
		t.Run(f, func(t *testing.T) {
			_, err := EncodeData([]string{f})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "data[0]")
		})
	}
}

func TestParseKey(t *testing.T) {
	tests := []struct {
		in   string
		want uint64
	}{
		{"42", 42},
		{"u64:7", 7},
		{"name:alice", uint64(chain.N("alice"))},
		{"symbol_code:TOK", 0x4b4f54},
	}
	for _, tt := range tests {
		got, err := ParseKey(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"", "x", "name:UPPER", "symbol_code:tok", "blob:1"} {
		_, err := ParseKey(bad)
		assert.Error(t, err, bad)
	}
}

func TestBuildAction(t *testing.T) {
	a, err := buildAction(ActionStep{
		Account:       "eosio.token",
		Name:          "transfer",
		Authorization: []string{"alice@active", "bob"},
		DataHex:       "dead",
	})
	require.NoError(t, err)

	assert.Equal(t, chain.N("eosio.token"), a.Account)
	assert.Equal(t, chain.N("transfer"), a.Name)
	assert.Equal(t, []chain.PermissionLevel{
		{Actor: chain.N("alice"), Permission: chain.NameActive},
		{Actor: chain.N("bob"), Permission: chain.NameActive},
	}, a.Authorization)
	assert.Equal(t, []byte{0xde, 0xad}, a.Data)
}
