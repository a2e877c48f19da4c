package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVarUint32_Encoding(t *testing.T) {
	tests := []struct {
		value uint32
		bytes []byte
	}{
		{0, []byte{0x00}},
		{127, []byte{0x7f}},
		{128, []byte{0x80, 0x01}},
		{300, []byte{0xac, 0x02}},
		{0xffffffff, []byte{0xff, 0xff, 0xff, 0xff, 0x0f}},
	}
	for _, tt := range tests {
		got := NewEncoder().VarUint32(tt.value).Bytes()
		assert.Equal(t, tt.bytes, got)
		assert.Equal(t, tt.value, NewDecoder(got).VarUint32())
	}
}

func TestPackAction_Layout(t *testing.T) {
	a := Action{
		Account:       N("eosio.token"),
		Name:          N("transfer"),
		Authorization: []PermissionLevel{{Actor: N("alice"), Permission: NameActive}},
		Data:          []byte{1, 2, 3},
	}
	packed := PackAction(a)

	// account(8) + name(8) + varuint(1) + auth(16) + varuint(1) + data(3)
	require.Len(t, packed, 37)
	assert.Equal(t, byte(1), packed[16])
	assert.Equal(t, byte(3), packed[33])

	got, err := UnpackAction(packed)
	require.NoError(t, err)
	assert.Equal(t, a, got)
}

func TestUnpackAction_Truncated(t *testing.T) {
	packed := PackAction(Action{Account: N("alice"), Name: N("hi"), Data: []byte{9, 9}})
	_, err := UnpackAction(packed[:len(packed)-1])
	assert.ErrorIs(t, err, ErrShortBuffer)
}

func TestUnpackAction_TrailingBytes(t *testing.T) {
	packed := append(PackAction(Action{Account: N("alice"), Name: N("hi")}), 0xff)
	_, err := UnpackAction(packed)
	assert.Error(t, err)
}

func TestPackTransaction_Header(t *testing.T) {
	tx := &Transaction{
		Expiration:     TimePointSec(1000),
		RefBlockNum:    7,
		RefBlockPrefix: 0xdeadbeef,
		Actions:        []Action{{Account: N("alice"), Name: N("run"), Data: []byte{}}},
	}
	packed := PackTransaction(tx)

	d := NewDecoder(packed)
	assert.Equal(t, uint32(1000), d.Uint32())
	assert.Equal(t, uint16(7), d.Uint16())
	assert.Equal(t, uint32(0xdeadbeef), d.Uint32())

	back, err := UnpackTransaction(packed)
	require.NoError(t, err)
	require.Len(t, back.Actions, 1)
	assert.Equal(t, N("run"), back.Actions[0].Name)
	assert.Empty(t, back.ContextFreeActions)
}

func TestTransactionID_Stable(t *testing.T) {
	tx := NewTransaction(Action{Account: N("alice"), Name: N("run")})
	id1 := TransactionID(tx)
	id2 := TransactionID(tx)
	assert.Equal(t, id1, id2)
	assert.Len(t, id1, 64)

	tx.RefBlockNum = 1
	assert.NotEqual(t, id1, TransactionID(tx))
}
