package state

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	codeAlice = uint64(3773036822876127232)
	codeBob   = uint64(4399453885987553280)
	tblRows   = uint64(0x1000)
	tblOther  = uint64(0x2000)
)

func row(value string) *KeyValueObject {
	return &KeyValueObject{Payer: codeAlice, Value: []byte(value)}
}

// dump renders every observable piece of store state in a stable order.
func dump(s *Store) string {
	var b strings.Builder
	for _, t := range s.Tables() {
		fmt.Fprintf(&b, "table id=%d code=%d scope=%d name=%d size=%d seq=%d\n",
			t.ID(), t.Code(), t.Scope(), t.Name(), t.Size(), t.seq)
		for _, r := range t.Rows() {
			fmt.Fprintf(&b, "  row id=%d pk=%d payer=%d value=%q\n", r.ID, r.PrimaryKey, r.Payer, r.Value)
		}
		for _, e := range s.Idx64.ByPrimary(t.ID()) {
			fmt.Fprintf(&b, "  idx64 pk=%d sk=%d\n", e.PrimaryKey, e.SecondaryKey)
		}
	}
	fmt.Fprintf(&b, "rows=%d idx64=%d seq=%d\n", s.Len(), s.Idx64.Len(), s.seq)
	return b.String()
}

func TestStore_RawSetGetDelete(t *testing.T) {
	s := NewStore()

	s.Set([]byte("b"), row("1"))
	s.Set([]byte("a"), row("0"))
	assert.True(t, s.Has([]byte("a")))
	assert.Equal(t, []byte("1"), s.Get([]byte("b")).Value)

	k, r, ok := s.Next([]byte("a"))
	require.True(t, ok)
	assert.Equal(t, []byte("b"), k)
	assert.Equal(t, []byte("1"), r.Value)

	_, _, ok = s.Prev([]byte("a"))
	assert.False(t, ok)

	require.NoError(t, s.Delete([]byte("a")))
	assert.ErrorIs(t, s.Delete([]byte("a")), ErrNotFound)
}

func TestStore_CreatePrefixUniqueness(t *testing.T) {
	s := NewStore()
	_, err := s.CreateTable(codeAlice, codeAlice, tblRows, codeAlice)
	require.NoError(t, err)

	_, err = s.CreateTable(codeAlice, codeAlice, tblRows, codeAlice)
	assert.ErrorIs(t, err, ErrPrefixExists)
}

func TestStore_TableIDsAreSequential(t *testing.T) {
	s := NewStore()
	t1 := s.FindOrCreateTable(codeAlice, codeAlice, tblRows, codeAlice)
	t2 := s.FindOrCreateTable(codeAlice, codeBob, tblRows, codeAlice)
	assert.Equal(t, uint32(0), t1.ID())
	assert.Equal(t, uint32(1), t2.ID())
	assert.Same(t, t1, s.FindOrCreateTable(codeAlice, codeAlice, tblRows, codeAlice))
	assert.Same(t, t2, s.TableByID(1))
}

func TestStore_RevertRestoresEverything(t *testing.T) {
	s := NewStore()
	base := s.FindOrCreateTable(codeAlice, codeAlice, tblRows, codeAlice)
	base.Set(1, row("one"))
	base.Set(2, row("two"))
	require.NoError(t, s.Idx64.Store(&IndexObject[uint64]{TableID: base.ID(), PrimaryKey: 1, SecondaryKey: 10, Payer: codeAlice}))

	before := dump(s)
	mark := s.Snapshot()

	// Update, delete, create, drop a whole table and touch the index.
	base.Set(1, row("uno"))
	require.NoError(t, base.Delete(2))
	base.Set(3, row("three"))

	other := s.FindOrCreateTable(codeBob, codeBob, tblOther, codeBob)
	other.Set(7, row("seven"))
	require.NoError(t, other.Delete(7))
	assert.Nil(t, s.FindTable(codeBob, codeBob, tblOther))

	entry := s.Idx64.Get(base.ID(), 1)
	require.NotNil(t, entry)
	updated := entry.Clone()
	updated.SecondaryKey = 99
	require.NoError(t, s.Idx64.Update(entry, updated))
	require.NoError(t, s.Idx64.Store(&IndexObject[uint64]{TableID: base.ID(), PrimaryKey: 3, SecondaryKey: 30, Payer: codeAlice}))

	require.NotEqual(t, before, dump(s))

	s.RevertTo(mark)
	assert.Equal(t, before, dump(s))
	assert.Equal(t, mark, s.Snapshot())
}

func TestStore_RevertRecreatesDroppedTableWithSameID(t *testing.T) {
	s := NewStore()
	tab := s.FindOrCreateTable(codeAlice, codeAlice, tblRows, codeAlice)
	tab.Set(5, row("five"))
	id := tab.ID()

	mark := s.Snapshot()
	require.NoError(t, tab.Delete(5))
	assert.Nil(t, s.TableByID(id))

	s.RevertTo(mark)
	restored := s.TableByID(id)
	require.NotNil(t, restored)
	assert.Equal(t, uint32(1), restored.Size())
	assert.Equal(t, []byte("five"), restored.Get(5).Value)
}

func TestStore_RevertOfTableCreationReusesID(t *testing.T) {
	s := NewStore()
	mark := s.Snapshot()
	tab := s.FindOrCreateTable(codeAlice, codeAlice, tblRows, codeAlice)
	tab.Set(1, row("x"))
	s.RevertTo(mark)

	assert.Empty(t, s.Tables())
	again := s.FindOrCreateTable(codeBob, codeBob, tblRows, codeBob)
	assert.Equal(t, uint32(0), again.ID())
}

func TestStore_CorruptedLogPanics(t *testing.T) {
	s := NewStore()
	mark := s.Snapshot()
	s.Set([]byte("k"), row("v"))

	// Remove the row behind the log's back.
	s.kv.Delete(kvItem{key: "k"})

	assert.PanicsWithError(t, "state invariant violated: revert stack is corrupted: created row 6b is missing", func() {
		s.RevertTo(mark)
	})
}

func TestStore_RevertMarkOutOfRangePanics(t *testing.T) {
	s := NewStore()
	assert.Panics(t, func() { s.RevertTo(1) })
}

func TestStore_CommitKeepsStateAndDropsLog(t *testing.T) {
	s := NewStore()
	tab := s.FindOrCreateTable(codeAlice, codeAlice, tblRows, codeAlice)
	require.NoError(t, tab.Insert(1, row("one")))
	before := dump(s)

	s.Commit()
	assert.Equal(t, 0, s.Snapshot())
	assert.Equal(t, before, dump(s))

	mark := s.Snapshot()
	require.NoError(t, tab.Insert(2, row("two")))
	s.RevertTo(mark)
	assert.Equal(t, before, dump(s))
}
