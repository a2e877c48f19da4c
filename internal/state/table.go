package state

import (
	"encoding/binary"
	"math"
)

// PrefixSize is the width of a table prefix: owner, scope and name.
const PrefixSize = 24

// Table is a prefix-scoped view over the store identified by
// (code, scope, name).
//
// INVARIANTS:
//   - id never changes once assigned and is the join key for iterator caches
//   - size counts live rows; when it reaches zero the prefix is removed
//   - seq and size are restored by the same undo records as the rows
type Table struct {
	store  *Store
	id     uint32
	prefix string
	code   uint64
	scope  uint64
	name   uint64
	payer  uint64
	seq    uint32
	size   uint32
}

// TablePrefix serializes (code, scope, name) as 24 big-endian bytes.
func TablePrefix(code, scope, name uint64) []byte {
	buf := make([]byte, PrefixSize, PrefixSize+8)
	binary.BigEndian.PutUint64(buf[0:], code)
	binary.BigEndian.PutUint64(buf[8:], scope)
	binary.BigEndian.PutUint64(buf[16:], name)
	return buf
}

func (t *Table) ID() uint32     { return t.id }
func (t *Table) Code() uint64   { return t.code }
func (t *Table) Scope() uint64  { return t.scope }
func (t *Table) Name() uint64   { return t.name }
func (t *Table) Payer() uint64  { return t.payer }
func (t *Table) Size() uint32   { return t.size }
func (t *Table) Prefix() []byte { return []byte(t.prefix) }

func (t *Table) key(pk uint64) string {
	var buf [PrefixSize + 8]byte
	copy(buf[:], t.prefix)
	binary.BigEndian.PutUint64(buf[PrefixSize:], pk)
	return string(buf[:])
}

func (t *Table) owns(key string) bool {
	return len(key) == PrefixSize+8 && key[:PrefixSize] == t.prefix
}

// Get returns the row with primary key pk, or nil.
func (t *Table) Get(pk uint64) *KeyValueObject {
	return t.store.get(t.key(pk))
}

// Has reports whether a row with primary key pk exists.
func (t *Table) Has(pk uint64) bool {
	return t.Get(pk) != nil
}

// Set stores row under pk. A new row gets the next table-local id and
// increments the row count; an update keeps the previous row's id.
func (t *Table) Set(pk uint64, row *KeyValueObject) {
	key := t.key(pk)
	row.TableID = t.id
	row.PrimaryKey = pk
	if prev := t.store.get(key); prev != nil {
		row.ID = prev.ID
	} else {
		row.ID = t.seq
	}
	if t.store.set(key, row, t) {
		t.seq++
		t.size++
	}
}

// Insert stores a new row and fails with ErrUniqueness if pk exists.
func (t *Table) Insert(pk uint64, row *KeyValueObject) error {
	if t.Has(pk) {
		return ErrUniqueness
	}
	t.Set(pk, row)
	return nil
}

// Delete removes the row under pk. The table's prefix is removed from the
// store when its last row goes.
func (t *Table) Delete(pk uint64) error {
	if err := t.store.delete(t.key(pk), t); err != nil {
		return err
	}
	t.size--
	if t.size == 0 {
		return t.store.DeletePrefix([]byte(t.prefix))
	}
	return nil
}

// LowerBound returns the first row with primary key >= pk.
func (t *Table) LowerBound(pk uint64) *KeyValueObject {
	key, row, ok := t.store.ceil(t.key(pk))
	if !ok || !t.owns(key) {
		return nil
	}
	return row
}

// UpperBound returns the first row with primary key > pk.
func (t *Table) UpperBound(pk uint64) *KeyValueObject {
	return t.Next(pk)
}

// Next returns the row following pk within this table.
func (t *Table) Next(pk uint64) *KeyValueObject {
	key, row, ok := t.store.next(t.key(pk))
	if !ok || !t.owns(key) {
		return nil
	}
	return row
}

// Prev returns the row preceding pk within this table.
func (t *Table) Prev(pk uint64) *KeyValueObject {
	key, row, ok := t.store.prev(t.key(pk))
	if !ok || !t.owns(key) {
		return nil
	}
	return row
}

// Penultimate returns the row with the highest primary key, or nil.
// It looks up from the reserved sentinel key 2^64-1.
func (t *Table) Penultimate() *KeyValueObject {
	key, row, ok := t.store.floor(t.key(math.MaxUint64))
	if !ok || !t.owns(key) {
		return nil
	}
	return row
}

// Rows returns the table's rows in primary-key order.
func (t *Table) Rows() []*KeyValueObject {
	out := make([]*KeyValueObject, 0, t.size)
	t.store.kv.Ascend(kvItem{key: t.prefix}, func(item kvItem) bool {
		if !t.owns(item.key) {
			return false
		}
		out = append(out, item.row)
		return true
	})
	return out
}
