package state

import (
	"github.com/holiman/uint256"
	"github.com/tidwall/btree"
)

// KeyValueObject is one row of a table.
//
// Rows are treated as immutable once stored: an update stores a new object
// under the same key, so a reference held by an iterator cache always sees
// the value it was resolved with.
type KeyValueObject struct {
	ID         uint32
	TableID    uint32
	PrimaryKey uint64
	Payer      uint64
	Value      []byte
}

// Clone returns a deep copy suitable for building an updated row.
func (o *KeyValueObject) Clone() *KeyValueObject {
	c := *o
	c.Value = append([]byte(nil), o.Value...)
	return &c
}

type kvItem struct {
	key string
	row *KeyValueObject
}

// Store is the undo-logged ordered key/value map that hosts every table and
// secondary index of one chain.
type Store struct {
	kv       *btree.BTreeG[kvItem]
	prefixes *btree.BTreeG[*Table]
	byID     map[uint32]*Table
	changes  []change
	seq      uint32

	Idx64     *Index[uint64]
	Idx128    *Index[uint256.Int]
	Idx256    *Index[[32]byte]
	IdxDouble *Index[float64]
}

// NewStore returns an empty store with its four secondary indexes.
func NewStore() *Store {
	s := &Store{
		kv: btree.NewBTreeGOptions(func(a, b kvItem) bool {
			return a.key < b.key
		}, btree.Options{NoLocks: true}),
		prefixes: btree.NewBTreeGOptions(func(a, b *Table) bool {
			return a.prefix < b.prefix
		}, btree.Options{NoLocks: true}),
		byID:    make(map[uint32]*Table),
		changes: make([]change, 0, 64),
	}
	s.Idx64 = newIndex(s, Uint64Key)
	s.Idx128 = newIndex(s, Uint128Key)
	s.Idx256 = newIndex(s, Checksum256Key)
	s.IdxDouble = newIndex(s, DoubleKey)
	return s
}

// Set stores row under key, recording the inverse change first.
func (s *Store) Set(key []byte, row *KeyValueObject) {
	s.set(string(key), row, nil)
}

func (s *Store) set(key string, row *KeyValueObject, owner *Table) (created bool) {
	prev, ok := s.kv.Get(kvItem{key: key})
	if ok {
		s.push(&rowUpdated{key: key, prev: prev.row})
	} else {
		s.push(&rowCreated{key: key, table: owner})
	}
	s.kv.Set(kvItem{key: key, row: row})
	return !ok
}

// Get returns the row stored under key, or nil.
func (s *Store) Get(key []byte) *KeyValueObject {
	return s.get(string(key))
}

func (s *Store) get(key string) *KeyValueObject {
	item, ok := s.kv.Get(kvItem{key: key})
	if !ok {
		return nil
	}
	return item.row
}

// Has reports whether key is present.
func (s *Store) Has(key []byte) bool {
	return s.get(string(key)) != nil
}

// Delete removes key. Deleting an absent key returns ErrNotFound.
func (s *Store) Delete(key []byte) error {
	return s.delete(string(key), nil)
}

func (s *Store) delete(key string, owner *Table) error {
	item, ok := s.kv.Get(kvItem{key: key})
	if !ok {
		return ErrNotFound
	}
	s.push(&rowDeleted{key: key, prev: item.row, table: owner})
	s.kv.Delete(item)
	return nil
}

// Prev returns the entry with the greatest key strictly below key.
func (s *Store) Prev(key []byte) ([]byte, *KeyValueObject, bool) {
	k, row, ok := s.prev(string(key))
	return []byte(k), row, ok
}

// Next returns the entry with the smallest key strictly above key.
func (s *Store) Next(key []byte) ([]byte, *KeyValueObject, bool) {
	k, row, ok := s.next(string(key))
	return []byte(k), row, ok
}

func (s *Store) prev(key string) (string, *KeyValueObject, bool) {
	var found kvItem
	var ok bool
	s.kv.Descend(kvItem{key: key}, func(item kvItem) bool {
		if item.key == key {
			return true
		}
		found, ok = item, true
		return false
	})
	return found.key, found.row, ok
}

func (s *Store) next(key string) (string, *KeyValueObject, bool) {
	var found kvItem
	var ok bool
	s.kv.Ascend(kvItem{key: key}, func(item kvItem) bool {
		if item.key == key {
			return true
		}
		found, ok = item, true
		return false
	})
	return found.key, found.row, ok
}

// ceil returns the entry with the smallest key at or above key.
func (s *Store) ceil(key string) (string, *KeyValueObject, bool) {
	var found kvItem
	var ok bool
	s.kv.Ascend(kvItem{key: key}, func(item kvItem) bool {
		found, ok = item, true
		return false
	})
	return found.key, found.row, ok
}

// floor returns the entry with the greatest key at or below key.
func (s *Store) floor(key string) (string, *KeyValueObject, bool) {
	var found kvItem
	var ok bool
	s.kv.Descend(kvItem{key: key}, func(item kvItem) bool {
		found, ok = item, true
		return false
	})
	return found.key, found.row, ok
}

// Len returns the number of rows across all tables.
func (s *Store) Len() int {
	return s.kv.Len()
}

// CreatePrefix registers a new table under prefix and assigns it the next
// table id.
func (s *Store) CreatePrefix(prefix []byte) (*Table, error) {
	key := string(prefix)
	if _, ok := s.prefixes.Get(&Table{prefix: key}); ok {
		return nil, ErrPrefixExists
	}
	s.push(&prefixCreated{prefix: key})
	t := &Table{store: s, id: s.seq, prefix: key}
	s.seq++
	s.register(t)
	return t, nil
}

// DeletePrefix unregisters the table under prefix. Rows are not touched.
func (s *Store) DeletePrefix(prefix []byte) error {
	t := s.getPrefix(string(prefix))
	if t == nil {
		return ErrNotFound
	}
	s.push(&prefixDeleted{table: t})
	s.unregister(t)
	return nil
}

// GetPrefix returns the table registered under prefix, or nil.
func (s *Store) GetPrefix(prefix []byte) *Table {
	return s.getPrefix(string(prefix))
}

func (s *Store) getPrefix(prefix string) *Table {
	t, ok := s.prefixes.Get(&Table{prefix: prefix})
	if !ok {
		return nil
	}
	return t
}

// GetPrefixByID returns the live table with the given id, or nil.
func (s *Store) GetPrefixByID(id uint32) *Table {
	return s.byID[id]
}

func (s *Store) register(t *Table) {
	s.prefixes.Set(t)
	s.byID[t.id] = t
}

func (s *Store) unregister(t *Table) {
	s.prefixes.Delete(t)
	delete(s.byID, t.id)
}

// FindTable returns the table identified by (code, scope, name), or nil.
func (s *Store) FindTable(code, scope, name uint64) *Table {
	return s.GetPrefix(TablePrefix(code, scope, name))
}

// CreateTable registers a new table. It fails if the table exists.
func (s *Store) CreateTable(code, scope, name, payer uint64) (*Table, error) {
	t, err := s.CreatePrefix(TablePrefix(code, scope, name))
	if err != nil {
		return nil, err
	}
	t.code, t.scope, t.name, t.payer = code, scope, name, payer
	return t, nil
}

// FindOrCreateTable returns the existing table or creates it with payer.
func (s *Store) FindOrCreateTable(code, scope, name, payer uint64) *Table {
	if t := s.FindTable(code, scope, name); t != nil {
		return t
	}
	// Cannot fail: the prefix was just checked.
	t, _ := s.CreateTable(code, scope, name, payer)
	return t
}

// TableByID is GetPrefixByID under the name used by the host-call surface.
func (s *Store) TableByID(id uint32) *Table {
	return s.GetPrefixByID(id)
}

// Tables returns every live table in prefix order.
func (s *Store) Tables() []*Table {
	out := make([]*Table, 0, s.prefixes.Len())
	s.prefixes.Scan(func(t *Table) bool {
		out = append(out, t)
		return true
	})
	return out
}

// Snapshot returns a mark that RevertTo can roll back to.
func (s *Store) Snapshot() int {
	return len(s.changes)
}

// RevertTo undoes every change recorded after mark, newest first, and
// truncates the log to mark.
//
// Panics with *InvariantError if the log does not match the store.
func (s *Store) RevertTo(mark int) {
	if mark < 0 || mark > len(s.changes) {
		panic(&InvariantError{Message: "revert mark out of range"})
	}
	for i := len(s.changes) - 1; i >= mark; i-- {
		s.changes[i].invert(s)
		s.changes[i] = nil
	}
	s.changes = s.changes[:mark]
}

// Commit discards the change log, making every change so far permanent.
// Marks taken before Commit must not be passed to RevertTo.
func (s *Store) Commit() {
	clear(s.changes)
	s.changes = s.changes[:0]
}

func (s *Store) push(c change) {
	s.changes = append(s.changes, c)
}
