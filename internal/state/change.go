package state

// change is one undo-log record. invert restores the state that existed
// before the recorded mutation.
type change interface {
	invert(s *Store)
}

type prefixCreated struct {
	prefix string
}

func (c *prefixCreated) invert(s *Store) {
	t := s.getPrefix(c.prefix)
	if t == nil {
		corrupted("created prefix %x is missing", c.prefix)
	}
	s.unregister(t)
	s.seq--
}

type prefixDeleted struct {
	table *Table
}

func (c *prefixDeleted) invert(s *Store) {
	if s.getPrefix(c.table.prefix) != nil {
		corrupted("deleted prefix %x is present", c.table.prefix)
	}
	s.register(c.table)
}

type rowCreated struct {
	key   string
	table *Table
}

func (c *rowCreated) invert(s *Store) {
	if _, ok := s.kv.Delete(kvItem{key: c.key}); !ok {
		corrupted("created row %x is missing", c.key)
	}
	if c.table != nil {
		c.table.seq--
		c.table.size--
	}
}

type rowUpdated struct {
	key  string
	prev *KeyValueObject
}

func (c *rowUpdated) invert(s *Store) {
	if _, replaced := s.kv.Set(kvItem{key: c.key, row: c.prev}); !replaced {
		corrupted("updated row %x is missing", c.key)
	}
}

type rowDeleted struct {
	key   string
	prev  *KeyValueObject
	table *Table
}

func (c *rowDeleted) invert(s *Store) {
	if _, replaced := s.kv.Set(kvItem{key: c.key, row: c.prev}); replaced {
		corrupted("deleted row %x is present", c.key)
	}
	if c.table != nil {
		c.table.size++
	}
}

type indexCreated[K any] struct {
	index *Index[K]
	obj   *IndexObject[K]
}

func (c *indexCreated[K]) invert(*Store) {
	if !c.index.unlink(c.obj) {
		corrupted("created index entry (table %d, pk %d) is missing", c.obj.TableID, c.obj.PrimaryKey)
	}
}

type indexUpdated[K any] struct {
	index *Index[K]
	prev  *IndexObject[K]
	next  *IndexObject[K]
}

func (c *indexUpdated[K]) invert(*Store) {
	if !c.index.unlink(c.next) {
		corrupted("updated index entry (table %d, pk %d) is missing", c.next.TableID, c.next.PrimaryKey)
	}
	c.index.link(c.prev)
}

type indexDeleted[K any] struct {
	index *Index[K]
	obj   *IndexObject[K]
}

func (c *indexDeleted[K]) invert(*Store) {
	if c.index.Get(c.obj.TableID, c.obj.PrimaryKey) != nil {
		corrupted("deleted index entry (table %d, pk %d) is present", c.obj.TableID, c.obj.PrimaryKey)
	}
	c.index.link(c.obj)
}
