package engine

// SequenceStore resolves sequences by key. A missing key must be reported
// with an error matching dbstore.ErrNotFound so it can be told apart from an
// empty record. Implementations must allow concurrent reads.
type SequenceStore interface {
	GetByKey(key string) ([]byte, error)
	Size() int
	Close() error
}

// PrefilterStore holds one candidate list per query, addressed by position.
// Key(id) is the query key of the id-th list.
type PrefilterStore interface {
	Size() int
	Key(id int) string
	GetByID(id int) ([]byte, error)
	Close() error
}

// ResultStore receives one blob per query. Writes for distinct slots may run
// concurrently; each worker uses its own slot. Close commits the store, Abort
// discards everything written so far. Exactly one of them is called.
type ResultStore interface {
	Write(data []byte, key string, slot int) error
	Close() error
	Abort() error
}
