package store

// Model is a key value pair as read from a store.
type Model struct {
	Key   []byte
	Value []byte
}

// Pair constructs a model from a key-value pair
func Pair(key, value []byte) Model {
	return Model{Key: key, Value: value}
}

// SliceIterator iterates over a preloaded, already ordered result.
type SliceIterator struct {
	data []Model
	idx  int
}

var _ Iterator = (*SliceIterator)(nil)

// NewSliceIterator returns an iterator over data in the given order.
func NewSliceIterator(data []Model) *SliceIterator {
	return &SliceIterator{data: data}
}

// Valid returns true iff the cursor can be read.
func (s *SliceIterator) Valid() bool {
	return s.idx < len(s.data)
}

// Next moves the cursor. It panics past the end.
func (s *SliceIterator) Next() {
	s.mustBeValid()
	s.idx++
}

// Key returns the key of the cursor.
func (s *SliceIterator) Key() []byte {
	s.mustBeValid()
	return s.data[s.idx].Key
}

// Value returns the value of the cursor.
func (s *SliceIterator) Value() []byte {
	s.mustBeValid()
	return s.data[s.idx].Value
}

// Close releases the preloaded data.
func (s *SliceIterator) Close() {
	s.data = nil
}

func (s *SliceIterator) mustBeValid() {
	if !s.Valid() {
		panic("iterator passed the end")
	}
}

// NonAtomicBatch records writes and replays them in order on Write. Stores
// using it get their atomicity elsewhere: the cache-wrap is discarded as a
// whole and the iavl tree is only persisted on Commit.
type NonAtomicBatch struct {
	out SetDeleter
	ops []func(SetDeleter) error
}

var _ Batch = (*NonAtomicBatch)(nil)

// NewNonAtomicBatch returns an empty batch writing to out.
func NewNonAtomicBatch(out SetDeleter) *NonAtomicBatch {
	return &NonAtomicBatch{out: out}
}

// Set records a write.
func (b *NonAtomicBatch) Set(key, value []byte) error {
	b.ops = append(b.ops, func(db SetDeleter) error { return db.Set(key, value) })
	return nil
}

// Delete records a removal.
func (b *NonAtomicBatch) Delete(key []byte) error {
	b.ops = append(b.ops, func(db SetDeleter) error { return db.Delete(key) })
	return nil
}

// Write replays all recorded operations and empties the batch. It stops at
// the first failing operation.
func (b *NonAtomicBatch) Write() error {
	ops := b.ops
	b.ops = nil
	for _, op := range ops {
		if err := op(b.out); err != nil {
			return err
		}
	}
	return nil
}
