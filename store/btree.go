package store

import (
	"bytes"

	"github.com/google/btree"
)

// DefaultFreeListSize is the number of released btree nodes kept for reuse.
const DefaultFreeListSize = btree.DefaultFreeListSize

// BTreeCacheable adds a btree based CacheWrap to a KVStore.
type BTreeCacheable struct {
	KVStore
}

var _ CacheableKVStore = BTreeCacheable{}

// CacheWrap returns a scratch-pad writing to this store on Write.
func (b BTreeCacheable) CacheWrap() KVCacheWrap {
	return NewBTreeCacheWrap(b.KVStore, b.NewBatch(), nil)
}

// MemStore returns an in-memory store for tests and fakes. Nothing survives
// the process.
func MemStore() CacheableKVStore {
	return NewBTreeCacheWrap(nothing{}, NewNonAtomicBatch(nothing{}), nil)
}

// BTreeCacheWrap keeps every write in a btree over a read only parent. The
// writes reach the parent only through the batch, on Write.
type BTreeCacheWrap struct {
	bt    *btree.BTree
	free  *btree.FreeList
	back  ReadOnlyKVStore
	batch Batch
}

var _ KVCacheWrap = BTreeCacheWrap{}

// NewBTreeCacheWrap returns a cache over kv writing through batch. free may
// be nil, a shared list lets nested caches reuse released nodes.
func NewBTreeCacheWrap(kv ReadOnlyKVStore, batch Batch, free *btree.FreeList) BTreeCacheWrap {
	if free == nil {
		free = btree.NewFreeList(DefaultFreeListSize)
	}
	return BTreeCacheWrap{
		bt:    btree.NewWithFreeList(2, free),
		free:  free,
		back:  kv,
		batch: batch,
	}
}

// CacheWrap layers another cache on top of this one.
func (b BTreeCacheWrap) CacheWrap() KVCacheWrap {
	return NewBTreeCacheWrap(b, b.NewBatch(), b.free)
}

// NewBatch returns a batch writing into this cache.
func (b BTreeCacheWrap) NewBatch() Batch {
	return NewNonAtomicBatch(b)
}

// Write flushes all cached writes to the parent and empties the cache.
func (b BTreeCacheWrap) Write() error {
	err := b.batch.Write()
	b.Discard()
	return err
}

// Discard drops all cached writes.
func (b BTreeCacheWrap) Discard() {
	for b.bt.DeleteMin() != nil {
	}
	if nb, ok := b.batch.(*NonAtomicBatch); ok {
		nb.ops = nil
	}
}

// Set caches the value.
func (b BTreeCacheWrap) Set(key, value []byte) error {
	b.bt.ReplaceOrInsert(item{key: key, value: value})
	return b.batch.Set(key, value)
}

// Delete caches the removal, hiding the parent value.
func (b BTreeCacheWrap) Delete(key []byte) error {
	b.bt.ReplaceOrInsert(item{key: key, deleted: true})
	return b.batch.Delete(key)
}

// Get reads the cache first, then the parent.
func (b BTreeCacheWrap) Get(key []byte) ([]byte, error) {
	found := b.bt.Get(item{key: key})
	if found == nil {
		return b.back.Get(key)
	}
	it := found.(item)
	if it.deleted {
		return nil, nil
	}
	return it.value, nil
}

// Has reads the cache first, then the parent.
func (b BTreeCacheWrap) Has(key []byte) (bool, error) {
	found := b.bt.Get(item{key: key})
	if found == nil {
		return b.back.Has(key)
	}
	return !found.(item).deleted, nil
}

// Iterator merges the parent content with the cached writes, ascending.
func (b BTreeCacheWrap) Iterator(start, end []byte) (Iterator, error) {
	parent, err := b.back.Iterator(start, end)
	if err != nil {
		return nil, err
	}
	defer parent.Close()
	return mergeIterators(collect(parent), b.pending(start, end, true), true), nil
}

// ReverseIterator merges the parent content with the cached writes,
// descending.
func (b BTreeCacheWrap) ReverseIterator(start, end []byte) (Iterator, error) {
	parent, err := b.back.ReverseIterator(start, end)
	if err != nil {
		return nil, err
	}
	defer parent.Close()
	return mergeIterators(collect(parent), b.pending(start, end, false), false), nil
}

// pending returns all cached writes within the range, in iteration order.
func (b BTreeCacheWrap) pending(start, end []byte, ascending bool) []item {
	var res []item
	add := func(i btree.Item) bool {
		res = append(res, i.(item))
		return true
	}
	switch {
	case start == nil && end == nil:
		b.bt.Ascend(add)
	case start == nil:
		b.bt.AscendLessThan(item{key: end}, add)
	case end == nil:
		b.bt.AscendGreaterOrEqual(item{key: start}, add)
	default:
		b.bt.AscendRange(item{key: start}, item{key: end}, add)
	}
	if !ascending {
		for i, j := 0, len(res)-1; i < j; i, j = i+1, j-1 {
			res[i], res[j] = res[j], res[i]
		}
	}
	return res
}

// item is a cached write, ordered by key.
type item struct {
	key     []byte
	value   []byte
	deleted bool
}

func (i item) Less(than btree.Item) bool {
	return bytes.Compare(i.key, than.(item).key) < 0
}

// nothing is the empty base layer of a MemStore.
type nothing struct{}

func (nothing) Get(key []byte) ([]byte, error) { return nil, nil }
func (nothing) Has(key []byte) (bool, error) { return false, nil }
func (nothing) Set(key, value []byte) error { return nil }
func (nothing) Delete(key []byte) error { return nil }
func (nothing) Iterator(start, end []byte) (Iterator, error) {
	return NewSliceIterator(nil), nil
}
func (nothing) ReverseIterator(start, end []byte) (Iterator, error) {
	return NewSliceIterator(nil), nil
}
