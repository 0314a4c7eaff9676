package store

import (
	"bytes"
)

// collect reads the remaining content of the iterator.
func collect(it Iterator) []Model {
	var res []Model
	for ; it.Valid(); it.Next() {
		res = append(res, Model{Key: it.Key(), Value: it.Value()})
	}
	return res
}

// mergeIterators combines the content of the parent store with the cached
// operations. Both inputs must be sorted in the same direction. A cached
// operation always wins over the parent value of the same key.
func mergeIterators(parent []Model, cached []item, ascending bool) *SliceIterator {
	res := make([]Model, 0, len(parent)+len(cached))

	// before reports if a should be returned before b
	before := func(a, b []byte) bool {
		if ascending {
			return bytes.Compare(a, b) < 0
		}
		return bytes.Compare(a, b) > 0
	}

	var p, c int
	for p < len(parent) || c < len(cached) {
		if c == len(cached) {
			res = append(res, parent[p:]...)
			break
		}
		ckey := cached[c].key
		if p < len(parent) && before(parent[p].Key, ckey) {
			res = append(res, parent[p])
			p++
			continue
		}
		if p < len(parent) && bytes.Equal(parent[p].Key, ckey) {
			// overwritten or deleted in cache
			p++
		}
		if !cached[c].deleted {
			res = append(res, Model{Key: cached[c].key, Value: cached[c].value})
		}
		c++
	}
	return NewSliceIterator(res)
}
