package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeBase() (CacheableKVStore, func()) {
	return MemStore(), func() {}
}

func TestBTreeCacheGetSet(t *testing.T) {
	NewTestSuite(makeBase).GetSet(t)
}

func TestBTreeCacheIterator(t *testing.T) {
	NewTestSuite(makeBase).Iterator(t)
}

func TestNestedDiscardDoesNotLeak(t *testing.T) {
	base := MemStore()
	outer := base.CacheWrap()
	inner := outer.CacheWrap()

	require.NoError(t, inner.Set([]byte("k"), []byte("v")))
	inner.Discard()
	require.NoError(t, outer.Write())

	has, err := base.Has([]byte("k"))
	require.NoError(t, err)
	assert.False(t, has)
}

func TestSliceIterator(t *testing.T) {
	it := NewSliceIterator([]Model{Pair([]byte("a"), []byte("1"))})
	require.True(t, it.Valid())
	assert.Equal(t, []byte("a"), it.Key())
	assert.Equal(t, []byte("1"), it.Value())
	it.Next()
	assert.False(t, it.Valid())
	assert.Panics(t, func() { it.Next() })
}
