package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestSuite provides methods that can be called in package-specific test
// code. The store being tested is customised by passing a constructor, the
// rest of the logic is generic to the CacheableKVStore interface.
//
// It is shared between the btree tests and iavl/commit_test.go.
type TestSuite struct {
	makeBase TestStoreConstructor
}

// TestStoreConstructor returns a fresh store and a cleanup function.
type TestStoreConstructor func() (base CacheableKVStore, cleanup func())

func NewTestSuite(constructor TestStoreConstructor) *TestSuite {
	return &TestSuite{
		makeBase: constructor,
	}
}

// GetSet does basic sanity checks on the cache layers.
func (s *TestSuite) GetSet(t *testing.T) {
	base, cleanup := s.makeBase()
	defer cleanup()

	k, v := []byte("french"), []byte("fry")
	assertGet(t, base, k, nil)
	require.NoError(t, base.Set(k, v))
	assertGet(t, base, k, v)

	// layer another cache on top and make sure that we get base data
	cache := base.CacheWrap()
	assertGet(t, cache, k, v)

	// writing more data is only visible in the cache
	k2, v2 := []byte("LA"), []byte("Dodgers")
	require.NoError(t, cache.Set(k2, v2))
	assertGet(t, cache, k2, v2)
	assertGet(t, base, k2, nil)

	// we can write the cache to the base layer...
	require.NoError(t, cache.Write())
	assertGet(t, base, k, v)
	assertGet(t, base, k2, v2)

	// we can discard one
	k3, v3 := []byte("Bayern"), []byte("Munich")
	c2 := base.CacheWrap()
	require.NoError(t, c2.Set(k3, v3))
	require.NoError(t, c2.Delete(k))
	c2.Discard()
	assertGet(t, base, k, v)
	assertGet(t, base, k3, nil)

	// and commit another
	c3 := base.CacheWrap()
	require.NoError(t, c3.Delete(k))
	require.NoError(t, c3.Write())
	assertGet(t, base, k, nil)
	assertGet(t, base, k2, v2)
}

// Iterator checks that iteration merges the cached and the parent data in
// both directions and respects the range limits.
func (s *TestSuite) Iterator(t *testing.T) {
	base, cleanup := s.makeBase()
	defer cleanup()

	for _, k := range []string{"a", "c", "e", "g"} {
		require.NoError(t, base.Set([]byte(k), []byte("base-"+k)))
	}

	cache := base.CacheWrap()
	require.NoError(t, cache.Set([]byte("b"), []byte("cache-b")))
	require.NoError(t, cache.Set([]byte("c"), []byte("cache-c")))
	require.NoError(t, cache.Delete([]byte("e")))
	require.NoError(t, cache.Set([]byte("h"), []byte("cache-h")))

	cases := map[string]struct {
		start, end []byte
		reverse    bool
		want       []Model
	}{
		"full range": {
			want: []Model{
				Pair([]byte("a"), []byte("base-a")),
				Pair([]byte("b"), []byte("cache-b")),
				Pair([]byte("c"), []byte("cache-c")),
				Pair([]byte("g"), []byte("base-g")),
				Pair([]byte("h"), []byte("cache-h")),
			},
		},
		"bounded range": {
			start: []byte("b"),
			end:   []byte("g"),
			want: []Model{
				Pair([]byte("b"), []byte("cache-b")),
				Pair([]byte("c"), []byte("cache-c")),
			},
		},
		"reverse range": {
			start:   []byte("c"),
			end:     nil,
			reverse: true,
			want: []Model{
				Pair([]byte("h"), []byte("cache-h")),
				Pair([]byte("g"), []byte("base-g")),
				Pair([]byte("c"), []byte("cache-c")),
			},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			var (
				it  Iterator
				err error
			)
			if tc.reverse {
				it, err = cache.ReverseIterator(tc.start, tc.end)
			} else {
				it, err = cache.Iterator(tc.start, tc.end)
			}
			require.NoError(t, err)
			defer it.Close()
			require.Equal(t, tc.want, collect(it))
		})
	}
}

func assertGet(t testing.TB, db ReadOnlyKVStore, key, want []byte) {
	t.Helper()
	got, err := db.Get(key)
	require.NoError(t, err)
	require.Equal(t, want, got)
	has, err := db.Has(key)
	require.NoError(t, err)
	require.Equal(t, want != nil, has)
}
