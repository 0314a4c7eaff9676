package orm

import (
	"testing"

	"github.com/iov-one/custody/store"
	"github.com/iov-one/custody/vaulttest/assert"
)

func TestSequence(t *testing.T) {
	db := store.MemStore()
	s := NewSequence("vault", "id")

	latest, err := s.Latest(db)
	assert.Nil(t, err)
	assert.Equal(t, uint64(0), latest)

	for want := uint64(1); want <= 3; want++ {
		got, err := s.NextInt(db)
		assert.Nil(t, err)
		assert.Equal(t, want, got)
	}

	raw, err := s.NextVal(db)
	assert.Nil(t, err)
	assert.Equal(t, EncodeSequence(4), raw)
	assert.Equal(t, uint64(4), DecodeSequence(raw))

	// other sequences are independent
	other := NewSequence("wallet", "id")
	got, err := other.NextInt(db)
	assert.Nil(t, err)
	assert.Equal(t, uint64(1), got)
}

func TestSequenceSetMin(t *testing.T) {
	db := store.MemStore()
	s := NewSequence("policy", "id")

	assert.Nil(t, s.SetMin(db, 10))
	got, err := s.NextInt(db)
	assert.Nil(t, err)
	assert.Equal(t, uint64(11), got)

	// never goes back
	assert.Nil(t, s.SetMin(db, 2))
	got, err = s.NextInt(db)
	assert.Nil(t, err)
	assert.Equal(t, uint64(12), got)
}
