/*
Package orm provides an easy to use db wrapper

Break state space into prefixed sections called Buckets.
* Each bucket contains only one type of object.
* A model is stored under its primary key, usually an id
  taken from a Sequence.
* Easy queries for one and iteration.

Models are protobuf messages. The encoding is done with the gogo/protobuf
reflection based marshaler, so a model needs only the protobuf struct tags
and the proto.Message methods.
*/
package orm

import (
	"fmt"
	"regexp"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

var (
	isBucketName = regexp.MustCompile(`^[a-z_]{3,10}$`).MatchString
)

// Bucket is a prefixed subspace of the DB. All keys written through
// a bucket are stored as <name>:<key>.
type Bucket struct {
	name   string
	prefix []byte
}

// NewBucket creates a bucket to store data. It panics on an invalid name,
// buckets are declared at program start.
func NewBucket(name string) Bucket {
	if !isBucketName(name) {
		panic(fmt.Sprintf("Illegal bucket: %s", name))
	}
	return Bucket{
		name:   name,
		prefix: append([]byte(name), ':'),
	}
}

// Name returns the name of the bucket.
func (b Bucket) Name() string {
	return b.name
}

// DBKey is the full key we store in the db, including prefix
func (b Bucket) DBKey(key []byte) []byte {
	return append(append([]byte(nil), b.prefix...), key...)
}

// Get returns the raw value stored under the key, or nil.
func (b Bucket) Get(db custody.ReadOnlyKVStore, key []byte) ([]byte, error) {
	raw, err := db.Get(b.DBKey(key))
	if err != nil {
		return nil, errors.Wrap(err, "bucket get")
	}
	return raw, nil
}

// Set stores the raw value under the key.
func (b Bucket) Set(db custody.KVStore, key, value []byte) error {
	return db.Set(b.DBKey(key), value)
}

// Delete removes the key.
func (b Bucket) Delete(db custody.KVStore, key []byte) error {
	return db.Delete(b.DBKey(key))
}

// Iterate calls fn for every entry of the bucket in key order. The key given
// to fn has the bucket prefix removed. Iteration stops at the first error.
func (b Bucket) Iterate(db custody.ReadOnlyKVStore, fn func(key, value []byte) error) error {
	it, err := db.Iterator(b.prefix, prefixEnd(b.prefix))
	if err != nil {
		return errors.Wrap(err, "bucket iterator")
	}
	defer it.Close()

	for ; it.Valid(); it.Next() {
		if err := fn(it.Key()[len(b.prefix):], it.Value()); err != nil {
			return err
		}
	}
	return nil
}

// prefixEnd returns the first key that is greater than all keys with the
// given prefix.
func prefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	// all 0xff, iterate to the end
	return nil
}
