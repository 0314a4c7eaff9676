package orm

import (
	"reflect"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

// ModelBucket stores models of a single type under a primary key. A bucket
// created with WithIDSequence can assign the key itself.
type ModelBucket struct {
	b     Bucket
	idSeq *Sequence
	model reflect.Type
}

// ModelBucketOption is implemented by any function that can configure
// ModelBucket during creation.
type ModelBucketOption func(mb *ModelBucket)

// WithIDSequence configures the bucket to use the given sequence instance
// for generating ID.
func WithIDSequence(s Sequence) ModelBucketOption {
	return func(mb *ModelBucket) {
		mb.idSeq = &s
	}
}

// NewModelBucket returns a ModelBucket instance storing models of the same
// type as the given example.
func NewModelBucket(name string, example Model, opts ...ModelBucketOption) ModelBucket {
	mb := ModelBucket{
		b:     NewBucket(name),
		model: reflect.TypeOf(example),
	}
	for _, fn := range opts {
		fn(&mb)
	}
	return mb
}

// Name returns the bucket name.
func (mb ModelBucket) Name() string {
	return mb.b.Name()
}

// One query the database for a single model instance. Lookup is done by the
// primary key. Result is loaded into given destination model.
// This method returns ErrNotFound if the entity does not exist in the
// database.
// If given model type cannot be used to contain stored entity, ErrInvalidType
// is returned.
func (mb ModelBucket) One(db custody.ReadOnlyKVStore, key []byte, dest Model) error {
	if reflect.TypeOf(dest) != mb.model {
		return errors.Wrapf(errors.ErrInvalidType, "%T cannot be loaded from %s", dest, mb.b.Name())
	}
	raw, err := mb.b.Get(db, key)
	if err != nil {
		return err
	}
	if raw == nil {
		return errors.Wrapf(errors.ErrNotFound, "%s %x", mb.b.Name(), key)
	}
	return Unmarshal(raw, dest)
}

// Has returns nil if an entity with the given key exists, ErrNotFound
// otherwise.
func (mb ModelBucket) Has(db custody.ReadOnlyKVStore, key []byte) error {
	raw, err := mb.b.Get(db, key)
	if err != nil {
		return err
	}
	if raw == nil {
		return errors.Wrapf(errors.ErrNotFound, "%s %x", mb.b.Name(), key)
	}
	return nil
}

// Put saves given model in the database. If the key is nil, the next value
// of the id sequence is used. The key under which the model is stored is
// returned.
func (mb ModelBucket) Put(db custody.KVStore, key []byte, m Model) ([]byte, error) {
	if reflect.TypeOf(m) != mb.model {
		return nil, errors.Wrapf(errors.ErrInvalidType, "%T cannot be stored in %s", m, mb.b.Name())
	}
	if key == nil {
		if mb.idSeq == nil {
			return nil, errors.Wrap(errors.ErrHuman, "key is required, bucket has no id sequence")
		}
		next, err := mb.idSeq.NextVal(db)
		if err != nil {
			return nil, errors.Wrap(err, "id sequence")
		}
		key = next
	}
	raw, err := Marshal(m)
	if err != nil {
		return nil, err
	}
	if err := mb.b.Set(db, key, raw); err != nil {
		return nil, errors.Wrap(err, "cannot store in the database")
	}
	return key, nil
}

// NextID returns the next value of the id sequence without storing anything.
// Use it when the id must be part of the model before it is saved.
func (mb ModelBucket) NextID(db custody.KVStore) (uint64, error) {
	if mb.idSeq == nil {
		return 0, errors.Wrap(errors.ErrHuman, "bucket has no id sequence")
	}
	return mb.idSeq.NextInt(db)
}

// Sequence returns the id sequence of the bucket, if any.
func (mb ModelBucket) Sequence() (Sequence, bool) {
	if mb.idSeq == nil {
		return Sequence{}, false
	}
	return *mb.idSeq, true
}

// Delete removes an entity with given primary key from the database.
// It returns ErrNotFound if an entity with given key does not exist.
func (mb ModelBucket) Delete(db custody.KVStore, key []byte) error {
	if err := mb.Has(db, key); err != nil {
		return err
	}
	return mb.b.Delete(db, key)
}

// All loads every stored model, in key order, into destination. Destination
// must be a pointer to a slice of models, eg. *[]*Vault.
func (mb ModelBucket) All(db custody.ReadOnlyKVStore, destination interface{}) error {
	dest := reflect.ValueOf(destination)
	if dest.Kind() != reflect.Ptr || dest.Elem().Kind() != reflect.Slice {
		return errors.Wrapf(errors.ErrInvalidType, "destination must be a pointer to slice, got %T", destination)
	}
	if dest.Elem().Type().Elem() != mb.model {
		return errors.Wrapf(errors.ErrInvalidType, "%T cannot hold %s", destination, mb.model)
	}

	slice := dest.Elem()
	err := mb.b.Iterate(db, func(key, raw []byte) error {
		m := reflect.New(mb.model.Elem())
		if err := Unmarshal(raw, m.Interface().(Model)); err != nil {
			return errors.Wrapf(err, "key %x", key)
		}
		slice = reflect.Append(slice, m)
		return nil
	})
	if err != nil {
		return err
	}
	dest.Elem().Set(slice)
	return nil
}
