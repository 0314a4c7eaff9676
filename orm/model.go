package orm

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/custody/errors"
)

// Model is implemented by any entity that can be stored using ModelBucket.
//
// A Model must not declare Marshal or Unmarshal methods, the encoding is done
// by the gogo/protobuf reflection marshaler based on the struct tags.
type Model interface {
	proto.Message
	Validate() error
}

// Marshal serializes the model. Invalid models are never serialized.
func Marshal(m Model) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid model")
	}
	raw, err := proto.Marshal(m)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidModel, "marshal %T: %s", m, err)
	}
	return raw, nil
}

// Unmarshal loads the serialized data into the destination model.
func Unmarshal(raw []byte, dest Model) error {
	if err := proto.Unmarshal(raw, dest); err != nil {
		return errors.Wrapf(errors.ErrInvalidModel, "unmarshal %T: %s", dest, err)
	}
	return nil
}
