package custody

import (
	"reflect"

	"github.com/iov-one/custody/errors"
)

// LoadMsg validates the message and copies it into the destination, which
// must be a non nil pointer to the same type as the message. Handlers use it
// to get a validated message of the type they expect.
func LoadMsg(msg Msg, destination interface{}) error {
	src := reflect.ValueOf(msg)
	if msg == nil || (src.Kind() == reflect.Ptr && src.IsNil()) {
		return errors.Wrap(errors.ErrInvalidState, "nil message")
	}
	if err := msg.Validate(); err != nil {
		return errors.Wrap(err, "invalid message")
	}

	dest := reflect.ValueOf(destination)
	if !dest.IsValid() || dest.Kind() != reflect.Ptr || dest.IsNil() {
		return errors.Wrapf(errors.ErrInvalidType, "destination must be a non nil pointer, got %T", destination)
	}
	if src.Kind() == reflect.Ptr {
		src = src.Elem()
	}
	if dest.Elem().Type() != src.Type() {
		return errors.Wrapf(errors.ErrInvalidType, "want %T destination, got %T", msg, destination)
	}
	dest.Elem().Set(src)
	return nil
}
