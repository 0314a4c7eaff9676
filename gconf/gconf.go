/*
Package gconf keeps the configuration of an extension in the application
state. Each extension stores one protobuf configuration message under the
_c:<pkg> key. The message is loaded from the "conf" section of the genesis
file and read back by the handlers on every request.
*/
package gconf

import (
	"encoding/json"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
)

// ReadStore is a subset of custody.ReadOnlyKVStore.
type ReadStore interface {
	Get([]byte) ([]byte, error)
}

// Store is a subset of custody.KVStore.
type Store interface {
	ReadStore
	Set([]byte, []byte) error
}

// Configuration is implemented by every extension configuration message.
type Configuration = orm.Model

func key(pkg string) []byte {
	return []byte("_c:" + pkg)
}

// Save will Validate the object, before writing it to a special "configuration"
// singleton for that package name.
func Save(db Store, pkg string, src Configuration) error {
	raw, err := orm.Marshal(src)
	if err != nil {
		return errors.Wrapf(err, "configuration %q", pkg)
	}
	return db.Set(key(pkg), raw)
}

// Load reads the configuration of the package into dst. It returns
// ErrNotFound if the configuration was never saved.
func Load(db ReadStore, pkg string, dst Configuration) error {
	raw, err := db.Get(key(pkg))
	if err != nil {
		return err
	}
	if raw == nil {
		return errors.Wrapf(errors.ErrNotFound, "configuration %q", pkg)
	}
	if err := orm.Unmarshal(raw, dst); err != nil {
		return errors.Wrapf(err, "configuration %q", pkg)
	}
	return nil
}

// InitConfig will take opts["conf"][pkg], parse it into the given Configuration object
// validate it, and store under the proper key in the database
// Returns an error if anything goes wrong
func InitConfig(db Store, opts custody.Options, pkg string, conf Configuration) error {
	var confOptions custody.Options
	if err := opts.ReadOptions("conf", &confOptions); err != nil {
		return errors.Wrap(errors.ErrInvalidInput, "read conf")
	}
	if confOptions[pkg] == nil {
		return errors.Wrapf(errors.ErrNotFound, "no configuration in genesis for %q package", pkg)
	}
	if err := confOptions.ReadOptions(pkg, conf); err != nil {
		return errors.Wrapf(errors.ErrInvalidInput, "read configuration for %s: %s", pkg, err)
	}
	if err := Save(db, pkg, conf); err != nil {
		return errors.Wrapf(err, "save configuration for %s", pkg)
	}
	return nil
}

// Export returns the JSON representation of the stored configuration, in
// the format InitConfig accepts.
func Export(db ReadStore, pkg string, conf Configuration) (json.RawMessage, error) {
	if err := Load(db, pkg, conf); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(conf)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidModel, "configuration %q: %s", pkg, err)
	}
	return raw, nil
}
