package app

import (
	"context"
	"encoding/json"
	"io/ioutil"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/gconf"
)

// Genesis file format.
type Genesis struct {
	ChainID  string          `json:"chain_id"`
	AppState custody.Options `json:"app_state"`
}

// LoadGenesis reads and decodes the genesis file.
func LoadGenesis(filePath string) (*Genesis, error) {
	raw, err := ioutil.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "loading genesis file: %s", err)
	}
	var gen Genesis
	if err := json.Unmarshal(raw, &gen); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "unmarshaling genesis file: %s", err)
	}
	if !custody.IsValidChainID(gen.ChainID) {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "chain id %q", gen.ChainID)
	}
	return &gen, nil
}

// ChainInitializers lets you initialize many extensions with one function.
func ChainInitializers(inits ...custody.Initializer) custody.Initializer {
	return chainInitializer{inits}
}

type chainInitializer struct {
	inits []custody.Initializer
}

// FromGenesis will pass opts to all Initializers in the list,
// aborting at the first error.
func (c chainInitializer) FromGenesis(opts custody.Options, kv custody.KVStore) error {
	for _, i := range c.inits {
		if err := i.FromGenesis(opts, kv); err != nil {
			return err
		}
	}
	return nil
}

// InitState stores the chain id and initializes the extensions in a single
// section. A state can be initialized only once.
func InitState(ctx context.Context, ex custody.Executor, gen *Genesis, init custody.Initializer) error {
	return ex.Update(ctx, func(db custody.KVStore) error {
		if err := saveChainID(db, gen.ChainID); err != nil {
			return err
		}
		return init.FromGenesis(gen.AppState, db)
	})
}

// Part is a state that is exported together with others. Exporters are
// keyed by their app state section, Configs by package name.
type Part struct {
	State     custody.Executor
	Exporters map[string]custody.Exporter
	Configs   map[string]gconf.Configuration
}

// ExportState returns the state of every part in the genesis format. The
// chain id is read from the first part.
func ExportState(ctx context.Context, parts ...Part) (*Genesis, error) {
	if len(parts) == 0 {
		return nil, errors.Wrap(errors.ErrEmpty, "nothing to export")
	}
	gen := Genesis{AppState: custody.Options{}}
	confs := make(map[string]json.RawMessage)
	for i, part := range parts {
		err := part.State.View(ctx, func(db custody.ReadOnlyKVStore) error {
			if i == 0 {
				chainID, err := loadChainID(db)
				if err != nil {
					return err
				}
				gen.ChainID = chainID
			}
			for name, e := range part.Exporters {
				raw, err := e.ExportGenesis(db)
				if err != nil {
					return errors.Wrapf(err, "export %s", name)
				}
				gen.AppState[name] = raw
			}
			for pkg, conf := range part.Configs {
				raw, err := gconf.Export(db, pkg, conf)
				if err != nil {
					return errors.Wrapf(err, "export %s configuration", pkg)
				}
				confs[pkg] = raw
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	raw, err := json.Marshal(confs)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidModel, "encode configuration: %s", err)
	}
	gen.AppState["conf"] = raw
	return &gen, nil
}

//------- storing chainID ---------

// _cy: is a prefix for internal data
const chainIDKey = "_cy:chainID"

// LoadChainID returns the chain id the state was initialized with.
func LoadChainID(ctx context.Context, ex custody.Executor) (string, error) {
	var chainID string
	err := ex.View(ctx, func(db custody.ReadOnlyKVStore) error {
		var err error
		chainID, err = loadChainID(db)
		return err
	})
	return chainID, err
}

func loadChainID(db custody.ReadOnlyKVStore) (string, error) {
	v, err := db.Get([]byte(chainIDKey))
	if err != nil {
		return "", errors.Wrap(err, "load chain id")
	}
	if v == nil {
		return "", errors.Wrap(errors.ErrNotFound, "state not initialized, no chain id")
	}
	return string(v), nil
}

// saveChainID stores a chain id in the kv store.
// Returns error if already set, or invalid name
func saveChainID(db custody.KVStore, chainID string) error {
	if !custody.IsValidChainID(chainID) {
		return errors.Wrapf(errors.ErrInvalidInput, "chain id %q", chainID)
	}
	k := []byte(chainIDKey)
	exists, err := db.Has(k)
	if err != nil {
		return err
	}
	if exists {
		return errors.Wrap(errors.ErrDuplicate, "chain id already set")
	}
	return db.Set(k, []byte(chainID))
}
