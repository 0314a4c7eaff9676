package ledger

import (
	"encoding/json"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/gconf"
	"github.com/iov-one/custody/orm"
)

// GenesisBalance is used to parse the json from genesis file.
type GenesisBalance struct {
	Account AccountID `json:"account"`
	Amount  uint64    `json:"amount"`
}

// Genesis is the "ledger" section of the genesis file.
type Genesis struct {
	Balances []GenesisBalance `json:"balances"`
}

// Initializer fulfils the Initializer interface to load data from
// the genesis file
type Initializer struct{}

var _ custody.Initializer = Initializer{}

// FromGenesis stores the ledger configuration and the initial balances.
func (Initializer) FromGenesis(opts custody.Options, db custody.KVStore) error {
	if err := gconf.InitConfig(db, opts, pkgName, &Configuration{}); err != nil {
		return errors.Wrap(err, "init config")
	}
	var gen Genesis
	if err := opts.ReadOptions(pkgName, &gen); err != nil {
		return errors.Wrapf(errors.ErrInvalidInput, "ledger genesis: %s", err)
	}
	accounts := NewAccountBucket()
	for _, b := range gen.Balances {
		if err := credit(db, accounts, b.Account, b.Amount); err != nil {
			return errors.Wrapf(err, "account %s", b.Account)
		}
	}
	return nil
}

// Exporter writes the balances back in the genesis format.
type Exporter struct{}

var _ custody.Exporter = Exporter{}

// ExportGenesis returns every non empty balance.
func (Exporter) ExportGenesis(db custody.ReadOnlyKVStore) (json.RawMessage, error) {
	gen := Genesis{Balances: []GenesisBalance{}}
	err := orm.NewBucket("account").Iterate(db, func(key, raw []byte) error {
		var acc Account
		if err := orm.Unmarshal(raw, &acc); err != nil {
			return err
		}
		if acc.Balance == 0 {
			return nil
		}
		var id AccountID
		if len(key) != len(id) {
			return errors.Wrapf(errors.ErrInvalidModel, "account key %x", key)
		}
		copy(id[:], key)
		gen.Balances = append(gen.Balances, GenesisBalance{Account: id, Amount: acc.Balance})
		return nil
	})
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(gen)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidModel, "encode ledger genesis: %s", err)
	}
	return raw, nil
}
