package vault

import (
	"encoding/json"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/gconf"
	"github.com/iov-one/custody/orm"
)

// Counters holds the latest id given out for every entity.
type Counters struct {
	Vaults       uint64 `json:"vaults"`
	Users        uint64 `json:"users"`
	Wallets      uint64 `json:"wallets"`
	Policies     uint64 `json:"policies"`
	Transactions uint64 `json:"transactions"`
}

// Checkpoint is the full state of the extension. It is the "vault" section
// of the genesis file and the result of an export.
type Checkpoint struct {
	Vaults       []*Vault       `json:"vaults"`
	Users        []*User        `json:"users"`
	Wallets      []*Wallet      `json:"wallets"`
	Transactions []*Transaction `json:"transactions"`
	Policies     []*Policy      `json:"policies"`
	Counters     Counters       `json:"counters"`
}

// Initializer fulfils the Initializer interface to load data from
// the genesis file
type Initializer struct{}

var _ custody.Initializer = Initializer{}

// FromGenesis stores the configuration and imports a checkpoint. Every
// sequence is moved past the largest imported id so an id is never given
// out twice.
func (Initializer) FromGenesis(opts custody.Options, db custody.KVStore) error {
	if err := gconf.InitConfig(db, opts, pkgName, &Configuration{}); err != nil {
		return errors.Wrap(err, "init config")
	}
	var cp Checkpoint
	if err := opts.ReadOptions(pkgName, &cp); err != nil {
		return errors.Wrapf(errors.ErrInvalidInput, "vault checkpoint: %s", err)
	}
	return Import(db, NewBuckets(), &cp)
}

// Import writes every entity of the checkpoint. Duplicate ids or addresses
// fail with ErrDuplicate. A user may only list vaults of the checkpoint in
// which it is an active member.
func Import(db custody.KVStore, b Buckets, cp *Checkpoint) error {
	var maxVault, maxUser, maxWallet, maxPolicy, maxTx uint64

	vaults := make(map[uint64]*Vault, len(cp.Vaults))
	for _, v := range cp.Vaults {
		if err := insert(db, b.Vaults, idKey(v.Id), v); err != nil {
			return errors.Wrapf(err, "vault %d", v.Id)
		}
		vaults[v.Id] = v
		maxVault = maxID(maxVault, v.Id)
	}
	for _, u := range cp.Users {
		if err := checkMembership(vaults, u); err != nil {
			return err
		}
		if err := insert(db, b.Users, []byte(u.Address), u); err != nil {
			return errors.Wrapf(err, "user %s", u.Address)
		}
		maxUser = maxID(maxUser, u.Id)
	}
	for _, w := range cp.Wallets {
		if err := insert(db, b.Wallets, idKey(w.Id), w); err != nil {
			return errors.Wrapf(err, "wallet %d", w.Id)
		}
		maxWallet = maxID(maxWallet, w.Id)
	}
	for _, p := range cp.Policies {
		if err := insert(db, b.Policies, idKey(p.Id), p); err != nil {
			return errors.Wrapf(err, "policy %d", p.Id)
		}
		maxPolicy = maxID(maxPolicy, p.Id)
	}
	for _, tx := range cp.Transactions {
		if err := insert(db, b.Transactions, idKey(tx.Id), tx); err != nil {
			return errors.Wrapf(err, "transaction %d", tx.Id)
		}
		maxTx = maxID(maxTx, tx.Id)
	}

	seqs := []struct {
		bucket orm.ModelBucket
		min    uint64
	}{
		{b.Vaults, maxID(maxVault, cp.Counters.Vaults)},
		{b.Users, maxID(maxUser, cp.Counters.Users)},
		{b.Wallets, maxID(maxWallet, cp.Counters.Wallets)},
		{b.Policies, maxID(maxPolicy, cp.Counters.Policies)},
		{b.Transactions, maxID(maxTx, cp.Counters.Transactions)},
	}
	for _, s := range seqs {
		seq, err := sequence(s.bucket)
		if err != nil {
			return err
		}
		if err := seq.SetMin(db, s.min); err != nil {
			return errors.Wrapf(err, "%s sequence", s.bucket.Name())
		}
	}
	return nil
}

// checkMembership keeps the user index in line with the vault members, as
// GetVaults trusts it without a role check.
func checkMembership(vaults map[uint64]*Vault, u *User) error {
	for _, id := range u.Vaults {
		v, ok := vaults[id]
		if !ok {
			return errors.Wrapf(errors.ErrInvalidInput, "user %s lists unknown vault %d", u.Address, id)
		}
		if mem, ok := v.Member(u.Address); !ok || mem.State != ObjectStateActive {
			return errors.Wrapf(errors.ErrInvalidInput, "user %s is not an active member of vault %d", u.Address, id)
		}
	}
	return nil
}

func sequence(bucket orm.ModelBucket) (orm.Sequence, error) {
	seq, ok := bucket.Sequence()
	if !ok {
		return seq, errors.Wrapf(errors.ErrHuman, "%s bucket has no id sequence", bucket.Name())
	}
	return seq, nil
}

func insert(db custody.KVStore, bucket orm.ModelBucket, key []byte, m orm.Model) error {
	switch err := bucket.Has(db, key); {
	case err == nil:
		return errors.Wrap(errors.ErrDuplicate, "already imported")
	case !errors.ErrNotFound.Is(err):
		return err
	}
	_, err := bucket.Put(db, key, m)
	return err
}

func maxID(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

// Export reads the whole state of the extension.
func Export(db custody.ReadOnlyKVStore, b Buckets) (*Checkpoint, error) {
	cp := Checkpoint{
		Vaults:       []*Vault{},
		Users:        []*User{},
		Wallets:      []*Wallet{},
		Transactions: []*Transaction{},
		Policies:     []*Policy{},
	}
	if err := b.Vaults.All(db, &cp.Vaults); err != nil {
		return nil, errors.Wrap(err, "vaults")
	}
	if err := b.Users.All(db, &cp.Users); err != nil {
		return nil, errors.Wrap(err, "users")
	}
	if err := b.Wallets.All(db, &cp.Wallets); err != nil {
		return nil, errors.Wrap(err, "wallets")
	}
	if err := b.Transactions.All(db, &cp.Transactions); err != nil {
		return nil, errors.Wrap(err, "transactions")
	}
	if err := b.Policies.All(db, &cp.Policies); err != nil {
		return nil, errors.Wrap(err, "policies")
	}

	counters := []struct {
		bucket orm.ModelBucket
		dst    *uint64
	}{
		{b.Vaults, &cp.Counters.Vaults},
		{b.Users, &cp.Counters.Users},
		{b.Wallets, &cp.Counters.Wallets},
		{b.Policies, &cp.Counters.Policies},
		{b.Transactions, &cp.Counters.Transactions},
	}
	for _, c := range counters {
		seq, err := sequence(c.bucket)
		if err != nil {
			return nil, err
		}
		n, err := seq.Latest(db)
		if err != nil {
			return nil, errors.Wrapf(err, "%s sequence", c.bucket.Name())
		}
		*c.dst = n
	}
	return &cp, nil
}

// Exporter writes the checkpoint back in the genesis format.
type Exporter struct{}

var _ custody.Exporter = Exporter{}

func (Exporter) ExportGenesis(db custody.ReadOnlyKVStore) (json.RawMessage, error) {
	cp, err := Export(db, NewBuckets())
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(cp)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidModel, "encode checkpoint: %s", err)
	}
	return raw, nil
}
