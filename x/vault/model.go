package vault

import (
	"sort"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/gconf"
	"github.com/iov-one/custody/orm"
	"github.com/iov-one/custody/x/ledger"
)

const (
	pkgName = "vault"

	maxNameLength        = 128
	maxDescriptionLength = 1024
)

var _ orm.Model = (*Vault)(nil)

// Validate ensures the vault is valid
func (m *Vault) Validate() error {
	if m.Id == 0 {
		return errors.Wrap(errors.ErrEmpty, "id")
	}
	if err := validateName(m.Name, true); err != nil {
		return err
	}
	if len(m.Description) > maxDescriptionLength {
		return errors.Wrap(errors.ErrInvalidInput, "description too long")
	}
	if err := validateState(m.State); err != nil {
		return err
	}
	if len(m.Members) == 0 {
		return errors.Wrap(errors.ErrEmpty, "members")
	}
	seen := make(map[string]bool, len(m.Members))
	for i, mem := range m.Members {
		if err := mem.Validate(); err != nil {
			return errors.Wrapf(err, "member %d", i)
		}
		if seen[mem.Address] {
			return errors.Wrapf(errors.ErrDuplicate, "member %s", mem.Address)
		}
		seen[mem.Address] = true
	}
	if err := validateIDs(m.Wallets, "wallets"); err != nil {
		return err
	}
	if err := validateIDs(m.Policies, "policies"); err != nil {
		return err
	}
	return validateTimes(m.CreatedAt, m.ModifiedAt)
}

// Member returns the member with the given address.
func (m *Vault) Member(address string) (*VaultMember, bool) {
	for _, mem := range m.Members {
		if mem.Address == address {
			return mem, true
		}
	}
	return nil, false
}

// ActiveMembers returns the number of members that are not archived.
func (m *Vault) ActiveMembers() int {
	var n int
	for _, mem := range m.Members {
		if mem.State == ObjectStateActive {
			n++
		}
	}
	return n
}

func (m *Vault) activeAdmins() int {
	var n int
	for _, mem := range m.Members {
		if mem.State == ObjectStateActive && mem.Role == RoleAdmin {
			n++
		}
	}
	return n
}

func (m *VaultMember) Validate() error {
	if err := validateIdentity(m.Address); err != nil {
		return err
	}
	if err := validateRole(m.Role); err != nil {
		return err
	}
	if len(m.Name) > maxNameLength {
		return errors.Wrap(errors.ErrInvalidInput, "name too long")
	}
	return validateState(m.State)
}

var _ orm.Model = (*User)(nil)

func (m *User) Validate() error {
	if m.Id == 0 {
		return errors.Wrap(errors.ErrEmpty, "id")
	}
	if err := validateIdentity(m.Address); err != nil {
		return err
	}
	return validateIDs(m.Vaults, "vaults")
}

var _ orm.Model = (*Wallet)(nil)

func (m *Wallet) Validate() error {
	if m.Id == 0 {
		return errors.Wrap(errors.ErrEmpty, "id")
	}
	if err := validateName(m.Name, false); err != nil {
		return err
	}
	if len(m.Vaults) == 0 {
		return errors.Wrap(errors.ErrEmpty, "vaults")
	}
	if err := validateIDs(m.Vaults, "vaults"); err != nil {
		return err
	}
	if err := validateState(m.State); err != nil {
		return err
	}
	return validateTimes(m.CreatedAt, m.ModifiedAt)
}

var _ orm.Model = (*Policy)(nil)

func (m *Policy) Validate() error {
	if m.Id == 0 {
		return errors.Wrap(errors.ErrEmpty, "id")
	}
	if m.VaultId == 0 {
		return errors.Wrap(errors.ErrEmpty, "vault id")
	}
	if err := validateState(m.State); err != nil {
		return err
	}
	if err := m.PolicyType.Validate(); err != nil {
		return errors.Wrap(err, "policy type")
	}
	return validateTimes(m.CreatedAt, m.ModifiedAt)
}

// Validate returns an error unless exactly one variant is set.
func (m *PolicyType) Validate() error {
	if m == nil {
		return errors.Wrap(errors.ErrEmpty, "policy type")
	}
	r, err := m.rule()
	if err != nil {
		return err
	}
	return r.Validate()
}

func (m *ThresholdPolicy) Validate() error {
	if m.Currency != CurrencyICP {
		return errors.Wrapf(errors.ErrInvalidInput, "currency %d", m.Currency)
	}
	return validateIDs(m.Wallets, "wallets")
}

var _ orm.Model = (*Transaction)(nil)

func (m *Transaction) Validate() error {
	switch {
	case m.Id == 0:
		return errors.Wrap(errors.ErrEmpty, "id")
	case m.WalletId == 0:
		return errors.Wrap(errors.ErrEmpty, "wallet id")
	case m.VaultId == 0:
		return errors.Wrap(errors.ErrEmpty, "vault id")
	case m.PolicyId == 0:
		return errors.Wrap(errors.ErrEmpty, "policy id")
	case m.Amount == 0:
		return errors.Wrap(errors.ErrInvalidAmount, "zero amount")
	case m.Version == 0:
		return errors.Wrap(errors.ErrEmpty, "version")
	}
	if _, err := ledger.ParseAccountID(m.To); err != nil {
		return errors.Wrap(err, "to")
	}
	if err := validateIdentity(m.Owner); err != nil {
		return errors.Wrap(err, "owner")
	}
	if _, ok := transactionStateName[int32(m.State)]; !ok {
		return errors.Wrapf(errors.ErrInvalidState, "state %d", m.State)
	}
	if m.BlockIndex != nil && m.State != TransactionApproved {
		return errors.Wrap(errors.ErrInvalidState, "block index on a transaction that is not approved")
	}
	seen := make(map[string]bool, len(m.Approves))
	for _, a := range m.Approves {
		if err := validateIdentity(a.Signer); err != nil {
			return errors.Wrap(err, "signer")
		}
		if seen[a.Signer] {
			return errors.Wrapf(errors.ErrDuplicate, "approve of %s", a.Signer)
		}
		seen[a.Signer] = true
		if a.Status == TransactionPending {
			return errors.Wrap(errors.ErrInvalidState, "pending vote")
		}
	}
	return validateTimes(m.CreatedAt, m.ModifiedAt)
}

var _ orm.Model = (*Configuration)(nil)

func (m *Configuration) Validate() error {
	if err := m.Owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	return nil
}

func loadConf(db gconf.ReadStore) (*Configuration, error) {
	var conf Configuration
	if err := gconf.Load(db, pkgName, &conf); err != nil {
		return nil, errors.Wrap(err, "load configuration")
	}
	return &conf, nil
}

func validateName(name string, required bool) error {
	if required && name == "" {
		return errors.Wrap(errors.ErrEmpty, "name")
	}
	if len(name) > maxNameLength {
		return errors.Wrap(errors.ErrInvalidInput, "name too long")
	}
	return nil
}

func validateState(s ObjectState) error {
	if _, ok := objectStateName[int32(s)]; !ok {
		return errors.Wrapf(errors.ErrInvalidInput, "state %d", s)
	}
	return nil
}

func validateRole(r Role) error {
	if _, ok := roleName[int32(r)]; !ok {
		return errors.Wrapf(errors.ErrInvalidInput, "role %d", r)
	}
	return nil
}

// validateIdentity accepts the canonical address form used as user key.
func validateIdentity(address string) error {
	addr, err := custody.ParseAddress(address)
	if err != nil {
		return errors.Wrapf(err, "address %q", address)
	}
	if addr.String() != address {
		return errors.Wrapf(errors.ErrInvalidInput, "address %q is not canonical", address)
	}
	return nil
}

func validateIDs(ids []uint64, what string) error {
	seen := make(map[uint64]bool, len(ids))
	for _, id := range ids {
		if id == 0 {
			return errors.Wrapf(errors.ErrInvalidInput, "%s: zero id", what)
		}
		if seen[id] {
			return errors.Wrapf(errors.ErrDuplicate, "%s: %d", what, id)
		}
		seen[id] = true
	}
	return nil
}

func validateTimes(created, modified custody.UnixTime) error {
	if err := created.Validate(); err != nil {
		return errors.Wrap(err, "created at")
	}
	if modified < created {
		return errors.Wrap(errors.ErrInvalidState, "modified before created")
	}
	return nil
}

func containsID(ids []uint64, id uint64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func removeID(ids []uint64, id uint64) []uint64 {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// Buckets holds every table of the extension.
type Buckets struct {
	Vaults       orm.ModelBucket
	Users        orm.ModelBucket
	Wallets      orm.ModelBucket
	Policies     orm.ModelBucket
	Transactions orm.ModelBucket
}

// NewBuckets returns the vault buckets. Every entity takes its id from its
// own sequence, users are keyed by address.
func NewBuckets() Buckets {
	return Buckets{
		Vaults: orm.NewModelBucket("vault", &Vault{},
			orm.WithIDSequence(orm.NewSequence("vault", "id"))),
		Users: orm.NewModelBucket("user", &User{},
			orm.WithIDSequence(orm.NewSequence("user", "id"))),
		Wallets: orm.NewModelBucket("wallet", &Wallet{},
			orm.WithIDSequence(orm.NewSequence("wallet", "id"))),
		Policies: orm.NewModelBucket("policy", &Policy{},
			orm.WithIDSequence(orm.NewSequence("policy", "id"))),
		Transactions: orm.NewModelBucket("txn", &Transaction{},
			orm.WithIDSequence(orm.NewSequence("txn", "id"))),
	}
}

func idKey(id uint64) []byte {
	return orm.EncodeSequence(id)
}

func (b Buckets) vault(db custody.ReadOnlyKVStore, id uint64) (*Vault, error) {
	var v Vault
	if err := b.Vaults.One(db, idKey(id), &v); err != nil {
		return nil, notRegistered(err, "vault", id)
	}
	return &v, nil
}

func (b Buckets) wallet(db custody.ReadOnlyKVStore, id uint64) (*Wallet, error) {
	var w Wallet
	if err := b.Wallets.One(db, idKey(id), &w); err != nil {
		return nil, notRegistered(err, "wallet", id)
	}
	return &w, nil
}

func (b Buckets) policy(db custody.ReadOnlyKVStore, id uint64) (*Policy, error) {
	var p Policy
	if err := b.Policies.One(db, idKey(id), &p); err != nil {
		return nil, notRegistered(err, "policy", id)
	}
	return &p, nil
}

func (b Buckets) transaction(db custody.ReadOnlyKVStore, id uint64) (*Transaction, error) {
	var t Transaction
	if err := b.Transactions.One(db, idKey(id), &t); err != nil {
		return nil, notRegistered(err, "transaction", id)
	}
	return &t, nil
}

// user returns nil if no user with the address exists.
func (b Buckets) user(db custody.ReadOnlyKVStore, address string) (*User, error) {
	var u User
	switch err := b.Users.One(db, []byte(address), &u); {
	case err == nil:
		return &u, nil
	case errors.ErrNotFound.Is(err):
		return nil, nil
	default:
		return nil, err
	}
}

// linkUser adds the vault to the user index, creating the user on first
// reference.
func (b Buckets) linkUser(db custody.KVStore, address string, vaultID uint64) error {
	u, err := b.user(db, address)
	if err != nil {
		return err
	}
	if u == nil {
		id, err := b.Users.NextID(db)
		if err != nil {
			return errors.Wrap(err, "user id")
		}
		u = &User{Id: id, Address: address}
	}
	if containsID(u.Vaults, vaultID) {
		return nil
	}
	u.Vaults = append(u.Vaults, vaultID)
	_, err = b.Users.Put(db, []byte(address), u)
	return err
}

func (b Buckets) unlinkUser(db custody.KVStore, address string, vaultID uint64) error {
	u, err := b.user(db, address)
	if err != nil || u == nil {
		return err
	}
	if !containsID(u.Vaults, vaultID) {
		return nil
	}
	u.Vaults = removeID(u.Vaults, vaultID)
	_, err = b.Users.Put(db, []byte(address), u)
	return err
}

func (b Buckets) save(db custody.KVStore, id uint64, bucket orm.ModelBucket, m orm.Model) error {
	if _, err := bucket.Put(db, idKey(id), m); err != nil {
		return errors.Wrapf(err, "cannot store %s %d", bucket.Name(), id)
	}
	return nil
}

func notRegistered(err error, what string, id uint64) error {
	if errors.ErrNotFound.Is(err) {
		return errors.Wrapf(errors.ErrNotFound, "%s %d not registered", what, id)
	}
	return err
}

func sortIDs(ids []uint64) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
