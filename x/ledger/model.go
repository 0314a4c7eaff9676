package ledger

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/gconf"
	"github.com/iov-one/custody/orm"
)

const pkgName = "ledger"

// Account holds the balance of a single account identifier.
type Account struct {
	Balance uint64 `protobuf:"varint,1,opt,name=balance,proto3" json:"balance,omitempty"`
}

func (m *Account) Reset()         { *m = Account{} }
func (m *Account) String() string { return proto.CompactTextString(m) }
func (*Account) ProtoMessage()    {}

func (m *Account) Validate() error {
	return nil
}

// Block records one executed transfer. Its key is the block index.
type Block struct {
	From      []byte           `protobuf:"bytes,1,opt,name=from,proto3" json:"from,omitempty"`
	To        []byte           `protobuf:"bytes,2,opt,name=to,proto3" json:"to,omitempty"`
	Amount    uint64           `protobuf:"varint,3,opt,name=amount,proto3" json:"amount,omitempty"`
	Fee       uint64           `protobuf:"varint,4,opt,name=fee,proto3" json:"fee,omitempty"`
	Memo      uint64           `protobuf:"varint,5,opt,name=memo,proto3" json:"memo,omitempty"`
	CreatedAt custody.UnixTime `protobuf:"varint,6,opt,name=created_at,json=createdAt,proto3" json:"created_at,omitempty"`
}

func (m *Block) Reset()         { *m = Block{} }
func (m *Block) String() string { return proto.CompactTextString(m) }
func (*Block) ProtoMessage()    {}

func (m *Block) Validate() error {
	if len(m.From) != len(AccountID{}) {
		return errors.Wrap(errors.ErrInvalidModel, "from")
	}
	if len(m.To) != len(AccountID{}) {
		return errors.Wrap(errors.ErrInvalidModel, "to")
	}
	if m.Amount == 0 {
		return errors.Wrap(errors.ErrInvalidAmount, "zero amount")
	}
	return m.CreatedAt.Validate()
}

// Configuration is the ledger configuration kept in gconf.
type Configuration struct {
	// Fee every transfer must declare. It is burned.
	Fee uint64 `protobuf:"varint,1,opt,name=fee,proto3" json:"fee,omitempty"`
}

func (m *Configuration) Reset()         { *m = Configuration{} }
func (m *Configuration) String() string { return proto.CompactTextString(m) }
func (*Configuration) ProtoMessage()    {}

func (m *Configuration) Validate() error {
	return nil
}

func loadConf(db gconf.ReadStore) (*Configuration, error) {
	var conf Configuration
	if err := gconf.Load(db, pkgName, &conf); err != nil {
		return nil, errors.Wrap(err, "load configuration")
	}
	return &conf, nil
}

// NewAccountBucket returns the bucket of balances keyed by account id.
func NewAccountBucket() orm.ModelBucket {
	return orm.NewModelBucket("account", &Account{})
}

// NewBlockBucket returns the bucket of executed transfers keyed by block
// index.
func NewBlockBucket() orm.ModelBucket {
	return orm.NewModelBucket("block", &Block{},
		orm.WithIDSequence(orm.NewSequence("block", "id")))
}

func balance(db custody.ReadOnlyKVStore, accounts orm.ModelBucket, id AccountID) (uint64, error) {
	var acc Account
	switch err := accounts.One(db, id[:], &acc); {
	case err == nil:
		return acc.Balance, nil
	case errors.ErrNotFound.Is(err):
		return 0, nil
	default:
		return 0, err
	}
}

func credit(db custody.KVStore, accounts orm.ModelBucket, id AccountID, amount uint64) error {
	bal, err := balance(db, accounts, id)
	if err != nil {
		return err
	}
	if bal+amount < bal {
		return errors.Wrapf(errors.ErrOverflow, "account %s", id)
	}
	_, err = accounts.Put(db, id[:], &Account{Balance: bal + amount})
	return err
}
