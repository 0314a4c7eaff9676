package vault

import (
	"encoding/json"
	"strconv"

	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

// Role of a vault member.
type Role int32

const (
	RoleAdmin  Role = 1
	RoleMember Role = 2
)

var roleName = map[int32]string{
	1: "Admin",
	2: "Member",
}

var roleValue = map[string]int32{
	"Admin":  1,
	"Member": 2,
}

func (r Role) String() string { return proto.EnumName(roleName, int32(r)) }

func (r Role) MarshalJSON() ([]byte, error) { return marshalEnum(roleName, int32(r)) }

func (r *Role) UnmarshalJSON(raw []byte) error {
	v, err := unmarshalEnum(roleValue, raw, "role")
	*r = Role(v)
	return err
}

// ObjectState tells if a vault, wallet, policy or member is in use.
type ObjectState int32

const (
	ObjectStateActive   ObjectState = 1
	ObjectStateArchived ObjectState = 2
)

var objectStateName = map[int32]string{
	1: "Active",
	2: "Archived",
}

var objectStateValue = map[string]int32{
	"Active":   1,
	"Archived": 2,
}

func (s ObjectState) String() string { return proto.EnumName(objectStateName, int32(s)) }

func (s ObjectState) MarshalJSON() ([]byte, error) { return marshalEnum(objectStateName, int32(s)) }

func (s *ObjectState) UnmarshalJSON(raw []byte) error {
	v, err := unmarshalEnum(objectStateValue, raw, "state")
	*s = ObjectState(v)
	return err
}

// TransactionState is the approval state of a transaction. Every state but
// Pending is terminal.
type TransactionState int32

const (
	TransactionPending  TransactionState = 1
	TransactionApproved TransactionState = 2
	TransactionRejected TransactionState = 3
	TransactionCanceled TransactionState = 4
)

var transactionStateName = map[int32]string{
	1: "Pending",
	2: "Approved",
	3: "Rejected",
	4: "Canceled",
}

var transactionStateValue = map[string]int32{
	"Pending":  1,
	"Approved": 2,
	"Rejected": 3,
	"Canceled": 4,
}

func (s TransactionState) String() string { return proto.EnumName(transactionStateName, int32(s)) }

func (s TransactionState) MarshalJSON() ([]byte, error) {
	return marshalEnum(transactionStateName, int32(s))
}

func (s *TransactionState) UnmarshalJSON(raw []byte) error {
	v, err := unmarshalEnum(transactionStateValue, raw, "transaction state")
	*s = TransactionState(v)
	return err
}

// Currency of a threshold policy.
type Currency int32

const (
	CurrencyICP Currency = 1
)

var currencyName = map[int32]string{
	1: "ICP",
}

var currencyValue = map[string]int32{
	"ICP": 1,
}

func (c Currency) String() string { return proto.EnumName(currencyName, int32(c)) }

func (c Currency) MarshalJSON() ([]byte, error) { return marshalEnum(currencyName, int32(c)) }

func (c *Currency) UnmarshalJSON(raw []byte) error {
	v, err := unmarshalEnum(currencyValue, raw, "currency")
	*c = Currency(v)
	return err
}

func marshalEnum(names map[int32]string, v int32) ([]byte, error) {
	if name, ok := names[v]; ok {
		return json.Marshal(name)
	}
	return json.Marshal(v)
}

// unmarshalEnum accepts both the name and the numeric value.
func unmarshalEnum(values map[string]int32, raw []byte, what string) (int32, error) {
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		if v, ok := values[name]; ok {
			return v, nil
		}
		return 0, errors.Wrapf(errors.ErrInvalidInput, "unknown %s %q", what, name)
	}
	n, err := strconv.ParseInt(string(raw), 10, 32)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrInvalidInput, "%s must be a name or a number", what)
	}
	return int32(n), nil
}

// Vault is a custody group. Members manage the linked wallets and policies.
type Vault struct {
	Id          uint64           `protobuf:"varint,1,opt,name=id,proto3" json:"id"`
	Name        string           `protobuf:"bytes,2,opt,name=name,proto3" json:"name"`
	Description string           `protobuf:"bytes,3,opt,name=description,proto3" json:"description,omitempty"`
	Wallets     []uint64         `protobuf:"varint,4,rep,packed,name=wallets,proto3" json:"wallets"`
	Policies    []uint64         `protobuf:"varint,5,rep,packed,name=policies,proto3" json:"policies"`
	Members     []*VaultMember   `protobuf:"bytes,6,rep,name=members,proto3" json:"members"`
	State       ObjectState      `protobuf:"varint,7,opt,name=state,proto3" json:"state"`
	CreatedAt   custody.UnixTime `protobuf:"varint,8,opt,name=created_at,json=createdAt,proto3" json:"created_at"`
	ModifiedAt  custody.UnixTime `protobuf:"varint,9,opt,name=modified_at,json=modifiedAt,proto3" json:"modified_at"`
}

func (m *Vault) Reset()         { *m = Vault{} }
func (m *Vault) String() string { return proto.CompactTextString(m) }
func (*Vault) ProtoMessage()    {}

// VaultMember is a user of a vault. Members are unique by address.
type VaultMember struct {
	Address string      `protobuf:"bytes,1,opt,name=address,proto3" json:"address"`
	Role    Role        `protobuf:"varint,2,opt,name=role,proto3" json:"role"`
	Name    string      `protobuf:"bytes,3,opt,name=name,proto3" json:"name,omitempty"`
	State   ObjectState `protobuf:"varint,4,opt,name=state,proto3" json:"state"`
}

func (m *VaultMember) Reset()         { *m = VaultMember{} }
func (m *VaultMember) String() string { return proto.CompactTextString(m) }
func (*VaultMember) ProtoMessage()    {}

// User maps an external identity to the vaults it is an active member of.
type User struct {
	Id      uint64   `protobuf:"varint,1,opt,name=id,proto3" json:"id"`
	Address string   `protobuf:"bytes,2,opt,name=address,proto3" json:"address"`
	Vaults  []uint64 `protobuf:"varint,3,rep,packed,name=vaults,proto3" json:"vaults"`
}

func (m *User) Reset()         { *m = User{} }
func (m *User) String() string { return proto.CompactTextString(m) }
func (*User) ProtoMessage()    {}

// Wallet is a ledger subaccount managed by a vault.
type Wallet struct {
	Id         uint64           `protobuf:"varint,1,opt,name=id,proto3" json:"id"`
	Name       string           `protobuf:"bytes,2,opt,name=name,proto3" json:"name,omitempty"`
	Vaults     []uint64         `protobuf:"varint,3,rep,packed,name=vaults,proto3" json:"vaults"`
	State      ObjectState      `protobuf:"varint,4,opt,name=state,proto3" json:"state"`
	CreatedAt  custody.UnixTime `protobuf:"varint,5,opt,name=created_at,json=createdAt,proto3" json:"created_at"`
	ModifiedAt custody.UnixTime `protobuf:"varint,6,opt,name=modified_at,json=modifiedAt,proto3" json:"modified_at"`
}

func (m *Wallet) Reset()         { *m = Wallet{} }
func (m *Wallet) String() string { return proto.CompactTextString(m) }
func (*Wallet) ProtoMessage()    {}

// Policy decides how many approvals a transaction of a vault needs.
type Policy struct {
	Id         uint64           `protobuf:"varint,1,opt,name=id,proto3" json:"id"`
	VaultId    uint64           `protobuf:"varint,2,opt,name=vault_id,json=vaultId,proto3" json:"vault_id"`
	State      ObjectState      `protobuf:"varint,3,opt,name=state,proto3" json:"state"`
	PolicyType *PolicyType      `protobuf:"bytes,4,opt,name=policy_type,json=policyType,proto3" json:"policy_type"`
	CreatedAt  custody.UnixTime `protobuf:"varint,5,opt,name=created_at,json=createdAt,proto3" json:"created_at"`
	ModifiedAt custody.UnixTime `protobuf:"varint,6,opt,name=modified_at,json=modifiedAt,proto3" json:"modified_at"`
}

func (m *Policy) Reset()         { *m = Policy{} }
func (m *Policy) String() string { return proto.CompactTextString(m) }
func (*Policy) ProtoMessage()    {}

// PolicyType holds exactly one policy variant.
type PolicyType struct {
	Threshold *ThresholdPolicy `protobuf:"bytes,1,opt,name=threshold_policy,json=thresholdPolicy,proto3" json:"threshold_policy,omitempty"`
}

func (m *PolicyType) Reset()         { *m = PolicyType{} }
func (m *PolicyType) String() string { return proto.CompactTextString(m) }
func (*PolicyType) ProtoMessage()    {}

// ThresholdPolicy applies to transactions of at least AmountThreshold and
// requires MemberThreshold approvals. Zero MemberThreshold means all active
// members at the time the transaction is registered. An empty wallet list
// applies the policy to every wallet of the vault.
type ThresholdPolicy struct {
	AmountThreshold uint64   `protobuf:"varint,1,opt,name=amount_threshold,json=amountThreshold,proto3" json:"amount_threshold"`
	Currency        Currency `protobuf:"varint,2,opt,name=currency,proto3" json:"currency"`
	MemberThreshold uint32   `protobuf:"varint,3,opt,name=member_threshold,json=memberThreshold,proto3" json:"member_threshold"`
	Wallets         []uint64 `protobuf:"varint,4,rep,packed,name=wallets,proto3" json:"wallets,omitempty"`
}

func (m *ThresholdPolicy) Reset()         { *m = ThresholdPolicy{} }
func (m *ThresholdPolicy) String() string { return proto.CompactTextString(m) }
func (*ThresholdPolicy) ProtoMessage()    {}

// Transaction is a proposed transfer out of a wallet. The threshold fields
// are copied from the policy at registration.
type Transaction struct {
	Id              uint64           `protobuf:"varint,1,opt,name=id,proto3" json:"id"`
	WalletId        uint64           `protobuf:"varint,2,opt,name=wallet_id,json=walletId,proto3" json:"wallet_id"`
	VaultId         uint64           `protobuf:"varint,3,opt,name=vault_id,json=vaultId,proto3" json:"vault_id"`
	To              string           `protobuf:"bytes,4,opt,name=to,proto3" json:"to"`
	Approves        []*Approve       `protobuf:"bytes,5,rep,name=approves,proto3" json:"approves"`
	Amount          uint64           `protobuf:"varint,6,opt,name=amount,proto3" json:"amount"`
	State           TransactionState `protobuf:"varint,7,opt,name=state,proto3" json:"state"`
	PolicyId        uint64           `protobuf:"varint,8,opt,name=policy_id,json=policyId,proto3" json:"policy_id"`
	BlockIndex      *uint64          `protobuf:"varint,9,opt,name=block_index,json=blockIndex" json:"block_index,omitempty"`
	AmountThreshold uint64           `protobuf:"varint,10,opt,name=amount_threshold,json=amountThreshold,proto3" json:"amount_threshold"`
	Currency        Currency         `protobuf:"varint,11,opt,name=currency,proto3" json:"currency"`
	MemberThreshold uint32           `protobuf:"varint,12,opt,name=member_threshold,json=memberThreshold,proto3" json:"member_threshold"`
	Owner           string           `protobuf:"bytes,13,opt,name=owner,proto3" json:"owner"`
	CreatedAt       custody.UnixTime `protobuf:"varint,14,opt,name=created_at,json=createdAt,proto3" json:"created_at"`
	ModifiedAt      custody.UnixTime `protobuf:"varint,15,opt,name=modified_at,json=modifiedAt,proto3" json:"modified_at"`
	Version         uint32           `protobuf:"varint,16,opt,name=version,proto3" json:"version"`
	TransferError   string           `protobuf:"bytes,17,opt,name=transfer_error,json=transferError,proto3" json:"transfer_error,omitempty"`
}

func (m *Transaction) Reset()         { *m = Transaction{} }
func (m *Transaction) String() string { return proto.CompactTextString(m) }
func (*Transaction) ProtoMessage()    {}

// Approve is the latest vote of a signer.
type Approve struct {
	Signer    string           `protobuf:"bytes,1,opt,name=signer,proto3" json:"signer"`
	CreatedAt custody.UnixTime `protobuf:"varint,2,opt,name=created_at,json=createdAt,proto3" json:"created_at"`
	Status    TransactionState `protobuf:"varint,3,opt,name=status,proto3" json:"status"`
}

func (m *Approve) Reset()         { *m = Approve{} }
func (m *Approve) String() string { return proto.CompactTextString(m) }
func (*Approve) ProtoMessage()    {}

// Configuration of the vault extension, kept in gconf.
type Configuration struct {
	// Owner is the principal all wallet subaccounts belong to.
	Owner custody.Address `protobuf:"bytes,1,opt,name=owner,proto3" json:"owner"`
	// LedgerFee is attached to every transfer.
	LedgerFee uint64 `protobuf:"varint,2,opt,name=ledger_fee,json=ledgerFee,proto3" json:"ledger_fee"`
}

func (m *Configuration) Reset()         { *m = Configuration{} }
func (m *Configuration) String() string { return proto.CompactTextString(m) }
func (*Configuration) ProtoMessage()    {}
