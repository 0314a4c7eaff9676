package vault

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/x/ledger"
)

const (
	PathRegisterVault       = "vault/register_vault"
	PathUpdateVault         = "vault/update_vault"
	PathGetVaults           = "vault/get_vaults"
	PathStoreMember         = "vault/store_member"
	PathRegisterWallet      = "vault/register_wallet"
	PathUpdateWallet        = "vault/update_wallet"
	PathGetWallets          = "vault/get_wallets"
	PathWalletAddress       = "vault/wallet_address"
	PathRegisterPolicy      = "vault/register_policy"
	PathUpdatePolicy        = "vault/update_policy"
	PathGetPolicies         = "vault/get_policies"
	PathRegisterTransaction = "vault/register_transaction"
	PathGetTransactions     = "vault/get_transactions"
	PathApproveTransaction  = "vault/approve_transaction"
)

// RegisterVaultMsg creates a vault with the signer as its admin.
type RegisterVaultMsg struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

var _ custody.Msg = (*RegisterVaultMsg)(nil)

func (RegisterVaultMsg) Path() string { return PathRegisterVault }

func (m *RegisterVaultMsg) Validate() error {
	if err := validateName(m.Name, true); err != nil {
		return err
	}
	if len(m.Description) > maxDescriptionLength {
		return errors.Wrap(errors.ErrInvalidInput, "description too long")
	}
	return nil
}

// UpdateVaultMsg carries the full vault record. Only the name, description
// and state are applied.
type UpdateVaultMsg struct {
	Vault Vault `json:"vault"`
}

var _ custody.Msg = (*UpdateVaultMsg)(nil)

func (UpdateVaultMsg) Path() string { return PathUpdateVault }

func (m *UpdateVaultMsg) Validate() error {
	if m.Vault.Id == 0 {
		return errors.Wrap(errors.ErrEmpty, "vault id")
	}
	if err := validateName(m.Vault.Name, true); err != nil {
		return err
	}
	if len(m.Vault.Description) > maxDescriptionLength {
		return errors.Wrap(errors.ErrInvalidInput, "description too long")
	}
	return validateState(m.Vault.State)
}

// GetVaultsMsg lists the vaults the signer is an active member of.
type GetVaultsMsg struct{}

var _ custody.Msg = (*GetVaultsMsg)(nil)

func (GetVaultsMsg) Path() string     { return PathGetVaults }
func (*GetVaultsMsg) Validate() error { return nil }

// StoreMemberMsg adds a vault member, or replaces the role, name and state
// of an existing one.
type StoreMemberMsg struct {
	VaultId uint64      `json:"vault_id"`
	Address string      `json:"address"`
	Role    Role        `json:"role"`
	Name    string      `json:"name,omitempty"`
	State   ObjectState `json:"state"`
}

var _ custody.Msg = (*StoreMemberMsg)(nil)

func (StoreMemberMsg) Path() string { return PathStoreMember }

func (m *StoreMemberMsg) Validate() error {
	if m.VaultId == 0 {
		return errors.Wrap(errors.ErrEmpty, "vault id")
	}
	if _, err := custody.ParseAddress(m.Address); err != nil {
		return errors.Wrap(err, "address")
	}
	if err := validateRole(m.Role); err != nil {
		return err
	}
	if len(m.Name) > maxNameLength {
		return errors.Wrap(errors.ErrInvalidInput, "name too long")
	}
	return validateState(m.State)
}

// RegisterWalletMsg creates a wallet linked to the vault.
type RegisterWalletMsg struct {
	VaultId uint64 `json:"vault_id"`
	Name    string `json:"name,omitempty"`
}

var _ custody.Msg = (*RegisterWalletMsg)(nil)

func (RegisterWalletMsg) Path() string { return PathRegisterWallet }

func (m *RegisterWalletMsg) Validate() error {
	if m.VaultId == 0 {
		return errors.Wrap(errors.ErrEmpty, "vault id")
	}
	return validateName(m.Name, false)
}

// UpdateWalletMsg carries the full wallet record. Only the name and state
// are applied.
type UpdateWalletMsg struct {
	Wallet Wallet `json:"wallet"`
}

var _ custody.Msg = (*UpdateWalletMsg)(nil)

func (UpdateWalletMsg) Path() string { return PathUpdateWallet }

func (m *UpdateWalletMsg) Validate() error {
	if m.Wallet.Id == 0 {
		return errors.Wrap(errors.ErrEmpty, "wallet id")
	}
	if err := validateName(m.Wallet.Name, false); err != nil {
		return err
	}
	return validateState(m.Wallet.State)
}

// GetWalletsMsg lists the wallets of a vault.
type GetWalletsMsg struct {
	VaultId uint64 `json:"vault_id"`
}

var _ custody.Msg = (*GetWalletsMsg)(nil)

func (GetWalletsMsg) Path() string { return PathGetWallets }

func (m *GetWalletsMsg) Validate() error {
	if m.VaultId == 0 {
		return errors.Wrap(errors.ErrEmpty, "vault id")
	}
	return nil
}

// WalletAddressMsg asks for the ledger account identifier of a wallet.
type WalletAddressMsg struct {
	WalletId uint64 `json:"wallet_id"`
}

var _ custody.Msg = (*WalletAddressMsg)(nil)

func (WalletAddressMsg) Path() string { return PathWalletAddress }

func (m *WalletAddressMsg) Validate() error {
	if m.WalletId == 0 {
		return errors.Wrap(errors.ErrEmpty, "wallet id")
	}
	return nil
}

// RegisterPolicyMsg creates a policy for the vault.
type RegisterPolicyMsg struct {
	VaultId    uint64      `json:"vault_id"`
	PolicyType *PolicyType `json:"policy_type"`
}

var _ custody.Msg = (*RegisterPolicyMsg)(nil)

func (RegisterPolicyMsg) Path() string { return PathRegisterPolicy }

func (m *RegisterPolicyMsg) Validate() error {
	if m.VaultId == 0 {
		return errors.Wrap(errors.ErrEmpty, "vault id")
	}
	return m.PolicyType.Validate()
}

// UpdatePolicyMsg carries the full policy record. Only the policy type and
// state are applied.
type UpdatePolicyMsg struct {
	Policy Policy `json:"policy"`
}

var _ custody.Msg = (*UpdatePolicyMsg)(nil)

func (UpdatePolicyMsg) Path() string { return PathUpdatePolicy }

func (m *UpdatePolicyMsg) Validate() error {
	if m.Policy.Id == 0 {
		return errors.Wrap(errors.ErrEmpty, "policy id")
	}
	if err := validateState(m.Policy.State); err != nil {
		return err
	}
	return m.Policy.PolicyType.Validate()
}

// GetPoliciesMsg lists the policies of a vault.
type GetPoliciesMsg struct {
	VaultId uint64 `json:"vault_id"`
}

var _ custody.Msg = (*GetPoliciesMsg)(nil)

func (GetPoliciesMsg) Path() string { return PathGetPolicies }

func (m *GetPoliciesMsg) Validate() error {
	if m.VaultId == 0 {
		return errors.Wrap(errors.ErrEmpty, "vault id")
	}
	return nil
}

// RegisterTransactionMsg proposes a transfer out of a wallet. Address is the
// hex account identifier of the recipient.
type RegisterTransactionMsg struct {
	Amount   uint64 `json:"amount"`
	Address  string `json:"address"`
	WalletId uint64 `json:"wallet_id"`
}

var _ custody.Msg = (*RegisterTransactionMsg)(nil)

func (RegisterTransactionMsg) Path() string { return PathRegisterTransaction }

func (m *RegisterTransactionMsg) Validate() error {
	if m.Amount == 0 {
		return errors.Wrap(errors.ErrInvalidAmount, "zero amount")
	}
	if m.WalletId == 0 {
		return errors.Wrap(errors.ErrEmpty, "wallet id")
	}
	if _, err := ledger.ParseAccountID(m.Address); err != nil {
		return errors.Wrap(err, "address")
	}
	return nil
}

// GetTransactionsMsg lists the transactions of every vault the signer is an
// active member of.
type GetTransactionsMsg struct{}

var _ custody.Msg = (*GetTransactionsMsg)(nil)

func (GetTransactionsMsg) Path() string     { return PathGetTransactions }
func (*GetTransactionsMsg) Validate() error { return nil }

// ApproveTransactionMsg records the vote of the signer. State must be
// Approved, Rejected or Canceled.
type ApproveTransactionMsg struct {
	TransactionId uint64           `json:"transaction_id"`
	State         TransactionState `json:"state"`
}

var _ custody.Msg = (*ApproveTransactionMsg)(nil)

func (ApproveTransactionMsg) Path() string { return PathApproveTransaction }

func (m *ApproveTransactionMsg) Validate() error {
	if m.TransactionId == 0 {
		return errors.Wrap(errors.ErrEmpty, "transaction id")
	}
	switch m.State {
	case TransactionApproved, TransactionRejected, TransactionCanceled:
		return nil
	case TransactionPending:
		return errors.Wrap(errors.ErrInvalidInput, "cannot vote pending")
	default:
		return errors.Wrapf(errors.ErrInvalidInput, "state %d", m.State)
	}
}
