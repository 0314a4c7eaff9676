package vault

import (
	"testing"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/vaulttest"
	"github.com/iov-one/custody/vaulttest/assert"
	"github.com/stretchr/testify/require"
)

func TestEndToEndApproval(t *testing.T) {
	f := newFixture(t)
	a := vaulttest.NewCondition()
	b := vaulttest.NewCondition()

	v := f.must(t, a, &RegisterVaultMsg{Name: "V"}).(*Vault)
	assert.Equal(t, uint64(1), v.Id)
	require.Len(t, v.Policies, 1)

	w := f.registerWallet(t, a, v.Id)
	assert.Equal(t, uint64(1), w.Id)

	p := f.must(t, a, &RegisterPolicyMsg{VaultId: v.Id, PolicyType: &PolicyType{
		Threshold: &ThresholdPolicy{AmountThreshold: 100, Currency: CurrencyICP, MemberThreshold: 2},
	}}).(*Policy)
	assert.Equal(t, uint64(2), p.Id)

	f.addMember(t, a, v.Id, b, RoleMember)

	tx := f.must(t, a, &RegisterTransactionMsg{Amount: 50, Address: recipient(), WalletId: w.Id}).(*Transaction)
	assert.Equal(t, TransactionPending, tx.State)
	// 50 is below the threshold of the registered policy, the default one
	// governs and it requires every active member.
	assert.Equal(t, v.Policies[0], tx.PolicyId)
	assert.Equal(t, uint32(2), tx.MemberThreshold)

	tx = f.must(t, b, &ApproveTransactionMsg{TransactionId: tx.Id, State: TransactionApproved}).(*Transaction)
	assert.Equal(t, TransactionApproved, tx.State)
	require.NotNil(t, tx.BlockIndex)
	assert.Equal(t, 2, len(tx.Approves))

	// Above the threshold the registered policy governs.
	big := f.must(t, b, &RegisterTransactionMsg{Amount: 150, Address: recipient(), WalletId: w.Id}).(*Transaction)
	assert.Equal(t, p.Id, big.PolicyId)
	assert.Equal(t, uint64(100), big.AmountThreshold)

	// Editing the policy does not change the in flight transaction.
	edited := *p
	edited.PolicyType = &PolicyType{Threshold: &ThresholdPolicy{AmountThreshold: 100, Currency: CurrencyICP, MemberThreshold: 1}}
	f.must(t, a, &UpdatePolicyMsg{Policy: edited})
	big = f.must(t, a, &ApproveTransactionMsg{TransactionId: big.Id, State: TransactionRejected}).(*Transaction)
	assert.Equal(t, TransactionRejected, big.State)
	assert.Equal(t, uint32(2), big.MemberThreshold)
	assert.Equal(t, 1, len(f.ledger.Calls()))
}

func TestNonMemberLeavesStateUnchanged(t *testing.T) {
	f, admin, _, v, w := setupTransfer(t)
	tx := f.must(t, admin, &RegisterTransactionMsg{Amount: 5, Address: recipient(), WalletId: w.Id}).(*Transaction)
	p := f.must(t, admin, &GetPoliciesMsg{VaultId: v.Id}).([]*Policy)[0]
	outsider := vaulttest.NewCondition()

	msgs := map[string]custody.Msg{
		"update vault":    &UpdateVaultMsg{Vault: Vault{Id: v.Id, Name: "mine", State: ObjectStateActive}},
		"store member":    &StoreMemberMsg{VaultId: v.Id, Address: caller(outsider), Role: RoleAdmin, State: ObjectStateActive},
		"register wallet": &RegisterWalletMsg{VaultId: v.Id},
		"update wallet":   &UpdateWalletMsg{Wallet: Wallet{Id: w.Id, State: ObjectStateArchived}},
		"get wallets":     &GetWalletsMsg{VaultId: v.Id},
		"wallet address":  &WalletAddressMsg{WalletId: w.Id},
		"register policy": &RegisterPolicyMsg{VaultId: v.Id, PolicyType: DefaultPolicy()},
		"update policy":   &UpdatePolicyMsg{Policy: Policy{Id: p.Id, VaultId: v.Id, State: ObjectStateArchived, PolicyType: DefaultPolicy()}},
		"get policies":    &GetPoliciesMsg{VaultId: v.Id},
		"register tx":     &RegisterTransactionMsg{Amount: 5, Address: recipient(), WalletId: w.Id},
		"approve tx":      &ApproveTransactionMsg{TransactionId: tx.Id, State: TransactionApproved},
	}
	for testName, msg := range msgs {
		t.Run(testName, func(t *testing.T) {
			before := f.dump(t)
			_, err := f.deliver(outsider, msg)
			assert.IsErr(t, errors.ErrUnauthorized, err)
			assert.Equal(t, before, f.dump(t))
		})
	}
}

func TestMemberRoles(t *testing.T) {
	f, admin, member, v, w := setupTransfer(t)

	_, err := f.deliver(member, &RegisterWalletMsg{VaultId: v.Id})
	assert.IsErr(t, errors.ErrUnauthorized, err)
	_, err = f.deliver(member, &StoreMemberMsg{VaultId: v.Id, Address: caller(member), Role: RoleAdmin, State: ObjectStateActive})
	assert.IsErr(t, errors.ErrUnauthorized, err)

	wallets := f.must(t, member, &GetWalletsMsg{VaultId: v.Id}).([]*Wallet)
	require.Len(t, wallets, 1)
	assert.Equal(t, w.Id, wallets[0].Id)

	// Promoted, the member may manage the vault.
	f.addMember(t, admin, v.Id, member, RoleAdmin)
	f.registerWallet(t, member, v.Id)
}

func TestStoreMember(t *testing.T) {
	f, admin, member, v, _ := setupTransfer(t)

	// Addresses are stored in the canonical form whatever the input format.
	other := vaulttest.NewCondition()
	v = f.must(t, admin, &StoreMemberMsg{
		VaultId: v.Id,
		Address: "cond:" + other.String(),
		Role:    RoleMember,
		Name:    "other",
		State:   ObjectStateActive,
	}).(*Vault)
	mem, ok := v.Member(caller(other))
	require.True(t, ok)
	assert.Equal(t, "other", mem.Name)

	// Storing again replaces the record.
	f.addMember(t, admin, v.Id, other, RoleAdmin)
	vaults := f.must(t, other, &GetVaultsMsg{}).([]*Vault)
	require.Len(t, vaults, 1)
	require.Len(t, vaults[0].Members, 3)
	mem, _ = vaults[0].Member(caller(other))
	assert.Equal(t, RoleAdmin, mem.Role)

	// Archived members lose access.
	f.must(t, admin, &StoreMemberMsg{VaultId: v.Id, Address: caller(member), Role: RoleMember, State: ObjectStateArchived})
	vaults = f.must(t, member, &GetVaultsMsg{}).([]*Vault)
	assert.Equal(t, 0, len(vaults))
	_, err := f.deliver(member, &GetWalletsMsg{VaultId: v.Id})
	assert.IsErr(t, errors.ErrUnauthorized, err)
}

func TestLastAdminIsProtected(t *testing.T) {
	f := newFixture(t)
	admin := vaulttest.NewCondition()
	v := f.registerVault(t, admin)

	cases := map[string]*StoreMemberMsg{
		"demote":  {VaultId: v.Id, Address: caller(admin), Role: RoleMember, State: ObjectStateActive},
		"archive": {VaultId: v.Id, Address: caller(admin), Role: RoleAdmin, State: ObjectStateArchived},
	}
	for testName, msg := range cases {
		t.Run(testName, func(t *testing.T) {
			_, err := f.deliver(admin, msg)
			assert.IsErr(t, errors.ErrInvalidState, err)
		})
	}

	// With a second admin the first one may step down.
	second := vaulttest.NewCondition()
	f.addMember(t, admin, v.Id, second, RoleAdmin)
	f.must(t, admin, cases["demote"])
}

func TestUpdateVault(t *testing.T) {
	f, admin, member, v, w := setupTransfer(t)

	update := *v
	update.Name = "renamed"
	update.State = ObjectStateArchived
	// Members in the request are ignored.
	update.Members = []*VaultMember{{Address: caller(member), Role: RoleAdmin, State: ObjectStateActive}}
	got := f.must(t, admin, &UpdateVaultMsg{Vault: update}).(*Vault)
	assert.Equal(t, "renamed", got.Name)
	assert.Equal(t, ObjectStateArchived, got.State)
	assert.Equal(t, v.CreatedAt, got.CreatedAt)
	require.Len(t, got.Members, 2)
	assert.Equal(t, caller(admin), got.Members[0].Address)

	// An archived vault accepts nothing but an update.
	_, err := f.deliver(admin, &RegisterWalletMsg{VaultId: v.Id})
	assert.IsErr(t, errors.ErrInvalidState, err)
	_, err = f.deliver(admin, &RegisterTransactionMsg{Amount: 1, Address: recipient(), WalletId: w.Id})
	assert.IsErr(t, errors.ErrInvalidState, err)

	update.State = ObjectStateActive
	f.must(t, admin, &UpdateVaultMsg{Vault: update})
	f.must(t, admin, &RegisterTransactionMsg{Amount: 1, Address: recipient(), WalletId: w.Id})

	_, err = f.deliver(admin, &UpdateVaultMsg{Vault: Vault{Id: 404, Name: "x", State: ObjectStateActive}})
	assert.IsErr(t, errors.ErrNotFound, err)
}

func TestGetVaults(t *testing.T) {
	f := newFixture(t)
	alice := vaulttest.NewCondition()
	bob := vaulttest.NewCondition()

	first := f.registerVault(t, alice)
	f.registerVault(t, bob)
	third := f.registerVault(t, bob)
	f.addMember(t, bob, third.Id, alice, RoleMember)

	vaults := f.must(t, alice, &GetVaultsMsg{}).([]*Vault)
	require.Len(t, vaults, 2)
	assert.Equal(t, first.Id, vaults[0].Id)
	assert.Equal(t, third.Id, vaults[1].Id)

	vaults = f.must(t, vaulttest.NewCondition(), &GetVaultsMsg{}).([]*Vault)
	assert.Equal(t, 0, len(vaults))

	_, err := f.deliver(nil, &GetVaultsMsg{})
	assert.IsErr(t, errors.ErrUnauthorized, err)
}

func TestPolicies(t *testing.T) {
	f, admin, _, v, w := setupTransfer(t)
	other := vaulttest.NewCondition()
	ov := f.registerVault(t, other)
	ow := f.registerWallet(t, other, ov.Id)

	scoped := func(wallets ...uint64) *PolicyType {
		return &PolicyType{Threshold: &ThresholdPolicy{AmountThreshold: 10, Currency: CurrencyICP, MemberThreshold: 1, Wallets: wallets}}
	}

	p := f.must(t, admin, &RegisterPolicyMsg{VaultId: v.Id, PolicyType: scoped(w.Id)}).(*Policy)
	assert.Equal(t, v.Id, p.VaultId)
	assert.Equal(t, ObjectStateActive, p.State)

	_, err := f.deliver(admin, &RegisterPolicyMsg{VaultId: v.Id, PolicyType: scoped(ow.Id)})
	assert.IsErr(t, errors.ErrInvalidInput, err)

	// The stored vault wins over the one in the request.
	update := *p
	update.VaultId = ov.Id
	update.State = ObjectStateArchived
	got := f.must(t, admin, &UpdatePolicyMsg{Policy: update}).(*Policy)
	assert.Equal(t, v.Id, got.VaultId)
	assert.Equal(t, ObjectStateArchived, got.State)
	assert.Equal(t, p.CreatedAt, got.CreatedAt)

	_, err = f.deliver(other, &UpdatePolicyMsg{Policy: update})
	assert.IsErr(t, errors.ErrUnauthorized, err)

	_, err = f.deliver(admin, &UpdatePolicyMsg{Policy: Policy{Id: 404, State: ObjectStateActive, PolicyType: DefaultPolicy()}})
	assert.IsErr(t, errors.ErrNotFound, err)

	policies := f.must(t, admin, &GetPoliciesMsg{VaultId: v.Id}).([]*Policy)
	require.Len(t, policies, 2)
	assert.Equal(t, v.Policies[0], policies[0].Id)
	assert.Equal(t, p.Id, policies[1].Id)
}

func TestWalletAddress(t *testing.T) {
	f, admin, member, _, w := setupTransfer(t)

	addr := f.must(t, member, &WalletAddressMsg{WalletId: w.Id}).(string)
	assert.Equal(t, WalletAddress(f.owner, w.Id), addr)
	assert.Equal(t, 64, len(addr))
	assert.Equal(t, addr, f.must(t, admin, &WalletAddressMsg{WalletId: w.Id}).(string))

	if WalletAddress(f.owner, w.Id) == WalletAddress(f.owner, w.Id+1) {
		t.Fatal("different wallets share an address")
	}

	_, err := f.deliver(admin, &WalletAddressMsg{WalletId: 404})
	assert.IsErr(t, errors.ErrNotFound, err)
}

func TestUpdateWallet(t *testing.T) {
	f, admin, member, _, w := setupTransfer(t)

	update := *w
	update.Name = "savings"
	update.Vaults = []uint64{99}
	got := f.must(t, admin, &UpdateWalletMsg{Wallet: update}).(*Wallet)
	assert.Equal(t, "savings", got.Name)
	assert.Equal(t, w.Vaults, got.Vaults)

	_, err := f.deliver(member, &UpdateWalletMsg{Wallet: update})
	assert.IsErr(t, errors.ErrUnauthorized, err)
}

func TestSequencesStartAtOne(t *testing.T) {
	f := newFixture(t)
	admin := vaulttest.NewCondition()
	v := f.registerVault(t, admin)
	w := f.registerWallet(t, admin, v.Id)
	tx := f.must(t, admin, &RegisterTransactionMsg{Amount: 1, Address: recipient(), WalletId: w.Id}).(*Transaction)
	assert.Equal(t, uint64(1), v.Id)
	assert.Equal(t, []uint64{1}, v.Policies)
	assert.Equal(t, uint64(1), w.Id)
	assert.Equal(t, uint64(1), tx.Id)
	// A single admin meets the default policy alone, yet registration does
	// not approve.
	assert.Equal(t, uint32(1), tx.MemberThreshold)
	assert.Equal(t, TransactionPending, tx.State)
}
