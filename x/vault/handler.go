package vault

import (
	"context"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/x"
)

// RegisterRoutes registers every vault handler. Transfers of approved
// transactions are executed by t.
func RegisterRoutes(r custody.Registry, auth x.Authenticator, t Transferer) {
	b := NewBuckets()
	r.Handle(&RegisterVaultMsg{}, RegisterVaultHandler{auth: auth, b: b})
	r.Handle(&UpdateVaultMsg{}, UpdateVaultHandler{auth: auth, b: b})
	r.Handle(&GetVaultsMsg{}, GetVaultsHandler{auth: auth, b: b})
	r.Handle(&StoreMemberMsg{}, StoreMemberHandler{auth: auth, b: b})
	r.Handle(&RegisterWalletMsg{}, RegisterWalletHandler{auth: auth, b: b})
	r.Handle(&UpdateWalletMsg{}, UpdateWalletHandler{auth: auth, b: b})
	r.Handle(&GetWalletsMsg{}, GetWalletsHandler{auth: auth, b: b})
	r.Handle(&WalletAddressMsg{}, WalletAddressHandler{auth: auth, b: b})
	r.Handle(&RegisterPolicyMsg{}, RegisterPolicyHandler{auth: auth, b: b})
	r.Handle(&UpdatePolicyMsg{}, UpdatePolicyHandler{auth: auth, b: b})
	r.Handle(&GetPoliciesMsg{}, GetPoliciesHandler{auth: auth, b: b})
	r.Handle(&RegisterTransactionMsg{}, RegisterTransactionHandler{auth: auth, b: b})
	r.Handle(&GetTransactionsMsg{}, GetTransactionsHandler{auth: auth, b: b})
	r.Handle(&ApproveTransactionMsg{}, ApproveTransactionHandler{auth: auth, b: b, transfers: t})
}

// request is what every handler extracts before touching the state.
type request struct {
	caller string
	now    custody.UnixTime
}

func loadRequest(ctx context.Context, auth x.Authenticator, m custody.Msg, dst custody.Msg) (request, error) {
	if err := custody.LoadMsg(m, dst); err != nil {
		return request{}, errors.Wrap(err, "load msg")
	}
	caller, err := x.Caller(ctx, auth)
	if err != nil {
		return request{}, err
	}
	now, err := custody.Now(ctx)
	if err != nil {
		return request{}, err
	}
	return request{caller: caller, now: now}, nil
}

// RegisterVaultHandler creates a vault administered by the signer, together
// with its default policy.
type RegisterVaultHandler struct {
	auth x.Authenticator
	b    Buckets
}

var _ custody.Handler = RegisterVaultHandler{}

func (h RegisterVaultHandler) Deliver(ctx context.Context, ex custody.Executor, m custody.Msg) (*custody.DeliverResult, error) {
	var msg RegisterVaultMsg
	req, err := loadRequest(ctx, h.auth, m, &msg)
	if err != nil {
		return nil, err
	}

	var v *Vault
	err = ex.Update(ctx, func(db custody.KVStore) error {
		vaultID, err := h.b.Vaults.NextID(db)
		if err != nil {
			return errors.Wrap(err, "vault id")
		}
		policyID, err := h.b.Policies.NextID(db)
		if err != nil {
			return errors.Wrap(err, "policy id")
		}
		p := &Policy{
			Id:         policyID,
			VaultId:    vaultID,
			State:      ObjectStateActive,
			PolicyType: DefaultPolicy(),
			CreatedAt:  req.now,
			ModifiedAt: req.now,
		}
		if err := h.b.save(db, p.Id, h.b.Policies, p); err != nil {
			return err
		}
		v = &Vault{
			Id:          vaultID,
			Name:        msg.Name,
			Description: msg.Description,
			Wallets:     []uint64{},
			Policies:    []uint64{policyID},
			Members: []*VaultMember{
				{Address: req.caller, Role: RoleAdmin, State: ObjectStateActive},
			},
			State:      ObjectStateActive,
			CreatedAt:  req.now,
			ModifiedAt: req.now,
		}
		if err := h.b.save(db, v.Id, h.b.Vaults, v); err != nil {
			return err
		}
		return h.b.linkUser(db, req.caller, v.Id)
	})
	if err != nil {
		return nil, err
	}
	return &custody.DeliverResult{Data: v}, nil
}

// UpdateVaultHandler renames, describes, archives or restores a vault.
// It is the only operation allowed on an archived vault.
type UpdateVaultHandler struct {
	auth x.Authenticator
	b    Buckets
}

var _ custody.Handler = UpdateVaultHandler{}

func (h UpdateVaultHandler) Deliver(ctx context.Context, ex custody.Executor, m custody.Msg) (*custody.DeliverResult, error) {
	var msg UpdateVaultMsg
	req, err := loadRequest(ctx, h.auth, m, &msg)
	if err != nil {
		return nil, err
	}

	var v *Vault
	err = ex.Update(ctx, func(db custody.KVStore) error {
		var err error
		if v, err = h.b.vault(db, msg.Vault.Id); err != nil {
			return err
		}
		if _, err := requireRole(v, req.caller, RoleAdmin); err != nil {
			return err
		}
		v.Name = msg.Vault.Name
		v.Description = msg.Vault.Description
		v.State = msg.Vault.State
		v.ModifiedAt = req.now
		return h.b.save(db, v.Id, h.b.Vaults, v)
	})
	if err != nil {
		return nil, err
	}
	return &custody.DeliverResult{Data: v}, nil
}

// GetVaultsHandler lists the vaults the signer is an active member of,
// ordered by id. An unknown signer has no vaults.
type GetVaultsHandler struct {
	auth x.Authenticator
	b    Buckets
}

var _ custody.Handler = GetVaultsHandler{}

func (h GetVaultsHandler) Deliver(ctx context.Context, ex custody.Executor, m custody.Msg) (*custody.DeliverResult, error) {
	var msg GetVaultsMsg
	if err := custody.LoadMsg(m, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	caller, err := x.Caller(ctx, h.auth)
	if err != nil {
		return nil, err
	}

	res := []*Vault{}
	err = ex.View(ctx, func(db custody.ReadOnlyKVStore) error {
		u, err := h.b.user(db, caller)
		if err != nil || u == nil {
			return err
		}
		ids := append([]uint64(nil), u.Vaults...)
		sortIDs(ids)
		for _, id := range ids {
			v, err := h.b.vault(db, id)
			if err != nil {
				return err
			}
			res = append(res, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &custody.DeliverResult{Data: res}, nil
}

// StoreMemberHandler adds a member to a vault or replaces the role, name and
// state of an existing one. Archiving a member drops the vault from the
// member's index. The last active admin cannot be archived nor demoted.
type StoreMemberHandler struct {
	auth x.Authenticator
	b    Buckets
}

var _ custody.Handler = StoreMemberHandler{}

func (h StoreMemberHandler) Deliver(ctx context.Context, ex custody.Executor, m custody.Msg) (*custody.DeliverResult, error) {
	var msg StoreMemberMsg
	req, err := loadRequest(ctx, h.auth, m, &msg)
	if err != nil {
		return nil, err
	}
	addr, err := custody.ParseAddress(msg.Address)
	if err != nil {
		return nil, errors.Wrap(err, "address")
	}
	member := &VaultMember{
		Address: addr.String(),
		Role:    msg.Role,
		Name:    msg.Name,
		State:   msg.State,
	}

	var v *Vault
	err = ex.Update(ctx, func(db custody.KVStore) error {
		var err error
		if v, err = h.b.vault(db, msg.VaultId); err != nil {
			return err
		}
		if _, err := requireRole(v, req.caller, RoleAdmin); err != nil {
			return err
		}
		if err := requireActive(v); err != nil {
			return err
		}

		if prev, ok := v.Member(member.Address); ok {
			*prev = *member
		} else {
			v.Members = append(v.Members, member)
		}
		if v.activeAdmins() == 0 {
			return errors.Wrapf(errors.ErrInvalidState, "vault %d would be left without an admin", v.Id)
		}
		v.ModifiedAt = req.now
		if err := h.b.save(db, v.Id, h.b.Vaults, v); err != nil {
			return err
		}
		if member.State == ObjectStateActive {
			return h.b.linkUser(db, member.Address, v.Id)
		}
		return h.b.unlinkUser(db, member.Address, v.Id)
	})
	if err != nil {
		return nil, err
	}
	return &custody.DeliverResult{Data: v}, nil
}

// RegisterWalletHandler creates a wallet owned by a single vault.
type RegisterWalletHandler struct {
	auth x.Authenticator
	b    Buckets
}

var _ custody.Handler = RegisterWalletHandler{}

func (h RegisterWalletHandler) Deliver(ctx context.Context, ex custody.Executor, m custody.Msg) (*custody.DeliverResult, error) {
	var msg RegisterWalletMsg
	req, err := loadRequest(ctx, h.auth, m, &msg)
	if err != nil {
		return nil, err
	}

	var w *Wallet
	err = ex.Update(ctx, func(db custody.KVStore) error {
		v, err := h.b.vault(db, msg.VaultId)
		if err != nil {
			return err
		}
		if _, err := requireRole(v, req.caller, RoleAdmin); err != nil {
			return err
		}
		if err := requireActive(v); err != nil {
			return err
		}
		id, err := h.b.Wallets.NextID(db)
		if err != nil {
			return errors.Wrap(err, "wallet id")
		}
		w = &Wallet{
			Id:         id,
			Name:       msg.Name,
			Vaults:     []uint64{v.Id},
			State:      ObjectStateActive,
			CreatedAt:  req.now,
			ModifiedAt: req.now,
		}
		if err := h.b.save(db, w.Id, h.b.Wallets, w); err != nil {
			return err
		}
		v.Wallets = append(v.Wallets, w.Id)
		v.ModifiedAt = req.now
		return h.b.save(db, v.Id, h.b.Vaults, v)
	})
	if err != nil {
		return nil, err
	}
	return &custody.DeliverResult{Data: w}, nil
}

// UpdateWalletHandler renames or archives a wallet. The signer must be an
// admin of every vault the wallet is linked to.
type UpdateWalletHandler struct {
	auth x.Authenticator
	b    Buckets
}

var _ custody.Handler = UpdateWalletHandler{}

func (h UpdateWalletHandler) Deliver(ctx context.Context, ex custody.Executor, m custody.Msg) (*custody.DeliverResult, error) {
	var msg UpdateWalletMsg
	req, err := loadRequest(ctx, h.auth, m, &msg)
	if err != nil {
		return nil, err
	}

	var w *Wallet
	err = ex.Update(ctx, func(db custody.KVStore) error {
		var err error
		if w, err = h.b.wallet(db, msg.Wallet.Id); err != nil {
			return err
		}
		for _, id := range w.Vaults {
			v, err := h.b.vault(db, id)
			if err != nil {
				return err
			}
			if _, err := requireRole(v, req.caller, RoleAdmin); err != nil {
				return err
			}
			if err := requireActive(v); err != nil {
				return err
			}
		}
		w.Name = msg.Wallet.Name
		w.State = msg.Wallet.State
		w.ModifiedAt = req.now
		return h.b.save(db, w.Id, h.b.Wallets, w)
	})
	if err != nil {
		return nil, err
	}
	return &custody.DeliverResult{Data: w}, nil
}

// GetWalletsHandler lists the wallets of a vault, ordered by id.
type GetWalletsHandler struct {
	auth x.Authenticator
	b    Buckets
}

var _ custody.Handler = GetWalletsHandler{}

func (h GetWalletsHandler) Deliver(ctx context.Context, ex custody.Executor, m custody.Msg) (*custody.DeliverResult, error) {
	var msg GetWalletsMsg
	if err := custody.LoadMsg(m, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	caller, err := x.Caller(ctx, h.auth)
	if err != nil {
		return nil, err
	}

	res := []*Wallet{}
	err = ex.View(ctx, func(db custody.ReadOnlyKVStore) error {
		v, err := h.b.vault(db, msg.VaultId)
		if err != nil {
			return err
		}
		if _, err := requireRole(v, caller, RoleAdmin, RoleMember); err != nil {
			return err
		}
		ids := append([]uint64(nil), v.Wallets...)
		sortIDs(ids)
		for _, id := range ids {
			w, err := h.b.wallet(db, id)
			if err != nil {
				return err
			}
			res = append(res, w)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &custody.DeliverResult{Data: res}, nil
}

// RegisterPolicyHandler adds a policy to a vault.
type RegisterPolicyHandler struct {
	auth x.Authenticator
	b    Buckets
}

var _ custody.Handler = RegisterPolicyHandler{}

func (h RegisterPolicyHandler) Deliver(ctx context.Context, ex custody.Executor, m custody.Msg) (*custody.DeliverResult, error) {
	var msg RegisterPolicyMsg
	req, err := loadRequest(ctx, h.auth, m, &msg)
	if err != nil {
		return nil, err
	}

	var p *Policy
	err = ex.Update(ctx, func(db custody.KVStore) error {
		v, err := h.b.vault(db, msg.VaultId)
		if err != nil {
			return err
		}
		if _, err := requireRole(v, req.caller, RoleAdmin); err != nil {
			return err
		}
		if err := requireActive(v); err != nil {
			return err
		}
		if err := checkScope(v, msg.PolicyType); err != nil {
			return err
		}
		id, err := h.b.Policies.NextID(db)
		if err != nil {
			return errors.Wrap(err, "policy id")
		}
		p = &Policy{
			Id:         id,
			VaultId:    v.Id,
			State:      ObjectStateActive,
			PolicyType: msg.PolicyType,
			CreatedAt:  req.now,
			ModifiedAt: req.now,
		}
		if err := h.b.save(db, p.Id, h.b.Policies, p); err != nil {
			return err
		}
		v.Policies = append(v.Policies, p.Id)
		v.ModifiedAt = req.now
		return h.b.save(db, v.Id, h.b.Vaults, v)
	})
	if err != nil {
		return nil, err
	}
	return &custody.DeliverResult{Data: p}, nil
}

// UpdatePolicyHandler replaces the type and state of a policy. The vault of
// the stored policy is authoritative, the one in the request is ignored.
type UpdatePolicyHandler struct {
	auth x.Authenticator
	b    Buckets
}

var _ custody.Handler = UpdatePolicyHandler{}

func (h UpdatePolicyHandler) Deliver(ctx context.Context, ex custody.Executor, m custody.Msg) (*custody.DeliverResult, error) {
	var msg UpdatePolicyMsg
	req, err := loadRequest(ctx, h.auth, m, &msg)
	if err != nil {
		return nil, err
	}

	var p *Policy
	err = ex.Update(ctx, func(db custody.KVStore) error {
		var err error
		if p, err = h.b.policy(db, msg.Policy.Id); err != nil {
			return err
		}
		v, err := h.b.vault(db, p.VaultId)
		if err != nil {
			return err
		}
		if _, err := requireRole(v, req.caller, RoleAdmin); err != nil {
			return err
		}
		if err := requireActive(v); err != nil {
			return err
		}
		if err := checkScope(v, msg.Policy.PolicyType); err != nil {
			return err
		}
		p.PolicyType = msg.Policy.PolicyType
		p.State = msg.Policy.State
		p.ModifiedAt = req.now
		return h.b.save(db, p.Id, h.b.Policies, p)
	})
	if err != nil {
		return nil, err
	}
	return &custody.DeliverResult{Data: p}, nil
}

// GetPoliciesHandler lists the policies of a vault, ordered by id.
type GetPoliciesHandler struct {
	auth x.Authenticator
	b    Buckets
}

var _ custody.Handler = GetPoliciesHandler{}

func (h GetPoliciesHandler) Deliver(ctx context.Context, ex custody.Executor, m custody.Msg) (*custody.DeliverResult, error) {
	var msg GetPoliciesMsg
	if err := custody.LoadMsg(m, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	caller, err := x.Caller(ctx, h.auth)
	if err != nil {
		return nil, err
	}

	res := []*Policy{}
	err = ex.View(ctx, func(db custody.ReadOnlyKVStore) error {
		v, err := h.b.vault(db, msg.VaultId)
		if err != nil {
			return err
		}
		if _, err := requireRole(v, caller, RoleAdmin, RoleMember); err != nil {
			return err
		}
		ids := append([]uint64(nil), v.Policies...)
		sortIDs(ids)
		for _, id := range ids {
			p, err := h.b.policy(db, id)
			if err != nil {
				return err
			}
			res = append(res, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &custody.DeliverResult{Data: res}, nil
}

// checkScope ensures a policy is limited to wallets of its own vault.
func checkScope(v *Vault, pt *PolicyType) error {
	r, err := pt.rule()
	if err != nil {
		return err
	}
	for _, id := range r.scope() {
		if !containsID(v.Wallets, id) {
			return errors.Wrapf(errors.ErrInvalidInput, "wallet %d is not linked to vault %d", id, v.Id)
		}
	}
	return nil
}
