package vault

import (
	"context"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/x"
	"github.com/iov-one/custody/x/ledger"
)

// newTransaction returns a pending transaction with the creator vote.
func newTransaction(id uint64, msg *RegisterTransactionMsg, vaultID uint64, p *Policy, activeMembers int, owner string, now custody.UnixTime) (*Transaction, error) {
	r, err := p.PolicyType.rule()
	if err != nil {
		return nil, errors.Wrapf(err, "policy %d", p.Id)
	}
	tx := &Transaction{
		Id:       id,
		WalletId: msg.WalletId,
		VaultId:  vaultID,
		To:       msg.Address,
		Approves: []*Approve{
			{Signer: owner, CreatedAt: now, Status: TransactionApproved},
		},
		Amount:     msg.Amount,
		State:      TransactionPending,
		PolicyId:   p.Id,
		Owner:      owner,
		CreatedAt:  now,
		ModifiedAt: now,
		Version:    1,
	}
	r.snapshot(tx, activeMembers)
	return tx, nil
}

// claimTransaction records the vote of the signer, replacing a previous
// vote of the same signer. A rejection or cancellation is final at once,
// an approval only when enough signers approve.
func claimTransaction(tx *Transaction, signer string, state TransactionState, now custody.UnixTime) error {
	if tx.State != TransactionPending {
		return errors.Wrapf(errors.ErrInvalidState, "transaction %d not pending", tx.Id)
	}
	switch state {
	case TransactionApproved, TransactionRejected, TransactionCanceled:
	case TransactionPending:
		return errors.Wrap(errors.ErrInvalidInput, "cannot vote pending")
	default:
		return errors.Wrapf(errors.ErrInvalidInput, "state %d", state)
	}

	vote := &Approve{Signer: signer, CreatedAt: now, Status: state}
	replaced := false
	for i, a := range tx.Approves {
		if a.Signer == signer {
			tx.Approves[i] = vote
			replaced = true
			break
		}
	}
	if !replaced {
		tx.Approves = append(tx.Approves, vote)
	}

	switch state {
	case TransactionApproved:
		if isTransactionApproved(tx) {
			tx.State = TransactionApproved
		}
	case TransactionRejected, TransactionCanceled:
		tx.State = state
	}
	tx.ModifiedAt = now
	tx.Version++
	return nil
}

// isTransactionApproved counts the signers whose current vote is an
// approval.
func isTransactionApproved(tx *Transaction) bool {
	var n uint32
	for _, a := range tx.Approves {
		if a.Status == TransactionApproved {
			n++
		}
	}
	return n >= tx.MemberThreshold
}

// Transferer executes approved payments. ledger.Gateway implements it.
type Transferer interface {
	Transfer(ctx context.Context, p ledger.Payment) (uint64, error)
}

var _ Transferer = (*ledger.Gateway)(nil)

// RegisterTransactionHandler proposes a transfer out of a wallet.
type RegisterTransactionHandler struct {
	auth x.Authenticator
	b    Buckets
}

var _ custody.Handler = RegisterTransactionHandler{}

func (h RegisterTransactionHandler) Deliver(ctx context.Context, ex custody.Executor, m custody.Msg) (*custody.DeliverResult, error) {
	var msg RegisterTransactionMsg
	if err := custody.LoadMsg(m, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	caller, err := x.Caller(ctx, h.auth)
	if err != nil {
		return nil, err
	}
	now, err := custody.Now(ctx)
	if err != nil {
		return nil, err
	}

	var tx *Transaction
	err = ex.Update(ctx, func(db custody.KVStore) error {
		w, err := h.b.wallet(db, msg.WalletId)
		if err != nil {
			return err
		}
		// A wallet belongs to a single vault.
		v, err := h.b.vault(db, w.Vaults[0])
		if err != nil {
			return err
		}
		if _, err := requireRole(v, caller, RoleAdmin, RoleMember); err != nil {
			return err
		}
		if err := requireActive(v); err != nil {
			return err
		}
		if w.State != ObjectStateActive {
			return errors.Wrapf(errors.ErrInvalidState, "wallet %d is archived", w.Id)
		}

		policies := make([]*Policy, 0, len(v.Policies))
		for _, id := range v.Policies {
			p, err := h.b.policy(db, id)
			if err != nil {
				return err
			}
			policies = append(policies, p)
		}
		p, err := SelectApplicable(policies, msg.Amount, w.Id)
		if err != nil {
			return err
		}

		id, err := h.b.Transactions.NextID(db)
		if err != nil {
			return errors.Wrap(err, "transaction id")
		}
		tx, err = newTransaction(id, &msg, v.Id, p, v.ActiveMembers(), caller, now)
		if err != nil {
			return err
		}
		return h.b.save(db, tx.Id, h.b.Transactions, tx)
	})
	if err != nil {
		return nil, err
	}
	return &custody.DeliverResult{Data: tx}, nil
}

// GetTransactionsHandler lists the transactions of the vaults of the signer,
// ordered by id.
type GetTransactionsHandler struct {
	auth x.Authenticator
	b    Buckets
}

var _ custody.Handler = GetTransactionsHandler{}

func (h GetTransactionsHandler) Deliver(ctx context.Context, ex custody.Executor, m custody.Msg) (*custody.DeliverResult, error) {
	var msg GetTransactionsMsg
	if err := custody.LoadMsg(m, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	caller, err := x.Caller(ctx, h.auth)
	if err != nil {
		return nil, err
	}

	res := []*Transaction{}
	err = ex.View(ctx, func(db custody.ReadOnlyKVStore) error {
		u, err := h.b.user(db, caller)
		if err != nil || u == nil {
			return err
		}
		var all []*Transaction
		if err := h.b.Transactions.All(db, &all); err != nil {
			return err
		}
		for _, tx := range all {
			if containsID(u.Vaults, tx.VaultId) {
				res = append(res, tx)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &custody.DeliverResult{Data: res}, nil
}

// ApproveTransactionHandler records a vote and executes the transfer once the
// transaction is approved.
//
// The transfer runs between two update sections and other requests may be
// executed while it is in flight. The second section writes the outcome only
// if the transaction was not changed in the meantime.
type ApproveTransactionHandler struct {
	auth      x.Authenticator
	b         Buckets
	transfers Transferer
}

var _ custody.Handler = ApproveTransactionHandler{}

func (h ApproveTransactionHandler) Deliver(ctx context.Context, ex custody.Executor, m custody.Msg) (*custody.DeliverResult, error) {
	var msg ApproveTransactionMsg
	if err := custody.LoadMsg(m, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	caller, err := x.Caller(ctx, h.auth)
	if err != nil {
		return nil, err
	}
	now, err := custody.Now(ctx)
	if err != nil {
		return nil, err
	}

	var (
		tx      *Transaction
		payment ledger.Payment
	)
	err = ex.Update(ctx, func(db custody.KVStore) error {
		var err error
		if tx, err = h.b.transaction(db, msg.TransactionId); err != nil {
			return err
		}
		v, err := h.b.vault(db, tx.VaultId)
		if err != nil {
			return err
		}
		if _, err := requireRole(v, caller, RoleAdmin, RoleMember); err != nil {
			return err
		}
		if err := requireActive(v); err != nil {
			return err
		}
		if err := claimTransaction(tx, caller, msg.State, now); err != nil {
			return err
		}
		if err := h.b.save(db, tx.Id, h.b.Transactions, tx); err != nil {
			return err
		}
		if tx.State != TransactionApproved {
			return nil
		}

		conf, err := loadConf(db)
		if err != nil {
			return err
		}
		payment = ledger.Payment{
			Owner:  conf.Owner,
			Fee:    conf.LedgerFee,
			Amount: tx.Amount,
			To:     tx.To,
			From:   ledger.WalletSubaccount(tx.WalletId),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if tx.State != TransactionApproved {
		return &custody.DeliverResult{Data: tx}, nil
	}

	log := custody.GetLogger(ctx).With("module", pkgName, "transaction", tx.Id)
	version := tx.Version
	block, transferErr := h.transfers.Transfer(ctx, payment)

	err = ex.Update(ctx, func(db custody.KVStore) error {
		var err error
		if tx, err = h.b.transaction(db, msg.TransactionId); err != nil {
			return err
		}
		if tx.State != TransactionApproved || tx.BlockIndex != nil || tx.Version != version {
			return errors.Wrapf(errors.ErrInvalidState,
				"transaction %d changed during transfer: state %s, version %d, want %d",
				tx.Id, tx.State, tx.Version, version)
		}
		if transferErr == nil {
			tx.BlockIndex = &block
		} else {
			tx.State = TransactionRejected
			tx.TransferError = transferErr.Error()
		}
		tx.ModifiedAt = now
		tx.Version++
		return h.b.save(db, tx.Id, h.b.Transactions, tx)
	})
	if err != nil {
		log.Error("cannot record transfer outcome", "block", block, "transfer_err", transferErr, "err", err)
		return nil, err
	}
	if transferErr != nil {
		log.Info("transfer failed", "err", transferErr)
	} else {
		log.Info("transfer executed", "block", block)
	}
	return &custody.DeliverResult{Data: tx}, nil
}
