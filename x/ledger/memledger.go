package ledger

import (
	"context"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
)

// MemLedger is a Ledger running in the same process. Its state is kept
// behind its own Executor, separate from the vault state.
type MemLedger struct {
	ex       custody.Executor
	accounts orm.ModelBucket
	blocks   orm.ModelBucket
}

var _ Ledger = (*MemLedger)(nil)

// NewMemLedger returns a ledger operating on the state of the executor. The
// state must contain the ledger configuration.
func NewMemLedger(ex custody.Executor) *MemLedger {
	return &MemLedger{
		ex:       ex,
		accounts: NewAccountBucket(),
		blocks:   NewBlockBucket(),
	}
}

// Transfer moves the amount from the owner subaccount to the recipient and
// burns the fee.
func (l *MemLedger) Transfer(ctx context.Context, owner []byte, args TransferArgs) (TransferResult, error) {
	if err := ctx.Err(); err != nil {
		return TransferResult{}, err
	}
	now, err := custody.Now(ctx)
	if err != nil {
		return TransferResult{}, err
	}
	if args.Amount == 0 {
		return TransferResult{}, errors.Wrap(errors.ErrInvalidAmount, "zero amount")
	}

	var res TransferResult
	err = l.ex.Update(ctx, func(db custody.KVStore) error {
		conf, err := loadConf(db)
		if err != nil {
			return err
		}
		if args.Fee != conf.Fee {
			res.Err = &TransferError{Reason: RejectBadFee, Amount: conf.Fee}
			return nil
		}

		from := NewAccountID(owner, args.FromSubaccount)
		bal, err := balance(db, l.accounts, from)
		if err != nil {
			return err
		}
		total := args.Amount + args.Fee
		if total < args.Amount || bal < total {
			res.Err = &TransferError{Reason: RejectInsufficientFunds, Amount: bal}
			return nil
		}
		if _, err := l.accounts.Put(db, from[:], &Account{Balance: bal - total}); err != nil {
			return err
		}
		if err := credit(db, l.accounts, args.To, args.Amount); err != nil {
			return err
		}

		block := &Block{
			From:      from[:],
			To:        args.To[:],
			Amount:    args.Amount,
			Fee:       args.Fee,
			Memo:      args.Memo,
			CreatedAt: now,
		}
		key, err := l.blocks.Put(db, nil, block)
		if err != nil {
			return err
		}
		res.BlockIndex = orm.DecodeSequence(key)
		return nil
	})
	if err != nil {
		return TransferResult{}, err
	}

	log := custody.GetLogger(ctx).With("module", pkgName)
	if res.Err != nil {
		log.Debug("transfer rejected", "from", NewAccountID(owner, args.FromSubaccount), "reason", res.Err)
	} else {
		log.Debug("transfer executed", "block", res.BlockIndex, "to", args.To, "amount", args.Amount)
	}
	return res, nil
}

// Mint credits the account with newly created tokens.
func (l *MemLedger) Mint(ctx context.Context, to AccountID, amount uint64) error {
	return l.ex.Update(ctx, func(db custody.KVStore) error {
		return credit(db, l.accounts, to, amount)
	})
}

// Balance returns the balance of the account. Unknown accounts have a zero
// balance.
func (l *MemLedger) Balance(ctx context.Context, id AccountID) (uint64, error) {
	var bal uint64
	err := l.ex.View(ctx, func(db custody.ReadOnlyKVStore) error {
		var err error
		bal, err = balance(db, l.accounts, id)
		return err
	})
	return bal, err
}
