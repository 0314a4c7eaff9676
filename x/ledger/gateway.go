package ledger

import (
	"context"

	"github.com/iov-one/custody/errors"
)

// Payment describes a transfer out of an owner subaccount.
type Payment struct {
	Owner  []byte
	Fee    uint64
	Amount uint64
	// To is the hex encoded account identifier of the recipient.
	To   string
	From Subaccount
}

// Gateway translates approved payments into ledger transfer calls. Both the
// call failure and the ledger rejection are returned as ErrTransfer.
type Gateway struct {
	ledger Ledger
}

// NewGateway returns a gateway calling the given ledger.
func NewGateway(l Ledger) *Gateway {
	return &Gateway{ledger: l}
}

// Transfer executes the payment and returns the ledger block index.
func (g *Gateway) Transfer(ctx context.Context, p Payment) (uint64, error) {
	to, err := ParseAccountID(p.To)
	if err != nil {
		return 0, errors.Wrapf(ErrTransfer, "recipient %q: %s", p.To, err)
	}
	args := TransferArgs{
		Memo:           0,
		Amount:         p.Amount,
		Fee:            p.Fee,
		FromSubaccount: p.From,
		To:             to,
	}
	res, err := g.ledger.Transfer(ctx, p.Owner, args)
	if err != nil {
		return 0, errors.Wrapf(ErrTransfer, "failed to call ledger: %s", err)
	}
	if res.Err != nil {
		return 0, errors.Wrapf(ErrTransfer, "ledger transfer error %s", res.Err)
	}
	return res.BlockIndex, nil
}
