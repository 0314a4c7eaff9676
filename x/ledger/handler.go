package ledger

import (
	"context"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

// Balancer reads account balances.
type Balancer interface {
	Balance(ctx context.Context, id AccountID) (uint64, error)
}

// BalanceResult is the response of the balance query.
type BalanceResult struct {
	Account AccountID `json:"account"`
	Balance uint64    `json:"balance"`
}

// RegisterRoutes will instantiate and register all handlers in this package.
func RegisterRoutes(r custody.Registry, b Balancer) {
	r.Handle(&BalanceMsg{}, BalanceHandler{balances: b})
}

// BalanceHandler answers balance queries. The balance is read from the
// ledger, the executor of the request is not used.
type BalanceHandler struct {
	balances Balancer
}

var _ custody.Handler = BalanceHandler{}

func (h BalanceHandler) Deliver(ctx context.Context, _ custody.Executor, m custody.Msg) (*custody.DeliverResult, error) {
	msg, ok := m.(*BalanceMsg)
	if !ok {
		return nil, errors.Wrapf(errors.ErrInvalidMsg, "unexpected %T", m)
	}
	bal, err := h.balances.Balance(ctx, msg.Account)
	if err != nil {
		return nil, err
	}
	return &custody.DeliverResult{
		Data: BalanceResult{Account: msg.Account, Balance: bal},
	}, nil
}
