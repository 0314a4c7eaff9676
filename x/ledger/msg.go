package ledger

import (
	"github.com/iov-one/custody"
)

// PathBalance is the route of BalanceMsg.
const PathBalance = "ledger/balance"

// BalanceMsg queries the balance of an account.
type BalanceMsg struct {
	Account AccountID `json:"account"`
}

var _ custody.Msg = (*BalanceMsg)(nil)

func (BalanceMsg) Path() string {
	return PathBalance
}

// Validate is a noop, the account identifier checksum is verified when the
// message is decoded.
func (BalanceMsg) Validate() error {
	return nil
}
