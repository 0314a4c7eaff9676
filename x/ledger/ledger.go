/*
Package ledger connects the custody vault to the asset ledger. It derives
account identifiers, defines the remote transfer contract and provides the
Gateway the vault transfers through. MemLedger is an in-process ledger with
its own state, used by the node and the tests.
*/
package ledger

import (
	"context"
	"fmt"

	"github.com/iov-one/custody/errors"
)

// ErrTransfer is returned by the Gateway when the ledger could not be called
// or rejected the transfer.
var ErrTransfer = errors.Register(1001, "transfer failed")

// TransferArgs is the transfer instruction sent to the ledger. Amount and
// Fee are in the smallest unit of the currency.
type TransferArgs struct {
	Memo           uint64
	Amount         uint64
	Fee            uint64
	FromSubaccount Subaccount
	To             AccountID
}

// RejectReason tells why the ledger refused a transfer.
type RejectReason int

const (
	RejectBadFee RejectReason = iota + 1
	RejectInsufficientFunds
)

// TransferError is the business rejection of a transfer. It is a result of
// a successful call, not a call failure.
type TransferError struct {
	Reason RejectReason
	// Expected fee for RejectBadFee, balance for RejectInsufficientFunds.
	Amount uint64
}

func (e *TransferError) String() string {
	switch e.Reason {
	case RejectBadFee:
		return fmt.Sprintf("BadFee { expected_fee: %d }", e.Amount)
	case RejectInsufficientFunds:
		return fmt.Sprintf("InsufficientFunds { balance: %d }", e.Amount)
	default:
		return fmt.Sprintf("Unknown { reason: %d }", e.Reason)
	}
}

// TransferResult is the answer of the ledger to a transfer call. Exactly one
// of BlockIndex or Err is meaningful.
type TransferResult struct {
	BlockIndex uint64
	Err        *TransferError
}

// Ledger is the remote transfer service. The returned error reports a call
// failure only, a refused transfer is returned in TransferResult.Err.
// The owner is the principal the subaccount belongs to.
type Ledger interface {
	Transfer(ctx context.Context, owner []byte, args TransferArgs) (TransferResult, error)
}
