package vaulttest

import (
	"context"
	"sync"

	"github.com/iov-one/custody/x/ledger"
)

// LedgerCall is a recorded transfer call.
type LedgerCall struct {
	Owner []byte
	Args  ledger.TransferArgs
}

// Ledger is a scripted ledger.Ledger. Every call is recorded and answered
// with the configured result. Before answering, OnTransfer is called if set,
// which allows a test to run other requests while the transfer is in
// flight.
type Ledger struct {
	mu    sync.Mutex
	calls []LedgerCall

	// BlockIndex is returned on success and incremented after every
	// successful call.
	BlockIndex uint64
	// Reject makes the ledger refuse the transfer.
	Reject *ledger.TransferError
	// Err makes the call itself fail.
	Err error
	// OnTransfer runs before the result is returned.
	OnTransfer func(ctx context.Context)
}

var _ ledger.Ledger = (*Ledger)(nil)

func (l *Ledger) Transfer(ctx context.Context, owner []byte, args ledger.TransferArgs) (ledger.TransferResult, error) {
	l.mu.Lock()
	l.calls = append(l.calls, LedgerCall{Owner: owner, Args: args})
	hook := l.OnTransfer
	l.mu.Unlock()

	if hook != nil {
		hook(ctx)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Err != nil {
		return ledger.TransferResult{}, l.Err
	}
	if l.Reject != nil {
		return ledger.TransferResult{Err: l.Reject}, nil
	}
	res := ledger.TransferResult{BlockIndex: l.BlockIndex}
	l.BlockIndex++
	return res, nil
}

// Calls returns all recorded transfer calls.
func (l *Ledger) Calls() []LedgerCall {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]LedgerCall(nil), l.calls...)
}
