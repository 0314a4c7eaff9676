package ledger

import (
	"context"
	"strings"
	"testing"

	"github.com/iov-one/custody/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ledgerFunc func(context.Context, []byte, TransferArgs) (TransferResult, error)

func (fn ledgerFunc) Transfer(ctx context.Context, owner []byte, args TransferArgs) (TransferResult, error) {
	return fn(ctx, owner, args)
}

func TestGatewayTransfer(t *testing.T) {
	to := NewAccountID([]byte("someone"), Subaccount{})
	payment := Payment{
		Owner:  []byte("vault"),
		Fee:    10,
		Amount: 500,
		To:     to.String(),
		From:   WalletSubaccount(3),
	}

	cases := map[string]struct {
		payment   Payment
		ledger    ledgerFunc
		wantBlock uint64
		wantErr   *errors.Error
		wantMsg   string
	}{
		"success": {
			payment: payment,
			ledger: func(_ context.Context, owner []byte, args TransferArgs) (TransferResult, error) {
				if string(owner) != "vault" || args.To != to || args.Amount != 500 ||
					args.Fee != 10 || args.Memo != 0 || args.FromSubaccount != WalletSubaccount(3) {
					return TransferResult{}, errors.Wrapf(errors.ErrHuman, "unexpected call %+v", args)
				}
				return TransferResult{BlockIndex: 42}, nil
			},
			wantBlock: 42,
		},
		"call failure": {
			payment: payment,
			ledger: func(context.Context, []byte, TransferArgs) (TransferResult, error) {
				return TransferResult{}, context.DeadlineExceeded
			},
			wantErr: ErrTransfer,
			wantMsg: "failed to call ledger",
		},
		"ledger rejection": {
			payment: payment,
			ledger: func(context.Context, []byte, TransferArgs) (TransferResult, error) {
				return TransferResult{Err: &TransferError{Reason: RejectInsufficientFunds, Amount: 7}}, nil
			},
			wantErr: ErrTransfer,
			wantMsg: "ledger transfer error InsufficientFunds { balance: 7 }",
		},
		"undecodable recipient": {
			payment: Payment{To: "not an account"},
			ledger: func(context.Context, []byte, TransferArgs) (TransferResult, error) {
				panic("must not be called")
			},
			wantErr: ErrTransfer,
			wantMsg: "recipient",
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			block, err := NewGateway(tc.ledger).Transfer(context.Background(), tc.payment)
			if tc.wantErr == nil {
				require.NoError(t, err)
				assert.Equal(t, tc.wantBlock, block)
				return
			}
			require.True(t, tc.wantErr.Is(err), "got %+v", err)
			assert.True(t, strings.Contains(err.Error(), tc.wantMsg), err.Error())
		})
	}
}
