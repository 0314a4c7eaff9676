package ledger_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/vaulttest"
	"github.com/iov-one/custody/x/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLedger(t *testing.T, genesis string) (*ledger.MemLedger, *vaulttest.Executor) {
	t.Helper()
	var opts custody.Options
	require.NoError(t, json.Unmarshal([]byte(genesis), &opts))

	ex := vaulttest.NewExecutor()
	err := ex.Update(context.Background(), func(db custody.KVStore) error {
		return ledger.Initializer{}.FromGenesis(opts, db)
	})
	require.NoError(t, err)
	return ledger.NewMemLedger(ex), ex
}

func TestMemLedgerTransfer(t *testing.T) {
	owner := []byte("vault-owner")
	from := ledger.NewAccountID(owner, ledger.WalletSubaccount(1))
	to := ledger.NewAccountID([]byte("receiver"), ledger.Subaccount{})

	genesis := `{
		"conf": {"ledger": {"fee": 10}},
		"ledger": {"balances": [{"account": "` + from.String() + `", "amount": 1000}]}
	}`
	l, _ := newLedger(t, genesis)
	ctx := custody.WithBlockTime(context.Background(), time.Now())

	res, err := l.Transfer(ctx, owner, ledger.TransferArgs{
		Amount: 100, Fee: 10, FromSubaccount: ledger.WalletSubaccount(1), To: to,
	})
	require.NoError(t, err)
	require.Nil(t, res.Err)
	assert.Equal(t, uint64(1), res.BlockIndex)

	bal, err := l.Balance(ctx, from)
	require.NoError(t, err)
	assert.Equal(t, uint64(890), bal)
	bal, err = l.Balance(ctx, to)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), bal)

	// wrong fee is a rejection, not a call failure
	res, err = l.Transfer(ctx, owner, ledger.TransferArgs{
		Amount: 100, Fee: 1, FromSubaccount: ledger.WalletSubaccount(1), To: to,
	})
	require.NoError(t, err)
	require.NotNil(t, res.Err)
	assert.Equal(t, ledger.RejectBadFee, res.Err.Reason)
	assert.Equal(t, uint64(10), res.Err.Amount)

	res, err = l.Transfer(ctx, owner, ledger.TransferArgs{
		Amount: 881, Fee: 10, FromSubaccount: ledger.WalletSubaccount(1), To: to,
	})
	require.NoError(t, err)
	require.NotNil(t, res.Err)
	assert.Equal(t, ledger.RejectInsufficientFunds, res.Err.Reason)
	assert.Equal(t, uint64(890), res.Err.Amount)

	// rejections do not change balances
	bal, err = l.Balance(ctx, from)
	require.NoError(t, err)
	assert.Equal(t, uint64(890), bal)

	res, err = l.Transfer(ctx, owner, ledger.TransferArgs{
		Amount: 880, Fee: 10, FromSubaccount: ledger.WalletSubaccount(1), To: to,
	})
	require.NoError(t, err)
	require.Nil(t, res.Err)
	assert.Equal(t, uint64(2), res.BlockIndex)
}

func TestMemLedgerCallFailure(t *testing.T) {
	l, _ := newLedger(t, `{"conf": {"ledger": {"fee": 0}}}`)

	// no block time
	_, err := l.Transfer(context.Background(), nil, ledger.TransferArgs{Amount: 1})
	assert.True(t, errors.ErrHuman.Is(err))

	ctx, cancel := context.WithCancel(custody.WithBlockTime(context.Background(), time.Now()))
	cancel()
	_, err = l.Transfer(ctx, nil, ledger.TransferArgs{Amount: 1})
	assert.Equal(t, context.Canceled, err)
}

func TestGenesisExport(t *testing.T) {
	a := ledger.NewAccountID([]byte("a"), ledger.Subaccount{})
	b := ledger.NewAccountID([]byte("b"), ledger.Subaccount{})
	genesis := `{
		"conf": {"ledger": {"fee": 5}},
		"ledger": {"balances": [
			{"account": "` + a.String() + `", "amount": 10},
			{"account": "` + b.String() + `", "amount": 20},
			{"account": "` + a.String() + `", "amount": 5}
		]}
	}`
	l, ex := newLedger(t, genesis)

	bal, err := l.Balance(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, uint64(15), bal)

	require.NoError(t, l.Mint(context.Background(), b, 1))

	raw, err := ledger.Exporter{}.ExportGenesis(ex.Store())
	require.NoError(t, err)
	var gen ledger.Genesis
	require.NoError(t, json.Unmarshal(raw, &gen))
	want := map[ledger.AccountID]uint64{a: 15, b: 21}
	got := make(map[ledger.AccountID]uint64)
	for _, g := range gen.Balances {
		got[g.Account] = g.Amount
	}
	assert.Equal(t, want, got)
}

func TestGenesisRequiresConfiguration(t *testing.T) {
	var opts custody.Options
	require.NoError(t, json.Unmarshal([]byte(`{"ledger": {"balances": []}}`), &opts))
	err := vaulttest.NewExecutor().Update(context.Background(), func(db custody.KVStore) error {
		return ledger.Initializer{}.FromGenesis(opts, db)
	})
	assert.True(t, errors.ErrNotFound.Is(err))
}

func TestBalanceHandler(t *testing.T) {
	a := ledger.NewAccountID([]byte("a"), ledger.Subaccount{})
	l, _ := newLedger(t, `{"conf": {"ledger": {}}, "ledger": {"balances": [{"account": "`+a.String()+`", "amount": 3}]}}`)

	r := &registry{}
	ledger.RegisterRoutes(r, l)
	h := r.handlers[ledger.PathBalance]
	require.NotNil(t, h)

	res, err := h.Deliver(context.Background(), nil, &ledger.BalanceMsg{Account: a})
	require.NoError(t, err)
	assert.Equal(t, ledger.BalanceResult{Account: a, Balance: 3}, res.Data)
}

type registry struct {
	handlers map[string]custody.Handler
}

func (r *registry) Handle(m custody.Msg, h custody.Handler) {
	if r.handlers == nil {
		r.handlers = make(map[string]custody.Handler)
	}
	r.handlers[m.Path()] = h
}
