package vault

import (
	"context"
	"testing"
	"time"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/gconf"
	"github.com/iov-one/custody/vaulttest"
	"github.com/iov-one/custody/x/ledger"
	"github.com/stretchr/testify/require"
)

// routes is a minimal custody.Registry.
type routes map[string]custody.Handler

func (r routes) Handle(m custody.Msg, h custody.Handler) {
	r[m.Path()] = h
}

type fixture struct {
	ex     *vaulttest.Executor
	auth   *vaulttest.CtxAuth
	ledger *vaulttest.Ledger
	routes routes
	owner  custody.Address
	now    time.Time
}

func newFixture(t testing.TB) *fixture {
	t.Helper()
	f := &fixture{
		ex:     vaulttest.NewExecutor(),
		auth:   &vaulttest.CtxAuth{Key: "auth"},
		ledger: &vaulttest.Ledger{BlockIndex: 7},
		routes: routes{},
		owner:  vaulttest.NewCondition().Address(),
		now:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	RegisterRoutes(f.routes, f.auth, ledger.NewGateway(f.ledger))
	err := f.ex.Update(context.Background(), func(db custody.KVStore) error {
		return gconf.Save(db, pkgName, &Configuration{Owner: f.owner, LedgerFee: 10})
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) ctx(signer custody.Condition) context.Context {
	ctx := custody.WithBlockTime(context.Background(), f.now)
	if signer == nil {
		return ctx
	}
	return f.auth.SetConditions(ctx, signer)
}

func (f *fixture) deliver(signer custody.Condition, msg custody.Msg) (interface{}, error) {
	h, ok := f.routes[msg.Path()]
	if !ok {
		panic("no route for " + msg.Path())
	}
	res, err := h.Deliver(f.ctx(signer), f.ex, msg)
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}

// must is deliver for requests expected to succeed.
func (f *fixture) must(t testing.TB, signer custody.Condition, msg custody.Msg) interface{} {
	t.Helper()
	data, err := f.deliver(signer, msg)
	require.NoError(t, err, msg.Path())
	return data
}

func (f *fixture) registerVault(t testing.TB, admin custody.Condition) *Vault {
	t.Helper()
	return f.must(t, admin, &RegisterVaultMsg{Name: "treasury"}).(*Vault)
}

func (f *fixture) registerWallet(t testing.TB, admin custody.Condition, vaultID uint64) *Wallet {
	t.Helper()
	return f.must(t, admin, &RegisterWalletMsg{VaultId: vaultID, Name: "main"}).(*Wallet)
}

func (f *fixture) addMember(t testing.TB, admin custody.Condition, vaultID uint64, who custody.Condition, role Role) {
	t.Helper()
	f.must(t, admin, &StoreMemberMsg{
		VaultId: vaultID,
		Address: who.Address().String(),
		Role:    role,
		State:   ObjectStateActive,
	})
}

// dump returns a raw copy of the whole store.
func (f *fixture) dump(t testing.TB) map[string]string {
	t.Helper()
	res := make(map[string]string)
	it, err := f.ex.Store().Iterator(nil, nil)
	require.NoError(t, err)
	defer it.Close()
	for ; it.Valid(); it.Next() {
		res[string(it.Key())] = string(it.Value())
	}
	return res
}

func caller(c custody.Condition) string {
	return c.Address().String()
}

func recipient() string {
	return ledger.NewAccountID([]byte("recipient"), ledger.Subaccount{}).String()
}
