/*
Package app links together the vault and ledger extensions into a
runnable custody node over a home directory.
*/
package app

import (
	"context"
	"os"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/app"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/gconf"
	"github.com/iov-one/custody/store/iavl"
	"github.com/iov-one/custody/x"
	"github.com/iov-one/custody/x/ledger"
	"github.com/iov-one/custody/x/sigs"
	"github.com/iov-one/custody/x/vault"
	"github.com/tendermint/tendermint/libs/log"
)

// Authenticator returns the typical authentication,
// just using public key signatures
func Authenticator() x.Authenticator {
	return sigs.Authenticate{}
}

// Router returns a router dispatching to the vault and ledger handlers.
func Router(authFn x.Authenticator, transfers vault.Transferer, balances ledger.Balancer) *app.Router {
	r := app.NewRouter()
	vault.RegisterRoutes(r, authFn, transfers)
	ledger.RegisterRoutes(r, balances)
	return r
}

// Stores are the two states kept in a home directory. The vault state
// holds the signers, the ledger state is the backing of the in process
// ledger.
type Stores struct {
	Vault  *app.State
	Ledger *app.State

	closers []*iavl.CommitStore
}

// OpenStores opens, or creates, the databases under home.
func OpenStores(home string) (*Stores, error) {
	if err := os.MkdirAll(home, 0700); err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "create home: %s", err)
	}
	var s Stores
	for name, dst := range map[string]**app.State{"vault": &s.Vault, "ledger": &s.Ledger} {
		cs, err := iavl.NewCommitStore(home, name)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, cs)
		state, err := app.NewState(cs)
		if err != nil {
			s.Close()
			return nil, errors.Wrapf(err, "load %s state", name)
		}
		*dst = state
	}
	return &s, nil
}

// Close releases all databases.
func (s *Stores) Close() {
	for _, c := range s.closers {
		c.Close()
	}
	s.closers = nil
}

// Routes returns the router wired to the ledger of the stores.
func (s *Stores) Routes() *app.Router {
	mem := ledger.NewMemLedger(s.Ledger)
	return Router(Authenticator(), ledger.NewGateway(mem), mem)
}

// Init loads the genesis into both states.
func (s *Stores) Init(ctx context.Context, gen *app.Genesis) error {
	if err := app.InitState(ctx, s.Vault, gen, vault.Initializer{}); err != nil {
		return errors.Wrap(err, "vault genesis")
	}
	if err := app.InitState(ctx, s.Ledger, gen, ledger.Initializer{}); err != nil {
		return errors.Wrap(err, "ledger genesis")
	}
	return nil
}

// Export returns both states in the genesis format.
func (s *Stores) Export(ctx context.Context) (*app.Genesis, error) {
	return app.ExportState(ctx,
		app.Part{
			State:     s.Vault,
			Exporters: map[string]custody.Exporter{"vault": vault.Exporter{}},
			Configs:   map[string]gconf.Configuration{"vault": &vault.Configuration{}},
		},
		app.Part{
			State:     s.Ledger,
			Exporters: map[string]custody.Exporter{"ledger": ledger.Exporter{}},
			Configs:   map[string]gconf.Configuration{"ledger": &ledger.Configuration{}},
		},
	)
}

// Node returns a node executing requests against the stores. The chain id
// is read from the vault state.
func (s *Stores) Node(ctx context.Context, logger log.Logger) (*app.Node, error) {
	chainID, err := app.LoadChainID(ctx, s.Vault)
	if err != nil {
		return nil, err
	}
	return app.NewNode(chainID, s.Routes(), s.Vault).WithLogger(logger), nil
}

// NextNonce returns the sequence the signer must use for the next request.
func (s *Stores) NextNonce(ctx context.Context, signer custody.Address) (uint64, error) {
	var seq uint64
	err := s.Vault.View(ctx, func(db custody.ReadOnlyKVStore) error {
		var err error
		seq, err = sigs.NextNonce(db, signer)
		return err
	})
	return seq, err
}
