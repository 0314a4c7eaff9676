package vault

import (
	"context"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/x"
	"github.com/iov-one/custody/x/ledger"
)

// WalletAddress returns the ledger account identifier of the wallet. It
// depends only on the configured owner and the wallet id.
func WalletAddress(owner custody.Address, walletID uint64) string {
	return ledger.NewAccountID(owner, ledger.WalletSubaccount(walletID)).String()
}

// WalletAddressHandler returns the account identifier funds must be sent to
// in order to credit a wallet.
type WalletAddressHandler struct {
	auth x.Authenticator
	b    Buckets
}

var _ custody.Handler = WalletAddressHandler{}

func (h WalletAddressHandler) Deliver(ctx context.Context, ex custody.Executor, m custody.Msg) (*custody.DeliverResult, error) {
	var msg WalletAddressMsg
	if err := custody.LoadMsg(m, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	caller, err := x.Caller(ctx, h.auth)
	if err != nil {
		return nil, err
	}

	var address string
	err = ex.View(ctx, func(db custody.ReadOnlyKVStore) error {
		w, err := h.b.wallet(db, msg.WalletId)
		if err != nil {
			return err
		}
		v, err := h.b.vault(db, w.Vaults[0])
		if err != nil {
			return err
		}
		if _, err := requireRole(v, caller, RoleAdmin, RoleMember); err != nil {
			return err
		}
		conf, err := loadConf(db)
		if err != nil {
			return err
		}
		address = WalletAddress(conf.Owner, w.Id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &custody.DeliverResult{Data: address}, nil
}
