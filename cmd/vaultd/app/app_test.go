package app

import (
	"context"
	"io/ioutil"
	"os"
	"testing"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/app"
	"github.com/iov-one/custody/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoresPersist(t *testing.T) {
	home, err := ioutil.TempDir("", "vaultd-app")
	require.NoError(t, err)
	defer os.RemoveAll(home)
	ctx := context.Background()

	owner := custody.NewAddress([]byte("owner"))
	gen := &app.Genesis{
		ChainID: "persist-test",
		AppState: custody.Options{
			"conf": []byte(`{"vault": {"owner": "` + owner.String() + `", "ledger_fee": 1}, "ledger": {"fee": 1}}`),
		},
	}

	stores, err := OpenStores(home)
	require.NoError(t, err)
	require.NoError(t, stores.Init(ctx, gen))
	stores.Close()

	stores, err = OpenStores(home)
	require.NoError(t, err)
	defer stores.Close()

	_, err = stores.Node(ctx, custody.DefaultLogger)
	require.NoError(t, err)
	chainID, err := app.LoadChainID(ctx, stores.Ledger)
	require.NoError(t, err)
	assert.Equal(t, "persist-test", chainID)

	err = stores.Init(ctx, gen)
	assert.True(t, errors.ErrDuplicate.Is(err), "got %+v", err)

	exported, err := stores.Export(ctx)
	require.NoError(t, err)
	assert.Contains(t, exported.AppState, "vault")
	assert.Contains(t, exported.AppState, "ledger")
	assert.Contains(t, exported.AppState, "conf")
}

func TestNodeRequiresInit(t *testing.T) {
	home, err := ioutil.TempDir("", "vaultd-app")
	require.NoError(t, err)
	defer os.RemoveAll(home)

	stores, err := OpenStores(home)
	require.NoError(t, err)
	defer stores.Close()

	_, err = stores.Node(context.Background(), custody.DefaultLogger)
	assert.True(t, errors.ErrNotFound.Is(err), "got %+v", err)
}
