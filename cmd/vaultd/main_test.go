package main

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/app"
	"github.com/iov-one/custody/x/ledger"
	"github.com/iov-one/custody/x/vault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempDir(t *testing.T) (string, func()) {
	t.Helper()
	dir, err := ioutil.TempDir("", "vaultd")
	require.NoError(t, err)
	return dir, func() { os.RemoveAll(dir) }
}

func run(t *testing.T, cmd string, input string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	err := commands[cmd](strings.NewReader(input), &out, args)
	require.NoError(t, err, "%s %v", cmd, args)
	return out.String()
}

func TestKeygen(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()
	keyPath := filepath.Join(dir, "key")

	addr := run(t, "keygen", "", "-key", keyPath)
	assert.Equal(t, addr, run(t, "keyaddr", "", "-key", keyPath))

	parsed, err := custody.ParseAddress(strings.TrimSpace(addr))
	require.NoError(t, err)
	assert.Equal(t, strings.TrimSpace(addr), parsed.String())

	var out bytes.Buffer
	err = cmdKeygen(strings.NewReader(""), &out, []string{"-key", keyPath})
	assert.Error(t, err, "existing key must not be overwritten")
}

func TestPaths(t *testing.T) {
	paths := strings.Fields(run(t, "paths", ""))
	assert.Contains(t, paths, vault.PathRegisterVault)
	assert.Contains(t, paths, vault.PathApproveTransaction)
	assert.Contains(t, paths, "ledger/balance")
	assert.Len(t, paths, 15)
}

func TestVersionCommand(t *testing.T) {
	assert.Equal(t, custody.Version()+"\n", run(t, "version", ""))
}

func TestNodeCommands(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()
	home := filepath.Join(dir, "home")
	keyPath := filepath.Join(dir, "key")
	signer, err := custody.ParseAddress(strings.TrimSpace(run(t, "keygen", "", "-key", keyPath)))
	require.NoError(t, err)

	owner := custody.NewAddress([]byte("custody-owner"))
	funded := ledger.NewAccountID(owner, ledger.WalletSubaccount(1))
	genesis := `{
		"chain_id": "vaultd-test",
		"app_state": {
			"conf": {
				"vault": {"owner": "` + owner.String() + `", "ledger_fee": 1},
				"ledger": {"fee": 1}
			},
			"ledger": {"balances": [{"account": "` + funded.String() + `", "amount": 100}]}
		}
	}`
	run(t, "init", genesis, "-home", home)

	exec := func(path, msg string) *app.Response {
		t.Helper()
		req := run(t, "sign", msg, "-home", home, "-key", keyPath, "-path", path)
		var res app.Response
		require.NoError(t, json.Unmarshal([]byte(run(t, "exec", req, "-home", home)), &res))
		return &res
	}

	res := exec(vault.PathRegisterVault, `{"name": "treasury"}`)
	require.Equal(t, uint32(0), res.Code, res.Log)
	var v vault.Vault
	require.NoError(t, json.Unmarshal(res.Data, &v))
	assert.Equal(t, signer.String(), v.Members[0].Address)

	res = exec(vault.PathRegisterWallet, `{"vault_id": 1}`)
	require.Equal(t, uint32(0), res.Code, res.Log)

	to := ledger.NewAccountID([]byte("shop"), ledger.Subaccount{})
	res = exec(vault.PathRegisterTransaction, `{"amount": 30, "address": "`+to.String()+`", "wallet_id": 1}`)
	require.Equal(t, uint32(0), res.Code, res.Log)
	var tx vault.Transaction
	require.NoError(t, json.Unmarshal(res.Data, &tx))
	assert.Equal(t, vault.TransactionPending, tx.State)

	// The only member approves, which executes the transfer.
	res = exec(vault.PathApproveTransaction, `{"transaction_id": 1, "state": "Approved"}`)
	require.Equal(t, uint32(0), res.Code, res.Log)
	tx = vault.Transaction{}
	require.NoError(t, json.Unmarshal(res.Data, &tx))
	require.NotNil(t, tx.BlockIndex)

	res = exec("ledger/balance", `{"account": "`+funded.String()+`"}`)
	require.Equal(t, uint32(0), res.Code, res.Log)
	var bal ledger.BalanceResult
	require.NoError(t, json.Unmarshal(res.Data, &bal))
	assert.Equal(t, uint64(69), bal.Balance)

	// A restored home serves the same vaults.
	var exported app.Genesis
	require.NoError(t, json.Unmarshal([]byte(run(t, "export", "", "-home", home)), &exported))
	assert.Equal(t, "vaultd-test", exported.ChainID)

	restored := filepath.Join(dir, "restored")
	genPath := filepath.Join(dir, "exported.json")
	raw, err := json.Marshal(exported)
	require.NoError(t, err)
	require.NoError(t, ioutil.WriteFile(genPath, raw, 0600))
	run(t, "init", "", "-home", restored, "-genesis", genPath)

	req := run(t, "sign", `{}`, "-home", restored, "-key", keyPath, "-path", vault.PathGetTransactions)
	require.NoError(t, json.Unmarshal([]byte(run(t, "exec", req, "-home", restored)), res))
	require.Equal(t, uint32(0), res.Code, res.Log)
	var txs []*vault.Transaction
	require.NoError(t, json.Unmarshal(res.Data, &txs))
	require.Len(t, txs, 1)
	assert.Equal(t, *tx.BlockIndex, *txs[0].BlockIndex)
}
