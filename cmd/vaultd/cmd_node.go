package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/iov-one/custody/app"
	vaultd "github.com/iov-one/custody/cmd/vaultd/app"
	"github.com/iov-one/custody/x/sigs"
	"github.com/tendermint/tendermint/libs/log"
)

func homeFlag(fl *flag.FlagSet) *string {
	return fl.String("home", env("VAULTD_HOME", filepath.Join(os.Getenv("HOME"), ".vaultd")),
		"Directory the node state is stored in. You can use VAULTD_HOME environment variable to set it.")
}

func newLogger(debug bool) log.Logger {
	logger := log.NewTMLogger(log.NewSyncWriter(os.Stderr))
	if debug {
		logger = log.NewFilter(logger, log.AllowDebug())
	} else {
		logger = log.NewFilter(logger, log.AllowInfo())
	}
	return logger.With("module", "vaultd")
}

func cmdInit(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Initialize the node state from a genesis file.

The genesis file sets the chain id, the vault and ledger configuration under
"conf", an optional vault checkpoint under "vault" and the ledger balances
under "ledger". A home directory can be initialized only once.
`)
		fl.PrintDefaults()
	}
	var (
		homeFl    = homeFlag(fl)
		genesisFl = fl.String("genesis", "", "Path to the genesis file. Standard input is read if not set.")
	)
	fl.Parse(args)

	var gen *app.Genesis
	if *genesisFl != "" {
		var err error
		if gen, err = app.LoadGenesis(*genesisFl); err != nil {
			return err
		}
	} else {
		raw, err := ioutil.ReadAll(input)
		if err != nil {
			return fmt.Errorf("cannot read genesis: %s", err)
		}
		gen = &app.Genesis{}
		if err := json.Unmarshal(raw, gen); err != nil {
			return fmt.Errorf("cannot decode genesis: %s", err)
		}
	}

	stores, err := vaultd.OpenStores(*homeFl)
	if err != nil {
		return err
	}
	defer stores.Close()
	if err := stores.Init(context.Background(), gen); err != nil {
		return err
	}
	_, err = fmt.Fprintf(output, "initialized chain %s in %s\n", gen.ChainID, *homeFl)
	return err
}

func cmdSign(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Read a JSON message from standard input and write the signed request to
standard output. The chain id and the signer sequence are read from the node
state unless given.
`)
		fl.PrintDefaults()
	}
	var (
		homeFl  = homeFlag(fl)
		keyFl   = keyFlag(fl)
		pathFl  = fl.String("path", "", "Route of the message, for example vault/register_vault. Run paths to list all.")
		seqFl   = fl.Int64("seq", -1, "Sequence to sign with. The next sequence of the signer is used if negative.")
		chainFl = fl.String("chain", "", "Chain id to sign for. Read from the node state if not set.")
	)
	fl.Parse(args)

	key, err := readKey(*keyFl)
	if err != nil {
		return err
	}
	raw, err := ioutil.ReadAll(input)
	if err != nil {
		return fmt.Errorf("cannot read message: %s", err)
	}

	ctx := context.Background()
	stores, err := vaultd.OpenStores(*homeFl)
	if err != nil {
		return err
	}
	defer stores.Close()

	msg, _, err := stores.Routes().Decode(*pathFl, raw)
	if err != nil {
		return err
	}
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("invalid message: %s", err)
	}

	chainID := *chainFl
	if chainID == "" {
		if chainID, err = app.LoadChainID(ctx, stores.Vault); err != nil {
			return err
		}
	}
	seq := uint64(*seqFl)
	if *seqFl < 0 {
		if seq, err = stores.NextNonce(ctx, key.PublicKey().Address()); err != nil {
			return err
		}
	}

	req, err := sigs.SignRequest(key, chainID, msg, seq)
	if err != nil {
		return err
	}
	return json.NewEncoder(output).Encode(req)
}

func cmdExec(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Execute a signed request read from standard input and write the response to
standard output. A failed request is not a command failure, check the code
of the response.
`)
		fl.PrintDefaults()
	}
	var (
		homeFl  = homeFlag(fl)
		debugFl = fl.Bool("debug", false, "Log debug messages and return internal error details.")
	)
	fl.Parse(args)

	raw, err := ioutil.ReadAll(input)
	if err != nil {
		return fmt.Errorf("cannot read request: %s", err)
	}

	ctx := context.Background()
	stores, err := vaultd.OpenStores(*homeFl)
	if err != nil {
		return err
	}
	defer stores.Close()

	node, err := stores.Node(ctx, newLogger(*debugFl))
	if err != nil {
		return err
	}
	res := node.WithDebug(*debugFl).Execute(ctx, raw)
	return json.NewEncoder(output).Encode(res)
}

func cmdExport(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Write the node state as a genesis file to standard output. The result can be
used with init to restore the state in another home directory.
`)
		fl.PrintDefaults()
	}
	homeFl := homeFlag(fl)
	fl.Parse(args)

	stores, err := vaultd.OpenStores(*homeFl)
	if err != nil {
		return err
	}
	defer stores.Close()

	gen, err := stores.Export(context.Background())
	if err != nil {
		return err
	}
	enc := json.NewEncoder(output)
	enc.SetIndent("", "  ")
	return enc.Encode(gen)
}

func cmdPaths(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
List the routes requests can be signed for.
`)
		fl.PrintDefaults()
	}
	fl.Parse(args)

	for _, p := range vaultd.Router(vaultd.Authenticator(), nil, nil).Paths() {
		if _, err := fmt.Fprintln(output, p); err != nil {
			return err
		}
	}
	return nil
}
