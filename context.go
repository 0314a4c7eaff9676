/*
Package custody defines the common interfaces used to tie
together the vault subpackages, as well as implementations of
some of the simpler components (when interfaces would be too
much overhead).

We pass context through context.Context between the node,
the router and handlers. custody defines some common keys to
store info, such as the block time and chain id. Each extension,
such as sigs, may add its own keys to enrich the context with
specific data.

There should exist two functions for every XYZ of type T
that we want to support in Context:

  WithXYZ(Context, T) Context
  GetXYZ(Context) (val T, ok bool)

WithXYZ may panic if the value was previously set to avoid
lower-level modules overwriting the value (eg. chain id).
*/
package custody

import (
	"context"
	"regexp"
	"time"

	"github.com/tendermint/tendermint/libs/log"
)

type contextKey int // local to the custody module

const (
	contextKeyBlockTime contextKey = iota
	contextKeyChainID
	contextKeyLogger
)

var (
	// DefaultLogger is used for all context that have not
	// set anything themselves
	DefaultLogger = log.NewNopLogger()

	// IsValidChainID is the RegExp to ensure valid chain IDs
	IsValidChainID = regexp.MustCompile(`^[a-zA-Z0-9_\-]{6,20}$`).MatchString
)

// WithBlockTime sets the time of the request being executed. All timestamps
// written by handlers are taken from here, never from the wall clock.
func WithBlockTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, contextKeyBlockTime, t)
}

// BlockTime returns the time set with WithBlockTime.
func BlockTime(ctx context.Context) (time.Time, bool) {
	t, ok := ctx.Value(contextKeyBlockTime).(time.Time)
	return t, ok
}

// MustBlockTime returns the time of the request or panics. Every node
// execution path sets it, so a missing value is a wiring bug.
func MustBlockTime(ctx context.Context) time.Time {
	t, ok := BlockTime(ctx)
	if !ok {
		panic("block time not present in the context")
	}
	return t
}

// WithChainID sets the chain id for the Context.
// It panics if the chain id is already set or invalid.
func WithChainID(ctx context.Context, chainID string) context.Context {
	if ctx.Value(contextKeyChainID) != nil {
		panic("Chain ID already set")
	}
	if !IsValidChainID(chainID) {
		panic("Invalid chain ID")
	}
	return context.WithValue(ctx, contextKeyChainID, chainID)
}

// GetChainID returns the current chain id
// panics if chain id not already set (should never happen)
func GetChainID(ctx context.Context) string {
	if x := ctx.Value(contextKeyChainID); x == nil {
		panic("Chain id not present in the context")
	}
	return ctx.Value(contextKeyChainID).(string)
}

// WithLogger sets the logger for this Context
func WithLogger(ctx context.Context, logger log.Logger) context.Context {
	return context.WithValue(ctx, contextKeyLogger, logger)
}

// WithLogInfo accepts keyvalue pairs, and returns another
// context like this, after passing all the keyvals to the
// Logger
func WithLogInfo(ctx context.Context, keyvals ...interface{}) context.Context {
	logger := GetLogger(ctx).With(keyvals...)
	return WithLogger(ctx, logger)
}

// GetLogger returns the currently set logger, or
// DefaultLogger if none was set
func GetLogger(ctx context.Context) log.Logger {
	if val, ok := ctx.Value(contextKeyLogger).(log.Logger); ok {
		return val
	}
	return DefaultLogger
}
