package custody

import (
	"context"
	"encoding/json"
)

// Msg is a request that can be routed to a Handler.
type Msg interface {
	// Path is the route the router dispatches on, eg. "vault/register_vault".
	Path() string

	// Validate performs only input validation. No state is available.
	Validate() error
}

// Executor runs state transitions. Only one Update section runs at a time and
// every section is atomic: an error returned by fn discards all writes done
// by fn, success makes them visible to all following sections.
type Executor interface {
	Update(ctx context.Context, fn func(db KVStore) error) error
	View(ctx context.Context, fn func(db ReadOnlyKVStore) error) error
}

// DeliverResult is returned by a handler on success. Data is rendered as JSON
// at the boundary.
type DeliverResult struct {
	Data interface{}
	Log  string
}

// Handler processes one kind of Msg.
//
// A Handler receives an Executor instead of a store, because some operations
// (a ledger transfer) must not hold the state lock while they wait.
type Handler interface {
	Deliver(ctx context.Context, ex Executor, msg Msg) (*DeliverResult, error)
}

// Registry is an interface to register your handler,
// the setup side of a Router.
//
// The message is an example instance of the type the handler accepts. Its
// path is the route and a new instance of its type is decoded for every
// request.
type Registry interface {
	Handle(m Msg, h Handler)
}

// Options are the app state options.
// Each extension can look up it's key and parse the json as desired
type Options map[string]json.RawMessage

// ReadOptions reads the values stored under a given key,
// and parses the json into the given obj.
// Returns an error if it cannot parse.
// Noop and no error if key is missing
func (o Options) ReadOptions(key string, obj interface{}) error {
	msg := o[key]
	if len(msg) == 0 {
		return nil
	}
	return json.Unmarshal(msg, obj)
}

// Initializer implementations are used to initialize
// extensions from genesis file contents
type Initializer interface {
	FromGenesis(Options, KVStore) error
}

// Exporter implementations dump the extension state in the same format
// their Initializer accepts.
type Exporter interface {
	ExportGenesis(ReadOnlyKVStore) (json.RawMessage, error)
}
