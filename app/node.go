package app

import (
	"context"
	"encoding/json"
	"time"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/x/sigs"
	"github.com/tendermint/tendermint/libs/log"
)

// Response is the boundary representation of an executed request. A zero
// code is a success.
type Response struct {
	Code uint32          `json:"code"`
	Log  string          `json:"log,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Node executes signed requests: it decodes the envelope, authenticates the
// signer, routes the message and renders the result.
type Node struct {
	chainID string
	router  *Router
	state   custody.Executor
	logger  log.Logger
	debug   bool
	now     func() time.Time
}

// NewNode returns a node executing requests of the chain against the state.
func NewNode(chainID string, router *Router, state custody.Executor) *Node {
	return &Node{
		chainID: chainID,
		router:  router,
		state:   state,
		logger:  log.NewNopLogger(),
		now:     time.Now,
	}
}

// WithLogger sets the logger of the node and of every request context.
func (n *Node) WithLogger(logger log.Logger) *Node {
	n.logger = logger
	return n
}

// WithDebug exposes internal error details in responses.
func (n *Node) WithDebug(debug bool) *Node {
	n.debug = debug
	return n
}

// WithClock replaces the source of the request time.
func (n *Node) WithClock(now func() time.Time) *Node {
	n.now = now
	return n
}

// Execute runs a JSON encoded sigs.SignedRequest. Failures are rendered into
// the response, never returned.
func (n *Node) Execute(ctx context.Context, raw []byte) *Response {
	var req sigs.SignedRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return n.render(nil, errors.Wrapf(errors.ErrInvalidInput, "decode request: %s", err))
	}
	return n.Deliver(ctx, &req)
}

// Deliver runs a decoded request.
func (n *Node) Deliver(ctx context.Context, req *sigs.SignedRequest) *Response {
	start := n.now()
	ctx = custody.WithBlockTime(ctx, start)
	ctx = custody.WithChainID(ctx, n.chainID)
	ctx = custody.WithLogger(ctx, n.logger)

	res, signer, err := n.deliver(ctx, req)
	n.logger.Info("request executed",
		"path", req.Path,
		"signer", signer,
		"duration", time.Since(start),
		"err", err)
	return n.render(res, err)
}

func (n *Node) deliver(ctx context.Context, req *sigs.SignedRequest) (res *custody.DeliverResult, signer string, err error) {
	defer errors.Recover(&err)

	if err := req.Validate(); err != nil {
		return nil, "", errors.Wrap(err, "invalid request")
	}
	msg, h, err := n.router.Decode(req.Path, req.Msg)
	if err != nil {
		return nil, "", err
	}

	// The sequence is consumed even if the handler fails later on.
	err = n.state.Update(ctx, func(db custody.KVStore) error {
		var err error
		ctx, err = sigs.Authorize(ctx, db, req)
		return err
	})
	if err != nil {
		return nil, "", err
	}
	signer = req.Pubkey.Address().String()
	ctx = custody.WithLogInfo(ctx, "path", req.Path, "signer", signer)

	res, err = h.Deliver(ctx, n.state, msg)
	return res, signer, err
}

func (n *Node) render(res *custody.DeliverResult, err error) *Response {
	if err != nil {
		code, log := errors.Info(err, n.debug)
		return &Response{Code: code, Log: log}
	}
	out := &Response{Log: res.Log}
	if res.Data != nil {
		raw, err := json.Marshal(res.Data)
		if err != nil {
			code, log := errors.Info(errors.Wrapf(errors.ErrInvalidModel, "encode result: %s", err), n.debug)
			return &Response{Code: code, Log: log}
		}
		out.Data = raw
	}
	return out
}
