package app

import (
	"context"
	"testing"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingMsg struct {
	Text string `json:"text"`
}

func (pingMsg) Path() string { return "test/ping" }

func (m *pingMsg) Validate() error {
	if m.Text == "" {
		return errors.Wrap(errors.ErrEmpty, "text")
	}
	return nil
}

type badPathMsg struct{}

func (badPathMsg) Path() string     { return "l:7" }
func (badPathMsg) Validate() error { return nil }

type echoHandler struct{}

func (echoHandler) Deliver(ctx context.Context, ex custody.Executor, m custody.Msg) (*custody.DeliverResult, error) {
	var msg pingMsg
	if err := custody.LoadMsg(m, &msg); err != nil {
		return nil, err
	}
	return &custody.DeliverResult{Data: msg.Text}, nil
}

func TestRouter(t *testing.T) {
	r := NewRouter()
	r.Handle(&pingMsg{}, echoHandler{})

	// make sure invalid registrations panic
	assert.Panics(t, func() { r.Handle(&pingMsg{}, echoHandler{}) })
	assert.Panics(t, func() { r.Handle(&badPathMsg{}, echoHandler{}) })

	msg, h, err := r.Decode("test/ping", []byte(`{"text": "pong"}`))
	require.NoError(t, err)
	assert.Equal(t, &pingMsg{Text: "pong"}, msg)
	res, err := h.Deliver(context.Background(), nil, msg)
	require.NoError(t, err)
	assert.Equal(t, "pong", res.Data)

	_, _, err = r.Decode("test/missing", []byte(`{}`))
	assert.True(t, errors.ErrNotFound.Is(err))

	_, _, err = r.Decode("test/ping", []byte(`{"text": 1}`))
	assert.True(t, errors.ErrInvalidMsg.Is(err))

	assert.Equal(t, []string{"test/ping"}, r.Paths())
}
