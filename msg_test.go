package custody

import (
	"testing"

	"github.com/iov-one/custody/errors"
	"github.com/stretchr/testify/assert"
)

type demoMsg struct {
	Num  int
	Text string
	Err  error
}

func (demoMsg) Path() string { return "demo/msg" }

func (m *demoMsg) Validate() error { return m.Err }

type otherMsg struct{}

func (otherMsg) Path() string     { return "demo/other" }
func (*otherMsg) Validate() error { return nil }

func TestLoadMsg(t *testing.T) {
	cases := map[string]struct {
		Msg     Msg
		Dest    interface{}
		WantMsg interface{}
		WantErr *errors.Error
	}{
		"success": {
			Msg:     &demoMsg{Num: 102, Text: "foobar"},
			Dest:    &demoMsg{},
			WantMsg: &demoMsg{Num: 102, Text: "foobar"},
		},
		"nil message": {
			Msg:     nil,
			Dest:    &demoMsg{},
			WantErr: errors.ErrInvalidState,
		},
		"destination not a pointer": {
			Msg:     &demoMsg{Num: 1},
			Dest:    demoMsg{},
			WantErr: errors.ErrInvalidType,
		},
		"wrong destination type": {
			Msg:     &demoMsg{Num: 1},
			Dest:    &otherMsg{},
			WantErr: errors.ErrInvalidType,
		},
		"nil destination": {
			Msg:     &demoMsg{Num: 1},
			Dest:    (*demoMsg)(nil),
			WantErr: errors.ErrInvalidType,
		},
		"random destination": {
			Msg:     &demoMsg{Num: 1},
			Dest:    "foobar",
			WantErr: errors.ErrInvalidType,
		},
		"failed validation": {
			Msg:     &demoMsg{Err: errors.ErrEmpty},
			Dest:    &demoMsg{},
			WantErr: errors.ErrEmpty,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if err := LoadMsg(tc.Msg, tc.Dest); !tc.WantErr.Is(err) {
				t.Fatalf("want %q error, got %q", tc.WantErr, err)
			}
			if tc.WantErr == nil {
				assert.Equal(t, tc.WantMsg, tc.Dest)
			}
		})
	}
}
