/*
Package vaulttest provides fakes and helpers for testing the custody
extensions without a node: authenticators, condition generators and a
scripted ledger.
*/
package vaulttest

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/iov-one/custody"
)

var counter uint64

// NewCondition returns a new, unique condition. Every call returns a
// different value.
func NewCondition() custody.Condition {
	n := atomic.AddUint64(&counter, 1)
	return custody.NewCondition("test", "seq", SequenceID(n))
}

// SequenceID returns the 8 byte big endian representation of n, the key
// format of every id keyed model.
func SequenceID(n uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n)
	return b
}
