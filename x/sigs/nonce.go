package sigs

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

// NextNonce returns the next numeric nonce value that should be used during a
// request signing.
// You can get the signers address by calling
//   address := <crypto.Signer>.PublicKey().Address()
func NextNonce(db custody.ReadOnlyKVStore, signer custody.Address) (uint64, error) {
	var user UserData
	err := NewBucket().One(db, signer, &user)
	switch {
	case err == nil:
		return user.Sequence, nil
	case errors.ErrNotFound.Is(err):
		// If not yet present, nonce counting starts with zero.
		return 0, nil
	default:
		return 0, errors.Wrap(err, "bucket get")
	}
}
