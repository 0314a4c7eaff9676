/*
Package crypto maps signing keys onto custody permissions. A public key
produces a Condition, the Condition an Address, and that address is the
identity the vault stores for its users.
*/
package crypto

import (
	"encoding/hex"
	"encoding/json"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

// ExtensionName is used for the Conditions we get from signatures
const ExtensionName = "sigs"

// PubKey represents a crypto public key we use
type PubKey interface {
	Verify(message []byte, sig Signature) bool
	Condition() custody.Condition
}

// Signer is the functionality we use from a private key
// No serializing to support hardware devices as well.
type Signer interface {
	Sign(message []byte) (Signature, error)
	PublicKey() PublicKey
}

// Signature is a raw signature produced by a Signer.
type Signature []byte

// MarshalJSON encodes the signature as hex.
func (s Signature) MarshalJSON() ([]byte, error) {
	return marshalHex(s)
}

// UnmarshalJSON decodes the hex representation of a signature.
func (s *Signature) UnmarshalJSON(raw []byte) error {
	b, err := unmarshalHex(raw)
	if err != nil {
		return errors.Wrap(err, "signature")
	}
	*s = b
	return nil
}

func marshalHex(b []byte) ([]byte, error) {
	return json.Marshal(hex.EncodeToString(b))
}

func unmarshalHex(raw []byte) ([]byte, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, errors.Wrap(errors.ErrInvalidInput, "expected hex string")
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "hex: %s", err)
	}
	return b, nil
}
