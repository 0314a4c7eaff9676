package crypto

import (
	"encoding/hex"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"golang.org/x/crypto/ed25519"
)

// PublicKey is an ed25519 public key.
type PublicKey []byte

var _ PubKey = PublicKey(nil)

// Verify verifies the signature was created with this message and public key
func (p PublicKey) Verify(message []byte, sig Signature) bool {
	if len(p) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(p), message, sig)
}

// Condition encodes the public key into a custody condition. An empty key
// has no condition.
func (p PublicKey) Condition() custody.Condition {
	if len(p) == 0 {
		return nil
	}
	return custody.NewCondition(ExtensionName, "ed25519", p)
}

// Address returns the address of the key condition.
func (p PublicKey) Address() custody.Address {
	return p.Condition().Address()
}

// Validate returns an error if the key does not have the ed25519 size.
func (p PublicKey) Validate() error {
	if len(p) != ed25519.PublicKeySize {
		return errors.Wrapf(errors.ErrInvalidInput, "public key size %d", len(p))
	}
	return nil
}

// MarshalJSON encodes the key as hex.
func (p PublicKey) MarshalJSON() ([]byte, error) {
	return marshalHex(p)
}

// UnmarshalJSON decodes the hex representation of a key.
func (p *PublicKey) UnmarshalJSON(raw []byte) error {
	b, err := unmarshalHex(raw)
	if err != nil {
		return errors.Wrap(err, "public key")
	}
	*p = b
	return nil
}

// PrivateKey is an ed25519 private key, the seed followed by the public key.
type PrivateKey []byte

var _ Signer = PrivateKey(nil)

// Sign returns a matching signature for this private key
func (p PrivateKey) Sign(message []byte) (Signature, error) {
	if len(p) != ed25519.PrivateKeySize {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "private key size %d", len(p))
	}
	return ed25519.Sign(ed25519.PrivateKey(p), message), nil
}

// PublicKey returns the corresponding PublicKey
func (p PrivateKey) PublicKey() PublicKey {
	pub := ed25519.PrivateKey(p).Public().(ed25519.PublicKey)
	return PublicKey(pub)
}

// String returns the hex representation used by key files.
func (p PrivateKey) String() string {
	return hex.EncodeToString(p)
}

// ParsePrivateKey decodes a key written by PrivateKey.String.
func ParsePrivateKey(enc string) (PrivateKey, error) {
	raw, err := hex.DecodeString(enc)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "private key hex: %s", err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "private key size %d", len(raw))
	}
	return PrivateKey(raw), nil
}

// GenPrivKeyEd25519 returns a random new private key
func GenPrivKeyEd25519() PrivateKey {
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		panic(err)
	}
	return PrivateKey(priv)
}

// PrivKeyEd25519FromSeed will deterministically generate a private key from
// a given seed. Use if you have a strong source of external randomness,
// or for deterministic keys in test cases.
func PrivKeyEd25519FromSeed(seed []byte) PrivateKey {
	return PrivateKey(ed25519.NewKeyFromSeed(seed))
}
