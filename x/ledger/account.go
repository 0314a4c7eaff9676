package ledger

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"hash/crc32"

	"github.com/iov-one/custody/errors"
)

// accountDomain separates account identifier hashes from any other sha224
// use. The first byte is the length of the rest.
var accountDomain = []byte("\x0Aaccount-id")

// Subaccount selects one of the accounts of an owner.
type Subaccount [32]byte

// WalletSubaccount returns the subaccount of a wallet: the id as 8 little
// endian bytes followed by zeros.
func WalletSubaccount(id uint64) Subaccount {
	var s Subaccount
	binary.LittleEndian.PutUint64(s[:8], id)
	return s
}

// AccountID identifies an account on the ledger. The first 4 bytes are the
// crc32 checksum of the remaining 28 byte sha224 hash.
type AccountID [32]byte

// NewAccountID derives the account identifier of an owner subaccount.
func NewAccountID(owner []byte, sub Subaccount) AccountID {
	h := sha256.New224()
	h.Write(accountDomain)
	h.Write(owner)
	h.Write(sub[:])
	hash := h.Sum(nil)

	var id AccountID
	binary.BigEndian.PutUint32(id[:4], crc32.ChecksumIEEE(hash))
	copy(id[4:], hash)
	return id
}

// ParseAccountID decodes the 64 character hex form of an account
// identifier and verifies its checksum.
func ParseAccountID(enc string) (AccountID, error) {
	var id AccountID
	raw, err := hex.DecodeString(enc)
	if err != nil {
		return id, errors.Wrapf(errors.ErrInvalidInput, "account id hex: %s", err)
	}
	if len(raw) != len(id) {
		return id, errors.Wrapf(errors.ErrInvalidInput, "account id length %d", len(raw))
	}
	copy(id[:], raw)
	var sum [4]byte
	binary.BigEndian.PutUint32(sum[:], crc32.ChecksumIEEE(id[4:]))
	if !bytes.Equal(sum[:], id[:4]) {
		return id, errors.Wrap(errors.ErrInvalidInput, "account id checksum")
	}
	return id, nil
}

// String returns the lower case hex representation.
func (a AccountID) String() string {
	return hex.EncodeToString(a[:])
}

// MarshalJSON encodes the account identifier as hex.
func (a AccountID) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON decodes a checksummed hex account identifier.
func (a *AccountID) UnmarshalJSON(raw []byte) error {
	var enc string
	if err := json.Unmarshal(raw, &enc); err != nil {
		return errors.Wrap(errors.ErrInvalidInput, "account id must be a string")
	}
	id, err := ParseAccountID(enc)
	if err != nil {
		return err
	}
	*a = id
	return nil
}
