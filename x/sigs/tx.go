package sigs

import (
	"encoding/json"
	"regexp"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/crypto"
	"github.com/iov-one/custody/errors"
)

var isPath = regexp.MustCompile(`^[a-z]{3,16}/[a-z_]{3,32}$`).MatchString

// SignedRequest is the envelope every request arrives in. The message is
// kept as raw JSON so the signature covers the exact bytes the router
// decodes.
type SignedRequest struct {
	ChainID   string           `json:"chain_id"`
	Path      string           `json:"path"`
	Msg       json.RawMessage  `json:"msg"`
	Pubkey    crypto.PublicKey `json:"pubkey"`
	Sequence  uint64           `json:"sequence"`
	Signature crypto.Signature `json:"signature"`
}

// Validate checks the envelope format. It does not verify the signature.
func (r *SignedRequest) Validate() error {
	if !custody.IsValidChainID(r.ChainID) {
		return errors.Wrapf(errors.ErrInvalidInput, "chain id %q", r.ChainID)
	}
	if !isPath(r.Path) {
		return errors.Wrapf(errors.ErrInvalidInput, "path %q", r.Path)
	}
	if len(r.Msg) == 0 {
		return errors.Wrap(errors.ErrEmpty, "msg")
	}
	if err := r.Pubkey.Validate(); err != nil {
		return errors.Wrap(errors.ErrUnauthorized, "missing public key")
	}
	if len(r.Signature) == 0 {
		return errors.Wrap(errors.ErrUnauthorized, "missing signature")
	}
	return nil
}

// SignBytes returns the bytes covered by the request signature.
func (r *SignedRequest) SignBytes() ([]byte, error) {
	return BuildSignBytes(r.ChainID, r.Path, r.Msg, r.Sequence)
}
