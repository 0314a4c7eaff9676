package sigs

import (
	"context"
	"crypto/sha512"
	"encoding/binary"
	"encoding/json"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/crypto"
	"github.com/iov-one/custody/errors"
)

// SignCodeV1 is the current way to prefix the bytes we use to build
// a signature
var SignCodeV1 = []byte{0, 0xCA, 0xFE, 0}

/*
BuildSignBytes combines all info on the request before signing

version | len(chainID) | chainID | nonce             | len(path) | path  | msg
4bytes  | uint8        | ascii   | int64 (bigendian) | uint8     | ascii | json

This is then prehashed with sha512 before fed into
the public key signing/verification step
*/
func BuildSignBytes(chainID, path string, msg []byte, seq uint64) ([]byte, error) {
	if !custody.IsValidChainID(chainID) {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "chain id: %v", chainID)
	}
	if len(path) > 255 {
		return nil, errors.Wrap(errors.ErrInvalidInput, "path too long")
	}

	nonce := make([]byte, 8)
	binary.BigEndian.PutUint64(nonce, seq)

	output := make([]byte, 0, 4+1+len(chainID)+8+1+len(path)+len(msg))
	output = append(output, SignCodeV1...)
	output = append(output, uint8(len(chainID)))
	output = append(output, chainID...)
	output = append(output, nonce...)
	output = append(output, uint8(len(path)))
	output = append(output, path...)
	output = append(output, msg...)

	hashed := sha512.Sum512(output)
	return hashed[:], nil
}

// SignRequest builds a signed envelope for the message.
func SignRequest(signer crypto.Signer, chainID string, msg custody.Msg, seq uint64) (*SignedRequest, error) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidMsg, "encode %s: %s", msg.Path(), err)
	}
	req := &SignedRequest{
		ChainID:  chainID,
		Path:     msg.Path(),
		Msg:      raw,
		Pubkey:   signer.PublicKey(),
		Sequence: seq,
	}
	signBytes, err := req.SignBytes()
	if err != nil {
		return nil, err
	}
	if req.Signature, err = signer.Sign(signBytes); err != nil {
		return nil, errors.Wrap(err, "sign")
	}
	return req, nil
}

// VerifySignature checks the request signature against the stored sequence
// of the signer and increments it. The request chain id must match chainID.
func VerifySignature(db custody.KVStore, req *SignedRequest, chainID string) (custody.Condition, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.ChainID != chainID {
		return nil, errors.Wrapf(errors.ErrUnauthorized, "chain id %q, want %q", req.ChainID, chainID)
	}

	bucket := NewBucket()
	user, err := bucket.GetOrCreate(db, req.Pubkey)
	if err != nil {
		return nil, err
	}

	signBytes, err := req.SignBytes()
	if err != nil {
		return nil, err
	}
	if !user.Pubkey.Verify(signBytes, req.Signature) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "invalid signature")
	}

	if err := user.CheckAndIncrementSequence(req.Sequence); err != nil {
		return nil, err
	}
	if err := bucket.Save(db, user); err != nil {
		return nil, err
	}
	return user.Pubkey.Condition(), nil
}

// Authorize verifies the request and returns a context that Authenticate
// resolves to the request signer. The chain id is taken from the context.
func Authorize(ctx context.Context, db custody.KVStore, req *SignedRequest) (context.Context, error) {
	signer, err := VerifySignature(db, req, custody.GetChainID(ctx))
	if err != nil {
		return nil, errors.Wrap(err, "cannot verify signature")
	}
	return withSigners(ctx, []custody.Condition{signer}), nil
}
