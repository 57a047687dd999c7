// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package identity renders 32-byte validator/account ids as
// human-readable Base58Check strings for logs and the CLI, and
// resolves external-facing identifiers back to the ids the consensus
// core keys everything on. Grounded on
// crates/types/src/address.rs's encode_address_base58check/
// decode_address_base58check.
package identity

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/ippan-network/dlc-consensus/types"
)

const (
	addressVersion = 0x00
	checksumLength = 4
)

var (
	ErrInvalidPayloadLength = errors.New("identity: address payload must decode to version+32 bytes+checksum")
	ErrInvalidVersion       = errors.New("identity: address version byte mismatch")
	ErrInvalidChecksum      = errors.New("identity: address checksum mismatch")
)

func checksum(payload []byte) [checksumLength]byte {
	h1 := sha256.Sum256(payload)
	h2 := sha256.Sum256(h1[:])
	var out [checksumLength]byte
	copy(out[:], h2[:checksumLength])
	return out
}

// Encode renders id as a Base58Check string: version byte + 32 raw
// bytes + a 4-byte double-SHA256 checksum, Base58-encoded.
func Encode(id types.ID) string {
	payload := make([]byte, 0, 1+len(id)+checksumLength)
	payload = append(payload, addressVersion)
	payload = append(payload, id[:]...)
	sum := checksum(payload)
	payload = append(payload, sum[:]...)
	return base58.Encode(payload)
}

// Decode parses a Base58Check address string back into its 32-byte id,
// verifying the version byte and checksum.
func Decode(address string) (types.ID, error) {
	decoded, err := base58.Decode(address)
	if err != nil {
		return types.ID{}, fmt.Errorf("identity: base58 decode: %w", err)
	}
	if len(decoded) != 1+32+checksumLength {
		return types.ID{}, ErrInvalidPayloadLength
	}

	version := decoded[0]
	payload := decoded[:1+32]
	wantChecksum := decoded[1+32:]

	if version != addressVersion {
		return types.ID{}, ErrInvalidVersion
	}
	gotChecksum := checksum(payload)
	for i := range wantChecksum {
		if wantChecksum[i] != gotChecksum[i] {
			return types.ID{}, ErrInvalidChecksum
		}
	}

	var id types.ID
	copy(id[:], payload[1:])
	return id, nil
}

// IsValid reports whether address decodes successfully.
func IsValid(address string) bool {
	_, err := Decode(address)
	return err == nil
}
