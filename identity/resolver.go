// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package identity

import "github.com/ippan-network/dlc-consensus/types"

// Resolver turns an external-facing identifier into the 32-byte id
// the consensus core keys everything on — the narrow external
// interface spec.md §6 names. A production deployment's resolver
// might also accept ENS-style names or a DHT lookup; this package
// only ships the Base58Check codec every resolver implementation is
// expected to fall back to.
type Resolver interface {
	Resolve(external string) (types.ID, error)
}

// Base58Resolver resolves a Base58Check address string directly,
// with no external lookup.
type Base58Resolver struct{}

// Resolve decodes external as a Base58Check address.
func (Base58Resolver) Resolve(external string) (types.ID, error) {
	return Decode(external)
}
