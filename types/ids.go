// Package types holds the wire-level data model shared by every
// consensus subsystem: accounts, transactions, blocks, validator
// records, and chain state. None of these types carry behavior beyond
// construction and the invariants spec'd in their doc comments.
package types

import (
	"encoding/hex"

	"github.com/mr-tron/base58"
)

// ID is the 32-byte identifier used for validators, accounts, blocks,
// and transactions alike. The core never accepts identifiers in any
// other shape; mapping handles or public keys down to an ID happens at
// the identity-resolver boundary.
type ID [32]byte

// String renders an ID as base58, matching how the reference
// implementation displays addresses to operators and logs.
func (id ID) String() string {
	return base58.Encode(id[:])
}

// Hex renders an ID as a hex string, useful for log correlation with
// storage keys.
func (id ID) Hex() string {
	return hex.EncodeToString(id[:])
}

// IsZero reports whether id is the all-zero sentinel (used for the
// treasury account and unset fields).
func (id ID) IsZero() bool {
	return id == ID{}
}

// Less provides the canonical ascending tie-break ordering used
// throughout selection, tip choice, and reward remainder distribution.
func (id ID) Less(other ID) bool {
	for i := range id {
		if id[i] != other[i] {
			return id[i] < other[i]
		}
	}
	return false
}

// BlockID aliases ID for call-site clarity.
type BlockID = ID

// ValidatorID aliases ID for call-site clarity.
type ValidatorID = ID

// TxID aliases ID for call-site clarity.
type TxID = ID

// RoundID is a monotonically increasing round counter.
type RoundID uint64
