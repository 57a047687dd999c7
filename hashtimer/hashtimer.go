// Package hashtimer derives the 32-byte temporal fingerprint that
// binds an event's time, payload, nonce, and originating node. The
// derivation is a pure function so independent implementations agree
// bit-for-bit: digest = BLAKE3(context || time || domain || payload ||
// nonce || node_id).
package hashtimer

import (
	"crypto/rand"
	"encoding/binary"

	"github.com/zeebo/blake3"

	"github.com/ippan-network/dlc-consensus/ippantime"
)

// Context names the kind of event a HashTimer was derived for. The set
// is closed and fixed so the wire framing never needs a discriminant
// beyond this single byte.
type Context byte

const (
	ContextBlock Context = iota + 1
	ContextTx
	ContextRound
	ContextFile
)

// Domain disambiguates the payload shape within a Context so the same
// raw bytes can never be replayed across unrelated derivations.
type Domain string

// HashTimer is the temporal fingerprint attached to a block, tx, or
// round boundary.
type HashTimer struct {
	Time    ippantime.Micros
	Digest  [32]byte
	Nonce   [32]byte
	NodeID  [32]byte
	Context Context
}

// Derive computes digest = BLAKE3(context || time_be || domain ||
// payload || nonce || node_id) and returns the resulting HashTimer.
// Byte framing is fixed: every field is written in a documented order
// so a second implementation reproduces the same digest.
func Derive(ctx Context, t ippantime.Micros, domain Domain, payload []byte, nonce, nodeID [32]byte) HashTimer {
	h := blake3.New()
	h.Write([]byte{byte(ctx)})

	var timeBuf [8]byte
	binary.BigEndian.PutUint64(timeBuf[:], uint64(t))
	h.Write(timeBuf[:])

	h.Write([]byte(domain))
	h.Write(payload)
	h.Write(nonce[:])
	h.Write(nodeID[:])

	var digest [32]byte
	copy(digest[:], h.Sum(nil))

	return HashTimer{
		Time:    t,
		Digest:  digest,
		Nonce:   nonce,
		NodeID:  nodeID,
		Context: ctx,
	}
}

// RandomNonce draws a fresh 32-byte nonce from a CSPRNG. Used by
// proposers constructing a new block or transaction HashTimer; it is
// never part of the deterministic digest recomputation path itself.
func RandomNonce() [32]byte {
	var nonce [32]byte
	_, _ = rand.Read(nonce[:])
	return nonce
}

// Recompute re-derives the digest for ht's recorded fields against the
// given domain/payload, for use by IsValid and by any verifier that
// wants to confirm a HashTimer wasn't tampered with.
func (ht HashTimer) Recompute(domain Domain, payload []byte) [32]byte {
	recomputed := Derive(ht.Context, ht.Time, domain, payload, ht.Nonce, ht.NodeID)
	return recomputed.Digest
}

// IsValid recomputes the digest and checks that ht.Time falls within
// [now - tolerance, now] of the local IPPAN clock. A HashTimer dated
// after now, one older than now - tolerance, or one whose digest does
// not recompute is invalid.
func (ht HashTimer) IsValid(domain Domain, payload []byte, now ippantime.Micros, toleranceUs int64) bool {
	if ht.Recompute(domain, payload) != ht.Digest {
		return false
	}
	lower := int64(now) - toleranceUs
	return int64(ht.Time) >= lower && int64(ht.Time) <= int64(now)
}
