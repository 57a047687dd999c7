package types

import (
	"encoding/binary"

	"github.com/zeebo/blake3"

	"github.com/ippan-network/dlc-consensus/hashtimer"
	"github.com/ippan-network/dlc-consensus/ippantime"
)

// ConfidentialEnvelope carries an optional shielded-amount proof
// attached to a transaction. A present envelope's Commitment and Proof
// are hashed into the transaction id by ComputeID; the core does not
// verify the proof, and no block or shadow check inspects it.
type ConfidentialEnvelope struct {
	Commitment []byte
	Proof      []byte
}

// Transaction is a signed transfer from From to To. Id is the
// deterministic hash over every field except Signature; Nonce must
// strictly increment per sender.
type Transaction struct {
	ID          TxID
	From        ID
	To          ID
	Amount      Amount
	Nonce       uint64
	HashTimer   hashtimer.HashTimer
	Signature   []byte
	Confidential *ConfidentialEnvelope
}

// TxDomain is the HashTimer domain used for transaction digests.
const TxDomain hashtimer.Domain = "tx"

// NewTransaction builds a transaction and derives its id and
// HashTimer from the supplied fields. Signing happens at the wallet
// boundary, outside the core; Signature is attached by the caller
// before the transaction reaches the DAG.
func NewTransaction(from, to ID, amount Amount, nonce uint64, now ippantime.Micros, node ID) Transaction {
	nonceBytes := hashtimer.RandomNonce()
	payload := txPayload(from, to, amount, nonce)
	ht := hashtimer.Derive(hashtimer.ContextTx, now, TxDomain, payload, nonceBytes, node)

	tx := Transaction{
		From:      from,
		To:        to,
		Amount:    amount,
		Nonce:     nonce,
		HashTimer: ht,
	}
	tx.ID = tx.ComputeID()
	return tx
}

// ComputeID derives the deterministic transaction id: a BLAKE3 digest
// over every field except the signature.
func (tx Transaction) ComputeID() TxID {
	h := blake3.New()
	h.Write(tx.From[:])
	h.Write(tx.To[:])
	h.Write(tx.Amount.Atomic().Bytes())
	var nonceBuf [8]byte
	binary.BigEndian.PutUint64(nonceBuf[:], tx.Nonce)
	h.Write(nonceBuf[:])
	h.Write(tx.HashTimer.Digest[:])
	if tx.Confidential != nil {
		h.Write(tx.Confidential.Commitment)
		h.Write(tx.Confidential.Proof)
	}
	var id TxID
	copy(id[:], h.Sum(nil))
	return id
}

// IsValid checks the transaction's structural invariants: the id
// matches the recomputed hash and the HashTimer payload verifies.
// Signature verification against From's public key is delegated to
// the identity-resolver/crypto boundary outside this core.
func (tx Transaction) IsValid() bool {
	if tx.ComputeID() != tx.ID {
		return false
	}
	payload := txPayload(tx.From, tx.To, tx.Amount, tx.Nonce)
	return tx.HashTimer.Recompute(TxDomain, payload) == tx.HashTimer.Digest
}

func txPayload(from, to ID, amount Amount, nonce uint64) []byte {
	buf := make([]byte, 0, 32+32+16+8)
	buf = append(buf, from[:]...)
	buf = append(buf, to[:]...)
	buf = append(buf, amount.Atomic().Bytes()...)
	var nonceBuf [8]byte
	binary.BigEndian.PutUint64(nonceBuf[:], nonce)
	buf = append(buf, nonceBuf[:]...)
	return buf
}
