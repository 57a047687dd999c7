package types

import (
	"encoding/binary"

	"github.com/zeebo/blake3"

	"github.com/ippan-network/dlc-consensus/hashtimer"
	"github.com/ippan-network/dlc-consensus/ippantime"
)

// BlockDomain is the HashTimer domain used for block digests.
const BlockDomain hashtimer.Domain = "block"

// BlockHeader carries a block's metadata and temporal fingerprint.
// prev_parents (Parents) is multi-valued: this is a parallel BlockDAG,
// not a singly-linked chain.
type BlockHeader struct {
	Parents      []BlockID
	TxMerkleRoot [32]byte
	Round        RoundID
	Creator      ValidatorID
	Nonce        uint64
	HashTimer    hashtimer.HashTimer
	IppanTime    ippantime.Micros
}

// Block is a BlockDAG vertex: a header plus the ordered transactions
// it carries. Transaction order within the block is authoritative for
// in-block application order.
type Block struct {
	Header       BlockHeader
	Transactions []Transaction
}

// NewBlock constructs a block, computing its merkle root and
// HashTimer from the supplied fields. Nonce is drawn from a fresh
// random 32-byte value truncated to 64 bits, matching the reference
// implementation's block nonce derivation.
func NewBlock(parents []BlockID, transactions []Transaction, round RoundID, creator ValidatorID, now ippantime.Micros) Block {
	nonceBytes := hashtimer.RandomNonce()
	nonce := binary.BigEndian.Uint64(nonceBytes[:8])
	merkleRoot := ComputeMerkleRoot(transactions)

	payload := blockPayload(parents, merkleRoot, round, creator, nonce)
	ht := hashtimer.Derive(hashtimer.ContextBlock, now, BlockDomain, payload, nonceBytes, creator)

	return Block{
		Header: BlockHeader{
			Parents:      parents,
			TxMerkleRoot: merkleRoot,
			Round:        round,
			Creator:      creator,
			Nonce:        nonce,
			HashTimer:    ht,
			IppanTime:    now,
		},
		Transactions: transactions,
	}
}

// Hash returns the block's identity: its HashTimer digest, which
// already binds the header payload, nonce, and creator.
func (b Block) Hash() BlockID {
	return b.Header.HashTimer.Digest
}

// IsValid checks the block's structural invariants: merkle root
// matches the transaction set and the HashTimer payload verifies.
// Round/parent/temporal admission rules live in the dag package, which
// has the DAG state this function does not.
func (b Block) IsValid() bool {
	if ComputeMerkleRoot(b.Transactions) != b.Header.TxMerkleRoot {
		return false
	}
	payload := blockPayload(b.Header.Parents, b.Header.TxMerkleRoot, b.Header.Round, b.Header.Creator, b.Header.Nonce)
	if b.Header.HashTimer.Recompute(BlockDomain, payload) != b.Header.HashTimer.Digest {
		return false
	}
	for _, tx := range b.Transactions {
		if !tx.IsValid() {
			return false
		}
	}
	return true
}

func blockPayload(parents []BlockID, merkleRoot [32]byte, round RoundID, creator ValidatorID, nonce uint64) []byte {
	buf := make([]byte, 0, len(parents)*32+32+8+32+8)
	for _, p := range parents {
		buf = append(buf, p[:]...)
	}
	buf = append(buf, merkleRoot[:]...)
	var roundBuf [8]byte
	binary.BigEndian.PutUint64(roundBuf[:], uint64(round))
	buf = append(buf, roundBuf[:]...)
	buf = append(buf, creator[:]...)
	var nonceBuf [8]byte
	binary.BigEndian.PutUint64(nonceBuf[:], nonce)
	buf = append(buf, nonceBuf[:]...)
	return buf
}

// ComputeMerkleRoot folds transaction ids into a binary merkle tree.
// An empty block's root is the all-zero digest; a single-transaction
// block's root is that transaction's id.
func ComputeMerkleRoot(transactions []Transaction) [32]byte {
	if len(transactions) == 0 {
		return [32]byte{}
	}
	layer := make([][32]byte, len(transactions))
	for i, tx := range transactions {
		layer[i] = tx.ID
	}
	for len(layer) > 1 {
		next := make([][32]byte, 0, (len(layer)+1)/2)
		for i := 0; i < len(layer); i += 2 {
			h := blake3.New()
			h.Write(layer[i][:])
			if i+1 < len(layer) {
				h.Write(layer[i+1][:])
			} else {
				// Odd node out: duplicate it, the conventional
				// merkle-tree padding rule.
				h.Write(layer[i][:])
			}
			var digest [32]byte
			copy(digest[:], h.Sum(nil))
			next = append(next, digest)
		}
		layer = next
	}
	return layer[0]
}
