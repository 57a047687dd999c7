package types

import "math/big"

// ChainState is the singleton ledger checkpoint: height/round advance
// monotonically, and TotalIssued never exceeds the configured supply
// cap — both invariants are enforced by the round executor, not by
// this struct itself.
type ChainState struct {
	Height        uint64
	Round         RoundID
	StateRoot     [32]byte
	TotalIssued   Amount
	LastUpdatedUs int64
}

// NewChainState returns the genesis checkpoint: height 0, round 0, a
// zero state root, and no issuance yet.
func NewChainState() ChainState {
	return ChainState{
		TotalIssued: NewAmount(big.NewInt(0)),
	}
}
