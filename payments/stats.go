package payments

import (
	"math/big"

	"github.com/ippan-network/dlc-consensus/types"
)

// RoundStats accumulates per-round payment outcomes (C13): how many
// transactions applied versus were rejected, aggregate amounts and
// fees moved, per-proposer fee totals, and a histogram of rejection
// kinds. Grounded on payments.rs's PaymentRoundStats.
type RoundStats struct {
	Round         types.RoundID
	Applied       int
	Rejected      int
	TotalAmount   *big.Int
	TotalFees     *big.Int
	TreasuryTotal *big.Int
	ValidatorFees map[types.ID]*big.Int
	FailureCounts map[ApplyErrorKind]int
}

// NewRoundStats returns a zeroed RoundStats for round.
func NewRoundStats(round types.RoundID) *RoundStats {
	return &RoundStats{
		Round:         round,
		TotalAmount:   big.NewInt(0),
		TotalFees:     big.NewInt(0),
		TreasuryTotal: big.NewInt(0),
		ValidatorFees: make(map[types.ID]*big.Int),
		FailureCounts: make(map[ApplyErrorKind]int),
	}
}

// RecordSuccess folds one successfully applied transaction's amount
// and fee split into the round's running totals.
func (s *RoundStats) RecordSuccess(tx types.Transaction, proposer types.ID, split FeeSplit) {
	s.Applied++
	s.TotalAmount.Add(s.TotalAmount, tx.Amount.Atomic())
	s.TotalFees.Add(s.TotalFees, split.TotalFee)
	s.TreasuryTotal.Add(s.TreasuryTotal, split.TreasuryFee)

	existing, ok := s.ValidatorFees[proposer]
	if !ok {
		existing = big.NewInt(0)
		s.ValidatorFees[proposer] = existing
	}
	existing.Add(existing, split.ValidatorFee)
}

// RecordFailure increments the rejection counter and the failure-kind
// histogram for a rejected transaction.
func (s *RoundStats) RecordFailure(err *ApplyError) {
	s.Rejected++
	s.FailureCounts[err.Kind]++
}

// Merge folds other's counters into s, for combining the per-block
// stats ApplyBlock returns (one call per accepted block, since each
// block has its own proposer) into a single round-wide total.
func (s *RoundStats) Merge(other *RoundStats) {
	s.Applied += other.Applied
	s.Rejected += other.Rejected
	s.TotalAmount.Add(s.TotalAmount, other.TotalAmount)
	s.TotalFees.Add(s.TotalFees, other.TotalFees)
	s.TreasuryTotal.Add(s.TreasuryTotal, other.TreasuryTotal)
	for id, amt := range other.ValidatorFees {
		existing, ok := s.ValidatorFees[id]
		if !ok {
			existing = new(big.Int)
			s.ValidatorFees[id] = existing
		}
		existing.Add(existing, amt)
	}
	for kind, count := range other.FailureCounts {
		s.FailureCounts[kind] += count
	}
}
