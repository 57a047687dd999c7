// Package emission implements the capped DAG-Fair emission schedule
// and reward distribution (C8), plus the supply auditor (C12). All
// math is integer-only over *big.Int atomic units — never floats —
// per the fixed supply cap and fee cap invariants in §4.8.
package emission

import (
	"math/big"
)

// Schedule holds the protocol's emission constants. Values are
// expressed in atomic units (types.AtomicPerIPN per whole IPN) except
// HalvingIntervalRounds, which is a round count, and CapNum/CapDen,
// which form the fee-cap ratio.
type Schedule struct {
	InitialRewardAtomic  *big.Int
	HalvingIntervalRounds uint64
	MaxSupplyAtomic      *big.Int
	CapNum               int64
	CapDen               int64
}

// Scheduled computes emission_scheduled(R) = InitialReward >>
// (R / HalvingIntervalRounds), the integer right-shift halving
// schedule from §4.8.
func (s Schedule) Scheduled(round uint64) *big.Int {
	if s.HalvingIntervalRounds == 0 {
		return new(big.Int).Set(s.InitialRewardAtomic)
	}
	shifts := round / s.HalvingIntervalRounds
	if shifts >= 64 {
		return big.NewInt(0)
	}
	return new(big.Int).Rsh(s.InitialRewardAtomic, uint(shifts))
}

// Capped computes emission_capped(R, issued) = min(Scheduled(R),
// MaxSupply - issued), never returning a negative amount.
func (s Schedule) Capped(round uint64, issued *big.Int) *big.Int {
	scheduled := s.Scheduled(round)
	remaining := new(big.Int).Sub(s.MaxSupplyAtomic, issued)
	if remaining.Sign() < 0 {
		return big.NewInt(0)
	}
	if scheduled.Cmp(remaining) > 0 {
		return remaining
	}
	return scheduled
}

// FeesCapped computes fees_capped = min(collectedFees, CapNum *
// emissionCapped / CapDen); the excess is burned, not credited
// anywhere, matching §4.8's explicit "excess is burned" rule.
func (s Schedule) FeesCapped(collectedFees *big.Int, emissionCapped *big.Int) *big.Int {
	if s.CapDen == 0 {
		return big.NewInt(0)
	}
	cap := new(big.Int).Mul(emissionCapped, big.NewInt(s.CapNum))
	cap.Quo(cap, big.NewInt(s.CapDen))
	if collectedFees.Cmp(cap) > 0 {
		return cap
	}
	return new(big.Int).Set(collectedFees)
}
