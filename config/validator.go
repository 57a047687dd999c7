// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"errors"
	"fmt"
)

// Sentinel validation errors, one per §6 invariant a Parameters value
// can violate.
var (
	ErrTemporalFinalityOutOfRange = errors.New("config: temporal_finality_ms out of [100,250]")
	ErrShadowVerifierCountOutOfRange = errors.New("config: shadow_verifier_count out of [3,5]")
	ErrReputationThresholdOutOfRange = errors.New("config: min_reputation_score out of [0,SCALE]")
	ErrHalvingIntervalZero          = errors.New("config: halving_interval_rounds must be > 0")
	ErrMaxSupplyNonPositive         = errors.New("config: max_supply_micro must be > 0")
	ErrFeeCapDenominatorZero        = errors.New("config: fee_cap_den must be > 0")
	ErrFeeCapRatioInvalid           = errors.New("config: fee_cap_num/fee_cap_den must be in (0,1]")
	ErrRoleWeightNegative           = errors.New("config: proposer/verifier weight bps must be >= 0")
)

// scaleMicro mirrors fixedpoint.Scale without importing it, so config
// has no dependency on the scoring package just to validate a bound.
const scaleMicro = 1_000_000

// Validate checks every §6 bound on p, returning the first violation
// it finds. Unlike the teacher's Validator (which accumulates a
// detailed ValidationResult of errors and warnings), config has only
// hard bounds — spec.md's ranges are invariants, not tuning advice —
// so a single wrapped error is enough.
func (p Parameters) Validate() error {
	if p.TemporalFinalityMs < 100 || p.TemporalFinalityMs > 250 {
		return fmt.Errorf("%w: got %d", ErrTemporalFinalityOutOfRange, p.TemporalFinalityMs)
	}
	if p.ShadowVerifierCount < 3 || p.ShadowVerifierCount > 5 {
		return fmt.Errorf("%w: got %d", ErrShadowVerifierCountOutOfRange, p.ShadowVerifierCount)
	}
	if p.MinReputationScoreMicro < 0 || p.MinReputationScoreMicro > scaleMicro {
		return fmt.Errorf("%w: got %d", ErrReputationThresholdOutOfRange, p.MinReputationScoreMicro)
	}
	if p.HalvingIntervalRounds == 0 {
		return ErrHalvingIntervalZero
	}
	if p.MaxSupplyMicro <= 0 {
		return ErrMaxSupplyNonPositive
	}
	if p.FeeCapDen <= 0 {
		return ErrFeeCapDenominatorZero
	}
	if p.FeeCapNum <= 0 || p.FeeCapNum > p.FeeCapDen {
		return fmt.Errorf("%w: got %d/%d", ErrFeeCapRatioInvalid, p.FeeCapNum, p.FeeCapDen)
	}
	if p.ProposerWeightBps < 0 || p.VerifierWeightBps < 0 {
		return ErrRoleWeightNegative
	}
	return nil
}
