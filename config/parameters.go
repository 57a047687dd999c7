// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config holds every tunable §6 names: temporal finality
// window, HashTimer precision, shadow verifier count, selection
// threshold, bonding requirement, and the emission/fee/reward-role
// schedule. Adapted from the teacher's config.Parameters/Builder/
// preset pattern.
package config

import "time"

// Parameters is the full set of round-executor-level tunables.
type Parameters struct {
	// TemporalFinalityMs is the duration of each round window, the
	// clock the round executor's closure waits against.
	TemporalFinalityMs int64 `yaml:"temporal_finality_ms"`

	// HashtimerPrecisionUs is fixed at 1 by the HashTimer derivation;
	// carried here so it is visible alongside the rest of the schedule
	// rather than buried in hashtimer's own constants.
	HashtimerPrecisionUs int64 `yaml:"hashtimer_precision_us"`

	// ShadowVerifierCount is how many shadow verifiers are requested
	// per round, in [3,5].
	ShadowVerifierCount int `yaml:"shadow_verifier_count"`

	// MinReputationScoreMicro is the selection eligibility threshold,
	// scaled by fixedpoint.Scale (0..SCALE).
	MinReputationScoreMicro int64 `yaml:"min_reputation_score"`

	// RequireValidatorBond gates selection eligibility on a prior bond
	// record when true.
	RequireValidatorBond bool `yaml:"require_validator_bond"`

	// InitialRoundRewardMicro is emission.Schedule's InitialRewardAtomic,
	// named to match spec.md's micro-unit convention.
	InitialRoundRewardMicro int64 `yaml:"initial_round_reward_micro"`

	// HalvingIntervalRounds is the number of rounds between halvings.
	HalvingIntervalRounds uint64 `yaml:"halving_interval_rounds"`

	// MaxSupplyMicro is the hard cap on total issuance.
	MaxSupplyMicro int64 `yaml:"max_supply_micro"`

	// FeeCapNum/FeeCapDen bound collected fees to FeeCapNum/FeeCapDen
	// of the round's capped emission.
	FeeCapNum int64 `yaml:"fee_cap_num"`
	FeeCapDen int64 `yaml:"fee_cap_den"`

	// ProposerWeightBps/VerifierWeightBps weight each role's share of
	// the raw reward weight, in basis points.
	ProposerWeightBps int64 `yaml:"proposer_weight_bps"`
	VerifierWeightBps int64 `yaml:"verifier_weight_bps"`
}

// RoundInterval is TemporalFinalityMs as a time.Duration, the
// convenience the round-processing ticker in cmd/dlcnode actually
// schedules against.
func (p Parameters) RoundInterval() time.Duration {
	return time.Duration(p.TemporalFinalityMs) * time.Millisecond
}

// Mainnet returns the production preset: wide shadow fan-out, strict
// bonding, conservative selection threshold.
func Mainnet() Parameters {
	return Parameters{
		TemporalFinalityMs:      200,
		HashtimerPrecisionUs:    1,
		ShadowVerifierCount:     5,
		MinReputationScoreMicro: 300_000,
		RequireValidatorBond:    true,
		InitialRoundRewardMicro: 50_000_000,
		HalvingIntervalRounds:   10_512_000,
		MaxSupplyMicro:          21_000_000_000_000,
		FeeCapNum:               1,
		FeeCapDen:               10,
		ProposerWeightBps:       10_000,
		VerifierWeightBps:       5_000,
	}
}

// Testnet returns the testnet preset: bonding still required, a lower
// selection threshold, and a faster halving cadence so the schedule is
// observable in a short-lived network.
func Testnet() Parameters {
	return Parameters{
		TemporalFinalityMs:      150,
		HashtimerPrecisionUs:    1,
		ShadowVerifierCount:     4,
		MinReputationScoreMicro: 200_000,
		RequireValidatorBond:    true,
		InitialRoundRewardMicro: 50_000_000,
		HalvingIntervalRounds:   100_000,
		MaxSupplyMicro:          21_000_000_000_000,
		FeeCapNum:               1,
		FeeCapDen:               10,
		ProposerWeightBps:       10_000,
		VerifierWeightBps:       5_000,
	}
}

// Local returns the local-development preset: fastest round window,
// minimum shadow fan-out, bonding not required so a single-node dev
// loop can run with one validator.
func Local() Parameters {
	return Parameters{
		TemporalFinalityMs:      100,
		HashtimerPrecisionUs:    1,
		ShadowVerifierCount:     3,
		MinReputationScoreMicro: 0,
		RequireValidatorBond:    false,
		InitialRoundRewardMicro: 50_000_000,
		HalvingIntervalRounds:   1_000,
		MaxSupplyMicro:          21_000_000_000_000,
		FeeCapNum:               1,
		FeeCapDen:               10,
		ProposerWeightBps:       10_000,
		VerifierWeightBps:       5_000,
	}
}
