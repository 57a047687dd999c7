// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import "fmt"

// NetworkType names a preset Builder.FromPreset can load.
type NetworkType string

const (
	MainnetNetwork NetworkType = "mainnet"
	TestnetNetwork NetworkType = "testnet"
	LocalNetwork   NetworkType = "local"
)

// Builder provides a fluent interface for constructing Parameters,
// recording the first construction error (an unknown preset) and
// validating the result at Build time — grounded on the teacher's
// config.Builder.
type Builder struct {
	params Parameters
	err    error
}

// NewBuilder starts from the local preset, the safest default for an
// unconfigured Build.
func NewBuilder() *Builder {
	return &Builder{params: Local()}
}

// FromPreset replaces the builder's working parameters with preset.
func (b *Builder) FromPreset(preset NetworkType) *Builder {
	if b.err != nil {
		return b
	}
	switch preset {
	case MainnetNetwork:
		b.params = Mainnet()
	case TestnetNetwork:
		b.params = Testnet()
	case LocalNetwork:
		b.params = Local()
	default:
		b.err = fmt.Errorf("config: unknown preset %q", preset)
	}
	return b
}

// WithTemporalFinality sets the round window duration in milliseconds.
func (b *Builder) WithTemporalFinality(ms int64) *Builder {
	if b.err != nil {
		return b
	}
	b.params.TemporalFinalityMs = ms
	return b
}

// WithShadowVerifierCount sets how many shadows are requested per
// round.
func (b *Builder) WithShadowVerifierCount(n int) *Builder {
	if b.err != nil {
		return b
	}
	b.params.ShadowVerifierCount = n
	return b
}

// WithMinReputationScore sets the selection eligibility threshold.
func (b *Builder) WithMinReputationScore(scoreMicro int64) *Builder {
	if b.err != nil {
		return b
	}
	b.params.MinReputationScoreMicro = scoreMicro
	return b
}

// WithBondRequirement toggles whether selection requires a prior bond
// record.
func (b *Builder) WithBondRequirement(required bool) *Builder {
	if b.err != nil {
		return b
	}
	b.params.RequireValidatorBond = required
	return b
}

// WithEmissionSchedule sets the initial reward, halving interval, and
// supply cap together, since they only make sense set as one unit.
func (b *Builder) WithEmissionSchedule(initialRewardMicro int64, halvingIntervalRounds uint64, maxSupplyMicro int64) *Builder {
	if b.err != nil {
		return b
	}
	b.params.InitialRoundRewardMicro = initialRewardMicro
	b.params.HalvingIntervalRounds = halvingIntervalRounds
	b.params.MaxSupplyMicro = maxSupplyMicro
	return b
}

// WithFeeCap sets the num/den ratio bounding collected fees against
// the round's capped emission.
func (b *Builder) WithFeeCap(num, den int64) *Builder {
	if b.err != nil {
		return b
	}
	b.params.FeeCapNum = num
	b.params.FeeCapDen = den
	return b
}

// WithRoleWeights sets the proposer/verifier basis-point weights.
func (b *Builder) WithRoleWeights(proposerBps, verifierBps int64) *Builder {
	if b.err != nil {
		return b
	}
	b.params.ProposerWeightBps = proposerBps
	b.params.VerifierWeightBps = verifierBps
	return b
}

// Build validates and returns the final Parameters, or the first
// error encountered either during construction or validation.
func (b *Builder) Build() (Parameters, error) {
	if b.err != nil {
		return Parameters{}, b.err
	}
	if err := b.params.Validate(); err != nil {
		return Parameters{}, err
	}
	return b.params, nil
}
