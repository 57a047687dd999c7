// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package engine wires every other package (dag, gbdt, shadow,
// emission, payments, round, telemetry, metrics) into the single
// facade spec.md §6 names as the core's external interface:
// ProcessRound, VerifyBlock, AddBlock, AddValidatorBond,
// UpdateValidatorMetrics, GetState, GetIppanTime.
package engine

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ippan-network/dlc-consensus/config"
	"github.com/ippan-network/dlc-consensus/dag"
	"github.com/ippan-network/dlc-consensus/emission"
	"github.com/ippan-network/dlc-consensus/fixedpoint"
	"github.com/ippan-network/dlc-consensus/gbdt"
	"github.com/ippan-network/dlc-consensus/ippantime"
	"github.com/ippan-network/dlc-consensus/metrics"
	"github.com/ippan-network/dlc-consensus/payments"
	"github.com/ippan-network/dlc-consensus/round"
	"github.com/ippan-network/dlc-consensus/storage"
	"github.com/ippan-network/dlc-consensus/telemetry"
	"github.com/ippan-network/dlc-consensus/types"
)

// telemetryCacheMaxCost is the ristretto cache budget for the
// telemetry manager's working set, sized for a few thousand
// validators' worth of entries.
const telemetryCacheMaxCost = 1 << 20

// Engine is the assembled DLC node: every package New'd once and
// wired together, exposing the round-advance and state-query surface
// an embedder (cmd/dlcnode, or an integration test) drives directly.
type Engine struct {
	store     storage.Store
	clock     *ippantime.Clock
	dag       *dag.DAG
	registry  *Registry
	executor  *round.Executor
	telemetry *telemetry.Manager
	metrics   *metrics.Collectors
	params    config.Parameters
	logger    *zap.Logger
}

// New constructs an Engine from validated parameters, a storage
// backend, and a verified D-GBDT model package. reg may be nil, in
// which case a private prometheus.Registry is created so metrics
// registration never collides with an embedder's own registry.
func New(params config.Parameters, store storage.Store, modelPkg gbdt.ModelPackage, reg prometheus.Registerer, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("engine: invalid parameters: %w", err)
	}
	if err := modelPkg.VerifyIntegrity(); err != nil {
		return nil, fmt.Errorf("engine: model package integrity: %w", err)
	}

	clock := ippantime.New(logger)
	registry := NewRegistry(store)
	feePolicy := payments.DefaultFeePolicy()
	dryRunner := payments.DryRunner{Store: store, Policy: feePolicy}
	d := dag.New(store, clock, registry, dryRunner, logger)

	schedule := emission.Schedule{
		InitialRewardAtomic:   big.NewInt(params.InitialRoundRewardMicro),
		HalvingIntervalRounds: params.HalvingIntervalRounds,
		MaxSupplyAtomic:       big.NewInt(params.MaxSupplyMicro),
		CapNum:                params.FeeCapNum,
		CapDen:                params.FeeCapDen,
	}
	tracker := emission.NewTracker(schedule.MaxSupplyAtomic, logger)
	roleWeights := emission.RoleWeights{
		ProposerBps: params.ProposerWeightBps,
		VerifierBps: params.VerifierWeightBps,
	}
	execCfg := round.Config{
		MinReputation:   fixedpoint.Value(params.MinReputationScoreMicro),
		ShadowCount:     params.ShadowVerifierCount,
		Schedule:        schedule,
		RoleWeights:     roleWeights,
		FeePolicy:       feePolicy,
		TreasuryAccount: types.ID(payments.TreasuryAccount),
	}
	executor := round.New(store, clock, d, modelPkg.Model, registry, tracker, execCfg, logger)

	telemetryMgr, err := telemetry.New(store, telemetryCacheMaxCost, logger)
	if err != nil {
		return nil, fmt.Errorf("engine: construct telemetry manager: %w", err)
	}
	if err := telemetryMgr.LoadFromStorage(); err != nil {
		return nil, fmt.Errorf("engine: warm telemetry cache: %w", err)
	}

	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	collectors, err := metrics.New(reg)
	if err != nil {
		return nil, fmt.Errorf("engine: register metrics: %w", err)
	}

	return &Engine{
		store:     store,
		clock:     clock,
		dag:       d,
		registry:  registry,
		executor:  executor,
		telemetry: telemetryMgr,
		metrics:   collectors,
		params:    params,
		logger:    logger,
	}, nil
}

// ProcessRound runs the round executor's nine-step pipeline for round,
// then advances telemetry and records round-level metrics. Blocks
// targeting round must already have been admitted via AddBlock during
// round's temporal-finality window.
func (e *Engine) ProcessRound(ctx context.Context, round types.RoundID) (*round.ExecutionResult, error) {
	start := time.Now()
	result, err := e.executor.ProcessRound(ctx, round)
	if err != nil {
		return nil, err
	}
	if err := e.telemetry.AdvanceRound(); err != nil {
		e.logger.Warn("engine: telemetry advance failed", zap.Error(err))
	}
	e.metrics.RecordRound(time.Since(start), result.EmissionAtomic, result.FeesCollectedAtomic)
	return result, nil
}

// VerifyBlock reports whether b would be admissible in currentRound
// without admitting it — the read-only counterpart to AddBlock.
func (e *Engine) VerifyBlock(b types.Block, currentRound types.RoundID) error {
	return e.dag.Validate(b, currentRound)
}

// AddBlock admits b into the DAG for currentRound.
func (e *Engine) AddBlock(b types.Block, currentRound types.RoundID) error {
	if err := e.dag.Admit(b, currentRound); err != nil {
		return err
	}
	return e.telemetry.RecordBlockProposal(b.Header.Creator)
}

// AddValidatorBond posts or updates a validator's bond, gating its
// eligibility for primary/shadow selection.
func (e *Engine) AddValidatorBond(id types.ValidatorID, stake types.Amount) error {
	bondOK := !e.params.RequireValidatorBond || !stake.IsZero()
	return e.registry.PostBond(id, stake, bondOK)
}

// UpdateValidatorMetrics records a verification/inconsistency/sample
// observation for id, used by the embedder's gossip ingestion loop to
// feed shadow-verification and clock-sample outcomes back into
// telemetry between rounds.
func (e *Engine) UpdateValidatorMetrics(id types.ValidatorID, verified bool, sampleTimeUs int64) error {
	if verified {
		if err := e.telemetry.RecordBlockVerification(id); err != nil {
			return err
		}
	} else {
		if err := e.telemetry.RecordInconsistency(id); err != nil {
			return err
		}
	}
	return e.telemetry.RecordSampleTime(id, sampleTimeUs)
}

// GetState returns the current chain-state checkpoint.
func (e *Engine) GetState() (types.ChainState, error) {
	return e.store.GetChainState()
}

// GetIppanTime returns the engine's current IPPAN Time reading.
func (e *Engine) GetIppanTime() ippantime.Micros {
	return e.clock.Now()
}

// IngestTimeSample feeds a peer clock sample into the engine's clock,
// the mechanism behind the drift-correction half of IPPAN Time.
func (e *Engine) IngestTimeSample(peerUs int64) {
	e.clock.IngestSample(peerUs)
}

// Flush durably persists all pending storage writes.
func (e *Engine) Flush() error {
	return e.store.Flush()
}
