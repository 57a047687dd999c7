package round

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/zeebo/blake3"
	"go.uber.org/zap"

	"github.com/ippan-network/dlc-consensus/dag"
	"github.com/ippan-network/dlc-consensus/emission"
	"github.com/ippan-network/dlc-consensus/fixedpoint"
	"github.com/ippan-network/dlc-consensus/gbdt"
	"github.com/ippan-network/dlc-consensus/ippantime"
	"github.com/ippan-network/dlc-consensus/payments"
	"github.com/ippan-network/dlc-consensus/shadow"
	"github.com/ippan-network/dlc-consensus/storage"
	"github.com/ippan-network/dlc-consensus/types"
)

// ErrSettlementFailed is the one fatal condition §4.10's failure model
// names: a storage error during settlement aborts the round with no
// partial commit and no advance.
var ErrSettlementFailed = errors.New("round: settlement failed, round aborted")

// Config holds every round-executor-level parameter named in §6:
// selection thresholds, the emission schedule, reward role weights,
// and the payment fee policy.
type Config struct {
	MinReputation   fixedpoint.Value
	ShadowCount     int
	Schedule        emission.Schedule
	RoleWeights     emission.RoleWeights
	FeePolicy       payments.FeePolicy
	TreasuryAccount types.ID
}

// Executor coordinates the DAG, D-GBDT scorer, shadow verifier set,
// emission schedule/auditor, and payment applier into the nine-step
// §4.10 round pipeline. Grounded on round_executor.rs's RoundExecutor,
// generalized from its single emission+distribute call into the full
// select/admit/freeze/verify/fold/emission/settle/root/advance
// pipeline this tree's DAG and payment model actually require.
type Executor struct {
	store    storage.Store
	clock    *ippantime.Clock
	dag      *dag.DAG
	model    gbdt.Model
	registry Registry
	shadows  *shadow.Set
	tracker  *emission.Tracker
	applier  *payments.Applier
	cfg      Config
	logger   *zap.Logger
}

// New constructs an Executor. model must already have passed
// Model.Validate and ModelPackage.VerifyIntegrity at startup — a
// ModelIntegrity failure is fatal before the executor is ever built.
func New(store storage.Store, clock *ippantime.Clock, d *dag.DAG, model gbdt.Model, registry Registry, tracker *emission.Tracker, cfg Config, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	dryRunner := payments.DryRunner{Store: store, Policy: cfg.FeePolicy}
	verifier := blockVerifier{dryRun: dryRunner}

	return &Executor{
		store:    store,
		clock:    clock,
		dag:      d,
		model:    model,
		registry: registry,
		shadows:  shadow.New(verifier, cfg.ShadowCount, logger),
		tracker:  tracker,
		applier:  payments.NewApplier(cfg.FeePolicy, cfg.TreasuryAccount),
		cfg:      cfg,
		logger:   logger,
	}
}

// ProcessRound executes the §4.10 pipeline for round. Blocks for round
// are assumed already admitted via d.Admit by the caller's gossip
// ingestion loop during the round's temporal-finality window (step 2);
// ProcessRound itself performs steps 1 and 3-9: select verifiers,
// freeze B(R), verify, fold, compute emission, settle, fold the state
// root, and advance the chain.
func (e *Executor) ProcessRound(ctx context.Context, round types.RoundID) (*ExecutionResult, error) {
	chainState, err := e.store.GetChainState()
	if err != nil {
		return nil, fmt.Errorf("round: load chain state: %w", err)
	}

	// Step 1: select verifiers.
	records, err := e.registry.Records()
	if err != nil {
		return nil, fmt.Errorf("round: load validator records: %w", err)
	}
	selection, scores := e.selectVerifiers(round, chainState.StateRoot, records)

	// Step 3: freeze B(R).
	blocks, err := e.dag.BlocksEligibleForFold(round)
	if err != nil {
		return nil, fmt.Errorf("round: freeze round blocks: %w", err)
	}
	sort.Slice(blocks, func(i, j int) bool {
		return compareDigest(blocks[i].Header.HashTimer.Digest, blocks[j].Header.HashTimer.Digest) < 0
	})

	// Step 4: verify. Primary re-runs the dry-run directly; shadows
	// run in parallel via the shadow set. Disagreement is recorded but
	// never blocks acceptance — a block already admitted to the DAG
	// stays accepted regardless of re-verification outcome.
	dryRunner := payments.DryRunner{Store: e.store, Policy: e.cfg.FeePolicy}
	primaryVerifier := blockVerifier{dryRun: dryRunner}
	for _, b := range blocks {
		primaryValid, err := primaryVerifier.VerifyBlock(ctx, b)
		if err != nil {
			e.logger.Warn("primary re-verification error", zap.Error(err))
			continue
		}
		if len(selection.Shadows) > 0 {
			if _, err := e.shadows.VerifyBlock(ctx, b, selection.Shadows, primaryValid); err != nil {
				e.logger.Warn("shadow verification fan-out error", zap.Error(err))
			}
		}
	}

	// Step 5: fold. Apply every accepted block's transactions in
	// deterministic block order; each block's proposer earns its own
	// validator_fee share.
	stats := payments.NewRoundStats(round)
	proposers := make(map[types.ID]struct{})
	for _, b := range blocks {
		proposers[b.Header.Creator] = struct{}{}
		blockStats := e.applier.ApplyBlock(e.store, round, b.Transactions, b.Header.Creator)
		stats.Merge(blockStats)
	}

	// Step 6: emission. Compute the capped schedule amount and the
	// capped fee contribution, build the participation set from
	// telemetry, and compute per-validator payouts.
	emissionCapped := e.cfg.Schedule.Capped(uint64(round), e.tracker.TotalSupply())
	feesCapped := e.cfg.Schedule.FeesCapped(stats.TotalFees, emissionCapped)
	totalPool := new(big.Int).Add(emissionCapped, feesCapped)

	participants := buildParticipants(records, proposers, selection, scores, len(blocks) > 0)
	payouts := emission.ComputePayouts(participants, e.cfg.RoleWeights, totalPool)

	// Step 7: settle. Credit payouts atomically with the chain-state
	// update; a storage failure here is the one fatal condition in
	// §4.10's failure model.
	for _, p := range payouts {
		if err := payments.Credit(e.store, p.ID, p.Amount); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSettlementFailed, err)
		}
	}
	creditedEmission, err := e.tracker.RecordEmission(uint64(round), emissionCapped)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSettlementFailed, err)
	}

	// Step 8: state root.
	acceptedIDs := make([]types.BlockID, len(blocks))
	for i, b := range blocks {
		acceptedIDs[i] = b.Hash()
	}
	stateRoot := foldStateRoot(round, payouts, acceptedIDs, chainState.StateRoot)

	// Step 9: advance.
	chainState.Round = round + 1
	chainState.Height += uint64(len(blocks))
	chainState.TotalIssued = types.NewAmount(new(big.Int).Add(chainState.TotalIssued.Atomic(), creditedEmission))
	chainState.StateRoot = stateRoot
	chainState.LastUpdatedUs = int64(e.clock.Now())
	if err := e.store.UpdateChainState(chainState); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSettlementFailed, err)
	}
	if err := e.store.Flush(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSettlementFailed, err)
	}

	totalPayouts := big.NewInt(0)
	for _, p := range payouts {
		totalPayouts.Add(totalPayouts, p.Amount)
	}

	e.logger.Info("round executed",
		zap.Uint64("round", uint64(round)),
		zap.String("emission", creditedEmission.String()),
		zap.Int("accepted_blocks", len(blocks)),
		zap.Int("participants", len(participants)),
	)

	return &ExecutionResult{
		Round:               round,
		EmissionAtomic:       creditedEmission,
		FeesCollectedAtomic: feesCapped,
		TotalParticipants:   len(participants),
		TotalPayoutsAtomic:  totalPayouts,
		StateRoot:           stateRoot,
		Payouts:             payouts,
		PaymentStats:        stats,
		Selection:           selection,
	}, nil
}

// selectVerifiers runs the §4.6 selection algorithm against every
// bonded, scored validator record. Returns an Empty selection (not an
// error) when there are no eligible candidates — §4.10's
// NoEligibleValidators failure mode, which emits the round empty
// rather than aborting it.
func (e *Executor) selectVerifiers(round types.RoundID, prevStateRoot [32]byte, records []types.ValidatorRecord) (gbdt.Selection, map[types.ID]fixedpoint.Value) {
	_ = gbdt.RoundSeed(round, prevStateRoot) // audit-only; selection itself is seedless

	candidates := make([]gbdt.Candidate, len(records))
	scores := make(map[types.ID]fixedpoint.Value, len(records))
	medianTimeUs := medianSampleTimeUs(records)
	for i, rec := range records {
		fv := gbdt.BuildFeatureVector(rec, rec.Telemetry.LastSampleTimeUs, medianTimeUs)
		score := gbdt.Predict(e.model, fv)
		candidates[i] = gbdt.Candidate{ID: rec.ID, Score: score, BondOK: rec.BondOK}
		scores[rec.ID] = score
	}
	return gbdt.Select(candidates, e.cfg.MinReputation, e.cfg.ShadowCount), scores
}

// medianSampleTimeUs computes the round's median validator activity
// timestamp, the reference every candidate's delta-time feature is
// measured against.
func medianSampleTimeUs(records []types.ValidatorRecord) int64 {
	if len(records) == 0 {
		return 0
	}
	samples := make([]int64, len(records))
	for i, rec := range records {
		samples[i] = rec.Telemetry.LastSampleTimeUs
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	mid := len(samples) / 2
	if len(samples)%2 == 1 {
		return samples[mid]
	}
	return (samples[mid-1] + samples[mid]) / 2
}

// buildParticipants derives each record's role for this round —
// proposer (it created an accepted block), verifier (primary or
// shadow), both, or not a participant at all — and pairs it with the
// D-GBDT fairness multiplier reward_weighting uses to compute raw
// weight.
func buildParticipants(records []types.ValidatorRecord, proposers map[types.ID]struct{}, selection gbdt.Selection, scores map[types.ID]fixedpoint.Value, blocksVerified bool) []emission.Participant {
	verifiers := make(map[types.ID]struct{}, 1+len(selection.Shadows))
	// A primary/shadow set only becomes a reward participant if it
	// actually re-verified a block this round — an empty B(R) means
	// selection happened but no verification work occurred, per §8
	// scenario 6 (zero blocks -> zero participants, not "whoever was
	// selected").
	if !selection.Empty && blocksVerified {
		verifiers[selection.Primary] = struct{}{}
		for _, id := range selection.Shadows {
			verifiers[id] = struct{}{}
		}
	}

	participants := make([]emission.Participant, 0, len(records))
	for _, rec := range records {
		_, isProposer := proposers[rec.ID]
		_, isVerifier := verifiers[rec.ID]
		if !isProposer && !isVerifier {
			continue
		}

		role := emission.RoleVerifier
		switch {
		case isProposer && isVerifier:
			role = emission.RoleBoth
		case isProposer:
			role = emission.RoleProposer
		}

		participants = append(participants, emission.Participant{
			ID:           rec.ID,
			FairnessMult: gbdt.ScoreToMultiplier(scores[rec.ID]),
			Role:         role,
			UptimeScaled: rec.Telemetry.UptimeScaled,
		})
	}
	return participants
}

func foldStateRoot(round types.RoundID, payouts []gbdt.Payout, acceptedIDs []types.BlockID, prevStateRoot [32]byte) [32]byte {
	sortedPayouts := make([]gbdt.Payout, len(payouts))
	copy(sortedPayouts, payouts)
	sort.Slice(sortedPayouts, func(i, j int) bool {
		return sortedPayouts[i].ID.Less(sortedPayouts[j].ID)
	})

	sortedIDs := make([]types.BlockID, len(acceptedIDs))
	copy(sortedIDs, acceptedIDs)
	sort.Slice(sortedIDs, func(i, j int) bool { return sortedIDs[i].Less(sortedIDs[j]) })

	h := blake3.New()
	var roundBuf [8]byte
	binary.BigEndian.PutUint64(roundBuf[:], uint64(round))
	h.Write(roundBuf[:])
	for _, p := range sortedPayouts {
		h.Write(p.ID[:])
		h.Write(p.Amount.Bytes())
	}
	for _, id := range sortedIDs {
		h.Write(id[:])
	}
	h.Write(prevStateRoot[:])

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func compareDigest(a, b [32]byte) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}
