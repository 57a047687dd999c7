// Package shadow implements the shadow verifier set (C7): 3-5
// validators that re-run the same block-internal verification as the
// primary, in parallel, purely for disagreement telemetry. Shadow
// disagreement never changes acceptance — only the primary's result
// does — but repeated disagreement degrades a shadow's reputation for
// future selection.
package shadow

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ippan-network/dlc-consensus/types"
)

// Verifier performs the same block re-verification the primary runs,
// returning whether the block is valid by that independent
// re-verification.
type Verifier interface {
	VerifyBlock(ctx context.Context, block types.Block) (bool, error)
}

// VerificationResult is one shadow's independent verdict on a block.
type VerificationResult struct {
	VerifierID         types.ValidatorID
	BlockID            types.BlockID
	IsValid            bool
	VerificationTimeUs int64
	Err                error
}

// verifierState tracks one shadow's running counters.
type verifierState struct {
	id                 types.ValidatorID
	verificationCount  uint64
	inconsistencyCount uint64
}

// Set manages the active shadow verifier roster and runs parallel
// re-verification, fanning out with golang.org/x/sync/errgroup — the
// idiomatic Go replacement for the original's
// tokio::spawn+JoinHandle fan-out/join — and joining all results
// before returning.
type Set struct {
	mu           sync.RWMutex
	verifiers    map[types.ValidatorID]*verifierState
	maxVerifiers int
	verify       Verifier
	logger       *zap.Logger
}

// New constructs an empty shadow Set. maxVerifiers is clamped to
// [3, 5] per §4.7.
func New(verify Verifier, maxVerifiers int, logger *zap.Logger) *Set {
	if maxVerifiers < 3 {
		maxVerifiers = 3
	} else if maxVerifiers > 5 {
		maxVerifiers = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Set{
		verifiers:    make(map[types.ValidatorID]*verifierState),
		maxVerifiers: maxVerifiers,
		verify:       verify,
		logger:       logger,
	}
}

// UpdateSet replaces the active roster with the given validator ids,
// taking at most maxVerifiers of them.
func (s *Set) UpdateSet(ids []types.ValidatorID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.verifiers = make(map[types.ValidatorID]*verifierState, s.maxVerifiers)
	for i, id := range ids {
		if i >= s.maxVerifiers {
			break
		}
		s.verifiers[id] = &verifierState{id: id}
	}
}

// VerifyBlock updates the active roster to expectedVerifiers, then
// runs every shadow's verification of block concurrently, joining all
// results. Shadows whose verdict disagrees with primaryIsValid have
// an inconsistency recorded against them and a telemetry event
// logged; the block's acceptance is unaffected either way, since
// acceptance was already decided by the primary.
func (s *Set) VerifyBlock(ctx context.Context, block types.Block, expectedVerifiers []types.ValidatorID, primaryIsValid bool) ([]VerificationResult, error) {
	s.UpdateSet(expectedVerifiers)

	s.mu.RLock()
	states := make([]*verifierState, 0, len(s.verifiers))
	for _, st := range s.verifiers {
		states = append(states, st)
	}
	s.mu.RUnlock()

	if len(states) == 0 {
		return nil, nil
	}

	results := make([]VerificationResult, len(states))
	group, gctx := errgroup.WithContext(ctx)
	for i, st := range states {
		i, st := i, st
		group.Go(func() error {
			results[i] = s.runOne(gctx, st, block)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	for _, r := range results {
		if r.IsValid != primaryIsValid {
			if st, ok := s.verifiers[r.VerifierID]; ok {
				st.inconsistencyCount++
			}
			s.logger.Warn("shadow verifier disagreed with primary",
				zap.Stringer("verifier", r.VerifierID),
				zap.Stringer("block", r.BlockID),
				zap.Bool("shadow_valid", r.IsValid),
				zap.Bool("primary_valid", primaryIsValid),
			)
		}
	}
	s.mu.Unlock()

	return results, nil
}

func (s *Set) runOne(ctx context.Context, st *verifierState, block types.Block) VerificationResult {
	start := time.Now()

	s.mu.Lock()
	st.verificationCount++
	s.mu.Unlock()

	valid, err := s.verify.VerifyBlock(ctx, block)
	elapsed := time.Since(start).Microseconds()
	if err != nil {
		return VerificationResult{
			VerifierID:         st.id,
			BlockID:            block.Hash(),
			IsValid:            false,
			VerificationTimeUs: elapsed,
			Err:                err,
		}
	}
	return VerificationResult{
		VerifierID:         st.id,
		BlockID:            block.Hash(),
		IsValid:            valid,
		VerificationTimeUs: elapsed,
	}
}

// Stats reports (verification_count, inconsistency_count) for every
// shadow currently in the roster — the telemetry feeding reputation
// degradation at the next selection.
func (s *Set) Stats() map[types.ValidatorID][2]uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[types.ValidatorID][2]uint64, len(s.verifiers))
	for id, st := range s.verifiers {
		out[id] = [2]uint64{st.verificationCount, st.inconsistencyCount}
	}
	return out
}
