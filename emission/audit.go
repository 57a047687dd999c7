package emission

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"go.uber.org/zap"
)

// Supply auditor errors (C12), grounded on supply.rs's SupplyError
// taxonomy.
var (
	ErrPastRound        = errors.New("emission: cannot record for a round at or before the last recorded round")
	ErrBurnExceedsSupply = errors.New("emission: burn amount exceeds current total supply")
	ErrVerificationFailed = errors.New("emission: supply diverges from expected schedule beyond tolerance")
)

// AuditResult is the outcome of a comprehensive supply audit:
// recomputing total supply from emission/burn history and comparing
// it against the tracker's recorded total.
type AuditResult struct {
	Healthy        bool
	Issues         []string
	Warnings       []string
	TotalEmissions *big.Int
	TotalBurns     *big.Int
	NetSupply      *big.Int
}

// Tracker is the supply auditor (C12): it records every round's
// emission and burn, enforces the supply cap, and can reconcile its
// running total against the emission/burn history at any point —
// grounded on supply.rs's SupplyTracker.
type Tracker struct {
	mu sync.Mutex

	totalSupply           *big.Int
	supplyCap             *big.Int
	currentRound          uint64
	lastVerificationRound uint64
	emissionHistory       map[uint64]*big.Int
	burnHistory           map[uint64]*big.Int

	logger *zap.Logger
}

// NewTracker constructs a Tracker with zero supply issued so far.
func NewTracker(supplyCap *big.Int, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		totalSupply:     big.NewInt(0),
		supplyCap:       new(big.Int).Set(supplyCap),
		emissionHistory: make(map[uint64]*big.Int),
		burnHistory:     make(map[uint64]*big.Int),
		logger:          logger,
	}
}

// RecordEmission records amount issued in round, capping it against
// the supply ceiling if necessary (the round executor should already
// have called Schedule.Capped, but this is the tracker's own
// backstop). Returns the amount actually credited, which may be less
// than amount if the cap bound it.
func (t *Tracker) RecordEmission(round uint64, amount *big.Int) (*big.Int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if round <= t.currentRound && t.currentRound != 0 {
		return nil, fmt.Errorf("%w: round %d <= %d", ErrPastRound, round, t.currentRound)
	}

	projected := new(big.Int).Add(t.totalSupply, amount)
	credited := new(big.Int).Set(amount)
	if projected.Cmp(t.supplyCap) > 0 {
		credited = new(big.Int).Sub(t.supplyCap, t.totalSupply)
		if credited.Sign() < 0 {
			credited = big.NewInt(0)
		}
		t.logger.Warn("emission would exceed supply cap; capping",
			zap.Uint64("round", round),
			zap.String("requested", amount.String()),
			zap.String("credited", credited.String()),
		)
	}

	t.totalSupply.Add(t.totalSupply, credited)
	t.emissionHistory[round] = new(big.Int).Set(credited)
	t.currentRound = round
	return credited, nil
}

// RecordBurn records amount burned in round, reducing the tracked
// total supply. The round executor does not call it for fee-cap
// excess, since collected fees are never added to the tracked supply.
func (t *Tracker) RecordBurn(round uint64, amount *big.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if amount.Cmp(t.totalSupply) > 0 {
		return ErrBurnExceedsSupply
	}
	t.totalSupply.Sub(t.totalSupply, amount)
	t.burnHistory[round] = new(big.Int).Set(amount)
	return nil
}

// VerifyIntegrity checks the tracker's recorded total supply against
// an externally computed expected value, within tolerance.
func (t *Tracker) VerifyIntegrity(expected *big.Int, tolerance *big.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	diff := new(big.Int).Sub(t.totalSupply, expected)
	diff.Abs(diff)
	if diff.Cmp(tolerance) > 0 {
		return fmt.Errorf("%w: recorded=%s expected=%s diff=%s",
			ErrVerificationFailed, t.totalSupply, expected, diff)
	}
	return nil
}

// Audit performs a comprehensive reconciliation: recomputes total
// supply as Σemissions - Σburns and flags any divergence from the
// tracker's own running total, plus structural warnings (missing
// history, zero supply at a non-zero round).
func (t *Tracker) Audit() AuditResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	var issues, warnings []string

	if t.totalSupply.Cmp(t.supplyCap) > 0 {
		issues = append(issues, fmt.Sprintf("supply exceeds cap: %s > %s", t.totalSupply, t.supplyCap))
	}
	if t.totalSupply.Sign() == 0 && t.currentRound > 0 {
		warnings = append(warnings, "zero supply recorded at a non-zero round")
	}

	expectedRounds := t.currentRound - t.lastVerificationRound
	if t.currentRound < t.lastVerificationRound {
		expectedRounds = 0
	}
	if expectedRounds > 0 && uint64(len(t.emissionHistory)) < expectedRounds {
		warnings = append(warnings, fmt.Sprintf(
			"missing emission history: expected %d rounds, found %d",
			expectedRounds, len(t.emissionHistory)))
	}

	totalEmissions := big.NewInt(0)
	for _, v := range t.emissionHistory {
		totalEmissions.Add(totalEmissions, v)
	}
	totalBurns := big.NewInt(0)
	for _, v := range t.burnHistory {
		totalBurns.Add(totalBurns, v)
	}
	computed := new(big.Int).Sub(totalEmissions, totalBurns)
	if computed.Cmp(t.totalSupply) != 0 {
		issues = append(issues, fmt.Sprintf("supply mismatch: recorded=%s computed=%s", t.totalSupply, computed))
	}

	return AuditResult{
		Healthy:        len(issues) == 0,
		Issues:         issues,
		Warnings:       warnings,
		TotalEmissions: totalEmissions,
		TotalBurns:     totalBurns,
		NetSupply:      new(big.Int).Set(t.totalSupply),
	}
}

// UpdateVerificationRound marks round as the last point the tracker's
// supply was externally reconciled, used by Audit's missing-history
// heuristic.
func (t *Tracker) UpdateVerificationRound(round uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastVerificationRound = round
}

// TotalSupply returns the tracker's current running total.
func (t *Tracker) TotalSupply() *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return new(big.Int).Set(t.totalSupply)
}
