// Package dag implements the Parallel BlockDAG (C5): a multi-parent,
// round-indexed block graph with deterministic tip selection and
// round-closure semantics. It is the causal-admission gate every
// candidate block must pass through before the round executor ever
// sees it.
package dag

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/ippan-network/dlc-consensus/ippantime"
	"github.com/ippan-network/dlc-consensus/storage"
	"github.com/ippan-network/dlc-consensus/types"
)

// Admission errors, one sentinel per §4.5 rejection reason so callers
// can distinguish them with errors.Is without parsing strings.
var (
	ErrMalformedHeader   = errors.New("dag: malformed block header")
	ErrUnknownCreator    = errors.New("dag: creator is not a bonded validator")
	ErrFutureTimestamp   = errors.New("dag: hashtimer time is ahead of ippan time")
	ErrWrongRound        = errors.New("dag: block round does not match current round")
	ErrNoParents         = errors.New("dag: non-genesis block has no parents")
	ErrUnresolvedParent  = errors.New("dag: parent not yet admitted")
	ErrParentFromFuture  = errors.New("dag: parent round exceeds block round")
	ErrInvalidTx         = errors.New("dag: a transaction failed dry-run validation")
	ErrDuplicateBlock    = errors.New("dag: block already admitted")
)

// epsilonUs is the tolerance (ε in §4.5 rule 2) a block's HashTimer
// time may sit ahead of local IPPAN time and still be admitted —
// absorbs ordinary clock-skew-adjusted propagation jitter.
const epsilonUs = 2_000

// BondChecker reports whether a validator id is a known, bonded
// validator — satisfied by the validator registry the engine holds.
type BondChecker interface {
	IsBonded(id types.ValidatorID) bool
}

// TxValidator performs the §4.9 dry-run check for a single
// transaction against a per-block, per-sender nonce projection. It
// must not mutate store state; admission is a pure read-only gate.
type TxValidator interface {
	DryRun(tx types.Transaction, projectedNonce uint64) error
}

// DAG is the admission-gated block graph. It wraps a storage.Store,
// whose StoreBlock maintains the tip set and round index; the
// admission logic lives here, mirroring the teacher's dag.go while
// generalizing it to the full §4.5 admission algorithm.
type DAG struct {
	store   storage.Store
	clock   *ippantime.Clock
	bonds   BondChecker
	txs     TxValidator
	logger  *zap.Logger
}

// New constructs a DAG over the given store, clock, bond checker, and
// transaction validator.
func New(store storage.Store, clock *ippantime.Clock, bonds BondChecker, txs TxValidator, logger *zap.Logger) *DAG {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DAG{store: store, clock: clock, bonds: bonds, txs: txs, logger: logger}
}

// Admit runs the five-step §4.5 admission algorithm against candidate
// block b for the given current round, and if it passes, inserts b
// into the store, updating tips and the round index.
func (d *DAG) Admit(b types.Block, currentRound types.RoundID) error {
	if err := d.Validate(b, currentRound); err != nil {
		return err
	}

	id := b.Hash()
	if ok, err := d.store.ContainsBlock(id); err != nil {
		return fmt.Errorf("dag: contains check: %w", err)
	} else if ok {
		return ErrDuplicateBlock
	}

	if err := d.store.StoreBlock(b); err != nil {
		return fmt.Errorf("dag: store block: %w", err)
	}
	d.logger.Debug("admitted block",
		zap.Stringer("id", id),
		zap.Uint64("round", uint64(b.Header.Round)),
		zap.Int("tx_count", len(b.Transactions)),
	)
	return nil
}

// Validate runs the §4.5 admission rules against b without storing it
// — the read-only check Admit itself applies before persisting, and
// the one a caller that only wants a validity verdict (not admission)
// should use instead.
func (d *DAG) Validate(b types.Block, currentRound types.RoundID) error {
	if err := d.checkStructural(b); err != nil {
		return err
	}
	if err := d.checkTemporal(b, currentRound); err != nil {
		return err
	}
	if err := d.checkParents(b); err != nil {
		return err
	}
	if err := d.checkTransactions(b); err != nil {
		return err
	}
	return nil
}

// checkStructural is §4.5 rule 1: header well-formed, merkle root
// matches tx order, creator is a known bonded validator.
func (d *DAG) checkStructural(b types.Block) error {
	if !b.IsValid() {
		return ErrMalformedHeader
	}
	if d.bonds != nil && !d.bonds.IsBonded(b.Header.Creator) {
		return ErrUnknownCreator
	}
	return nil
}

// checkTemporal is §4.5 rule 2: hashtimer time within ε of now, and
// the block targets the current round.
func (d *DAG) checkTemporal(b types.Block, currentRound types.RoundID) error {
	now := d.clock.Now()
	if int64(b.Header.HashTimer.Time) > int64(now)+epsilonUs {
		return ErrFutureTimestamp
	}
	if b.Header.Round != currentRound {
		return ErrWrongRound
	}
	return nil
}

// checkParents is §4.5 rule 3: non-empty parent set, every parent
// already stored, no parent from a later round than b.
func (d *DAG) checkParents(b types.Block) error {
	if len(b.Header.Parents) == 0 {
		return ErrNoParents
	}
	for _, parentID := range b.Header.Parents {
		parent, err := d.store.GetBlock(parentID)
		if err != nil {
			return ErrUnresolvedParent
		}
		if parent.Header.Round > b.Header.Round {
			return ErrParentFromFuture
		}
	}
	return nil
}

// checkTransactions is §4.5 rule 4: each tx passes the §4.9 dry-run
// check under a temporary per-sender nonce projection that allows
// multiple txs from one sender within the same block, as long as
// their nonces strictly increase.
func (d *DAG) checkTransactions(b types.Block) error {
	if d.txs == nil {
		return nil
	}
	projected := make(map[types.ID]uint64)
	for _, tx := range b.Transactions {
		next, seen := projected[tx.From]
		if !seen {
			acct, err := d.store.GetAccount(tx.From)
			if err != nil && !errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("dag: load sender account: %w", err)
			}
			next = acct.Nonce
		}
		if err := d.txs.DryRun(tx, next); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidTx, err)
		}
		projected[tx.From] = tx.Nonce
	}
	return nil
}

// SelectTip deterministically picks the proposal parent among current
// tips: prefer the highest round; among equal rounds, the smallest
// HashTimer digest; ties broken lexicographically on the 32-byte id.
// Returns false if there are no tips (genesis state).
func (d *DAG) SelectTip() (types.BlockID, bool, error) {
	tipIDs, err := d.store.GetTips()
	if err != nil {
		return types.BlockID{}, false, err
	}
	if len(tipIDs) == 0 {
		return types.BlockID{}, false, nil
	}

	tips := make([]types.Block, 0, len(tipIDs))
	for _, id := range tipIDs {
		b, err := d.store.GetBlock(id)
		if err != nil {
			return types.BlockID{}, false, fmt.Errorf("dag: load tip %s: %w", id, err)
		}
		tips = append(tips, b)
	}

	sort.Slice(tips, func(i, j int) bool {
		a, b := tips[i], tips[j]
		if a.Header.Round != b.Header.Round {
			return a.Header.Round > b.Header.Round
		}
		digestCmp := compareBytes(a.Header.HashTimer.Digest[:], b.Header.HashTimer.Digest[:])
		if digestCmp != 0 {
			return digestCmp < 0
		}
		return a.Hash().Less(b.Hash())
	})
	return tips[0].Hash(), true, nil
}

// AllTips returns every current tip, in the same deterministic order
// SelectTip uses — useful for multi-parent proposal construction.
func (d *DAG) AllTips() ([]types.BlockID, error) {
	tipIDs, err := d.store.GetTips()
	if err != nil {
		return nil, err
	}
	tips := make([]types.Block, 0, len(tipIDs))
	for _, id := range tipIDs {
		b, err := d.store.GetBlock(id)
		if err != nil {
			return nil, err
		}
		tips = append(tips, b)
	}
	sort.Slice(tips, func(i, j int) bool {
		a, b := tips[i], tips[j]
		if a.Header.Round != b.Header.Round {
			return a.Header.Round > b.Header.Round
		}
		digestCmp := compareBytes(a.Header.HashTimer.Digest[:], b.Header.HashTimer.Digest[:])
		if digestCmp != 0 {
			return digestCmp < 0
		}
		return a.Hash().Less(b.Hash())
	})
	out := make([]types.BlockID, len(tips))
	for i, b := range tips {
		out[i] = b.Hash()
	}
	return out, nil
}

// BlocksEligibleForFold returns every stored block whose round equals
// round, ordered by ascending block hash. Blocks of earlier rounds are
// not included, and the DAG does not track whether a block has
// already been folded into state.
func (d *DAG) BlocksEligibleForFold(round types.RoundID) ([]types.Block, error) {
	ids, err := d.store.GetBlocksInRound(round)
	if err != nil {
		return nil, err
	}
	blocks := make([]types.Block, 0, len(ids))
	for _, id := range ids {
		b, err := d.store.GetBlock(id)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	sort.Slice(blocks, func(i, j int) bool {
		return blocks[i].Hash().Less(blocks[j].Hash())
	})
	return blocks, nil
}

func compareBytes(a, b []byte) int {
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
