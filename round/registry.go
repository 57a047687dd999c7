// Package round implements the Round Executor (C10): the nine-step
// per-round pipeline that selects verifiers, admits and freezes a
// round's blocks, re-verifies them via the primary and shadow set,
// folds transactions, computes emission and payouts, settles them,
// folds the state root, and advances the chain. It is the one
// component that wires every other package (dag, gbdt, shadow,
// emission, payments) together into a single state transition.
package round

import "github.com/ippan-network/dlc-consensus/types"

// Registry is the validator-state capability the round executor
// needs beyond dag.BondChecker: the full record set to build D-GBDT
// candidates, feature vectors, and reward participants from.
type Registry interface {
	IsBonded(id types.ValidatorID) bool
	Records() ([]types.ValidatorRecord, error)
}
