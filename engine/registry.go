package engine

import (
	"fmt"

	"github.com/ippan-network/dlc-consensus/storage"
	"github.com/ippan-network/dlc-consensus/types"
)

// Registry satisfies both round.Registry and dag.BondChecker against a
// single storage.Store: bonds and telemetry are stored separately
// (StoreValidatorBond/StoreValidatorTelemetry) but a validator's
// engine-facing state is always the join of the two.
type Registry struct {
	store storage.Store
}

// NewRegistry wraps store as a Registry.
func NewRegistry(store storage.Store) *Registry {
	return &Registry{store: store}
}

// IsBonded reports whether id currently satisfies the configured bond
// requirement. A validator with no stored bond returns false, not an
// error.
func (r *Registry) IsBonded(id types.ValidatorID) bool {
	bond, err := r.store.GetValidatorBond(id)
	if err != nil {
		return false
	}
	return bond.BondOK
}

// Records returns every validator the registry has bond or telemetry
// history for, joining the two into the ValidatorRecord shape D-GBDT
// candidate-building consumes. A validator with telemetry but no bond
// yet (freshly observed, not staked) is included with BondOK false and
// zero stake; a validator with a bond but no telemetry yet gets
// DefaultValidatorTelemetry.
func (r *Registry) Records() ([]types.ValidatorRecord, error) {
	telemetry, err := r.store.GetAllValidatorTelemetry()
	if err != nil {
		return nil, fmt.Errorf("engine: load telemetry for registry: %w", err)
	}
	bonds, err := r.store.GetAllValidatorBonds()
	if err != nil {
		return nil, fmt.Errorf("engine: load bonds for registry: %w", err)
	}

	seen := make(map[types.ValidatorID]struct{}, len(telemetry)+len(bonds))
	records := make([]types.ValidatorRecord, 0, len(telemetry)+len(bonds))

	for id, t := range telemetry {
		bond := bonds[id]
		records = append(records, types.ValidatorRecord{
			ID:        id,
			Stake:     bond.Stake,
			BondOK:    bond.BondOK,
			Telemetry: t,
		})
		seen[id] = struct{}{}
	}
	for id, bond := range bonds {
		if _, ok := seen[id]; ok {
			continue
		}
		records = append(records, types.ValidatorRecord{
			ID:        id,
			Stake:     bond.Stake,
			BondOK:    bond.BondOK,
			Telemetry: types.DefaultValidatorTelemetry(id, 0),
		})
	}
	return records, nil
}

// PostBond records or updates a validator's bond.
func (r *Registry) PostBond(id types.ValidatorID, stake types.Amount, bondOK bool) error {
	return r.store.StoreValidatorBond(types.ValidatorBond{ValidatorID: id, Stake: stake, BondOK: bondOK})
}
