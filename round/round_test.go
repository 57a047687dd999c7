package round_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ippan-network/dlc-consensus/dag"
	"github.com/ippan-network/dlc-consensus/emission"
	"github.com/ippan-network/dlc-consensus/fixedpoint"
	"github.com/ippan-network/dlc-consensus/gbdt"
	"github.com/ippan-network/dlc-consensus/ippantime"
	"github.com/ippan-network/dlc-consensus/payments"
	"github.com/ippan-network/dlc-consensus/round"
	"github.com/ippan-network/dlc-consensus/storage"
	"github.com/ippan-network/dlc-consensus/types"
)

func idFor(n byte) types.ValidatorID {
	var id types.ValidatorID
	id[31] = n
	return id
}

// fakeRegistry is a fixed validator set, all bonded, all fully scored.
type fakeRegistry struct {
	records []types.ValidatorRecord
}

func (r fakeRegistry) IsBonded(id types.ValidatorID) bool {
	for _, rec := range r.records {
		if rec.ID == id && rec.BondOK {
			return true
		}
	}
	return false
}

func (r fakeRegistry) Records() ([]types.ValidatorRecord, error) {
	return r.records, nil
}

func flatModel(bias int64) gbdt.Model {
	return gbdt.Model{
		Version:      1,
		FeatureCount: gbdt.FeatureCount,
		Bias:         bias,
		Scale:        fixedpoint.Scale,
		LearningRate: fixedpoint.Scale,
		Trees: []gbdt.Tree{{Nodes: []gbdt.Node{
			{IsLeaf: true, Value: 0},
		}}},
	}
}

func testConfig() round.Config {
	return round.Config{
		MinReputation: fixedpoint.Value(0),
		ShadowCount:   3,
		Schedule: emission.Schedule{
			InitialRewardAtomic:   big.NewInt(1_000_000),
			HalvingIntervalRounds: 1000,
			MaxSupplyAtomic:       big.NewInt(1_000_000_000),
			CapNum:                1,
			CapDen:                10,
		},
		RoleWeights:     emission.RoleWeights{ProposerBps: 10_000, VerifierBps: 5_000},
		FeePolicy:       payments.DefaultFeePolicy(),
		TreasuryAccount: payments.TreasuryAccount,
	}
}

func newExecutorWithValidators(t *testing.T, n int) (*round.Executor, storage.Store, *ippantime.Clock) {
	t.Helper()
	store := storage.NewMemory()
	clock := ippantime.New(zaptest.NewLogger(t))

	records := make([]types.ValidatorRecord, n)
	for i := 0; i < n; i++ {
		id := idFor(byte(i + 1))
		records[i] = types.ValidatorRecord{
			ID:        id,
			Stake:     types.AmountFromIPN(1000),
			BondOK:    true,
			Telemetry: types.DefaultValidatorTelemetry(id, 0),
		}
	}
	registry := fakeRegistry{records: records}

	d := dag.New(store, clock, registry, payments.DryRunner{Store: store, Policy: testConfig().FeePolicy}, zaptest.NewLogger(t))
	tracker := emission.NewTracker(big.NewInt(1_000_000_000), zaptest.NewLogger(t))

	exec := round.New(store, clock, d, flatModel(int64(fixedpoint.Scale)), registry, tracker, testConfig(), zaptest.NewLogger(t))
	return exec, store, clock
}

func TestProcessRoundEmitsEmptyWithNoBlocks(t *testing.T) {
	exec, _, _ := newExecutorWithValidators(t, 5)

	result, err := exec.ProcessRound(context.Background(), types.RoundID(1))
	require.NoError(t, err)
	assert.Equal(t, types.RoundID(1), result.Round)
	assert.Empty(t, result.Payouts)
	assert.True(t, result.EmissionAtomic.Sign() > 0)
}

func TestProcessRoundFoldsRoundBlockAndAdvancesChain(t *testing.T) {
	exec, store, clock := newExecutorWithValidators(t, 5)

	creator := idFor(1)
	genesis := types.NewBlock(nil, nil, 0, creator, clock.Now())
	require.NoError(t, store.StoreBlock(genesis))

	b := types.NewBlock([]types.BlockID{genesis.Hash()}, nil, 1, creator, clock.Now())
	require.NoError(t, store.StoreBlock(b))

	result, err := exec.ProcessRound(context.Background(), types.RoundID(1))
	require.NoError(t, err)
	assert.Len(t, result.PaymentStats.FailureCounts, 0)
	assert.True(t, result.TotalParticipants > 0)

	chainState, err := store.GetChainState()
	require.NoError(t, err)
	assert.Equal(t, types.RoundID(2), chainState.Round)
	assert.Equal(t, uint64(1), chainState.Height)
}

// TestProcessRoundIsIdempotentGivenSameInputs runs two independently
// constructed executors with identical validator sets and empty block
// sets over round 1 and checks they reach the same state root and
// emission — the deterministic-replay property §8 calls "round
// idempotence" (same inputs, not a literal re-run of one executor,
// since ProcessRound itself advances state and cannot be called twice
// for the same round against one store).
func TestProcessRoundIsIdempotentGivenSameInputs(t *testing.T) {
	exec1, _, _ := newExecutorWithValidators(t, 3)
	exec2, _, _ := newExecutorWithValidators(t, 3)

	r1, err := exec1.ProcessRound(context.Background(), types.RoundID(1))
	require.NoError(t, err)
	r2, err := exec2.ProcessRound(context.Background(), types.RoundID(1))
	require.NoError(t, err)

	assert.Equal(t, r1.StateRoot, r2.StateRoot)
	assert.Equal(t, r1.EmissionAtomic, r2.EmissionAtomic)
}
