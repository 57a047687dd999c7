package dag_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ippan-network/dlc-consensus/dag"
	"github.com/ippan-network/dlc-consensus/ippantime"
	"github.com/ippan-network/dlc-consensus/storage"
	"github.com/ippan-network/dlc-consensus/types"
)

type allBonded struct{}

func (allBonded) IsBonded(types.ValidatorID) bool { return true }

type acceptAllTxs struct{}

func (acceptAllTxs) DryRun(types.Transaction, uint64) error { return nil }

func newTestDAG(t *testing.T) (*dag.DAG, storage.Store, *ippantime.Clock) {
	t.Helper()
	store := storage.NewMemory()
	clock := ippantime.New(zaptest.NewLogger(t))
	d := dag.New(store, clock, allBonded{}, acceptAllTxs{}, zaptest.NewLogger(t))
	return d, store, clock
}

// genesisParent seeds the store with a round-0 block so later blocks
// have a resolvable parent to point at, mirroring how a real chain's
// genesis block is pre-admitted out of band.
func genesisParent(t *testing.T, store storage.Store, now ippantime.Micros) types.BlockID {
	t.Helper()
	creator := types.ValidatorID{0x01}
	genesis := types.NewBlock(nil, nil, 0, creator, now)
	require.NoError(t, store.StoreBlock(genesis))
	return genesis.Hash()
}

func TestAdmitAcceptsWellFormedBlock(t *testing.T) {
	d, store, clock := newTestDAG(t)
	now := clock.Now()
	parent := genesisParent(t, store, now)

	creator := types.ValidatorID{0x02}
	b := types.NewBlock([]types.BlockID{parent}, nil, 1, creator, clock.Now())
	require.NoError(t, d.Admit(b, 1))

	ok, err := store.ContainsBlock(b.Hash())
	require.NoError(t, err)
	require.True(t, ok)
}

func TestAdmitRejectsWrongRound(t *testing.T) {
	d, store, clock := newTestDAG(t)
	parent := genesisParent(t, store, clock.Now())
	b := types.NewBlock([]types.BlockID{parent}, nil, 5, types.ValidatorID{0x02}, clock.Now())

	err := d.Admit(b, 1)
	require.ErrorIs(t, err, dag.ErrWrongRound)
}

func TestAdmitRejectsUnresolvedParent(t *testing.T) {
	d, _, clock := newTestDAG(t)
	ghostParent := types.BlockID{0xaa}
	b := types.NewBlock([]types.BlockID{ghostParent}, nil, 1, types.ValidatorID{0x02}, clock.Now())

	err := d.Admit(b, 1)
	require.ErrorIs(t, err, dag.ErrUnresolvedParent)
}

func TestAdmitRejectsNoParents(t *testing.T) {
	d, _, clock := newTestDAG(t)
	b := types.NewBlock(nil, nil, 1, types.ValidatorID{0x02}, clock.Now())

	err := d.Admit(b, 1)
	require.ErrorIs(t, err, dag.ErrNoParents)
}

func TestAdmitRejectsDuplicateBlock(t *testing.T) {
	d, store, clock := newTestDAG(t)
	parent := genesisParent(t, store, clock.Now())
	b := types.NewBlock([]types.BlockID{parent}, nil, 1, types.ValidatorID{0x02}, clock.Now())
	require.NoError(t, d.Admit(b, 1))

	err := d.Admit(b, 1)
	require.ErrorIs(t, err, dag.ErrDuplicateBlock)
}

func TestAdmitRejectsUnknownCreator(t *testing.T) {
	store := storage.NewMemory()
	clock := ippantime.New(zaptest.NewLogger(t))
	d := dag.New(store, clock, noneBonded{}, acceptAllTxs{}, zaptest.NewLogger(t))
	parent := genesisParent(t, store, clock.Now())

	b := types.NewBlock([]types.BlockID{parent}, nil, 1, types.ValidatorID{0x02}, clock.Now())
	err := d.Admit(b, 1)
	require.ErrorIs(t, err, dag.ErrUnknownCreator)
}

type noneBonded struct{}

func (noneBonded) IsBonded(types.ValidatorID) bool { return false }

func TestSelectTipPrefersHighestRound(t *testing.T) {
	d, store, clock := newTestDAG(t)
	parent := genesisParent(t, store, clock.Now())

	low := types.NewBlock([]types.BlockID{parent}, nil, 1, types.ValidatorID{0x02}, clock.Now())
	require.NoError(t, d.Admit(low, 1))

	// A second, higher-round tip should always win regardless of digest.
	high := types.NewBlock([]types.BlockID{low.Hash()}, nil, 2, types.ValidatorID{0x03}, clock.Now())
	require.NoError(t, d.Admit(high, 2))

	tip, ok, err := d.SelectTip()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, high.Hash(), tip)
}

func TestSelectTipNoTipsOnEmptyStore(t *testing.T) {
	d, _, _ := newTestDAG(t)
	_, ok, err := d.SelectTip()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestBlocksEligibleForFoldIsDeterministicallyOrdered(t *testing.T) {
	d, store, clock := newTestDAG(t)
	parent := genesisParent(t, store, clock.Now())

	b1 := types.NewBlock([]types.BlockID{parent}, nil, 1, types.ValidatorID{0x02}, clock.Now())
	require.NoError(t, store.StoreBlock(b1))
	b2 := types.NewBlock([]types.BlockID{parent}, nil, 1, types.ValidatorID{0x03}, clock.Now())
	require.NoError(t, store.StoreBlock(b2))

	blocks, err := d.BlocksEligibleForFold(1)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	require.True(t, blocks[0].Hash().Less(blocks[1].Hash()) || blocks[0].Hash() == blocks[1].Hash())
}
