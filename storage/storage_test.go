package storage_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ippan-network/dlc-consensus/storage"
	"github.com/ippan-network/dlc-consensus/types"
)

// stores returns one instance of every Store implementation under
// test, keyed by a human-readable label, so every shared-contract
// subtest runs against both the in-memory and the Pebble backing.
func stores(t *testing.T) map[string]storage.Store {
	t.Helper()
	pebbleStore, err := storage.OpenPebble(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = pebbleStore.Close() })

	return map[string]storage.Store{
		"memory": storage.NewMemory(),
		"pebble": pebbleStore,
	}
}

func TestAccountRoundTrip(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			addr := types.ID{1, 2, 3}
			_, err := s.GetAccount(addr)
			require.ErrorIs(t, err, storage.ErrNotFound)

			account := types.NewAccount(addr)
			account.Balance = types.AmountFromUint64(42)
			account.Nonce = 7
			require.NoError(t, s.UpdateAccount(account))

			got, err := s.GetAccount(addr)
			require.NoError(t, err)
			require.Equal(t, uint64(7), got.Nonce)
			require.Equal(t, account.Balance.Atomic(), got.Balance.Atomic())
		})
	}
}

func TestBlockStorageAndTips(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			node := types.ID{9}
			tx := types.NewTransaction(types.ID{1}, types.ID{2}, types.AmountFromUint64(10), 1, 1_000_000, node)
			parent := types.NewBlock(nil, []types.Transaction{tx}, 1, node, 1_000_100)
			require.NoError(t, s.StoreBlock(parent))

			parentID := parent.Hash()
			child := types.NewBlock([]types.BlockID{parentID}, nil, 2, node, 1_000_200)
			require.NoError(t, s.StoreBlock(child))

			ok, err := s.ContainsBlock(parentID)
			require.NoError(t, err)
			require.True(t, ok)

			got, err := s.GetBlock(parentID)
			require.NoError(t, err)
			require.Equal(t, parentID, got.Hash())

			tips, err := s.GetTips()
			require.NoError(t, err)
			require.ElementsMatch(t, []types.BlockID{child.Hash()}, tips)

			round2, err := s.GetBlocksInRound(2)
			require.NoError(t, err)
			require.ElementsMatch(t, []types.BlockID{child.Hash()}, round2)
		})
	}
}

func TestTransactionRoundTrip(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			tx := types.NewTransaction(types.ID{1}, types.ID{2}, types.AmountFromUint64(5), 1, 1_000_000, types.ID{9})
			require.NoError(t, s.StoreTransaction(tx))

			got, err := s.GetTransaction(tx.ID)
			require.NoError(t, err)
			require.Equal(t, tx.ID, got.ID)

			_, err = s.GetTransaction(types.TxID{0xff})
			require.ErrorIs(t, err, storage.ErrNotFound)
		})
	}
}

func TestChainStateDefaultsToGenesis(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			cs, err := s.GetChainState()
			require.NoError(t, err)
			require.Equal(t, uint64(0), cs.Height)
			require.True(t, cs.TotalIssued.IsZero())

			cs.Height = 5
			cs.TotalIssued = types.AmountFromUint64(100)
			require.NoError(t, s.UpdateChainState(cs))

			got, err := s.GetChainState()
			require.NoError(t, err)
			require.Equal(t, uint64(5), got.Height)
		})
	}
}

func TestValidatorTelemetryRoundTrip(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			id := types.ValidatorID{1}
			_, err := s.GetValidatorTelemetry(id)
			require.ErrorIs(t, err, storage.ErrNotFound)

			rec := types.DefaultValidatorTelemetry(id, 1)
			rec.BlocksProposed = 3
			require.NoError(t, s.StoreValidatorTelemetry(id, rec))

			got, err := s.GetValidatorTelemetry(id)
			require.NoError(t, err)
			require.Equal(t, uint64(3), got.BlocksProposed)

			all, err := s.GetAllValidatorTelemetry()
			require.NoError(t, err)
			require.Len(t, all, 1)

			require.NoError(t, s.Flush())
		})
	}
}
