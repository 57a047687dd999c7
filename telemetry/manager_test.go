package telemetry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ippan-network/dlc-consensus/storage"
	"github.com/ippan-network/dlc-consensus/telemetry"
	"github.com/ippan-network/dlc-consensus/types"
)

func idFor(n byte) types.ValidatorID {
	var id types.ValidatorID
	id[31] = n
	return id
}

func newManager(t *testing.T) *telemetry.Manager {
	t.Helper()
	store := storage.NewMemory()
	m, err := telemetry.New(store, 1<<20, zaptest.NewLogger(t))
	require.NoError(t, err)
	return m
}

func TestRecordBlockProposalIncrementsCountAndSmoothsPerformance(t *testing.T) {
	m := newManager(t)
	id := idFor(1)

	require.NoError(t, m.RecordBlockProposal(id))
	tel, ok := m.GetTelemetry(id)
	require.True(t, ok)
	assert.Equal(t, uint64(1), tel.BlocksProposed)
	assert.Equal(t, uint64(0), tel.BlocksVerified)
	assert.Equal(t, int64(10_000), tel.RecentPerformanceScaled)
}

func TestRecordBlockVerificationIncrementsCount(t *testing.T) {
	m := newManager(t)
	id := idFor(2)

	require.NoError(t, m.RecordBlockVerification(id))
	tel, ok := m.GetTelemetry(id)
	require.True(t, ok)
	assert.Equal(t, uint64(1), tel.BlocksVerified)
}

func TestRecordInconsistencyIncrementsCount(t *testing.T) {
	m := newManager(t)
	id := idFor(3)

	require.NoError(t, m.RecordInconsistency(id))
	require.NoError(t, m.RecordInconsistency(id))
	tel, ok := m.GetTelemetry(id)
	require.True(t, ok)
	assert.Equal(t, uint64(2), tel.InconsistencyCount)
}

func TestRecordSlashHalvesPerformanceAndCountsSlash(t *testing.T) {
	m := newManager(t)
	id := idFor(4)
	require.NoError(t, m.RecordBlockProposal(id))

	require.NoError(t, m.RecordSlash(id))
	tel, ok := m.GetTelemetry(id)
	require.True(t, ok)
	assert.Equal(t, uint64(1), tel.SlashCount)
	assert.True(t, tel.RecentPerformanceScaled < 10_000)
}

func TestGetAllWithDefaultsFillsUnknownValidators(t *testing.T) {
	m := newManager(t)
	known := idFor(5)
	unknown := idFor(6)
	require.NoError(t, m.RecordBlockProposal(known))

	all := m.GetAllWithDefaults([]types.ValidatorID{known, unknown})
	assert.Equal(t, uint64(1), all[known].BlocksProposed)
	assert.Equal(t, uint64(0), all[unknown].BlocksProposed)
	assert.Equal(t, int64(10_000), all[unknown].UptimeScaled)
}

func TestAdvanceRoundDecaysInactiveValidators(t *testing.T) {
	m := newManager(t)
	id := idFor(7)
	require.NoError(t, m.RecordBlockProposal(id))

	for i := 0; i < 5; i++ {
		require.NoError(t, m.AdvanceRound())
	}

	tel, ok := m.GetTelemetry(id)
	require.True(t, ok)
	assert.True(t, tel.UptimeScaled <= 10_000)
	assert.True(t, tel.AgeRounds >= 5)
}

func TestLoadFromStorageWarmsCache(t *testing.T) {
	store := storage.NewMemory()
	id := idFor(8)
	require.NoError(t, store.StoreValidatorTelemetry(id, types.DefaultValidatorTelemetry(id, 0)))

	m, err := telemetry.New(store, 1<<20, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, m.LoadFromStorage())

	tel, ok := m.GetTelemetry(id)
	require.True(t, ok)
	assert.Equal(t, id, tel.ValidatorID)
}
