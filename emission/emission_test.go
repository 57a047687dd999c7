package emission_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ippan-network/dlc-consensus/emission"
	"github.com/ippan-network/dlc-consensus/fixedpoint"
	"github.com/ippan-network/dlc-consensus/types"
)

func idFor(n byte) types.ValidatorID {
	var id types.ValidatorID
	id[31] = n
	return id
}

func testSchedule() emission.Schedule {
	return emission.Schedule{
		InitialRewardAtomic:   big.NewInt(1_000_000),
		HalvingIntervalRounds: 100,
		MaxSupplyAtomic:       big.NewInt(10_000_000),
		CapNum:                1,
		CapDen:                10,
	}
}

func TestScheduledHalvesAtEachInterval(t *testing.T) {
	s := testSchedule()
	assert.Equal(t, big.NewInt(1_000_000), s.Scheduled(0))
	assert.Equal(t, big.NewInt(1_000_000), s.Scheduled(99))
	assert.Equal(t, big.NewInt(500_000), s.Scheduled(100))
	assert.Equal(t, big.NewInt(250_000), s.Scheduled(200))
}

func TestScheduledEventuallyReachesZero(t *testing.T) {
	s := testSchedule()
	assert.Equal(t, big.NewInt(0), s.Scheduled(100*64))
}

func TestCappedNeverExceedsRemainingSupply(t *testing.T) {
	s := testSchedule()
	issued := big.NewInt(9_999_800)
	capped := s.Capped(0, issued)
	assert.Equal(t, big.NewInt(200), capped)
}

func TestCappedReturnsZeroWhenSupplyExhausted(t *testing.T) {
	s := testSchedule()
	issued := big.NewInt(10_000_000)
	assert.Equal(t, big.NewInt(0), s.Capped(0, issued))

	issuedOver := big.NewInt(10_000_500)
	assert.Equal(t, big.NewInt(0), s.Capped(0, issuedOver))
}

func TestFeesCappedBurnsExcess(t *testing.T) {
	s := testSchedule()
	emissionCapped := big.NewInt(1_000_000)
	// cap = 1/10 * 1_000_000 = 100_000
	assert.Equal(t, big.NewInt(100_000), s.FeesCapped(big.NewInt(500_000), emissionCapped))
	assert.Equal(t, big.NewInt(50_000), s.FeesCapped(big.NewInt(50_000), emissionCapped))
}

func TestTrackerRecordEmissionAccumulates(t *testing.T) {
	tracker := emission.NewTracker(big.NewInt(10_000_000), zap.NewNop())

	credited, err := tracker.RecordEmission(1, big.NewInt(1_000_000))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1_000_000), credited)
	assert.Equal(t, big.NewInt(1_000_000), tracker.TotalSupply())

	credited, err = tracker.RecordEmission(2, big.NewInt(500_000))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(500_000), credited)
	assert.Equal(t, big.NewInt(1_500_000), tracker.TotalSupply())
}

func TestTrackerRecordEmissionRejectsPastRound(t *testing.T) {
	tracker := emission.NewTracker(big.NewInt(10_000_000), zap.NewNop())
	_, err := tracker.RecordEmission(5, big.NewInt(1))
	require.NoError(t, err)

	_, err = tracker.RecordEmission(5, big.NewInt(1))
	require.ErrorIs(t, err, emission.ErrPastRound)

	_, err = tracker.RecordEmission(3, big.NewInt(1))
	require.ErrorIs(t, err, emission.ErrPastRound)
}

func TestTrackerRecordEmissionEnforcesCapBackstop(t *testing.T) {
	tracker := emission.NewTracker(big.NewInt(1_000_000), zap.NewNop())
	credited, err := tracker.RecordEmission(1, big.NewInt(2_000_000))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1_000_000), credited)
	assert.Equal(t, big.NewInt(1_000_000), tracker.TotalSupply())
}

func TestTrackerRecordBurnRejectsExceedingSupply(t *testing.T) {
	tracker := emission.NewTracker(big.NewInt(10_000_000), zap.NewNop())
	_, err := tracker.RecordEmission(1, big.NewInt(100))
	require.NoError(t, err)

	err = tracker.RecordBurn(2, big.NewInt(200))
	require.ErrorIs(t, err, emission.ErrBurnExceedsSupply)

	err = tracker.RecordBurn(2, big.NewInt(50))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(50), tracker.TotalSupply())
}

func TestTrackerVerifyIntegrityWithinTolerance(t *testing.T) {
	tracker := emission.NewTracker(big.NewInt(10_000_000), zap.NewNop())
	_, err := tracker.RecordEmission(1, big.NewInt(1_000))
	require.NoError(t, err)

	require.NoError(t, tracker.VerifyIntegrity(big.NewInt(1_000), big.NewInt(0)))
	require.NoError(t, tracker.VerifyIntegrity(big.NewInt(990), big.NewInt(10)))
	require.ErrorIs(t, tracker.VerifyIntegrity(big.NewInt(500), big.NewInt(10)), emission.ErrVerificationFailed)
}

func TestTrackerAuditReconcilesHistory(t *testing.T) {
	tracker := emission.NewTracker(big.NewInt(10_000_000), zap.NewNop())
	_, err := tracker.RecordEmission(1, big.NewInt(1_000))
	require.NoError(t, err)
	_, err = tracker.RecordEmission(2, big.NewInt(1_000))
	require.NoError(t, err)
	require.NoError(t, tracker.RecordBurn(2, big.NewInt(300)))

	result := tracker.Audit()
	assert.True(t, result.Healthy)
	assert.Empty(t, result.Issues)
	assert.Equal(t, big.NewInt(2_000), result.TotalEmissions)
	assert.Equal(t, big.NewInt(300), result.TotalBurns)
	assert.Equal(t, big.NewInt(1_700), result.NetSupply)
}

func TestComputePayoutsEmptyParticipantsReturnsNil(t *testing.T) {
	out := emission.ComputePayouts(nil, emission.RoleWeights{ProposerBps: 10_000}, big.NewInt(1_000_000))
	assert.Nil(t, out)
}

func TestComputePayoutsPreservesTotal(t *testing.T) {
	roles := emission.RoleWeights{ProposerBps: 10_000, VerifierBps: 5_000}
	participants := []emission.Participant{
		{ID: idFor(1), FairnessMult: fixedpoint.Value(1_200_000), Role: emission.RoleProposer, UptimeScaled: 10_000},
		{ID: idFor(2), FairnessMult: fixedpoint.Value(800_000), Role: emission.RoleVerifier, UptimeScaled: 9_500},
		{ID: idFor(3), FairnessMult: fixedpoint.Value(1_000_000), Role: emission.RoleBoth, UptimeScaled: 10_000},
	}

	total := big.NewInt(987_654_321)
	payouts := emission.ComputePayouts(participants, roles, total)
	require.Len(t, payouts, 3)

	sum := big.NewInt(0)
	for _, p := range payouts {
		assert.True(t, p.Amount.Sign() >= 0)
		sum.Add(sum, p.Amount)
	}
	assert.Equal(t, total, sum)
}

func TestComputePayoutsIsDeterministic(t *testing.T) {
	roles := emission.RoleWeights{ProposerBps: 10_000, VerifierBps: 5_000}
	participants := []emission.Participant{
		{ID: idFor(9), FairnessMult: fixedpoint.Value(900_000), Role: emission.RoleVerifier, UptimeScaled: 10_000},
		{ID: idFor(1), FairnessMult: fixedpoint.Value(1_100_000), Role: emission.RoleProposer, UptimeScaled: 10_000},
	}
	total := big.NewInt(5_000_000)

	first := emission.ComputePayouts(participants, roles, total)
	for i := 0; i < 20; i++ {
		again := emission.ComputePayouts(participants, roles, total)
		require.Len(t, again, len(first))
		for j := range first {
			assert.Equal(t, first[j].ID, again[j].ID)
			assert.Equal(t, first[j].Amount, again[j].Amount)
		}
	}
}

func TestComputePayoutsZeroRoleWeightExcludesShare(t *testing.T) {
	roles := emission.RoleWeights{ProposerBps: 10_000, VerifierBps: 0}
	participants := []emission.Participant{
		{ID: idFor(1), FairnessMult: fixedpoint.Value(1_000_000), Role: emission.RoleProposer, UptimeScaled: 10_000},
		{ID: idFor(2), FairnessMult: fixedpoint.Value(1_000_000), Role: emission.RoleVerifier, UptimeScaled: 10_000},
	}
	total := big.NewInt(1_000_000)
	payouts := emission.ComputePayouts(participants, roles, total)
	require.Len(t, payouts, 2)

	var proposerShare, verifierShare *big.Int
	for _, p := range payouts {
		if p.ID == idFor(1) {
			proposerShare = p.Amount
		} else {
			verifierShare = p.Amount
		}
	}
	assert.Equal(t, big.NewInt(0), verifierShare)
	assert.Equal(t, total, proposerShare)
}
