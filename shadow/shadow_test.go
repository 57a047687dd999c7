package shadow_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ippan-network/dlc-consensus/shadow"
	"github.com/ippan-network/dlc-consensus/types"
)

// wrappedVerifier lets tests supply a canned verdict every shadow
// in the set will return, simulating either unanimous agreement or a
// block every shadow disagrees with the primary on.
type wrappedVerifier struct {
	verdictFor func(block types.Block) bool
}

func (w wrappedVerifier) VerifyBlock(_ context.Context, b types.Block) (bool, error) {
	return w.verdictFor(b), nil
}

func testBlock() types.Block {
	return types.NewBlock([]types.BlockID{{0x01}}, nil, 1, types.ValidatorID{0x09}, 1_000_000)
}

func TestVerifyBlockAllAgree(t *testing.T) {
	v := wrappedVerifier{verdictFor: func(types.Block) bool { return true }}
	set := shadow.New(v, 3, zaptest.NewLogger(t))

	ids := []types.ValidatorID{{1}, {2}, {3}}
	results, err := set.VerifyBlock(context.Background(), testBlock(), ids, true)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, r := range results {
		require.True(t, r.IsValid)
	}

	stats := set.Stats()
	require.Len(t, stats, 3)
	for _, counts := range stats {
		require.Equal(t, uint64(1), counts[0])
		require.Equal(t, uint64(0), counts[1])
	}
}

func TestVerifyBlockRecordsDisagreement(t *testing.T) {
	// Every shadow disagrees with the primary; disagreement is recorded
	// as telemetry but does not change acceptance (the caller decides
	// that independently of this package).
	v := wrappedVerifier{verdictFor: func(types.Block) bool { return false }}
	set := shadow.New(v, 3, zaptest.NewLogger(t))

	ids := []types.ValidatorID{{1}, {2}, {3}}
	results, err := set.VerifyBlock(context.Background(), testBlock(), ids, true)
	require.NoError(t, err)
	require.Len(t, results, 3)

	stats := set.Stats()
	for _, counts := range stats {
		require.Equal(t, uint64(1), counts[1])
	}
}

func TestVerifyBlockClampsMaxVerifiers(t *testing.T) {
	v := wrappedVerifier{verdictFor: func(types.Block) bool { return true }}
	set := shadow.New(v, 100, zaptest.NewLogger(t))

	ids := []types.ValidatorID{{1}, {2}, {3}, {4}, {5}, {6}, {7}}
	results, err := set.VerifyBlock(context.Background(), testBlock(), ids, true)
	require.NoError(t, err)
	require.Len(t, results, 5) // clamped to the max of 5
}

func TestVerifyBlockEmptyRosterReturnsNil(t *testing.T) {
	v := wrappedVerifier{verdictFor: func(types.Block) bool { return true }}
	set := shadow.New(v, 3, zaptest.NewLogger(t))

	results, err := set.VerifyBlock(context.Background(), testBlock(), nil, true)
	require.NoError(t, err)
	require.Nil(t, results)
}
