package hashtimer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ippan-network/dlc-consensus/hashtimer"
	"github.com/ippan-network/dlc-consensus/ippantime"
)

func TestDeriveIsDeterministic(t *testing.T) {
	nonce := [32]byte{1, 2, 3}
	node := [32]byte{9, 9, 9}
	payload := []byte("block payload")

	a := hashtimer.Derive(hashtimer.ContextBlock, 100, "block", payload, nonce, node)
	b := hashtimer.Derive(hashtimer.ContextBlock, 100, "block", payload, nonce, node)

	require.Equal(t, a.Digest, b.Digest)
}

func TestDeriveChangesWithEachField(t *testing.T) {
	nonce := [32]byte{1}
	node := [32]byte{2}
	base := hashtimer.Derive(hashtimer.ContextBlock, 100, "block", []byte("p"), nonce, node)

	variants := []hashtimer.HashTimer{
		hashtimer.Derive(hashtimer.ContextTx, 100, "block", []byte("p"), nonce, node),
		hashtimer.Derive(hashtimer.ContextBlock, 101, "block", []byte("p"), nonce, node),
		hashtimer.Derive(hashtimer.ContextBlock, 100, "tx", []byte("p"), nonce, node),
		hashtimer.Derive(hashtimer.ContextBlock, 100, "block", []byte("q"), nonce, node),
		hashtimer.Derive(hashtimer.ContextBlock, 100, "block", []byte("p"), [32]byte{2}, node),
		hashtimer.Derive(hashtimer.ContextBlock, 100, "block", []byte("p"), nonce, [32]byte{3}),
	}
	for _, v := range variants {
		require.NotEqual(t, base.Digest, v.Digest)
	}
}

func TestIsValidWithinTolerance(t *testing.T) {
	nonce := [32]byte{7}
	node := [32]byte{8}
	payload := []byte("payload")
	ht := hashtimer.Derive(hashtimer.ContextRound, 1_000_000, "round", payload, nonce, node)

	require.True(t, ht.IsValid("round", payload, ippantime.Micros(1_000_500), 1000))
	require.False(t, ht.IsValid("round", payload, ippantime.Micros(900_000), 1000), "future-dated relative to now")
	require.False(t, ht.IsValid("round", []byte("tampered"), ippantime.Micros(1_000_500), 1000))
}
