package identity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ippan-network/dlc-consensus/identity"
	"github.com/ippan-network/dlc-consensus/types"
)

func TestEncodeDecodeRoundTrips(t *testing.T) {
	var id types.ID
	for i := range id {
		id[i] = 0xAB
	}
	encoded := identity.Encode(id)
	decoded, err := identity.Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, id, decoded)
}

func TestDifferentIdsProduceDifferentAddresses(t *testing.T) {
	var a, b types.ID
	a[0] = 1
	b[0] = 2
	assert.NotEqual(t, identity.Encode(a), identity.Encode(b))
}

func TestDecodeRejectsCorruptedChecksum(t *testing.T) {
	var id types.ID
	id[0] = 0x55
	encoded := identity.Encode(id)
	corrupted := []byte(encoded)
	last := len(corrupted) - 1
	if corrupted[last] == '2' {
		corrupted[last] = '3'
	} else {
		corrupted[last] = '2'
	}
	_, err := identity.Decode(string(corrupted))
	assert.ErrorIs(t, err, identity.ErrInvalidChecksum)
}

func TestDecodeRejectsWrongLength(t *testing.T) {
	_, err := identity.Decode("abc")
	assert.ErrorIs(t, err, identity.ErrInvalidPayloadLength)
}

func TestIsValid(t *testing.T) {
	var id types.ID
	id[0] = 0x42
	assert.True(t, identity.IsValid(identity.Encode(id)))
	assert.False(t, identity.IsValid("invalid"))
	assert.False(t, identity.IsValid(""))
}

func TestBase58ResolverResolvesEncodedAddress(t *testing.T) {
	var id types.ID
	id[0] = 9
	var resolver identity.Base58Resolver
	got, err := resolver.Resolve(identity.Encode(id))
	require.NoError(t, err)
	assert.Equal(t, id, got)
}
