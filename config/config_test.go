package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ippan-network/dlc-consensus/config"
)

func TestPresetsAreIndividuallyValid(t *testing.T) {
	for _, p := range []config.Parameters{config.Mainnet(), config.Testnet(), config.Local()} {
		assert.NoError(t, p.Validate())
	}
}

func TestBuilderFromPresetRoundTrips(t *testing.T) {
	p, err := config.NewBuilder().FromPreset(config.TestnetNetwork).Build()
	require.NoError(t, err)
	assert.Equal(t, config.Testnet(), p)
}

func TestBuilderRejectsUnknownPreset(t *testing.T) {
	_, err := config.NewBuilder().FromPreset(config.NetworkType("unknown")).Build()
	assert.Error(t, err)
}

func TestBuilderOverridesApplyOnTopOfPreset(t *testing.T) {
	p, err := config.NewBuilder().
		FromPreset(config.LocalNetwork).
		WithShadowVerifierCount(4).
		WithMinReputationScore(100_000).
		Build()
	require.NoError(t, err)
	assert.Equal(t, 4, p.ShadowVerifierCount)
	assert.Equal(t, int64(100_000), p.MinReputationScoreMicro)
}

func TestValidateRejectsOutOfRangeTemporalFinality(t *testing.T) {
	p := config.Local()
	p.TemporalFinalityMs = 999
	assert.ErrorIs(t, p.Validate(), config.ErrTemporalFinalityOutOfRange)
}

func TestValidateRejectsShadowVerifierCountOutOfRange(t *testing.T) {
	p := config.Local()
	p.ShadowVerifierCount = 10
	assert.ErrorIs(t, p.Validate(), config.ErrShadowVerifierCountOutOfRange)
}

func TestValidateRejectsInvalidFeeCapRatio(t *testing.T) {
	p := config.Local()
	p.FeeCapNum = 2
	p.FeeCapDen = 1
	assert.ErrorIs(t, p.Validate(), config.ErrFeeCapRatioInvalid)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "params.yaml")

	want := config.Mainnet()
	require.NoError(t, config.Save(path, want))

	got, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadRejectsInvalidParameters(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("temporal_finality_ms: 5\n"), 0o644))

	_, err := config.Load(path)
	assert.Error(t, err)
}
