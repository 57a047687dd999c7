package metrics_test

import (
	"math/big"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ippan-network/dlc-consensus/metrics"
)

func TestNewRegistersEveryCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := metrics.New(reg)
	require.NoError(t, err)
	require.NotNil(t, c)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNewReturnsErrorOnDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := metrics.New(reg)
	require.NoError(t, err)

	_, err = metrics.New(reg)
	assert.Error(t, err)
}

func TestRecordRoundUpdatesCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := metrics.New(reg)
	require.NoError(t, err)

	c.RecordRound(100*time.Millisecond, big.NewInt(1_000), big.NewInt(50))
	c.RecordShadowDisagreement()
	c.SetDAGTipCount(3)
	c.RecordStorageFlush(5 * time.Millisecond)
	c.RecordPaymentRejection("insufficient_balance")

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
