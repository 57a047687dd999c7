// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"math/big"
	"time"
)

// atomicToFloat quantizes an atomic-unit *big.Int down to a float64
// for Prometheus export. This is the one place this tree lets a
// consensus-derived value touch a float — metrics are observability
// only and never feed back into consensus-critical computation, so
// the precision loss here is the documented boundary conversion
// spec.md §4.2 allows for external floats.
func atomicToFloat(v *big.Int) float64 {
	f := new(big.Float).SetInt(v)
	out, _ := f.Float64()
	return out
}

// RecordRound folds one round's ExecutionResult-shaped figures into
// the round-level collectors.
func (c *Collectors) RecordRound(latency time.Duration, emissionAtomic, feesAtomic *big.Int) {
	c.RoundLatencySeconds.Observe(latency.Seconds())
	c.RoundsProcessedTotal.Inc()
	c.EmissionPaidAtomic.Add(atomicToFloat(emissionAtomic))
	c.FeesCollectedAtomic.Add(atomicToFloat(feesAtomic))
}

// RecordShadowDisagreement increments the shadow-disagreement counter.
func (c *Collectors) RecordShadowDisagreement() {
	c.ShadowDisagreementTotal.Inc()
}

// SetDAGTipCount reports the BlockDAG's current tip count.
func (c *Collectors) SetDAGTipCount(n int) {
	c.DAGTipCount.Set(float64(n))
}

// RecordStorageFlush folds one storage.Flush call's latency in.
func (c *Collectors) RecordStorageFlush(latency time.Duration) {
	c.StorageFlushSeconds.Observe(latency.Seconds())
}

// RecordPaymentRejection increments the rejection counter for kind.
func (c *Collectors) RecordPaymentRejection(kind string) {
	c.PaymentRejectionTotal.WithLabelValues(kind).Inc()
}
