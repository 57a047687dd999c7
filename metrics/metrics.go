// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metrics wires the round executor's cross-cutting
// observability onto github.com/prometheus/client_golang, adapted
// from the teacher's metrics.Metrics/NewAverager pattern directly onto
// concrete collectors for this domain's own signals.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "dlc_consensus"

// Collectors holds every metric the round executor and its
// collaborators emit: round latency, emission paid, shadow-verifier
// disagreement counts, DAG tip count, and storage flush latency.
type Collectors struct {
	registry prometheus.Registerer

	RoundLatencySeconds     prometheus.Histogram
	RoundsProcessedTotal    prometheus.Counter
	EmissionPaidAtomic      prometheus.Counter
	FeesCollectedAtomic     prometheus.Counter
	ShadowDisagreementTotal prometheus.Counter
	DAGTipCount             prometheus.Gauge
	StorageFlushSeconds     prometheus.Histogram
	PaymentRejectionTotal   *prometheus.CounterVec
}

// New constructs and registers every collector against reg. Grounded
// on the teacher's Metrics.Register/NewAverager pattern of registering
// each collector up front and surfacing a registration error rather
// than panicking.
func New(reg prometheus.Registerer) (*Collectors, error) {
	c := &Collectors{
		registry: reg,
		RoundLatencySeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "round_latency_seconds",
			Help:      "Wall-clock time to execute one round's full pipeline.",
			Buckets:   prometheus.DefBuckets,
		}),
		RoundsProcessedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_processed_total",
			Help:      "Total number of rounds successfully processed.",
		}),
		EmissionPaidAtomic: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emission_paid_atomic_total",
			Help:      "Cumulative atomic units of newly issued emission credited to participants.",
		}),
		FeesCollectedAtomic: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fees_collected_atomic_total",
			Help:      "Cumulative atomic units of transaction fees collected.",
		}),
		ShadowDisagreementTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shadow_disagreement_total",
			Help:      "Total number of shadow verifier disagreements with the primary verifier.",
		}),
		DAGTipCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dag_tip_count",
			Help:      "Current number of BlockDAG tips.",
		}),
		StorageFlushSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "storage_flush_seconds",
			Help:      "Wall-clock time for a storage flush to durably commit a round's writes.",
			Buckets:   prometheus.DefBuckets,
		}),
		PaymentRejectionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_rejection_total",
			Help:      "Total rejected transactions, labeled by rejection kind.",
		}, []string{"kind"}),
	}

	collectors := []prometheus.Collector{
		c.RoundLatencySeconds,
		c.RoundsProcessedTotal,
		c.EmissionPaidAtomic,
		c.FeesCollectedAtomic,
		c.ShadowDisagreementTotal,
		c.DAGTipCount,
		c.StorageFlushSeconds,
		c.PaymentRejectionTotal,
	}
	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			return nil, err
		}
	}
	return c, nil
}
