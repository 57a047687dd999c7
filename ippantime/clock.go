// Package ippantime implements the network-wide deterministic
// microsecond clock: a monotone counter nudged toward the bounded
// median of recently observed peer drift samples, never by more than a
// small per-sample clamp. It is the sole process-local singleton in
// the engine; callers construct one explicitly via New and pass it
// down rather than reaching for a package-level global, which keeps it
// mockable at test boundaries.
package ippantime

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Micros is a non-negative microsecond timestamp. Successive reads
// from a single Clock are strictly increasing: for all i,
// Micros(i+1) >= Micros(i) + 1.
type Micros int64

// Add returns t shifted by delta microseconds.
func (t Micros) Add(delta int64) Micros {
	return Micros(int64(t) + delta)
}

const (
	// maxDriftSamples bounds the ring of recent peer drift
	// observations used to compute the median.
	maxDriftSamples = 21

	// outlierThreshold discards any sample whose apparent drift from
	// our own system clock exceeds this many microseconds.
	outlierThresholdUs = 10_000_000

	// perSampleClampUs bounds how far a single ingested sample may
	// move the clock's base offset, so no amount of adversarial
	// samples can swing the clock faster than this per observation.
	perSampleClampUs = 5_000
)

// SystemSource abstracts the wall-clock reader so tests can supply a
// deterministic fake instead of time.Now.
type SystemSource interface {
	NowMicros() int64
}

// realSystemSource reads the real wall clock.
type realSystemSource struct{}

func (realSystemSource) NowMicros() int64 {
	return time.Now().UnixMicro()
}

// Clock is IPPAN Time: a monotone microsecond counter kept close to
// the network median via bounded peer-drift correction.
type Clock struct {
	mu sync.Mutex

	source SystemSource
	logger *zap.Logger

	lastTimeUs  int64
	baseOffset  int64
	driftRing   []int64
	driftCursor int
}

// New constructs a Clock backed by the real system clock.
func New(logger *zap.Logger) *Clock {
	return NewWithSource(realSystemSource{}, logger)
}

// NewWithSource constructs a Clock backed by an injected time source,
// for deterministic tests.
func NewWithSource(source SystemSource, logger *zap.Logger) *Clock {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Clock{
		source:    source,
		logger:    logger,
		driftRing: make([]int64, 0, maxDriftSamples),
	}
}

// Now returns the current IPPAN time, strictly greater than every
// previously returned value from this Clock.
func (c *Clock) Now() Micros {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nowLocked()
}

func (c *Clock) nowLocked() Micros {
	candidate := c.source.NowMicros() + c.baseOffset
	next := c.lastTimeUs + 1
	if candidate > next {
		next = candidate
	}
	if next < 0 {
		next = 0
	}
	c.lastTimeUs = next
	return Micros(next)
}

// IngestSample folds a peer-reported timestamp (in microseconds) into
// the drift ring and nudges the base offset toward the bounded median.
// Samples whose apparent drift exceeds the outlier threshold are
// silently discarded — this is the ClockOutlier condition in the error
// taxonomy, and it is not fatal.
func (c *Clock) IngestSample(peerUs int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	systemNow := c.source.NowMicros()
	drift := peerUs - systemNow
	if drift > outlierThresholdUs || drift < -outlierThresholdUs {
		c.logger.Debug("discarding clock outlier sample",
			zap.Int64("drift_us", drift))
		return
	}

	if len(c.driftRing) < maxDriftSamples {
		c.driftRing = append(c.driftRing, drift)
	} else {
		c.driftRing[c.driftCursor] = drift
		c.driftCursor = (c.driftCursor + 1) % maxDriftSamples
	}

	median := medianOf(c.driftRing)
	delta := median - c.baseOffset
	if delta > perSampleClampUs {
		delta = perSampleClampUs
	} else if delta < -perSampleClampUs {
		delta = -perSampleClampUs
	}
	c.baseOffset += delta

	// The clock itself never moves backward even as the offset is
	// adjusted; nowLocked already enforces last+1 as a floor, so a
	// negative offset shift cannot regress previously returned values.
}

// medianOf returns the median of a small slice without mutating the
// caller's backing array beyond a local copy.
func medianOf(samples []int64) int64 {
	if len(samples) == 0 {
		return 0
	}
	cp := make([]int64, len(samples))
	copy(cp, samples)
	sort.Slice(cp, func(i, j int) bool { return cp[i] < cp[j] })
	mid := len(cp) / 2
	if len(cp)%2 == 1 {
		return cp[mid]
	}
	return (cp[mid-1] + cp[mid]) / 2
}

// BaseOffset reports the clock's current correction offset, mostly
// for observability/tests.
func (c *Clock) BaseOffset() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.baseOffset
}
