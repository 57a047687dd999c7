package gbdt

import (
	"math/big"

	"github.com/ippan-network/dlc-consensus/fixedpoint"
	"github.com/ippan-network/dlc-consensus/types"
)

// Feature indices, fixed by convention so a deployed model's
// feature_index values have a stable meaning across implementations.
const (
	FeatureDeltaTime      = 0
	FeatureLatency        = 1
	FeatureUptime         = 2
	FeatureHonesty        = 3
	FeatureBlocksProposed = 4
	FeatureBlocksVerified = 5
	FeatureStake          = 6

	// FeatureCount is the number of features every model in this
	// implementation must declare.
	FeatureCount = 7
)

// inconsistencyPenalty is the fixed-point honesty deduction charged
// per recorded shadow-verifier inconsistency (see §4.7); honesty
// floors at zero rather than going negative.
const inconsistencyPenalty = fixedpoint.Scale / 20 // 5% per inconsistency

// stakeDivisor rescales atomic stake units (10^24 per IPN) down to a
// feature magnitude GBDT thresholds can reasonably split on, roughly
// "stake in milli-IPN".
var stakeDivisor = new(big.Int).Exp(big.NewInt(10), big.NewInt(21), nil)

// FeatureVector is the fixed-point input the model scores, indexed by
// the Feature* constants above.
type FeatureVector [FeatureCount]int64

// BuildFeatureVector derives a validator's feature vector from its
// telemetry and the round's median IPPAN time. sampleTimeUs is the
// validator's own last-observed activity timestamp; deltaTime is the
// difference against the round median, which is why scoring is
// invariant to a uniform shift of every node's local clock (shifting
// both sampleTimeUs and medianTimeUs by the same Δ leaves their
// difference unchanged).
func BuildFeatureVector(rec types.ValidatorRecord, sampleTimeUs int64, medianTimeUs int64) FeatureVector {
	honesty := fixedpoint.Scale - int64(rec.Telemetry.InconsistencyCount)*inconsistencyPenalty
	if honesty < 0 {
		honesty = 0
	}

	uptimeScaled := rec.Telemetry.UptimeScaled * 100 // ×10_000 -> ×1_000_000

	var fv FeatureVector
	fv[FeatureDeltaTime] = sampleTimeUs - medianTimeUs
	fv[FeatureLatency] = int64(rec.Telemetry.AvgLatencyUs)
	fv[FeatureUptime] = uptimeScaled
	fv[FeatureHonesty] = honesty
	fv[FeatureBlocksProposed] = int64(rec.Telemetry.BlocksProposed)
	fv[FeatureBlocksVerified] = int64(rec.Telemetry.BlocksVerified)
	fv[FeatureStake] = stakeFeature(rec.Stake)
	return fv
}

// stakeFeature rescales atomic stake down to an int64-safe magnitude.
// Stake figures large enough to overflow int64 after rescaling clamp
// to MaxInt64 rather than wrapping.
func stakeFeature(stake types.Amount) int64 {
	scaled := new(big.Int).Div(stake.Atomic(), stakeDivisor)
	if !scaled.IsInt64() {
		return 1<<63 - 1
	}
	return scaled.Int64()
}
