package gbdt

import (
	"math/big"
	"sort"

	"github.com/ippan-network/dlc-consensus/fixedpoint"
	"github.com/ippan-network/dlc-consensus/types"
)

// MinMult and MaxMult bound the reward multiplier a score can map to:
// the lowest-scoring validator still earns 80% of its base share, the
// highest earns 120%. Grounded on reward_weighting.rs's MIN_MULT/
// MAX_MULT constants.
const (
	MinMult int64 = 800_000
	MaxMult int64 = 1_200_000
)

// ScoreToMultiplier maps a fixed-point score in [0, Scale] linearly
// onto [MinMult, MaxMult], clamping scores outside that range first.
func ScoreToMultiplier(score fixedpoint.Value) fixedpoint.Value {
	clamped := int64(score)
	if clamped < 0 {
		clamped = 0
	} else if clamped > fixedpoint.Scale {
		clamped = fixedpoint.Scale
	}

	// clamped ∈ [0, Scale] and rng ∈ [0, MaxMult-MinMult] are both well
	// within int64 range, and their product (≤ ~4·10^11) never
	// approaches overflow, so plain integer division mirrors the
	// original's i128 intermediate without needing one here.
	rng := MaxMult - MinMult
	scaled := (clamped * rng) / fixedpoint.Scale
	return fixedpoint.Value(MinMult + scaled)
}

// Weighted pairs a validator id with its fixed-point score, the unit
// every reward-weighting function below operates on.
type Weighted struct {
	ID    types.ValidatorID
	Score fixedpoint.Value
}

// ComputeRewardWeights converts per-validator fixed-point scores into
// normalized weights that sum to exactly fixedpoint.Scale. Each score
// is first mapped to a multiplier via ScoreToMultiplier; multipliers
// are then normalized by their sum, with the integer remainder handed
// out one unit at a time to the largest fractional remainders, ties
// broken by ascending validator id. Grounded on reward_weighting.rs's
// compute_reward_weights.
func ComputeRewardWeights(entries []Weighted) []fixedpoint.Value {
	n := len(entries)
	if n == 0 {
		return nil
	}

	ids := make([]types.ValidatorID, n)
	raw := make([]int64, n)
	for i, e := range entries {
		ids[i] = e.ID
		raw[i] = int64(ScoreToMultiplier(e.Score))
	}
	return NormalizeRawWeights(raw, ids)
}

// NormalizeRawWeights normalizes an arbitrary set of non-negative raw
// weights so they sum to exactly fixedpoint.Scale: each raw weight is
// rescaled by raw_i·Scale/Σraw, then the integer remainder left by
// truncation is handed out one unit at a time to the largest
// fractional remainders, ties broken by ascending validator id. When
// every raw weight is zero, weight is split as evenly as possible
// instead (matching reward_weighting.rs's degenerate-input branch).
// This is the same normalization §4.8's "per-participant raw weight"
// step uses for emission distribution, and what
// ComputeRewardWeights uses after mapping scores to multipliers.
func NormalizeRawWeights(raw []int64, ids []types.ValidatorID) []fixedpoint.Value {
	n := len(raw)
	if n == 0 || len(ids) != n {
		return nil
	}

	var sumRaw int64
	for _, r := range raw {
		sumRaw += r
	}

	weights := make([]int64, n)
	if sumRaw == 0 {
		equal := fixedpoint.Scale / int64(n)
		remainder := fixedpoint.Scale % int64(n)
		for i := range weights {
			weights[i] = equal
		}
		distributeRemainderByIndex(weights, int(remainder))
		return toValues(weights)
	}

	remainders := make([]int64, n)
	for i, r := range raw {
		num := new(big.Int).Mul(big.NewInt(r), big.NewInt(fixedpoint.Scale))
		den := big.NewInt(sumRaw)
		q, rem := new(big.Int).QuoRem(num, den, new(big.Int))
		weights[i] = q.Int64()
		remainders[i] = rem.Int64()
	}

	sumExact := sumInt64(weights)
	leftover := fixedpoint.Scale - sumExact
	if leftover > 0 {
		order := orderByRemainderThenIDSlice(ids, remainders)
		for i := 0; i < int(leftover) && i < len(order); i++ {
			weights[order[i]]++
		}
	}
	return toValues(weights)
}

// Payout is a single validator's share of a distributed total.
type Payout struct {
	ID     types.ValidatorID
	Amount *big.Int
}

// DistributeByWeights splits total (an atomic amount) across entries
// proportionally to weight, where weights are expected to sum to
// fixedpoint.Scale. Floor shares are computed first; any integer
// remainder left by truncation is handed out one unit at a time to the
// largest fractional remainders, ties broken by ascending validator id
// — so Σ payouts == total exactly when the weights sum to Scale. Other
// weight sums are not corrected for: the payouts then do not sum to
// total. Grounded on reward_weighting.rs's distribute_by_weights.
func DistributeByWeights(total *big.Int, entries []Weighted) []Payout {
	n := len(entries)
	if n == 0 {
		return nil
	}
	if total == nil || total.Sign() == 0 {
		out := make([]Payout, n)
		for i, e := range entries {
			out[i] = Payout{ID: e.ID, Amount: big.NewInt(0)}
		}
		return out
	}

	scale := big.NewInt(fixedpoint.Scale)
	shares := make([]*big.Int, n)
	remainders := make([]*big.Int, n)
	distributed := big.NewInt(0)

	for i, e := range entries {
		weight := big.NewInt(int64(e.Score))
		num := new(big.Int).Mul(total, weight)
		share, rem := new(big.Int).QuoRem(num, scale, new(big.Int))
		shares[i] = share
		remainders[i] = rem
		distributed.Add(distributed, share)
	}

	leftover := new(big.Int).Sub(total, distributed)
	if leftover.Sign() > 0 {
		type idxRem struct {
			idx int
			rem *big.Int
		}
		order := make([]idxRem, n)
		for i := range entries {
			order[i] = idxRem{i, remainders[i]}
		}
		sort.Slice(order, func(i, j int) bool {
			cmp := order[i].rem.Cmp(order[j].rem)
			if cmp != 0 {
				return cmp > 0
			}
			return entries[order[i].idx].ID.Less(entries[order[j].idx].ID)
		})
		one := big.NewInt(1)
		for i := 0; i < n && leftover.Sign() > 0; i++ {
			idx := order[i].idx
			shares[idx].Add(shares[idx], one)
			leftover.Sub(leftover, one)
		}
	}

	out := make([]Payout, n)
	for i, e := range entries {
		out[i] = Payout{ID: e.ID, Amount: shares[i]}
	}
	return out
}

func distributeRemainderByIndex(weights []int64, remainder int) {
	for i := 0; i < remainder && i < len(weights); i++ {
		weights[i]++
	}
}

func orderByRemainderThenIDSlice(ids []types.ValidatorID, remainders []int64) []int {
	order := make([]int, len(ids))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if remainders[a] != remainders[b] {
			return remainders[a] > remainders[b]
		}
		return ids[a].Less(ids[b])
	})
	return order
}

func sumInt64(values []int64) int64 {
	var sum int64
	for _, v := range values {
		sum += v
	}
	return sum
}

func toValues(raw []int64) []fixedpoint.Value {
	out := make([]fixedpoint.Value, len(raw))
	for i, v := range raw {
		out[i] = fixedpoint.Value(v)
	}
	return out
}
