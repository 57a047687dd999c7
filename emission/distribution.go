package emission

import (
	"math/big"

	"github.com/ippan-network/dlc-consensus/fixedpoint"
	"github.com/ippan-network/dlc-consensus/gbdt"
	"github.com/ippan-network/dlc-consensus/types"
)

// Role identifies how a validator participated in a round, which
// selects its role_weight_bps in the raw-weight formula.
type Role int

const (
	RoleProposer Role = iota
	RoleVerifier
	RoleBoth
)

// RoleWeights holds the proposer/verifier weight basis points §6's
// configuration names (`proposer_weight_bps`, `verifier_weight_bps`).
// A validator acting as both uses the sum of the two.
type RoleWeights struct {
	ProposerBps int64
	VerifierBps int64
}

func (w RoleWeights) forRole(role Role) int64 {
	switch role {
	case RoleProposer:
		return w.ProposerBps
	case RoleVerifier:
		return w.VerifierBps
	case RoleBoth:
		return w.ProposerBps + w.VerifierBps
	default:
		return 0
	}
}

// Participant is one validator's contribution to a round's payout
// pool: its D-GBDT fairness multiplier (already mapped from score),
// its role, and its uptime.
type Participant struct {
	ID             types.ValidatorID
	FairnessMult   fixedpoint.Value // output of gbdt.ScoreToMultiplier
	Role           Role
	UptimeScaled   int64 // ×10_000, per types.ValidatorTelemetry
}

// rawWeight computes fairness_mult_i · role_weight_i · uptime_scaled_i
// / Scale, per §4.8, using 128-bit-wide intermediates via math/big so
// the two chained multiplications never silently overflow int64.
func rawWeight(p Participant, roles RoleWeights) int64 {
	roleBps := roles.forRole(p.Role)
	uptime := fixedpoint.Value(p.UptimeScaled * 100) // ×10_000 -> ×1_000_000

	num := new(big.Int).Mul(big.NewInt(int64(p.FairnessMult)), big.NewInt(roleBps))
	num.Mul(num, big.NewInt(int64(uptime)))
	num.Quo(num, big.NewInt(fixedpoint.Scale))
	num.Quo(num, big.NewInt(fixedpoint.Scale))
	if !num.IsInt64() {
		return 1<<63 - 1
	}
	return num.Int64()
}

// ComputePayouts computes the full §4.8 distribution step: raw
// per-participant weights, normalized to sum to fixedpoint.Scale, then
// split across totalPool (emission_capped + fees_capped) via
// gbdt.DistributeByWeights's largest-remainder share distribution.
// Returns nil if there are no participants — the empty-round case
// from §4.10's failure model, where emission still occurs but credits
// no one.
func ComputePayouts(participants []Participant, roles RoleWeights, totalPool *big.Int) []gbdt.Payout {
	if len(participants) == 0 {
		return nil
	}

	ids := make([]types.ValidatorID, len(participants))
	raw := make([]int64, len(participants))
	for i, p := range participants {
		ids[i] = p.ID
		raw[i] = rawWeight(p, roles)
	}

	normalized := gbdt.NormalizeRawWeights(raw, ids)
	entries := make([]gbdt.Weighted, len(participants))
	for i, id := range ids {
		entries[i] = gbdt.Weighted{ID: id, Score: normalized[i]}
	}
	return gbdt.DistributeByWeights(totalPool, entries)
}
