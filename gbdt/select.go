package gbdt

import (
	"encoding/binary"
	"sort"

	"github.com/zeebo/blake3"

	"github.com/ippan-network/dlc-consensus/fixedpoint"
	"github.com/ippan-network/dlc-consensus/types"
)

// Candidate is a scored, bond-checked validator eligible for
// primary/shadow selection in a given round.
type Candidate struct {
	ID     types.ValidatorID
	Score  fixedpoint.Value
	BondOK bool
}

// Selection is the outcome of verifier selection for one round: a
// primary and between 3 and 5 shadows (fewer if too few candidates
// remain).
type Selection struct {
	Primary types.ValidatorID
	Shadows []types.ValidatorID
	Empty   bool // true when no eligible validators existed
}

// RoundSeed derives the audit seed H(R || prev_state_root) named in
// §4.6. Selection's actual ordering never depends on randomness — the
// sort is (score desc, id asc) and ties break on ascending id — so the
// seed is not consumed by Select itself; it exists purely so an
// external auditor can correlate a round's selection with the chain
// state it was computed against.
func RoundSeed(round types.RoundID, prevStateRoot [32]byte) [32]byte {
	h := blake3.New()
	var roundBuf [8]byte
	binary.BigEndian.PutUint64(roundBuf[:], uint64(round))
	h.Write(roundBuf[:])
	h.Write(prevStateRoot[:])
	var seed [32]byte
	copy(seed[:], h.Sum(nil))
	return seed
}

// Select runs the §4.6 selection algorithm: filter by BondOK and
// minReputation, stable-sort by (score desc, id asc), take the top
// candidate as primary and the next shadowCount (clamped to [3,5],
// or fewer if not enough candidates remain) as shadows.
func Select(candidates []Candidate, minReputation fixedpoint.Value, shadowCount int) Selection {
	if shadowCount < 3 {
		shadowCount = 3
	} else if shadowCount > 5 {
		shadowCount = 5
	}

	eligible := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.BondOK && c.Score >= minReputation {
			eligible = append(eligible, c)
		}
	}
	if len(eligible) == 0 {
		return Selection{Empty: true}
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].Score != eligible[j].Score {
			return eligible[i].Score > eligible[j].Score
		}
		return eligible[i].ID.Less(eligible[j].ID)
	})

	primary := eligible[0].ID
	shadows := make([]types.ValidatorID, 0, shadowCount)
	for i := 1; i < len(eligible) && len(shadows) < shadowCount; i++ {
		shadows = append(shadows, eligible[i].ID)
	}
	return Selection{Primary: primary, Shadows: shadows}
}
