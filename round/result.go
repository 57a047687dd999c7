package round

import (
	"math/big"

	"github.com/ippan-network/dlc-consensus/gbdt"
	"github.com/ippan-network/dlc-consensus/payments"
	"github.com/ippan-network/dlc-consensus/types"
)

// ExecutionResult is the outcome of one finalized round — the shape
// §6 names as process_round()'s return value.
type ExecutionResult struct {
	Round               types.RoundID
	EmissionAtomic      *big.Int
	FeesCollectedAtomic *big.Int
	TotalParticipants   int
	TotalPayoutsAtomic  *big.Int
	StateRoot           [32]byte
	Payouts             []gbdt.Payout
	PaymentStats        *payments.RoundStats
	Selection           gbdt.Selection
}
