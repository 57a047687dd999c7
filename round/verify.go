package round

import (
	"context"
	"errors"

	"github.com/ippan-network/dlc-consensus/payments"
	"github.com/ippan-network/dlc-consensus/storage"
	"github.com/ippan-network/dlc-consensus/types"
)

// blockVerifier re-runs a block's structural and per-transaction
// dry-run checks independent of DAG admission state — the §4.5/§4.9
// re-verification the primary performs directly and every shadow
// performs in parallel via shadow.Set. It never mutates storage.
type blockVerifier struct {
	dryRun payments.DryRunner
}

func (v blockVerifier) VerifyBlock(_ context.Context, block types.Block) (bool, error) {
	if !block.IsValid() {
		return false, nil
	}

	projected := make(map[types.ID]uint64)
	for _, tx := range block.Transactions {
		next, seen := projected[tx.From]
		if !seen {
			acct, err := v.dryRun.Store.GetAccount(tx.From)
			if err != nil && !errors.Is(err, storage.ErrNotFound) {
				return false, err
			}
			next = acct.Nonce
		}
		if err := v.dryRun.DryRun(tx, next); err != nil {
			return false, nil
		}
		projected[tx.From] = tx.Nonce
	}
	return true, nil
}
