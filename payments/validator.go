package payments

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ippan-network/dlc-consensus/storage"
	"github.com/ippan-network/dlc-consensus/types"
)

// DryRunner performs the read-only §4.9 pre-check the DAG admission
// gate and block re-verification both need: does this transaction's
// nonce follow the projected per-sender nonce, and does the sender's
// currently stored balance cover amount+fee. It never mutates storage
// — the real debit/credit only happens when Applier.Apply runs during
// the fold step. Satisfies dag.TxValidator and is reused by the round
// executor's block re-verification.
type DryRunner struct {
	Store  storage.Store
	Policy FeePolicy
}

// DryRun checks tx against projectedNonce (the sender's nonce as of
// the last transaction from the same sender already seen earlier in
// the same block, or the stored account nonce if this is the first).
func (d DryRunner) DryRun(tx types.Transaction, projectedNonce uint64) error {
	if tx.Nonce != projectedNonce+1 {
		return fmt.Errorf("%w: expected %d, got %d", ErrNonceMismatch, projectedNonce+1, tx.Nonce)
	}

	account, err := d.Store.GetAccount(tx.From)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrMissingAccount, tx.From)
		}
		return err
	}

	fee := d.Policy.RequiredFee(tx.Amount.Atomic())
	totalCost := new(big.Int).Add(fee, tx.Amount.Atomic())
	if account.Balance.Atomic().Cmp(totalCost) < 0 {
		return fmt.Errorf("%w: have %s, need %s", ErrInsufficientBalance, account.Balance, totalCost)
	}
	return nil
}
