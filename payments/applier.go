package payments

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ippan-network/dlc-consensus/storage"
	"github.com/ippan-network/dlc-consensus/types"
)

// ApplyErrorKind classifies why a transaction was rejected, for
// per-kind failure counters in PaymentRoundStats. Grounded on
// payments.rs's PaymentApplyErrorKind.
type ApplyErrorKind int

const (
	KindMissingAccount ApplyErrorKind = iota
	KindNonceMismatch
	KindInsufficientBalance
	KindBalanceOverflow
	KindStorage
)

// Sentinel errors for the payment applier's failure taxonomy (§4.9,
// §7). ApplyError.Kind reports which of these a given failure maps to.
var (
	ErrMissingAccount      = errors.New("payments: sender account not found")
	ErrNonceMismatch       = errors.New("payments: transaction nonce does not follow sender's account nonce")
	ErrInsufficientBalance = errors.New("payments: sender balance is insufficient for amount plus fee")
	ErrBalanceOverflow     = errors.New("payments: balance update would overflow")
)

// ApplyError wraps one of the sentinel errors above with enough
// context for logging, and reports its Kind for statistics.
type ApplyError struct {
	Kind ApplyErrorKind
	Err  error
}

func (e *ApplyError) Error() string { return e.Err.Error() }
func (e *ApplyError) Unwrap() error { return e.Err }

func kindError(kind ApplyErrorKind, err error) *ApplyError {
	return &ApplyError{Kind: kind, Err: err}
}

// Applier applies deterministic payment fees and balance updates
// against canonical storage (C9), grounded on payments.rs's
// PaymentApplier.
type Applier struct {
	policy          FeePolicy
	treasuryAccount types.ID
}

// NewApplier constructs an Applier with the given fee policy and
// treasury address.
func NewApplier(policy FeePolicy, treasuryAccount types.ID) *Applier {
	return &Applier{policy: policy, treasuryAccount: treasuryAccount}
}

// Apply executes the six-step §4.9 pipeline for a single transaction
// against store, crediting proposer for its validator_fee share. Every
// step either fully commits or the call returns an *ApplyError and no
// storage mutation from this call is observed — steps are applied in
// order but Memory/Pebble both commit StoreBlock-style batches
// elsewhere; here each UpdateAccount is its own atomic write, and a
// failure partway only happens before any write is issued (nonce and
// balance are checked up front).
func (a *Applier) Apply(store storage.Store, tx types.Transaction, proposer types.ID) (FeeSplit, error) {
	sender, err := store.GetAccount(tx.From)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return FeeSplit{}, kindError(KindMissingAccount, fmt.Errorf("%w: %s", ErrMissingAccount, tx.From))
		}
		return FeeSplit{}, kindError(KindStorage, err)
	}

	expectedNonce := sender.Nonce + 1
	if tx.Nonce != expectedNonce {
		return FeeSplit{}, kindError(KindNonceMismatch, fmt.Errorf("%w: expected %d, got %d", ErrNonceMismatch, expectedNonce, tx.Nonce))
	}

	amount := tx.Amount.Atomic()
	fee := a.policy.RequiredFee(amount)
	totalCost := new(big.Int).Add(amount, fee)

	senderBalance := sender.Balance.Atomic()
	if senderBalance.Cmp(totalCost) < 0 {
		return FeeSplit{}, kindError(KindInsufficientBalance, fmt.Errorf("%w: have %s, need %s", ErrInsufficientBalance, senderBalance, totalCost))
	}

	updatedSender := sender
	updatedSender.Balance = types.NewAmount(new(big.Int).Sub(senderBalance, totalCost))
	updatedSender.Nonce = tx.Nonce
	if err := store.UpdateAccount(updatedSender); err != nil {
		return FeeSplit{}, kindError(KindStorage, err)
	}

	if err := creditAccount(store, tx.To, amount); err != nil {
		return FeeSplit{}, err
	}

	split := a.policy.SplitFee(fee)
	if err := creditAccount(store, proposer, split.ValidatorFee); err != nil {
		return FeeSplit{}, err
	}
	if err := creditAccount(store, a.treasuryAccount, split.TreasuryFee); err != nil {
		return FeeSplit{}, err
	}

	return split, nil
}

// ApplyBlock applies every transaction in tx order against store,
// crediting proposer for its validator_fee share on each success, and
// folds the outcome of every attempt into a fresh RoundStats. A
// rejected transaction aborts only itself — later transactions in the
// block still apply — matching §4.9's "a failure at any step aborts
// the tx (no partial state)" per-transaction isolation.
func (a *Applier) ApplyBlock(store storage.Store, round types.RoundID, txs []types.Transaction, proposer types.ID) *RoundStats {
	stats := NewRoundStats(round)
	for _, tx := range txs {
		split, err := a.Apply(store, tx, proposer)
		if err != nil {
			var applyErr *ApplyError
			if errors.As(err, &applyErr) {
				stats.RecordFailure(applyErr)
			}
			continue
		}
		stats.RecordSuccess(tx, proposer, split)
	}
	return stats
}

// Credit adds amountAtomic to address's stored balance, creating the
// account if it did not already exist; a zero amount writes nothing
// and creates no account. Exported for the round
// executor's settlement step, which credits reward payouts the same
// way a transaction credits its receiver.
func Credit(store storage.Store, address types.ID, amountAtomic *big.Int) error {
	return creditAccount(store, address, amountAtomic)
}

func creditAccount(store storage.Store, address types.ID, amountAtomic *big.Int) error {
	if amountAtomic.Sign() == 0 {
		return nil
	}

	account, err := store.GetAccount(address)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			account = types.NewAccount(address)
		} else {
			return kindError(KindStorage, err)
		}
	}

	newBalance := new(big.Int).Add(account.Balance.Atomic(), amountAtomic)
	account.Balance = types.NewAmount(newBalance)
	if err := store.UpdateAccount(account); err != nil {
		return kindError(KindStorage, err)
	}
	return nil
}
