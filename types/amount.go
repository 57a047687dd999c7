package types

import "math/big"

// AtomicPerIPN is the conversion factor between one IPN and the
// atomic unit balances are stored in: 1 IPN = 10^24 atomic units.
// Accounts need 24 decimals of precision for HashTimer-anchored
// micropayments, which overflows a 64-bit integer at a single IPN; Go
// has no built-in 128-bit integer, so balances are carried as
// *big.Int rather than a fixed-width type.
var AtomicPerIPN = new(big.Int).Exp(big.NewInt(10), big.NewInt(24), nil)

// Amount is a non-negative atomic-unit balance or transfer value.
// The zero value is a valid zero amount.
type Amount struct {
	atomic *big.Int
}

// NewAmount wraps an atomic-unit integer as an Amount. A nil or
// negative input is treated as zero: balances are never negative.
func NewAmount(atomic *big.Int) Amount {
	if atomic == nil || atomic.Sign() < 0 {
		return Amount{atomic: big.NewInt(0)}
	}
	return Amount{atomic: new(big.Int).Set(atomic)}
}

// AmountFromUint64 builds an Amount directly from a uint64 atomic
// value, for call sites working with small literal amounts.
func AmountFromUint64(atomic uint64) Amount {
	return Amount{atomic: new(big.Int).SetUint64(atomic)}
}

// AmountFromIPN builds an Amount representing whole IPN.
func AmountFromIPN(ipn int64) Amount {
	v := new(big.Int).Mul(big.NewInt(ipn), AtomicPerIPN)
	return NewAmount(v)
}

// Atomic returns the underlying atomic-unit integer. Callers must not
// mutate the returned value.
func (a Amount) Atomic() *big.Int {
	if a.atomic == nil {
		return big.NewInt(0)
	}
	return a.atomic
}

// IsZero reports whether the amount is exactly zero.
func (a Amount) IsZero() bool {
	return a.Atomic().Sign() == 0
}

// Add returns a saturating sum; since balances are big.Int there is no
// true overflow, but the result is still clamped at zero from below to
// preserve the "balance never negative" invariant if callers misuse it.
func (a Amount) Add(b Amount) Amount {
	return NewAmount(new(big.Int).Add(a.Atomic(), b.Atomic()))
}

// Sub returns a - b, clamped to zero if b > a (overflow/underflow
// guards belong to the payment applier, which checks sufficiency
// before calling Sub).
func (a Amount) Sub(b Amount) Amount {
	return NewAmount(new(big.Int).Sub(a.Atomic(), b.Atomic()))
}

// Cmp compares two amounts the way big.Int.Cmp does.
func (a Amount) Cmp(b Amount) int {
	return a.Atomic().Cmp(b.Atomic())
}

// LessThan reports whether a < b.
func (a Amount) LessThan(b Amount) bool {
	return a.Cmp(b) < 0
}

// String renders the atomic-unit decimal value.
func (a Amount) String() string {
	return a.Atomic().String()
}
