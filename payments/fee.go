// Package payments implements the payment applier (C9): per-transaction
// nonce checks, balance debits/credits, and proposer/treasury fee
// splitting against canonical storage, plus per-round statistics (C13).
package payments

import "math/big"

// TreasuryAccount is the canonical fixed address fee remainders are
// credited to.
var TreasuryAccount = [32]byte{}

// FeePolicy computes a transaction's required fee and splits it
// between the block proposer and the treasury. The fee itself has no
// spec.md-literal formula (policy(tx) is left abstract); FlatFeePolicy
// below is the concrete choice this tree makes: a flat base fee plus a
// basis-point surcharge on the transfer amount, split by ValidatorBps.
type FeePolicy interface {
	RequiredFee(amountAtomic *big.Int) *big.Int
	SplitFee(feeAtomic *big.Int) FeeSplit
}

// FeeSplit is the result of dividing a collected fee between the
// proposer and the treasury.
type FeeSplit struct {
	TotalFee     *big.Int
	ValidatorFee *big.Int
	TreasuryFee  *big.Int
}

// FlatFeePolicy charges BaseFeeAtomic plus BpsOfAmount/10_000 of the
// transfer amount, then routes ValidatorBps/10_000 of the collected
// fee to the proposer and the remainder to the treasury.
type FlatFeePolicy struct {
	BaseFeeAtomic *big.Int
	BpsOfAmount   int64
	ValidatorBps  int64
}

// DefaultFeePolicy is a conservative starting policy: no base fee, a
// 10 bps (0.1%) surcharge on the transfer amount, 70% of which goes to
// the proposer and 30% to the treasury.
func DefaultFeePolicy() FlatFeePolicy {
	return FlatFeePolicy{
		BaseFeeAtomic: big.NewInt(0),
		BpsOfAmount:   10,
		ValidatorBps:  7_000,
	}
}

func (p FlatFeePolicy) RequiredFee(amountAtomic *big.Int) *big.Int {
	surcharge := new(big.Int).Mul(amountAtomic, big.NewInt(p.BpsOfAmount))
	surcharge.Quo(surcharge, big.NewInt(10_000))
	return new(big.Int).Add(p.BaseFeeAtomic, surcharge)
}

func (p FlatFeePolicy) SplitFee(feeAtomic *big.Int) FeeSplit {
	validatorFee := new(big.Int).Mul(feeAtomic, big.NewInt(p.ValidatorBps))
	validatorFee.Quo(validatorFee, big.NewInt(10_000))
	treasuryFee := new(big.Int).Sub(feeAtomic, validatorFee)
	return FeeSplit{
		TotalFee:     new(big.Int).Set(feeAtomic),
		ValidatorFee: validatorFee,
		TreasuryFee:  treasuryFee,
	}
}
