package types

// Account is a ledger entry keyed by address. Invariant: Balance is
// never negative (enforced by the payment applier before any debit is
// committed); Nonce increases by exactly one per applied transaction
// from this address.
type Account struct {
	Address ID
	Balance Amount
	Nonce   uint64
}

// NewAccount returns a freshly opened zero-balance account.
func NewAccount(address ID) Account {
	return Account{Address: address, Balance: Amount{}, Nonce: 0}
}
