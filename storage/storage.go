// Package storage defines the capability the consensus core depends
// on for durable state: accounts, blocks, transactions, chain state,
// and validator telemetry. The core never implements this trait
// itself — it is satisfied by whichever backing store the embedder
// chooses (Memory for tests, Pebble for a real node).
package storage

import (
	"errors"

	"github.com/ippan-network/dlc-consensus/types"
)

// ErrNotFound is returned by get-style operations when the requested
// key has no value. Callers that want "missing" as a non-error case
// should check errors.Is(err, ErrNotFound).
var ErrNotFound = errors.New("storage: not found")

// Store is the append-only, atomic storage capability the core
// consumes. Every method listed here must be atomic with respect to
// concurrent callers; the backing implementation is responsible for
// serializing UpdateAccount / UpdateChainState / StoreBlock as the
// concurrency model in spec requires.
type Store interface {
	GetAccount(addr types.ID) (types.Account, error)
	UpdateAccount(account types.Account) error

	StoreBlock(block types.Block) error
	GetBlock(hash types.BlockID) (types.Block, error)
	ContainsBlock(hash types.BlockID) (bool, error)
	GetTips() ([]types.BlockID, error)
	GetBlocksInRound(round types.RoundID) ([]types.BlockID, error)

	StoreTransaction(tx types.Transaction) error
	GetTransaction(id types.TxID) (types.Transaction, error)

	GetChainState() (types.ChainState, error)
	UpdateChainState(state types.ChainState) error

	GetValidatorTelemetry(id types.ValidatorID) (types.ValidatorTelemetry, error)
	StoreValidatorTelemetry(id types.ValidatorID, rec types.ValidatorTelemetry) error
	GetAllValidatorTelemetry() (map[types.ValidatorID]types.ValidatorTelemetry, error)

	GetValidatorBond(id types.ValidatorID) (types.ValidatorBond, error)
	StoreValidatorBond(bond types.ValidatorBond) error
	GetAllValidatorBonds() (map[types.ValidatorID]types.ValidatorBond, error)

	// Flush durably persists all writes issued so far. The durability
	// contract: once Flush returns nil, reopening the store restores
	// exactly the ChainState last flushed together with every block
	// and account it references, canonical or not.
	Flush() error
}
