package storage

import (
	"sync"

	"github.com/ippan-network/dlc-consensus/types"
)

// Memory is an in-process Store backed by maps under a single
// read-write mutex. It is used by tests and by single-process
// reference deployments; Flush is a no-op since there is nothing
// beyond process memory to persist.
type Memory struct {
	mu sync.RWMutex

	accounts     map[types.ID]types.Account
	blocks       map[types.BlockID]types.Block
	tips         map[types.BlockID]struct{}
	blocksByRound map[types.RoundID][]types.BlockID
	transactions map[types.TxID]types.Transaction
	chainState   types.ChainState
	telemetry    map[types.ValidatorID]types.ValidatorTelemetry
	bonds        map[types.ValidatorID]types.ValidatorBond
}

// NewMemory returns an empty Memory store seeded with genesis chain
// state.
func NewMemory() *Memory {
	return &Memory{
		accounts:      make(map[types.ID]types.Account),
		blocks:        make(map[types.BlockID]types.Block),
		tips:          make(map[types.BlockID]struct{}),
		blocksByRound: make(map[types.RoundID][]types.BlockID),
		transactions:  make(map[types.TxID]types.Transaction),
		chainState:    types.NewChainState(),
		telemetry:     make(map[types.ValidatorID]types.ValidatorTelemetry),
		bonds:         make(map[types.ValidatorID]types.ValidatorBond),
	}
}

func (m *Memory) GetAccount(addr types.ID) (types.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	acct, ok := m.accounts[addr]
	if !ok {
		return types.NewAccount(addr), ErrNotFound
	}
	return acct, nil
}

func (m *Memory) UpdateAccount(account types.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.Address] = account
	return nil
}

func (m *Memory) StoreBlock(block types.Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := block.Hash()
	m.blocks[id] = block
	m.tips[id] = struct{}{}
	for _, parent := range block.Header.Parents {
		delete(m.tips, parent)
	}
	m.blocksByRound[block.Header.Round] = append(m.blocksByRound[block.Header.Round], id)
	return nil
}

func (m *Memory) GetBlock(hash types.BlockID) (types.Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.blocks[hash]
	if !ok {
		return types.Block{}, ErrNotFound
	}
	return b, nil
}

func (m *Memory) ContainsBlock(hash types.BlockID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.blocks[hash]
	return ok, nil
}

func (m *Memory) GetTips() ([]types.BlockID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tips := make([]types.BlockID, 0, len(m.tips))
	for id := range m.tips {
		tips = append(tips, id)
	}
	return tips, nil
}

func (m *Memory) GetBlocksInRound(round types.RoundID) ([]types.BlockID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := m.blocksByRound[round]
	out := make([]types.BlockID, len(ids))
	copy(out, ids)
	return out, nil
}

func (m *Memory) StoreTransaction(tx types.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[tx.ID] = tx
	return nil
}

func (m *Memory) GetTransaction(id types.TxID) (types.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tx, ok := m.transactions[id]
	if !ok {
		return types.Transaction{}, ErrNotFound
	}
	return tx, nil
}

func (m *Memory) GetChainState() (types.ChainState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.chainState, nil
}

func (m *Memory) UpdateChainState(state types.ChainState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chainState = state
	return nil
}

func (m *Memory) GetValidatorTelemetry(id types.ValidatorID) (types.ValidatorTelemetry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.telemetry[id]
	if !ok {
		return types.ValidatorTelemetry{}, ErrNotFound
	}
	return t, nil
}

func (m *Memory) StoreValidatorTelemetry(id types.ValidatorID, rec types.ValidatorTelemetry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.telemetry[id] = rec
	return nil
}

func (m *Memory) GetAllValidatorTelemetry() (map[types.ValidatorID]types.ValidatorTelemetry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[types.ValidatorID]types.ValidatorTelemetry, len(m.telemetry))
	for k, v := range m.telemetry {
		out[k] = v
	}
	return out, nil
}

func (m *Memory) GetValidatorBond(id types.ValidatorID) (types.ValidatorBond, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bonds[id]
	if !ok {
		return types.ValidatorBond{ValidatorID: id}, ErrNotFound
	}
	return b, nil
}

func (m *Memory) StoreValidatorBond(bond types.ValidatorBond) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bonds[bond.ValidatorID] = bond
	return nil
}

func (m *Memory) GetAllValidatorBonds() (map[types.ValidatorID]types.ValidatorBond, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[types.ValidatorID]types.ValidatorBond, len(m.bonds))
	for k, v := range m.bonds {
		out[k] = v
	}
	return out, nil
}

func (m *Memory) Flush() error {
	// Nothing beyond process memory to persist.
	return nil
}

var _ Store = (*Memory)(nil)
