package storage

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/klauspost/compress/zstd"

	"github.com/ippan-network/dlc-consensus/types"
)

// compressThresholdBytes is the encoded record size at or above which
// Pebble stores a zstd-compressed encoding instead of the raw gob bytes.
const compressThresholdBytes = 4096

// key prefixes partition Pebble's single flat keyspace into the
// logical trees the storage contract requires: accounts, blocks,
// transactions, the round index, validator telemetry, and the
// chain-state singleton.
var (
	prefixAccount    = []byte("a/")
	prefixBlock      = []byte("b/")
	prefixTip        = []byte("t/")
	prefixRoundIndex = []byte("r/")
	prefixTx         = []byte("x/")
	prefixTelemetry  = []byte("v/")
	prefixBond       = []byte("bond/")
	keyChainState    = []byte("chain_state")
)

// Pebble is a Store backed by github.com/cockroachdb/pebble, the
// embedded ordered key-value engine the reference stack's own
// database layer wraps. WAL + LSM give the crash-then-reopen
// durability contract for free: anything Flush has synced to disk
// survives a crash, and Pebble never partially applies a batch.
type Pebble struct {
	mu  sync.Mutex // serializes UpdateAccount/UpdateChainState/StoreBlock per spec §5
	db  *pebble.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// OpenPebble opens (or creates) a Pebble-backed store at dir.
func OpenPebble(dir string) (*Pebble, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("storage: open pebble: %w", err)
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: init zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: init zstd decoder: %w", err)
	}
	return &Pebble{db: db, enc: enc, dec: dec}, nil
}

// Close releases the underlying Pebble handle.
func (p *Pebble) Close() error {
	p.dec.Close()
	p.enc.Close()
	return p.db.Close()
}

func accountKey(addr types.ID) []byte  { return append(append([]byte{}, prefixAccount...), addr[:]...) }
func blockKey(id types.BlockID) []byte { return append(append([]byte{}, prefixBlock...), id[:]...) }
func tipKey(id types.BlockID) []byte   { return append(append([]byte{}, prefixTip...), id[:]...) }
func txKey(id types.TxID) []byte       { return append(append([]byte{}, prefixTx...), id[:]...) }
func telemetryKey(id types.ValidatorID) []byte {
	return append(append([]byte{}, prefixTelemetry...), id[:]...)
}
func bondKey(id types.ValidatorID) []byte {
	return append(append([]byte{}, prefixBond...), id[:]...)
}
func roundIndexKey(round types.RoundID, id types.BlockID) []byte {
	buf := append([]byte{}, prefixRoundIndex...)
	var roundBuf [8]byte
	for i := 0; i < 8; i++ {
		roundBuf[7-i] = byte(round >> (8 * i))
	}
	buf = append(buf, roundBuf[:]...)
	buf = append(buf, id[:]...)
	return buf
}

func (p *Pebble) encode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	raw := buf.Bytes()
	if len(raw) < compressThresholdBytes {
		return append([]byte{0}, raw...), nil
	}
	compressed := p.enc.EncodeAll(raw, nil)
	return append([]byte{1}, compressed...), nil
}

func (p *Pebble) decode(data []byte, v interface{}) error {
	if len(data) == 0 {
		return errors.New("storage: empty record")
	}
	flag, body := data[0], data[1:]
	if flag == 1 {
		raw, err := p.dec.DecodeAll(body, nil)
		if err != nil {
			return fmt.Errorf("storage: zstd decode: %w", err)
		}
		body = raw
	}
	return gob.NewDecoder(bytes.NewReader(body)).Decode(v)
}

func (p *Pebble) getValue(key []byte, v interface{}) error {
	data, closer, err := p.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	defer closer.Close()
	cp := append([]byte{}, data...)
	return p.decode(cp, v)
}

func (p *Pebble) setValue(key []byte, v interface{}) error {
	data, err := p.encode(v)
	if err != nil {
		return err
	}
	return p.db.Set(key, data, pebble.Sync)
}

func (p *Pebble) GetAccount(addr types.ID) (types.Account, error) {
	var a types.Account
	err := p.getValue(accountKey(addr), &a)
	if errors.Is(err, ErrNotFound) {
		return types.NewAccount(addr), ErrNotFound
	}
	return a, err
}

func (p *Pebble) UpdateAccount(account types.Account) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.setValue(accountKey(account.Address), account)
}

func (p *Pebble) StoreBlock(block types.Block) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := block.Hash()
	batch := p.db.NewBatch()
	defer batch.Close()

	data, err := p.encode(block)
	if err != nil {
		return err
	}
	if err := batch.Set(blockKey(id), data, nil); err != nil {
		return err
	}
	if err := batch.Set(tipKey(id), []byte{1}, nil); err != nil {
		return err
	}
	for _, parent := range block.Header.Parents {
		if err := batch.Delete(tipKey(parent), nil); err != nil {
			return err
		}
	}
	if err := batch.Set(roundIndexKey(block.Header.Round, id), []byte{1}, nil); err != nil {
		return err
	}
	return batch.Commit(pebble.Sync)
}

func (p *Pebble) GetBlock(id types.BlockID) (types.Block, error) {
	var b types.Block
	err := p.getValue(blockKey(id), &b)
	return b, err
}

func (p *Pebble) ContainsBlock(id types.BlockID) (bool, error) {
	_, closer, err := p.db.Get(blockKey(id))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	defer closer.Close()
	return true, nil
}

func (p *Pebble) GetTips() ([]types.BlockID, error) {
	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: prefixTip,
		UpperBound: prefixUpperBound(prefixTip),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var tips []types.BlockID
	for iter.First(); iter.Valid(); iter.Next() {
		var id types.BlockID
		copy(id[:], iter.Key()[len(prefixTip):])
		tips = append(tips, id)
	}
	return tips, iter.Error()
}

func (p *Pebble) GetBlocksInRound(round types.RoundID) ([]types.BlockID, error) {
	lower := roundIndexKey(round, types.BlockID{})
	upper := roundIndexKey(round+1, types.BlockID{})
	iter, err := p.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var ids []types.BlockID
	for iter.First(); iter.Valid(); iter.Next() {
		key := iter.Key()
		var id types.BlockID
		copy(id[:], key[len(key)-32:])
		ids = append(ids, id)
	}
	return ids, iter.Error()
}

func (p *Pebble) StoreTransaction(tx types.Transaction) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.setValue(txKey(tx.ID), tx)
}

func (p *Pebble) GetTransaction(id types.TxID) (types.Transaction, error) {
	var tx types.Transaction
	err := p.getValue(txKey(id), &tx)
	return tx, err
}

func (p *Pebble) GetChainState() (types.ChainState, error) {
	var cs types.ChainState
	err := p.getValue(keyChainState, &cs)
	if errors.Is(err, ErrNotFound) {
		return types.NewChainState(), nil
	}
	return cs, err
}

func (p *Pebble) UpdateChainState(state types.ChainState) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.setValue(keyChainState, state)
}

func (p *Pebble) GetValidatorTelemetry(id types.ValidatorID) (types.ValidatorTelemetry, error) {
	var t types.ValidatorTelemetry
	err := p.getValue(telemetryKey(id), &t)
	return t, err
}

func (p *Pebble) StoreValidatorTelemetry(id types.ValidatorID, rec types.ValidatorTelemetry) error {
	return p.setValue(telemetryKey(id), rec)
}

func (p *Pebble) GetAllValidatorTelemetry() (map[types.ValidatorID]types.ValidatorTelemetry, error) {
	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: prefixTelemetry,
		UpperBound: prefixUpperBound(prefixTelemetry),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	out := make(map[types.ValidatorID]types.ValidatorTelemetry)
	for iter.First(); iter.Valid(); iter.Next() {
		var id types.ValidatorID
		copy(id[:], iter.Key()[len(prefixTelemetry):])
		var t types.ValidatorTelemetry
		if err := p.decode(append([]byte{}, iter.Value()...), &t); err != nil {
			return nil, err
		}
		out[id] = t
	}
	return out, iter.Error()
}

func (p *Pebble) GetValidatorBond(id types.ValidatorID) (types.ValidatorBond, error) {
	var b types.ValidatorBond
	err := p.getValue(bondKey(id), &b)
	if errors.Is(err, ErrNotFound) {
		return types.ValidatorBond{ValidatorID: id}, ErrNotFound
	}
	return b, err
}

func (p *Pebble) StoreValidatorBond(bond types.ValidatorBond) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.setValue(bondKey(bond.ValidatorID), bond)
}

func (p *Pebble) GetAllValidatorBonds() (map[types.ValidatorID]types.ValidatorBond, error) {
	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: prefixBond,
		UpperBound: prefixUpperBound(prefixBond),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	out := make(map[types.ValidatorID]types.ValidatorBond)
	for iter.First(); iter.Valid(); iter.Next() {
		var id types.ValidatorID
		copy(id[:], iter.Key()[len(prefixBond):])
		var b types.ValidatorBond
		if err := p.decode(append([]byte{}, iter.Value()...), &b); err != nil {
			return nil, err
		}
		out[id] = b
	}
	return out, iter.Error()
}

func (p *Pebble) Flush() error {
	return p.db.Flush()
}

func prefixUpperBound(prefix []byte) []byte {
	upper := append([]byte{}, prefix...)
	for i := len(upper) - 1; i >= 0; i-- {
		if upper[i] < 0xff {
			upper[i]++
			return upper[:i+1]
		}
	}
	return nil
}

var _ Store = (*Pebble)(nil)
