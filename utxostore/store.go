// Package utxostore persists the unspent output set and the kernel index a
// validator queries. MemStore serves tests and mempool simulation; BoltStore
// is the durable variant.
package utxostore

import (
	"fmt"
	"sync"

	"sclchain.dev/core/consensus"
	"sclchain.dev/core/crypto"
)

// Store is the chain-state surface consumed by block validation plus the
// mutations block connection needs. Lookup and HasKernel satisfy
// consensus.UtxoLookup and consensus.KernelLookup.
type Store interface {
	Lookup(c crypto.Commitment) (*consensus.OutputRecord, error)
	HasKernel(hash [32]byte) (bool, error)
	// ApplyBlock removes the block's inputs from the unspent set, adds its
	// outputs, and records its kernel hashes. The caller validates first.
	ApplyBlock(b *consensus.Block) error
	// RevertBlock undoes a previously applied block: outputs are removed,
	// spent inputs restored, kernel hashes forgotten.
	RevertBlock(b *consensus.Block) error
	Close() error
}

// MemStore is an in-memory Store guarded by a read-write mutex.
type MemStore struct {
	mu      sync.RWMutex
	utxos   map[crypto.Commitment]consensus.OutputRecord
	kernels map[[32]byte]struct{}
	// undo keeps the records spent by each applied block, keyed by header
	// hash, so RevertBlock can restore them.
	undo map[[32]byte][]consensus.OutputRecord
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		utxos:   make(map[crypto.Commitment]consensus.OutputRecord),
		kernels: make(map[[32]byte]struct{}),
		undo:    make(map[[32]byte][]consensus.OutputRecord),
	}
}

func (s *MemStore) Lookup(c crypto.Commitment) (*consensus.OutputRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.utxos[c]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *MemStore) HasKernel(hash [32]byte) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.kernels[hash]
	return ok, nil
}

// AddOutput inserts a single unspent output, for seeding test and genesis
// state outside block connection.
func (s *MemStore) AddOutput(out consensus.TransactionOutput, minedHeight uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.utxos[out.Commitment] = consensus.OutputRecord{Output: out, MinedHeight: minedHeight}
}

func (s *MemStore) ApplyBlock(b *consensus.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	spent := make([]consensus.OutputRecord, 0, len(b.Body.Inputs))
	for i := range b.Body.Inputs {
		c := b.Body.Inputs[i].Commitment
		rec, ok := s.utxos[c]
		if !ok {
			return fmt.Errorf("apply: input %x not in unspent set", c[:8])
		}
		spent = append(spent, rec)
	}
	for i := range b.Body.Inputs {
		delete(s.utxos, b.Body.Inputs[i].Commitment)
	}
	for i := range b.Body.Outputs {
		o := b.Body.Outputs[i]
		s.utxos[o.Commitment] = consensus.OutputRecord{Output: o, MinedHeight: b.Header.Height}
	}
	for i := range b.Body.Kernels {
		s.kernels[b.Body.Kernels[i].Hash()] = struct{}{}
	}
	s.undo[b.Header.Hash()] = spent
	return nil
}

func (s *MemStore) RevertBlock(b *consensus.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	hash := b.Header.Hash()
	spent, ok := s.undo[hash]
	if !ok {
		return fmt.Errorf("revert: no undo data for block %x", hash[:8])
	}
	for i := range b.Body.Outputs {
		delete(s.utxos, b.Body.Outputs[i].Commitment)
	}
	for i := range b.Body.Kernels {
		delete(s.kernels, b.Body.Kernels[i].Hash())
	}
	for _, rec := range spent {
		s.utxos[rec.Output.Commitment] = rec
	}
	delete(s.undo, hash)
	return nil
}

func (s *MemStore) Close() error { return nil }
