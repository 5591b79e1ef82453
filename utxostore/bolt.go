package utxostore

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"sclchain.dev/core/consensus"
	"sclchain.dev/core/crypto"
)

var (
	bucketUtxo    = []byte("utxo_by_commitment")
	bucketKernels = []byte("kernels_by_hash")
	bucketUndo    = []byte("undo_by_block_hash")
)

// BoltStore is a durable Store backed by a single bbolt file. Block
// application is atomic: either every mutation of a block lands or none do.
type BoltStore struct {
	db     *bolt.DB
	params consensus.Params
}

// OpenBolt opens (or creates) the store file at path.
func OpenBolt(path string, p consensus.Params) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketUtxo, bucketKernels, bucketUndo} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", string(b), err)
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BoltStore{db: db, params: p}, nil
}

func (s *BoltStore) Close() error { return s.db.Close() }

func (s *BoltStore) Lookup(c crypto.Commitment) (*consensus.OutputRecord, error) {
	var out *consensus.OutputRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketUtxo).Get(c.Bytes())
		if v == nil {
			return nil
		}
		rec, err := decodeOutputRecord(v, s.params)
		if err != nil {
			return err
		}
		out = &rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *BoltStore) HasKernel(hash [32]byte) (bool, error) {
	var ok bool
	err := s.db.View(func(tx *bolt.Tx) error {
		ok = tx.Bucket(bucketKernels).Get(hash[:]) != nil
		return nil
	})
	return ok, err
}

// AddOutput inserts a single unspent output outside block connection, for
// genesis state and tests.
func (s *BoltStore) AddOutput(out consensus.TransactionOutput, minedHeight uint64) error {
	rec := consensus.OutputRecord{Output: out, MinedHeight: minedHeight}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketUtxo).Put(out.Commitment.Bytes(), encodeOutputRecord(rec))
	})
}

func (s *BoltStore) ApplyBlock(b *consensus.Block) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		utxos := tx.Bucket(bucketUtxo)
		kernels := tx.Bucket(bucketKernels)

		spent := make([]consensus.OutputRecord, 0, len(b.Body.Inputs))
		for i := range b.Body.Inputs {
			c := b.Body.Inputs[i].Commitment
			v := utxos.Get(c.Bytes())
			if v == nil {
				return fmt.Errorf("apply: input %x not in unspent set", c[:8])
			}
			rec, err := decodeOutputRecord(v, s.params)
			if err != nil {
				return err
			}
			spent = append(spent, rec)
			if err := utxos.Delete(c.Bytes()); err != nil {
				return err
			}
		}
		for i := range b.Body.Outputs {
			o := b.Body.Outputs[i]
			rec := consensus.OutputRecord{Output: o, MinedHeight: b.Header.Height}
			if err := utxos.Put(o.Commitment.Bytes(), encodeOutputRecord(rec)); err != nil {
				return err
			}
		}
		for i := range b.Body.Kernels {
			h := b.Body.Kernels[i].Hash()
			if err := kernels.Put(h[:], []byte{}); err != nil {
				return err
			}
		}
		hash := b.Header.Hash()
		return tx.Bucket(bucketUndo).Put(hash[:], encodeUndoRecord(spent))
	})
}

func (s *BoltStore) RevertBlock(b *consensus.Block) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		utxos := tx.Bucket(bucketUtxo)
		kernels := tx.Bucket(bucketKernels)
		undo := tx.Bucket(bucketUndo)

		hash := b.Header.Hash()
		v := undo.Get(hash[:])
		if v == nil {
			return fmt.Errorf("revert: no undo data for block %x", hash[:8])
		}
		spent, err := decodeUndoRecord(v, s.params)
		if err != nil {
			return err
		}
		for i := range b.Body.Outputs {
			if err := utxos.Delete(b.Body.Outputs[i].Commitment.Bytes()); err != nil {
				return err
			}
		}
		for i := range b.Body.Kernels {
			h := b.Body.Kernels[i].Hash()
			if err := kernels.Delete(h[:]); err != nil {
				return err
			}
		}
		for _, rec := range spent {
			if err := utxos.Put(rec.Output.Commitment.Bytes(), encodeOutputRecord(rec)); err != nil {
				return err
			}
		}
		return undo.Delete(hash[:])
	})
}
