package consensus

import (
	"sclchain.dev/core/crypto"
)

// OutputRecord is an unspent output together with the height it was mined
// at, as surfaced by the unspent-set collaborator.
type OutputRecord struct {
	Output      TransactionOutput
	MinedHeight uint64
}

// UtxoLookup is the read-only unspent-output set the validators consult.
// Implementations must present an immutable snapshot for the duration of a
// validation call; mutation happens in a separate apply step.
type UtxoLookup interface {
	// Lookup returns the record for a commitment, or (nil, nil) if no
	// unspent output carries it.
	Lookup(commitment crypto.Commitment) (*OutputRecord, error)
}

// KernelLookup answers whether a kernel already exists on the chain. Kernel
// hashes must be unique across the whole chain.
type KernelLookup interface {
	HasKernel(hash [32]byte) (bool, error)
}

// RangeProofVerifier proves committed values non-negative. Its construction
// is outside this core; validators treat it as an oracle.
type RangeProofVerifier interface {
	VerifyRangeProof(commitment crypto.Commitment, proof []byte) bool
}

// PowVerifier checks a header's proof of work. Mining and difficulty rules
// live outside this core.
type PowVerifier interface {
	VerifyPow(header *BlockHeader) error
}
