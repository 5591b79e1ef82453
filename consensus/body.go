package consensus

import (
	"bytes"
	"math"
	"sort"

	"sclchain.dev/core/crypto"
)

// AggregateBody is the input/output/kernel set of a transaction or of a
// whole block. Records are kept sorted so that aggregation is canonical.
type AggregateBody struct {
	Inputs  []TransactionInput
	Outputs []TransactionOutput
	Kernels []TransactionKernel
}

// Sort orders inputs and outputs by commitment and kernels by excess.
func (b *AggregateBody) Sort() {
	sort.Slice(b.Inputs, func(i, j int) bool {
		return bytes.Compare(b.Inputs[i].Commitment[:], b.Inputs[j].Commitment[:]) < 0
	})
	sort.Slice(b.Outputs, func(i, j int) bool {
		return bytes.Compare(b.Outputs[i].Commitment[:], b.Outputs[j].Commitment[:]) < 0
	})
	sort.Slice(b.Kernels, func(i, j int) bool {
		return bytes.Compare(b.Kernels[i].Excess[:], b.Kernels[j].Excess[:]) < 0
	})
}

// CheckDuplicates rejects repeated input commitments, output commitments
// and kernel hashes.
func (b *AggregateBody) CheckDuplicates() error {
	seen := make(map[crypto.Commitment]struct{}, len(b.Inputs))
	for i := range b.Inputs {
		c := b.Inputs[i].Commitment
		if _, dup := seen[c]; dup {
			return txerrf(TX_ERR_DUPLICATE_INPUT, "input commitment %x", c[:8])
		}
		seen[c] = struct{}{}
	}
	seen = make(map[crypto.Commitment]struct{}, len(b.Outputs))
	for i := range b.Outputs {
		c := b.Outputs[i].Commitment
		if _, dup := seen[c]; dup {
			return txerrf(TX_ERR_DUPLICATE_OUTPUT, "output commitment %x", c[:8])
		}
		seen[c] = struct{}{}
	}
	hashes := make(map[[32]byte]struct{}, len(b.Kernels))
	for i := range b.Kernels {
		h := b.Kernels[i].Hash()
		if _, dup := hashes[h]; dup {
			return txerrf(BLOCK_ERR_DUPLICATE_KERNEL, "kernel %x", h[:8])
		}
		hashes[h] = struct{}{}
	}
	return nil
}

// TotalFees sums kernel fees, rejecting overflow.
func (b *AggregateBody) TotalFees() (uint64, error) {
	var total uint64
	for i := range b.Kernels {
		fee := b.Kernels[i].Fee
		if total > math.MaxUint64-fee {
			return 0, txerr(TX_ERR_VALUE_OVERFLOW, "fee sum overflows")
		}
		total += fee
	}
	return total, nil
}

// VerifyKernelSum checks the Mimblewimble balance identity
//
//	ΣC_out + fees·H == ΣC_in + ΣExcess + offset·G + claimed·H
//
// where claimed is 0 for a plain transaction and reward+fees for a block
// whose coinbase mints reward plus the collected fees.
func VerifyKernelSum(body *AggregateBody, kernelOffset crypto.Scalar, claimed uint64) error {
	fees, err := body.TotalFees()
	if err != nil {
		return err
	}

	var zero crypto.Scalar
	lhs := crypto.CommitValue(fees, zero)
	for i := range body.Outputs {
		lhs = lhs.Add(body.Outputs[i].Commitment)
	}

	rhs := crypto.CommitValue(claimed, zero)
	for i := range body.Inputs {
		rhs = rhs.Add(body.Inputs[i].Commitment)
	}
	for i := range body.Kernels {
		rhs = rhs.Add(body.Kernels[i].Excess)
	}
	rhs = rhs.Add(crypto.Commitment(crypto.BaseMul(kernelOffset)))

	if lhs != rhs {
		return txerr(TX_ERR_BALANCE_INVALID, "commitments do not balance")
	}
	return nil
}

// VerifyBurns checks that the multiset of burned output commitments equals
// the multiset of burn-kernel commitments.
func (b *AggregateBody) VerifyBurns() error {
	var burnedOutputs, burnKernels []crypto.Commitment
	for i := range b.Outputs {
		if b.Outputs[i].IsBurn() {
			burnedOutputs = append(burnedOutputs, b.Outputs[i].Commitment)
		}
	}
	for i := range b.Kernels {
		if !b.Kernels[i].IsBurn() {
			continue
		}
		if b.Kernels[i].BurnCommitment == nil {
			return txerr(TX_ERR_BURN_MISMATCH, "burn kernel without burn commitment")
		}
		burnKernels = append(burnKernels, *b.Kernels[i].BurnCommitment)
	}
	if len(burnedOutputs) != len(burnKernels) {
		return txerrf(TX_ERR_BURN_MISMATCH, "%d burned outputs, %d burn kernels",
			len(burnedOutputs), len(burnKernels))
	}
	sortCommitments(burnedOutputs)
	sortCommitments(burnKernels)
	for i := range burnedOutputs {
		if burnedOutputs[i] != burnKernels[i] {
			return txerr(TX_ERR_BURN_MISMATCH, "burned outputs do not match burn kernels")
		}
	}
	return nil
}

func sortCommitments(cs []crypto.Commitment) {
	sort.Slice(cs, func(i, j int) bool { return bytes.Compare(cs[i][:], cs[j][:]) < 0 })
}

// maxKernelLockHeight returns the highest kernel lock height in the body.
func (b *AggregateBody) maxKernelLockHeight() uint64 {
	var max uint64
	for i := range b.Kernels {
		if b.Kernels[i].LockHeight > max {
			max = b.Kernels[i].LockHeight
		}
	}
	return max
}

// Bytes returns the canonical encoding: varint counts followed by records.
func (b *AggregateBody) Bytes() []byte {
	out := appendUvarint(nil, uint64(len(b.Inputs)))
	for i := range b.Inputs {
		out = append(out, b.Inputs[i].Bytes()...)
	}
	out = appendUvarint(out, uint64(len(b.Outputs)))
	for i := range b.Outputs {
		out = append(out, b.Outputs[i].Bytes()...)
	}
	out = appendUvarint(out, uint64(len(b.Kernels)))
	for i := range b.Kernels {
		out = append(out, b.Kernels[i].Bytes()...)
	}
	return out
}

// maxBodyRecords bounds decoded record counts before any weight check runs.
const maxBodyRecords = 1 << 16

func (d *decoder) readBody(p Params) (AggregateBody, error) {
	var b AggregateBody
	n, err := d.readUvarint()
	if err != nil {
		return b, err
	}
	if n > maxBodyRecords {
		return b, txerrf(TX_ERR_PARSE, "%d inputs exceeds decode cap", n)
	}
	for i := uint64(0); i < n; i++ {
		in, err := d.readInput(p)
		if err != nil {
			return b, err
		}
		b.Inputs = append(b.Inputs, in)
	}
	if n, err = d.readUvarint(); err != nil {
		return b, err
	}
	if n > maxBodyRecords {
		return b, txerrf(TX_ERR_PARSE, "%d outputs exceeds decode cap", n)
	}
	for i := uint64(0); i < n; i++ {
		out, err := d.readOutput(p)
		if err != nil {
			return b, err
		}
		b.Outputs = append(b.Outputs, out)
	}
	if n, err = d.readUvarint(); err != nil {
		return b, err
	}
	if n > maxBodyRecords {
		return b, txerrf(TX_ERR_PARSE, "%d kernels exceeds decode cap", n)
	}
	for i := uint64(0); i < n; i++ {
		k, err := d.readKernel()
		if err != nil {
			return b, err
		}
		b.Kernels = append(b.Kernels, k)
	}
	return b, nil
}
