package consensus

import (
	"math"

	"sclchain.dev/core/crypto"
	"sclchain.dev/core/script"
)

// SpendableOutput is an output the builder can spend: the output itself and
// the secrets its owner holds.
type SpendableOutput struct {
	Output       TransactionOutput
	Value        uint64
	Blinding     crypto.Scalar
	ScriptSecret crypto.Scalar
	InputData    *script.Stack
}

// OutputSpec describes an output the builder should create.
type OutputSpec struct {
	Value      uint64
	Blinding   crypto.Scalar
	Features   OutputFeatures
	Script     script.Script
	RangeProof []byte
}

// BuildTransaction runs the sender-side construction protocol: it signs one
// input per spend, builds and metadata-signs the outputs, derives the
// script offset from the script and sender-offset secrets, blinds the
// kernel excess with a fresh kernel offset, and signs the kernel. Input
// values must equal output values plus the fee.
func BuildTransaction(spends []SpendableOutput, outs []OutputSpec, fee, lockHeight uint64) (*Transaction, error) {
	var inSum, outSum uint64
	for i := range spends {
		if inSum > math.MaxUint64-spends[i].Value {
			return nil, txerr(TX_ERR_VALUE_OVERFLOW, "input values overflow")
		}
		inSum += spends[i].Value
	}
	for i := range outs {
		if outSum > math.MaxUint64-outs[i].Value {
			return nil, txerr(TX_ERR_VALUE_OVERFLOW, "output values overflow")
		}
		outSum += outs[i].Value
	}
	if outSum > math.MaxUint64-fee || inSum != outSum+fee {
		return nil, txerrf(TX_ERR_BALANCE_INVALID, "inputs %d != outputs %d + fee %d", inSum, outSum, fee)
	}

	tx := &Transaction{}
	var excessSecret crypto.Scalar
	scriptSecrets := make([]crypto.Scalar, 0, len(spends))
	senderOffsetSecrets := make([]crypto.Scalar, 0, len(outs))

	for i := range spends {
		s := &spends[i]
		in, err := BuildSignedInput(&s.Output, s.Value, s.Blinding, s.ScriptSecret, s.InputData)
		if err != nil {
			return nil, err
		}
		tx.Body.Inputs = append(tx.Body.Inputs, in)
		scriptSecrets = append(scriptSecrets, s.ScriptSecret)
		excessSecret = excessSecret.Sub(s.Blinding)
	}

	var burn *crypto.Commitment
	for i := range outs {
		spec := &outs[i]
		if spec.Features.Type == OutputCoinbase {
			return nil, txerr(TX_ERR_COINBASE_FORBIDDEN, "coinbase outputs are built by block assembly")
		}
		out, offsetSecret, err := BuildSignedOutput(spec.Value, spec.Blinding, spec.Features, spec.Script, spec.RangeProof)
		if err != nil {
			return nil, err
		}
		if out.IsBurn() {
			if burn != nil {
				return nil, txerr(TX_ERR_BURN_MISMATCH, "builder supports one burn output per transaction")
			}
			c := out.Commitment
			burn = &c
		}
		tx.Body.Outputs = append(tx.Body.Outputs, out)
		senderOffsetSecrets = append(senderOffsetSecrets, offsetSecret)
		excessSecret = excessSecret.Add(spec.Blinding)
	}

	tx.ScriptOffset = ComputeScriptOffset(scriptSecrets, senderOffsetSecrets)

	// Kernel offset blinds the excess so the kernel cannot be linked back
	// to the transaction's commitments.
	kernelOffset, err := crypto.RandomScalar()
	if err != nil {
		return nil, err
	}
	tx.Offset = kernelOffset
	excessSecret = excessSecret.Sub(kernelOffset)

	features := KernelPlain
	if burn != nil {
		features = KernelBurn
	}
	kernel, err := SignKernel(excessSecret, features, fee, lockHeight, burn)
	if err != nil {
		return nil, err
	}
	tx.Body.Kernels = append(tx.Body.Kernels, kernel)
	tx.Body.Sort()
	return tx, nil
}
