package consensus

import (
	"sclchain.dev/core/script"
)

// Params holds the policy constants of the validation core. These are
// policy, not protocol-safety, parameters: networks may tune them, so they
// are configuration rather than hard-coded values.
type Params struct {
	// MaxScriptBytes caps serialized script length on outputs and inputs.
	// Must not exceed the decoder's hard cap.
	MaxScriptBytes int
	// MaxInputDataBytes caps an input's serialized execution stack.
	MaxInputDataBytes int
	// MaxRangeProofBytes caps a single range proof.
	MaxRangeProofBytes int

	// MaxTxWeight and MaxBlockWeight bound aggregate weight.
	MaxTxWeight    uint64
	MaxBlockWeight uint64

	// Weight function coefficients.
	WeightPerInput     uint64
	WeightPerOutput    uint64
	WeightPerKernel    uint64
	BytesPerWeightUnit uint64

	// CoinbaseMaturity is the minimum number of blocks a coinbase output
	// must wait before it may be spent.
	CoinbaseMaturity uint64
}

// DefaultParams returns the reference policy values.
func DefaultParams() Params {
	return Params{
		MaxScriptBytes:     1024,
		MaxInputDataBytes:  1024,
		MaxRangeProofBytes: 4096,
		MaxTxWeight:        10_000,
		MaxBlockWeight:     125_000,
		WeightPerInput:     8,
		WeightPerOutput:    13,
		WeightPerKernel:    17,
		BytesPerWeightUnit: 64,
		CoinbaseMaturity:   360,
	}
}

// Validate rejects inconsistent parameter sets.
func (p Params) Validate() error {
	if p.MaxScriptBytes <= 0 || p.MaxScriptBytes > script.MaxScriptBytes {
		return txerrf(BLOCK_ERR_CONFIG_INVALID, "MaxScriptBytes must be in (0, %d]", script.MaxScriptBytes)
	}
	if p.MaxInputDataBytes <= 0 {
		return txerr(BLOCK_ERR_CONFIG_INVALID, "MaxInputDataBytes must be positive")
	}
	if p.MaxRangeProofBytes <= 0 {
		return txerr(BLOCK_ERR_CONFIG_INVALID, "MaxRangeProofBytes must be positive")
	}
	if p.MaxTxWeight == 0 || p.MaxBlockWeight == 0 {
		return txerr(BLOCK_ERR_CONFIG_INVALID, "weight limits must be positive")
	}
	if p.MaxTxWeight > p.MaxBlockWeight {
		return txerr(BLOCK_ERR_CONFIG_INVALID, "MaxTxWeight exceeds MaxBlockWeight")
	}
	if p.BytesPerWeightUnit == 0 {
		return txerr(BLOCK_ERR_CONFIG_INVALID, "BytesPerWeightUnit must be positive")
	}
	return nil
}
