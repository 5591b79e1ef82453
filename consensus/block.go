package consensus

import (
	"math"

	"github.com/rs/zerolog"

	"sclchain.dev/core/crypto"
	"sclchain.dev/core/script"
)

// Block is a header plus the aggregated body of all its transactions and
// the coinbase.
type Block struct {
	Header BlockHeader
	Body   AggregateBody
}

// Bytes returns the canonical encoding: header then body.
func (b *Block) Bytes() []byte {
	out := b.Header.Bytes()
	return append(out, b.Body.Bytes()...)
}

// ParseBlock decodes a canonical block encoding.
func ParseBlock(raw []byte, p Params) (*Block, error) {
	d := newDecoder(raw)
	var b Block
	var err error
	if b.Header, err = d.readHeader(); err != nil {
		return nil, err
	}
	if b.Body, err = d.readBody(p); err != nil {
		return nil, err
	}
	if err := d.finish(); err != nil {
		return nil, err
	}
	return &b, nil
}

// BuildCoinbase constructs the block-reward output and kernel for the given
// total value (subsidy plus fees). The output matures CoinbaseMaturity
// blocks after the block height and is excluded from the script offset.
func BuildCoinbase(value uint64, blinding crypto.Scalar, height uint64, p Params) (TransactionOutput, TransactionKernel, error) {
	feats := OutputFeatures{Type: OutputCoinbase, Maturity: height + p.CoinbaseMaturity}
	out, err := BuildSignedOutputWithOffsetKey(value, blinding, feats, script.Default(), nil, blinding)
	if err != nil {
		return TransactionOutput{}, TransactionKernel{}, err
	}
	kernel, err := SignKernel(blinding, KernelCoinbase, 0, 0, nil)
	if err != nil {
		return TransactionOutput{}, TransactionKernel{}, err
	}
	return out, kernel, nil
}

// AssembleBlock aggregates transactions and a coinbase into a block,
// summing the kernel and script offsets into the header. Merkle roots and
// proof of work are filled in by the mining layer.
func AssembleBlock(height uint64, prevHash [32]byte, timestamp uint64, txs []*Transaction,
	coinbaseOut TransactionOutput, coinbaseKernel TransactionKernel) *Block {

	var body AggregateBody
	var kernelOffset, scriptOffset crypto.Scalar
	for _, tx := range txs {
		kernelOffset = kernelOffset.Add(tx.Offset)
		scriptOffset = scriptOffset.Add(tx.ScriptOffset)
		body.Inputs = append(body.Inputs, tx.Body.Inputs...)
		body.Outputs = append(body.Outputs, tx.Body.Outputs...)
		body.Kernels = append(body.Kernels, tx.Body.Kernels...)
	}
	body.Outputs = append(body.Outputs, coinbaseOut)
	body.Kernels = append(body.Kernels, coinbaseKernel)
	body.Sort()

	return &Block{
		Header: BlockHeader{
			Version:           CurrentHeaderVersion,
			Height:            height,
			PrevHash:          prevHash,
			Timestamp:         timestamp,
			InputSize:         uint64(len(body.Inputs)),
			OutputSize:        uint64(len(body.Outputs)),
			KernelSize:        uint64(len(body.Kernels)),
			TotalKernelOffset: kernelOffset,
			TotalScriptOffset: scriptOffset,
		},
		Body: body,
	}
}

// BlockContext carries the collaborators of a block validation call. Pow
// and Kernels may be nil when the caller has no chain context (e.g. inspect
// tooling); those checks are then skipped.
type BlockContext struct {
	Utxos       UtxoLookup
	Kernels     KernelLookup
	RangeProofs RangeProofVerifier
	Pow         PowVerifier
	// Reward is the block subsidy at this height, excluding fees.
	Reward uint64
}

// BlockValidator decides validity of a whole block. Unlike transaction
// validation the context height is fixed at the header height, so every
// failure, including height-dependent script failures, is a hard reject.
type BlockValidator struct {
	params Params
	log    zerolog.Logger
}

// NewBlockValidator builds a validator with the given policy parameters.
func NewBlockValidator(params Params, log zerolog.Logger) *BlockValidator {
	return &BlockValidator{params: params, log: log}
}

// Validate runs every block check. The verdict is never Pending.
func (v *BlockValidator) Validate(b *Block, ctx BlockContext) Verdict {
	if err := v.checkHeader(b, ctx); err != nil {
		return v.reject(err)
	}
	if err := checkRecordSizes(&b.Body, v.params); err != nil {
		return v.reject(err)
	}
	if w := BodyWeight(&b.Body, v.params); w > v.params.MaxBlockWeight {
		return v.reject(txerrf(BLOCK_ERR_WEIGHT_EXCEEDED, "weight %d exceeds maximum %d", w, v.params.MaxBlockWeight))
	}
	if err := b.Body.CheckDuplicates(); err != nil {
		return v.reject(err)
	}
	if err := v.checkKernels(b, ctx); err != nil {
		return v.reject(err)
	}
	if err := v.checkCoinbase(b); err != nil {
		return v.reject(err)
	}
	if err := v.checkInputs(b, ctx); err != nil {
		return v.reject(err)
	}
	if err := checkRangeProofs(&b.Body, ctx.RangeProofs); err != nil {
		return v.reject(err)
	}
	if err := checkMetadataSignatures(&b.Body); err != nil {
		return v.reject(err)
	}

	scriptKeys, err := runScripts(&b.Body, script.Context{BlockHeight: b.Header.Height})
	if err != nil {
		// Height-dependent failures are final here: the evaluation height
		// is the block's own height.
		return v.reject(err)
	}
	if err := VerifyScriptOffset(b.Header.TotalScriptOffset, scriptKeys, senderOffsetKeys(&b.Body)); err != nil {
		return v.reject(txerrf(BLOCK_ERR_OFFSET_MISMATCH, "%v", err))
	}
	if err := b.Body.VerifyBurns(); err != nil {
		return v.reject(err)
	}

	fees, err := b.Body.TotalFees()
	if err != nil {
		return v.reject(err)
	}
	if ctx.Reward > math.MaxUint64-fees {
		return v.reject(txerr(TX_ERR_VALUE_OVERFLOW, "reward plus fees overflows"))
	}
	if err := VerifyKernelSum(&b.Body, b.Header.TotalKernelOffset, ctx.Reward+fees); err != nil {
		return v.reject(err)
	}

	v.log.Debug().
		Uint64("height", b.Header.Height).
		Int("inputs", len(b.Body.Inputs)).
		Int("outputs", len(b.Body.Outputs)).
		Int("kernels", len(b.Body.Kernels)).
		Msg("block valid")
	return valid()
}

func (v *BlockValidator) reject(err error) Verdict {
	v.log.Warn().Str("code", string(ErrCodeOf(err))).Err(err).Msg("block rejected")
	return rejected(err)
}

func (v *BlockValidator) checkHeader(b *Block, ctx BlockContext) error {
	h := &b.Header
	if h.Version != CurrentHeaderVersion {
		return txerrf(BLOCK_ERR_HEADER_INVALID, "unsupported header version %d", h.Version)
	}
	if h.InputSize != uint64(len(b.Body.Inputs)) ||
		h.OutputSize != uint64(len(b.Body.Outputs)) ||
		h.KernelSize != uint64(len(b.Body.Kernels)) {
		return txerr(BLOCK_ERR_HEADER_INVALID, "header sizes do not match body")
	}
	if ctx.Pow != nil {
		if err := ctx.Pow.VerifyPow(h); err != nil {
			return txerrf(BLOCK_ERR_POW_INVALID, "%v", err)
		}
	}
	return nil
}

// checkKernels verifies every excess signature, kernel lock heights against
// the block height, and chain-wide kernel uniqueness.
func (v *BlockValidator) checkKernels(b *Block, ctx BlockContext) error {
	for i := range b.Body.Kernels {
		k := &b.Body.Kernels[i]
		if err := k.VerifySignature(); err != nil {
			return err
		}
		if k.LockHeight > b.Header.Height {
			return txerrf(TX_ERR_TIMELOCK_NOT_MET, "kernel lock height %d above block height %d",
				k.LockHeight, b.Header.Height)
		}
		if ctx.Kernels != nil {
			h := k.Hash()
			exists, err := ctx.Kernels.HasKernel(h)
			if err != nil {
				return txerrf(BLOCK_ERR_UTXO_LOOKUP, "kernel lookup: %v", err)
			}
			if exists {
				return txerrf(BLOCK_ERR_DUPLICATE_KERNEL, "kernel %x already on chain", h[:8])
			}
		}
	}
	return nil
}

// checkCoinbase enforces exactly one coinbase output and kernel, a zero-fee
// coinbase kernel, and the enforced maturity window.
func (v *BlockValidator) checkCoinbase(b *Block) error {
	var outs, kernels int
	for i := range b.Body.Outputs {
		o := &b.Body.Outputs[i]
		if !o.IsCoinbase() {
			continue
		}
		outs++
		if want := b.Header.Height + v.params.CoinbaseMaturity; o.Features.Maturity < want {
			return txerrf(BLOCK_ERR_COINBASE_INVALID, "coinbase maturity %d below %d", o.Features.Maturity, want)
		}
	}
	for i := range b.Body.Kernels {
		k := &b.Body.Kernels[i]
		if !k.IsCoinbase() {
			continue
		}
		kernels++
		if k.Fee != 0 {
			return txerr(BLOCK_ERR_COINBASE_INVALID, "coinbase kernel carries a fee")
		}
	}
	if outs != 1 || kernels != 1 {
		return txerrf(BLOCK_ERR_COINBASE_INVALID, "%d coinbase outputs, %d coinbase kernels", outs, kernels)
	}
	return nil
}

// checkInputs confirms inputs spend known unspent, matured outputs.
func (v *BlockValidator) checkInputs(b *Block, ctx BlockContext) error {
	for i := range b.Body.Inputs {
		in := &b.Body.Inputs[i]
		rec, err := ctx.Utxos.Lookup(in.Commitment)
		if err != nil {
			return txerrf(BLOCK_ERR_UTXO_LOOKUP, "%v", err)
		}
		if rec == nil {
			return txerrf(TX_ERR_MISSING_UTXO, "commitment %x", in.Commitment[:8])
		}
		if !in.SpendsOutput(&rec.Output) {
			return txerrf(TX_ERR_INPUT_MISMATCH, "input fields do not match unspent output %x", in.Commitment[:8])
		}
		if rec.Output.Features.Maturity > b.Header.Height {
			return txerrf(TX_ERR_TIMELOCK_NOT_MET, "output matures at %d, block height is %d",
				rec.Output.Features.Maturity, b.Header.Height)
		}
	}
	return nil
}
