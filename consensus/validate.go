package consensus

import (
	"github.com/rs/zerolog"

	"sclchain.dev/core/crypto"
	"sclchain.dev/core/script"
)

// ValidationContext is the external state a transaction validation call
// reads: the evaluation height and the injected collaborator snapshots.
type ValidationContext struct {
	Height      uint64
	Utxos       UtxoLookup
	RangeProofs RangeProofVerifier
}

// TxValidator decides validity of a single transaction. It is pure: every
// check is a function of the transaction, the context height and the
// unspent-set snapshot. Logging is observational only.
type TxValidator struct {
	params Params
	log    zerolog.Logger
}

// NewTxValidator builds a validator with the given policy parameters.
// Pass zerolog.Nop() to disable logging.
func NewTxValidator(params Params, log zerolog.Logger) *TxValidator {
	return &TxValidator{params: params, log: log}
}

// Validate runs every transaction check. The result is tri-state: Valid,
// Rejected with a permanent reason, or Pending when only height-dependent
// conditions (script height guards, kernel lock heights, input maturity)
// are unmet.
func (v *TxValidator) Validate(tx *Transaction, ctx ValidationContext) Verdict {
	body := &tx.Body

	if err := v.checkSizes(body); err != nil {
		return v.reject(err)
	}
	if err := checkNoCoinbase(body); err != nil {
		return v.reject(err)
	}
	if err := body.CheckDuplicates(); err != nil {
		return v.reject(err)
	}
	if lock := body.maxKernelLockHeight(); lock > ctx.Height {
		return v.deferred(txerrf(TX_ERR_TIMELOCK_NOT_MET, "kernel lock height %d above %d", lock, ctx.Height))
	}
	if err := v.checkInputsUnspent(body, ctx); err != nil {
		if ErrCodeOf(err) == TX_ERR_TIMELOCK_NOT_MET {
			return v.deferred(err)
		}
		return v.reject(err)
	}
	if err := checkRangeProofs(body, ctx.RangeProofs); err != nil {
		return v.reject(err)
	}
	if err := checkMetadataSignatures(body); err != nil {
		return v.reject(err)
	}
	scriptKeys, err := runScripts(body, script.Context{BlockHeight: ctx.Height})
	if err != nil {
		if ErrCodeOf(err) == TX_ERR_SCRIPT_PENDING {
			return v.deferred(err)
		}
		return v.reject(err)
	}
	if err := VerifyScriptOffset(tx.ScriptOffset, scriptKeys, senderOffsetKeys(body)); err != nil {
		return v.reject(err)
	}
	if err := body.VerifyBurns(); err != nil {
		return v.reject(err)
	}
	for i := range body.Kernels {
		if err := body.Kernels[i].VerifySignature(); err != nil {
			return v.reject(err)
		}
	}
	if err := VerifyKernelSum(body, tx.Offset, 0); err != nil {
		return v.reject(err)
	}

	v.log.Debug().
		Int("inputs", len(body.Inputs)).
		Int("outputs", len(body.Outputs)).
		Int("kernels", len(body.Kernels)).
		Msg("transaction valid")
	return valid()
}

func (v *TxValidator) reject(err error) Verdict {
	v.log.Warn().Str("code", string(ErrCodeOf(err))).Err(err).Msg("transaction rejected")
	return rejected(err)
}

func (v *TxValidator) deferred(err error) Verdict {
	v.log.Debug().Str("code", string(ErrCodeOf(err))).Err(err).Msg("transaction pending")
	return pending(err)
}

// checkSizes enforces the policy resource bounds: per-record byte caps and
// the aggregate weight limit.
func (v *TxValidator) checkSizes(body *AggregateBody) error {
	if err := checkRecordSizes(body, v.params); err != nil {
		return err
	}
	if w := BodyWeight(body, v.params); w > v.params.MaxTxWeight {
		return txerrf(TX_ERR_WEIGHT_EXCEEDED, "weight %d exceeds maximum %d", w, v.params.MaxTxWeight)
	}
	return nil
}

func checkRecordSizes(body *AggregateBody, p Params) error {
	for i := range body.Inputs {
		if n := len(body.Inputs[i].Script.Bytes()); n > p.MaxScriptBytes {
			return txerrf(TX_ERR_SCRIPT_TOO_LARGE, "input script of %d bytes exceeds %d", n, p.MaxScriptBytes)
		}
		if n := len(body.Inputs[i].InputData.Bytes()); n > p.MaxInputDataBytes {
			return txerrf(TX_ERR_SCRIPT_TOO_LARGE, "input data of %d bytes exceeds %d", n, p.MaxInputDataBytes)
		}
	}
	for i := range body.Outputs {
		if n := len(body.Outputs[i].Script.Bytes()); n > p.MaxScriptBytes {
			return txerrf(TX_ERR_SCRIPT_TOO_LARGE, "output script of %d bytes exceeds %d", n, p.MaxScriptBytes)
		}
		if n := len(body.Outputs[i].RangeProof); n > p.MaxRangeProofBytes {
			return txerrf(TX_ERR_SCRIPT_TOO_LARGE, "range proof of %d bytes exceeds %d", n, p.MaxRangeProofBytes)
		}
	}
	return nil
}

// checkNoCoinbase rejects coinbase records outside block assembly.
func checkNoCoinbase(body *AggregateBody) error {
	for i := range body.Outputs {
		if body.Outputs[i].IsCoinbase() {
			return txerr(TX_ERR_COINBASE_FORBIDDEN, "coinbase output in a transaction")
		}
	}
	for i := range body.Kernels {
		if body.Kernels[i].IsCoinbase() {
			return txerr(TX_ERR_COINBASE_FORBIDDEN, "coinbase kernel in a transaction")
		}
	}
	return nil
}

// checkInputsUnspent confirms every input spends a known unspent output
// whose repeated fields match, and that the output has matured.
func (v *TxValidator) checkInputsUnspent(body *AggregateBody, ctx ValidationContext) error {
	for i := range body.Inputs {
		in := &body.Inputs[i]
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
		if rec.Output.Features.Maturity > ctx.Height {
			return txerrf(TX_ERR_TIMELOCK_NOT_MET, "output matures at %d, height is %d",
				rec.Output.Features.Maturity, ctx.Height)
		}
	}
	return nil
}

func checkRangeProofs(body *AggregateBody, verifier RangeProofVerifier) error {
	for i := range body.Outputs {
		out := &body.Outputs[i]
		if !verifier.VerifyRangeProof(out.Commitment, out.RangeProof) {
			return txerrf(TX_ERR_RANGE_PROOF_INVALID, "output %x", out.Commitment[:8])
		}
	}
	return nil
}

func checkMetadataSignatures(body *AggregateBody) error {
	for i := range body.Outputs {
		if err := body.Outputs[i].VerifyMetadataSignature(); err != nil {
			return err
		}
	}
	return nil
}

// runScripts executes every input's script at the context height, verifies
// the script signatures against the resolved keys, and returns the script
// public keys for the offset check.
func runScripts(body *AggregateBody, ctx script.Context) ([]crypto.Point, error) {
	keys := make([]crypto.Point, 0, len(body.Inputs))
	for i := range body.Inputs {
		ks, err := body.Inputs[i].RunAndVerifyScript(ctx)
		if err != nil {
			return nil, err
		}
		keys = append(keys, ks)
	}
	return keys, nil
}
