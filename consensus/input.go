package consensus

import (
	"sclchain.dev/core/crypto"
	"sclchain.dev/core/script"
)

const scriptSigDomain = "sclchain.dev/core/consensus: input script signature"

// TransactionInput spends a prior output. Features, commitment, script and
// sender-offset key repeat the spent output's fields; input data and the
// script signature are supplied by the spender.
type TransactionInput struct {
	Features              OutputFeatures
	Commitment            crypto.Commitment
	Script                script.Script
	InputData             *script.Stack
	ScriptSignature       crypto.CommitmentSignature
	SenderOffsetPublicKey crypto.Point
}

// BuildScriptChallenge computes the script-signature challenge
// e = H(R ‖ script ‖ input_data ‖ K_S ‖ C).
func BuildScriptChallenge(nonce crypto.Point, scr script.Script, inputData *script.Stack,
	scriptPublicKey crypto.Point, c crypto.Commitment) crypto.Scalar {
	return crypto.HashToScalar(scriptSigDomain,
		nonce[:],
		appendByteSeq(nil, scr.Bytes()),
		appendByteSeq(nil, inputData.Bytes()),
		scriptPublicKey[:],
		c.Bytes(),
	)
}

// SignInput produces the spender's script signature over the spent
// commitment's opening (value, blinding) and the script secret key.
func SignInput(value uint64, blinding, scriptSecret crypto.Scalar, scr script.Script,
	inputData *script.Stack, c crypto.Commitment) (crypto.CommitmentSignature, error) {

	nonceA, err := crypto.RandomScalar()
	if err != nil {
		return crypto.CommitmentSignature{}, err
	}
	nonceB, err := crypto.RandomScalar()
	if err != nil {
		return crypto.CommitmentSignature{}, err
	}
	nonce := crypto.NonceCommitment(nonceA, nonceB)
	e := BuildScriptChallenge(nonce, scr, inputData, scriptSecret.PublicKey(), c)
	// b covers k_S + k so the signature verifies against C + K_S.
	return crypto.SignCommitment(crypto.ScalarFromUint64(value), scriptSecret.Add(blinding),
		nonceA, nonceB, e), nil
}

// RunScript executes the input's script against its input data, returning
// the script public key K_S.
func (in *TransactionInput) RunScript(ctx script.Context) (crypto.Point, error) {
	return in.Script.ExecuteForPubKey(in.InputData, ctx)
}

// VerifyScriptSignature checks the script signature against C + K_S for the
// given script public key.
func (in *TransactionInput) VerifyScriptSignature(scriptPublicKey crypto.Point) error {
	e := BuildScriptChallenge(in.ScriptSignature.PublicNonce, in.Script, in.InputData,
		scriptPublicKey, in.Commitment)
	target := in.Commitment.AsPoint().Add(scriptPublicKey)
	if !in.ScriptSignature.VerifyPoint(target, e) {
		return txerr(TX_ERR_SCRIPT_SIG_INVALID, "script signature does not verify")
	}
	return nil
}

// RunAndVerifyScript executes the script and, on success, checks the script
// signature against the resolved key. Returns the script public key for the
// offset accumulator.
func (in *TransactionInput) RunAndVerifyScript(ctx script.Context) (crypto.Point, error) {
	ks, err := in.RunScript(ctx)
	if err != nil {
		if script.IsContextFailure(err) {
			return crypto.Point{}, txerrf(TX_ERR_SCRIPT_PENDING, "%v", err)
		}
		return crypto.Point{}, txerrf(TX_ERR_SCRIPT_FAILURE, "%v", err)
	}
	if err := in.VerifyScriptSignature(ks); err != nil {
		return crypto.Point{}, err
	}
	return ks, nil
}

// SpendsOutput reports whether the input's repeated fields match the output
// record it claims to spend.
func (in *TransactionInput) SpendsOutput(out *TransactionOutput) bool {
	return in.Features == out.Features &&
		in.Commitment == out.Commitment &&
		in.SenderOffsetPublicKey == out.SenderOffsetPublicKey &&
		string(in.Script.Bytes()) == string(out.Script.Bytes())
}

// Bytes returns the canonical encoding.
func (in *TransactionInput) Bytes() []byte {
	out := in.Features.Bytes()
	out = append(out, in.Commitment.Bytes()...)
	out = appendByteSeq(out, in.Script.Bytes())
	out = appendByteSeq(out, in.InputData.Bytes())
	out = append(out, in.ScriptSignature.Bytes()...)
	out = append(out, in.SenderOffsetPublicKey[:]...)
	return out
}

func (d *decoder) readInput(p Params) (TransactionInput, error) {
	var in TransactionInput
	var err error
	if in.Features, err = d.readFeatures(); err != nil {
		return in, err
	}
	cb, err := d.readBytes(crypto.PointBytes)
	if err != nil {
		return in, err
	}
	if in.Commitment, err = crypto.CommitmentFromBytes(cb); err != nil {
		return in, txerrf(TX_ERR_PARSE, "input commitment: %v", err)
	}
	scriptBytes, err := d.readByteSeq(p.MaxScriptBytes)
	if err != nil {
		return in, err
	}
	if in.Script, err = script.Parse(scriptBytes); err != nil {
		return in, txerrf(TX_ERR_PARSE, "input script: %v", err)
	}
	stackBytes, err := d.readByteSeq(p.MaxInputDataBytes)
	if err != nil {
		return in, err
	}
	if in.InputData, err = script.ParseStack(stackBytes); err != nil {
		return in, txerrf(TX_ERR_PARSE, "input data: %v", err)
	}
	sb, err := d.readBytes(crypto.CommitmentSignatureBytes)
	if err != nil {
		return in, err
	}
	if in.ScriptSignature, err = crypto.CommitmentSignatureFromBytes(sb); err != nil {
		return in, txerrf(TX_ERR_PARSE, "script signature: %v", err)
	}
	kb, err := d.readBytes(crypto.PointBytes)
	if err != nil {
		return in, err
	}
	if in.SenderOffsetPublicKey, err = crypto.PointFromBytes(kb); err != nil {
		return in, txerrf(TX_ERR_PARSE, "sender offset key: %v", err)
	}
	return in, nil
}

// BuildSignedInput constructs a spending input for the given output,
// producing the script signature from the opening and the script secret.
func BuildSignedInput(out *TransactionOutput, value uint64, blinding, scriptSecret crypto.Scalar,
	inputData *script.Stack) (TransactionInput, error) {

	sig, err := SignInput(value, blinding, scriptSecret, out.Script, inputData, out.Commitment)
	if err != nil {
		return TransactionInput{}, err
	}
	return TransactionInput{
		Features:              out.Features,
		Commitment:            out.Commitment,
		Script:                out.Script,
		InputData:             inputData,
		ScriptSignature:       sig,
		SenderOffsetPublicKey: out.SenderOffsetPublicKey,
	}, nil
}
