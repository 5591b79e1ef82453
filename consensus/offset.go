package consensus

import (
	"sclchain.dev/core/crypto"
)

// The script offset binds every input's script key and every non-coinbase
// output's sender-offset key into one scalar:
//
//	γ = Σ k_S(inputs) − Σ k_O(outputs)
//
// Only the constructing wallet knows both key families, so no third party
// can add, remove or substitute a record without breaking the identity
// γ·G == Σ K_S − Σ K_O. This is what makes cut-through detectable: eliding
// an intermediate hop removes its keys from the two sides asymmetrically.

// ComputeScriptOffset derives γ from the spender-side script secrets and
// the sender-offset secrets of the constructed outputs.
func ComputeScriptOffset(scriptSecrets, senderOffsetSecrets []crypto.Scalar) crypto.Scalar {
	var gamma crypto.Scalar
	for _, k := range scriptSecrets {
		gamma = gamma.Add(k)
	}
	for _, k := range senderOffsetSecrets {
		gamma = gamma.Sub(k)
	}
	return gamma
}

// VerifyScriptOffset checks γ·G == Σ K_S − Σ K_O over public keys only.
// The script public keys are the values resolved by executing each input's
// script; the sender-offset keys must exclude coinbase outputs.
func VerifyScriptOffset(gamma crypto.Scalar, scriptPublicKeys, senderOffsetPublicKeys []crypto.Point) error {
	var sum crypto.Point
	for _, k := range scriptPublicKeys {
		sum = sum.Add(k)
	}
	for _, k := range senderOffsetPublicKeys {
		sum = sum.Sub(k)
	}
	if crypto.BaseMul(gamma) != sum {
		return txerr(TX_ERR_OFFSET_INVALID, "script offset does not match key sums")
	}
	return nil
}

// senderOffsetKeys collects the sender-offset public keys of the body's
// outputs, excluding coinbase outputs, which have no spending counterpart
// and are exempt from the offset sum.
func senderOffsetKeys(body *AggregateBody) []crypto.Point {
	keys := make([]crypto.Point, 0, len(body.Outputs))
	for i := range body.Outputs {
		if body.Outputs[i].IsCoinbase() {
			continue
		}
		keys = append(keys, body.Outputs[i].SenderOffsetPublicKey)
	}
	return keys
}
