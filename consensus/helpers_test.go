package consensus

import (
	"testing"

	"sclchain.dev/core/crypto"
	"sclchain.dev/core/script"
)

func randScalar(t testing.TB) crypto.Scalar {
	t.Helper()
	s, err := crypto.RandomScalar()
	if err != nil {
		t.Fatalf("RandomScalar: %v", err)
	}
	return s
}

func emptyStack(t testing.TB) *script.Stack {
	t.Helper()
	s, err := script.NewStack()
	if err != nil {
		t.Fatalf("NewStack: %v", err)
	}
	return s
}

// utxoMap is an in-memory UtxoLookup for tests.
type utxoMap map[crypto.Commitment]*OutputRecord

func (m utxoMap) Lookup(c crypto.Commitment) (*OutputRecord, error) {
	return m[c], nil
}

func (m utxoMap) add(out TransactionOutput, height uint64) {
	m[out.Commitment] = &OutputRecord{Output: out, MinedHeight: height}
}

// passProofs accepts every range proof.
type passProofs struct{}

func (passProofs) VerifyRangeProof(crypto.Commitment, []byte) bool { return true }

// failProofs rejects every range proof.
type failProofs struct{}

func (failProofs) VerifyRangeProof(crypto.Commitment, []byte) bool { return false }

// noKernels is a chain with no kernels yet.
type noKernels struct{}

func (noKernels) HasKernel([32]byte) (bool, error) { return false, nil }

// makeSpendable builds a signed output with a push-pubkey script and the
// secrets needed to spend it with empty input data.
func makeSpendable(t testing.TB, value uint64) SpendableOutput {
	t.Helper()
	return makeSpendableWithScript(t, value, OutputFeatures{}, nil)
}

// makeSpendableWithScript prefixes the push-pubkey script with guard
// opcodes, e.g. a height check.
func makeSpendableWithScript(t testing.TB, value uint64, feats OutputFeatures, guard []script.Op) SpendableOutput {
	t.Helper()
	blinding := randScalar(t)
	scriptSecret := randScalar(t)
	ops := append(append([]script.Op{}, guard...), script.PushPubKey{Key: scriptSecret.PublicKey()})
	out, err := BuildSignedOutputWithOffsetKey(value, blinding, feats, script.NewScript(ops...), nil, randScalar(t))
	if err != nil {
		t.Fatalf("BuildSignedOutputWithOffsetKey: %v", err)
	}
	return SpendableOutput{
		Output:       out,
		Value:        value,
		Blinding:     blinding,
		ScriptSecret: scriptSecret,
		InputData:    emptyStack(t),
	}
}

func standardSpec(t testing.TB, value uint64) OutputSpec {
	t.Helper()
	return OutputSpec{Value: value, Blinding: randScalar(t), Script: script.Default()}
}
