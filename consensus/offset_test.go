package consensus

import (
	"testing"

	"sclchain.dev/core/crypto"
)

func TestScriptOffsetBalance(t *testing.T) {
	// Two inputs, two outputs with matching keypairs.
	scriptSecrets := []crypto.Scalar{randScalar(t), randScalar(t)}
	offsetSecrets := []crypto.Scalar{randScalar(t), randScalar(t)}

	gamma := ComputeScriptOffset(scriptSecrets, offsetSecrets)

	scriptKeys := []crypto.Point{scriptSecrets[0].PublicKey(), scriptSecrets[1].PublicKey()}
	offsetKeys := []crypto.Point{offsetSecrets[0].PublicKey(), offsetSecrets[1].PublicKey()}
	if err := VerifyScriptOffset(gamma, scriptKeys, offsetKeys); err != nil {
		t.Fatalf("honest offset rejected: %v", err)
	}

	// Any perturbation of gamma must fail.
	bad := gamma.Add(crypto.ScalarFromUint64(1))
	if err := VerifyScriptOffset(bad, scriptKeys, offsetKeys); ErrCodeOf(err) != TX_ERR_OFFSET_INVALID {
		t.Fatalf("perturbed offset: %v", err)
	}

	// Dropping a key from one side must fail.
	if err := VerifyScriptOffset(gamma, scriptKeys[:1], offsetKeys); ErrCodeOf(err) != TX_ERR_OFFSET_INVALID {
		t.Fatalf("missing script key: %v", err)
	}
}

func TestScriptOffsetBlocksCutThrough(t *testing.T) {
	// A pays B (tx1), B pays C (tx2). Eliding B's intermediate output down
	// to an A-to-C transfer requires offset gamma' = ksA - koC, which the
	// sum gamma1 + gamma2 equals only if B's script and offset secrets
	// coincide. Without B's keys no one can compute the difference.
	ksA, koB := randScalar(t), randScalar(t)
	ksB, koC := randScalar(t), randScalar(t)

	gamma1 := ComputeScriptOffset([]crypto.Scalar{ksA}, []crypto.Scalar{koB})
	gamma2 := ComputeScriptOffset([]crypto.Scalar{ksB}, []crypto.Scalar{koC})
	naive := gamma1.Add(gamma2)

	elidedScriptKeys := []crypto.Point{ksA.PublicKey()}
	elidedOffsetKeys := []crypto.Point{koC.PublicKey()}

	if err := VerifyScriptOffset(naive, elidedScriptKeys, elidedOffsetKeys); ErrCodeOf(err) != TX_ERR_OFFSET_INVALID {
		t.Fatalf("cut-through with summed offsets: %v", err)
	}

	// The offset that would make the elided transaction verify requires
	// knowing both remaining secrets.
	required := ComputeScriptOffset([]crypto.Scalar{ksA}, []crypto.Scalar{koC})
	if required == naive {
		t.Fatal("required offset coincides with naive sum; B's keys leaked into the identity")
	}
	if err := VerifyScriptOffset(required, elidedScriptKeys, elidedOffsetKeys); err != nil {
		t.Fatalf("honest recomputed offset rejected: %v", err)
	}
}
