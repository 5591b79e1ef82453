package consensus

import (
	"testing"

	"github.com/rs/zerolog"

	"sclchain.dev/core/crypto"
	"sclchain.dev/core/script"
)

func newTestValidator(t *testing.T, params Params) *TxValidator {
	t.Helper()
	if err := params.Validate(); err != nil {
		t.Fatalf("params: %v", err)
	}
	return NewTxValidator(params, zerolog.Nop())
}

func buildSimpleTx(t *testing.T, spend SpendableOutput, outValue, fee uint64) *Transaction {
	t.Helper()
	tx, err := BuildTransaction([]SpendableOutput{spend}, []OutputSpec{standardSpec(t, outValue)}, fee, 0)
	if err != nil {
		t.Fatalf("BuildTransaction: %v", err)
	}
	return tx
}

func TestTransactionHappyPath(t *testing.T) {
	spend := makeSpendable(t, 1000)
	utxos := utxoMap{}
	utxos.add(spend.Output, 1)
	tx := buildSimpleTx(t, spend, 900, 100)

	v := newTestValidator(t, DefaultParams())
	verdict := v.Validate(tx, ValidationContext{Height: 10, Utxos: utxos, RangeProofs: passProofs{}})
	if !verdict.Valid() {
		t.Fatalf("verdict = %v (%v)", verdict.Status, verdict.Err)
	}
}

func TestTransactionForgedScriptKey(t *testing.T) {
	// The spent output's script is Nop; the spender's input data supplies
	// the script public key. An adversary swaps in their own key and signs
	// with it, but cannot open the commitment, so the script signature
	// cannot cover C + K_S.
	blinding := randScalar(t)
	scriptSecret := randScalar(t)
	out, err := BuildSignedOutputWithOffsetKey(500, blinding, OutputFeatures{},
		script.NewScript(script.Nop{}), nil, randScalar(t))
	if err != nil {
		t.Fatalf("build output: %v", err)
	}
	inputData, err := script.NewStack(script.PublicKey(scriptSecret.PublicKey()))
	if err != nil {
		t.Fatalf("stack: %v", err)
	}
	spend := SpendableOutput{Output: out, Value: 500, Blinding: blinding, ScriptSecret: scriptSecret, InputData: inputData}

	utxos := utxoMap{}
	utxos.add(out, 1)
	tx := buildSimpleTx(t, spend, 400, 100)

	// Forge: adversary key, adversary input data, signature over a guessed
	// (zero) blinding factor.
	adversary := randScalar(t)
	forgedData, err := script.NewStack(script.PublicKey(adversary.PublicKey()))
	if err != nil {
		t.Fatalf("stack: %v", err)
	}
	var zero crypto.Scalar
	forgedSig, err := SignInput(500, zero, adversary, tx.Body.Inputs[0].Script, forgedData, out.Commitment)
	if err != nil {
		t.Fatalf("forge sign: %v", err)
	}
	tx.Body.Inputs[0].InputData = forgedData
	tx.Body.Inputs[0].ScriptSignature = forgedSig

	v := newTestValidator(t, DefaultParams())
	verdict := v.Validate(tx, ValidationContext{Height: 10, Utxos: utxos, RangeProofs: passProofs{}})
	if verdict.Status != StatusRejected || verdict.Code != TX_ERR_SCRIPT_SIG_INVALID {
		t.Fatalf("verdict = %v code=%s, want rejected TX_ERR_SCRIPT_SIG_INVALID", verdict.Status, verdict.Code)
	}
}

func TestTransactionWeightLimit(t *testing.T) {
	spend := makeSpendable(t, 1000)
	utxos := utxoMap{}
	utxos.add(spend.Output, 1)
	tx := buildSimpleTx(t, spend, 900, 100)

	params := DefaultParams()
	params.MaxTxWeight = 1
	v := newTestValidator(t, params)
	verdict := v.Validate(tx, ValidationContext{Height: 10, Utxos: utxos, RangeProofs: passProofs{}})
	if verdict.Status != StatusRejected || verdict.Code != TX_ERR_WEIGHT_EXCEEDED {
		t.Fatalf("verdict = %v code=%s, want rejected TX_ERR_WEIGHT_EXCEEDED", verdict.Status, verdict.Code)
	}
}

func TestTransactionPendingStates(t *testing.T) {
	t.Run("script height guard", func(t *testing.T) {
		spend := makeSpendableWithScript(t, 1000, OutputFeatures{},
			[]script.Op{script.CheckHeightVerify{Height: 100}})
		utxos := utxoMap{}
		utxos.add(spend.Output, 1)
		tx := buildSimpleTx(t, spend, 900, 100)

		v := newTestValidator(t, DefaultParams())
		ctx := ValidationContext{Height: 50, Utxos: utxos, RangeProofs: passProofs{}}
		verdict := v.Validate(tx, ctx)
		if verdict.Status != StatusPending || verdict.Code != TX_ERR_SCRIPT_PENDING {
			t.Fatalf("verdict = %v code=%s, want pending TX_ERR_SCRIPT_PENDING", verdict.Status, verdict.Code)
		}

		// The same transaction becomes valid once the height is reached.
		ctx.Height = 100
		if verdict := v.Validate(tx, ctx); !verdict.Valid() {
			t.Fatalf("at maturity: %v (%v)", verdict.Status, verdict.Err)
		}
	})

	t.Run("input maturity", func(t *testing.T) {
		spend := makeSpendableWithScript(t, 1000, OutputFeatures{Maturity: 80}, nil)
		utxos := utxoMap{}
		utxos.add(spend.Output, 1)
		tx := buildSimpleTx(t, spend, 900, 100)

		v := newTestValidator(t, DefaultParams())
		verdict := v.Validate(tx, ValidationContext{Height: 50, Utxos: utxos, RangeProofs: passProofs{}})
		if verdict.Status != StatusPending || verdict.Code != TX_ERR_TIMELOCK_NOT_MET {
			t.Fatalf("verdict = %v code=%s, want pending TX_ERR_TIMELOCK_NOT_MET", verdict.Status, verdict.Code)
		}
	})

	t.Run("kernel lock height", func(t *testing.T) {
		spend := makeSpendable(t, 1000)
		utxos := utxoMap{}
		utxos.add(spend.Output, 1)
		tx, err := BuildTransaction([]SpendableOutput{spend}, []OutputSpec{standardSpec(t, 900)}, 100, 200)
		if err != nil {
			t.Fatalf("BuildTransaction: %v", err)
		}

		v := newTestValidator(t, DefaultParams())
		verdict := v.Validate(tx, ValidationContext{Height: 50, Utxos: utxos, RangeProofs: passProofs{}})
		if verdict.Status != StatusPending || verdict.Code != TX_ERR_TIMELOCK_NOT_MET {
			t.Fatalf("verdict = %v code=%s, want pending TX_ERR_TIMELOCK_NOT_MET", verdict.Status, verdict.Code)
		}
	})
}

func TestTransactionRejections(t *testing.T) {
	spend := makeSpendable(t, 1000)
	utxos := utxoMap{}
	utxos.add(spend.Output, 1)
	ctx := ValidationContext{Height: 10, Utxos: utxos, RangeProofs: passProofs{}}
	v := newTestValidator(t, DefaultParams())

	t.Run("missing utxo", func(t *testing.T) {
		tx := buildSimpleTx(t, spend, 900, 100)
		verdict := v.Validate(tx, ValidationContext{Height: 10, Utxos: utxoMap{}, RangeProofs: passProofs{}})
		if verdict.Code != TX_ERR_MISSING_UTXO {
			t.Fatalf("code = %s, want TX_ERR_MISSING_UTXO", verdict.Code)
		}
	})

	t.Run("duplicate input", func(t *testing.T) {
		tx := buildSimpleTx(t, spend, 900, 100)
		tx.Body.Inputs = append(tx.Body.Inputs, tx.Body.Inputs[0])
		verdict := v.Validate(tx, ctx)
		if verdict.Code != TX_ERR_DUPLICATE_INPUT {
			t.Fatalf("code = %s, want TX_ERR_DUPLICATE_INPUT", verdict.Code)
		}
	})

	t.Run("range proof", func(t *testing.T) {
		tx := buildSimpleTx(t, spend, 900, 100)
		verdict := v.Validate(tx, ValidationContext{Height: 10, Utxos: utxos, RangeProofs: failProofs{}})
		if verdict.Code != TX_ERR_RANGE_PROOF_INVALID {
			t.Fatalf("code = %s, want TX_ERR_RANGE_PROOF_INVALID", verdict.Code)
		}
	})

	t.Run("tampered features break metadata signature", func(t *testing.T) {
		tx := buildSimpleTx(t, spend, 900, 100)
		tx.Body.Outputs[0].Features.Maturity++
		verdict := v.Validate(tx, ctx)
		if verdict.Code != TX_ERR_METADATA_SIG_INVALID {
			t.Fatalf("code = %s, want TX_ERR_METADATA_SIG_INVALID", verdict.Code)
		}
	})

	t.Run("tampered kernel offset breaks balance", func(t *testing.T) {
		tx := buildSimpleTx(t, spend, 900, 100)
		tx.Offset = tx.Offset.Add(crypto.ScalarFromUint64(1))
		verdict := v.Validate(tx, ctx)
		if verdict.Code != TX_ERR_BALANCE_INVALID {
			t.Fatalf("code = %s, want TX_ERR_BALANCE_INVALID", verdict.Code)
		}
	})

	t.Run("tampered script offset", func(t *testing.T) {
		tx := buildSimpleTx(t, spend, 900, 100)
		tx.ScriptOffset = tx.ScriptOffset.Add(crypto.ScalarFromUint64(1))
		verdict := v.Validate(tx, ctx)
		if verdict.Code != TX_ERR_OFFSET_INVALID {
			t.Fatalf("code = %s, want TX_ERR_OFFSET_INVALID", verdict.Code)
		}
	})

	t.Run("coinbase output forbidden", func(t *testing.T) {
		tx := buildSimpleTx(t, spend, 900, 100)
		tx.Body.Outputs[0].Features.Type = OutputCoinbase
		verdict := v.Validate(tx, ctx)
		if verdict.Code != TX_ERR_COINBASE_FORBIDDEN {
			t.Fatalf("code = %s, want TX_ERR_COINBASE_FORBIDDEN", verdict.Code)
		}
	})
}

func TestTransactionAggregation(t *testing.T) {
	spendA := makeSpendable(t, 1000)
	spendB := makeSpendable(t, 2000)
	utxos := utxoMap{}
	utxos.add(spendA.Output, 1)
	utxos.add(spendB.Output, 1)

	txA := buildSimpleTx(t, spendA, 950, 50)
	txB := buildSimpleTx(t, spendB, 1900, 100)

	agg := txA.Add(txB)
	if len(agg.Body.Inputs) != 2 || len(agg.Body.Outputs) != 2 || len(agg.Body.Kernels) != 2 {
		t.Fatalf("aggregate shape %d/%d/%d", len(agg.Body.Inputs), len(agg.Body.Outputs), len(agg.Body.Kernels))
	}
	fees, err := agg.Fees()
	if err != nil || fees != 150 {
		t.Fatalf("fees = %d err=%v, want 150", fees, err)
	}

	v := newTestValidator(t, DefaultParams())
	verdict := v.Validate(agg, ValidationContext{Height: 10, Utxos: utxos, RangeProofs: passProofs{}})
	if !verdict.Valid() {
		t.Fatalf("aggregate rejected: %v (%v)", verdict.Code, verdict.Err)
	}
}

func TestBurnTransaction(t *testing.T) {
	spend := makeSpendable(t, 1000)
	utxos := utxoMap{}
	utxos.add(spend.Output, 1)

	burnSpec := OutputSpec{
		Value:    900,
		Blinding: randScalar(t),
		Features: OutputFeatures{Type: OutputBurn},
		Script:   script.Burn(),
	}
	tx, err := BuildTransaction([]SpendableOutput{spend}, []OutputSpec{burnSpec}, 100, 0)
	if err != nil {
		t.Fatalf("BuildTransaction: %v", err)
	}
	if !tx.Body.Kernels[0].IsBurn() || tx.Body.Kernels[0].BurnCommitment == nil {
		t.Fatal("builder did not produce a burn kernel")
	}

	v := newTestValidator(t, DefaultParams())
	ctx := ValidationContext{Height: 10, Utxos: utxos, RangeProofs: passProofs{}}
	if verdict := v.Validate(tx, ctx); !verdict.Valid() {
		t.Fatalf("burn tx rejected: %v (%v)", verdict.Code, verdict.Err)
	}

	// A burn kernel pointing at the wrong commitment must fail.
	wrong := crypto.CommitValue(900, randScalar(t))
	tx.Body.Kernels[0].BurnCommitment = &wrong
	verdict := v.Validate(tx, ctx)
	if verdict.Code != TX_ERR_BURN_MISMATCH {
		t.Fatalf("code = %s, want TX_ERR_BURN_MISMATCH", verdict.Code)
	}
}
