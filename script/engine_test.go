package script

import (
	"errors"
	"testing"

	"sclchain.dev/core/crypto"
)

func mustStack(t *testing.T, items ...Item) *Stack {
	t.Helper()
	s, err := NewStack(items...)
	if err != nil {
		t.Fatalf("NewStack: %v", err)
	}
	return s
}

func mustRandScalar(t *testing.T) crypto.Scalar {
	t.Helper()
	s, err := crypto.RandomScalar()
	if err != nil {
		t.Fatalf("RandomScalar: %v", err)
	}
	return s
}

func TestDefaultScriptSucceedsOnEmptyInput(t *testing.T) {
	item, err := Default().Execute(mustStack(t), Context{})
	if err != nil {
		t.Fatalf("default script failed: %v", err)
	}
	if item != Number(0) {
		t.Fatalf("residual item = %v, want Number(0)", item)
	}
}

func TestExecutionIsDeterministic(t *testing.T) {
	k := mustRandScalar(t)
	s := NewScript(PushInt{Value: 5}, PushInt{Value: -5}, Add{}, Drop{}, PushPubKey{Key: k.PublicKey()})
	in := mustStack(t)
	ctx := Context{BlockHeight: 77}

	first, err1 := s.Execute(in, ctx)
	second, err2 := s.Execute(in, ctx)
	if !errors.Is(err1, err2) && (err1 != nil || err2 != nil) {
		t.Fatalf("errors differ: %v vs %v", err1, err2)
	}
	if first != second {
		t.Fatalf("results differ: %v vs %v", first, second)
	}
	if in.Size() != 0 {
		t.Fatalf("input stack was mutated, size %d", in.Size())
	}
}

func TestExecuteForPubKey(t *testing.T) {
	k := mustRandScalar(t)
	pk, err := NewScript(Nop{}).ExecuteForPubKey(mustStack(t, PublicKey(k.PublicKey())), Context{})
	if err != nil {
		t.Fatalf("ExecuteForPubKey: %v", err)
	}
	if pk != k.PublicKey() {
		t.Fatalf("wrong key resolved")
	}

	_, err = Default().ExecuteForPubKey(mustStack(t), Context{})
	if CodeOf(err) != SCRIPT_ERR_NOT_A_PUBLIC_KEY {
		t.Fatalf("err = %v, want SCRIPT_ERR_NOT_A_PUBLIC_KEY", err)
	}
}

func TestReturnAborts(t *testing.T) {
	_, err := Burn().Execute(mustStack(t, Number(1)), Context{})
	if CodeOf(err) != SCRIPT_ERR_RETURN {
		t.Fatalf("err = %v, want SCRIPT_ERR_RETURN", err)
	}
	if IsContextFailure(err) {
		t.Fatal("Return must be a deterministic failure")
	}
}

func TestFailureTaxonomy(t *testing.T) {
	// Height check below maturity is retryable.
	heightGuard := NewScript(CheckHeightVerify{Height: 100}, Nop{})
	_, err := heightGuard.Execute(mustStack(t, Number(1)), Context{BlockHeight: 50})
	if CodeOf(err) != SCRIPT_ERR_HEIGHT_NOT_REACHED {
		t.Fatalf("err = %v, want SCRIPT_ERR_HEIGHT_NOT_REACHED", err)
	}
	if !IsContextFailure(err) {
		t.Fatal("height failure must be a context failure")
	}

	// Same script at sufficient height passes.
	if _, err := heightGuard.Execute(mustStack(t, Number(1)), Context{BlockHeight: 100}); err != nil {
		t.Fatalf("height guard at maturity: %v", err)
	}

	// A type mismatch in the same shape of script is permanent.
	_, err = NewScript(GeZero{}).Execute(mustStack(t, Hash{}), Context{BlockHeight: 50})
	if CodeOf(err) != SCRIPT_ERR_TYPE_MISMATCH {
		t.Fatalf("err = %v, want SCRIPT_ERR_TYPE_MISMATCH", err)
	}
	if IsContextFailure(err) {
		t.Fatal("type mismatch must be a deterministic failure")
	}
}

func TestHeightOpcodes(t *testing.T) {
	tests := []struct {
		name   string
		script Script
		ctx    Context
		want   Item
	}{
		{"check height pending", NewScript(CheckHeight{Height: 120}), Context{BlockHeight: 100}, Number(20)},
		{"check height reached", NewScript(CheckHeight{Height: 120}), Context{BlockHeight: 500}, Number(0)},
		{"compare height pending", NewScript(PushInt{Value: 90}, CompareHeight{}), Context{BlockHeight: 60}, Number(30)},
		{"compare height negative target", NewScript(PushInt{Value: -4}, CompareHeight{}), Context{BlockHeight: 60}, Number(0)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			item, err := tc.script.Execute(mustStack(t), tc.ctx)
			if err != nil {
				t.Fatalf("execute: %v", err)
			}
			if item != tc.want {
				t.Fatalf("residual = %v, want %v", item, tc.want)
			}
		})
	}

	_, err := NewScript(PushInt{Value: 90}, CompareHeightVerify{}, PushOne{}).Execute(mustStack(t), Context{BlockHeight: 60})
	if !IsContextFailure(err) {
		t.Fatalf("err = %v, want context failure", err)
	}

	// Both comparison forms report a non-Number target with their own code,
	// deterministically.
	for _, op := range []Op{CompareHeight{}, CompareHeightVerify{}} {
		_, err := NewScript(PushHash{Hash: [32]byte{1}}, op).Execute(mustStack(t), Context{BlockHeight: 60})
		if CodeOf(err) != SCRIPT_ERR_STACK_HEIGHT_NOT_NUMBER {
			t.Fatalf("%T: err = %v, want SCRIPT_ERR_STACK_HEIGHT_NOT_NUMBER", op, err)
		}
		if IsContextFailure(err) {
			t.Fatalf("%T: non-number target must be a deterministic failure", op)
		}
	}
}

func TestStackOps(t *testing.T) {
	tests := []struct {
		name   string
		script Script
		in     []Item
		want   Item
		code   ErrorCode
	}{
		{"dup", NewScript(Dup{}, Drop{}), []Item{Number(9)}, Number(9), ""},
		{"drop underflow", NewScript(Drop{}), nil, nil, SCRIPT_ERR_STACK_UNDERFLOW},
		{"rev rot", NewScript(RevRot{}, Drop{}, Drop{}), []Item{Number(1), Number(2), Number(3)}, Number(3), ""},
		{"equal true", NewScript(Equal{}), []Item{Number(7), Number(7)}, Number(1), ""},
		{"equal cross type", NewScript(Equal{}), []Item{Number(0), Hash{}}, Number(0), ""},
		{"equal verify fail", NewScript(EqualVerify{}, PushOne{}), []Item{Number(1), Number(2)}, nil, SCRIPT_ERR_VERIFY_FAILED},
		{"add", NewScript(Add{}), []Item{Number(40), Number(2)}, Number(42), ""},
		{"sub", NewScript(Sub{}), []Item{Number(40), Number(2)}, Number(38), ""},
		{"add overflow", NewScript(Add{}), []Item{Number(1<<62 + (1<<62 - 1)), Number(1)}, nil, SCRIPT_ERR_ARITHMETIC_OVERFLOW},
		{"ge zero", NewScript(GeZero{}), []Item{Number(0)}, Number(1), ""},
		{"lt zero", NewScript(LtZero{}), []Item{Number(-1)}, Number(1), ""},
		{"or hit", NewScript(Or{N: 2}), []Item{Number(5), Number(6), Number(5)}, Number(1), ""},
		{"or miss", NewScript(Or{N: 2}), []Item{Number(5), Number(6), Number(7)}, Number(0), ""},
		{"or verify miss", NewScript(OrVerify{N: 1}, PushOne{}), []Item{Number(5), Number(7)}, nil, SCRIPT_ERR_VERIFY_FAILED},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			item, err := tc.script.Execute(mustStack(t, tc.in...), Context{})
			if tc.code != "" {
				if CodeOf(err) != tc.code {
					t.Fatalf("err = %v, want %s", err, tc.code)
				}
				return
			}
			if err != nil {
				t.Fatalf("execute: %v", err)
			}
			if item != tc.want {
				t.Fatalf("residual = %v, want %v", item, tc.want)
			}
		})
	}
}

func TestConditionals(t *testing.T) {
	branch := NewScript(IfThen{}, PushInt{Value: 10}, Else{}, PushInt{Value: 20}, EndIf{})

	item, err := branch.Execute(mustStack(t, Number(1)), Context{})
	if err != nil || item != Number(10) {
		t.Fatalf("then branch: item=%v err=%v", item, err)
	}
	item, err = branch.Execute(mustStack(t, Number(0)), Context{})
	if err != nil || item != Number(20) {
		t.Fatalf("else branch: item=%v err=%v", item, err)
	}

	_, err = branch.Execute(mustStack(t, Number(5)), Context{})
	if CodeOf(err) != SCRIPT_ERR_INVALID_CONDITION {
		t.Fatalf("bad condition: %v", err)
	}

	_, err = NewScript(IfThen{}, PushOne{}).Execute(mustStack(t, Number(1)), Context{})
	if CodeOf(err) != SCRIPT_ERR_UNBALANCED_CONDITIONAL {
		t.Fatalf("open if: %v", err)
	}
	_, err = NewScript(Else{}, PushOne{}).Execute(mustStack(t), Context{})
	if CodeOf(err) != SCRIPT_ERR_UNBALANCED_CONDITIONAL {
		t.Fatalf("stray else: %v", err)
	}

	// Nested branch where the outer condition disables the inner one. The
	// inner IfThen must not pop while skipped.
	nested := NewScript(
		IfThen{},
		IfThen{}, PushInt{Value: 1}, EndIf{},
		Else{},
		PushInt{Value: 3},
		EndIf{},
	)
	item, err = nested.Execute(mustStack(t, Number(0)), Context{})
	if err != nil || item != Number(3) {
		t.Fatalf("nested skip: item=%v err=%v", item, err)
	}
}

func TestResidualStackRule(t *testing.T) {
	// Two leftover items is a failure even though nothing aborted.
	_, err := NewScript(PushOne{}, PushOne{}).Execute(mustStack(t), Context{})
	if CodeOf(err) != SCRIPT_ERR_RESIDUAL_STACK {
		t.Fatalf("err = %v, want SCRIPT_ERR_RESIDUAL_STACK", err)
	}
	// So is an empty stack.
	_, err = NewScript(Nop{}).Execute(mustStack(t), Context{})
	if CodeOf(err) != SCRIPT_ERR_RESIDUAL_STACK {
		t.Fatalf("err = %v, want SCRIPT_ERR_RESIDUAL_STACK", err)
	}
}

func TestHashOpcodes(t *testing.T) {
	k := mustRandScalar(t)
	for _, op := range []Op{HashBlake256{}, HashSha256{}, HashSha3{}} {
		item, err := NewScript(op).Execute(mustStack(t, PublicKey(k.PublicKey())), Context{})
		if err != nil {
			t.Fatalf("%T: %v", op, err)
		}
		if _, ok := item.(Hash); !ok {
			t.Fatalf("%T residual is %T, want Hash", op, item)
		}
	}
	_, err := NewScript(HashSha256{}).Execute(mustStack(t, Number(1)), Context{})
	if CodeOf(err) != SCRIPT_ERR_TYPE_MISMATCH {
		t.Fatalf("hashing a number: %v", err)
	}
}

func TestToRistrettoPoint(t *testing.T) {
	k := mustRandScalar(t)
	item, err := NewScript(ToRistrettoPoint{}).Execute(mustStack(t, Scalar(k)), Context{})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if item != PublicKey(k.PublicKey()) {
		t.Fatal("wrong point derived")
	}

	var bad Hash
	for i := range bad {
		bad[i] = 0xff
	}
	_, err = NewScript(ToRistrettoPoint{}).Execute(mustStack(t, bad), Context{})
	if CodeOf(err) != SCRIPT_ERR_NON_CANONICAL_SCALAR {
		t.Fatalf("non-canonical hash: %v", err)
	}
}

func TestCheckSig(t *testing.T) {
	secret := mustRandScalar(t)
	var msg [32]byte
	copy(msg[:], []byte("script checksig message, 32 byte"))
	sig, err := crypto.Sign(secret, msg[:])
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	ok := NewScript(CheckSig{Message: msg})
	item, err := ok.Execute(mustStack(t, Signature(sig), PublicKey(secret.PublicKey())), Context{})
	if err != nil || item != Number(1) {
		t.Fatalf("valid sig: item=%v err=%v", item, err)
	}

	other := mustRandScalar(t)
	item, err = ok.Execute(mustStack(t, Signature(sig), PublicKey(other.PublicKey())), Context{})
	if err != nil || item != Number(0) {
		t.Fatalf("wrong key: item=%v err=%v", item, err)
	}

	_, err = NewScript(CheckSigVerify{Message: msg}, PushOne{}).
		Execute(mustStack(t, Signature(sig), PublicKey(other.PublicKey())), Context{})
	if CodeOf(err) != SCRIPT_ERR_VERIFY_FAILED {
		t.Fatalf("verify form: %v", err)
	}
}

func TestCheckMultiSig(t *testing.T) {
	var msg [32]byte
	copy(msg[:], []byte("multisig challenge message 32 by"))

	secrets := make([]crypto.Scalar, 3)
	keys := make([]crypto.Point, 3)
	for i := range secrets {
		secrets[i] = mustRandScalar(t)
		keys[i] = secrets[i].PublicKey()
	}
	sig0, err := crypto.Sign(secrets[0], msg[:])
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	sig2, err := crypto.Sign(secrets[2], msg[:])
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	twoOfThree := NewScript(CheckMultiSig{M: 2, Keys: keys, Message: msg})

	// Signatures pushed in key order: sig0 below sig2.
	item, err := twoOfThree.Execute(mustStack(t, Signature(sig0), Signature(sig2)), Context{})
	if err != nil || item != Number(1) {
		t.Fatalf("2-of-3: item=%v err=%v", item, err)
	}

	// Out of key order fails: keys are consumed left to right.
	item, err = twoOfThree.Execute(mustStack(t, Signature(sig2), Signature(sig0)), Context{})
	if err != nil || item != Number(0) {
		t.Fatalf("out of order: item=%v err=%v", item, err)
	}

	// Same signature twice must not satisfy two slots.
	item, err = twoOfThree.Execute(mustStack(t, Signature(sig0), Signature(sig0)), Context{})
	if err != nil || item != Number(0) {
		t.Fatalf("duplicate sig: item=%v err=%v", item, err)
	}

	agg := NewScript(CheckMultiSigVerifyAggregatePubKey{M: 2, Keys: keys, Message: msg})
	item, err = agg.Execute(mustStack(t, Signature(sig0), Signature(sig2)), Context{})
	if err != nil {
		t.Fatalf("aggregate form: %v", err)
	}
	if item != PublicKey(keys[0].Add(keys[2])) {
		t.Fatal("aggregate key is not the sum of the signer keys")
	}
}
