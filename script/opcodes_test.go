package script

import (
	"bytes"
	"testing"

	"sclchain.dev/core/crypto"
)

func sampleScript(t *testing.T) Script {
	t.Helper()
	k := mustRandScalar(t)
	var h, msg [32]byte
	h[0], msg[31] = 0xaa, 0x55
	return NewScript(
		CheckHeightVerify{Height: 16384},
		PushHash{Hash: h},
		PushInt{Value: -12345},
		PushPubKey{Key: k.PublicKey()},
		Dup{},
		HashBlake256{},
		Drop{},
		IfThen{}, PushOne{}, Else{}, PushZero{}, EndIf{},
		Or{N: 3},
		CheckSig{Message: msg},
		CheckMultiSigVerify{M: 2, Keys: []crypto.Point{k.PublicKey(), crypto.BaseMul(crypto.ScalarFromUint64(9))}, Message: msg},
		ToRistrettoPoint{},
	)
}

func TestScriptRoundTrip(t *testing.T) {
	s := sampleScript(t)
	raw := s.Bytes()
	parsed, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !bytes.Equal(parsed.Bytes(), raw) {
		t.Fatal("round trip changed serialization")
	}
	if parsed.Len() != s.Len() {
		t.Fatalf("parsed %d ops, want %d", parsed.Len(), s.Len())
	}
}

func TestParseRejections(t *testing.T) {
	k := crypto.ScalarFromUint64(3).PublicKey()
	tests := []struct {
		name string
		raw  []byte
		code ErrorCode
	}{
		{"oversized", make([]byte, MaxScriptBytes+1), SCRIPT_ERR_SCRIPT_TOO_LONG},
		{"unknown opcode", []byte{0x00}, SCRIPT_ERR_UNKNOWN_OPCODE},
		{"truncated push hash", []byte{opPushHash, 0x01, 0x02}, SCRIPT_ERR_TRUNCATED},
		{"truncated varint", []byte{opCheckHeight, 0x80}, SCRIPT_ERR_TRUNCATED},
		{"non-minimal varint", []byte{opCheckHeight, 0x80, 0x00}, SCRIPT_ERR_NON_MINIMAL_VARINT},
		{"or count zero", []byte{opOr, 0x00}, SCRIPT_ERR_VALUE_EXCEEDS_BOUNDS},
		{"multisig m over n", append([]byte{opCheckMultiSig, 3, 2}, make([]byte, 2*32+32)...), SCRIPT_ERR_MULTISIG_PARAMS},
		{"bad pubkey", append([]byte{opPushPubKey}, bytes.Repeat([]byte{0xff}, 32)...), SCRIPT_ERR_BAD_STACK_ITEM},
		{"good then garbage", append(NewScript(PushPubKey{Key: k}).Bytes(), 0x01), SCRIPT_ERR_UNKNOWN_OPCODE},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.raw)
			if CodeOf(err) != tc.code {
				t.Fatalf("err = %v, want %s", err, tc.code)
			}
		})
	}
}

func TestPatternMatch(t *testing.T) {
	k1 := crypto.ScalarFromUint64(1).PublicKey()
	k2 := crypto.ScalarFromUint64(2).PublicKey()

	a := NewScript(CheckHeightVerify{Height: 10}, PushPubKey{Key: k1})
	b := NewScript(CheckHeightVerify{Height: 99}, PushPubKey{Key: k2})
	if !a.PatternMatch(b) {
		t.Fatal("same opcode sequence with different operands must match")
	}
	c := NewScript(CheckHeight{Height: 10}, PushPubKey{Key: k1})
	if a.PatternMatch(c) {
		t.Fatal("different opcodes must not match")
	}
	if a.PatternMatch(NewScript(CheckHeightVerify{Height: 10})) {
		t.Fatal("different lengths must not match")
	}
}

func TestScriptString(t *testing.T) {
	s := NewScript(CheckHeightVerify{Height: 42}, PushZero{}, Return{})
	want := "CheckHeightVerify(42) PushZero Return"
	if got := s.String(); got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestStackRoundTrip(t *testing.T) {
	k := mustRandScalar(t)
	sig, err := crypto.Sign(k, []byte("m"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	st := mustStack(t,
		Number(-7),
		Hash{1, 2, 3},
		Scalar(k),
		Commitment(crypto.CommitValue(5, k)),
		PublicKey(k.PublicKey()),
		Signature(sig),
	)
	raw := st.Bytes()
	back, err := ParseStack(raw)
	if err != nil {
		t.Fatalf("parse stack: %v", err)
	}
	if !bytes.Equal(back.Bytes(), raw) {
		t.Fatal("stack round trip changed serialization")
	}
	if back.Size() != st.Size() {
		t.Fatalf("parsed %d items, want %d", back.Size(), st.Size())
	}
}

func TestStackLimits(t *testing.T) {
	items := make([]Item, MaxStackSize)
	for i := range items {
		items[i] = Number(i)
	}
	st := mustStack(t, items...)
	if err := st.Push(Number(0)); CodeOf(err) != SCRIPT_ERR_STACK_OVERFLOW {
		t.Fatalf("push over limit: %v", err)
	}
	if _, err := NewStack(append(items, Number(0))...); CodeOf(err) != SCRIPT_ERR_STACK_OVERFLOW {
		t.Fatalf("NewStack over limit: %v", err)
	}

	_, err := ParseStack([]byte{0x7f})
	if CodeOf(err) != SCRIPT_ERR_BAD_STACK_ITEM {
		t.Fatalf("unknown tag: %v", err)
	}
	_, err = ParseStack([]byte{tagHash, 0x01})
	if CodeOf(err) != SCRIPT_ERR_TRUNCATED {
		t.Fatalf("truncated item: %v", err)
	}
}

func FuzzParse(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte{opPushZero})
	f.Add(NewScript(CheckHeightVerify{Height: 500}, PushOne{}).Bytes())
	f.Fuzz(func(t *testing.T, data []byte) {
		s, err := Parse(data)
		if err != nil {
			return
		}
		// Anything that parses must re-serialize to the same bytes.
		if !bytes.Equal(s.Bytes(), data) {
			t.Fatalf("reserialization mismatch for %x", data)
		}
	})
}

func FuzzParseStack(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte{tagNumber, 1, 0, 0, 0, 0, 0, 0, 0})
	f.Fuzz(func(t *testing.T, data []byte) {
		st, err := ParseStack(data)
		if err != nil {
			return
		}
		if !bytes.Equal(st.Bytes(), data) {
			t.Fatalf("reserialization mismatch for %x", data)
		}
	})
}
