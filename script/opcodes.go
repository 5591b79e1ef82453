// Package script implements the bounded stack-machine spending-condition
// language attached to ledger outputs. A script is a finite opcode sequence
// with no jumps or loops, executed against spender-supplied input data at a
// given chain height. A successful run leaves exactly one residual stack
// item; spending paths additionally require it to be a public key, which
// becomes the key the input's script signature is checked against.
package script

import (
	"encoding/binary"
	"fmt"
	"strings"

	"sclchain.dev/core/crypto"
)

const (
	// MaxScriptBytes is the hard decode cap on serialized script length.
	// Policy layers typically enforce a tighter limit.
	MaxScriptBytes = 4096

	// MaxMultisigKeys caps the key count of the CheckMultiSig family.
	MaxMultisigKeys = 32
)

// Opcode byte values. The gaps are reserved.
const (
	opReturn              byte = 0x60
	opIfThen              byte = 0x61
	opElse                byte = 0x62
	opEndIf               byte = 0x63
	opOrVerify            byte = 0x64
	opOr                  byte = 0x65
	opCheckHeightVerify   byte = 0x66
	opCheckHeight         byte = 0x67
	opCompareHeightVerify byte = 0x68
	opCompareHeight       byte = 0x69

	opDrop       byte = 0x70
	opDup        byte = 0x71
	opRevRot     byte = 0x72
	opNop        byte = 0x73
	opPushHash   byte = 0x7a
	opPushZero   byte = 0x7b
	opPushOne    byte = 0x7c
	opPushInt    byte = 0x7d
	opPushPubKey byte = 0x7e

	opEqual       byte = 0x80
	opEqualVerify byte = 0x81
	opGeZero      byte = 0x82
	opGtZero      byte = 0x83
	opLeZero      byte = 0x84
	opLtZero      byte = 0x85
	opAdd         byte = 0x93
	opSub         byte = 0x94

	opCheckSig                         byte = 0xac
	opCheckSigVerify                   byte = 0xad
	opCheckMultiSig                    byte = 0xae
	opCheckMultiSigVerify              byte = 0xaf
	opHashBlake256                     byte = 0xb0
	opHashSha256                       byte = 0xb1
	opHashSha3                         byte = 0xb2
	opToRistrettoPoint                 byte = 0xb3
	opCheckMultiSigVerifyAggregatePubK byte = 0xb4
)

// Op is a single script instruction. The variant set is closed; the engine
// dispatches on the concrete type.
type Op interface {
	// Code returns the opcode byte.
	Code() byte
	appendBytes(dst []byte) []byte
}

// Return unconditionally aborts the script. Used to build provably
// unspendable burn outputs.
type Return struct{}

// IfThen pops a Number condition: 1 executes the then-branch, 0 the
// else-branch (if present). Any other item aborts.
type IfThen struct{}

// Else separates the branches of the innermost IfThen.
type Else struct{}

// EndIf closes the innermost IfThen.
type EndIf struct{}

// Or pops N+1 items and pushes Number 1 if the first popped item equals at
// least one of the remaining N, else Number 0.
type Or struct{ N uint8 }

// OrVerify is Or that aborts instead of pushing 0.
type OrVerify struct{ N uint8 }

// CheckHeightVerify aborts with a context failure while the chain height is
// below Height.
type CheckHeightVerify struct{ Height uint64 }

// CheckHeight pushes the number of blocks remaining until Height, clamped
// at zero once the height is reached.
type CheckHeight struct{ Height uint64 }

// CompareHeightVerify pops a Number target height and aborts with a context
// failure while the chain height is below it.
type CompareHeightVerify struct{}

// CompareHeight pops a Number target height and pushes the clamped number
// of blocks remaining until it.
type CompareHeight struct{}

// Drop discards the top stack item.
type Drop struct{}

// Dup duplicates the top stack item.
type Dup struct{}

// RevRot moves the top stack item below the next two: [.. x y z] becomes
// [.. z x y].
type RevRot struct{}

// Nop does nothing.
type Nop struct{}

// PushHash pushes a 32-byte hash literal.
type PushHash struct{ Hash [32]byte }

// PushZero pushes Number 0.
type PushZero struct{}

// PushOne pushes Number 1.
type PushOne struct{}

// PushInt pushes a signed integer literal.
type PushInt struct{ Value int64 }

// PushPubKey pushes a public-key literal.
type PushPubKey struct{ Key crypto.Point }

// Equal pops two items and pushes Number 1 if they are equal in type and
// value, else Number 0.
type Equal struct{}

// EqualVerify is Equal that aborts instead of pushing 0.
type EqualVerify struct{}

// GeZero pops a Number and pushes 1 if it is >= 0, else 0.
type GeZero struct{}

// GtZero pops a Number and pushes 1 if it is > 0, else 0.
type GtZero struct{}

// LeZero pops a Number and pushes 1 if it is <= 0, else 0.
type LeZero struct{}

// LtZero pops a Number and pushes 1 if it is < 0, else 0.
type LtZero struct{}

// Add pops two items of the same type and pushes their sum. Defined for
// Number (aborting on overflow), Commitment, PublicKey and Signature.
type Add struct{}

// Sub pops two items of the same type and pushes second minus top. Defined
// for Number (aborting on overflow) and Commitment.
type Sub struct{}

// CheckSig pops a public key then a signature and pushes Number 1 if the
// signature signs Message under the key, else Number 0.
type CheckSig struct{ Message [32]byte }

// CheckSigVerify is CheckSig that aborts instead of pushing 0.
type CheckSigVerify struct{ Message [32]byte }

// CheckMultiSig pops M signatures and pushes Number 1 if each signs Message
// under a distinct key of the ordered Keys list, else Number 0. Signatures
// must appear in key-list order.
type CheckMultiSig struct {
	M       uint8
	Keys    []crypto.Point
	Message [32]byte
}

// CheckMultiSigVerify is CheckMultiSig that aborts instead of pushing 0.
type CheckMultiSigVerify struct {
	M       uint8
	Keys    []crypto.Point
	Message [32]byte
}

// CheckMultiSigVerifyAggregatePubKey is CheckMultiSigVerify that pushes the
// sum of the signer public keys on success.
type CheckMultiSigVerifyAggregatePubKey struct {
	M       uint8
	Keys    []crypto.Point
	Message [32]byte
}

// HashBlake256 pops a hashable item (Hash, PublicKey or Commitment) and
// pushes its BLAKE2b-256 digest.
type HashBlake256 struct{}

// HashSha256 pops a hashable item and pushes its SHA-256 digest.
type HashSha256 struct{}

// HashSha3 pops a hashable item and pushes its SHA3-256 digest.
type HashSha3 struct{}

// ToRistrettoPoint pops a Scalar or Hash, interprets it as a canonical
// scalar s, and pushes the public key s·G.
type ToRistrettoPoint struct{}

func (Return) Code() byte              { return opReturn }
func (IfThen) Code() byte              { return opIfThen }
func (Else) Code() byte                { return opElse }
func (EndIf) Code() byte               { return opEndIf }
func (Or) Code() byte                  { return opOr }
func (OrVerify) Code() byte            { return opOrVerify }
func (CheckHeightVerify) Code() byte   { return opCheckHeightVerify }
func (CheckHeight) Code() byte         { return opCheckHeight }
func (CompareHeightVerify) Code() byte { return opCompareHeightVerify }
func (CompareHeight) Code() byte       { return opCompareHeight }
func (Drop) Code() byte                { return opDrop }
func (Dup) Code() byte                 { return opDup }
func (RevRot) Code() byte              { return opRevRot }
func (Nop) Code() byte                 { return opNop }
func (PushHash) Code() byte            { return opPushHash }
func (PushZero) Code() byte            { return opPushZero }
func (PushOne) Code() byte             { return opPushOne }
func (PushInt) Code() byte             { return opPushInt }
func (PushPubKey) Code() byte          { return opPushPubKey }
func (Equal) Code() byte               { return opEqual }
func (EqualVerify) Code() byte         { return opEqualVerify }
func (GeZero) Code() byte              { return opGeZero }
func (GtZero) Code() byte              { return opGtZero }
func (LeZero) Code() byte              { return opLeZero }
func (LtZero) Code() byte              { return opLtZero }
func (Add) Code() byte                 { return opAdd }
func (Sub) Code() byte                 { return opSub }
func (CheckSig) Code() byte            { return opCheckSig }
func (CheckSigVerify) Code() byte      { return opCheckSigVerify }
func (CheckMultiSig) Code() byte       { return opCheckMultiSig }
func (CheckMultiSigVerify) Code() byte { return opCheckMultiSigVerify }
func (CheckMultiSigVerifyAggregatePubKey) Code() byte {
	return opCheckMultiSigVerifyAggregatePubK
}
func (HashBlake256) Code() byte     { return opHashBlake256 }
func (HashSha256) Code() byte       { return opHashSha256 }
func (HashSha3) Code() byte         { return opHashSha3 }
func (ToRistrettoPoint) Code() byte { return opToRistrettoPoint }

func appendCodeOnly(dst []byte, code byte) []byte { return append(dst, code) }

func (o Return) appendBytes(dst []byte) []byte              { return appendCodeOnly(dst, o.Code()) }
func (o IfThen) appendBytes(dst []byte) []byte              { return appendCodeOnly(dst, o.Code()) }
func (o Else) appendBytes(dst []byte) []byte                { return appendCodeOnly(dst, o.Code()) }
func (o EndIf) appendBytes(dst []byte) []byte               { return appendCodeOnly(dst, o.Code()) }
func (o CompareHeightVerify) appendBytes(dst []byte) []byte { return appendCodeOnly(dst, o.Code()) }
func (o CompareHeight) appendBytes(dst []byte) []byte       { return appendCodeOnly(dst, o.Code()) }
func (o Drop) appendBytes(dst []byte) []byte                { return appendCodeOnly(dst, o.Code()) }
func (o Dup) appendBytes(dst []byte) []byte                 { return appendCodeOnly(dst, o.Code()) }
func (o RevRot) appendBytes(dst []byte) []byte              { return appendCodeOnly(dst, o.Code()) }
func (o Nop) appendBytes(dst []byte) []byte                 { return appendCodeOnly(dst, o.Code()) }
func (o PushZero) appendBytes(dst []byte) []byte            { return appendCodeOnly(dst, o.Code()) }
func (o PushOne) appendBytes(dst []byte) []byte             { return appendCodeOnly(dst, o.Code()) }
func (o Equal) appendBytes(dst []byte) []byte               { return appendCodeOnly(dst, o.Code()) }
func (o EqualVerify) appendBytes(dst []byte) []byte         { return appendCodeOnly(dst, o.Code()) }
func (o GeZero) appendBytes(dst []byte) []byte              { return appendCodeOnly(dst, o.Code()) }
func (o GtZero) appendBytes(dst []byte) []byte              { return appendCodeOnly(dst, o.Code()) }
func (o LeZero) appendBytes(dst []byte) []byte              { return appendCodeOnly(dst, o.Code()) }
func (o LtZero) appendBytes(dst []byte) []byte              { return appendCodeOnly(dst, o.Code()) }
func (o Add) appendBytes(dst []byte) []byte                 { return appendCodeOnly(dst, o.Code()) }
func (o Sub) appendBytes(dst []byte) []byte                 { return appendCodeOnly(dst, o.Code()) }
func (o HashBlake256) appendBytes(dst []byte) []byte        { return appendCodeOnly(dst, o.Code()) }
func (o HashSha256) appendBytes(dst []byte) []byte          { return appendCodeOnly(dst, o.Code()) }
func (o HashSha3) appendBytes(dst []byte) []byte            { return appendCodeOnly(dst, o.Code()) }
func (o ToRistrettoPoint) appendBytes(dst []byte) []byte    { return appendCodeOnly(dst, o.Code()) }

func (o Or) appendBytes(dst []byte) []byte {
	return append(dst, o.Code(), o.N)
}

func (o OrVerify) appendBytes(dst []byte) []byte {
	return append(dst, o.Code(), o.N)
}

func (o CheckHeightVerify) appendBytes(dst []byte) []byte {
	dst = append(dst, o.Code())
	return binary.AppendUvarint(dst, o.Height)
}

func (o CheckHeight) appendBytes(dst []byte) []byte {
	dst = append(dst, o.Code())
	return binary.AppendUvarint(dst, o.Height)
}

func (o PushHash) appendBytes(dst []byte) []byte {
	dst = append(dst, o.Code())
	return append(dst, o.Hash[:]...)
}

func (o PushInt) appendBytes(dst []byte) []byte {
	dst = append(dst, o.Code())
	return binary.AppendVarint(dst, o.Value)
}

func (o PushPubKey) appendBytes(dst []byte) []byte {
	dst = append(dst, o.Code())
	return append(dst, o.Key[:]...)
}

func appendMultisig(dst []byte, code byte, m uint8, keys []crypto.Point, message [32]byte) []byte {
	dst = append(dst, code, m, uint8(len(keys)))
	for _, k := range keys {
		dst = append(dst, k[:]...)
	}
	return append(dst, message[:]...)
}

func (o CheckSig) appendBytes(dst []byte) []byte {
	dst = append(dst, o.Code())
	return append(dst, o.Message[:]...)
}

func (o CheckSigVerify) appendBytes(dst []byte) []byte {
	dst = append(dst, o.Code())
	return append(dst, o.Message[:]...)
}

func (o CheckMultiSig) appendBytes(dst []byte) []byte {
	return appendMultisig(dst, o.Code(), o.M, o.Keys, o.Message)
}

func (o CheckMultiSigVerify) appendBytes(dst []byte) []byte {
	return appendMultisig(dst, o.Code(), o.M, o.Keys, o.Message)
}

func (o CheckMultiSigVerifyAggregatePubKey) appendBytes(dst []byte) []byte {
	return appendMultisig(dst, o.Code(), o.M, o.Keys, o.Message)
}

// Script is a parsed opcode sequence.
type Script struct {
	ops []Op
}

// NewScript builds a script from instructions.
func NewScript(ops ...Op) Script {
	s := Script{ops: make([]Op, len(ops))}
	copy(s.ops, ops)
	return s
}

// Default returns the conventional open spending script, a single PushZero.
func Default() Script { return NewScript(PushZero{}) }

// Burn returns the provably unspendable script, a single Return.
func Burn() Script { return NewScript(Return{}) }

// Len returns the number of instructions.
func (s Script) Len() int { return len(s.ops) }

// Bytes returns the canonical serialization.
func (s Script) Bytes() []byte {
	var out []byte
	for _, op := range s.ops {
		out = op.appendBytes(out)
	}
	return out
}

// PatternMatch reports whether the two scripts have the same opcode
// sequence, ignoring operand values. Wallets use this to recognize output
// templates.
func (s Script) PatternMatch(other Script) bool {
	if len(s.ops) != len(other.ops) {
		return false
	}
	for i := range s.ops {
		if s.ops[i].Code() != other.ops[i].Code() {
			return false
		}
	}
	return true
}

// String renders a human-readable disassembly.
func (s Script) String() string {
	parts := make([]string, len(s.ops))
	for i, op := range s.ops {
		parts[i] = disassemble(op)
	}
	return strings.Join(parts, " ")
}

func disassemble(op Op) string {
	switch o := op.(type) {
	case Or:
		return fmt.Sprintf("Or(%d)", o.N)
	case OrVerify:
		return fmt.Sprintf("OrVerify(%d)", o.N)
	case CheckHeightVerify:
		return fmt.Sprintf("CheckHeightVerify(%d)", o.Height)
	case CheckHeight:
		return fmt.Sprintf("CheckHeight(%d)", o.Height)
	case PushHash:
		return fmt.Sprintf("PushHash(%x)", o.Hash)
	case PushInt:
		return fmt.Sprintf("PushInt(%d)", o.Value)
	case PushPubKey:
		return fmt.Sprintf("PushPubKey(%x)", o.Key)
	case CheckSig:
		return fmt.Sprintf("CheckSig(%x)", o.Message)
	case CheckSigVerify:
		return fmt.Sprintf("CheckSigVerify(%x)", o.Message)
	case CheckMultiSig:
		return fmt.Sprintf("CheckMultiSig(%d of %d, %x)", o.M, len(o.Keys), o.Message)
	case CheckMultiSigVerify:
		return fmt.Sprintf("CheckMultiSigVerify(%d of %d, %x)", o.M, len(o.Keys), o.Message)
	case CheckMultiSigVerifyAggregatePubKey:
		return fmt.Sprintf("CheckMultiSigVerifyAggregatePubKey(%d of %d, %x)", o.M, len(o.Keys), o.Message)
	default:
		return opName(op.Code())
	}
}

func opName(code byte) string {
	switch code {
	case opReturn:
		return "Return"
	case opIfThen:
		return "IfThen"
	case opElse:
		return "Else"
	case opEndIf:
		return "EndIf"
	case opCompareHeightVerify:
		return "CompareHeightVerify"
	case opCompareHeight:
		return "CompareHeight"
	case opDrop:
		return "Drop"
	case opDup:
		return "Dup"
	case opRevRot:
		return "RevRot"
	case opNop:
		return "Nop"
	case opPushZero:
		return "PushZero"
	case opPushOne:
		return "PushOne"
	case opEqual:
		return "Equal"
	case opEqualVerify:
		return "EqualVerify"
	case opGeZero:
		return "GeZero"
	case opGtZero:
		return "GtZero"
	case opLeZero:
		return "LeZero"
	case opLtZero:
		return "LtZero"
	case opAdd:
		return "Add"
	case opSub:
		return "Sub"
	case opHashBlake256:
		return "HashBlake256"
	case opHashSha256:
		return "HashSha256"
	case opHashSha3:
		return "HashSha3"
	case opToRistrettoPoint:
		return "ToRistrettoPoint"
	default:
		return fmt.Sprintf("Unknown(0x%02x)", code)
	}
}

// cursor walks a byte buffer during parsing.
type cursor struct {
	buf []byte
	off int
}

func (c *cursor) done() bool { return c.off >= len(c.buf) }

func (c *cursor) byte() (byte, error) {
	if c.off >= len(c.buf) {
		return 0, scripterr(SCRIPT_ERR_TRUNCATED, "unexpected end of script at offset %d", c.off)
	}
	b := c.buf[c.off]
	c.off++
	return b, nil
}

func (c *cursor) take(n int) ([]byte, error) {
	if len(c.buf)-c.off < n {
		return nil, scripterr(SCRIPT_ERR_TRUNCATED, "need %d bytes at offset %d, have %d", n, c.off, len(c.buf)-c.off)
	}
	b := c.buf[c.off : c.off+n]
	c.off += n
	return b, nil
}

// uvarint reads a minimally encoded base-128 varint.
func (c *cursor) uvarint() (uint64, error) {
	v, n := binary.Uvarint(c.buf[c.off:])
	if n <= 0 {
		return 0, scripterr(SCRIPT_ERR_TRUNCATED, "bad varint at offset %d", c.off)
	}
	if len(binary.AppendUvarint(nil, v)) != n {
		return 0, scripterr(SCRIPT_ERR_NON_MINIMAL_VARINT, "varint at offset %d is not minimal", c.off)
	}
	c.off += n
	return v, nil
}

// varint reads a minimally encoded zig-zag varint.
func (c *cursor) varint() (int64, error) {
	v, n := binary.Varint(c.buf[c.off:])
	if n <= 0 {
		return 0, scripterr(SCRIPT_ERR_TRUNCATED, "bad varint at offset %d", c.off)
	}
	if len(binary.AppendVarint(nil, v)) != n {
		return 0, scripterr(SCRIPT_ERR_NON_MINIMAL_VARINT, "varint at offset %d is not minimal", c.off)
	}
	c.off += n
	return v, nil
}

func (c *cursor) hash32() ([32]byte, error) {
	var out [32]byte
	b, err := c.take(32)
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}

func (c *cursor) point() (crypto.Point, error) {
	b, err := c.take(crypto.PointBytes)
	if err != nil {
		return crypto.Point{}, err
	}
	p, err := crypto.PointFromBytes(b)
	if err != nil {
		return crypto.Point{}, scripterr(SCRIPT_ERR_BAD_STACK_ITEM, "public key at offset %d: %v", c.off, err)
	}
	return p, nil
}

// Parse decodes a serialized script, rejecting oversized input, unknown
// opcodes, truncated operands and non-minimal varints.
func Parse(b []byte) (Script, error) {
	if len(b) > MaxScriptBytes {
		return Script{}, scripterr(SCRIPT_ERR_SCRIPT_TOO_LONG, "%d bytes exceeds maximum %d", len(b), MaxScriptBytes)
	}
	cur := &cursor{buf: b}
	var ops []Op
	for !cur.done() {
		op, err := parseOp(cur)
		if err != nil {
			return Script{}, err
		}
		ops = append(ops, op)
	}
	return Script{ops: ops}, nil
}

func parseOp(cur *cursor) (Op, error) {
	code, err := cur.byte()
	if err != nil {
		return nil, err
	}
	switch code {
	case opReturn:
		return Return{}, nil
	case opIfThen:
		return IfThen{}, nil
	case opElse:
		return Else{}, nil
	case opEndIf:
		return EndIf{}, nil
	case opOr, opOrVerify:
		n, err := cur.byte()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, scripterr(SCRIPT_ERR_VALUE_EXCEEDS_BOUNDS, "Or count must be at least 1")
		}
		if code == opOr {
			return Or{N: n}, nil
		}
		return OrVerify{N: n}, nil
	case opCheckHeightVerify, opCheckHeight:
		h, err := cur.uvarint()
		if err != nil {
			return nil, err
		}
		if code == opCheckHeightVerify {
			return CheckHeightVerify{Height: h}, nil
		}
		return CheckHeight{Height: h}, nil
	case opCompareHeightVerify:
		return CompareHeightVerify{}, nil
	case opCompareHeight:
		return CompareHeight{}, nil
	case opDrop:
		return Drop{}, nil
	case opDup:
		return Dup{}, nil
	case opRevRot:
		return RevRot{}, nil
	case opNop:
		return Nop{}, nil
	case opPushHash:
		h, err := cur.hash32()
		if err != nil {
			return nil, err
		}
		return PushHash{Hash: h}, nil
	case opPushZero:
		return PushZero{}, nil
	case opPushOne:
		return PushOne{}, nil
	case opPushInt:
		v, err := cur.varint()
		if err != nil {
			return nil, err
		}
		return PushInt{Value: v}, nil
	case opPushPubKey:
		p, err := cur.point()
		if err != nil {
			return nil, err
		}
		return PushPubKey{Key: p}, nil
	case opEqual:
		return Equal{}, nil
	case opEqualVerify:
		return EqualVerify{}, nil
	case opGeZero:
		return GeZero{}, nil
	case opGtZero:
		return GtZero{}, nil
	case opLeZero:
		return LeZero{}, nil
	case opLtZero:
		return LtZero{}, nil
	case opAdd:
		return Add{}, nil
	case opSub:
		return Sub{}, nil
	case opCheckSig, opCheckSigVerify:
		m, err := cur.hash32()
		if err != nil {
			return nil, err
		}
		if code == opCheckSig {
			return CheckSig{Message: m}, nil
		}
		return CheckSigVerify{Message: m}, nil
	case opCheckMultiSig, opCheckMultiSigVerify, opCheckMultiSigVerifyAggregatePubK:
		m, keys, msg, err := parseMultisig(cur)
		if err != nil {
			return nil, err
		}
		switch code {
		case opCheckMultiSig:
			return CheckMultiSig{M: m, Keys: keys, Message: msg}, nil
		case opCheckMultiSigVerify:
			return CheckMultiSigVerify{M: m, Keys: keys, Message: msg}, nil
		default:
			return CheckMultiSigVerifyAggregatePubKey{M: m, Keys: keys, Message: msg}, nil
		}
	case opHashBlake256:
		return HashBlake256{}, nil
	case opHashSha256:
		return HashSha256{}, nil
	case opHashSha3:
		return HashSha3{}, nil
	case opToRistrettoPoint:
		return ToRistrettoPoint{}, nil
	default:
		return nil, scripterr(SCRIPT_ERR_UNKNOWN_OPCODE, "opcode 0x%02x", code)
	}
}

func parseMultisig(cur *cursor) (uint8, []crypto.Point, [32]byte, error) {
	var msg [32]byte
	m, err := cur.byte()
	if err != nil {
		return 0, nil, msg, err
	}
	n, err := cur.byte()
	if err != nil {
		return 0, nil, msg, err
	}
	if m == 0 || n == 0 || m > n || n > MaxMultisigKeys {
		return 0, nil, msg, scripterr(SCRIPT_ERR_MULTISIG_PARAMS, "invalid m-of-n %d of %d", m, n)
	}
	keys := make([]crypto.Point, n)
	for i := range keys {
		keys[i], err = cur.point()
		if err != nil {
			return 0, nil, msg, err
		}
	}
	msg, err = cur.hash32()
	if err != nil {
		return 0, nil, msg, err
	}
	return m, keys, msg, nil
}
