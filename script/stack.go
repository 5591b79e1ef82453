package script

import (
	"encoding/binary"

	"sclchain.dev/core/crypto"
)

// MaxStackSize is the hard cap on execution stack height. Exceeding it
// aborts the script.
const MaxStackSize = 255

// Stack item type tags used in the canonical byte encoding of input data.
const (
	tagNumber     byte = 0x01
	tagHash       byte = 0x02
	tagScalar     byte = 0x03
	tagCommitment byte = 0x04
	tagPublicKey  byte = 0x05
	tagSignature  byte = 0x06
)

// Item is a typed value on the execution stack. The set of variants is
// closed: Number, Hash, Scalar, Commitment, PublicKey and Signature. All
// variants are comparable value types, so item equality is plain ==.
type Item interface {
	tag() byte
	appendPayload(dst []byte) []byte
}

// Number is a signed 64-bit stack integer.
type Number int64

// Hash is a 32-byte digest stack item.
type Hash [32]byte

// Scalar is a group scalar stack item.
type Scalar crypto.Scalar

// Commitment is a Pedersen commitment stack item.
type Commitment crypto.Commitment

// PublicKey is a group element stack item. The residual item of a spending
// script must have this type.
type PublicKey crypto.Point

// Signature is a Schnorr signature stack item consumed by the CheckSig
// family of opcodes.
type Signature crypto.Signature

func (Number) tag() byte     { return tagNumber }
func (Hash) tag() byte       { return tagHash }
func (Scalar) tag() byte     { return tagScalar }
func (Commitment) tag() byte { return tagCommitment }
func (PublicKey) tag() byte  { return tagPublicKey }
func (Signature) tag() byte  { return tagSignature }

func (n Number) appendPayload(dst []byte) []byte {
	return binary.LittleEndian.AppendUint64(dst, uint64(n))
}

func (h Hash) appendPayload(dst []byte) []byte       { return append(dst, h[:]...) }
func (s Scalar) appendPayload(dst []byte) []byte     { return append(dst, s[:]...) }
func (c Commitment) appendPayload(dst []byte) []byte { return append(dst, c[:]...) }
func (p PublicKey) appendPayload(dst []byte) []byte  { return append(dst, p[:]...) }

func (s Signature) appendPayload(dst []byte) []byte {
	return append(dst, crypto.Signature(s).Bytes()...)
}

// Stack is the bounded execution stack. The zero value is an empty stack.
// The top of the stack is the last element.
type Stack struct {
	items []Item
}

// NewStack builds a stack with the given items, bottom first.
func NewStack(items ...Item) (*Stack, error) {
	if len(items) > MaxStackSize {
		return nil, scripterr(SCRIPT_ERR_STACK_OVERFLOW, "%d items exceeds maximum %d", len(items), MaxStackSize)
	}
	s := &Stack{items: make([]Item, len(items))}
	copy(s.items, items)
	return s, nil
}

// Size returns the current stack height.
func (s *Stack) Size() int { return len(s.items) }

// Push places an item on top of the stack.
func (s *Stack) Push(item Item) error {
	if len(s.items) >= MaxStackSize {
		return scripterr(SCRIPT_ERR_STACK_OVERFLOW, "stack is at maximum height %d", MaxStackSize)
	}
	s.items = append(s.items, item)
	return nil
}

// Pop removes and returns the top item.
func (s *Stack) Pop() (Item, error) {
	if len(s.items) == 0 {
		return nil, scripterr(SCRIPT_ERR_STACK_UNDERFLOW, "pop from empty stack")
	}
	item := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	return item, nil
}

// Peek returns the top item without removing it.
func (s *Stack) Peek() (Item, error) {
	if len(s.items) == 0 {
		return nil, scripterr(SCRIPT_ERR_STACK_UNDERFLOW, "peek on empty stack")
	}
	return s.items[len(s.items)-1], nil
}

// popNumber pops the top item, requiring it to be a Number.
func (s *Stack) popNumber() (Number, error) {
	item, err := s.Pop()
	if err != nil {
		return 0, err
	}
	n, ok := item.(Number)
	if !ok {
		return 0, scripterr(SCRIPT_ERR_TYPE_MISMATCH, "expected number on stack")
	}
	return n, nil
}

// clone returns an independent copy of the stack. Execution works on a
// clone so callers keep their input data intact.
func (s *Stack) clone() *Stack {
	c := &Stack{items: make([]Item, len(s.items))}
	copy(c.items, s.items)
	return c
}

// Bytes returns the canonical encoding of the stack, bottom first. Each
// item is a one-byte type tag followed by its fixed-width payload.
func (s *Stack) Bytes() []byte {
	var out []byte
	for _, item := range s.items {
		out = append(out, item.tag())
		out = item.appendPayload(out)
	}
	return out
}

// ParseStack decodes a canonical stack encoding, enforcing MaxStackSize.
func ParseStack(b []byte) (*Stack, error) {
	s := &Stack{}
	for len(b) > 0 {
		if len(s.items) >= MaxStackSize {
			return nil, scripterr(SCRIPT_ERR_STACK_OVERFLOW, "encoded stack exceeds maximum height %d", MaxStackSize)
		}
		tag := b[0]
		b = b[1:]
		var (
			item Item
			need int
		)
		switch tag {
		case tagNumber:
			need = 8
		case tagSignature:
			need = crypto.SignatureBytes
		case tagHash, tagScalar, tagCommitment, tagPublicKey:
			need = 32
		default:
			return nil, scripterr(SCRIPT_ERR_BAD_STACK_ITEM, "unknown stack item tag 0x%02x", tag)
		}
		if len(b) < need {
			return nil, scripterr(SCRIPT_ERR_TRUNCATED, "stack item payload truncated")
		}
		payload := b[:need]
		b = b[need:]
		switch tag {
		case tagNumber:
			item = Number(binary.LittleEndian.Uint64(payload))
		case tagHash:
			var h Hash
			copy(h[:], payload)
			item = h
		case tagScalar:
			sc, err := crypto.ScalarFromBytes(payload)
			if err != nil {
				return nil, scripterr(SCRIPT_ERR_NON_CANONICAL_SCALAR, "stack scalar: %v", err)
			}
			item = Scalar(sc)
		case tagCommitment:
			c, err := crypto.CommitmentFromBytes(payload)
			if err != nil {
				return nil, scripterr(SCRIPT_ERR_BAD_STACK_ITEM, "stack commitment: %v", err)
			}
			item = Commitment(c)
		case tagPublicKey:
			p, err := crypto.PointFromBytes(payload)
			if err != nil {
				return nil, scripterr(SCRIPT_ERR_BAD_STACK_ITEM, "stack public key: %v", err)
			}
			item = PublicKey(p)
		case tagSignature:
			sig, err := crypto.SignatureFromBytes(payload)
			if err != nil {
				return nil, scripterr(SCRIPT_ERR_BAD_STACK_ITEM, "stack signature: %v", err)
			}
			item = Signature(sig)
		}
		s.items = append(s.items, item)
	}
	return s, nil
}
