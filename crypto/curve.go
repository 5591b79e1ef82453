// Package crypto wraps the ristretto255 prime-order group and builds the
// commitment and signature primitives used by consensus code: Pedersen
// commitments, Schnorr signatures and three-component commitment signatures.
//
// Scalars and points are fixed 32-byte canonical encodings. The all-zero
// encoding is the zero scalar and the identity element respectively, so the
// Go zero value of both types is a valid, meaningful element.
package crypto

import (
	"crypto/rand"
	"fmt"

	"github.com/gtank/ristretto255"
	"golang.org/x/crypto/blake2b"
)

const (
	// ScalarBytes is the canonical encoded size of a group scalar.
	ScalarBytes = 32
	// PointBytes is the canonical encoded size of a group element.
	PointBytes = 32
)

// Scalar is a canonically encoded scalar of the ristretto255 group.
type Scalar [ScalarBytes]byte

// Point is a canonically encoded element of the ristretto255 group.
type Point [PointBytes]byte

// pedersenHSeed derives the value generator H. It is a nothing-up-my-sleeve
// point: no one knows log_G(H).
const pedersenHSeed = "sclchain.dev/core/crypto: pedersen value generator H"

var genH = func() *ristretto255.Element {
	seed := blake2b.Sum512([]byte(pedersenHSeed))
	return ristretto255.NewIdentityElement().FromUniformBytes(seed[:])
}()

// decodeScalar decodes a Scalar that is known to be canonical. All Scalar
// values are produced by this package (constructors reject non-canonical
// bytes), so a decode failure here is a programming error.
func decodeScalar(s Scalar) *ristretto255.Scalar {
	sc := ristretto255.NewScalar()
	if err := sc.Decode(s[:]); err != nil {
		panic("crypto: internal scalar not canonical")
	}
	return sc
}

func decodePoint(p Point) *ristretto255.Element {
	e := ristretto255.NewIdentityElement()
	if err := e.Decode(p[:]); err != nil {
		panic("crypto: internal point not canonical")
	}
	return e
}

func encodeScalar(sc *ristretto255.Scalar) Scalar {
	var out Scalar
	sc.Encode(out[:0])
	return out
}

func encodePoint(e *ristretto255.Element) Point {
	var out Point
	e.Encode(out[:0])
	return out
}

// ScalarFromBytes parses a canonical 32-byte scalar encoding.
func ScalarFromBytes(b []byte) (Scalar, error) {
	if len(b) != ScalarBytes {
		return Scalar{}, fmt.Errorf("crypto: scalar must be %d bytes, got %d", ScalarBytes, len(b))
	}
	sc := ristretto255.NewScalar()
	if err := sc.Decode(b); err != nil {
		return Scalar{}, fmt.Errorf("crypto: non-canonical scalar encoding")
	}
	var out Scalar
	copy(out[:], b)
	return out, nil
}

// ScalarFromUint64 lifts an unsigned integer into the scalar field.
func ScalarFromUint64(v uint64) Scalar {
	var b [ScalarBytes]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	// 64-bit values are always below the group order.
	s, _ := ScalarFromBytes(b[:])
	return s
}

// RandomScalar returns a uniformly distributed scalar from crypto/rand.
func RandomScalar() (Scalar, error) {
	var wide [64]byte
	if _, err := rand.Read(wide[:]); err != nil {
		return Scalar{}, fmt.Errorf("crypto: reading randomness: %w", err)
	}
	sc := ristretto255.NewScalar().FromUniformBytes(wide[:])
	return encodeScalar(sc), nil
}

// HashToScalar hashes a domain tag and message chunks into a scalar using
// BLAKE2b-512 followed by wide reduction. This is the consensus
// challenge/hash-to-scalar function.
func HashToScalar(domain string, chunks ...[]byte) Scalar {
	h, err := blake2b.New512(nil)
	if err != nil {
		panic("crypto: blake2b init failed")
	}
	h.Write([]byte(domain))
	for _, c := range chunks {
		h.Write(c)
	}
	var wide [64]byte
	h.Sum(wide[:0])
	sc := ristretto255.NewScalar().FromUniformBytes(wide[:])
	return encodeScalar(sc)
}

// Hash256 is the consensus 32-byte digest function (BLAKE2b-256).
func Hash256(domain string, chunks ...[]byte) [32]byte {
	h, err := blake2b.New256(nil)
	if err != nil {
		panic("crypto: blake2b init failed")
	}
	h.Write([]byte(domain))
	for _, c := range chunks {
		h.Write(c)
	}
	var out [32]byte
	h.Sum(out[:0])
	return out
}

// Add returns s + t (mod group order).
func (s Scalar) Add(t Scalar) Scalar {
	return encodeScalar(ristretto255.NewScalar().Add(decodeScalar(s), decodeScalar(t)))
}

// Sub returns s - t (mod group order).
func (s Scalar) Sub(t Scalar) Scalar {
	return encodeScalar(ristretto255.NewScalar().Subtract(decodeScalar(s), decodeScalar(t)))
}

// Mul returns s * t (mod group order).
func (s Scalar) Mul(t Scalar) Scalar {
	return encodeScalar(ristretto255.NewScalar().Multiply(decodeScalar(s), decodeScalar(t)))
}

// Neg returns -s (mod group order).
func (s Scalar) Neg() Scalar {
	return encodeScalar(ristretto255.NewScalar().Negate(decodeScalar(s)))
}

// IsZero reports whether s is the zero scalar.
func (s Scalar) IsZero() bool {
	return s == Scalar{}
}

// Bytes returns the canonical encoding as a fresh slice.
func (s Scalar) Bytes() []byte {
	out := make([]byte, ScalarBytes)
	copy(out, s[:])
	return out
}

// PublicKey returns s·G, the public key of the secret scalar s.
func (s Scalar) PublicKey() Point {
	return encodePoint(ristretto255.NewIdentityElement().ScalarBaseMult(decodeScalar(s)))
}

// PointFromBytes parses a canonical 32-byte group element encoding.
func PointFromBytes(b []byte) (Point, error) {
	if len(b) != PointBytes {
		return Point{}, fmt.Errorf("crypto: point must be %d bytes, got %d", PointBytes, len(b))
	}
	e := ristretto255.NewIdentityElement()
	if err := e.Decode(b); err != nil {
		return Point{}, fmt.Errorf("crypto: non-canonical point encoding")
	}
	var out Point
	copy(out[:], b)
	return out, nil
}

// BaseMul returns s·G.
func BaseMul(s Scalar) Point {
	return s.PublicKey()
}

// mulGenH returns s·H, where H is the Pedersen value generator.
func mulGenH(s Scalar) *ristretto255.Element {
	return ristretto255.NewIdentityElement().ScalarMult(decodeScalar(s), genH)
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	return encodePoint(ristretto255.NewIdentityElement().Add(decodePoint(p), decodePoint(q)))
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return encodePoint(ristretto255.NewIdentityElement().Subtract(decodePoint(p), decodePoint(q)))
}

// Mul returns s·p.
func (p Point) Mul(s Scalar) Point {
	return encodePoint(ristretto255.NewIdentityElement().ScalarMult(decodeScalar(s), decodePoint(p)))
}

// Neg returns -p.
func (p Point) Neg() Point {
	return encodePoint(ristretto255.NewIdentityElement().Negate(decodePoint(p)))
}

// IsIdentity reports whether p is the identity element.
func (p Point) IsIdentity() bool {
	return p == Point{}
}

// Bytes returns the canonical encoding as a fresh slice.
func (p Point) Bytes() []byte {
	out := make([]byte, PointBytes)
	copy(out, p[:])
	return out
}
