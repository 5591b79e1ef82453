package crypto

import (
	"github.com/gtank/ristretto255"
)

// Commitment is a Pedersen commitment C = v·H + k·G to a value v under a
// blinding factor k. Commitments are homomorphic:
// Commit(v1,k1) + Commit(v2,k2) == Commit(v1+v2, k1+k2).
type Commitment Point

// Commit computes v·H + k·G for scalar value v and blinding k.
func Commit(value, blinding Scalar) Commitment {
	e := ristretto255.NewIdentityElement().ScalarBaseMult(decodeScalar(blinding))
	e.Add(e, mulGenH(value))
	return Commitment(encodePoint(e))
}

// CommitValue commits to a 64-bit unsigned value under the given blinding
// factor.
func CommitValue(value uint64, blinding Scalar) Commitment {
	return Commit(ScalarFromUint64(value), blinding)
}

// CommitmentFromBytes parses a canonical 32-byte commitment encoding.
func CommitmentFromBytes(b []byte) (Commitment, error) {
	p, err := PointFromBytes(b)
	return Commitment(p), err
}

// Open reports whether c commits to (value, blinding).
func (c Commitment) Open(value uint64, blinding Scalar) bool {
	return c == CommitValue(value, blinding)
}

// Add returns the homomorphic sum of two commitments.
func (c Commitment) Add(d Commitment) Commitment {
	return Commitment(Point(c).Add(Point(d)))
}

// Sub returns the homomorphic difference of two commitments.
func (c Commitment) Sub(d Commitment) Commitment {
	return Commitment(Point(c).Sub(Point(d)))
}

// AsPoint reinterprets the commitment as a plain group element, e.g. for
// treating a zero-value commitment's k·G as a public key.
func (c Commitment) AsPoint() Point {
	return Point(c)
}

// Bytes returns the canonical encoding as a fresh slice.
func (c Commitment) Bytes() []byte {
	return Point(c).Bytes()
}
