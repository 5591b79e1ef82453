package crypto

import "fmt"

// CommitmentSignatureBytes is the wire size of a commitment signature: the
// 32-byte nonce commitment followed by the two 32-byte signature scalars.
const CommitmentSignatureBytes = PointBytes + 2*ScalarBytes

// CommitmentSignature proves knowledge of a commitment opening (v, k).
// For nonce pair (r_a, r_b):
//
//	R = r_a·H + r_b·G
//	a = r_a + e·v
//	b = r_b + e·k
//
// and verification checks a·H + b·G == R + e·C for C = v·H + k·G. The
// challenge e is computed by the caller and binds R to whatever context the
// signature covers.
type CommitmentSignature struct {
	PublicNonce Point
	A           Scalar
	B           Scalar
}

// NonceCommitment computes R = r_a·H + r_b·G for a nonce pair. Callers fold
// R into the challenge before signing.
func NonceCommitment(nonceA, nonceB Scalar) Point {
	return Point(Commit(nonceA, nonceB))
}

// SignCommitment produces a commitment signature over the opening
// (value, blinding) with the given nonce pair and challenge. The challenge
// must have been derived from NonceCommitment(nonceA, nonceB) and the signed
// context.
func SignCommitment(value, blinding, nonceA, nonceB, challenge Scalar) CommitmentSignature {
	return CommitmentSignature{
		PublicNonce: NonceCommitment(nonceA, nonceB),
		A:           nonceA.Add(challenge.Mul(value)),
		B:           nonceB.Add(challenge.Mul(blinding)),
	}
}

// Verify checks a·H + b·G == R + e·C.
func (sig CommitmentSignature) Verify(c Commitment, challenge Scalar) bool {
	lhs := Point(Commit(sig.A, sig.B))
	rhs := sig.PublicNonce.Add(Point(c).Mul(challenge))
	return lhs == rhs
}

// VerifyPoint checks the signature equation against an arbitrary group
// element instead of a commitment. Used where the signed key is a
// commitment plus a public key, e.g. C + K_O or C + K_S.
func (sig CommitmentSignature) VerifyPoint(p Point, challenge Scalar) bool {
	return sig.Verify(Commitment(p), challenge)
}

// Aggregate returns the component-wise sum of two commitment signatures.
// Partial signatures over the same challenge aggregate into a signature
// valid for the sum of the signed commitments/keys.
func (sig CommitmentSignature) Aggregate(other CommitmentSignature) CommitmentSignature {
	return CommitmentSignature{
		PublicNonce: sig.PublicNonce.Add(other.PublicNonce),
		A:           sig.A.Add(other.A),
		B:           sig.B.Add(other.B),
	}
}

// Bytes encodes the signature as R ‖ a ‖ b (96 bytes).
func (sig CommitmentSignature) Bytes() []byte {
	out := make([]byte, 0, CommitmentSignatureBytes)
	out = append(out, sig.PublicNonce[:]...)
	out = append(out, sig.A[:]...)
	out = append(out, sig.B[:]...)
	return out
}

// CommitmentSignatureFromBytes parses a 96-byte R ‖ a ‖ b encoding.
func CommitmentSignatureFromBytes(b []byte) (CommitmentSignature, error) {
	if len(b) != CommitmentSignatureBytes {
		return CommitmentSignature{}, fmt.Errorf(
			"crypto: commitment signature must be %d bytes, got %d", CommitmentSignatureBytes, len(b))
	}
	r, err := PointFromBytes(b[:PointBytes])
	if err != nil {
		return CommitmentSignature{}, err
	}
	a, err := ScalarFromBytes(b[PointBytes : PointBytes+ScalarBytes])
	if err != nil {
		return CommitmentSignature{}, err
	}
	bb, err := ScalarFromBytes(b[PointBytes+ScalarBytes:])
	if err != nil {
		return CommitmentSignature{}, err
	}
	return CommitmentSignature{PublicNonce: r, A: a, B: bb}, nil
}
