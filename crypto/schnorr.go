package crypto

import "fmt"

// SignatureBytes is the wire size of a plain Schnorr signature: the 32-byte
// public nonce followed by the 32-byte signature scalar.
const SignatureBytes = PointBytes + ScalarBytes

const schnorrDomain = "sclchain.dev/core/crypto: schnorr"

// Signature is a Schnorr signature (R, s) with R = r·G and s = r + e·x,
// where e = H(R ‖ m).
type Signature struct {
	PublicNonce Point
	S           Scalar
}

// schnorrChallenge computes e = H(R ‖ m) as a scalar.
func schnorrChallenge(nonce Point, message []byte) Scalar {
	return HashToScalar(schnorrDomain, nonce[:], message)
}

// Sign produces a Schnorr signature over message with the given secret key
// and a fresh random nonce.
func Sign(secret Scalar, message []byte) (Signature, error) {
	nonce, err := RandomScalar()
	if err != nil {
		return Signature{}, err
	}
	return SignWithNonce(secret, nonce, message), nil
}

// SignWithNonce produces a Schnorr signature using a caller-supplied nonce.
// The nonce must be unique per signature; reuse leaks the secret key.
func SignWithNonce(secret, nonce Scalar, message []byte) Signature {
	r := BaseMul(nonce)
	e := schnorrChallenge(r, message)
	return Signature{
		PublicNonce: r,
		S:           nonce.Add(e.Mul(secret)),
	}
}

// Verify checks s·G == R + e·X for e = H(R ‖ m).
func (sig Signature) Verify(pub Point, message []byte) bool {
	e := schnorrChallenge(sig.PublicNonce, message)
	return BaseMul(sig.S) == sig.PublicNonce.Add(pub.Mul(e))
}

// Aggregate returns the component-wise sum of two signatures. Valid partial
// signatures over the same challenge aggregate into a valid signature for
// the sum of the public keys.
func (sig Signature) Aggregate(other Signature) Signature {
	return Signature{
		PublicNonce: sig.PublicNonce.Add(other.PublicNonce),
		S:           sig.S.Add(other.S),
	}
}

// Bytes encodes the signature as R ‖ s (64 bytes).
func (sig Signature) Bytes() []byte {
	out := make([]byte, 0, SignatureBytes)
	out = append(out, sig.PublicNonce[:]...)
	out = append(out, sig.S[:]...)
	return out
}

// SignatureFromBytes parses a 64-byte R ‖ s encoding.
func SignatureFromBytes(b []byte) (Signature, error) {
	if len(b) != SignatureBytes {
		return Signature{}, fmt.Errorf("crypto: signature must be %d bytes, got %d", SignatureBytes, len(b))
	}
	r, err := PointFromBytes(b[:PointBytes])
	if err != nil {
		return Signature{}, err
	}
	s, err := ScalarFromBytes(b[PointBytes:])
	if err != nil {
		return Signature{}, err
	}
	return Signature{PublicNonce: r, S: s}, nil
}
