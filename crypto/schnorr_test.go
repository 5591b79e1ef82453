package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSchnorrSignVerify(t *testing.T) {
	secret, err := RandomScalar()
	require.NoError(t, err)
	pub := secret.PublicKey()
	msg := []byte("kernel excess challenge")

	sig, err := Sign(secret, msg)
	require.NoError(t, err)
	require.True(t, sig.Verify(pub, msg))
	require.False(t, sig.Verify(pub, []byte("different message")))

	other, err := RandomScalar()
	require.NoError(t, err)
	require.False(t, sig.Verify(other.PublicKey(), msg))
}

func TestSchnorrBitFlipFails(t *testing.T) {
	secret, err := RandomScalar()
	require.NoError(t, err)
	msg := []byte("bit flip target")
	sig, err := Sign(secret, msg)
	require.NoError(t, err)

	raw := sig.Bytes()
	for i := 0; i < len(raw); i++ {
		raw[i] ^= 0x01
		flipped, err := SignatureFromBytes(raw)
		if err == nil {
			require.False(t, flipped.Verify(secret.PublicKey(), msg), "flip at byte %d verified", i)
		}
		raw[i] ^= 0x01
	}
}

func TestSchnorrAggregation(t *testing.T) {
	// Two parties sign the same message with a shared challenge by using
	// the aggregate nonce. Here we model it with the simple sum property:
	// partial signatures under the same e combine into a signature for the
	// aggregate key.
	x1, err := RandomScalar()
	require.NoError(t, err)
	x2, err := RandomScalar()
	require.NoError(t, err)
	r1, err := RandomScalar()
	require.NoError(t, err)
	r2, err := RandomScalar()
	require.NoError(t, err)

	msg := []byte("aggregate")
	aggNonce := BaseMul(r1).Add(BaseMul(r2))
	e := schnorrChallenge(aggNonce, msg)

	s1 := Signature{PublicNonce: BaseMul(r1), S: r1.Add(e.Mul(x1))}
	s2 := Signature{PublicNonce: BaseMul(r2), S: r2.Add(e.Mul(x2))}
	agg := AggregateSignatures(s1, s2)
	require.True(t, agg.Verify(AggregateKeys(x1.PublicKey(), x2.PublicKey()), msg))
}

func TestSignatureFromBytesLength(t *testing.T) {
	_, err := SignatureFromBytes(make([]byte, SignatureBytes-1))
	require.Error(t, err)
}
