package consensus

import (
	"sclchain.dev/core/crypto"
	"sclchain.dev/core/script"
)

const (
	metadataSigDomain = "sclchain.dev/core/consensus: output metadata signature"
	outputHashDomain  = "sclchain.dev/core/consensus: output hash"
)

// TransactionOutput is a ledger output: a value commitment with its range
// proof, the spending script, and the two-party metadata signature binding
// script, features, sender-offset key and commitment together.
type TransactionOutput struct {
	Features              OutputFeatures
	Commitment            crypto.Commitment
	RangeProof            []byte
	Script                script.Script
	SenderOffsetPublicKey crypto.Point
	MetadataSignature     crypto.CommitmentSignature
}

// IsCoinbase reports whether this is a block-reward output.
func (o *TransactionOutput) IsCoinbase() bool { return o.Features.Type == OutputCoinbase }

// IsBurn reports whether this output permanently destroys its value.
func (o *TransactionOutput) IsBurn() bool { return o.Features.Type == OutputBurn }

// BuildMetadataChallenge computes the joint challenge both parties sign:
// e = H(R ‖ script ‖ features ‖ K_O ‖ C). R is the sum of the party nonce
// commitments.
func BuildMetadataChallenge(nonceSum crypto.Point, scr script.Script, feats OutputFeatures,
	senderOffsetPublicKey crypto.Point, c crypto.Commitment) crypto.Scalar {
	return crypto.HashToScalar(metadataSigDomain,
		nonceSum[:],
		appendByteSeq(nil, scr.Bytes()),
		feats.Bytes(),
		senderOffsetPublicKey[:],
		c.Bytes(),
	)
}

// SignMetadataReceiver produces the receiver's partial metadata signature
// over the output commitment's opening (value, blinding).
func SignMetadataReceiver(value uint64, blinding, nonceA, nonceB, challenge crypto.Scalar) crypto.CommitmentSignature {
	return crypto.SignCommitment(crypto.ScalarFromUint64(value), blinding, nonceA, nonceB, challenge)
}

// SignMetadataSender produces the sender's partial metadata signature. The
// sender has no value component, so its partial is degenerate: a = 0 and
// R = r_b·G, binding only the sender-offset secret.
func SignMetadataSender(senderOffsetSecret, nonceB, challenge crypto.Scalar) crypto.CommitmentSignature {
	var zero crypto.Scalar
	return crypto.SignCommitment(zero, senderOffsetSecret, zero, nonceB, challenge)
}

// VerifyMetadataSignature checks the aggregate metadata signature against
// C + K_O, recomputing the challenge from the output's own fields.
func (o *TransactionOutput) VerifyMetadataSignature() error {
	e := BuildMetadataChallenge(o.MetadataSignature.PublicNonce, o.Script, o.Features,
		o.SenderOffsetPublicKey, o.Commitment)
	target := o.Commitment.AsPoint().Add(o.SenderOffsetPublicKey)
	if !o.MetadataSignature.VerifyPoint(target, e) {
		return txerr(TX_ERR_METADATA_SIG_INVALID, "metadata signature does not verify")
	}
	return nil
}

// Hash is the output's identity digest over its immutable core fields.
func (o *TransactionOutput) Hash() [32]byte {
	return crypto.Hash256(outputHashDomain,
		o.Features.Bytes(),
		o.Commitment.Bytes(),
		appendByteSeq(nil, o.Script.Bytes()),
	)
}

// Bytes returns the canonical encoding.
func (o *TransactionOutput) Bytes() []byte {
	out := o.Features.Bytes()
	out = append(out, o.Commitment.Bytes()...)
	out = appendByteSeq(out, o.RangeProof)
	out = appendByteSeq(out, o.Script.Bytes())
	out = append(out, o.SenderOffsetPublicKey[:]...)
	out = append(out, o.MetadataSignature.Bytes()...)
	return out
}

func (d *decoder) readOutput(p Params) (TransactionOutput, error) {
	var o TransactionOutput
	var err error
	if o.Features, err = d.readFeatures(); err != nil {
		return o, err
	}
	cb, err := d.readBytes(crypto.PointBytes)
	if err != nil {
		return o, err
	}
	if o.Commitment, err = crypto.CommitmentFromBytes(cb); err != nil {
		return o, txerrf(TX_ERR_PARSE, "output commitment: %v", err)
	}
	if o.RangeProof, err = d.readByteSeq(p.MaxRangeProofBytes); err != nil {
		return o, err
	}
	scriptBytes, err := d.readByteSeq(p.MaxScriptBytes)
	if err != nil {
		return o, err
	}
	if o.Script, err = script.Parse(scriptBytes); err != nil {
		return o, txerrf(TX_ERR_PARSE, "output script: %v", err)
	}
	kb, err := d.readBytes(crypto.PointBytes)
	if err != nil {
		return o, err
	}
	if o.SenderOffsetPublicKey, err = crypto.PointFromBytes(kb); err != nil {
		return o, txerrf(TX_ERR_PARSE, "sender offset key: %v", err)
	}
	sb, err := d.readBytes(crypto.CommitmentSignatureBytes)
	if err != nil {
		return o, err
	}
	if o.MetadataSignature, err = crypto.CommitmentSignatureFromBytes(sb); err != nil {
		return o, txerrf(TX_ERR_PARSE, "metadata signature: %v", err)
	}
	return o, nil
}

// ParseOutput decodes a canonical single-output encoding.
func ParseOutput(b []byte, p Params) (TransactionOutput, error) {
	d := newDecoder(b)
	o, err := d.readOutput(p)
	if err != nil {
		return o, err
	}
	return o, d.finish()
}

// BuildSignedOutput runs the two-party metadata signing protocol in one
// process: the receiver side signs the commitment opening, the sender side
// signs with a fresh sender-offset key, and the partials are aggregated.
// Returns the finished output and the sender-offset secret the caller needs
// for the transaction's script offset.
func BuildSignedOutput(value uint64, blinding crypto.Scalar, feats OutputFeatures,
	scr script.Script, rangeProof []byte) (TransactionOutput, crypto.Scalar, error) {

	senderOffsetSecret, err := crypto.RandomScalar()
	if err != nil {
		return TransactionOutput{}, crypto.Scalar{}, err
	}
	out, err := BuildSignedOutputWithOffsetKey(value, blinding, feats, scr, rangeProof, senderOffsetSecret)
	return out, senderOffsetSecret, err
}

// BuildSignedOutputWithOffsetKey is BuildSignedOutput with a caller-chosen
// sender-offset secret.
func BuildSignedOutputWithOffsetKey(value uint64, blinding crypto.Scalar, feats OutputFeatures,
	scr script.Script, rangeProof []byte, senderOffsetSecret crypto.Scalar) (TransactionOutput, error) {

	c := crypto.CommitValue(value, blinding)
	senderOffsetPub := senderOffsetSecret.PublicKey()

	recvNonceA, err := crypto.RandomScalar()
	if err != nil {
		return TransactionOutput{}, err
	}
	recvNonceB, err := crypto.RandomScalar()
	if err != nil {
		return TransactionOutput{}, err
	}
	sendNonceB, err := crypto.RandomScalar()
	if err != nil {
		return TransactionOutput{}, err
	}

	// R = R_MR + R_MS, then both parties sign the same challenge.
	nonceSum := crypto.NonceCommitment(recvNonceA, recvNonceB).Add(crypto.BaseMul(sendNonceB))
	e := BuildMetadataChallenge(nonceSum, scr, feats, senderOffsetPub, c)

	receiverPart := SignMetadataReceiver(value, blinding, recvNonceA, recvNonceB, e)
	senderPart := SignMetadataSender(senderOffsetSecret, sendNonceB, e)

	return TransactionOutput{
		Features:              feats,
		Commitment:            c,
		RangeProof:            rangeProof,
		Script:                scr,
		SenderOffsetPublicKey: senderOffsetPub,
		MetadataSignature:     receiverPart.Aggregate(senderPart),
	}, nil
}
