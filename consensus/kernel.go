package consensus

import (
	"sclchain.dev/core/crypto"
)

// KernelFeatures marks the kernel variant.
type KernelFeatures byte

const (
	// KernelPlain is a regular transaction kernel.
	KernelPlain KernelFeatures = 0
	// KernelCoinbase is the block-reward kernel.
	KernelCoinbase KernelFeatures = 1
	// KernelBurn records a value burn; it carries the burned commitment.
	KernelBurn KernelFeatures = 2
)

func (f KernelFeatures) valid() bool {
	return f == KernelPlain || f == KernelCoinbase || f == KernelBurn
}

const kernelHashDomain = "sclchain.dev/core/consensus: kernel hash"

// TransactionKernel is the permanent record of a transaction: its fee, lock
// height, net excess commitment and the Schnorr signature proving the excess
// is a blinding-only commitment.
type TransactionKernel struct {
	Features        KernelFeatures
	Fee             uint64
	LockHeight      uint64
	Excess          crypto.Commitment
	ExcessSignature crypto.Signature
	// BurnCommitment is present on burn kernels only: the commitment of the
	// output whose value this kernel burns.
	BurnCommitment *crypto.Commitment
}

// IsCoinbase reports whether this is the block-reward kernel.
func (k *TransactionKernel) IsCoinbase() bool { return k.Features == KernelCoinbase }

// IsBurn reports whether this kernel records a burn.
func (k *TransactionKernel) IsBurn() bool { return k.Features == KernelBurn }

// signatureMessage is the canonical byte string the excess signature covers:
// features, fee, lock height and the optional burn commitment.
func (k *TransactionKernel) signatureMessage() []byte {
	out := []byte{byte(k.Features)}
	out = appendUvarint(out, k.Fee)
	out = appendUvarint(out, k.LockHeight)
	if k.BurnCommitment != nil {
		out = append(out, 0x01)
		out = append(out, k.BurnCommitment.Bytes()...)
	} else {
		out = append(out, 0x00)
	}
	return out
}

// SignKernel produces the excess signature with the excess secret (the net
// blinding factor less the kernel offset).
func SignKernel(excessSecret crypto.Scalar, features KernelFeatures, fee, lockHeight uint64,
	burn *crypto.Commitment) (TransactionKernel, error) {

	k := TransactionKernel{
		Features:       features,
		Fee:            fee,
		LockHeight:     lockHeight,
		Excess:         crypto.Commitment(excessSecret.PublicKey()),
		BurnCommitment: burn,
	}
	sig, err := crypto.Sign(excessSecret, k.signatureMessage())
	if err != nil {
		return TransactionKernel{}, err
	}
	k.ExcessSignature = sig
	return k, nil
}

// VerifySignature checks the excess signature against the excess treated as
// a public key.
func (k *TransactionKernel) VerifySignature() error {
	if !k.ExcessSignature.Verify(k.Excess.AsPoint(), k.signatureMessage()) {
		return txerr(TX_ERR_KERNEL_SIG_INVALID, "kernel excess signature does not verify")
	}
	return nil
}

// Hash is the kernel's identity digest over all fields. Kernel hashes must
// be unique within a block and across the chain.
func (k *TransactionKernel) Hash() [32]byte {
	return crypto.Hash256(kernelHashDomain, k.Bytes())
}

// Bytes returns the canonical encoding.
func (k *TransactionKernel) Bytes() []byte {
	out := k.signatureMessage()
	out = append(out, k.Excess.Bytes()...)
	out = append(out, k.ExcessSignature.Bytes()...)
	return out
}

func (d *decoder) readKernel() (TransactionKernel, error) {
	var k TransactionKernel
	f, err := d.readByte()
	if err != nil {
		return k, err
	}
	if !KernelFeatures(f).valid() {
		return k, txerrf(TX_ERR_PARSE, "unknown kernel features 0x%02x", f)
	}
	k.Features = KernelFeatures(f)
	if k.Fee, err = d.readUvarint(); err != nil {
		return k, err
	}
	if k.LockHeight, err = d.readUvarint(); err != nil {
		return k, err
	}
	hasBurn, err := d.readOptionTag()
	if err != nil {
		return k, err
	}
	if hasBurn {
		cb, err := d.readBytes(crypto.PointBytes)
		if err != nil {
			return k, err
		}
		c, err := crypto.CommitmentFromBytes(cb)
		if err != nil {
			return k, txerrf(TX_ERR_PARSE, "burn commitment: %v", err)
		}
		k.BurnCommitment = &c
	}
	if hasBurn != (k.Features == KernelBurn) {
		return k, txerr(TX_ERR_PARSE, "burn commitment present iff kernel is a burn kernel")
	}
	eb, err := d.readBytes(crypto.PointBytes)
	if err != nil {
		return k, err
	}
	if k.Excess, err = crypto.CommitmentFromBytes(eb); err != nil {
		return k, txerrf(TX_ERR_PARSE, "kernel excess: %v", err)
	}
	sb, err := d.readBytes(crypto.SignatureBytes)
	if err != nil {
		return k, err
	}
	if k.ExcessSignature, err = crypto.SignatureFromBytes(sb); err != nil {
		return k, txerrf(TX_ERR_PARSE, "kernel signature: %v", err)
	}
	return k, nil
}
