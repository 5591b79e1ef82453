package consensus

import (
	"sclchain.dev/core/crypto"
)

// CurrentHeaderVersion is the only block-header version this code accepts.
const CurrentHeaderVersion = 1

// maxPowDataBytes caps the PoW supplemental field at decode time.
const maxPowDataBytes = 2048

const headerHashDomain = "sclchain.dev/core/consensus: block header hash"

// BlockHeader summarizes a block. Field order in the canonical encoding is
// consensus-critical and must not change without a version bump.
type BlockHeader struct {
	Version   uint16
	Height    uint64
	PrevHash  [32]byte
	Timestamp uint64

	InputRoot   [32]byte
	InputSize   uint64
	OutputRoot  [32]byte
	OutputSize  uint64
	WitnessRoot [32]byte
	WitnessSize uint64
	KernelRoot  [32]byte
	KernelSize  uint64

	// TotalKernelOffset is the sum of the block's transaction kernel
	// offsets; TotalScriptOffset is the sum of their script offsets γ,
	// excluding the coinbase.
	TotalKernelOffset crypto.Scalar
	TotalScriptOffset crypto.Scalar

	Nonce   uint64
	PowAlgo uint8
	PowData []byte
}

// Bytes returns the canonical encoding in consensus field order.
func (h *BlockHeader) Bytes() []byte {
	out := appendUvarint(nil, uint64(h.Version))
	out = appendUvarint(out, h.Height)
	out = append(out, h.PrevHash[:]...)
	out = appendUvarint(out, h.Timestamp)

	out = append(out, h.InputRoot[:]...)
	out = appendUvarint(out, h.InputSize)
	out = append(out, h.OutputRoot[:]...)
	out = appendUvarint(out, h.OutputSize)
	out = append(out, h.WitnessRoot[:]...)
	out = appendUvarint(out, h.WitnessSize)
	out = append(out, h.KernelRoot[:]...)
	out = appendUvarint(out, h.KernelSize)

	out = append(out, h.TotalKernelOffset[:]...)
	out = append(out, h.TotalScriptOffset[:]...)

	out = appendUvarint(out, h.Nonce)
	out = append(out, h.PowAlgo)
	out = appendByteSeq(out, h.PowData)
	return out
}

// Hash is the header's identity digest.
func (h *BlockHeader) Hash() [32]byte {
	return crypto.Hash256(headerHashDomain, h.Bytes())
}

func (d *decoder) readHeader() (BlockHeader, error) {
	var h BlockHeader
	v, err := d.readUvarint()
	if err != nil {
		return h, err
	}
	if v > 0xffff {
		return h, txerrf(BLOCK_ERR_PARSE, "header version %d out of range", v)
	}
	h.Version = uint16(v)
	if h.Height, err = d.readUvarint(); err != nil {
		return h, err
	}
	if h.PrevHash, err = d.readHash32(); err != nil {
		return h, err
	}
	if h.Timestamp, err = d.readUvarint(); err != nil {
		return h, err
	}

	if h.InputRoot, err = d.readHash32(); err != nil {
		return h, err
	}
	if h.InputSize, err = d.readUvarint(); err != nil {
		return h, err
	}
	if h.OutputRoot, err = d.readHash32(); err != nil {
		return h, err
	}
	if h.OutputSize, err = d.readUvarint(); err != nil {
		return h, err
	}
	if h.WitnessRoot, err = d.readHash32(); err != nil {
		return h, err
	}
	if h.WitnessSize, err = d.readUvarint(); err != nil {
		return h, err
	}
	if h.KernelRoot, err = d.readHash32(); err != nil {
		return h, err
	}
	if h.KernelSize, err = d.readUvarint(); err != nil {
		return h, err
	}

	kb, err := d.readBytes(crypto.ScalarBytes)
	if err != nil {
		return h, err
	}
	if h.TotalKernelOffset, err = crypto.ScalarFromBytes(kb); err != nil {
		return h, txerrf(BLOCK_ERR_PARSE, "total kernel offset: %v", err)
	}
	sb, err := d.readBytes(crypto.ScalarBytes)
	if err != nil {
		return h, err
	}
	if h.TotalScriptOffset, err = crypto.ScalarFromBytes(sb); err != nil {
		return h, txerrf(BLOCK_ERR_PARSE, "total script offset: %v", err)
	}

	if h.Nonce, err = d.readUvarint(); err != nil {
		return h, err
	}
	if h.PowAlgo, err = d.readByte(); err != nil {
		return h, err
	}
	if h.PowData, err = d.readByteSeq(maxPowDataBytes); err != nil {
		return h, err
	}
	return h, nil
}

// ParseBlockHeader decodes a canonical header encoding.
func ParseBlockHeader(b []byte) (BlockHeader, error) {
	d := newDecoder(b)
	h, err := d.readHeader()
	if err != nil {
		return h, err
	}
	return h, d.finish()
}
