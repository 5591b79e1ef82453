package consensus

import (
	"encoding/binary"
)

// Canonical encoding helpers. Every hashed or signed structure uses the same
// primitives: minimal little-endian base-128 varints for unsigned integers,
// varint length prefixes for variable byte sequences, a single 0x00/0x01 tag
// byte for optional fields, and raw fixed-width bytes for group elements.
// Field order is part of the consensus contract.

func appendUvarint(dst []byte, v uint64) []byte {
	return binary.AppendUvarint(dst, v)
}

func appendByteSeq(dst []byte, b []byte) []byte {
	dst = appendUvarint(dst, uint64(len(b)))
	return append(dst, b...)
}

// decoder walks a canonical byte stream. Reads fail on truncation and on
// non-minimal varints.
type decoder struct {
	buf []byte
	off int
}

func newDecoder(b []byte) *decoder { return &decoder{buf: b} }

func (d *decoder) remaining() int { return len(d.buf) - d.off }

// finish fails unless the whole buffer was consumed.
func (d *decoder) finish() error {
	if d.remaining() != 0 {
		return txerrf(TX_ERR_PARSE, "%d trailing bytes", d.remaining())
	}
	return nil
}

func (d *decoder) readByte() (byte, error) {
	if d.off >= len(d.buf) {
		return 0, txerr(TX_ERR_PARSE, "unexpected end of input")
	}
	b := d.buf[d.off]
	d.off++
	return b, nil
}

func (d *decoder) readBytes(n int) ([]byte, error) {
	if n < 0 || d.remaining() < n {
		return nil, txerrf(TX_ERR_PARSE, "need %d bytes, have %d", n, d.remaining())
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b, nil
}

func (d *decoder) readUvarint() (uint64, error) {
	v, n := binary.Uvarint(d.buf[d.off:])
	if n <= 0 {
		return 0, txerrf(TX_ERR_PARSE, "bad varint at offset %d", d.off)
	}
	if len(binary.AppendUvarint(nil, v)) != n {
		return 0, txerrf(TX_ERR_PARSE, "non-minimal varint at offset %d", d.off)
	}
	d.off += n
	return v, nil
}

// readByteSeq reads a varint-prefixed byte sequence of at most maxLen bytes.
func (d *decoder) readByteSeq(maxLen int) ([]byte, error) {
	n, err := d.readUvarint()
	if err != nil {
		return nil, err
	}
	if n > uint64(maxLen) {
		return nil, txerrf(TX_ERR_PARSE, "byte sequence of %d exceeds maximum %d", n, maxLen)
	}
	return d.readBytes(int(n))
}

// readOptionTag reads a 0x00/0x01 presence tag.
func (d *decoder) readOptionTag() (bool, error) {
	tag, err := d.readByte()
	if err != nil {
		return false, err
	}
	switch tag {
	case 0x00:
		return false, nil
	case 0x01:
		return true, nil
	default:
		return false, txerrf(TX_ERR_PARSE, "option tag must be 0x00 or 0x01, got 0x%02x", tag)
	}
}

func (d *decoder) readHash32() ([32]byte, error) {
	var out [32]byte
	b, err := d.readBytes(32)
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}
