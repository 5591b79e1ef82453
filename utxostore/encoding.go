package utxostore

import (
	"encoding/binary"
	"fmt"

	"sclchain.dev/core/consensus"
)

// Persistence formats for the bolt store. These are engineering formats, not
// consensus wire formats; the output itself is stored in its canonical
// encoding so records can be re-verified after a restart.

// encodeOutputRecord lays out: mined_height u64le | output canonical bytes.
func encodeOutputRecord(rec consensus.OutputRecord) []byte {
	out := make([]byte, 8, 8+256)
	binary.LittleEndian.PutUint64(out[:8], rec.MinedHeight)
	return append(out, rec.Output.Bytes()...)
}

func decodeOutputRecord(b []byte, p consensus.Params) (consensus.OutputRecord, error) {
	if len(b) < 8 {
		return consensus.OutputRecord{}, fmt.Errorf("utxo record: truncated")
	}
	out, err := consensus.ParseOutput(b[8:], p)
	if err != nil {
		return consensus.OutputRecord{}, fmt.Errorf("utxo record: %w", err)
	}
	return consensus.OutputRecord{
		Output:      out,
		MinedHeight: binary.LittleEndian.Uint64(b[:8]),
	}, nil
}

// encodeUndoRecord lays out the spent records a block consumed:
// count u32le | repeated (len u32le | output record).
func encodeUndoRecord(spent []consensus.OutputRecord) []byte {
	var tmp4 [4]byte
	binary.LittleEndian.PutUint32(tmp4[:], uint32(len(spent)))
	out := append([]byte(nil), tmp4[:]...)
	for _, rec := range spent {
		enc := encodeOutputRecord(rec)
		binary.LittleEndian.PutUint32(tmp4[:], uint32(len(enc)))
		out = append(out, tmp4[:]...)
		out = append(out, enc...)
	}
	return out
}

func decodeUndoRecord(b []byte, p consensus.Params) ([]consensus.OutputRecord, error) {
	if len(b) < 4 {
		return nil, fmt.Errorf("undo record: truncated")
	}
	count := int(binary.LittleEndian.Uint32(b[:4]))
	off := 4
	spent := make([]consensus.OutputRecord, 0, count)
	for i := 0; i < count; i++ {
		if off+4 > len(b) {
			return nil, fmt.Errorf("undo record: truncated at entry %d", i)
		}
		n := int(binary.LittleEndian.Uint32(b[off : off+4]))
		off += 4
		if off+n > len(b) {
			return nil, fmt.Errorf("undo record: bad entry length at %d", i)
		}
		rec, err := decodeOutputRecord(b[off:off+n], p)
		if err != nil {
			return nil, err
		}
		spent = append(spent, rec)
		off += n
	}
	if off != len(b) {
		return nil, fmt.Errorf("undo record: %d trailing bytes", len(b)-off)
	}
	return spent, nil
}
