package consensus

// OutputType distinguishes the consensus treatment of an output. Coinbase
// and burn outputs are distinct variants rather than flags so that their
// special-casing is visible at call sites.
type OutputType byte

const (
	// OutputStandard is a regular payment output.
	OutputStandard OutputType = 0
	// OutputCoinbase is a block-reward output. It carries an enforced
	// maturity and is excluded from the script-offset sum.
	OutputCoinbase OutputType = 1
	// OutputBurn permanently destroys its value. Burn outputs carry a
	// provably unspendable script and must be matched by a burn kernel.
	OutputBurn OutputType = 2
)

func (t OutputType) valid() bool {
	return t == OutputStandard || t == OutputCoinbase || t == OutputBurn
}

// OutputFeatures is the structured metadata attached to an output. It is
// part of the output's identity: it is folded into the metadata-signature
// challenge, so changing it invalidates the signature.
type OutputFeatures struct {
	Type OutputType
	// Maturity is the earliest block height at which the output may be
	// spent. Zero means spendable immediately.
	Maturity uint64
}

// Bytes returns the canonical encoding: type byte, maturity varint.
func (f OutputFeatures) Bytes() []byte {
	out := []byte{byte(f.Type)}
	return appendUvarint(out, f.Maturity)
}

func (d *decoder) readFeatures() (OutputFeatures, error) {
	t, err := d.readByte()
	if err != nil {
		return OutputFeatures{}, err
	}
	if !OutputType(t).valid() {
		return OutputFeatures{}, txerrf(TX_ERR_PARSE, "unknown output type 0x%02x", t)
	}
	m, err := d.readUvarint()
	if err != nil {
		return OutputFeatures{}, err
	}
	return OutputFeatures{Type: OutputType(t), Maturity: m}, nil
}
