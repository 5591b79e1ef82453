package consensus

import (
	"sclchain.dev/core/crypto"
)

// Transaction is a complete transfer: the aggregate body plus the two wire
// scalars, the kernel offset folded into the balance equation and the
// script offset γ.
type Transaction struct {
	// Offset is the kernel offset: a blinding scalar subtracted from the
	// kernel excess so that kernels cannot be linked back to their
	// transaction's outputs.
	Offset crypto.Scalar
	// ScriptOffset is γ, the script/sender-offset key balance.
	ScriptOffset crypto.Scalar
	Body         AggregateBody
}

// Fees sums the transaction's kernel fees.
func (t *Transaction) Fees() (uint64, error) { return t.Body.TotalFees() }

// Add aggregates two transactions without cut-through: offsets are summed
// and bodies concatenated, then re-sorted into canonical order. Validity of
// the parts implies validity of the aggregate; the offset identity keeps
// any elision of intermediate records detectable.
func (t *Transaction) Add(other *Transaction) *Transaction {
	agg := &Transaction{
		Offset:       t.Offset.Add(other.Offset),
		ScriptOffset: t.ScriptOffset.Add(other.ScriptOffset),
	}
	agg.Body.Inputs = append(append([]TransactionInput{}, t.Body.Inputs...), other.Body.Inputs...)
	agg.Body.Outputs = append(append([]TransactionOutput{}, t.Body.Outputs...), other.Body.Outputs...)
	agg.Body.Kernels = append(append([]TransactionKernel{}, t.Body.Kernels...), other.Body.Kernels...)
	agg.Body.Sort()
	return agg
}

// Bytes returns the canonical encoding: the two offsets then the body.
func (t *Transaction) Bytes() []byte {
	out := make([]byte, 0, 64)
	out = append(out, t.Offset[:]...)
	out = append(out, t.ScriptOffset[:]...)
	out = append(out, t.Body.Bytes()...)
	return out
}

// ParseTransaction decodes a canonical transaction encoding.
func ParseTransaction(b []byte, p Params) (*Transaction, error) {
	d := newDecoder(b)
	t := &Transaction{}
	ob, err := d.readBytes(crypto.ScalarBytes)
	if err != nil {
		return nil, err
	}
	if t.Offset, err = crypto.ScalarFromBytes(ob); err != nil {
		return nil, txerrf(TX_ERR_PARSE, "kernel offset: %v", err)
	}
	sb, err := d.readBytes(crypto.ScalarBytes)
	if err != nil {
		return nil, err
	}
	if t.ScriptOffset, err = crypto.ScalarFromBytes(sb); err != nil {
		return nil, txerrf(TX_ERR_PARSE, "script offset: %v", err)
	}
	if t.Body, err = d.readBody(p); err != nil {
		return nil, err
	}
	if err := d.finish(); err != nil {
		return nil, err
	}
	return t, nil
}
