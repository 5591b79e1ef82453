package consensus

// bodyExtraBytes counts the size-dependent part of a body's weight: script,
// input data and range proof bytes.
func bodyExtraBytes(body *AggregateBody) uint64 {
	var n uint64
	for i := range body.Inputs {
		n += uint64(len(body.Inputs[i].Script.Bytes()))
		n += uint64(len(body.Inputs[i].InputData.Bytes()))
	}
	for i := range body.Outputs {
		n += uint64(len(body.Outputs[i].Script.Bytes()))
		n += uint64(len(body.Outputs[i].RangeProof))
	}
	return n
}

// BodyWeight computes the aggregate weight: fixed per-record coefficients
// plus the rounded-up byte weight of scripts, input data and range proofs.
func BodyWeight(body *AggregateBody, p Params) uint64 {
	w := uint64(len(body.Inputs))*p.WeightPerInput +
		uint64(len(body.Outputs))*p.WeightPerOutput +
		uint64(len(body.Kernels))*p.WeightPerKernel
	extra := bodyExtraBytes(body)
	w += (extra + p.BytesPerWeightUnit - 1) / p.BytesPerWeightUnit
	return w
}
