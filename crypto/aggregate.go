package crypto

// N-party key aggregation. Multi-party spending conditions (m-of-n scripts,
// atomic swaps, one-sided payment variants) all reduce to the parties
// summing public keys and partial signatures; the validator only ever sees
// the resulting aggregate key and aggregate signature.

// AggregateKeys returns the sum of the given public keys. An empty argument
// list yields the identity element.
func AggregateKeys(keys ...Point) Point {
	var sum Point
	for _, k := range keys {
		sum = sum.Add(k)
	}
	return sum
}

// AggregateSecrets returns the sum of the given secret scalars.
func AggregateSecrets(secrets ...Scalar) Scalar {
	var sum Scalar
	for _, s := range secrets {
		sum = sum.Add(s)
	}
	return sum
}

// AggregateSignatures sums partial Schnorr signatures produced over the
// same challenge.
func AggregateSignatures(sigs ...Signature) Signature {
	var agg Signature
	for _, s := range sigs {
		agg = agg.Aggregate(s)
	}
	return agg
}

// AggregateCommitmentSignatures sums partial commitment signatures produced
// over the same challenge.
func AggregateCommitmentSignatures(sigs ...CommitmentSignature) CommitmentSignature {
	var agg CommitmentSignature
	for _, s := range sigs {
		agg = agg.Aggregate(s)
	}
	return agg
}
