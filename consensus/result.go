package consensus

// Status is the tri-state admission signal consumed by mempool and relay
// layers.
type Status int

const (
	// StatusValid means every check passed.
	StatusValid Status = iota
	// StatusRejected is a permanent rejection; retrying cannot succeed.
	StatusRejected
	// StatusPending means a context-dependent check (script height guard,
	// kernel lock height, input maturity) is not yet satisfied. A mempool
	// may retry at a later height.
	StatusPending
)

func (s Status) String() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusRejected:
		return "rejected"
	case StatusPending:
		return "pending"
	default:
		return "unknown"
	}
}

// Verdict is the outcome of a validation call: the admission status plus
// the specific rejection reason when not valid.
type Verdict struct {
	Status Status
	Code   ErrorCode
	Err    error
}

// Valid reports whether all checks passed.
func (v Verdict) Valid() bool { return v.Status == StatusValid }

func valid() Verdict { return Verdict{Status: StatusValid} }

func rejected(err error) Verdict {
	return Verdict{Status: StatusRejected, Code: ErrCodeOf(err), Err: err}
}

func pending(err error) Verdict {
	return Verdict{Status: StatusPending, Code: ErrCodeOf(err), Err: err}
}
