package fqmulfusion

// AbortReason says why the rule declined to rewrite one candidate binding.
// Every abort is local and non-fatal: the graph is left untouched and the
// matcher moves on to the next candidate.
type AbortReason int

//go:generate go tool enumer -type=AbortReason -trimprefix=Reason -output=gen_abortreason_enumer.go abortreason.go

const (
	// ReasonNone: the rewrite was applied.
	ReasonNone AbortReason = iota

	// ReasonNoMatch: the structural pattern did not occur at this node.
	ReasonNoMatch

	// ReasonUnsupportedScale: the multiplier could not be normalized to a
	// broadcast-safe representation (a non-uniform tensor while the data
	// rank is unknown).
	ReasonUnsupportedScale

	// ReasonConsumerConflict: a per-element scale would break a downstream
	// convolution-family consumer, which requires output_low/output_high to
	// carry identical values.
	ReasonConsumerConflict

	// ReasonExternalVeto: the injected acceptance callback declined the
	// candidate.
	ReasonExternalVeto

	// ReasonShapeMismatch: under numpy broadcasting the candidate's output
	// shape would not (provably) match the replaced Multiply's output shape.
	ReasonShapeMismatch

	// ReasonSpliceTypeError: an internal consistency check failed at final
	// replacement time.
	ReasonSpliceTypeError
)
