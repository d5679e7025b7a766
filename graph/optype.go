package graph

// OpType enumerates the node variants of the IR.
//
// This is a closed set: rewrite passes match on it exhaustively, so new
// variants are added here deliberately, never through open-ended extension.
type OpType int

//go:generate go tool enumer -type=OpType -trimprefix=OpType -output=gen_optype_enumer.go optype.go

const (
	OpTypeInvalid OpType = iota

	// OpTypeParameter is a graph input: a value fed at execution time. Its
	// shape may be partially unknown (dynamic rank or dynamic dimensions).
	OpTypeParameter

	// OpTypeConstant wraps an immutable tensors.Tensor.
	OpTypeConstant

	// OpTypeMultiply is elementwise multiplication of its 2 inputs.
	OpTypeMultiply

	// OpTypeFakeQuantize clamps its data input to [input_low, input_high] and
	// discretizes it into Levels steps mapped to [output_low, output_high].
	// It takes exactly 5 inputs: data, input_low, input_high, output_low,
	// output_high.
	OpTypeFakeQuantize

	// OpTypeReshape reinterprets its input with new dimensions, preserving
	// the element count.
	OpTypeReshape

	// OpTypeConvolution is a 2D convolution, data in NCHW layout and filter
	// in OIHW layout.
	OpTypeConvolution

	// OpTypeGroupConvolution is a grouped 2D convolution, filter in GOIHW
	// layout.
	OpTypeGroupConvolution
)

// BroadcastMode governs how operands of differing shapes are aligned for
// elementwise operations.
type BroadcastMode int

//go:generate go tool enumer -type=BroadcastMode -trimprefix=Broadcast -output=gen_broadcastmode_enumer.go optype.go

const (
	// BroadcastNone performs no implicit broadcasting: non-data operands must
	// either match the data shape or hold a single element.
	BroadcastNone BroadcastMode = iota

	// BroadcastNumpy aligns operand shapes from the right and stretches
	// 1-sized axes, numpy style.
	BroadcastNumpy
)
