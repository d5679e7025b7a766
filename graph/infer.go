package graph

// Shape inference over partial shapes. Unknown ranks and dimensions
// propagate: an operand of unknown rank makes the result rank unknown, a
// dynamic dimension broadcast against a non-1 dimension stays dynamic.

import (
	"github.com/pkg/errors"

	"github.com/tensoropt/tensoropt/types/shapes"
)

// inferNumpyBinary applies numpy broadcasting rules to a pair of operand
// shapes: align from the right, missing leading axes count as 1, and a
// 1-sized axis stretches to the other operand's dimension.
func inferNumpyBinary(lhs, rhs shapes.Partial) (shapes.Partial, error) {
	if lhs.DType != rhs.DType {
		return shapes.Partial{}, errors.Errorf("element types must match, got %s and %s", lhs, rhs)
	}
	if !lhs.RankKnown || !rhs.RankKnown {
		return shapes.DynamicRank(lhs.DType), nil
	}
	rank := max(lhs.Rank(), rhs.Rank())
	dims := make([]int, rank)
	for axis := 1; axis <= rank; axis++ {
		lhsDim, rhsDim := 1, 1
		if axis <= lhs.Rank() {
			lhsDim = lhs.Dimensions[lhs.Rank()-axis]
		}
		if axis <= rhs.Rank() {
			rhsDim = rhs.Dimensions[rhs.Rank()-axis]
		}
		dim, err := broadcastDim(lhsDim, rhsDim)
		if err != nil {
			return shapes.Partial{}, errors.WithMessagef(err, "axis %d (from the right) of %s and %s", axis, lhs, rhs)
		}
		dims[rank-axis] = dim
	}
	return shapes.Partial{DType: lhs.DType, Dimensions: dims, RankKnown: true}, nil
}

// broadcastDim resolves one axis of a numpy broadcast; either dimension may
// be DynamicDim.
func broadcastDim(a, b int) (int, error) {
	switch {
	case a == 1:
		return b, nil
	case b == 1:
		return a, nil
	case a == b:
		return a, nil
	// An unknown dimension stays unknown: it may still fail to broadcast at
	// runtime, so the result must not claim a static dimension.
	case a == shapes.DynamicDim || b == shapes.DynamicDim:
		return shapes.DynamicDim, nil
	}
	return 0, errors.Errorf("dimensions %d and %d cannot be broadcast", a, b)
}

// sizeOneOrScalar reports whether a shape is statically known to hold a
// single element (a scalar or any all-1 shape).
func sizeOneOrScalar(p shapes.Partial) bool {
	if !p.RankKnown {
		return false
	}
	for _, dim := range p.Dimensions {
		if dim != 1 {
			return false
		}
	}
	return true
}

// inferNoneBinary applies BroadcastNone rules: the operand shapes must match
// exactly, except that single-element operands are accepted anywhere.
func inferNoneBinary(lhs, rhs shapes.Partial) (shapes.Partial, error) {
	if lhs.DType != rhs.DType {
		return shapes.Partial{}, errors.Errorf("element types must match, got %s and %s", lhs, rhs)
	}
	if sizeOneOrScalar(rhs) {
		return lhs.Clone(), nil
	}
	if sizeOneOrScalar(lhs) {
		return rhs.Clone(), nil
	}
	if !lhs.RankKnown || !rhs.RankKnown {
		return shapes.DynamicRank(lhs.DType), nil
	}
	if lhs.Rank() != rhs.Rank() {
		return shapes.Partial{}, errors.Errorf("broadcast mode None requires matching shapes, got %s and %s", lhs, rhs)
	}
	dims := make([]int, lhs.Rank())
	for axis := range dims {
		a, b := lhs.Dimensions[axis], rhs.Dimensions[axis]
		switch {
		case a == b:
			dims[axis] = a
		case a == shapes.DynamicDim || b == shapes.DynamicDim:
			dims[axis] = shapes.DynamicDim
		default:
			return shapes.Partial{}, errors.Errorf("broadcast mode None requires matching shapes, got %s and %s", lhs, rhs)
		}
	}
	return shapes.Partial{DType: lhs.DType, Dimensions: dims, RankKnown: true}, nil
}

func inferBinary(mode BroadcastMode, lhs, rhs shapes.Partial) (shapes.Partial, error) {
	if mode == BroadcastNumpy {
		return inferNumpyBinary(lhs, rhs)
	}
	return inferNoneBinary(lhs, rhs)
}

func inferMultiply(mode BroadcastMode, lhs, rhs shapes.Partial) (shapes.Partial, error) {
	return inferBinary(mode, lhs, rhs)
}

// inferFakeQuantize folds the binary broadcast over all 5 operands: the
// output shape covers the data and every range operand.
func inferFakeQuantize(mode BroadcastMode, data, inLow, inHigh, outLow, outHigh shapes.Partial) (shapes.Partial, error) {
	result := data.Clone()
	for idx, operand := range []shapes.Partial{inLow, inHigh, outLow, outHigh} {
		var err error
		result, err = inferBinary(mode, result, operand)
		if err != nil {
			return shapes.Partial{}, errors.WithMessagef(err, "range operand #%d", idx+1)
		}
	}
	return result, nil
}

func inferReshape(x shapes.Partial, dimensions []int) (shapes.Partial, error) {
	target := shapes.MakePartial(x.DType, dimensions...)
	if !target.IsStatic() {
		return shapes.Partial{}, errors.Errorf("target dimensions %v must be fully known", dimensions)
	}
	if static, ok := x.Static(); ok {
		targetStatic, _ := target.Static()
		if static.Size() != targetStatic.Size() {
			return shapes.Partial{}, errors.Errorf("cannot reshape %s to %v, element counts differ", x, dimensions)
		}
	}
	return target, nil
}

// inferConvolution: data NCHW, filter OIHW, stride 1, no padding.
func inferConvolution(data, filter shapes.Partial, groups int) (shapes.Partial, error) {
	if data.DType != filter.DType {
		return shapes.Partial{}, errors.Errorf("element types must match, got %s and %s", data, filter)
	}
	if !data.RankKnown || !filter.RankKnown {
		return shapes.DynamicRank(data.DType), nil
	}
	if data.Rank() != 4 || filter.Rank() != 4 {
		return shapes.Partial{}, errors.Errorf("expected rank-4 data (NCHW) and filter (OIHW), got %s and %s", data, filter)
	}
	return convOutputShape(data, filter.Dimensions[0], filter.Dimensions[2], filter.Dimensions[3])
}

// inferGroupConvolution: data NCHW, filter GOIHW.
func inferGroupConvolution(data, filter shapes.Partial) (shapes.Partial, error) {
	if data.DType != filter.DType {
		return shapes.Partial{}, errors.Errorf("element types must match, got %s and %s", data, filter)
	}
	if !data.RankKnown || !filter.RankKnown {
		return shapes.DynamicRank(data.DType), nil
	}
	if data.Rank() != 4 || filter.Rank() != 5 {
		return shapes.Partial{}, errors.Errorf("expected rank-4 data (NCHW) and rank-5 filter (GOIHW), got %s and %s", data, filter)
	}
	outChannels := shapes.DynamicDim
	if filter.Dimensions[0] != shapes.DynamicDim && filter.Dimensions[1] != shapes.DynamicDim {
		outChannels = filter.Dimensions[0] * filter.Dimensions[1]
	}
	return convOutputShape(data, outChannels, filter.Dimensions[3], filter.Dimensions[4])
}

func convOutputShape(data shapes.Partial, outChannels, kernelH, kernelW int) (shapes.Partial, error) {
	dims := []int{data.Dimensions[0], outChannels, shapes.DynamicDim, shapes.DynamicDim}
	for i, kernel := range []int{kernelH, kernelW} {
		in := data.Dimensions[2+i]
		if in == shapes.DynamicDim || kernel == shapes.DynamicDim {
			continue
		}
		out := in - kernel + 1
		if out <= 0 {
			return shapes.Partial{}, errors.Errorf("kernel %d larger than input %d on spatial axis %d", kernel, in, i)
		}
		dims[2+i] = out
	}
	return shapes.Partial{DType: data.DType, Dimensions: dims, RankKnown: true}, nil
}
