package fqmulfusion

import (
	"github.com/tensoropt/tensoropt/graph"
	"github.com/tensoropt/tensoropt/types/tensors"
)

// normalizedScale is the multiplier in a broadcast-safe form.
type normalizedScale struct {
	// node is the operand to multiply the ranges by: the original constant,
	// a canonical single-element constant, or a reshape of the original.
	node *graph.Node

	// uniform is true when the scale holds a single value (possibly
	// repeated), in which case it cannot break range symmetry.
	uniform bool
}

// normalizeScale reduces the matched multiplier constant to a broadcast-safe
// multiplier for the quantize ranges:
//
//   - single-element constants pass through as scalars;
//   - multi-element constants holding one repeated value are canonicalized
//     to a fresh rank-1, one-element constant;
//   - genuinely multi-valued constants are left-padded with 1-sized axes up
//     to the data rank, materialized as an explicit Reshape of the constant
//     (the original is never mutated -- it may have other consumers).
//
// A multi-valued constant with unknown data rank cannot be made
// broadcast-safe: ok is false and the caller aborts with UnsupportedScale.
// Any node created on the way is recorded in created.
func normalizeScale(g *graph.Graph, b *binding, created *[]*graph.Node) (scale normalizedScale, ok bool) {
	value := b.mulConstant.ConstValue()
	if value.Size() == 1 {
		return normalizedScale{node: b.mulConstant, uniform: true}, true
	}
	if uniformValue, uniform := value.UniformValue(); uniform {
		canonical := g.Constant(tensors.Uniform(value.DType(), uniformValue, 1))
		*created = append(*created, canonical)
		return normalizedScale{node: canonical, uniform: true}, true
	}

	dataShape := b.data.Shape()
	if !dataShape.RankKnown {
		return normalizedScale{}, false
	}
	diff := dataShape.Rank() - value.Rank()
	if diff <= 0 {
		return normalizedScale{node: b.mulConstant, uniform: false}, true
	}
	padded := make([]int, 0, dataShape.Rank())
	for range diff {
		padded = append(padded, 1)
	}
	padded = append(padded, value.Shape().Dimensions...)
	reshape, err := g.Reshape(b.mulConstant, padded...)
	if err != nil {
		return normalizedScale{}, false
	}
	*created = append(*created, reshape)
	return normalizedScale{node: reshape, uniform: false}, true
}
