package graph

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tensoropt/tensoropt/types/shapes"
	"github.com/tensoropt/tensoropt/types/tensors"
)

func TestEvaluateMultiply(t *testing.T) {
	g := New("eval-mul")
	x := must.M1(g.Parameter("x", shapes.Make(dtypes.Float32, 2, 3).Partial()))
	c := g.Constant(tensors.FromFlat([]float32{1, 2, 3}, 3))
	mul := must.M1(g.Multiply(x, c))

	feed := tensors.FromFlat([]float32{1, 1, 1, 2, 2, 2}, 2, 3)
	results, err := g.Evaluate([]*Node{mul}, map[*Node]*tensors.Tensor{x: feed})
	require.NoError(t, err)
	want := tensors.FromFlat([]float32{1, 2, 3, 2, 4, 6}, 2, 3)
	assert.True(t, results[0].Equal(want), "got %s", results[0])

	_, err = g.Evaluate([]*Node{mul}, nil)
	require.Error(t, err, "missing feed")
}

func TestEvaluateFakeQuantize(t *testing.T) {
	g := New("eval-fq")
	x := must.M1(g.Parameter("x", shapes.Make(dtypes.Float64, 5).Partial()))
	inLow := g.Constant(tensors.FromScalar(0.0))
	inHigh := g.Constant(tensors.FromScalar(1.0))
	outLow := g.Constant(tensors.FromScalar(0.0))
	outHigh := g.Constant(tensors.FromScalar(10.0))
	fq := must.M1(g.FakeQuantize(x, inLow, inHigh, outLow, outHigh, 5, BroadcastNumpy))

	// levels=5 snaps to quarters of [0,1], mapped onto [0,10].
	feed := tensors.FromFlat([]float64{-1, 0.3, 0.5, 0.8, 2}, 5)
	results, err := g.Evaluate([]*Node{fq}, map[*Node]*tensors.Tensor{x: feed})
	require.NoError(t, err)
	want := tensors.FromFlat([]float64{0, 2.5, 5, 7.5, 10}, 5)
	assert.True(t, results[0].InDelta(want, 1e-9), "got %s", results[0])
}

func TestEvaluateReshapeAndMemo(t *testing.T) {
	g := New("eval-reshape")
	c := g.Constant(tensors.FromFlat([]float32{1, 2, 3, 4}, 4))
	r := must.M1(g.Reshape(c, 1, 4))
	mul := must.M1(g.Multiply(r, r))
	results, err := g.Evaluate([]*Node{mul, r}, nil)
	require.NoError(t, err)
	assert.True(t, results[0].Equal(tensors.FromFlat([]float32{1, 4, 9, 16}, 1, 4)))
	assert.True(t, results[1].Equal(tensors.FromFlat([]float32{1, 2, 3, 4}, 1, 4)))
}

func TestEvaluateConvolutionUnsupported(t *testing.T) {
	g := New("eval-conv")
	x := must.M1(g.Parameter("x", shapes.Make(dtypes.Float32, 1, 3, 8, 8).Partial()))
	filter := g.Constant(tensors.Uniform(dtypes.Float32, 0.5, 4, 3, 3, 3))
	conv := must.M1(g.Convolution(x, filter))
	_, err := g.Evaluate([]*Node{conv}, map[*Node]*tensors.Tensor{x: tensors.Uniform(dtypes.Float32, 1, 1, 3, 8, 8)})
	require.Error(t, err)
}

func TestTryFoldConstant(t *testing.T) {
	g := New("fold")
	a := g.Constant(tensors.FromFlat([]float32{1, 2}, 2))
	b := g.Constant(tensors.FromScalar(float32(3)))
	mul := must.M1(g.Multiply(a, b))

	folded := g.TryFoldConstant(mul)
	require.NotNil(t, folded)
	assert.True(t, folded.IsConstant())
	assert.True(t, folded.ConstValue().Equal(tensors.FromFlat([]float32{3, 6}, 2)))
	assert.Equal(t, mul.Name(), folded.Name())

	// Not foldable: depends on a parameter.
	x := must.M1(g.Parameter("x", shapes.Make(dtypes.Float32, 2).Partial()))
	live := must.M1(g.Multiply(x, a))
	assert.Nil(t, g.TryFoldConstant(live))

	// Constants themselves don't fold into new nodes.
	assert.Nil(t, g.TryFoldConstant(a))

	// Folding through a reshape.
	r := must.M1(g.Reshape(a, 1, 2))
	mulR := must.M1(g.Multiply(r, b))
	foldedR := g.TryFoldConstant(mulR)
	require.NotNil(t, foldedR)
	assert.True(t, foldedR.ConstValue().Equal(tensors.FromFlat([]float32{3, 6}, 1, 2)))
}
