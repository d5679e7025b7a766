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

func TestBuildAndConsumers(t *testing.T) {
	g := New("build")
	data := must.M1(g.Parameter("data", shapes.Make(dtypes.Float32, 1, 3, 4, 4).Partial()))
	low := g.Constant(tensors.FromScalar(float32(0)))
	high := g.Constant(tensors.FromScalar(float32(1)))
	fq := must.M1(g.FakeQuantize(data, low, high, low, high, 256, BroadcastNumpy))
	scale := g.Constant(tensors.FromScalar(float32(2)))
	mul := must.M1(g.Multiply(fq, scale))
	require.NoError(t, g.SetOutputs(mul))

	assert.Equal(t, OpTypeFakeQuantize, fq.Type())
	assert.Equal(t, 5, fq.NumInputs())
	assert.Equal(t, 256, fq.Levels())
	mode, ok := fq.Broadcast()
	require.True(t, ok)
	assert.Equal(t, BroadcastNumpy, mode)
	_, ok = data.Broadcast()
	assert.False(t, ok)

	assert.Equal(t, 1, fq.ConsumerCount())
	assert.Equal(t, []*Node{mul}, fq.Consumers())
	// low feeds two FakeQuantize ports: one consumer entry per use.
	assert.Equal(t, 2, low.ConsumerCount())
	assert.Equal(t, 0, mul.ConsumerCount())
	assert.True(t, g.IsOutput(mul))

	static, ok := fq.Shape().Static()
	require.True(t, ok)
	assert.True(t, static.Equal(shapes.Make(dtypes.Float32, 1, 3, 4, 4)))
}

func TestConstructorErrors(t *testing.T) {
	g := New("errors")
	x := must.M1(g.Parameter("x", shapes.Make(dtypes.Float32, 2).Partial()))
	y := must.M1(g.Parameter("y", shapes.Make(dtypes.Float64, 2).Partial()))
	_, err := g.Multiply(x, y)
	require.Error(t, err, "dtype mismatch")

	z := must.M1(g.Parameter("z", shapes.Make(dtypes.Float32, 3).Partial()))
	_, err = g.Multiply(x, z)
	require.Error(t, err, "incompatible dimensions")

	low := g.Constant(tensors.FromScalar(float32(0)))
	_, err = g.FakeQuantize(x, low, low, low, low, 1, BroadcastNumpy)
	require.Error(t, err, "levels too small")

	other := New("other")
	w := must.M1(other.Parameter("w", shapes.Make(dtypes.Float32, 2).Partial()))
	_, err = g.Multiply(x, w)
	require.Error(t, err, "node from another graph")

	_, err = g.Reshape(x, 3)
	require.Error(t, err, "element count changes")
}

func TestReplaceAllUsesWith(t *testing.T) {
	g := New("replace")
	x := must.M1(g.Parameter("x", shapes.Make(dtypes.Float32, 2).Partial()))
	a := g.Constant(tensors.FromFlat([]float32{2, 2}, 2))
	b := g.Constant(tensors.FromFlat([]float32{3, 3}, 2))
	mulA := must.M1(g.Multiply(x, a))
	consumer := must.M1(g.Multiply(mulA, mulA))
	require.NoError(t, g.SetOutputs(mulA))

	require.NoError(t, g.ReplaceAllUsesWith(mulA, b))
	assert.Equal(t, 0, mulA.ConsumerCount())
	assert.Equal(t, 2, b.ConsumerCount())
	assert.Equal(t, b, consumer.Input(0))
	assert.Equal(t, b, consumer.Input(1))
	assert.True(t, g.IsOutput(b), "output designation moves too")
	assert.False(t, g.IsOutput(mulA))

	require.Error(t, g.ReplaceAllUsesWith(mulA, mulA))
	f64 := g.Constant(tensors.FromScalar(2.0))
	require.Error(t, g.ReplaceAllUsesWith(b, f64), "element type mismatch")
}

func TestRemoveDeadNode(t *testing.T) {
	g := New("remove")
	x := must.M1(g.Parameter("x", shapes.Make(dtypes.Float32, 2).Partial()))
	c := g.Constant(tensors.FromFlat([]float32{2, 2}, 2))
	mul := must.M1(g.Multiply(x, c))
	require.NoError(t, g.SetOutputs(mul))

	require.Error(t, g.RemoveDeadNode(c), "still consumed")
	require.Error(t, g.RemoveDeadNode(mul), "graph output")

	require.NoError(t, g.SetOutputs())
	require.NoError(t, g.RemoveDeadNode(mul))
	assert.True(t, mul.IsDead())
	assert.Equal(t, 2, g.NumNodes())
	assert.Equal(t, 0, c.ConsumerCount())
	require.Error(t, g.RemoveDeadNode(mul), "already removed")

	require.NoError(t, g.RemoveDeadNode(c))
	require.NoError(t, g.RemoveDeadNode(x))
	assert.Equal(t, 0, g.NumNodes())
}

func TestCloneWithNewInputs(t *testing.T) {
	g := New("clone")
	data := must.M1(g.Parameter("data", shapes.Make(dtypes.Float32, 1, 3).Partial()))
	low := g.Constant(tensors.FromScalar(float32(0)))
	high := g.Constant(tensors.FromScalar(float32(1)))
	fq := must.M1(g.FakeQuantize(data, low, high, low, high, 16, BroadcastNumpy))

	newHigh := g.Constant(tensors.FromScalar(float32(2)))
	clone := must.M1(fq.CloneWithNewInputs(data, low, high, low, newHigh))
	assert.Equal(t, OpTypeFakeQuantize, clone.Type())
	assert.Equal(t, 16, clone.Levels())
	assert.Equal(t, newHigh, clone.Input(4))
	assert.NotEqual(t, fq.ID(), clone.ID())

	_, err := fq.CloneWithNewInputs(data, low)
	require.Error(t, err, "wrong arity")
	_, err = data.CloneWithNewInputs()
	require.Error(t, err, "parameters cannot be cloned with new inputs")

	// Re-inference picks up the new input shapes.
	wide := g.Constant(tensors.FromFlat([]float32{1, 2, 3}, 1, 3))
	mul := must.M1(g.Multiply(data, low))
	clone2 := must.M1(mul.CloneWithNewInputs(data, wide))
	static, ok := clone2.Shape().Static()
	require.True(t, ok)
	assert.True(t, static.Equal(shapes.Make(dtypes.Float32, 1, 3)))
}

func TestProvenance(t *testing.T) {
	g := New("provenance")
	x := must.M1(g.Parameter("x", shapes.Make(dtypes.Float32, 2).Partial()))
	c := g.ConstantWithName("scale", tensors.FromFlat([]float32{2, 2}, 2))
	mul := must.M1(g.Multiply(x, c))
	mul.SetName("scaled")

	replacement := g.Constant(tensors.FromFlat([]float32{4, 4}, 2))
	CopyProvenance([]*Node{mul, c}, replacement)
	assert.Equal(t, []string{"scaled", "scale"}, replacement.Provenance())

	// Provenance chains and deduplicates.
	next := g.Constant(tensors.FromFlat([]float32{8, 8}, 2))
	CopyProvenance([]*Node{replacement, mul}, next)
	assert.Equal(t, []string{"scaled", "scale", replacement.Name()}, next.Provenance())
}
