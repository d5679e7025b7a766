package passes_test

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tensoropt/tensoropt/graph"
	"github.com/tensoropt/tensoropt/passes"
	"github.com/tensoropt/tensoropt/types/shapes"
	"github.com/tensoropt/tensoropt/types/tensors"
)

func TestDeadNodes(t *testing.T) {
	g := graph.New("dead")
	x := must.M1(g.Parameter("x", shapes.Make(dtypes.Float32, 2).Partial()))
	c := g.Constant(tensors.FromFlat([]float32{2, 2}, 2))
	kept := must.M1(g.Multiply(x, c))
	// A dead chain: the inner multiply is only consumed by the outer one.
	deadInner := must.M1(g.Multiply(x, c))
	deadOuter := must.M1(g.Multiply(deadInner, c))
	_ = deadOuter
	require.NoError(t, g.SetOutputs(kept))

	changed, err := passes.DeadNodes{}.Run(g)
	require.NoError(t, err)
	assert.True(t, changed)
	// One reverse sweep removes the whole chain.
	assert.Equal(t, 3, g.NumNodes())
	assert.False(t, kept.IsDead())
	assert.True(t, deadInner.IsDead())
	assert.True(t, deadOuter.IsDead())

	changed, err = passes.DeadNodes{}.Run(g)
	require.NoError(t, err)
	assert.False(t, changed, "second run is a no-op")
}

// flipPass reports a change the first n times it runs.
type flipPass struct{ remaining int }

func (f *flipPass) Name() string { return "flip" }

func (f *flipPass) Run(*graph.Graph) (bool, error) {
	if f.remaining > 0 {
		f.remaining--
		return true, nil
	}
	return false, nil
}

func TestManagerFixedPoint(t *testing.T) {
	g := graph.New("manager")
	changed, err := passes.NewManager(&flipPass{remaining: 3}).Run(g)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = passes.NewManager(&flipPass{}).Run(g)
	require.NoError(t, err)
	assert.False(t, changed)

	// A pass that never settles trips the iteration cap.
	_, err = passes.NewManager(&flipPass{remaining: 1 << 30}).WithMaxRounds(5).Run(g)
	require.Error(t, err)
}
