package shapes

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShape(t *testing.T) {
	s := Make(dtypes.Float32, 2, 3)
	assert.Equal(t, 2, s.Rank())
	assert.Equal(t, 6, s.Size())
	assert.Equal(t, 3, s.Dim(1))
	assert.Equal(t, 3, s.Dim(-1))
	assert.Equal(t, "(Float32)[2 3]", s.String())
	assert.True(t, s.Equal(Make(dtypes.Float32, 2, 3)))
	assert.False(t, s.Equal(Make(dtypes.Float64, 2, 3)))
	assert.False(t, s.Equal(Make(dtypes.Float32, 3, 2)))

	scalar := Scalar[float64]()
	assert.True(t, scalar.IsScalar())
	assert.Equal(t, 1, scalar.Size())
	assert.Equal(t, "(Float64)", scalar.String())

	assert.False(t, Invalid().Ok())
	require.Panics(t, func() { Make(dtypes.Float32, 2, 0) })
	require.Panics(t, func() { s.Dim(2) })

	clone := s.Clone()
	clone.Dimensions[0] = 7
	assert.Equal(t, 2, s.Dimensions[0])
}

func TestPartial(t *testing.T) {
	p := MakePartial(dtypes.Float32, 2, DynamicDim, 3)
	require.True(t, p.RankKnown)
	assert.Equal(t, 3, p.Rank())
	assert.False(t, p.IsStatic())
	assert.Equal(t, "(Float32)[2 ? 3]", p.String())
	_, ok := p.Static()
	assert.False(t, ok)

	dyn := DynamicRank(dtypes.Float32)
	assert.False(t, dyn.RankKnown)
	assert.Equal(t, "(Float32)[...]", dyn.String())
	require.Panics(t, func() { dyn.Rank() })
	assert.True(t, dyn.Equal(DynamicRank(dtypes.Float32)))
	assert.False(t, dyn.Equal(p))

	static := Make(dtypes.Float64, 4, 1).Partial()
	assert.True(t, static.IsStatic())
	s, ok := static.Static()
	require.True(t, ok)
	assert.True(t, s.Equal(Make(dtypes.Float64, 4, 1)))

	scalar := Make(dtypes.Float32).Partial()
	assert.True(t, scalar.IsScalar())
	assert.False(t, dyn.IsScalar())
}
