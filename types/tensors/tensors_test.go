package tensors

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
)

func TestFromFlat(t *testing.T) {
	tensor := FromFlat([]float32{1, 2, 3, 4, 5, 6}, 2, 3)
	assert.Equal(t, dtypes.Float32, tensor.DType())
	assert.Equal(t, 2, tensor.Rank())
	assert.Equal(t, 6, tensor.Size())
	assert.Equal(t, 4.0, tensor.Float64(3))

	scalar := FromScalar(2.5)
	assert.Equal(t, dtypes.Float64, scalar.DType())
	assert.True(t, scalar.Shape().IsScalar())
	assert.Equal(t, 2.5, scalar.Float64(0))

	require.Panics(t, func() { FromFlat([]float32{1, 2, 3}, 2, 2) })
}

func TestFromFloat64s(t *testing.T) {
	for _, dtype := range []dtypes.DType{dtypes.Float32, dtypes.Float64, dtypes.Float16, dtypes.Int32} {
		tensor, err := FromFloat64s(dtype, []float64{0, 1, 2}, 3)
		require.NoError(t, err, "dtype %s", dtype)
		assert.Equal(t, dtype, tensor.DType())
		assert.Equal(t, 2.0, tensor.Float64(2), "dtype %s", dtype)
	}
	_, err := FromFloat64s(dtypes.Float32, []float64{0, 1}, 3)
	require.Error(t, err)
	_, err = FromFloat64s(dtypes.Complex64, []float64{0}, 1)
	require.Error(t, err)
}

func TestUniformValue(t *testing.T) {
	v, uniform := FromFlat([]float32{3, 3, 3}, 3).UniformValue()
	require.True(t, uniform)
	assert.Equal(t, 3.0, v)

	_, uniform = FromFlat([]float32{3, 3, 4}, 3).UniformValue()
	assert.False(t, uniform)

	v, uniform = FromScalar(float16.Fromfloat32(0.5)).UniformValue()
	require.True(t, uniform)
	assert.Equal(t, 0.5, v)

	u := Uniform(dtypes.Float64, 1.5, 2, 2)
	v, uniform = u.UniformValue()
	require.True(t, uniform)
	assert.Equal(t, 1.5, v)
}

func TestReshapedAndEqual(t *testing.T) {
	tensor := FromFlat([]float32{1, 2, 3, 4}, 4)
	reshaped, err := tensor.Reshaped(1, 1, 4)
	require.NoError(t, err)
	assert.Equal(t, 3, reshaped.Rank())
	assert.Equal(t, 2.0, reshaped.Float64(1))

	_, err = tensor.Reshaped(3)
	require.Error(t, err)

	assert.True(t, tensor.Equal(FromFlat([]float32{1, 2, 3, 4}, 4)))
	assert.False(t, tensor.Equal(FromFlat([]float32{1, 2, 3, 5}, 4)))
	assert.False(t, tensor.Equal(FromFlat([]float32{1, 2, 3, 4}, 2, 2)))

	f64 := FromFlat([]float64{1, 2, 3, 4}, 4)
	assert.True(t, tensor.InDelta(f64, 1e-6))
}

func TestData(t *testing.T) {
	tensor := FromFlat([]int32{7, 8}, 2)
	assert.Equal(t, []int32{7, 8}, Data[int32](tensor))
	require.Panics(t, func() { Data[float32](tensor) })
}
