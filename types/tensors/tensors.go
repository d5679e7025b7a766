/*
 *	Copyright 2026 The TensorOpt Authors
 *
 *	Licensed under the Apache License, Version 2.0 (the "License");
 *	you may not use this file except in compliance with the License.
 *	You may obtain a copy of the License at
 *
 *	http://www.apache.org/licenses/LICENSE-2.0
 *
 *	Unless required by applicable law or agreed to in writing, software
 *	distributed under the License is distributed on an "AS IS" BASIS,
 *	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *	See the License for the specific language governing permissions and
 *	limitations under the License.
 */

// Package tensors implements the immutable constant tensors carried by
// Constant nodes in the computation graph.
//
// A Tensor is a static shape plus flat data in row-major order. Supported
// dtypes are Float32, Float64, Float16 (see github.com/x448/float16) and
// Int32 -- the types that show up in quantized inference graphs. Tensors are
// immutable once created: graph rewrites never modify a constant in place,
// they build new ones.
package tensors

import (
	"fmt"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
	"github.com/x448/float16"

	"github.com/tensoropt/tensoropt/types/shapes"
)

// Supported are the Go types a Tensor can hold.
type Supported interface {
	float32 | float64 | float16.Float16 | int32
}

// Tensor is an immutable constant tensor: a static shape plus flat data in
// row-major order.
type Tensor struct {
	shape shapes.Shape
	flat  any // []float32, []float64, []float16.Float16 or []int32
}

// FromFlat creates a Tensor from a flat slice and dimensions. The dtype is
// derived from the element type. It panics if the slice length doesn't match
// the shape size; that is a programming error, not data-dependent.
func FromFlat[T Supported](flat []T, dimensions ...int) *Tensor {
	shape := shapes.Make(dtypeFor[T](), dimensions...)
	if len(flat) != shape.Size() {
		exceptions.Panicf("tensors.FromFlat: got %d elements for shape %s (size %d)", len(flat), shape, shape.Size())
	}
	return &Tensor{shape: shape, flat: append([]T(nil), flat...)}
}

// FromScalar creates a rank-0 Tensor holding a single value.
func FromScalar[T Supported](value T) *Tensor {
	return FromFlat([]T{value})
}

// Uniform creates a Tensor of the given dtype and dimensions with every
// element set to value (converted to the dtype).
func Uniform(dtype dtypes.DType, value float64, dimensions ...int) *Tensor {
	shape := shapes.Make(dtype, dimensions...)
	values := make([]float64, shape.Size())
	for i := range values {
		values[i] = value
	}
	t, err := FromFloat64s(dtype, values, dimensions...)
	if err != nil {
		panic(err)
	}
	return t
}

// FromFloat64s creates a Tensor of the given dtype, converting each value.
// This is the constructor used by the constant-folding evaluator, which
// computes in float64 and materializes in the result dtype.
func FromFloat64s(dtype dtypes.DType, values []float64, dimensions ...int) (*Tensor, error) {
	shape := shapes.Make(dtype, dimensions...)
	if len(values) != shape.Size() {
		return nil, errors.Errorf("tensors.FromFloat64s: got %d elements for shape %s (size %d)", len(values), shape, shape.Size())
	}
	switch dtype {
	case dtypes.Float32:
		flat := make([]float32, len(values))
		for i, v := range values {
			flat[i] = float32(v)
		}
		return &Tensor{shape: shape, flat: flat}, nil
	case dtypes.Float64:
		return &Tensor{shape: shape, flat: append([]float64(nil), values...)}, nil
	case dtypes.Float16:
		flat := make([]float16.Float16, len(values))
		for i, v := range values {
			flat[i] = float16.Fromfloat32(float32(v))
		}
		return &Tensor{shape: shape, flat: flat}, nil
	case dtypes.Int32:
		flat := make([]int32, len(values))
		for i, v := range values {
			flat[i] = int32(v)
		}
		return &Tensor{shape: shape, flat: flat}, nil
	default:
		return nil, errors.Errorf("tensors.FromFloat64s: dtype %s not supported", dtype)
	}
}

// Shape returns the tensor's static shape.
func (t *Tensor) Shape() shapes.Shape { return t.shape }

// DType returns the tensor's element type.
func (t *Tensor) DType() dtypes.DType { return t.shape.DType }

// Rank returns the tensor's number of axes.
func (t *Tensor) Rank() int { return t.shape.Rank() }

// Size returns the number of elements.
func (t *Tensor) Size() int { return t.shape.Size() }

// Float64 returns the element at the given flat (row-major) index, converted
// to float64. It panics on out-of-bounds indices.
func (t *Tensor) Float64(flatIdx int) float64 {
	switch flat := t.flat.(type) {
	case []float32:
		return float64(flat[flatIdx])
	case []float64:
		return flat[flatIdx]
	case []float16.Float16:
		return float64(flat[flatIdx].Float32())
	case []int32:
		return float64(flat[flatIdx])
	}
	exceptions.Panicf("Tensor.Float64: unsupported flat data %T", t.flat)
	return 0
}

// Data returns the flat data of the tensor. The caller must treat the
// returned slice as read-only: it aliases the tensor's storage. It panics if
// T doesn't match the tensor's dtype.
func Data[T Supported](t *Tensor) []T {
	flat, ok := t.flat.([]T)
	if !ok {
		exceptions.Panicf("tensors.Data[%T]: tensor holds %s", flat, t.shape.DType)
	}
	return flat
}

// UniformValue reports whether every element holds the same value, returning
// that value (as float64) if so. A size-1 tensor is trivially uniform.
//
// This is how a per-channel multiplier that happens to repeat one value is
// recognized as a scalar in disguise.
func (t *Tensor) UniformValue() (value float64, uniform bool) {
	value = t.Float64(0)
	for i := 1; i < t.Size(); i++ {
		if t.Float64(i) != value {
			return 0, false
		}
	}
	return value, true
}

// Reshaped returns a tensor sharing this tensor's data with new dimensions.
// The element count must be preserved.
func (t *Tensor) Reshaped(dimensions ...int) (*Tensor, error) {
	shape := shapes.Make(t.shape.DType, dimensions...)
	if shape.Size() != t.Size() {
		return nil, errors.Errorf("Tensor.Reshaped: cannot reshape %s to %s, element counts differ", t.shape, shape)
	}
	return &Tensor{shape: shape, flat: t.flat}, nil
}

// Equal compares shape and every element for exact equality.
func (t *Tensor) Equal(other *Tensor) bool {
	if !t.shape.Equal(other.shape) {
		return false
	}
	for i := 0; i < t.Size(); i++ {
		if t.Float64(i) != other.Float64(i) {
			return false
		}
	}
	return true
}

// InDelta compares shape (ignoring dtype) and every element within delta.
// Used by tests comparing a rewritten graph's output against the original.
func (t *Tensor) InDelta(other *Tensor, delta float64) bool {
	if t.Rank() != other.Rank() {
		return false
	}
	for axis, dim := range t.shape.Dimensions {
		if other.shape.Dimensions[axis] != dim {
			return false
		}
	}
	for i := 0; i < t.Size(); i++ {
		diff := t.Float64(i) - other.Float64(i)
		if diff < -delta || diff > delta {
			return false
		}
	}
	return true
}

// String implements fmt.Stringer. Large tensors are elided.
func (t *Tensor) String() string {
	const maxElements = 16
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s{", t.shape)
	n := min(t.Size(), maxElements)
	for i := range n {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%g", t.Float64(i))
	}
	if t.Size() > maxElements {
		sb.WriteString(", ...")
	}
	sb.WriteString("}")
	return sb.String()
}

// dtypeFor maps the generic parameter to its DType.
func dtypeFor[T Supported]() dtypes.DType {
	var v T
	switch any(v).(type) {
	case float32:
		return dtypes.Float32
	case float64:
		return dtypes.Float64
	case float16.Float16:
		return dtypes.Float16
	case int32:
		return dtypes.Int32
	}
	exceptions.Panicf("tensors: unsupported Go type %T", v)
	return dtypes.InvalidDType
}
