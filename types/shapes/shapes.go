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

// Package shapes defines the static Shape and the Partial shape used by the
// computation graph IR.
//
// Shape describes a fully known tensor layout: a DType (see
// github.com/gomlx/gopjrt/dtypes) plus the dimension of every axis. Partial
// describes the statically inferred layout of a graph value, where the rank
// or individual dimensions may still be unknown before shape propagation
// completes.
//
// ## Glossary
//
//   - Rank: number of axes of a tensor. A scalar has rank 0.
//   - Axis: the index of a dimension. Axis 0 is the leading (slowest varying)
//     dimension.
//   - Dimension: the size of one axis.
//   - DType: the data type of the unit element of a tensor.
package shapes

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
)

// Shape represents the fully known shape of a tensor: dtype and the dimension
// of every axis.
//
// Use Make to create one. Shape is a value type: pass it by value, and use
// Clone if you need an independent Dimensions slice.
type Shape struct {
	DType      dtypes.DType
	Dimensions []int
}

// Make returns a Shape with the given dtype and dimensions.
// A call without dimensions creates a scalar shape.
// It panics if any dimension is <= 0 -- use Partial for unknown dimensions.
func Make(dtype dtypes.DType, dimensions ...int) Shape {
	s := Shape{DType: dtype, Dimensions: slices.Clone(dimensions)}
	for _, dim := range dimensions {
		if dim <= 0 {
			exceptions.Panicf("shapes.Make(%s): cannot create a shape with an axis with dimension <= 0", s)
		}
	}
	return s
}

// Scalar returns a scalar Shape for the Go type given.
func Scalar[T dtypes.Supported]() Shape {
	return Shape{DType: dtypes.FromGenericsType[T]()}
}

// Invalid returns an invalid shape: Invalid().Ok() == false.
func Invalid() Shape { return Shape{DType: dtypes.InvalidDType} }

// Ok returns whether this is a valid shape.
func (s Shape) Ok() bool { return s.DType != dtypes.InvalidDType }

// Rank of the shape, that is, its number of axes.
func (s Shape) Rank() int { return len(s.Dimensions) }

// IsScalar returns whether the shape has rank 0.
func (s Shape) IsScalar() bool { return s.Ok() && s.Rank() == 0 }

// Dim returns the dimension of the given axis. Negative axes count from the
// end, so Dim(-1) is the last axis. It panics on an out-of-bounds axis.
func (s Shape) Dim(axis int) int {
	adjusted := axis
	if adjusted < 0 {
		adjusted += s.Rank()
	}
	if adjusted < 0 || adjusted >= s.Rank() {
		exceptions.Panicf("Shape.Dim(%d) out-of-bounds for rank %d (shape=%s)", axis, s.Rank(), s)
	}
	return s.Dimensions[adjusted]
}

// Size returns the number of elements held by this shape: the product of all
// dimensions. A scalar has size 1.
func (s Shape) Size() (size int) {
	size = 1
	for _, d := range s.Dimensions {
		size *= d
	}
	return
}

// Equal compares dtype and dimensions.
func (s Shape) Equal(s2 Shape) bool {
	if s.DType != s2.DType || s.Rank() != s2.Rank() {
		return false
	}
	return slices.Equal(s.Dimensions, s2.Dimensions)
}

// Clone returns a deep copy of the shape.
func (s Shape) Clone() Shape {
	return Shape{DType: s.DType, Dimensions: slices.Clone(s.Dimensions)}
}

// Shape returns a shallow copy of itself. It implements the HasShape interface.
func (s Shape) Shape() Shape { return s }

// String implements fmt.Stringer, pretty-printing the shape as e.g.
// "(Float32)[2 3]".
func (s Shape) String() string {
	if s.Rank() == 0 {
		return fmt.Sprintf("(%s)", s.DType)
	}
	return fmt.Sprintf("(%s)%v", s.DType, s.Dimensions)
}

// HasShape is implemented by anything that can report its static Shape:
// tensors, constant graph nodes, or a Shape itself.
type HasShape interface {
	Shape() Shape
}

// dimsString is shared by Shape and Partial printing.
func dimsString(dims []int) string {
	parts := make([]string, len(dims))
	for i, d := range dims {
		if d == DynamicDim {
			parts[i] = "?"
		} else {
			parts[i] = fmt.Sprintf("%d", d)
		}
	}
	return "[" + strings.Join(parts, " ") + "]"
}
