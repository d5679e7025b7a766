package shapes

import (
	"fmt"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
)

// DynamicDim marks an axis whose dimension is not statically known in a
// Partial shape.
const DynamicDim = -1

// Partial represents the statically inferred shape of a graph value. Unlike
// Shape, the rank itself may be unknown (before shape propagation resolves
// it), and any individual dimension may be DynamicDim.
//
// Use MakePartial, DynamicRank or Shape.Partial to create one.
type Partial struct {
	DType dtypes.DType

	// Dimensions per axis, DynamicDim where unknown. Only meaningful if
	// RankKnown.
	Dimensions []int

	// RankKnown distinguishes a scalar (rank 0, RankKnown) from a value of
	// unknown rank (RankKnown == false).
	RankKnown bool
}

// MakePartial returns a Partial with known rank; dimensions may include
// DynamicDim. It panics on dimensions that are neither positive nor
// DynamicDim.
func MakePartial(dtype dtypes.DType, dimensions ...int) Partial {
	p := Partial{DType: dtype, Dimensions: append([]int(nil), dimensions...), RankKnown: true}
	for _, dim := range dimensions {
		if dim <= 0 && dim != DynamicDim {
			exceptions.Panicf("shapes.MakePartial(%s): dimensions must be positive or DynamicDim", p)
		}
	}
	return p
}

// DynamicRank returns a Partial whose rank is unknown.
func DynamicRank(dtype dtypes.DType) Partial {
	return Partial{DType: dtype}
}

// Partial converts a static Shape to the equivalent fully known Partial.
func (s Shape) Partial() Partial {
	return Partial{DType: s.DType, Dimensions: s.Clone().Dimensions, RankKnown: true}
}

// Ok returns whether this is a valid Partial.
func (p Partial) Ok() bool { return p.DType != dtypes.InvalidDType }

// Rank returns the number of axes. It panics if the rank is unknown; check
// RankKnown first.
func (p Partial) Rank() int {
	if !p.RankKnown {
		exceptions.Panicf("Partial.Rank() called on dynamic-rank shape %s", p)
	}
	return len(p.Dimensions)
}

// IsStatic returns whether rank and every dimension are known, in which case
// Static() converts it to a Shape.
func (p Partial) IsStatic() bool {
	if !p.RankKnown {
		return false
	}
	for _, dim := range p.Dimensions {
		if dim == DynamicDim {
			return false
		}
	}
	return true
}

// Static converts to a Shape. It returns ok == false if the rank or any
// dimension is unknown.
func (p Partial) Static() (s Shape, ok bool) {
	if !p.IsStatic() {
		return Invalid(), false
	}
	return Shape{DType: p.DType, Dimensions: append([]int(nil), p.Dimensions...)}, true
}

// IsScalar returns whether this is a known rank-0 shape.
func (p Partial) IsScalar() bool { return p.RankKnown && len(p.Dimensions) == 0 }

// Equal compares dtype, rank and every dimension. Two DynamicDim axes compare
// as equal -- this is symbolic equality, not a compatibility check.
func (p Partial) Equal(p2 Partial) bool {
	if p.DType != p2.DType || p.RankKnown != p2.RankKnown {
		return false
	}
	if !p.RankKnown {
		return true
	}
	if len(p.Dimensions) != len(p2.Dimensions) {
		return false
	}
	for i, dim := range p.Dimensions {
		if dim != p2.Dimensions[i] {
			return false
		}
	}
	return true
}

// Clone returns a deep copy.
func (p Partial) Clone() Partial {
	return Partial{DType: p.DType, Dimensions: append([]int(nil), p.Dimensions...), RankKnown: p.RankKnown}
}

// String implements fmt.Stringer: "(Float32)[2 ? 3]" for partially known
// dimensions, "(Float32)[...]" for unknown rank.
func (p Partial) String() string {
	if !p.RankKnown {
		return fmt.Sprintf("(%s)[...]", p.DType)
	}
	if len(p.Dimensions) == 0 {
		return fmt.Sprintf("(%s)", p.DType)
	}
	return fmt.Sprintf("(%s)%s", p.DType, dimsString(p.Dimensions))
}
