package graph

// Reference interpreter for the IR, computing in float64 and materializing
// results in the output dtype. It serves two purposes: it is the
// constant-folding oracle used by rewrite passes (TryFoldConstant), and the
// ground truth that tests compare rewritten graphs against.

import (
	"math"

	"github.com/gomlx/gopjrt/dtypes"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/tensoropt/tensoropt/types/shapes"
	"github.com/tensoropt/tensoropt/types/tensors"
)

// Evaluate runs the graph over concrete tensors, returning one tensor per
// requested output. Parameters take their values from feeds; a missing feed
// is an error. Convolution variants are not evaluated -- they appear in
// graphs only as consumers of quantized values.
func (g *Graph) Evaluate(outputs []*Node, feeds map[*Node]*tensors.Tensor) ([]*tensors.Tensor, error) {
	ev := &evaluator{graph: g, feeds: feeds, values: make(map[*Node]*tensors.Tensor)}
	results := make([]*tensors.Tensor, len(outputs))
	for idx, output := range outputs {
		if err := g.checkNode(output); err != nil {
			return nil, errors.WithMessagef(err, "Evaluate: output #%d", idx)
		}
		value, err := ev.eval(output)
		if err != nil {
			return nil, err
		}
		results[idx] = value
	}
	return results, nil
}

type evaluator struct {
	graph  *Graph
	feeds  map[*Node]*tensors.Tensor
	values map[*Node]*tensors.Tensor
}

func (ev *evaluator) eval(n *Node) (*tensors.Tensor, error) {
	if value, found := ev.values[n]; found {
		return value, nil
	}
	inputs := make([]*tensors.Tensor, n.NumInputs())
	for idx, input := range n.inputs {
		var err error
		inputs[idx], err = ev.eval(input)
		if err != nil {
			return nil, err
		}
	}

	var value *tensors.Tensor
	var err error
	switch data := n.data.(type) {
	case *constantData:
		value = data.value
	case *multiplyData:
		value, err = evalElementwise(n.shape.DType, inputs, func(operands []float64) float64 {
			return operands[0] * operands[1]
		})
	case *fakeQuantizeData:
		value, err = evalElementwise(n.shape.DType, inputs, func(operands []float64) float64 {
			return fakeQuantize(operands[0], operands[1], operands[2], operands[3], operands[4], data.levels)
		})
	case *reshapeData:
		value, err = inputs[0].Reshaped(data.dimensions...)
	case nil: // Parameter.
		feed, found := ev.feeds[n]
		if !found {
			return nil, errors.Errorf("Evaluate: no feed for parameter %s", n)
		}
		if feed.DType() != n.shape.DType {
			return nil, errors.Errorf("Evaluate: parameter %s fed with dtype %s", n, feed.DType())
		}
		value = feed
	default:
		return nil, errors.Errorf("Evaluate: %s nodes are not supported", n.opType)
	}
	if err != nil {
		return nil, errors.WithMessagef(err, "Evaluate: node %s", n)
	}
	ev.values[n] = value
	return value, nil
}

// fakeQuantize is the per-element quantization function: values are clamped
// to [inLow, inHigh], snapped to one of levels steps and mapped to
// [outLow, outHigh].
func fakeQuantize(x, inLow, inHigh, outLow, outHigh float64, levels int) float64 {
	if x <= math.Min(inLow, inHigh) {
		return outLow
	}
	if x > math.Max(inLow, inHigh) {
		return outHigh
	}
	steps := float64(levels - 1)
	q := math.Round((x - inLow) / (inHigh - inLow) * steps)
	return q/steps*(outHigh-outLow) + outLow
}

// evalElementwise applies fn elementwise over the operands, numpy-broadcast
// to their common shape.
func evalElementwise(dtype dtypes.DType, operands []*tensors.Tensor, fn func(operands []float64) float64) (*tensors.Tensor, error) {
	outShape, err := broadcastedShape(operands)
	if err != nil {
		return nil, err
	}
	iterators := make([]*broadcastIterator, len(operands))
	for idx, operand := range operands {
		iterators[idx], err = newBroadcastIterator(operand.Shape(), outShape)
		if err != nil {
			return nil, err
		}
	}
	args := make([]float64, len(operands))
	flat := make([]float64, outShape.Size())
	for i := range flat {
		for idx, it := range iterators {
			args[idx] = operands[idx].Float64(it.Next())
		}
		flat[i] = fn(args)
	}
	return tensors.FromFloat64s(dtype, flat, outShape.Dimensions...)
}

// broadcastedShape folds the numpy broadcast over the operands' (fully
// known) shapes.
func broadcastedShape(operands []*tensors.Tensor) (shapes.Shape, error) {
	result := operands[0].Shape().Partial()
	for _, operand := range operands[1:] {
		var err error
		result, err = inferNumpyBinary(result, operand.Shape().Partial())
		if err != nil {
			return shapes.Invalid(), err
		}
	}
	static, ok := result.Static()
	if !ok {
		return shapes.Invalid(), errors.Errorf("broadcast of concrete tensors yielded non-static shape %s", result)
	}
	return static, nil
}

// broadcastIterator walks the flat indices of a tensor being broadcast to a
// larger shape: broadcast axes revisit the same slice of the tensor.
// Differing ranks are handled by treating missing leading axes as 1-sized.
type broadcastIterator struct {
	flatIdx     int
	perAxesIdx  []int
	targetDims  []int
	isBroadcast []bool
	strides     []int
}

func newBroadcastIterator(fromShape, toShape shapes.Shape) (*broadcastIterator, error) {
	rank := toShape.Rank()
	fromDims := make([]int, rank)
	for axis := range fromDims {
		fromDims[axis] = 1
	}
	copy(fromDims[rank-fromShape.Rank():], fromShape.Dimensions)
	bi := &broadcastIterator{
		perAxesIdx:  make([]int, rank),
		targetDims:  toShape.Dimensions,
		isBroadcast: make([]bool, rank),
		strides:     make([]int, rank),
	}
	stride := 1
	for axis := rank - 1; axis >= 0; axis-- {
		bi.strides[axis] = stride
		stride *= fromDims[axis]
		bi.isBroadcast[axis] = fromDims[axis] != toShape.Dimensions[axis]
		if bi.isBroadcast[axis] && fromDims[axis] != 1 {
			return nil, errors.Errorf("cannot broadcast %s to %s on axis %d", fromShape, toShape, axis)
		}
	}
	return bi, nil
}

// Next returns the flat index of the operand element for the next output
// position, in row-major order.
func (bi *broadcastIterator) Next() (flatIdx int) {
	flatIdx = bi.flatIdx
	bi.flatIdx++
	rank := len(bi.perAxesIdx)
	for axis := rank - 1; axis >= 0; axis-- {
		bi.perAxesIdx[axis]++
		if bi.perAxesIdx[axis] < bi.targetDims[axis] {
			if bi.isBroadcast[axis] {
				// Go back and repeat the same slice of the tensor.
				bi.flatIdx -= bi.strides[axis]
			}
			break
		}
		bi.perAxesIdx[axis] = 0
	}
	return
}

// TryFoldConstant evaluates a node eagerly if everything it transitively
// depends on is constant, returning a fresh Constant node holding the
// result, or nil when the node isn't foldable. The graph is not rewired:
// callers splice the returned constant in themselves.
func (g *Graph) TryFoldConstant(n *Node) *Node {
	if err := g.checkNode(n); err != nil {
		return nil
	}
	if n.IsConstant() || !foldable(n) {
		return nil
	}
	results, err := g.Evaluate([]*Node{n}, nil)
	if err != nil {
		klog.V(3).Infof("TryFoldConstant: %s did not fold: %v", n, err)
		return nil
	}
	return g.ConstantWithName(n.name, results[0])
}

// foldable reports whether every transitive input of n is a constant and
// every op on the way is evaluable.
func foldable(n *Node) bool {
	switch n.opType {
	case OpTypeConstant:
		return true
	case OpTypeMultiply, OpTypeFakeQuantize, OpTypeReshape:
		for _, input := range n.inputs {
			if !foldable(input) {
				return false
			}
		}
		return true
	}
	return false
}
