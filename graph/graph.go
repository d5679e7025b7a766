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

// Package graph implements the computation-graph IR that optimization passes
// run against.
//
// A Graph owns a DAG of single-output Nodes. Nodes are only created when
// their inputs already exist, so the node list is a natural topological
// ordering -- the evaluator and the passes rely on this invariance. Every
// node tracks its consumers (the nodes reading its output), which is what
// rewrite rules use to enforce single-consumer constraints.
//
// Graph mutation is restricted to two primitives: ReplaceAllUsesWith, which
// atomically redirects every consumer of one node to another, and
// RemoveDeadNode, which detaches a node no longer consumed. Rewrite passes
// compose these so that either a rewrite lands completely or the graph is
// left untouched.
package graph

import (
	"fmt"
	"slices"

	"github.com/pkg/errors"

	"github.com/tensoropt/tensoropt/types/shapes"
	"github.com/tensoropt/tensoropt/types/tensors"
)

// Graph holds a DAG of nodes under construction or optimization.
// It is not safe for concurrent use; the pass manager guarantees exclusive
// ownership during a rewrite.
type Graph struct {
	name    string
	nodes   []*Node
	outputs []*Node
	nextID  int
}

// New creates an empty graph.
func New(name string) *Graph {
	return &Graph{name: name}
}

// Name returns the graph's name.
func (g *Graph) Name() string { return g.name }

// Nodes returns the graph's nodes in creation (topological) order. The
// returned slice is a copy: callers may mutate the graph while iterating it
// without observing their own insertions.
func (g *Graph) Nodes() []*Node { return slices.Clone(g.nodes) }

// NumNodes returns the number of live nodes.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// Outputs returns the graph's designated outputs.
func (g *Graph) Outputs() []*Node { return slices.Clone(g.outputs) }

// SetOutputs designates the graph outputs. Outputs count as an extra consumer
// for liveness purposes: an output node is never dead.
func (g *Graph) SetOutputs(outputs ...*Node) error {
	for idx, node := range outputs {
		if err := g.checkNode(node); err != nil {
			return errors.WithMessagef(err, "SetOutputs: output #%d", idx)
		}
	}
	g.outputs = slices.Clone(outputs)
	return nil
}

// IsOutput returns whether node is one of the graph's designated outputs.
func (g *Graph) IsOutput(node *Node) bool {
	return slices.Index(g.outputs, node) >= 0
}

// Node is a single operation in the graph, with exactly one output value.
// Its variant is given by Type(); variant-specific attributes live in data.
type Node struct {
	graph     *Graph
	id        int
	opType    OpType
	name      string
	inputs    []*Node
	consumers []*Node
	shape     shapes.Partial
	data      any

	// provenance records the names of the original nodes this node was
	// derived from by rewrites, for diagnostics and metadata propagation.
	provenance []string

	dead bool
}

// Variant-specific node data.
type constantData struct{ value *tensors.Tensor }
type multiplyData struct{ broadcast BroadcastMode }
type fakeQuantizeData struct {
	levels    int
	broadcast BroadcastMode
}
type reshapeData struct{ dimensions []int }
type convolutionData struct{ groups int }

// Graph returns the graph owning this node.
func (n *Node) Graph() *Graph { return n.graph }

// ID returns the node's unique id within its graph.
func (n *Node) ID() int { return n.id }

// Type returns the node's variant.
func (n *Node) Type() OpType { return n.opType }

// Name returns the node's name.
func (n *Node) Name() string { return n.name }

// SetName renames the node. Rewrites use this to carry the replaced node's
// name onto its replacement.
func (n *Node) SetName(name string) { n.name = name }

// Shape returns the statically inferred shape of the node's output.
func (n *Node) Shape() shapes.Partial { return n.shape }

// NumInputs returns the node's input arity.
func (n *Node) NumInputs() int { return len(n.inputs) }

// Input returns the idx-th input node.
func (n *Node) Input(idx int) *Node { return n.inputs[idx] }

// Inputs returns a copy of the node's inputs.
func (n *Node) Inputs() []*Node { return slices.Clone(n.inputs) }

// ConsumerCount returns how many times this node's output is read. A node
// consumed twice by the same consumer counts as 2.
func (n *Node) ConsumerCount() int { return len(n.consumers) }

// Consumers returns a copy of the nodes reading this node's output.
func (n *Node) Consumers() []*Node { return slices.Clone(n.consumers) }

// IsConstant returns whether this is a Constant node.
func (n *Node) IsConstant() bool { return n.opType == OpTypeConstant }

// ConstValue returns the tensor held by a Constant node, or nil for any
// other variant.
func (n *Node) ConstValue() *tensors.Tensor {
	if data, ok := n.data.(*constantData); ok {
		return data.value
	}
	return nil
}

// Broadcast returns the broadcast-mode attribute of a Multiply or
// FakeQuantize node; ok is false for variants without one.
func (n *Node) Broadcast() (mode BroadcastMode, ok bool) {
	switch data := n.data.(type) {
	case *multiplyData:
		return data.broadcast, true
	case *fakeQuantizeData:
		return data.broadcast, true
	}
	return BroadcastNone, false
}

// Levels returns the quantization levels of a FakeQuantize node, or 0 for
// any other variant.
func (n *Node) Levels() int {
	if data, ok := n.data.(*fakeQuantizeData); ok {
		return data.levels
	}
	return 0
}

// IsDead returns whether this node was removed from its graph. Passes
// iterating a node-list snapshot use this to skip entries a previous rewrite
// already detached.
func (n *Node) IsDead() bool { return n.dead }

// Provenance returns the names of the nodes this node was derived from.
func (n *Node) Provenance() []string { return slices.Clone(n.provenance) }

// String implements fmt.Stringer.
func (n *Node) String() string {
	return fmt.Sprintf("%s#%d(%q)%s", n.opType, n.id, n.name, n.shape)
}

// checkNode validates that the node belongs to this graph and is alive.
func (g *Graph) checkNode(node *Node) error {
	if node == nil {
		return errors.Errorf("nil node")
	}
	if node.graph != g {
		return errors.Errorf("node %s belongs to graph %q, not %q", node, node.graph.name, g.name)
	}
	if node.dead {
		return errors.Errorf("node %s was removed from graph %q", node, g.name)
	}
	return nil
}

// checkNodes validates inputs for an op constructor.
func (g *Graph) checkNodes(opName string, nodes ...*Node) error {
	for idx, node := range nodes {
		if err := g.checkNode(node); err != nil {
			return errors.WithMessagef(err, "%s: input #%d", opName, idx)
		}
	}
	return nil
}

// newNode appends a node to the graph and registers it as a consumer of each
// of its inputs. A repeated input registers one consumer entry per use.
func (g *Graph) newNode(opType OpType, name string, shape shapes.Partial, data any, inputs ...*Node) *Node {
	n := &Node{
		graph:  g,
		id:     g.nextID,
		opType: opType,
		name:   name,
		inputs: slices.Clone(inputs),
		shape:  shape,
		data:   data,
	}
	g.nextID++
	if n.name == "" {
		n.name = fmt.Sprintf("%s_%d", n.opType, n.id)
	}
	for _, input := range inputs {
		input.consumers = append(input.consumers, n)
	}
	g.nodes = append(g.nodes, n)
	return n
}

// Parameter creates a graph input with the given (possibly partial) shape.
func (g *Graph) Parameter(name string, shape shapes.Partial) (*Node, error) {
	if !shape.Ok() {
		return nil, errors.Errorf("Parameter %q: invalid shape", name)
	}
	return g.newNode(OpTypeParameter, name, shape, nil), nil
}

// Constant creates a node holding the given tensor.
func (g *Graph) Constant(value *tensors.Tensor) *Node {
	return g.ConstantWithName("", value)
}

// ConstantWithName creates a named Constant node.
func (g *Graph) ConstantWithName(name string, value *tensors.Tensor) *Node {
	return g.newNode(OpTypeConstant, name, value.Shape().Partial(), &constantData{value: value})
}

// Multiply creates an elementwise multiplication with numpy-style
// broadcasting, the usual mode in imported models.
func (g *Graph) Multiply(lhs, rhs *Node) (*Node, error) {
	return g.MultiplyWithBroadcast(lhs, rhs, BroadcastNumpy)
}

// MultiplyWithBroadcast creates an elementwise multiplication with an
// explicit broadcast mode.
func (g *Graph) MultiplyWithBroadcast(lhs, rhs *Node, mode BroadcastMode) (*Node, error) {
	if err := g.checkNodes("Multiply", lhs, rhs); err != nil {
		return nil, err
	}
	shape, err := inferMultiply(mode, lhs.shape, rhs.shape)
	if err != nil {
		return nil, errors.WithMessagef(err, "Multiply")
	}
	return g.newNode(OpTypeMultiply, "", shape, &multiplyData{broadcast: mode}, lhs, rhs), nil
}

// FakeQuantize creates a quantization node: data is clamped to
// [inputLow, inputHigh], discretized into levels steps and mapped to
// [outputLow, outputHigh]. The range operands broadcast against data
// according to mode.
func (g *Graph) FakeQuantize(data, inputLow, inputHigh, outputLow, outputHigh *Node, levels int, mode BroadcastMode) (*Node, error) {
	if err := g.checkNodes("FakeQuantize", data, inputLow, inputHigh, outputLow, outputHigh); err != nil {
		return nil, err
	}
	if levels < 2 {
		return nil, errors.Errorf("FakeQuantize: levels must be >= 2, got %d", levels)
	}
	shape, err := inferFakeQuantize(mode, data.shape, inputLow.shape, inputHigh.shape, outputLow.shape, outputHigh.shape)
	if err != nil {
		return nil, errors.WithMessagef(err, "FakeQuantize")
	}
	return g.newNode(OpTypeFakeQuantize, "", shape, &fakeQuantizeData{levels: levels, broadcast: mode},
		data, inputLow, inputHigh, outputLow, outputHigh), nil
}

// Reshape creates a node reinterpreting x with the given dimensions. The
// element count must be preserved (verified statically when x's shape is
// fully known).
func (g *Graph) Reshape(x *Node, dimensions ...int) (*Node, error) {
	if err := g.checkNodes("Reshape", x); err != nil {
		return nil, err
	}
	shape, err := inferReshape(x.shape, dimensions)
	if err != nil {
		return nil, errors.WithMessagef(err, "Reshape")
	}
	return g.newNode(OpTypeReshape, "", shape, &reshapeData{dimensions: slices.Clone(dimensions)}, x), nil
}

// Convolution creates a 2D convolution (stride 1, no padding), data in NCHW
// layout and filter in OIHW layout.
func (g *Graph) Convolution(data, filter *Node) (*Node, error) {
	if err := g.checkNodes("Convolution", data, filter); err != nil {
		return nil, err
	}
	shape, err := inferConvolution(data.shape, filter.shape, 1)
	if err != nil {
		return nil, errors.WithMessagef(err, "Convolution")
	}
	return g.newNode(OpTypeConvolution, "", shape, &convolutionData{groups: 1}, data, filter), nil
}

// GroupConvolution creates a grouped 2D convolution (stride 1, no padding),
// data in NCHW layout and filter in GOIHW layout; the group count is the
// filter's leading dimension.
func (g *Graph) GroupConvolution(data, filter *Node) (*Node, error) {
	if err := g.checkNodes("GroupConvolution", data, filter); err != nil {
		return nil, err
	}
	groups := 0
	if filter.shape.RankKnown && filter.shape.Rank() == 5 && filter.shape.Dimensions[0] != shapes.DynamicDim {
		groups = filter.shape.Dimensions[0]
	}
	shape, err := inferGroupConvolution(data.shape, filter.shape)
	if err != nil {
		return nil, errors.WithMessagef(err, "GroupConvolution")
	}
	return g.newNode(OpTypeGroupConvolution, "", shape, &convolutionData{groups: groups}, data, filter), nil
}

// CloneWithNewInputs creates a new node with this node's variant and
// attributes but different inputs, re-running shape inference. The clone
// keeps the original's name; rewrites rename it when splicing.
func (n *Node) CloneWithNewInputs(newInputs ...*Node) (*Node, error) {
	g := n.graph
	if err := g.checkNodes("CloneWithNewInputs", newInputs...); err != nil {
		return nil, err
	}
	if len(newInputs) != len(n.inputs) {
		return nil, errors.Errorf("CloneWithNewInputs: node %s takes %d inputs, got %d", n, len(n.inputs), len(newInputs))
	}
	var shape shapes.Partial
	var err error
	switch data := n.data.(type) {
	case *multiplyData:
		shape, err = inferMultiply(data.broadcast, newInputs[0].shape, newInputs[1].shape)
	case *fakeQuantizeData:
		shape, err = inferFakeQuantize(data.broadcast, newInputs[0].shape, newInputs[1].shape,
			newInputs[2].shape, newInputs[3].shape, newInputs[4].shape)
	case *reshapeData:
		shape, err = inferReshape(newInputs[0].shape, data.dimensions)
	case *convolutionData:
		if n.opType == OpTypeGroupConvolution {
			shape, err = inferGroupConvolution(newInputs[0].shape, newInputs[1].shape)
		} else {
			shape, err = inferConvolution(newInputs[0].shape, newInputs[1].shape, data.groups)
		}
	default:
		return nil, errors.Errorf("CloneWithNewInputs: %s nodes cannot be cloned with new inputs", n.opType)
	}
	if err != nil {
		return nil, errors.WithMessagef(err, "CloneWithNewInputs(%s)", n)
	}
	clone := g.newNode(n.opType, n.name, shape, cloneData(n.data), newInputs...)
	return clone, nil
}

// cloneData deep-copies variant data so clones never alias mutable slices.
func cloneData(data any) any {
	switch d := data.(type) {
	case *constantData:
		return &constantData{value: d.value} // tensors are immutable, share.
	case *multiplyData:
		clone := *d
		return &clone
	case *fakeQuantizeData:
		clone := *d
		return &clone
	case *reshapeData:
		return &reshapeData{dimensions: slices.Clone(d.dimensions)}
	case *convolutionData:
		clone := *d
		return &clone
	case nil:
		return nil
	}
	return data
}

// ReplaceAllUsesWith atomically redirects every consumer of old (and any
// output designation) to new. Either all consumers move or none do: the
// graph is only mutated after all validation passes. The element types must
// agree; old must not be reachable from new's inputs (the caller guarantees
// acyclicity).
func (g *Graph) ReplaceAllUsesWith(old, new *Node) error {
	if err := g.checkNodes("ReplaceAllUsesWith", old, new); err != nil {
		return err
	}
	if old == new {
		return errors.Errorf("ReplaceAllUsesWith: old and new are the same node %s", old)
	}
	if old.shape.DType != new.shape.DType {
		return errors.Errorf("ReplaceAllUsesWith: element type mismatch, %s vs %s", old, new)
	}
	for _, consumer := range old.consumers {
		for idx, input := range consumer.inputs {
			if input == old {
				consumer.inputs[idx] = new
			}
		}
		new.consumers = append(new.consumers, consumer)
	}
	old.consumers = old.consumers[:0]
	for idx, output := range g.outputs {
		if output == old {
			g.outputs[idx] = new
		}
	}
	return nil
}

// RemoveDeadNode detaches a node with no consumers from the graph. It fails
// if the node is still consumed or is a designated output.
func (g *Graph) RemoveDeadNode(n *Node) error {
	if err := g.checkNode(n); err != nil {
		return errors.WithMessagef(err, "RemoveDeadNode")
	}
	if n.ConsumerCount() > 0 {
		return errors.Errorf("RemoveDeadNode: node %s still has %d consumers", n, n.ConsumerCount())
	}
	if g.IsOutput(n) {
		return errors.Errorf("RemoveDeadNode: node %s is a graph output", n)
	}
	for _, input := range n.inputs {
		input.consumers = slices.DeleteFunc(input.consumers, func(c *Node) bool { return c == n })
	}
	n.inputs = nil
	n.dead = true
	g.nodes = slices.DeleteFunc(g.nodes, func(c *Node) bool { return c == n })
	return nil
}

// CopyProvenance propagates provenance from the given source nodes onto a
// node created by a rewrite: each source's own name plus anything the source
// already carried, deduplicated, in order.
func CopyProvenance(from []*Node, to *Node) {
	add := func(origin string) {
		if !slices.Contains(to.provenance, origin) {
			to.provenance = append(to.provenance, origin)
		}
	}
	for _, source := range from {
		for _, origin := range source.provenance {
			add(origin)
		}
		add(source.name)
	}
}
