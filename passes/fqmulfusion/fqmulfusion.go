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

// Package fqmulfusion fuses a constant multiplication into the output range
// of the FakeQuantize node feeding it.
//
// The rule multiplies the output_low and output_high inputs of the
// FakeQuantize by the constant C that, before the rewrite, multiplied the
// FakeQuantize's output. When the ranges are themselves constant, the
// products are folded eagerly.
//
//	data  in_L in_H out_L out_H
//	  |    |    |     |     |
//	  v    v    v     v     v            data  in_L in_H  out_L*C  out_H*C
//	+-------------------------+            |    |    |       |        |
//	|       FakeQuantize      |            v    v    v       v        v
//	+-------------------------+         +-----------------------------------+
//	             |             =====>   |            FakeQuantize           |
//	             v                      +-----------------------------------+
//	        +----------+                                  |
//	        | Multiply | <--- C                           v
//	        +----+-----+
//	             |
//	             v
//
// The result is observationally equivalent -- quantized values are scaled by
// C either way -- but the runtime Multiply over the full tensor is gone.
//
// The rule only fires on single-consumer chains (a shared FakeQuantize or
// Multiply output would make the rewrite change other readers), and a set of
// legality checks covers broadcast-shape hazards, convolution consumers of
// non-uniform scales, and a pluggable target-specific veto. See AbortReason
// for the full taxonomy.
package fqmulfusion

import (
	"k8s.io/klog/v2"

	"github.com/tensoropt/tensoropt/graph"
)

// AcceptFn decides whether a candidate replacement FakeQuantize node is
// acceptable to the surrounding pipeline. Returning false vetoes the
// rewrite for that binding.
type AcceptFn func(candidate *graph.Node) bool

// Pass implements passes.Pass. Create it with New.
type Pass struct {
	accepts AcceptFn
}

// Option configures the Pass.
type Option func(*Pass)

// WithAcceptCallback injects the pipeline's legality policy: it is consulted
// with each candidate replacement node, except when the quantization is on
// weights (constant data), which is always accepted.
func WithAcceptCallback(fn AcceptFn) Option {
	return func(p *Pass) { p.accepts = fn }
}

// New creates the fusion pass. Without options every candidate is accepted.
func New(options ...Option) *Pass {
	p := &Pass{accepts: func(*graph.Node) bool { return true }}
	for _, option := range options {
		option(p)
	}
	return p
}

// Name implements passes.Pass.
func (p *Pass) Name() string { return "fq-mul-fusion" }

// Run implements passes.Pass. It enumerates candidates over a snapshot of
// the node list: nodes created by a rewrite are never matched within the
// same run (the pass manager's fixed-point loop handles repeated
// application), so one run cannot recursively trigger itself.
func (p *Pass) Run(g *graph.Graph) (changed bool, err error) {
	snapshot := g.Nodes()
	lastID := -1
	for _, node := range snapshot {
		lastID = max(lastID, node.ID())
	}
	for _, node := range snapshot {
		if node.IsDead() || node.Type() != graph.OpTypeMultiply {
			continue
		}
		applied, reason := p.matchAndRewrite(g, node, lastID)
		if applied {
			klog.V(2).Infof("%s: fused %s into its quantize node", p.Name(), node)
			changed = true
		} else if reason != ReasonNoMatch {
			klog.V(2).Infof("%s: %s not rewritten: %s", p.Name(), node, reason)
		}
	}
	return changed, nil
}

// matchAndRewrite attempts the rewrite rooted at one Multiply node. On any
// abort the graph is left exactly as found: helper nodes built along the way
// are discarded before returning.
func (p *Pass) matchAndRewrite(g *graph.Graph, mul *graph.Node, lastID int) (applied bool, reason AbortReason) {
	b := matchQuantizeMul(mul)
	if b == nil || b.fq.ID() > lastID {
		return false, ReasonNoMatch
	}

	// Nodes created while analyzing this binding; discarded on abort.
	var created []*graph.Node
	abort := func(reason AbortReason) (bool, AbortReason) {
		discard(g, created)
		return false, reason
	}

	scale, ok := normalizeScale(g, b, &created)
	if !ok {
		return abort(ReasonUnsupportedScale)
	}
	if !scale.uniform && feedsConvolutionFamily(b) {
		return abort(ReasonConsumerConflict)
	}

	newLow, err := adjustedRange(g, b.outputLow, scale.node, &created)
	if err != nil {
		return abort(ReasonShapeMismatch)
	}
	newHigh, err := adjustedRange(g, b.outputHigh, scale.node, &created)
	if err != nil {
		return abort(ReasonShapeMismatch)
	}
	candidate, err := b.fq.CloneWithNewInputs(b.data, b.inputLow, b.inputHigh, newLow, newHigh)
	if err != nil {
		return abort(ReasonShapeMismatch)
	}
	created = append(created, candidate)

	// Quantization on weights (constant data) is always accepted; otherwise
	// the pipeline's policy decides.
	if !b.data.IsConstant() && !p.accepts(candidate) {
		return abort(ReasonExternalVeto)
	}

	// Conservative guard for numpy broadcasting: only replace when the
	// candidate provably produces the very shape the Multiply produced,
	// otherwise downstream shape inference could be left inconsistent.
	if mode, _ := b.fq.Broadcast(); mode == graph.BroadcastNumpy {
		candidateShape, candidateStatic := candidate.Shape().Static()
		mulShape, mulStatic := b.mul.Shape().Static()
		if !candidateStatic || !mulStatic || !candidateShape.Equal(mulShape) {
			return abort(ReasonShapeMismatch)
		}
	}

	if candidate.Type() != graph.OpTypeFakeQuantize {
		return abort(ReasonSpliceTypeError)
	}
	if err := g.ReplaceAllUsesWith(b.mul, candidate); err != nil {
		klog.V(2).Infof("%s: splice failed for %s: %v", p.Name(), b.mul, err)
		return abort(ReasonSpliceTypeError)
	}

	candidate.SetName(b.mul.Name())
	graph.CopyProvenance([]*graph.Node{b.fq, b.mul}, candidate)
	for _, helper := range created {
		if helper != candidate {
			graph.CopyProvenance([]*graph.Node{b.fq, b.mul}, helper)
		}
	}

	// Detach the replaced chain. The old FakeQuantize lost its only consumer
	// with the Multiply's removal; the Multiply's constant may stay behind
	// for the dead-nodes pass if the normalizer replaced it.
	if err := g.RemoveDeadNode(b.mul); err != nil {
		klog.Errorf("%s: could not detach %s: %v", p.Name(), b.mul, err)
	} else if b.fq.ConsumerCount() == 0 {
		if err := g.RemoveDeadNode(b.fq); err != nil {
			klog.Errorf("%s: could not detach %s: %v", p.Name(), b.fq, err)
		}
	}
	return true, ReasonNone
}

// discard removes helper nodes created for an aborted binding, newest first
// so consumers go before their inputs.
func discard(g *graph.Graph, created []*graph.Node) {
	for idx := len(created) - 1; idx >= 0; idx-- {
		if err := g.RemoveDeadNode(created[idx]); err != nil {
			klog.Errorf("fq-mul-fusion: leaked helper node %s: %v", created[idx], err)
		}
	}
}
