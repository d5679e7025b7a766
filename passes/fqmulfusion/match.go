package fqmulfusion

import (
	"github.com/tensoropt/tensoropt/graph"
)

// binding maps the pattern's placeholders to concrete graph nodes after a
// successful structural match.
type binding struct {
	data        *graph.Node // FakeQuantize input 0, any variant.
	inputLow    *graph.Node
	inputHigh   *graph.Node
	outputLow   *graph.Node
	outputHigh  *graph.Node
	fq          *graph.Node // the FakeQuantize node, consumed exactly once.
	mul         *graph.Node // the Multiply consuming it, consumed at most once.
	mulConstant *graph.Node // the Multiply's second operand, a Constant.
}

// matchQuantizeMul matches the pattern rooted at a Multiply node:
//
//	Multiply(FakeQuantize(data, in_L, in_H, out_L, out_H), Constant)
//
// where the FakeQuantize output is consumed exactly once (necessarily by
// this Multiply) and the Multiply's own output is consumed at most once.
// Purely structural -- no numeric interpretation happens here. Returns nil
// if the pattern does not occur.
func matchQuantizeMul(mul *graph.Node) *binding {
	if mul.Type() != graph.OpTypeMultiply || mul.NumInputs() != 2 {
		return nil
	}
	fq, mulConstant := mul.Input(0), mul.Input(1)
	if fq.Type() != graph.OpTypeFakeQuantize || fq.NumInputs() != 5 {
		return nil
	}
	if !mulConstant.IsConstant() {
		return nil
	}
	if fq.ConsumerCount() != 1 || mul.ConsumerCount() > 1 {
		return nil
	}
	return &binding{
		data:        fq.Input(0),
		inputLow:    fq.Input(1),
		inputHigh:   fq.Input(2),
		outputLow:   fq.Input(3),
		outputHigh:  fq.Input(4),
		fq:          fq,
		mul:         mul,
		mulConstant: mulConstant,
	}
}

// feedsConvolutionFamily reports whether the rewritten quantize node would
// feed a Convolution or GroupConvolution: those consumers require
// output_low/output_high to carry identical values across the channel axis,
// which a non-uniform per-element scale would break. Checked over the
// FakeQuantize's direct consumers and over the Multiply's consumers -- the
// nodes that will read the replacement.
func feedsConvolutionFamily(b *binding) bool {
	consumers := append(b.fq.Consumers(), b.mul.Consumers()...)
	for _, consumer := range consumers {
		switch consumer.Type() {
		case graph.OpTypeConvolution, graph.OpTypeGroupConvolution:
			return true
		}
	}
	return false
}
