package fqmulfusion

import (
	"github.com/tensoropt/tensoropt/graph"
)

// adjustedRange builds range * scale for one of the quantize's output-range
// operands. When both operands are statically known the product is folded
// eagerly and the live Multiply is dropped, so constant ranges stay
// constants after the fusion. Pure construction: nothing is spliced into the
// consumer chain yet.
func adjustedRange(g *graph.Graph, rangeNode, scale *graph.Node, created *[]*graph.Node) (*graph.Node, error) {
	product, err := g.Multiply(rangeNode, scale)
	if err != nil {
		return nil, err
	}
	if folded := g.TryFoldConstant(product); folded != nil {
		// The unconsumed Multiply is removed right away; only the folded
		// constant survives.
		*created = append(*created, folded)
		if err := g.RemoveDeadNode(product); err != nil {
			return nil, err
		}
		return folded, nil
	}
	*created = append(*created, product)
	return product, nil
}
