package passes

import (
	"k8s.io/klog/v2"

	"github.com/tensoropt/tensoropt/graph"
)

// DeadNodes removes nodes whose output is never consumed and that are not
// designated graph outputs. Rewrites leave such nodes behind on purpose
// (e.g. the original multiplier constant after a fusion); this pass cleans
// them up.
type DeadNodes struct{}

// Name implements Pass.
func (DeadNodes) Name() string { return "dead-nodes" }

// Run implements Pass. It iterates the node list in reverse so that removing
// a consumer exposes its now-dead producers within the same run.
func (DeadNodes) Run(g *graph.Graph) (changed bool, err error) {
	nodes := g.Nodes()
	for idx := len(nodes) - 1; idx >= 0; idx-- {
		node := nodes[idx]
		if node.ConsumerCount() > 0 || g.IsOutput(node) {
			continue
		}
		klog.V(3).Infof("dead-nodes: removing %s from graph %q", node, g.Name())
		if err := g.RemoveDeadNode(node); err != nil {
			return changed, err
		}
		changed = true
	}
	return changed, nil
}
