// Package passes runs graph-optimization passes.
//
// A Pass is a graph-to-graph transformation reporting whether it changed
// anything. The Manager owns scheduling: it runs its passes repeatedly until
// a full round changes nothing (or an iteration cap trips). Individual
// passes never re-enumerate their own insertions within one run -- they
// iterate a snapshot of the node list -- so repeated application is always
// the Manager's job.
//
// Everything here is single-threaded and synchronous: the Manager assumes
// exclusive ownership of the Graph for the duration of Run.
package passes

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/tensoropt/tensoropt/graph"
)

// Pass is a single graph transformation.
type Pass interface {
	// Name identifies the pass in logs.
	Name() string

	// Run applies the pass to the graph, returning whether it changed the
	// graph. An error aborts the whole pipeline; data-dependent "this
	// binding doesn't apply" situations are not errors.
	Run(g *graph.Graph) (changed bool, err error)
}

// DefaultMaxRounds caps the Manager's fixed-point iteration. A well-formed
// rewrite set converges long before this; the cap turns a non-terminating
// rewrite loop into an error instead of a hang.
const DefaultMaxRounds = 100

// Manager schedules passes to a fixed point.
type Manager struct {
	passes    []Pass
	maxRounds int
}

// NewManager creates a Manager running the given passes in order.
func NewManager(passes ...Pass) *Manager {
	return &Manager{passes: passes, maxRounds: DefaultMaxRounds}
}

// WithMaxRounds overrides the fixed-point iteration cap.
func (m *Manager) WithMaxRounds(maxRounds int) *Manager {
	m.maxRounds = maxRounds
	return m
}

// Run applies the passes round-robin until one full round leaves the graph
// unchanged. It returns whether any pass ever changed the graph.
func (m *Manager) Run(g *graph.Graph) (changed bool, err error) {
	for round := 0; ; round++ {
		if round >= m.maxRounds {
			return changed, errors.Errorf("pass manager did not reach a fixed point on graph %q after %d rounds", g.Name(), m.maxRounds)
		}
		roundChanged := false
		for _, pass := range m.passes {
			passChanged, err := pass.Run(g)
			if err != nil {
				return changed, errors.WithMessagef(err, "pass %q on graph %q", pass.Name(), g.Name())
			}
			if passChanged {
				klog.V(2).Infof("pass %q changed graph %q (round %d)", pass.Name(), g.Name(), round)
			}
			roundChanged = roundChanged || passChanged
		}
		changed = changed || roundChanged
		if !roundChanged {
			return changed, nil
		}
	}
}
