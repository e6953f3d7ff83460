// Package graph implements the flow engine's graph primitives: adjacency
// construction, topological sort and level grouping. Grounded on the
// WorkflowGraph/TopologicalSort shape of a DAG-executor engine, reshaped
// around plain (nodes, edges) slices rather than a stateful graph object.
package graph

import "github.com/flowlayer/flowengine/internal/domain"

// BuildAdjacency emits children and parents mappings keyed by node id.
// Edges whose endpoints are not both present in nodes are silently
// dropped, so editors can save intermediate, partially-wired flows.
func BuildAdjacency(nodes []domain.Node, edges []domain.Edge) (children, parents map[string][]string) {
	present := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		present[n.ID] = true
	}

	children = make(map[string][]string, len(nodes))
	parents = make(map[string][]string, len(nodes))
	for _, n := range nodes {
		children[n.ID] = nil
		parents[n.ID] = nil
	}

	for _, e := range edges {
		if !present[e.From] || !present[e.To] {
			continue
		}
		children[e.From] = append(children[e.From], e.To)
		parents[e.To] = append(parents[e.To], e.From)
	}
	return children, parents
}
