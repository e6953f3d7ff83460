package graph

import "github.com/flowlayer/flowengine/internal/domain"

// TopoSort orders nodes via Kahn's algorithm over in-degree. Nodes of
// equal in-degree are enqueued in the iteration order of nodes, so the
// result is stable and deterministic for a given input slice. Returns a
// *domain.CycleError if not every node could be sorted.
func TopoSort(nodes []domain.Node, edges []domain.Edge) ([]string, error) {
	children, parents := BuildAdjacency(nodes, edges)

	indegree := make(map[string]int, len(nodes))
	for _, n := range nodes {
		indegree[n.ID] = len(parents[n.ID])
	}

	// Seed the queue with zero-indegree nodes in declaration order.
	var queue []string
	for _, n := range nodes {
		if indegree[n.ID] == 0 {
			queue = append(queue, n.ID)
		}
	}

	sorted := make([]string, 0, len(nodes))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		sorted = append(sorted, id)

		for _, childID := range children[id] {
			indegree[childID]--
			if indegree[childID] == 0 {
				queue = append(queue, childID)
			}
		}
	}

	if len(sorted) != len(nodes) {
		return sorted, &domain.CycleError{Sorted: len(sorted), Total: len(nodes)}
	}
	return sorted, nil
}
