package graph

import "github.com/flowlayer/flowengine/internal/domain"

// ComputeLevels assigns each node in sorted (a valid topological order) a
// level equal to 1 + max(parent levels), or 0 if it has no parents among
// nodes present in the flow. Levels are emitted as contiguous lists that
// preserve sorted's relative order within each level.
func ComputeLevels(sorted []string, parents map[string][]string) [][]string {
	level := make(map[string]int, len(sorted))
	maxLevel := 0

	for _, id := range sorted {
		lvl := 0
		for _, p := range parents[id] {
			if pl, ok := level[p]; ok && pl+1 > lvl {
				lvl = pl + 1
			}
		}
		level[id] = lvl
		if lvl > maxLevel {
			maxLevel = lvl
		}
	}

	levels := make([][]string, maxLevel+1)
	for _, id := range sorted {
		l := level[id]
		levels[l] = append(levels[l], id)
	}
	return levels
}
