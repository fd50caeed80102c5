package executor

import "github.com/coreline-ai/deskmind/pkg/models"

// computeWaves groups graph's nodes into topological levels: every
// action in wave N has all its parents in waves 0..N-1, so running a
// wave's actions concurrently and barriering between waves respects
// every dependency edge while still allowing independent siblings to
// overlap (spec.md §5). models.NewPlanGraph already guarantees the
// input is acyclic, so level assignment always terminates.
func computeWaves(graph models.PlanGraph) [][]string {
	level := make(map[string]int, len(graph.Nodes))

	var levelOf func(id string) int
	levelOf = func(id string) int {
		if l, ok := level[id]; ok {
			return l
		}
		parents := graph.Parents(id)
		if len(parents) == 0 {
			level[id] = 0
			return 0
		}
		max := 0
		for _, p := range parents {
			if l := levelOf(p); l+1 > max {
				max = l + 1
			}
		}
		level[id] = max
		return max
	}

	maxLevel := 0
	for _, id := range graph.ExecutionOrder {
		if l := levelOf(id); l > maxLevel {
			maxLevel = l
		}
	}

	waves := make([][]string, maxLevel+1)
	for _, id := range graph.ExecutionOrder {
		l := level[id]
		waves[l] = append(waves[l], id)
	}
	return waves
}
