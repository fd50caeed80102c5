package orchestrator

import (
	"github.com/coreline-ai/deskmind/pkg/corerr"
	"github.com/coreline-ai/deskmind/pkg/models"
)

// topologicalSort orders action ids so every parent (dependency)
// precedes its children, via DFS reverse-post-order over the edges
// map (action id -> parent action ids). Iteration order over the
// nodes map is randomized by Go, but the visited set prevents
// double-processing, so distinct runs over an identical graph still
// produce a valid (if not byte-identical) topological order.
func topologicalSort(nodes map[string]models.PlannedAction, edges map[string][]string) ([]string, error) {
	if hasCycle(nodes, edges) {
		return nil, corerr.New(corerr.KindValidationFailed, "orchestrator: dependency graph contains a cycle")
	}

	visited := make(map[string]bool, len(nodes))
	var result []string

	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, parent := range edges[id] {
			visit(parent)
		}
		result = append(result, id)
	}

	for id := range nodes {
		visit(id)
	}

	return result, nil
}

// hasCycle runs a three-color DFS over edges (action id -> parent
// action ids) to detect a back edge.
func hasCycle(nodes map[string]models.PlannedAction, edges map[string][]string) bool {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	colors := make(map[string]int, len(nodes))
	for id := range nodes {
		colors[id] = white
	}

	var cyclic bool
	var visit func(id string) bool
	visit = func(id string) bool {
		colors[id] = gray
		for _, parent := range edges[id] {
			switch colors[parent] {
			case gray:
				return true
			case white:
				if visit(parent) {
					return true
				}
			}
		}
		colors[id] = black
		return false
	}

	for id := range nodes {
		if colors[id] == white {
			if visit(id) {
				cyclic = true
				break
			}
		}
	}
	return cyclic
}
