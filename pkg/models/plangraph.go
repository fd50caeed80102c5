package models

import "fmt"

// PlanGraph is the assembled DAG of all planned actions across a
// MetaGoal: nodes keyed by action id, edges mapping an action to its
// parent action ids, a valid topological execution order, and a map
// from goal index to the action ids that goal produced.
type PlanGraph struct {
	Nodes          map[string]PlannedAction
	Edges          map[string][]string // action_id -> parent action ids
	ExecutionOrder []string
	GoalMap        map[int][]string
}

// NewPlanGraph validates the structural invariants spec.md §3 and §8
// require: acyclic, every edge endpoint exists, execution_order is a
// valid topological sort covering every node exactly once.
func NewPlanGraph(nodes map[string]PlannedAction, edges map[string][]string, order []string, goalMap map[int][]string) (PlanGraph, error) {
	for id, parents := range edges {
		if _, ok := nodes[id]; !ok {
			return PlanGraph{}, fmt.Errorf("edge references unknown node %q", id)
		}
		for _, p := range parents {
			if _, ok := nodes[p]; !ok {
				return PlanGraph{}, fmt.Errorf("edge %q -> %q references unknown parent", id, p)
			}
		}
	}

	if len(order) != len(nodes) {
		return PlanGraph{}, fmt.Errorf("execution_order has %d entries, want %d (one per node)", len(order), len(nodes))
	}
	seen := make(map[string]bool, len(order))
	position := make(map[string]int, len(order))
	for i, id := range order {
		if _, ok := nodes[id]; !ok {
			return PlanGraph{}, fmt.Errorf("execution_order references unknown node %q", id)
		}
		if seen[id] {
			return PlanGraph{}, fmt.Errorf("execution_order lists node %q more than once", id)
		}
		seen[id] = true
		position[id] = i
	}
	for id, parents := range edges {
		for _, p := range parents {
			if position[p] >= position[id] {
				return PlanGraph{}, fmt.Errorf("execution_order is not a valid topological sort: %q must come after parent %q", id, p)
			}
		}
	}

	nodesCp := make(map[string]PlannedAction, len(nodes))
	for k, v := range nodes {
		nodesCp[k] = v
	}
	edgesCp := make(map[string][]string, len(edges))
	for k, v := range edges {
		cp := make([]string, len(v))
		copy(cp, v)
		edgesCp[k] = cp
	}
	orderCp := make([]string, len(order))
	copy(orderCp, order)
	goalMapCp := make(map[int][]string, len(goalMap))
	for k, v := range goalMap {
		cp := make([]string, len(v))
		copy(cp, v)
		goalMapCp[k] = cp
	}

	return PlanGraph{Nodes: nodesCp, Edges: edgesCp, ExecutionOrder: orderCp, GoalMap: goalMapCp}, nil
}

// Parents returns the parent action ids of actionID.
func (g PlanGraph) Parents(actionID string) []string {
	return g.Edges[actionID]
}

// Size returns the number of nodes.
func (g PlanGraph) Size() int {
	return len(g.Nodes)
}
