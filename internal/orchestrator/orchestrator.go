// Package orchestrator implements GoalOrchestrator: it accepts a
// MetaGoal, calls GoalPlanner once per goal, resolves file-domain
// paths through the one PathResolver authority, and combines the
// resulting per-goal Plans into a single PlanGraph. It never parses
// user input (GoalInterpreter's job), never merges actions within one
// goal (GoalPlanner's job), and never executes anything (PlanExecutor's
// job).
package orchestrator

import (
	"fmt"

	"github.com/coreline-ai/deskmind/internal/pathresolver"
	"github.com/coreline-ai/deskmind/internal/planner"
	"github.com/coreline-ai/deskmind/pkg/corerr"
	"github.com/coreline-ai/deskmind/pkg/models"
)

// Status is the closed outcome of an orchestration attempt.
type Status string

const (
	StatusSuccess      Status = "success"
	StatusPartial      Status = "partial"
	StatusBlocked      Status = "blocked"
	StatusNoCapability Status = "no_capability"
)

// FailedGoal records one goal the orchestrator could not plan,
// whether because GoalPlanner rejected it or one of its declared
// dependencies already failed.
type FailedGoal struct {
	GoalIdx int
	Goal    models.Goal
	Reason  string
}

// Result is the outcome of Orchestrate.
type Result struct {
	Status      Status
	PlanGraph   models.PlanGraph
	HasGraph    bool
	FailedGoals []FailedGoal
	Reason      string
}

// Orchestrator combines GoalPlanner invocations and PathResolver
// resolution into a single PlanGraph per MetaGoal.
type Orchestrator struct {
	paths *pathresolver.Resolver
}

// New builds an Orchestrator backed by paths, the sole authority for
// turning file-domain identities into absolute paths. paths may be
// nil for callers that never produce file-domain goals (e.g. tests).
func New(paths *pathresolver.Resolver) *Orchestrator {
	return &Orchestrator{paths: paths}
}

// Orchestrate dispatches on meta.MetaType and returns the combined
// PlanGraph, or a failure report when some or all goals could not be
// planned.
func (o *Orchestrator) Orchestrate(meta models.MetaGoal) (Result, error) {
	if meta.LegacyDecomposition {
		// The interpreter couldn't derive a real meta-structure and
		// fell back to a synthetic unknown-domain goal; there is no
		// legacy decomposition path in this core, so the correct move
		// is to report the ambiguity plainly rather than let the
		// synthetic goal go on to fail planning with a misleading
		// no_capability reason.
		return Result{
			Status: StatusBlocked,
			Reason: fmt.Sprintf("%s: %s", corerr.KindAmbiguousUtterance, "interpretation failed; no legacy decomposition path available"),
		}, nil
	}

	switch meta.MetaType {
	case models.MetaSingle:
		return o.handleSingle(meta)
	case models.MetaIndependentMulti:
		return o.handleIndependentMulti(meta)
	case models.MetaDependentMulti:
		return o.handleDependentMulti(meta)
	default:
		return Result{Status: StatusNoCapability, Reason: fmt.Sprintf("unknown meta_type %q", meta.MetaType)}, nil
	}
}

func (o *Orchestrator) handleSingle(meta models.MetaGoal) (Result, error) {
	goal := o.resolveGoalPath(meta.Goal(0), "")
	plan, _, err := planner.Plan("a0", goal, nil)
	if err != nil {
		return Result{
			Status:      StatusBlocked,
			FailedGoals: []FailedGoal{{GoalIdx: 0, Goal: goal, Reason: err.Error()}},
			Reason:      err.Error(),
		}, nil
	}

	graph, err := planToGraph(plan, 0)
	if err != nil {
		return Result{}, err
	}
	return Result{Status: StatusSuccess, PlanGraph: graph, HasGraph: true}, nil
}

func (o *Orchestrator) handleIndependentMulti(meta models.MetaGoal) (Result, error) {
	type planned struct {
		idx  int
		plan models.Plan
	}
	var plans []planned
	var failed []FailedGoal

	for idx, goal := range meta.Goals() {
		goal = o.resolveGoalPath(goal, "")
		plan, _, err := planner.Plan(fmt.Sprintf("a%d", idx), goal, nil)
		if err != nil {
			failed = append(failed, FailedGoal{GoalIdx: idx, Goal: goal, Reason: err.Error()})
			continue
		}
		plans = append(plans, planned{idx: idx, plan: plan})
	}

	if len(plans) == 0 {
		return Result{Status: StatusBlocked, FailedGoals: failed, Reason: "no goals could be planned"}, nil
	}

	nodes := make(map[string]models.PlannedAction)
	edges := make(map[string][]string)
	goalMap := make(map[int][]string)
	var order []string

	for _, p := range plans {
		for _, action := range p.plan.Actions {
			prefixed := prefixID(p.idx, action.ActionID)
			renamed := action
			renamed.ActionID = prefixed
			nodes[prefixed] = renamed
			edges[prefixed] = nil
			goalMap[p.idx] = append(goalMap[p.idx], prefixed)
			order = append(order, prefixed)
		}
	}

	graph, err := models.NewPlanGraph(nodes, edges, order, goalMap)
	if err != nil {
		return Result{}, err
	}

	if len(failed) > 0 {
		return Result{Status: StatusPartial, PlanGraph: graph, HasGraph: true, FailedGoals: failed, Reason: fmt.Sprintf("%d goal(s) could not be planned", len(failed))}, nil
	}
	return Result{Status: StatusSuccess, PlanGraph: graph, HasGraph: true}, nil
}

func (o *Orchestrator) handleDependentMulti(meta models.MetaGoal) (Result, error) {
	type planned struct {
		idx  int
		plan models.Plan
	}
	var plans []planned
	var failed []FailedGoal
	failedIdx := make(map[int]bool)
	resolvedPaths := make(map[int]string)
	var ctxFrames models.ContextFrames

	goals := meta.Goals()
	for idx, goal := range goals {
		deps := meta.DependenciesOf(idx)
		blocked := false
		for _, d := range deps {
			if failedIdx[d] {
				blocked = true
				break
			}
		}
		if blocked {
			failed = append(failed, FailedGoal{GoalIdx: idx, Goal: goal, Reason: "dependency failed"})
			failedIdx[idx] = true
			continue
		}

		// Only a containment dependency ("inside it") inherits the
		// parent's resolved path; a plain ordering dependency ("then")
		// between two file-domain goals leaves each to resolve its own
		// base independently.
		parentResolved := ""
		if len(deps) > 0 && goal.Scope.Kind == models.ScopeInside {
			parentResolved = resolvedPaths[deps[len(deps)-1]]
		}
		goal = o.resolveGoalPath(goal, parentResolved)
		if goal.ResolvedPath != "" {
			resolvedPaths[idx] = goal.ResolvedPath
		}

		plan, producedFrames, err := planner.Plan(fmt.Sprintf("a%d", idx), goal, ctxFrames)
		if err != nil {
			failed = append(failed, FailedGoal{GoalIdx: idx, Goal: goal, Reason: err.Error()})
			failedIdx[idx] = true
			continue
		}
		ctxFrames = producedFrames
		plans = append(plans, planned{idx: idx, plan: plan})
	}

	if len(plans) == 0 {
		return Result{Status: StatusBlocked, FailedGoals: failed, Reason: "no goals could be planned"}, nil
	}

	nodes := make(map[string]models.PlannedAction)
	edges := make(map[string][]string)
	goalMap := make(map[int][]string)

	for _, p := range plans {
		for _, action := range p.plan.Actions {
			prefixed := prefixID(p.idx, action.ActionID)
			renamed := action
			renamed.ActionID = prefixed
			nodes[prefixed] = renamed
			edges[prefixed] = nil
			goalMap[p.idx] = append(goalMap[p.idx], prefixed)
		}
	}

	for idx, deps := range meta.Dependencies() {
		actions, ok := goalMap[idx]
		if !ok || len(actions) == 0 {
			continue
		}
		first := actions[0]
		for _, dep := range deps {
			depActions, ok := goalMap[dep]
			if !ok || len(depActions) == 0 {
				continue
			}
			last := depActions[len(depActions)-1]
			if !contains(edges[first], last) {
				edges[first] = append(edges[first], last)
			}
		}
	}

	order, err := topologicalSort(nodes, edges)
	if err != nil {
		return Result{}, err
	}

	graph, err := models.NewPlanGraph(nodes, edges, order, goalMap)
	if err != nil {
		return Result{}, err
	}

	if len(failed) > 0 {
		return Result{Status: StatusPartial, PlanGraph: graph, HasGraph: true, FailedGoals: failed, Reason: fmt.Sprintf("%d goal(s) could not be planned", len(failed))}, nil
	}
	return Result{Status: StatusSuccess, PlanGraph: graph, HasGraph: true}, nil
}

// resolveGoalPath runs PathResolver for file-domain goals only, using
// the goal's own scope anchor (if it set one) or WORKSPACE by default,
// and parentResolved when a dependent goal inherits its container's
// location. Non-file-domain goals pass through untouched.
//
// move/copy/rename carry two identities (source/destination or
// source/target), not one, so they resolve each param independently
// via resolveIdentityParams instead of the single ResolvedPath scalar
// the other file verbs use.
func (o *Orchestrator) resolveGoalPath(goal models.Goal, parentResolved string) models.Goal {
	if !goal.IsFileDomain() || o.paths == nil {
		return goal
	}

	anchor := pathresolver.AnchorWorkspace
	if goal.Scope.Kind == models.ScopeAnchor {
		if a, ok := anchorFromToken(goal.Scope.Value); ok {
			anchor = a
		}
	}

	switch goal.Verb {
	case "move", "copy":
		return o.resolveIdentityParams(goal, anchor, parentResolved, "source", "destination")
	case "rename":
		return o.resolveIdentityParams(goal, anchor, parentResolved, "source", "target")
	}

	raw := goal.ParamString("name")
	if raw == "" {
		raw = goal.ParamString("path")
	}
	if raw == "" {
		raw = goal.Object
	}
	if raw == "" {
		return goal
	}

	resolved, err := o.paths.Resolve(raw, anchor, parentResolved)
	if err != nil {
		return goal
	}
	return goal.WithResolvedPath(resolved.AbsolutePath)
}

// resolveIdentityParams resolves each of keys present on goal against
// anchor/parentResolved and writes each result back onto its own
// param key. PathResolver remains the only combiner of base anchor (or
// parent path) and per-goal identity, even when a goal needs more than
// one identity resolved.
func (o *Orchestrator) resolveIdentityParams(goal models.Goal, anchor pathresolver.Anchor, parentResolved string, keys ...string) models.Goal {
	for _, key := range keys {
		raw := goal.ParamString(key)
		if raw == "" {
			continue
		}
		resolved, err := o.paths.Resolve(raw, anchor, parentResolved)
		if err != nil {
			continue
		}
		goal = goal.WithResolvedParam(key, resolved.AbsolutePath)
	}
	return goal
}

func anchorFromToken(token string) (pathresolver.Anchor, bool) {
	switch token {
	case "workspace", "root":
		return pathresolver.AnchorWorkspace, true
	case "desktop":
		return pathresolver.AnchorDesktop, true
	case "documents":
		return pathresolver.AnchorDocuments, true
	case "downloads":
		return pathresolver.AnchorDownloads, true
	case "drive:C", "drive:c":
		return pathresolver.AnchorDriveC, true
	case "drive:D", "drive:d":
		return pathresolver.AnchorDriveD, true
	case "drive:E", "drive:e":
		return pathresolver.AnchorDriveE, true
	case "home":
		return pathresolver.AnchorHome, true
	default:
		return "", false
	}
}

func planToGraph(plan models.Plan, goalIdx int) (models.PlanGraph, error) {
	nodes := make(map[string]models.PlannedAction, len(plan.Actions))
	edges := make(map[string][]string, len(plan.Actions))
	var order []string
	goalMap := map[int][]string{goalIdx: {}}

	for _, action := range plan.Actions {
		prefixed := prefixID(goalIdx, action.ActionID)
		renamed := action
		renamed.ActionID = prefixed
		nodes[prefixed] = renamed
		edges[prefixed] = nil
		order = append(order, prefixed)
		goalMap[goalIdx] = append(goalMap[goalIdx], prefixed)
	}

	return models.NewPlanGraph(nodes, edges, order, goalMap)
}

func prefixID(goalIdx int, actionID string) string {
	return fmt.Sprintf("g%d_%s", goalIdx, actionID)
}

func contains(haystack []string, needle string) bool {
	for _, h := range haystack {
		if h == needle {
			return true
		}
	}
	return false
}
