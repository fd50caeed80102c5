// Package planner implements GoalPlanner: a table-driven function
// that turns one resolved Goal into a single-action Plan. It performs
// no branching on domain or verb name — all domain knowledge lives in
// the rules.Table it looks up against.
package planner

import (
	"fmt"

	"github.com/coreline-ai/deskmind/internal/rules"
	"github.com/coreline-ai/deskmind/pkg/corerr"
	"github.com/coreline-ai/deskmind/pkg/models"
)

// Plan turns goal into a single-action Plan. ctxFrames supplies
// context_consumption lookups (e.g. a "platform" param left
// unfilled by the goal, but produced by an earlier sibling goal's
// execution). actionID names the resulting PlannedAction.
func Plan(actionID string, goal models.Goal, ctxFrames models.ContextFrames) (models.Plan, models.ContextFrames, error) {
	rule, ok := rules.Get(goal.Domain, goal.Verb)
	if !ok {
		return models.Plan{}, ctxFrames, corerr.New(corerr.KindNoCapability, fmt.Sprintf("no planner rule for (%s, %s)", goal.Domain, goal.Verb))
	}

	params := make(map[string]any, len(goal.Params))
	for k, v := range goal.Params {
		params[k] = v
	}

	if goal.ResolvedPath != "" {
		applyResolvedPath(goal.Domain, goal.Verb, params, goal.ResolvedPath)
	}

	for param, binding := range rule.ContextConsumption {
		if _, present := params[param]; present {
			continue
		}
		if frame, ok := ctxFrames.MostRecent(binding.Domain, binding.Key); ok {
			if v, ok := frame.Get(binding.Key); ok {
				params[param] = v
			}
		}
	}

	contextOnly := false
	merged, err := rules.ValidateParams(goal.Domain, goal.Verb, params, rule)
	if err != nil {
		if !rule.AllowSemanticOnly {
			return models.Plan{}, ctxFrames, corerr.Wrap(corerr.KindValidationFailed, "planner: param validation failed", err)
		}
		// AllowSemanticOnly: the goal lacks the params needed for a real
		// tool call, but the rule still wants its ContextProduction data
		// carried forward. Emit a context-only action instead of an
		// actuate/observe action with an unfilled description and no
		// tool-callable args.
		merged = params
		contextOnly = true
	}

	description := rules.FormatDescription(rule, merged)
	actionClass := models.ActionObserve
	if rule.ActionClass == "actuate" && !contextOnly {
		actionClass = models.ActionActuate
	}

	action := models.NewPlannedAction(actionID, rule.Intent, description, merged, actionClass)
	if contextOnly {
		action = action.WithContextOnly()
	}

	plan, err := models.NewPlan([]models.PlannedAction{action}, actionID)
	if err != nil {
		return models.Plan{}, ctxFrames, err
	}

	if rule.ContextProduction != nil {
		data := make(map[string]any, len(rule.ContextProduction.Keys))
		for _, k := range rule.ContextProduction.Keys {
			if v, ok := merged[k]; ok {
				data[k] = v
			}
		}
		if len(data) > 0 {
			ctxFrames = ctxFrames.Append(models.NewContextFrame(actionID, rule.ContextProduction.Domain, data))
		}
	}

	return plan, ctxFrames, nil
}

// applyResolvedPath overwrites the param PathResolver's output
// belongs in, per domain: "path" for read/write/list, "name" for
// create/delete (object identity — PathResolver already folded the
// anchor in, so name carries the full resolved path, e.g. `D:\alex`).
// move/copy/rename need two resolved identities (source/destination or
// source/target), not one, so the orchestrator resolves and writes
// those directly onto goal.Params before Plan is ever called; Goal
// never carries a single ResolvedPath for them, so this function is
// never reached for those three verbs.
func applyResolvedPath(domain, verb string, params map[string]any, resolvedPath string) {
	if domain != "file" {
		return
	}
	switch verb {
	case "read", "write", "list":
		params["path"] = resolvedPath
	case "create", "delete":
		params["name"] = resolvedPath
	}
}
