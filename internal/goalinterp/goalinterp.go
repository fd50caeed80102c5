// Package goalinterp implements GoalInterpreter: semantic goal
// extraction from user input. It answers "what is the user trying to
// achieve, semantically?" — never how to achieve it (GoalPlanner's
// job) and never executing anything (PlanExecutor's job).
//
// Called only when QueryClassifier routes to the multi path; single
// queries bypass this entirely and go straight to IntentClassifier.
package goalinterp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/coreline-ai/deskmind/internal/llm"
	"github.com/coreline-ai/deskmind/pkg/corerr"
	"github.com/coreline-ai/deskmind/pkg/models"
)

const systemPrompt = `You are a semantic goal interpreter. Extract SEMANTIC GOALS from user ` +
	`input, not actions. independent_multi means goals that don't depend on each other; ` +
	`dependent_multi means later goals need earlier goals to complete first. Respond with ` +
	`JSON only: {"meta_type": "single"|"independent_multi"|"dependent_multi", "goals": ` +
	`[{"domain": "...", "verb": "...", "params": {...}, "object": "..."}], "dependencies": ` +
	`[{"goal_idx": N, "depends_on": [...]}], "reasoning": "..."}`

// Interpreter extracts a MetaGoal from raw user input via an LLM
// call, then deterministically fixes up container-stack dependencies
// the LLM reliably gets wrong for nesting deeper than two levels.
type Interpreter struct {
	provider llm.Provider
	model    string
}

// New builds an Interpreter backed by provider.
func New(provider llm.Provider, model string) *Interpreter {
	return &Interpreter{provider: provider, model: model}
}

type rawGoal struct {
	Domain string         `json:"domain"`
	Verb   string         `json:"verb"`
	Params map[string]any `json:"params"`
	Object string         `json:"object"`
}

type rawDependency struct {
	GoalIdx   int   `json:"goal_idx"`
	DependsOn []int `json:"depends_on"`
}

type rawInterpretation struct {
	MetaType     string          `json:"meta_type"`
	Goals        []rawGoal       `json:"goals"`
	Dependencies []rawDependency `json:"dependencies"`
	Reasoning    string          `json:"reasoning"`
}

// Interpret turns userInput into a MetaGoal.
func (i *Interpreter) Interpret(ctx context.Context, userInput string) (models.MetaGoal, error) {
	raw, err := i.provider.Complete(ctx, systemPrompt, fmt.Sprintf("Interpret: %q", userInput), i.model)
	if err != nil {
		return models.MetaGoal{}, corerr.Wrap(corerr.KindProviderUnavailable, "goalinterp: LLM call failed", err)
	}

	parsed, err := parseInterpretation(raw)
	if err != nil {
		// Passthrough: a single best-effort goal rather than failing
		// the whole request on a malformed LLM response.
		return passthroughMetaGoal(userInput)
	}

	if len(parsed.Goals) == 0 {
		return passthroughMetaGoal(userInput)
	}

	llmDeps := make(map[int][]int, len(parsed.Dependencies))
	for _, d := range parsed.Dependencies {
		llmDeps[d.GoalIdx] = d.DependsOn
	}

	shapes := make([]goalShape, len(parsed.Goals))
	for idx, g := range parsed.Goals {
		shapes[idx] = goalShape{
			isFileOperation: g.Domain == "file",
			isFolder:        g.Domain == "file" && objectType(g.Params) == "folder",
		}
	}
	fixedDeps := fixContainerDependencies(shapes, llmDeps, userInput)
	containment := make(map[int]bool, len(fixedDeps))
	for idx, deps := range fixedDeps {
		llmDeps[idx] = deps
		if len(deps) > 0 {
			containment[idx] = true
		}
	}

	goals := make([]models.Goal, len(parsed.Goals))
	for idx, g := range parsed.Goals {
		scope := scopeFor(idx, llmDeps, containment)
		goals[idx] = models.NewGoal(fmt.Sprintf("g%d", idx), g.Domain, g.Verb, g.Params, g.Object, scope)
	}

	dependencies := make(map[int][]int, len(llmDeps))
	for idx, deps := range llmDeps {
		if len(deps) > 0 {
			dependencies[idx] = deps
		}
	}

	metaType := parseMetaType(parsed.MetaType, len(goals), len(dependencies))
	metaGoal, err := models.NewMetaGoal(metaType, goals, dependencies)
	if err != nil {
		return models.MetaGoal{}, corerr.Wrap(corerr.KindValidationFailed, "goalinterp: invalid meta goal", err)
	}
	return metaGoal, nil
}

// scopeFor renders a Scope string for goal idx from its (corrected)
// dependency list. A dependency the container-stack fix assigned
// (containment, "inside it") gets an inside:<goal_id> scope, so the
// orchestrator inherits the parent's resolved path; any other
// dependency is a plain ordering relationship ("then") and gets
// after:<goal_id>, which never triggers path inheritance. An
// independent goal gets root.
func scopeFor(idx int, deps map[int][]int, containment map[int]bool) models.Scope {
	d, ok := deps[idx]
	if !ok || len(d) == 0 {
		return models.ParseScope("root")
	}
	parent := d[len(d)-1]
	if containment[idx] {
		return models.ParseScope(fmt.Sprintf("inside:g%d", parent))
	}
	return models.ParseScope(fmt.Sprintf("after:g%d", parent))
}

func objectType(params map[string]any) string {
	if v, ok := params["object_type"]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func parseMetaType(raw string, numGoals, numDeps int) models.MetaType {
	switch raw {
	case "independent_multi":
		return models.MetaIndependentMulti
	case "dependent_multi":
		return models.MetaDependentMulti
	default:
		if numGoals == 1 {
			return models.MetaSingle
		}
		if numDeps > 0 {
			return models.MetaDependentMulti
		}
		return models.MetaIndependentMulti
	}
}

func parseInterpretation(raw string) (rawInterpretation, error) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end < start {
		return rawInterpretation{}, corerr.New(corerr.KindSchemaInvalid, "goalinterp: no JSON object in LLM response")
	}
	var parsed rawInterpretation
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
		return rawInterpretation{}, corerr.Wrap(corerr.KindSchemaInvalid, "goalinterp: failed to parse LLM response", err)
	}
	return parsed, nil
}

// passthroughMetaGoal builds a synthetic unknown-domain goal when
// interpretation fails outright: the raw utterance carries no reliable
// domain/verb, so guessing one (e.g. treating it as an app launch)
// would let a malformed LLM response plan and execute a real action.
// The unknown domain has no PlannerRules entry, so planning fails safe
// with NoCapability, and LegacyDecomposition flags the orchestrator to
// route to legacy decomposition or ask for clarification instead.
func passthroughMetaGoal(userInput string) (models.MetaGoal, error) {
	goal := models.NewGoal("g0", "unknown", "unknown", nil, userInput, models.ParseScope("root"))
	meta, err := models.NewMetaGoal(models.MetaSingle, []models.Goal{goal}, nil)
	if err != nil {
		return models.MetaGoal{}, err
	}
	return meta.WithLegacyDecomposition(), nil
}
