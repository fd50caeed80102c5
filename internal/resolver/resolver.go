// Package resolver implements ToolResolver: two-stage, intent-aware
// mapping from a PlannedAction to a concrete Capability. Stage 1
// searches an intent's preferred domains; Stage 2 is a domain-locked
// global fallback, never a free-for-all. Wrong intent should degrade
// resolution quality, not doom it — but Stage 2's domain lock is a
// hard safety boundary, not a soft preference.
package resolver

import (
	"context"
	"strings"

	"github.com/coreline-ai/deskmind/internal/llm"
	"github.com/coreline-ai/deskmind/internal/registry"
	"github.com/coreline-ai/deskmind/pkg/corerr"
	"github.com/coreline-ai/deskmind/pkg/models"
)

const (
	// DefaultConfidenceThreshold is the minimum Stage 1 confidence
	// required before accepting its result outright; below this,
	// resolution proceeds to Stage 2.
	DefaultConfidenceThreshold = 0.7
	// DefaultDomainMismatchPenalty is subtracted from a Stage 2 match's
	// confidence when the chosen tool falls outside the intent's
	// preferred domains.
	DefaultDomainMismatchPenalty = 0.15
)

// preferredDomains maps an intent tag to the tool-name prefixes
// ToolResolver searches first. Soft guidance, not a hard filter.
var preferredDomains = map[string][]string{
	"application_launch":  {"system.apps.launch"},
	"application_control": {"system.apps"},
	"window_management":   {"system.window", "system.virtual_desktop"},
	"system_query":        {"system.state"},
	"system_control":      {"system.audio", "system.display", "system.power", "system.desktop", "system.network"},
	"screen_capture":      {"system.display"},
	"screen_perception":   {"system.display"},
	"input_control":       {"system.input"},
	"clipboard_operation": {"system.clipboard"},
	"memory_recall":       {"memory"},
	"file_operation":      {"files"},
	"browser_control":     {"browsers"},
	"office_operation":    {"office"},
	"information_query":   {},
	"unknown":             {},
}

// disallowedDomains hard-excludes tool-name prefixes from Stage 2
// fallback for a given intent. browser_control, file_operation, and
// every other non-input intent must never fall back to raw physical
// input: system.input is opt-in only, reachable solely via the
// input_control intent.
var disallowedDomains = map[string][]string{
	"browser_control":     {"system.input"},
	"file_operation":      {"system.input"},
	"office_operation":    {"system.input"},
	"application_launch":  {"system.input"},
	"application_control": {"system.input"},
	"window_management":   {"system.input"},
	"information_query":   {"system.input", "system.apps", "system.power"},
	"screen_capture":      {"system.input"},
	"screen_perception":   {"system.input"},
}

// stage2Allowed is the whitelist Stage 2 fallback must stay within. A
// nil slice value (as opposed to a missing key) means "no whitelist
// restriction"; an explicit empty, present slice means "Stage 2 is
// blocked entirely for this intent". Go can't distinguish nil-value
// from absent-key at the zero value the way Python's dict.get() with
// None can, so stage2AllowedSet (below) tracks presence explicitly.
var stage2Allowed = map[string][]string{
	"file_operation":      {"files"},
	"browser_control":     {"browsers", "system.apps.launch"},
	"application_launch":  {"system.apps.launch"},
	"application_control": {"system.apps"},
	"system_control":      {"system.audio", "system.display", "system.power", "system.desktop", "system.network"},
	"screen_capture":      {"system.display"},
	"screen_perception":   {"system.display"},
	"clipboard_operation": {"system.clipboard"},
	"input_control":       {"system.input"},
	"window_management":   {"system.window", "system.virtual_desktop"},
	"system_query":        {"system.state"},
	"memory_recall":       {"memory"},
	"office_operation":    {"office"},
	"information_query":   {},
}

// Resolution is the outcome of resolving one PlannedAction.
type Resolution struct {
	Tool        string
	Params      map[string]any
	Confidence  float64
	DomainMatch bool
	Stage       int
	Reason      string
}

// Resolver performs two-stage tool resolution.
type Resolver struct {
	registry              *registry.Registry
	provider              llm.Provider
	model                 string
	confidenceThreshold   float64
	domainMismatchPenalty float64
}

// Config configures a Resolver.
type Config struct {
	ConfidenceThreshold   float64
	DomainMismatchPenalty float64
}

// New builds a Resolver over reg, using provider/model for the
// natural-language tool-matching step.
func New(reg *registry.Registry, provider llm.Provider, model string, cfg Config) *Resolver {
	threshold := cfg.ConfidenceThreshold
	if threshold == 0 {
		threshold = DefaultConfidenceThreshold
	}
	penalty := cfg.DomainMismatchPenalty
	if penalty == 0 {
		penalty = DefaultDomainMismatchPenalty
	}
	return &Resolver{
		registry:              reg,
		provider:              provider,
		model:                 model,
		confidenceThreshold:   threshold,
		domainMismatchPenalty: penalty,
	}
}

// Resolve maps a PlannedAction to a Capability. actionClass, when
// non-empty, is a hard filter applied before domain filtering: only
// capabilities whose ActionClass matches are considered, at either
// stage, with no relaxation on failure.
func (r *Resolver) Resolve(ctx context.Context, action models.PlannedAction) (Resolution, error) {
	intent := action.IntentTag
	actionClass := string(action.ActionClass)

	preferred := r.registry.InDomains(preferredDomains[intent])
	preferred = filterByActionClass(preferred, actionClass)

	if len(preferredDomains[intent]) > 0 && len(preferred) == 0 {
		return Resolution{Stage: 1, Reason: "no tools with matching action class in preferred domains for intent " + intent}, corerr.New(corerr.KindNoTool, "no preferred-domain capability for intent "+intent)
	}

	if len(preferred) > 0 {
		stage1, err := r.matchAgainst(ctx, action, preferred, 1)
		if err == nil && stage1.Tool != "" && stage1.Confidence >= r.confidenceThreshold {
			stage1.DomainMatch = true
			return stage1, nil
		}
	}

	allowed, hasWhitelist := stage2Allowed[intent]
	candidates := r.registry.All()
	if hasWhitelist {
		if len(allowed) == 0 {
			return Resolution{Stage: 2, Reason: "intent " + intent + " has no allowed Stage 2 fallback domains"}, corerr.New(corerr.KindNoTool, "stage 2 blocked for intent "+intent)
		}
		candidates = r.registry.InDomains(allowed)
	}
	candidates = excludeDomains(candidates, disallowedDomains[intent])
	candidates = filterByActionClass(candidates, actionClass)
	if len(candidates) == 0 {
		return Resolution{Stage: 2, Reason: "no candidate tools survive domain and action-class filtering for intent " + intent}, corerr.New(corerr.KindNoTool, "no stage 2 candidates for intent "+intent)
	}

	stage2, err := r.matchAgainst(ctx, action, candidates, 2)
	if err != nil {
		return Resolution{}, err
	}
	if stage2.Tool == "" {
		return stage2, corerr.New(corerr.KindNoTool, "no tool matched action "+action.ActionID+" for intent "+intent)
	}
	if stage2.Tool != "" {
		if isInPreferredDomain(stage2.Tool, preferredDomains[intent]) {
			stage2.DomainMatch = true
		} else {
			stage2.Confidence = max0(stage2.Confidence - r.domainMismatchPenalty)
			stage2.DomainMatch = false
		}
	}
	return stage2, nil
}

// matchAgainst resolves action against a fixed candidate set by
// exact capability-name substring match against the action's
// description — a deterministic stand-in for the teacher's LLM-driven
// selection, suitable when the description already names the domain
// verb (e.g. "navigate:https://...") the way GoalPlanner formats it.
// It falls back to the configured LLM provider only when no
// candidate's name obviously matches.
func (r *Resolver) matchAgainst(ctx context.Context, action models.PlannedAction, candidates []models.Capability, stage int) (Resolution, error) {
	if tool, ok := matchByVerb(action, candidates); ok {
		return Resolution{Tool: tool.ToolName, Params: action.Args, Confidence: 0.95, Stage: stage, Reason: "exact verb match"}, nil
	}

	if r.provider == nil {
		return Resolution{Stage: stage, Reason: "no deterministic match and no LLM provider configured"}, nil
	}

	prompt := buildResolutionPrompt(action, candidates, stage)
	raw, err := r.provider.Complete(ctx, resolutionSystemPrompt, prompt, r.model)
	if err != nil {
		return Resolution{}, err
	}
	return parseResolutionResponse(raw, r.registry)
}

func matchByVerb(action models.PlannedAction, candidates []models.Capability) (models.Capability, bool) {
	verb := firstSegment(action.Description)
	for _, c := range candidates {
		if strings.HasSuffix(c.ToolName, "."+verb) || strings.Contains(c.ToolName, verb) {
			return c, true
		}
	}
	return models.Capability{}, false
}

func firstSegment(description string) string {
	if idx := strings.Index(description, ":"); idx >= 0 {
		return description[:idx]
	}
	return description
}

func isInPreferredDomain(toolName string, domains []string) bool {
	for _, d := range domains {
		if strings.HasPrefix(toolName, d) {
			return true
		}
	}
	return false
}

func filterByActionClass(caps []models.Capability, actionClass string) []models.Capability {
	if actionClass == "" {
		return caps
	}
	out := make([]models.Capability, 0, len(caps))
	for _, c := range caps {
		if string(c.ActionClass) == actionClass {
			out = append(out, c)
		}
	}
	return out
}

func excludeDomains(caps []models.Capability, domains []string) []models.Capability {
	if len(domains) == 0 {
		return caps
	}
	out := make([]models.Capability, 0, len(caps))
	for _, c := range caps {
		excluded := false
		for _, d := range domains {
			if strings.HasPrefix(c.ToolName, d) {
				excluded = true
				break
			}
		}
		if !excluded {
			out = append(out, c)
		}
	}
	return out
}

func max0(f float64) float64 {
	if f < 0 {
		return 0
	}
	return f
}
