// Package classifier implements QueryClassifier: a router, not a
// planner. It answers exactly one question — does this utterance
// express ONE semantic goal or MULTIPLE — and never extracts actions
// or builds execution structure. A dependent sequence ("create a
// folder and put a file inside it") routes to multi, the same as
// genuinely independent goals; only GoalInterpreter tells them apart.
package classifier

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/coreline-ai/deskmind/internal/llm"
	"github.com/coreline-ai/deskmind/pkg/corerr"
	"github.com/coreline-ai/deskmind/pkg/models"
)

// dependencyPatterns catch pronoun back-references and explicit
// sequencing markers — syntactic evidence that a later clause
// consumes an earlier clause's output.
var dependencyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(inside|into|in)\s+(it|that|the)\b`),
	regexp.MustCompile(`\b(to|from)\s+(it|that|the)\b`),
	regexp.MustCompile(`\b(with|using)\s+(it|that)\b`),
	regexp.MustCompile(`\bthen\b`),
	regexp.MustCompile(`\bafter\s+that\b`),
	regexp.MustCompile(`\bonce\s+(it|that|done)\b`),
	regexp.MustCompile(`\bcreate\b.*\b(and|then)\b.*\b(inside|in|into)\b`),
	regexp.MustCompile(`\bmake\b.*\b(and|then)\b.*\b(inside|in|into)\b`),
}

// independentMultiPatterns catch syntactic shapes that are reliably
// two unrelated goals, e.g. two app launches joined by "and".
var independentMultiPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bopen\s+\w+\s+and\s+open\s+\w+\b`),
	regexp.MustCompile(`\b(mute|unmute|increase|decrease|set)\b.*\band\b.*\b(mute|unmute|increase|decrease|set|take|capture)\b`),
}

const (
	confidenceSyntacticDependency = 0.95
	confidenceSyntacticIndependent = 0.90
	confidenceLLM                  = 0.75
)

const systemPrompt = `You are a semantic goal classifier. Your job: determine if a request ` +
	`contains ONE atomic goal or MULTIPLE goals. "open X and do Y in X" where Y is the ` +
	`purpose is SINGLE. "open X and open Y" is MULTI (independent). "create X and put Y ` +
	`inside X" is MULTI (dependent sequence). Any pronoun back-reference to a prior entity ` +
	`means MULTI. Respond with JSON only: {"classification": "single"|"multi", "reasoning": "..."}`

// Classifier implements the two-phase QueryClassifier: a fast
// deterministic pattern scan, falling back to an LLM call only for
// genuinely ambiguous input.
type Classifier struct {
	provider llm.Provider
	model    string
}

// New builds a Classifier backed by provider. A nil provider is
// valid — LLM fallback then returns RouteSingle with low confidence
// rather than failing, matching the original's fail-open default.
func New(provider llm.Provider, model string) *Classifier {
	return &Classifier{provider: provider, model: model}
}

// Classify routes userInput to single or multi.
func (c *Classifier) Classify(ctx context.Context, userInput string) (models.Classification, error) {
	lower := strings.ToLower(userInput)

	if matchAny(dependencyPatterns, lower) {
		return models.Classification{
			Route:      models.RouteMulti,
			Confidence: confidenceSyntacticDependency,
			Method:     models.DetectionSyntactic,
			Reasoning:  "syntactic dependency pattern detected",
		}, nil
	}

	if matchAny(independentMultiPatterns, lower) {
		return models.Classification{
			Route:      models.RouteMulti,
			Confidence: confidenceSyntacticIndependent,
			Method:     models.DetectionSyntactic,
			Reasoning:  "independent multi-goal pattern detected",
		}, nil
	}

	return c.classifyWithLLM(ctx, userInput)
}

func (c *Classifier) classifyWithLLM(ctx context.Context, userInput string) (models.Classification, error) {
	if c.provider == nil {
		return models.Classification{
			Route:      models.RouteSingle,
			Confidence: confidenceLLM,
			Method:     models.DetectionLLM,
			Reasoning:  "no LLM provider configured, defaulting to single",
		}, nil
	}

	raw, err := c.provider.Complete(ctx, systemPrompt, "Classify: "+userInput, c.model)
	if err != nil {
		// Fail open to multi: the richer pipeline handles both single
		// and multi goals, so routing an unclassifiable utterance to
		// multi is the safe direction, not the lossy one.
		return models.Classification{
			Route:      models.RouteMulti,
			Confidence: confidenceLLM,
			Method:     models.DetectionLLM,
			Reasoning:  "classifier call failed, defaulting to multi",
		}, corerr.Wrap(corerr.KindProviderUnavailable, "classifier: LLM call failed", err)
	}

	route, reasoning := parseResponse(raw)
	return models.Classification{
		Route:      route,
		Confidence: confidenceLLM,
		Method:     models.DetectionLLM,
		Reasoning:  reasoning,
	}, nil
}

type rawClassification struct {
	Classification string `json:"classification"`
	Reasoning      string `json:"reasoning"`
}

func parseResponse(raw string) (models.RouteKind, string) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end < start {
		return models.RouteSingle, "no reasoning provided"
	}
	var parsed rawClassification
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
		return models.RouteSingle, "no reasoning provided"
	}
	route := models.RouteKind(parsed.Classification)
	if !route.Valid() {
		route = models.RouteSingle
	}
	reasoning := parsed.Reasoning
	if reasoning == "" {
		reasoning = "no reasoning provided"
	}
	return route, reasoning
}

func matchAny(patterns []*regexp.Regexp, text string) bool {
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}
