package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/coreline-ai/deskmind/internal/executor"
	"github.com/coreline-ai/deskmind/internal/llm"
	"github.com/coreline-ai/deskmind/internal/registry"
	"github.com/coreline-ai/deskmind/internal/resolver"
	"github.com/coreline-ai/deskmind/internal/rules"
	"github.com/coreline-ai/deskmind/internal/tool"
	"github.com/coreline-ai/deskmind/internal/worldstate"
	"github.com/coreline-ai/deskmind/pkg/models"
)

const classifySingleJSON = `{"classification": "single", "reasoning": "one atomic goal"}`

func navigateCapability() models.Capability {
	return models.Capability{
		ToolName:    "browsers.navigate",
		IntentTags:  []string{"browser_control"},
		ActionClass: models.ActionActuate,
	}
}

func newTestPipeline(t *testing.T, provider llm.Provider, tools tool.Provider) *Pipeline {
	t.Helper()
	reg := registry.New()
	reg.Register(navigateCapability())
	return New(Deps{
		Provider: provider,
		Model:    "test-model",
		Registry: reg,
		Tools:    tools,
		World:    worldstate.Empty(),
		Resolver: resolver.Config{},
	})
}

// "open it" has no deterministic syntactic pattern, so QueryClassifier
// falls through to its own LLM call before IntentClassifier ever runs.
func TestProcessSinglePathAsk(t *testing.T) {
	fake := &llm.Fake{Responses: []string{
		classifySingleJSON,
		`{"intent": "browser_control", "confidence": 0.2, "needs_clarification": true, "question": "Which site?"}`,
	}}
	p := newTestPipeline(t, fake, tool.NewRegistry())

	result, err := p.Process(context.Background(), "open it", "sess-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.FinalStatus != "ask" {
		t.Fatalf("expected ask status, got %q", result.FinalStatus)
	}
	if result.Question != "Which site?" {
		t.Errorf("expected clarification question preserved, got %q", result.Question)
	}
	if result.Orchestration != nil || result.Bundle != nil {
		t.Errorf("expected no orchestration/execution for an Ask decision, got %+v / %+v", result.Orchestration, result.Bundle)
	}
}

func TestProcessSinglePathInformationQueryAnswersDirectly(t *testing.T) {
	fake := &llm.Fake{Responses: []string{
		classifySingleJSON,
		`{"intent": "information_query", "confidence": 0.9, "needs_clarification": false}`,
		"Paris is the capital of France.",
	}}
	p := newTestPipeline(t, fake, tool.NewRegistry())

	result, err := p.Process(context.Background(), "what is the capital of france", "sess-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.FinalStatus != "answered" {
		t.Fatalf("expected answered status, got %q", result.FinalStatus)
	}
	if !strings.Contains(result.Message, "Paris") {
		t.Errorf("expected the direct answer in Message, got %q", result.Message)
	}
	if len(fake.Calls) != 3 {
		t.Fatalf("expected exactly 3 LLM calls (classify + intent + answer), got %d", len(fake.Calls))
	}
}

func TestProcessSinglePathActuateSucceeds(t *testing.T) {
	fake := &llm.Fake{Responses: []string{
		classifySingleJSON,
		`{"intent": "browser_control", "confidence": 0.9, "needs_clarification": false}`,
		`{"url": "https://www.youtube.com"}`,
	}}
	fakeTool := &tool.Fake{Outcomes: []tool.Outcome{{Status: tool.StatusSuccess}}}
	tools := tool.NewRegistry()
	tools.Register("browsers.navigate", fakeTool)

	p := newTestPipeline(t, fake, tools)

	result, err := p.Process(context.Background(), "open youtube", "sess-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.FinalStatus != string(executor.FinalSuccess) {
		t.Fatalf("expected success, got %q (%s)", result.FinalStatus, result.Message)
	}
	if result.Bundle == nil {
		t.Fatal("expected a populated execution bundle")
	}
	if fakeTool.CallCount() != 1 {
		t.Errorf("expected the tool invoked once, got %d", fakeTool.CallCount())
	}
	if result.Orchestration == nil || !result.Orchestration.HasGraph {
		t.Errorf("expected an orchestration result carrying a graph, got %+v", result.Orchestration)
	}
	action, ok := result.Orchestration.PlanGraph.Nodes["g0_a0"]
	if !ok {
		t.Fatalf("expected g0_a0 in plan graph, got %v", result.Orchestration.PlanGraph.Nodes)
	}
	if action.Args["url"] != "https://www.youtube.com" {
		t.Errorf("expected url extracted via the LLM, not the raw utterance, got %v", action.Args["url"])
	}
}

// A single required param still goes through the LLM when a provider
// IS configured, rather than taking the raw utterance text; the raw
// text is only the last resort when no provider is configured.
func TestFillParamsSingleRequiredParamUsesLLMWhenProviderConfigured(t *testing.T) {
	fake := &llm.Fake{Responses: []string{`{"url": "https://www.youtube.com/results?search_query=nvidia"}`}}
	rule, ok := rules.Get("browser", "navigate")
	if !ok {
		t.Fatal("expected a rule for (browser, navigate)")
	}

	params, err := fillParams(context.Background(), fake, "test-model", rule, "open youtube and search nvidia")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params["url"] != "https://www.youtube.com/results?search_query=nvidia" {
		t.Errorf("expected the LLM-derived URL, got %v", params["url"])
	}
	if len(fake.Calls) != 1 {
		t.Fatalf("expected exactly one extraction call, got %d", len(fake.Calls))
	}
}

func TestFillParamsSingleRequiredParamFallsBackToRawTextWithoutProvider(t *testing.T) {
	rule, ok := rules.Get("browser", "navigate")
	if !ok {
		t.Fatal("expected a rule for (browser, navigate)")
	}

	params, err := fillParams(context.Background(), nil, "test-model", rule, "open youtube")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params["url"] != "open youtube" {
		t.Errorf("expected raw text fallback with no provider configured, got %v", params["url"])
	}
}

func TestProcessSinglePathNoCapabilityForUnknownIntent(t *testing.T) {
	fake := &llm.Fake{Responses: []string{
		classifySingleJSON,
		`{"intent": "memory_recall", "confidence": 0.9, "needs_clarification": false}`,
	}}
	p := newTestPipeline(t, fake, tool.NewRegistry())

	result, err := p.Process(context.Background(), "remember what I said", "sess-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.FinalStatus != "no_capability" {
		t.Fatalf("expected no_capability, got %q", result.FinalStatus)
	}
}

// "open netflix and open spotify" is caught by QueryClassifier's
// independent-multi syntactic pattern, so no classifier LLM call
// happens here; the one scripted response is consumed entirely by
// GoalInterpreter.
func TestProcessMultiPathSucceeds(t *testing.T) {
	fake := &llm.Fake{Responses: []string{
		`{"meta_type": "independent_multi", "goals": [` +
			`{"domain": "browser", "verb": "navigate", "params": {"url": "https://netflix.com"}, "object": "netflix"},` +
			`{"domain": "browser", "verb": "navigate", "params": {"url": "https://spotify.com"}, "object": "spotify"}` +
			`]}`,
	}}
	fakeTool := &tool.Fake{Outcomes: []tool.Outcome{{Status: tool.StatusSuccess}, {Status: tool.StatusSuccess}}}
	tools := tool.NewRegistry()
	tools.Register("browsers.navigate", fakeTool)

	p := newTestPipeline(t, fake, tools)

	result, err := p.Process(context.Background(), "open netflix and open spotify", "sess-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.FinalStatus != string(executor.FinalSuccess) && result.FinalStatus != string(executor.FinalPartial) {
		t.Fatalf("expected success or partial, got %q (%s)", result.FinalStatus, result.Message)
	}
	if fakeTool.CallCount() == 0 {
		t.Errorf("expected at least one tool invocation across the independent goals")
	}
}

func TestProcessResolutionFailureShortCircuitsBeforeExecution(t *testing.T) {
	fake := &llm.Fake{Responses: []string{
		classifySingleJSON,
		`{"intent": "browser_control", "confidence": 0.9, "needs_clarification": false}`,
	}}
	// No capabilities registered at all: resolution must fail before any
	// tool is invoked.
	p := New(Deps{
		Provider: fake,
		Model:    "test-model",
		Registry: registry.New(),
		Tools:    tool.NewRegistry(),
		World:    worldstate.Empty(),
		Resolver: resolver.Config{},
	})

	result, err := p.Process(context.Background(), "open youtube", "sess-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.FinalStatus != "no_tool" {
		t.Fatalf("expected no_tool status, got %q (%s)", result.FinalStatus, result.Message)
	}
	if result.Bundle != nil {
		t.Errorf("expected no execution bundle when resolution fails, got %+v", result.Bundle)
	}
}
