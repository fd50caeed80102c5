package classifier

import (
	"context"
	"testing"

	"github.com/coreline-ai/deskmind/internal/llm"
	"github.com/coreline-ai/deskmind/pkg/models"
)

func TestClassifySyntacticDependency(t *testing.T) {
	c := New(nil, "")
	result, err := c.Classify(context.Background(), "create a folder called projects and put a readme inside it")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Route != models.RouteMulti {
		t.Errorf("expected multi, got %q", result.Route)
	}
	if result.Method != models.DetectionSyntactic {
		t.Errorf("expected syntactic detection, got %q", result.Method)
	}
	if result.Confidence < 0.9 {
		t.Errorf("expected high confidence, got %v", result.Confidence)
	}
}

func TestClassifySyntacticIndependentMulti(t *testing.T) {
	c := New(nil, "")
	result, err := c.Classify(context.Background(), "open chrome and open spotify")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Route != models.RouteMulti {
		t.Errorf("expected multi, got %q", result.Route)
	}
	if result.Method != models.DetectionSyntactic {
		t.Errorf("expected syntactic detection, got %q", result.Method)
	}
}

func TestClassifyFallsBackToLLMWhenAmbiguous(t *testing.T) {
	fake := &llm.Fake{Responses: []string{`{"classification": "single", "reasoning": "one goal: search nvidia on youtube"}`}}
	c := New(fake, "test-model")

	result, err := c.Classify(context.Background(), "open youtube and search nvidia")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Route != models.RouteSingle {
		t.Errorf("expected single, got %q", result.Route)
	}
	if result.Method != models.DetectionLLM {
		t.Errorf("expected llm detection, got %q", result.Method)
	}
	if len(fake.Calls) != 1 {
		t.Fatalf("expected exactly one LLM call, got %d", len(fake.Calls))
	}
}

func TestClassifyNoProviderDefaultsToSingle(t *testing.T) {
	c := New(nil, "")
	result, err := c.Classify(context.Background(), "what time is it")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Route != models.RouteSingle {
		t.Errorf("expected single, got %q", result.Route)
	}
}

func TestClassifyProviderErrorFailsOpenToMulti(t *testing.T) {
	fake := &llm.Fake{Err: context.DeadlineExceeded}
	c := New(fake, "test-model")

	result, err := c.Classify(context.Background(), "what time is it")
	if err == nil {
		t.Fatal("expected error to be surfaced alongside the fail-open result")
	}
	if result.Route != models.RouteMulti {
		t.Errorf("expected fail-open multi, got %q", result.Route)
	}
}

func TestClassifyMalformedLLMResponseDefaultsToSingle(t *testing.T) {
	fake := &llm.Fake{Responses: []string{"garbage, not json"}}
	c := New(fake, "test-model")

	result, err := c.Classify(context.Background(), "launch chrome and go to google.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Route != models.RouteSingle {
		t.Errorf("expected single default, got %q", result.Route)
	}
}
