package planner

import (
	"testing"

	"github.com/coreline-ai/deskmind/pkg/models"
)

func TestPlanFileCreate(t *testing.T) {
	goal := models.NewGoal("g0", "file", "create", map[string]any{"object_type": "folder", "name": "alex"}, "alex", models.ParseScope("drive:D"))
	plan, _, err := Plan("a0", goal, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.GoalAchievedBy != "a0" {
		t.Errorf("expected goal_achieved_by a0, got %q", plan.GoalAchievedBy)
	}
	if plan.Actions[0].IntentTag != "file_operation" {
		t.Errorf("expected file_operation, got %q", plan.Actions[0].IntentTag)
	}
	if plan.Actions[0].Description != "create:folder:alex" {
		t.Errorf("unexpected description %q", plan.Actions[0].Description)
	}
}

func TestPlanMissingRequiredParamFails(t *testing.T) {
	goal := models.NewGoal("g0", "file", "create", map[string]any{"object_type": "folder"}, "", models.ParseScope("root"))
	if _, _, err := Plan("a0", goal, nil); err == nil {
		t.Fatal("expected error for missing required param 'name'")
	}
}

func TestPlanAllowSemanticOnlyEmitsContextOnlyAction(t *testing.T) {
	// browser.navigate requires "url"; AllowSemanticOnly lets a goal
	// missing it through as a context-only action instead of failing
	// outright or dispatching a tool call with no URL to navigate to.
	goal := models.NewGoal("g0", "browser", "navigate", map[string]any{}, "", models.ParseScope("root"))
	plan, _, err := Plan("a0", goal, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	action := plan.Actions[0]
	if !action.ContextOnly {
		t.Fatal("expected ContextOnly action for missing required param under AllowSemanticOnly")
	}
	if action.ActionClass != models.ActionObserve {
		t.Errorf("expected observe action class for a context-only action, got %q", action.ActionClass)
	}
	if action.ToolName != "" {
		t.Errorf("expected no tool name on a context-only action, got %q", action.ToolName)
	}
}

func TestPlanUnknownDomainVerbFails(t *testing.T) {
	goal := models.NewGoal("g0", "teleport", "beam", map[string]any{}, "", models.ParseScope("root"))
	if _, _, err := Plan("a0", goal, nil); err == nil {
		t.Fatal("expected error for unknown (domain, verb)")
	}
}

func TestPlanUsesResolvedPathForCreate(t *testing.T) {
	goal := models.NewGoal("g0", "file", "create", map[string]any{"object_type": "folder", "name": "alex"}, "", models.ParseScope("drive:D"))
	goal = goal.WithResolvedPath(`D:\alex`)
	plan, _, err := Plan("a0", goal, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Actions[0].Args["name"] != `D:\alex` {
		t.Errorf("expected resolved path substituted for name, got %v", plan.Actions[0].Args["name"])
	}
}

func TestPlanContextConsumptionFillsMissingParam(t *testing.T) {
	frames := models.ContextFrames{}
	frames = frames.Append(models.NewContextFrame("a_prev", "browser", map[string]any{"platform": "youtube"}))

	goal := models.NewGoal("g1", "browser", "search", map[string]any{"query": "lofi beats"}, "", models.ParseScope("root"))
	plan, _, err := Plan("a1", goal, frames)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Actions[0].Args["platform"] != "youtube" {
		t.Errorf("expected platform filled from context frame, got %v", plan.Actions[0].Args["platform"])
	}
}

func TestPlanMoveUsesOrchestratorResolvedSourceAndDestination(t *testing.T) {
	// move/copy/rename carry two identities; the orchestrator resolves
	// both directly onto Params before Plan ever runs (Goal.ResolvedPath
	// stays empty for these verbs), so Plan must pass them through
	// untouched rather than expect a single resolved_path.
	goal := models.NewGoal("g0", "file", "move", map[string]any{
		"source":      `D:\alex\draft.txt`,
		"destination": `D:\alex\archive\draft.txt`,
	}, "", models.ParseScope("root"))
	plan, _, err := Plan("a0", goal, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Actions[0].Args["source"] != `D:\alex\draft.txt` {
		t.Errorf("expected resolved source preserved, got %v", plan.Actions[0].Args["source"])
	}
	if plan.Actions[0].Args["destination"] != `D:\alex\archive\draft.txt` {
		t.Errorf("expected resolved destination preserved, got %v", plan.Actions[0].Args["destination"])
	}
}

func TestPlanContextProductionSkipsFrameWithoutProducedKey(t *testing.T) {
	goal := models.NewGoal("g0", "browser", "navigate", map[string]any{"url": "https://youtube.com"}, "", models.ParseScope("root"))
	_, frames, err := Plan("a0", goal, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frames) != 0 {
		// navigate's context_production lists "platform", which isn't
		// a navigate param, so nothing is produced here; this pins
		// that absence rather than silently producing an empty frame.
		t.Errorf("expected no context frame produced without a platform param, got %d", len(frames))
	}
}
