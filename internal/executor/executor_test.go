package executor

import (
	"context"
	"testing"
	"time"

	"github.com/coreline-ai/deskmind/internal/tool"
	"github.com/coreline-ai/deskmind/pkg/models"
)

type fakeCaps struct {
	caps map[string]models.Capability
}

func (f *fakeCaps) Get(name string) (models.Capability, bool) {
	c, ok := f.caps[name]
	return c, ok
}

type fakeSession struct {
	acquired int
	released int
	err      error
}

func (f *fakeSession) Acquire(ctx context.Context) (string, error) {
	f.acquired++
	if f.err != nil {
		return "", f.err
	}
	return "sess-1", nil
}

func (f *fakeSession) Release(ctx context.Context, sessionID string) error {
	f.released++
	return nil
}

type fakeModifiers struct {
	released []string
}

func (f *fakeModifiers) ReleaseAll(ctx context.Context, keys []string) error {
	f.released = append(f.released, keys...)
	return nil
}

func singleActionGraph(t *testing.T, id, toolName string, class models.ActionClass) models.PlanGraph {
	t.Helper()
	action := models.NewPlannedAction(id, "file_operation", "desc", map[string]any{}, class).WithTool(toolName)
	graph, err := models.NewPlanGraph(
		map[string]models.PlannedAction{id: action},
		map[string][]string{id: nil},
		[]string{id},
		map[int][]string{0: {id}},
	)
	if err != nil {
		t.Fatalf("unexpected error building graph: %v", err)
	}
	return graph
}

func TestExecuteSingleActionSuccess(t *testing.T) {
	tools := tool.NewRegistry()
	fake := &tool.Fake{Outcomes: []tool.Outcome{{Status: tool.StatusSuccess}}}
	tools.Register("test.tool", fake)

	graph := singleActionGraph(t, "a0", "test.tool", models.ActionActuate)
	e := New(Options{Tools: tools, Capabilities: &fakeCaps{}})

	bundle := e.Execute(context.Background(), graph, nil)
	if bundle.FinalStatus != FinalSuccess {
		t.Fatalf("expected success, got %q", bundle.FinalStatus)
	}
	if bundle.Results["a0"].Status != StatusSuccess {
		t.Errorf("expected action success, got %+v", bundle.Results["a0"])
	}
	if fake.CallCount() != 1 {
		t.Errorf("expected tool called once, got %d", fake.CallCount())
	}
}

func TestExecuteContextOnlyActionSkipsToolCall(t *testing.T) {
	id := "a0"
	action := models.NewPlannedAction(id, "browser_control", "navigate:", map[string]any{"platform": "youtube"}, models.ActionObserve).WithContextOnly()
	graph, err := models.NewPlanGraph(
		map[string]models.PlannedAction{id: action},
		map[string][]string{id: nil},
		[]string{id},
		map[int][]string{0: {id}},
	)
	if err != nil {
		t.Fatalf("unexpected error building graph: %v", err)
	}

	e := New(Options{Tools: tool.NewRegistry(), Capabilities: &fakeCaps{}})
	bundle := e.Execute(context.Background(), graph, nil)

	if bundle.FinalStatus != FinalSuccess {
		t.Fatalf("expected success, got %q", bundle.FinalStatus)
	}
	if bundle.Results[id].Status != StatusSuccess {
		t.Fatalf("expected context-only action to succeed without a tool, got %+v", bundle.Results[id])
	}
	if len(bundle.ContextFrames) != 1 {
		t.Fatalf("expected the context-only action's args to produce one context frame, got %d", len(bundle.ContextFrames))
	}
}

func TestExecuteDependencyFailurePropagates(t *testing.T) {
	tools := tool.NewRegistry()
	failing := &tool.Fake{Outcomes: []tool.Outcome{{Status: tool.StatusError, Error: "boom"}}}
	downstream := &tool.Fake{Outcomes: []tool.Outcome{{Status: tool.StatusSuccess}}}
	tools.Register("fails", failing)
	tools.Register("succeeds", downstream)

	parent := models.NewPlannedAction("a0", "file_operation", "p", map[string]any{}, models.ActionActuate).WithTool("fails")
	child := models.NewPlannedAction("a1", "file_operation", "c", map[string]any{}, models.ActionActuate).WithTool("succeeds")
	graph, err := models.NewPlanGraph(
		map[string]models.PlannedAction{"a0": parent, "a1": child},
		map[string][]string{"a0": nil, "a1": {"a0"}},
		[]string{"a0", "a1"},
		map[int][]string{0: {"a0", "a1"}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	e := New(Options{Tools: tools, Capabilities: &fakeCaps{}})
	bundle := e.Execute(context.Background(), graph, nil)

	if bundle.Results["a0"].Status != StatusFailed {
		t.Errorf("expected a0 failed, got %+v", bundle.Results["a0"])
	}
	if bundle.Results["a1"].Status != StatusDependencyFailed {
		t.Errorf("expected a1 dependency_failed, got %+v", bundle.Results["a1"])
	}
	if downstream.CallCount() != 0 {
		t.Errorf("expected downstream tool never invoked, got %d calls", downstream.CallCount())
	}
	if bundle.FinalStatus != FinalFailed {
		t.Errorf("expected failed overall, got %q", bundle.FinalStatus)
	}
}

func TestExecutePreconditionUnmet(t *testing.T) {
	tools := tool.NewRegistry()
	fake := &tool.Fake{Outcomes: []tool.Outcome{{Status: tool.StatusSuccess}}}
	tools.Register("needs.focus", fake)

	graph := singleActionGraph(t, "a0", "needs.focus", models.ActionActuate)
	caps := &fakeCaps{caps: map[string]models.Capability{
		"needs.focus": {ToolName: "needs.focus", RequiredPreconditions: []string{"requires_focus"}},
	}}

	world := models.Snapshot(time.Now(), nil, models.FocusedWindow{}, false, false, false, nil)
	e := New(Options{Tools: tools, Capabilities: caps, World: world})
	bundle := e.Execute(context.Background(), graph, nil)

	if bundle.Results["a0"].Status != StatusPreconditionUnmet {
		t.Errorf("expected precondition_unmet, got %+v", bundle.Results["a0"])
	}
	if fake.CallCount() != 0 {
		t.Errorf("expected tool never invoked when precondition unmet, got %d calls", fake.CallCount())
	}
}

func TestExecuteDestructiveRequiresConfirmation(t *testing.T) {
	tools := tool.NewRegistry()
	fake := &tool.Fake{Outcomes: []tool.Outcome{{Status: tool.StatusSuccess}}}
	tools.Register("danger", fake)

	graph := singleActionGraph(t, "a0", "danger", models.ActionActuate)
	caps := &fakeCaps{caps: map[string]models.Capability{
		"danger": {ToolName: "danger", IsDestructive: true},
	}}

	e := New(Options{Tools: tools, Capabilities: caps})
	bundle := e.Execute(context.Background(), graph, nil)
	if bundle.Results["a0"].Status != StatusPreconditionUnmet {
		t.Fatalf("expected unconfirmed destructive action to fail closed, got %+v", bundle.Results["a0"])
	}

	e2 := New(Options{Tools: tools, Capabilities: caps, Confirm: func(models.PlannedAction) bool { return true }})
	bundle2 := e2.Execute(context.Background(), graph, nil)
	if bundle2.Results["a0"].Status != StatusSuccess {
		t.Fatalf("expected confirmed destructive action to succeed, got %+v", bundle2.Results["a0"])
	}
}

func TestExecuteSessionAcquiredOnce(t *testing.T) {
	tools := tool.NewRegistry()
	fakeA := &tool.Fake{Outcomes: []tool.Outcome{{Status: tool.StatusSuccess}}}
	fakeB := &tool.Fake{Outcomes: []tool.Outcome{{Status: tool.StatusSuccess}}}
	tools.Register("browser.a", fakeA)
	tools.Register("browser.b", fakeB)

	a0 := models.NewPlannedAction("a0", "browser_control", "a", map[string]any{}, models.ActionActuate).WithTool("browser.a")
	a1 := models.NewPlannedAction("a1", "browser_control", "b", map[string]any{}, models.ActionActuate).WithTool("browser.b")
	graph, err := models.NewPlanGraph(
		map[string]models.PlannedAction{"a0": a0, "a1": a1},
		map[string][]string{"a0": nil, "a1": nil},
		[]string{"a0", "a1"},
		map[int][]string{0: {"a0"}, 1: {"a1"}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	caps := &fakeCaps{caps: map[string]models.Capability{
		"browser.a": {ToolName: "browser.a", RequiresSession: true},
		"browser.b": {ToolName: "browser.b", RequiresSession: true},
	}}
	session := &fakeSession{}
	e := New(Options{Tools: tools, Capabilities: caps, Session: session})
	bundle := e.Execute(context.Background(), graph, nil)

	if bundle.FinalStatus != FinalSuccess {
		t.Fatalf("expected success, got %q", bundle.FinalStatus)
	}
	if session.acquired != 1 {
		t.Errorf("expected session acquired exactly once, got %d", session.acquired)
	}
	if session.released != 1 {
		t.Errorf("expected session released exactly once, got %d", session.released)
	}
	for _, c := range fakeA.Calls {
		if c.Args["session_id"] != "sess-1" {
			t.Errorf("expected session_id bound into args, got %v", c.Args)
		}
	}
}

func TestExecuteModifierReleaseOnFailure(t *testing.T) {
	tools := tool.NewRegistry()
	holdsModifier := &tool.Fake{Outcomes: []tool.Outcome{{Status: tool.StatusSuccess, Data: map[string]any{"held_modifiers": []string{"ctrl"}}}}}
	failing := &tool.Fake{Outcomes: []tool.Outcome{{Status: tool.StatusError, Error: "boom"}}}
	tools.Register("hold", holdsModifier)
	tools.Register("fail", failing)

	a0 := models.NewPlannedAction("a0", "input_control", "hold", map[string]any{}, models.ActionActuate).WithTool("hold")
	a1 := models.NewPlannedAction("a1", "input_control", "fail", map[string]any{}, models.ActionActuate).WithTool("fail")
	graph, err := models.NewPlanGraph(
		map[string]models.PlannedAction{"a0": a0, "a1": a1},
		map[string][]string{"a0": nil, "a1": {"a0"}},
		[]string{"a0", "a1"},
		map[int][]string{0: {"a0", "a1"}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mods := &fakeModifiers{}
	e := New(Options{Tools: tools, Capabilities: &fakeCaps{}, Modifiers: mods})
	e.Execute(context.Background(), graph, nil)

	if len(mods.released) != 1 || mods.released[0] != "ctrl" {
		t.Errorf("expected ctrl released after failure, got %v", mods.released)
	}
}

func TestExecuteIndependentActionsRunConcurrently(t *testing.T) {
	tools := tool.NewRegistry()
	gate := make(chan struct{})
	slow1 := &tool.Fake{Outcomes: []tool.Outcome{{Status: tool.StatusSuccess}}, Delay: gate}
	slow2 := &tool.Fake{Outcomes: []tool.Outcome{{Status: tool.StatusSuccess}}, Delay: gate}
	tools.Register("slow1", slow1)
	tools.Register("slow2", slow2)

	a0 := models.NewPlannedAction("a0", "app", "one", map[string]any{}, models.ActionActuate).WithTool("slow1")
	a1 := models.NewPlannedAction("a1", "app", "two", map[string]any{}, models.ActionActuate).WithTool("slow2")
	graph, err := models.NewPlanGraph(
		map[string]models.PlannedAction{"a0": a0, "a1": a1},
		map[string][]string{"a0": nil, "a1": nil},
		[]string{"a0", "a1"},
		map[int][]string{0: {"a0"}, 1: {"a1"}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	e := New(Options{Tools: tools, Capabilities: &fakeCaps{}})
	done := make(chan Bundle, 1)
	go func() {
		done <- e.Execute(context.Background(), graph, nil)
	}()

	// Both fakes block on gate until it is closed. Wait until both have
	// been called before closing it: if execution were serialized, the
	// second Fake would not be called while the first is held open, and
	// this wait would time out.
	deadline := time.After(2 * time.Second)
	for slow1.CallCount() == 0 || slow2.CallCount() == 0 {
		select {
		case <-deadline:
			close(gate)
			t.Fatal("timed out waiting for both actions to start; actions were likely serialized")
		case <-time.After(5 * time.Millisecond):
		}
	}
	close(gate)

	select {
	case bundle := <-done:
		if bundle.FinalStatus != FinalSuccess {
			t.Fatalf("expected success, got %q", bundle.FinalStatus)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for concurrent execution; actions were likely serialized")
	}
}

func TestExecuteCancellationYieldsPartial(t *testing.T) {
	tools := tool.NewRegistry()
	fakeA := &tool.Fake{Outcomes: []tool.Outcome{{Status: tool.StatusSuccess}}}
	fakeB := &tool.Fake{Outcomes: []tool.Outcome{{Status: tool.StatusSuccess}}}
	tools.Register("a", fakeA)
	tools.Register("b", fakeB)

	a0 := models.NewPlannedAction("a0", "app", "one", map[string]any{}, models.ActionActuate).WithTool("a")
	a1 := models.NewPlannedAction("a1", "app", "two", map[string]any{}, models.ActionActuate).WithTool("b")
	graph, err := models.NewPlanGraph(
		map[string]models.PlannedAction{"a0": a0, "a1": a1},
		map[string][]string{"a0": nil, "a1": {"a0"}},
		[]string{"a0", "a1"},
		map[int][]string{0: {"a0", "a1"}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := New(Options{Tools: tools, Capabilities: &fakeCaps{}})
	bundle := e.Execute(ctx, graph, nil)

	if bundle.FinalStatus != FinalPartial {
		t.Fatalf("expected partial on pre-cancelled context, got %q", bundle.FinalStatus)
	}
	if bundle.Results["a0"].Status != StatusSkipped {
		t.Errorf("expected a0 skipped, got %+v", bundle.Results["a0"])
	}
}
