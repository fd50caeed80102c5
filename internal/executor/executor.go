// Package executor implements PlanExecutor: it drives a PlanGraph to
// completion against a tool.Provider, topologically, with plan-scoped
// session lifecycle and precondition enforcement. Exactly one Executor
// is built per plan execution (spec.md §4.7) and discarded afterward —
// callers must not reuse one across requests.
package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/coreline-ai/deskmind/internal/tool"
	"github.com/coreline-ai/deskmind/pkg/corerr"
	"github.com/coreline-ai/deskmind/pkg/models"
)

// Status is one action's terminal or in-flight state.
type Status string

const (
	StatusPending           Status = "pending"
	StatusRunning           Status = "running"
	StatusSuccess           Status = "success"
	StatusFailed            Status = "failed"
	StatusDependencyFailed  Status = "dependency_failed"
	StatusPreconditionUnmet Status = "precondition_unmet"
	StatusSkipped           Status = "skipped"
)

// FinalStatus is the terminal classification of a whole plan
// execution, per spec.md §4.7's aggregation contract.
type FinalStatus string

const (
	FinalSuccess FinalStatus = "success"
	FinalPartial FinalStatus = "partial"
	FinalFailed  FinalStatus = "failed"
	FinalBlocked FinalStatus = "blocked"
)

// ActionResult is the recorded outcome of one action.
type ActionResult struct {
	ActionID   string
	Status     Status
	Outcome    tool.Outcome
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// Bundle is the result of one complete plan execution (or partial
// execution on cancellation), handed to the response formatter.
type Bundle struct {
	Results       map[string]ActionResult
	CompletedIDs  []string
	ContextFrames models.ContextFrames
	FinalStatus   FinalStatus
	SessionID     string
}

// CapabilityLookup is the subset of the ToolRegistry's contract the
// executor needs: resolving an already-chosen tool name back to its
// precondition/session metadata.
type CapabilityLookup interface {
	Get(toolName string) (models.Capability, bool)
}

// SessionProvider acquires and releases the single session a plan's
// session-requiring actions share. Tools MUST NOT create sessions
// mid-plan; the executor is the only caller.
type SessionProvider interface {
	Acquire(ctx context.Context) (sessionID string, err error)
	Release(ctx context.Context, sessionID string) error
}

// ModifierGuard releases any modifier keys a tool reported holding,
// guaranteed on failure or cancellation.
type ModifierGuard interface {
	ReleaseAll(ctx context.Context, keys []string) error
}

// Confirm reports whether the caller has explicitly confirmed a
// destructive action. A nil Confirm fails every destructive action
// closed (unconfirmed), matching spec.md §4.7's "requires an explicit
// confirmation channel from the caller".
type Confirm func(action models.PlannedAction) bool

// Options configures one Executor instance.
type Options struct {
	Tools               tool.Provider
	Capabilities        CapabilityLookup
	World               *models.WorldState
	Session             SessionProvider
	Modifiers           ModifierGuard
	Confirm             Confirm
	DestructiveCooldown time.Duration
}

// Executor drives exactly one PlanGraph. Build a fresh one per plan
// execution via New.
type Executor struct {
	opts Options

	mu             sync.Mutex
	sessionID      string
	heldModifiers  map[string]bool
	lastDestructAt time.Time
}

// New builds an Executor for a single plan execution.
func New(opts Options) *Executor {
	return &Executor{opts: opts, heldModifiers: make(map[string]bool)}
}

// Execute drives graph to completion (or until ctx is cancelled),
// respecting parent-before-child ordering wave by wave: every action
// whose parents have all reported Success may run concurrently with
// its wave-mates, matching spec.md §5's "independent goals MAY be
// scheduled concurrently".
func (e *Executor) Execute(ctx context.Context, graph models.PlanGraph, frames models.ContextFrames) Bundle {
	waves := computeWaves(graph)

	results := make(map[string]ActionResult, len(graph.Nodes))
	var completedOrder []string
	var resultsMu sync.Mutex

	if needsSession(graph, e.opts.Capabilities) && e.opts.Session != nil {
		sid, err := e.opts.Session.Acquire(ctx)
		if err != nil {
			now := time.Now()
			for id := range graph.Nodes {
				results[id] = ActionResult{ActionID: id, Status: StatusFailed, Err: corerr.Wrap(corerr.KindToolFailure, "executor: session acquisition failed", err), StartedAt: now, FinishedAt: now}
			}
			return Bundle{Results: results, FinalStatus: FinalBlocked}
		}
		e.sessionID = sid
		defer func() {
			_ = e.opts.Session.Release(context.Background(), sid)
		}()
	}

	cancelled := false
	for _, wave := range waves {
		if ctx.Err() != nil {
			cancelled = true
		}
		if cancelled {
			now := time.Now()
			for _, id := range wave {
				resultsMu.Lock()
				results[id] = ActionResult{ActionID: id, Status: StatusSkipped, Err: corerr.New(corerr.KindCancelled, "executor: plan cancelled before action started"), StartedAt: now, FinishedAt: now}
				resultsMu.Unlock()
			}
			continue
		}

		var wg sync.WaitGroup
		for _, id := range wave {
			id := id
			action := graph.Nodes[id]
			parents := graph.Parents(id)

			if blocked, reason := e.parentsBlocked(parents, results, &resultsMu); blocked {
				now := time.Now()
				resultsMu.Lock()
				results[id] = ActionResult{ActionID: id, Status: StatusDependencyFailed, Err: corerr.New(corerr.KindValidationFailed, reason), StartedAt: now, FinishedAt: now}
				resultsMu.Unlock()
				continue
			}

			wg.Add(1)
			go func() {
				defer wg.Done()
				r := e.runAction(ctx, action)
				resultsMu.Lock()
				results[id] = r
				if r.Status == StatusSuccess {
					completedOrder = append(completedOrder, id)
				}
				resultsMu.Unlock()
			}()
		}
		wg.Wait()
	}

	for _, action := range graph.Nodes {
		if r, ok := results[action.ActionID]; ok && r.Status == StatusSuccess && action.ActionClass == models.ActionObserve && len(r.Outcome.Data) > 0 {
			frames = frames.Append(models.NewContextFrame(action.ActionID, action.IntentTag, r.Outcome.Data))
		}
	}

	return Bundle{
		Results:       results,
		CompletedIDs:  completedOrder,
		ContextFrames: frames,
		FinalStatus:   finalStatus(results, cancelled),
		SessionID:     e.sessionID,
	}
}

func (e *Executor) parentsBlocked(parents []string, results map[string]ActionResult, mu *sync.Mutex) (bool, string) {
	mu.Lock()
	defer mu.Unlock()
	for _, p := range parents {
		if r, ok := results[p]; !ok || r.Status != StatusSuccess {
			return true, fmt.Sprintf("parent action %q did not succeed", p)
		}
	}
	return false, ""
}

func (e *Executor) runAction(ctx context.Context, action models.PlannedAction) ActionResult {
	started := time.Now()

	if action.ContextOnly {
		return ActionResult{
			ActionID:   action.ActionID,
			Status:     StatusSuccess,
			Outcome:    tool.Outcome{Status: tool.StatusSuccess, Data: action.Args},
			StartedAt:  started,
			FinishedAt: time.Now(),
		}
	}

	if action.ToolName == "" {
		return ActionResult{ActionID: action.ActionID, Status: StatusFailed, Err: corerr.New(corerr.KindNoTool, "executor: action has no resolved tool"), StartedAt: started, FinishedAt: time.Now()}
	}

	var cap models.Capability
	if e.opts.Capabilities != nil {
		cap, _ = e.opts.Capabilities.Get(action.ToolName)
	}

	if unmet := e.checkPreconditions(cap, action); unmet != "" {
		return ActionResult{ActionID: action.ActionID, Status: StatusPreconditionUnmet, Err: corerr.New(corerr.KindPreconditionUnmet, unmet), StartedAt: started, FinishedAt: time.Now()}
	}

	if cap.IsDestructive {
		e.applyDestructiveCooldown(ctx)
	}

	t, ok := e.lookupTool(action.ToolName)
	if !ok {
		return ActionResult{ActionID: action.ActionID, Status: StatusFailed, Err: corerr.New(corerr.KindNoTool, fmt.Sprintf("executor: tool %q not registered", action.ToolName)), StartedAt: started, FinishedAt: time.Now()}
	}

	args := make(map[string]any, len(action.Args)+1)
	for k, v := range action.Args {
		args[k] = v
	}
	if cap.RequiresSession && e.sessionID != "" {
		args["session_id"] = e.sessionID
	}

	outcome, err := t.Execute(ctx, args)
	finished := time.Now()

	if err != nil {
		e.releaseModifiersOnFailure(ctx)
		kind := corerr.KindToolFailure
		if ctx.Err() != nil {
			kind = corerr.KindCancelled
		}
		return ActionResult{ActionID: action.ActionID, Status: StatusFailed, Outcome: outcome, Err: corerr.Wrap(kind, "executor: tool invocation failed", err), StartedAt: started, FinishedAt: finished}
	}
	if outcome.Status != tool.StatusSuccess {
		e.releaseModifiersOnFailure(ctx)
		msg := outcome.Error
		if msg == "" {
			msg = "tool reported non-success status"
		}
		return ActionResult{ActionID: action.ActionID, Status: StatusFailed, Outcome: outcome, Err: corerr.New(corerr.KindToolFailure, msg), StartedAt: started, FinishedAt: finished}
	}

	e.trackHeldModifiers(outcome)
	return ActionResult{ActionID: action.ActionID, Status: StatusSuccess, Outcome: outcome, StartedAt: started, FinishedAt: finished}
}

func (e *Executor) lookupTool(name string) (tool.Tool, bool) {
	if e.opts.Tools == nil {
		return nil, false
	}
	return e.opts.Tools.Lookup(name)
}

// checkPreconditions enforces requires_focus, requires_active_app,
// requires_unlocked_screen, and is_destructive against WorldState and
// the caller's confirmation channel. Returns a non-empty reason string
// when a precondition is unmet, "" when all are satisfied.
func (e *Executor) checkPreconditions(cap models.Capability, action models.PlannedAction) string {
	world := e.opts.World
	for _, p := range cap.RequiredPreconditions {
		switch p {
		case "requires_focus":
			if world == nil || world.FocusedWindow.Title == "" {
				return "requires_focus: no focused window in world state"
			}
		case "requires_active_app":
			appName := action.Args["app_name"]
			name, _ := appName.(string)
			if name == "" || !world.IsRunning(name) {
				return fmt.Sprintf("requires_active_app: %q is not running", name)
			}
		case "requires_unlocked_screen":
			if world == nil || world.ScreenLocked {
				return "requires_unlocked_screen: screen is locked"
			}
		}
	}
	if cap.IsDestructive {
		if e.opts.Confirm == nil || !e.opts.Confirm(action) {
			return "is_destructive: action requires explicit confirmation"
		}
	}
	return ""
}

func (e *Executor) applyDestructiveCooldown(ctx context.Context) {
	if e.opts.DestructiveCooldown <= 0 {
		return
	}
	e.mu.Lock()
	wait := time.Until(e.lastDestructAt.Add(e.opts.DestructiveCooldown))
	e.lastDestructAt = time.Now().Add(wait)
	e.mu.Unlock()
	if wait <= 0 {
		return
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func (e *Executor) trackHeldModifiers(outcome tool.Outcome) {
	held, ok := outcome.Data["held_modifiers"].([]string)
	if !ok || len(held) == 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, k := range held {
		e.heldModifiers[k] = true
	}
}

func (e *Executor) releaseModifiersOnFailure(ctx context.Context) {
	e.mu.Lock()
	if len(e.heldModifiers) == 0 || e.opts.Modifiers == nil {
		e.mu.Unlock()
		return
	}
	keys := make([]string, 0, len(e.heldModifiers))
	for k := range e.heldModifiers {
		keys = append(keys, k)
	}
	e.heldModifiers = make(map[string]bool)
	e.mu.Unlock()

	_ = e.opts.Modifiers.ReleaseAll(ctx, keys)
}

func needsSession(graph models.PlanGraph, caps CapabilityLookup) bool {
	if caps == nil {
		return false
	}
	for _, action := range graph.Nodes {
		if action.ToolName == "" {
			continue
		}
		if cap, ok := caps.Get(action.ToolName); ok && cap.RequiresSession {
			return true
		}
	}
	return false
}

func finalStatus(results map[string]ActionResult, cancelled bool) FinalStatus {
	var successes, attemptedFailures, total int
	for _, r := range results {
		total++
		switch r.Status {
		case StatusSuccess:
			successes++
		case StatusFailed, StatusPreconditionUnmet:
			attemptedFailures++
		}
	}
	if total == 0 {
		return FinalBlocked
	}
	if successes == total {
		return FinalSuccess
	}
	if cancelled {
		return FinalPartial
	}
	if successes > 0 {
		return FinalPartial
	}
	if attemptedFailures > 0 {
		return FinalFailed
	}
	return FinalBlocked
}
