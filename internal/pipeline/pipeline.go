// Package pipeline wires the five reasoning-and-planning stages into
// the single external entrypoint spec.md §6 names: process(utterance,
// session_id?) -> Result. It owns none of the stages' logic — it is
// the same role as the original's core/orchestrator.py Orchestrator
// class, routing a request through QueryClassifier, then either
// IntentClassifier or GoalInterpreter, then the shared
// GoalOrchestrator/ToolResolver/PlanExecutor tail every request passes
// through regardless of which route produced its PlanGraph.
package pipeline

import (
	"context"
	"time"

	"github.com/coreline-ai/deskmind/internal/audit"
	"github.com/coreline-ai/deskmind/internal/classifier"
	"github.com/coreline-ai/deskmind/internal/executor"
	"github.com/coreline-ai/deskmind/internal/goalinterp"
	"github.com/coreline-ai/deskmind/internal/intent"
	"github.com/coreline-ai/deskmind/internal/llm"
	"github.com/coreline-ai/deskmind/internal/orchestrator"
	"github.com/coreline-ai/deskmind/internal/pathresolver"
	"github.com/coreline-ai/deskmind/internal/registry"
	"github.com/coreline-ai/deskmind/internal/resolver"
	"github.com/coreline-ai/deskmind/internal/respond"
	"github.com/coreline-ai/deskmind/internal/tool"
	"github.com/coreline-ai/deskmind/internal/worldstate"
	"github.com/coreline-ai/deskmind/pkg/corerr"
	"github.com/coreline-ai/deskmind/pkg/models"
	"github.com/google/uuid"
)

// Result is the full outcome of one process() call: the machine-
// readable status and per-action detail a caller can inspect, plus
// the one human-readable summary respond.Summary produces.
type Result struct {
	respond.Summary

	// Question is set when IntentClassifier decided Ask; no tool
	// resolution or execution was attempted.
	Question string

	Orchestration *orchestrator.Result
	Bundle        *executor.Bundle
}

// Deps bundles the external collaborators Pipeline needs. Any of
// Audit, Session, Modifiers, or Confirm may be nil; Tools, Registry,
// World, and Provider are required for anything past classification to
// work.
type Deps struct {
	Provider  llm.Provider
	Model     string
	Registry  *registry.Registry
	Tools     tool.Provider
	World     worldstate.Provider
	Paths     *pathresolver.Resolver
	Resolver  resolver.Config
	Session   executor.SessionProvider
	Modifiers executor.ModifierGuard
	Confirm   executor.Confirm
	Audit     *audit.DB

	DestructiveCooldown time.Duration
}

// Pipeline owns one instance of every reasoning stage and drives a
// request through them. It holds no per-request state; build one per
// process and reuse it across calls.
type Pipeline struct {
	deps Deps

	classifier *classifier.Classifier
	intent     *intent.Classifier
	goalinterp *goalinterp.Interpreter
	orch       *orchestrator.Orchestrator
	resolve    *resolver.Resolver
}

// New builds a Pipeline from deps.
func New(deps Deps) *Pipeline {
	return &Pipeline{
		deps:       deps,
		classifier: classifier.New(deps.Provider, deps.Model),
		intent:     intent.New(deps.Provider, deps.Model),
		goalinterp: goalinterp.New(deps.Provider, deps.Model),
		orch:       orchestrator.New(deps.Paths),
		resolve:    resolver.New(deps.Registry, deps.Provider, deps.Model, deps.Resolver),
	}
}

// Process runs utterance through QueryClassifier and onward,
// returning the final Result. sessionID may be empty.
func (p *Pipeline) Process(ctx context.Context, text, sessionID string) (Result, error) {
	world := mustWorld(ctx, p.deps.World)
	utterance := models.NewUtterance(text, sessionID, world)

	classification, err := p.classifier.Classify(ctx, text)
	if err != nil && classification.Route == "" {
		return Result{Summary: respond.Summary{FinalStatus: "error", Message: "could not classify the request"}}, err
	}

	var meta models.MetaGoal
	if classification.Route == models.RouteSingle {
		result, meta2, handled, err := p.runSinglePath(ctx, utterance, world)
		if handled {
			return result, err
		}
		meta = meta2
	} else {
		meta, err = p.goalinterp.Interpret(ctx, text)
		if err != nil {
			return Result{Summary: respond.Summary{FinalStatus: "error", Message: "could not interpret goals"}}, err
		}
	}

	return p.orchestrateAndRun(ctx, meta, sessionID, world)
}

// runSinglePath drives the B1 single-utterance route: IntentClassifier
// first, then either a terminal answer (Ask, information_query,
// unknown) or a MetaGoal ready for the shared orchestrate-resolve-
// execute tail every route converges on. handled=true means the
// returned Result is final and meta should be ignored.
func (p *Pipeline) runSinglePath(ctx context.Context, utterance models.Utterance, world *models.WorldState) (result Result, meta models.MetaGoal, handled bool, err error) {
	intentResult, err := p.intent.Classify(ctx, utterance, world)
	if err != nil {
		return Result{Summary: respond.Summary{FinalStatus: "error", Message: "could not classify intent"}}, meta, true, err
	}

	if intentResult.Decision == models.DecisionAsk {
		return Result{
			Summary:  respond.Summary{FinalStatus: "ask", Message: intentResult.Question},
			Question: intentResult.Question,
		}, meta, true, nil
	}

	if intentResult.Intent == models.IntentInformationQuery || intentResult.Intent == models.IntentUnknown {
		answer, err := p.answerDirectly(ctx, utterance.Text)
		if err != nil {
			return Result{Summary: respond.Summary{FinalStatus: "error", Message: "could not answer"}}, meta, true, err
		}
		return Result{Summary: respond.Summary{FinalStatus: "answered", Message: answer}}, meta, true, nil
	}

	meta, err = buildSingleMetaGoal(ctx, p.deps.Provider, p.deps.Model, intentResult, utterance)
	if err != nil {
		return Result{Summary: respond.Summary{FinalStatus: string(orchestrator.StatusNoCapability), Message: "I don't know how to do that yet."}}, meta, true, nil
	}

	return Result{}, meta, false, nil
}

func (p *Pipeline) answerDirectly(ctx context.Context, text string) (string, error) {
	if p.deps.Provider == nil {
		return "I don't have an answer for that right now.", nil
	}
	return p.deps.Provider.Complete(ctx, informationalSystemPrompt, text, p.deps.Model)
}

const informationalSystemPrompt = "Answer the user's question directly and concisely. No tool use is available for this request."

func (p *Pipeline) orchestrateAndRun(ctx context.Context, meta models.MetaGoal, sessionID string, world *models.WorldState) (Result, error) {
	orchResult, err := p.orch.Orchestrate(meta)
	if err != nil {
		return Result{Summary: respond.Summary{FinalStatus: "error", Message: "orchestration failed"}}, err
	}
	if orchResult.Status != orchestrator.StatusSuccess && orchResult.Status != orchestrator.StatusPartial {
		summary := respond.FormatOrchestration(orchResult)
		return Result{Summary: summary, Orchestration: &orchResult}, nil
	}

	resolvedGraph, resolveErr := p.resolveGraph(ctx, orchResult.PlanGraph)
	if resolveErr != nil {
		return Result{Summary: respond.Summary{FinalStatus: string(corerr.KindNoTool), Message: resolveErr.Error()}, Orchestration: &orchResult}, nil
	}

	exec := executor.New(executor.Options{
		Tools:               p.deps.Tools,
		Capabilities:        p.deps.Registry,
		World:               world,
		Session:             p.deps.Session,
		Modifiers:           p.deps.Modifiers,
		Confirm:             p.deps.Confirm,
		DestructiveCooldown: p.deps.DestructiveCooldown,
	})
	bundle := exec.Execute(ctx, resolvedGraph, nil)
	bundle.SessionID = firstNonEmpty(bundle.SessionID, sessionID)

	summary := respond.FormatExecution(bundle)
	if p.deps.Audit != nil {
		now := time.Now()
		_ = p.deps.Audit.RecordPlan(uuid.New().String(), bundle.SessionID, now, now, bundle)
	}
	return Result{Summary: summary, Orchestration: &orchResult, Bundle: &bundle}, nil
}

// resolveGraph runs every node in graph through ToolResolver and
// returns a new graph with ToolName populated. A resolution failure
// for any node fails the whole graph: a plan PlanExecutor cannot
// finish is not worth partially starting.
func (p *Pipeline) resolveGraph(ctx context.Context, graph models.PlanGraph) (models.PlanGraph, error) {
	nodes := make(map[string]models.PlannedAction, len(graph.Nodes))
	for id, action := range graph.Nodes {
		if action.ContextOnly {
			// Carries no tool call; ToolResolver has nothing to resolve.
			nodes[id] = action
			continue
		}
		resolution, err := p.resolve.Resolve(ctx, action)
		if err != nil || resolution.Tool == "" {
			if err == nil {
				err = corerr.New(corerr.KindNoTool, "resolver: no tool resolved for "+action.ActionID)
			}
			return models.PlanGraph{}, err
		}
		nodes[id] = action.WithTool(resolution.Tool)
	}
	return models.NewPlanGraph(nodes, graph.Edges, graph.ExecutionOrder, graph.GoalMap)
}

func mustWorld(ctx context.Context, p worldstate.Provider) *models.WorldState {
	if p == nil {
		return &models.WorldState{}
	}
	w, err := p.Snapshot(ctx)
	if err != nil || w == nil {
		return &models.WorldState{}
	}
	return w
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
