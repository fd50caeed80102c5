// Package respond turns the structured outcome of one request —
// either an orchestration failure before execution ever started or a
// completed executor.Bundle — into the single human-readable summary
// spec.md §7 requires: "user-visible messages are generated in one
// place." Structural data (statuses, error kinds) stays machine
// readable throughout the pipeline; prose is generated here, last,
// and nowhere else.
package respond

import (
	"fmt"
	"sort"
	"strings"

	"github.com/coreline-ai/deskmind/internal/executor"
	"github.com/coreline-ai/deskmind/internal/orchestrator"
)

// Summary is the final, user-facing result of one process() call.
type Summary struct {
	FinalStatus string
	Message     string
	Lines       []string
}

// FormatOrchestration builds a Summary for a request that never
// reached execution: every goal failed to plan, or the meta-structure
// itself was unsupported.
func FormatOrchestration(result orchestrator.Result) Summary {
	switch result.Status {
	case orchestrator.StatusNoCapability:
		return Summary{FinalStatus: string(result.Status), Message: "I don't know how to do that yet."}
	case orchestrator.StatusBlocked:
		msg := "I couldn't plan any part of that request"
		if result.Reason != "" {
			msg += ": " + result.Reason
		}
		return Summary{FinalStatus: string(result.Status), Message: msg + ".", Lines: failedGoalLines(result)}
	case orchestrator.StatusPartial:
		return Summary{FinalStatus: string(result.Status), Message: "I planned part of that, but some goals couldn't be completed.", Lines: failedGoalLines(result)}
	default:
		return Summary{FinalStatus: string(result.Status), Message: "Understood."}
	}
}

func failedGoalLines(result orchestrator.Result) []string {
	lines := make([]string, 0, len(result.FailedGoals))
	for _, f := range result.FailedGoals {
		lines = append(lines, fmt.Sprintf("goal %d (%s.%s): %s", f.GoalIdx, f.Goal.Domain, f.Goal.Verb, f.Reason))
	}
	return lines
}

// FormatExecution builds a Summary for a completed (or
// partially-completed) plan execution.
func FormatExecution(bundle executor.Bundle) Summary {
	lines := actionLines(bundle)

	switch bundle.FinalStatus {
	case executor.FinalSuccess:
		return Summary{FinalStatus: string(bundle.FinalStatus), Message: "Done.", Lines: lines}
	case executor.FinalPartial:
		return Summary{FinalStatus: string(bundle.FinalStatus), Message: "Finished part of that; some steps didn't complete.", Lines: lines}
	case executor.FinalFailed:
		return Summary{FinalStatus: string(bundle.FinalStatus), Message: "That didn't work.", Lines: lines}
	case executor.FinalBlocked:
		return Summary{FinalStatus: string(bundle.FinalStatus), Message: "I couldn't start that.", Lines: lines}
	default:
		return Summary{FinalStatus: string(bundle.FinalStatus), Message: "Unknown outcome.", Lines: lines}
	}
}

func actionLines(bundle executor.Bundle) []string {
	ids := make([]string, 0, len(bundle.Results))
	for id := range bundle.Results {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	lines := make([]string, 0, len(ids))
	for _, id := range ids {
		lines = append(lines, formatActionLine(bundle.Results[id]))
	}
	return lines
}

func formatActionLine(r executor.ActionResult) string {
	switch r.Status {
	case executor.StatusSuccess:
		return fmt.Sprintf("%s: done", r.ActionID)
	case executor.StatusFailed:
		return fmt.Sprintf("%s: failed (%s)", r.ActionID, errMessage(r))
	case executor.StatusDependencyFailed:
		return fmt.Sprintf("%s: skipped, an earlier step failed", r.ActionID)
	case executor.StatusPreconditionUnmet:
		return fmt.Sprintf("%s: blocked (%s)", r.ActionID, errMessage(r))
	case executor.StatusSkipped:
		return fmt.Sprintf("%s: cancelled before it started", r.ActionID)
	default:
		return fmt.Sprintf("%s: %s", r.ActionID, r.Status)
	}
}

func errMessage(r executor.ActionResult) string {
	if r.Err == nil {
		return "no reason given"
	}
	return r.Err.Error()
}

// String renders a Summary as one block of text: the headline message
// followed by an indented line per action, matching the teacher's
// plain-prose CLI output style rather than structured JSON.
func (s Summary) String() string {
	if len(s.Lines) == 0 {
		return s.Message
	}
	var b strings.Builder
	b.WriteString(s.Message)
	for _, l := range s.Lines {
		b.WriteString("\n  - ")
		b.WriteString(l)
	}
	return b.String()
}
