package goalinterp

import (
	"strings"

	"github.com/coreline-ai/deskmind/internal/pathresolver"
)

// goalShape is the minimal per-goal information the container-stack
// fix needs: whether the goal is a file_operation goal, and whether
// it creates a folder (which pushes onto the container stack) or a
// file (which does not).
type goalShape struct {
	isFileOperation bool
	isFolder        bool
}

// fixContainerDependencies rewrites LLM-proposed dependency edges for
// "inside it" anaphora so each file_operation goal binds to the
// most-recently-opened container, not whichever container the LLM
// happened to name first. The LLM reliably gets adjacency right
// (goal 1 depends on goal 0) but collapses deeper nesting (goal 2,
// goal 3, ... all binding back to goal 0 instead of chaining).
//
// Only goal indices already present in llmDeps are rewritten — goals
// the LLM left independent stay independent. A goal the LLM gave a
// dependency is bound to the innermost open container, or, when no
// container is open (none opened yet, or an explicit anchor just
// reset the stack), gets an empty dependency list.
//
// An explicit linguistic anchor (a new "on the D drive" / "on desktop"
// mention) resets the container stack: it starts a new scope rather
// than nesting inside whatever was open before.
func fixContainerDependencies(goals []goalShape, llmDeps map[int][]int, userInput string) map[int][]int {
	clauses := splitClauses(userInput)

	var stack []int
	var scopeAnchor pathresolver.Anchor
	fixed := make(map[int][]int, len(llmDeps))

	for i, g := range goals {
		if !g.isFileOperation {
			continue
		}

		if anchor := detectExplicitAnchor(clauses, i); anchor != "" && anchor != scopeAnchor {
			stack = nil
			scopeAnchor = anchor
		}

		if _, hasDep := llmDeps[i]; hasDep {
			if len(stack) == 0 {
				fixed[i] = []int{}
			} else {
				fixed[i] = []int{stack[len(stack)-1]}
			}
		}

		if g.isFolder {
			stack = append(stack, i)
		}
	}

	return fixed
}

// splitClauses breaks free-form input into rough per-goal segments on
// " and " and ",", the same coordinating conjunctions the few-shot
// examples in GoalInterpreter's prompt are built from.
func splitClauses(userInput string) []string {
	replaced := strings.ReplaceAll(userInput, ",", " and ")
	parts := strings.Split(replaced, " and ")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{userInput}
	}
	return out
}

// detectExplicitAnchor finds the clause most plausibly associated
// with goal index idx and checks it for an explicit base-anchor
// mention. Clause count rarely matches goal count exactly (a single
// clause like "create a folder named space and inside it another
// folder" produces two goals), so idx is clamped into range rather
// than requiring a 1:1 mapping.
func detectExplicitAnchor(clauses []string, idx int) pathresolver.Anchor {
	if len(clauses) == 0 {
		return ""
	}
	clauseIdx := idx
	if clauseIdx >= len(clauses) {
		clauseIdx = len(clauses) - 1
	}
	clause := clauses[clauseIdx]

	lower := strings.ToLower(clause)
	switch {
	case strings.Contains(lower, "root folder") || strings.Contains(lower, "root directory"):
		return pathresolver.AnchorWorkspace
	case strings.Contains(lower, "drive d"):
		return pathresolver.AnchorDriveD
	case strings.Contains(lower, "drive c"):
		return pathresolver.AnchorDriveC
	case strings.Contains(lower, "drive e"):
		return pathresolver.AnchorDriveE
	}
	return pathresolver.InferBaseAnchor(clause)
}
