package models

import "strings"

// ScopeKind classifies a Goal's scope string into the small grammar
// spec.md defines: independence, an ordering dependency, a containment
// dependency, or a base-anchor assignment.
type ScopeKind string

const (
	// ScopeRoot means the goal is independent; no dependency.
	ScopeRoot ScopeKind = "root"
	// ScopeAfterVerb means "after:<verb>" — depends on the first
	// earlier goal with that verb.
	ScopeAfterVerb ScopeKind = "after_verb"
	// ScopeAfterGoal means "after:<goal_id>" — depends on that goal if
	// it appears earlier.
	ScopeAfterGoal ScopeKind = "after_goal"
	// ScopeInside means "inside:<target>" — depends on the earliest
	// earlier file-operation goal matching target.
	ScopeInside ScopeKind = "inside"
	// ScopeAnchor means the scope sets a base anchor token
	// (drive:D, desktop, documents, workspace, ...). It implies no
	// dependency by itself.
	ScopeAnchor ScopeKind = "anchor"
)

// Scope is a parsed Goal.Scope string.
type Scope struct {
	Kind  ScopeKind
	Value string // verb name, goal id, containment target, or anchor token
	Raw   string // the original unparsed scope string
}

// ParseScope parses a raw scope string into the grammar spec.md §3
// defines. Unrecognized non-empty strings are treated as anchor tokens
// (the grammar explicitly allows "any base-anchor token").
func ParseScope(raw string) Scope {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "root" {
		return Scope{Kind: ScopeRoot, Raw: raw}
	}
	if after, ok := cutPrefix(trimmed, "after:"); ok {
		if strings.HasPrefix(after, "g") && isAllDigits(after[1:]) {
			return Scope{Kind: ScopeAfterGoal, Value: after, Raw: raw}
		}
		return Scope{Kind: ScopeAfterVerb, Value: after, Raw: raw}
	}
	if inside, ok := cutPrefix(trimmed, "inside:"); ok {
		return Scope{Kind: ScopeInside, Value: inside, Raw: raw}
	}
	return Scope{Kind: ScopeAnchor, Value: trimmed, Raw: raw}
}

func cutPrefix(s, prefix string) (string, bool) {
	if strings.HasPrefix(s, prefix) {
		return s[len(prefix):], true
	}
	return "", false
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// String renders the scope back to its canonical raw form.
func (s Scope) String() string {
	switch s.Kind {
	case ScopeRoot:
		return "root"
	case ScopeAfterVerb, ScopeAfterGoal:
		return "after:" + s.Value
	case ScopeInside:
		return "inside:" + s.Value
	default:
		return s.Value
	}
}
