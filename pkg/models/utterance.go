// Package models holds the immutable value types that cross stage
// boundaries in the reasoning-and-planning core: Utterance through
// PlanGraph. Every type here is frozen after construction; mutation
// helpers return new values instead of mutating receivers.
package models

// Utterance is the raw user text plus an optional session identifier
// and a read-only world-state snapshot, as consumed at request entry.
// It is constructed once per request and discarded once a final
// Result has been returned.
type Utterance struct {
	Text       string
	SessionID  string
	WorldState *WorldState
}

// NewUtterance constructs an Utterance. WorldState may be nil for
// callers that have not yet taken a snapshot (e.g. QueryClassifier,
// which never reads it).
func NewUtterance(text, sessionID string, world *WorldState) Utterance {
	return Utterance{Text: text, SessionID: sessionID, WorldState: world}
}
