package models

// ContextFrame is immutable typed data passed between planners via
// declared context_consumption/context_production rules. It is
// appended during planning and is read-only to later stages.
type ContextFrame struct {
	ProducedBy string // action_id or goal_id that produced this frame
	Domain     string
	Data       map[string]any
}

// NewContextFrame constructs a ContextFrame with a defensively copied
// data map.
func NewContextFrame(producedBy, domain string, data map[string]any) ContextFrame {
	cp := make(map[string]any, len(data))
	for k, v := range data {
		cp[k] = v
	}
	return ContextFrame{ProducedBy: producedBy, Domain: domain, Data: cp}
}

// Get returns the named key from the frame's data.
func (f ContextFrame) Get(key string) (any, bool) {
	v, ok := f.Data[key]
	return v, ok
}

// ContextFrames is an ordered, append-only collection with lookup by
// (domain, key), returning the most recently produced matching frame —
// the "most recent matching ContextFrame" semantics GoalPlanner's
// context_consumption rule relies on.
type ContextFrames []ContextFrame

// Append returns a new ContextFrames with f appended; the receiver is
// left untouched.
func (c ContextFrames) Append(f ContextFrame) ContextFrames {
	out := make(ContextFrames, len(c), len(c)+1)
	copy(out, c)
	return append(out, f)
}

// MostRecent returns the most recently appended frame whose Domain
// matches and whose Data contains key, or ok=false if none match.
func (c ContextFrames) MostRecent(domain, key string) (ContextFrame, bool) {
	for i := len(c) - 1; i >= 0; i-- {
		if c[i].Domain != domain {
			continue
		}
		if _, ok := c[i].Data[key]; ok {
			return c[i], true
		}
	}
	return ContextFrame{}, false
}
