package models

// Capability describes one registered tool's metadata, as consumed by
// the GoalPlanner and ToolResolver at their entry points. Capabilities
// are sourced from the external ToolRegistry; this package only
// defines the shape.
type Capability struct {
	ToolName               string
	IntentTags             []string
	RequiredPreconditions  []string
	Effects                []string
	Schema                 map[string]any
	ActionClass            ActionClass
	RequiresSession        bool
	IsDestructive           bool
}

// HasIntentTag reports whether the capability declares the given
// intent tag among those it serves.
func (c Capability) HasIntentTag(tag string) bool {
	for _, t := range c.IntentTags {
		if t == tag {
			return true
		}
	}
	return false
}
