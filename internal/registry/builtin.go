package registry

import "github.com/coreline-ai/deskmind/pkg/models"

// Builtin returns a Registry pre-populated with the reference
// capability set the reasoning core ships with, grouped by the same
// dot-separated domains the teacher's own intent-to-domain tables
// name (files.*, browsers.*, system.apps.*, system.input.*, ...).
func Builtin() *Registry {
	r := New()
	for _, c := range builtinCapabilities {
		r.Register(c)
	}
	return r
}

var builtinCapabilities = []models.Capability{
	{
		ToolName:    "files.create",
		IntentTags:  []string{"file_operation"},
		ActionClass: models.ActionActuate,
		Effects:     []string{"filesystem_write"},
		Schema: map[string]any{
			"object_type": map[string]any{"type": "string", "enum": []string{"file", "folder"}},
			"name":        map[string]any{"type": "string"},
		},
	},
	{
		ToolName:    "files.delete",
		IntentTags:  []string{"file_operation"},
		ActionClass: models.ActionActuate,
		Effects:     []string{"filesystem_write"},
		IsDestructive: true,
		Schema: map[string]any{
			"object_type": map[string]any{"type": "string", "enum": []string{"file", "folder"}},
			"name":        map[string]any{"type": "string"},
		},
	},
	{
		ToolName:    "files.move",
		IntentTags:  []string{"file_operation"},
		ActionClass: models.ActionActuate,
		Effects:     []string{"filesystem_write"},
		Schema: map[string]any{
			"source":      map[string]any{"type": "string"},
			"destination": map[string]any{"type": "string"},
		},
	},
	{
		ToolName:    "files.copy",
		IntentTags:  []string{"file_operation"},
		ActionClass: models.ActionActuate,
		Effects:     []string{"filesystem_write"},
		Schema: map[string]any{
			"source":      map[string]any{"type": "string"},
			"destination": map[string]any{"type": "string"},
		},
	},
	{
		ToolName:    "files.read",
		IntentTags:  []string{"file_operation"},
		ActionClass: models.ActionObserve,
		Schema:      map[string]any{"path": map[string]any{"type": "string"}},
	},
	{
		ToolName:    "files.list",
		IntentTags:  []string{"file_operation"},
		ActionClass: models.ActionObserve,
		Schema:      map[string]any{"path": map[string]any{"type": "string"}},
	},

	{
		ToolName:        "browsers.navigate",
		IntentTags:      []string{"browser_control"},
		ActionClass:     models.ActionActuate,
		Effects:         []string{"browser_navigation"},
		RequiresSession: true,
		Schema:          map[string]any{"url": map[string]any{"type": "string"}},
	},
	{
		ToolName:        "browsers.search",
		IntentTags:      []string{"browser_control"},
		ActionClass:     models.ActionActuate,
		Effects:         []string{"browser_navigation"},
		RequiresSession: true,
		Schema: map[string]any{
			"query":    map[string]any{"type": "string"},
			"platform": map[string]any{"type": "string"},
		},
	},
	{
		ToolName:        "browsers.click",
		IntentTags:      []string{"browser_control"},
		ActionClass:     models.ActionActuate,
		RequiresSession: true,
		Schema:          map[string]any{"selector": map[string]any{"type": "string"}},
	},
	{
		ToolName:        "browsers.type",
		IntentTags:      []string{"browser_control"},
		ActionClass:     models.ActionActuate,
		RequiresSession: true,
		Schema: map[string]any{
			"selector": map[string]any{"type": "string"},
			"text":     map[string]any{"type": "string"},
		},
	},
	{
		ToolName:        "browsers.read",
		IntentTags:      []string{"browser_control"},
		ActionClass:     models.ActionObserve,
		RequiresSession: true,
		Schema:          map[string]any{"target": map[string]any{"type": "string", "enum": []string{"title", "url", "text"}}},
	},

	{
		ToolName:    "system.apps.launch",
		IntentTags:  []string{"application_launch"},
		ActionClass: models.ActionActuate,
		Effects:     []string{"process_spawn"},
		Schema:      map[string]any{"app_name": map[string]any{"type": "string"}},
	},
	{
		ToolName:    "system.apps.focus",
		IntentTags:  []string{"application_control"},
		ActionClass: models.ActionActuate,
		RequiredPreconditions: []string{"requires_active_app"},
		Schema:      map[string]any{"app_name": map[string]any{"type": "string"}},
	},
	{
		ToolName:      "system.apps.close",
		IntentTags:    []string{"application_control"},
		ActionClass:   models.ActionActuate,
		IsDestructive: true,
		Schema:        map[string]any{"app_name": map[string]any{"type": "string"}},
	},

	{
		ToolName:    "system.audio.set_volume",
		IntentTags:  []string{"system_control"},
		ActionClass: models.ActionActuate,
		Schema:      map[string]any{"value": map[string]any{"type": "integer"}},
	},
	{
		ToolName:    "system.display.set_brightness",
		IntentTags:  []string{"system_control"},
		ActionClass: models.ActionActuate,
		Schema:      map[string]any{"value": map[string]any{"type": "integer"}},
	},
	{
		ToolName:    "system.display.screenshot",
		IntentTags:  []string{"system_query", "screen_capture"},
		ActionClass: models.ActionObserve,
		Schema:      map[string]any{},
	},
	{
		ToolName:    "system.state.query",
		IntentTags:  []string{"system_query"},
		ActionClass: models.ActionObserve,
		Schema:      map[string]any{"target": map[string]any{"type": "string"}},
	},
	{
		ToolName:    "system.network.toggle_wifi",
		IntentTags:  []string{"system_control"},
		ActionClass: models.ActionActuate,
		Schema:      map[string]any{},
	},

	{
		ToolName:              "system.input.press_key",
		IntentTags:            []string{"input_control"},
		ActionClass:           models.ActionActuate,
		RequiredPreconditions: []string{"requires_focus"},
		Schema:                map[string]any{"key": map[string]any{"type": "string"}},
	},
	{
		ToolName:              "system.input.type_text",
		IntentTags:            []string{"input_control"},
		ActionClass:           models.ActionActuate,
		RequiredPreconditions: []string{"requires_focus"},
		Schema:                map[string]any{"text": map[string]any{"type": "string"}},
	},
	{
		ToolName:              "system.input.click",
		IntentTags:            []string{"input_control"},
		ActionClass:           models.ActionActuate,
		RequiredPreconditions: []string{"requires_focus"},
		Schema: map[string]any{
			"x": map[string]any{"type": "integer"},
			"y": map[string]any{"type": "integer"},
		},
	},

	{
		ToolName:    "system.clipboard.read",
		IntentTags:  []string{"clipboard_operation"},
		ActionClass: models.ActionObserve,
		Schema:      map[string]any{},
	},
	{
		ToolName:    "system.clipboard.write",
		IntentTags:  []string{"clipboard_operation"},
		ActionClass: models.ActionActuate,
		Schema:      map[string]any{"text": map[string]any{"type": "string"}},
	},

	{
		ToolName:    "memory.recall",
		IntentTags:  []string{"memory_recall"},
		ActionClass: models.ActionObserve,
		Schema:      map[string]any{"key": map[string]any{"type": "string"}},
	},
}
