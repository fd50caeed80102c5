package resolver

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/coreline-ai/deskmind/internal/registry"
	"github.com/coreline-ai/deskmind/pkg/corerr"
	"github.com/coreline-ai/deskmind/pkg/models"
)

const resolutionSystemPrompt = `You match a planned action description to the single best tool from ` +
	`a provided list and supply its parameters. Respond with JSON only: ` +
	`{"tool": "<name>"|null, "params": {...}, "confidence": 0.0-1.0, "reason": "..."}. ` +
	`Use an exact tool name from the list or null if none fit. Be honest about confidence.`

func buildResolutionPrompt(action models.PlannedAction, candidates []models.Capability, stage int) string {
	var sb strings.Builder
	stageLabel := "preferred domains"
	if stage == 2 {
		stageLabel = "global search"
	}
	fmt.Fprintf(&sb, "Request: %q\nIntent: %s\nStage: %d (%s)\n\nAvailable tools:\n", action.Description, action.IntentTag, stage, stageLabel)
	for _, c := range candidates {
		fmt.Fprintf(&sb, "- %s (class=%s): schema=%v\n", c.ToolName, c.ActionClass, c.Schema)
	}
	return sb.String()
}

type rawResolution struct {
	Tool       *string        `json:"tool"`
	Params     map[string]any `json:"params"`
	Confidence float64        `json:"confidence"`
	Reason     string         `json:"reason"`
}

func parseResolutionResponse(raw string, reg *registry.Registry) (Resolution, error) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end < start {
		return Resolution{}, corerr.New(corerr.KindSchemaInvalid, "resolver: LLM response contained no JSON object")
	}

	var parsed rawResolution
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
		return Resolution{}, corerr.Wrap(corerr.KindSchemaInvalid, "resolver: failed to parse LLM response", err)
	}

	if parsed.Tool == nil || *parsed.Tool == "" {
		reason := parsed.Reason
		if reason == "" {
			reason = "no suitable tool"
		}
		return Resolution{Reason: reason}, nil
	}
	if !reg.Has(*parsed.Tool) {
		return Resolution{}, corerr.New(corerr.KindNoTool, "resolver: LLM returned unknown tool "+*parsed.Tool)
	}
	return Resolution{
		Tool:       *parsed.Tool,
		Params:     parsed.Params,
		Confidence: parsed.Confidence,
		Reason:     parsed.Reason,
	}, nil
}
