// Package intent implements IntentClassifier: single-path utterance
// classification into a closed tag set plus an act/ask decision gate.
// It never re-classifies downstream and never resolves tools — it
// answers "what kind of thing is this, and do we have enough to act
// on it" and stops there.
package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/coreline-ai/deskmind/internal/llm"
	"github.com/coreline-ai/deskmind/pkg/corerr"
	"github.com/coreline-ai/deskmind/pkg/models"
)

// AskConfidenceFloor is the confidence below which a classification,
// even with a non-empty intent, is routed to Ask rather than Act: the
// classifier is not confident enough to let the rest of the pipeline
// proceed on its say-so.
const AskConfidenceFloor = 0.5

func systemPrompt() string {
	var b strings.Builder
	b.WriteString("You are an intent classifier for a desktop automation assistant. Classify the ")
	b.WriteString("user's utterance into exactly one of these intent tags:\n")
	for _, tag := range models.AllIntentTags {
		b.WriteString("- ")
		b.WriteString(string(tag))
		b.WriteString("\n")
	}
	b.WriteString("Respond with JSON only: {\"intent\": \"<tag>\", \"confidence\": 0.0-1.0, ")
	b.WriteString("\"needs_clarification\": true|false, \"question\": \"...\"}. Set ")
	b.WriteString("needs_clarification true only when the utterance is too ambiguous to act on ")
	b.WriteString("without more information from the user.")
	return b.String()
}

// Classifier implements IntentClassifier.
type Classifier struct {
	provider llm.Provider
	model    string
}

// New builds a Classifier backed by provider.
func New(provider llm.Provider, model string) *Classifier {
	return &Classifier{provider: provider, model: model}
}

type rawIntent struct {
	Intent             string  `json:"intent"`
	Confidence         float64 `json:"confidence"`
	NeedsClarification bool    `json:"needs_clarification"`
	Question           string  `json:"question"`
}

// Classify classifies utterance into an IntentResult. world is folded
// into the user message as a compact ambient-state summary (focused
// window, running applications, browser session presence), so the
// LLM's own confidence/needs_clarification judgment is actually
// informed by it — e.g. "switch to the browser" is unambiguous when a
// browser is already focused, and genuinely ambiguous otherwise. A nil
// world (no snapshot available) degrades to classifying on the
// utterance text alone rather than failing.
func (c *Classifier) Classify(ctx context.Context, utterance models.Utterance, world *models.WorldState) (models.IntentResult, error) {
	raw, err := c.provider.Complete(ctx, systemPrompt(), buildUserMessage(utterance, world), c.model)
	if err != nil {
		return models.IntentResult{}, corerr.Wrap(corerr.KindProviderUnavailable, "intent: LLM call failed", err)
	}

	parsed, ok := parseRawIntent(raw)
	if !ok {
		return models.IntentResult{Decision: models.DecisionAct, Intent: models.IntentUnknown, Confidence: 0}, nil
	}

	tag := models.IntentTag(parsed.Intent)
	if !tag.Valid() {
		return models.IntentResult{Decision: models.DecisionAct, Intent: models.IntentUnknown, Confidence: 0}, nil
	}

	if parsed.NeedsClarification || parsed.Confidence < AskConfidenceFloor {
		question := parsed.Question
		if question == "" {
			question = "Could you clarify what you'd like me to do?"
		}
		return models.IntentResult{
			Decision:   models.DecisionAsk,
			Intent:     tag,
			Confidence: parsed.Confidence,
			Question:   question,
		}, nil
	}

	return models.IntentResult{
		Decision:   models.DecisionAct,
		Intent:     tag,
		Confidence: parsed.Confidence,
	}, nil
}

// buildUserMessage folds world into the classification request as a
// short ambient-state line ahead of the utterance itself. Nothing here
// is treated as structured data downstream — it only shapes the LLM's
// own act/ask judgment, the same way the utterance text does.
func buildUserMessage(utterance models.Utterance, world *models.WorldState) string {
	if world == nil {
		return fmt.Sprintf("Classify: %q", utterance.Text)
	}

	var b strings.Builder
	b.WriteString("Ambient state: ")
	if world.FocusedWindow.ProcessName != "" {
		fmt.Fprintf(&b, "focused=%s; ", world.FocusedWindow.ProcessName)
	}
	if len(world.RunningApplications) > 0 {
		fmt.Fprintf(&b, "running=[%s]; ", strings.Join(world.RunningApplications, ", "))
	}
	fmt.Fprintf(&b, "browser_session_open=%t; clipboard_available=%t; screen_locked=%t\n", world.BrowserSessionOpen, world.ClipboardAvailable, world.ScreenLocked)
	fmt.Fprintf(&b, "Classify: %q", utterance.Text)
	return b.String()
}

func parseRawIntent(raw string) (rawIntent, bool) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end < start {
		return rawIntent{}, false
	}
	var parsed rawIntent
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
		return rawIntent{}, false
	}
	return parsed, true
}
