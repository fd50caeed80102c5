package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/coreline-ai/deskmind/internal/llm"
	"github.com/coreline-ai/deskmind/internal/rules"
	"github.com/coreline-ai/deskmind/pkg/corerr"
	"github.com/coreline-ai/deskmind/pkg/models"
)

// buildSingleMetaGoal turns an act-decided IntentResult into the
// single-goal MetaGoal the shared orchestrate-resolve-execute tail
// expects. It stays table-driven the same way GoalPlanner does:
// rules.DefaultDomainVerb picks (domain, verb) from the same Table
// GoalPlanner validates against, never from a free-form mapping of
// its own.
func buildSingleMetaGoal(ctx context.Context, provider llm.Provider, model string, intentResult models.IntentResult, utterance models.Utterance) (models.MetaGoal, error) {
	domain, verb, ok := rules.DefaultDomainVerb(string(intentResult.Intent))
	if !ok {
		return models.MetaGoal{}, corerr.New(corerr.KindNoCapability, "no planner rule for intent "+string(intentResult.Intent))
	}

	rule, ok := rules.Get(domain, verb)
	if !ok {
		return models.MetaGoal{}, corerr.New(corerr.KindNoCapability, fmt.Sprintf("no planner rule for (%s, %s)", domain, verb))
	}

	params, err := fillParams(ctx, provider, model, rule, utterance.Text)
	if err != nil {
		return models.MetaGoal{}, err
	}

	goal := models.NewGoal("g0", domain, verb, params, utterance.Text, models.ParseScope("root"))
	return models.NewMetaGoal(models.MetaSingle, []models.Goal{goal}, nil)
}

const singleParamSystemPrompt = "Extract tool call parameters from the user's instruction. " +
	"Respond with JSON only, an object with exactly the requested keys and string values."

// fillParams derives the Goal.Params a single-utterance request needs
// for rule's RequiredParams. A rule with no required params needs
// nothing extracted. Any rule with at least one required param —
// whether a single slot like browser.navigate's "url" or several like
// browser.search's "query"/"platform" — is an extraction problem and
// goes through the LLM exactly the same way, since "open youtube and
// search nvidia" is not itself a URL. The raw text stands in for the
// first required param only as the last resort rather than the
// default: when no provider is configured, or when the LLM reply holds
// no JSON object or none of the required keys.
func fillParams(ctx context.Context, provider llm.Provider, model string, rule rules.Rule, text string) (map[string]any, error) {
	if len(rule.RequiredParams) == 0 {
		return nil, nil
	}
	if provider == nil {
		return map[string]any{rule.RequiredParams[0]: text}, nil
	}

	raw, err := provider.Complete(ctx, singleParamSystemPrompt, buildParamPrompt(rule, text), model)
	if err != nil {
		return nil, corerr.Wrap(corerr.KindProviderUnavailable, "pipeline: param extraction call failed", err)
	}
	return parseParamResponse(raw, rule.RequiredParams, text), nil
}

func buildParamPrompt(rule rules.Rule, text string) string {
	var b strings.Builder
	b.WriteString("Instruction: ")
	b.WriteString(text)
	b.WriteString("\nRequired parameters: ")
	b.WriteString(strings.Join(rule.RequiredParams, ", "))
	if len(rule.AllowedValues) > 0 {
		b.WriteString("\nAllowed values: ")
		for k, v := range rule.AllowedValues {
			fmt.Fprintf(&b, "%s in [%s]; ", k, strings.Join(v, ", "))
		}
	}
	return b.String()
}

func parseParamResponse(raw string, required []string, fallbackText string) map[string]any {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	out := make(map[string]any, len(required))
	if start < 0 || end < start {
		out[required[0]] = fallbackText
		return out
	}
	var parsed map[string]any
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
		out[required[0]] = fallbackText
		return out
	}
	for _, key := range required {
		if v, ok := parsed[key]; ok {
			out[key] = v
		}
	}
	if len(out) == 0 {
		out[required[0]] = fallbackText
	}
	return out
}
