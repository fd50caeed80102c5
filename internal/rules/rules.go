// Package rules holds the declarative (domain, verb) -> Rule table
// that GoalPlanner uses to turn a Goal into a PlannedAction. Goals are
// semantic (WHAT); tools are procedural (HOW); this table is the only
// place that bridges the two. Planner code does no branching on
// domain or verb names outside this table.
package rules

import (
	"fmt"
	"regexp"
	"sort"
)

// ContextBinding names a (domain, key) pair a param can be filled
// from, or that a rule's output produces, via ContextFrames.
type ContextBinding struct {
	Domain string
	Key    string
}

// Rule describes how to turn a Goal in (domain, verb) into a
// PlannedAction.
type Rule struct {
	Intent              string
	ActionClass         string // "actuate" or "observe"
	DescriptionTemplate string
	RequiredParams      []string
	DefaultParams       map[string]any
	AllowedValues       map[string][]string
	// SessionBootstraps reports whether the downstream tool can create
	// its own execution context (e.g. a browser session manager)
	// without an explicit app.launch goal preceding it. GoalInterpreter
	// uses this to suppress redundant launch goals. A verb that needs
	// OS-level process control must leave this false.
	SessionBootstraps bool
	// AllowSemanticOnly permits a goal that only carries semantic
	// identity (e.g. "open youtube" with no explicit URL) to still
	// plan successfully, producing a ContextFrame for downstream goals
	// to consume rather than failing validation.
	AllowSemanticOnly bool
	ContextConsumption map[string]ContextBinding
	ContextProduction  *ContextProduction
}

// ContextProduction names the domain and keys a rule's resulting
// action contributes to ContextFrames once executed.
type ContextProduction struct {
	Domain string
	Keys   []string
}

type key struct {
	domain string
	verb   string
}

// Table is the full PlannerRules map, keyed by (domain, verb).
var Table = map[key]Rule{
	{"browser", "navigate"}: {
		Intent:              "browser_control",
		ActionClass:         "actuate",
		DescriptionTemplate: "navigate:{url}",
		RequiredParams:      []string{"url"},
		SessionBootstraps:   true,
		AllowSemanticOnly:   true,
		ContextConsumption:  map[string]ContextBinding{"platform": {"browser", "platform"}},
		ContextProduction:   &ContextProduction{Domain: "browser", Keys: []string{"platform"}},
	},
	{"browser", "search"}: {
		Intent:              "browser_control",
		ActionClass:         "actuate",
		DescriptionTemplate: "search:{platform}:{query}",
		RequiredParams:      []string{"query"},
		SessionBootstraps:   true,
		DefaultParams:       map[string]any{"platform": "google"},
		AllowedValues:       map[string][]string{"platform": {"google", "youtube", "bing", "duckduckgo", "github"}},
		ContextConsumption:  map[string]ContextBinding{"platform": {"browser", "platform"}},
		ContextProduction:   &ContextProduction{Domain: "browser", Keys: []string{"platform"}},
	},
	{"browser", "wait"}: {
		Intent:              "browser_control",
		ActionClass:         "actuate",
		DescriptionTemplate: "wait:{selector}:{state}",
		RequiredParams:      []string{"selector"},
		SessionBootstraps:   true,
		DefaultParams:       map[string]any{"state": "visible"},
		AllowedValues:       map[string][]string{"state": {"attached", "detached", "visible", "hidden"}},
	},
	{"browser", "click"}: {
		Intent:              "browser_control",
		ActionClass:         "actuate",
		DescriptionTemplate: "click:{selector}",
		RequiredParams:      []string{"selector"},
		SessionBootstraps:   true,
	},
	{"browser", "type"}: {
		Intent:              "browser_control",
		ActionClass:         "actuate",
		DescriptionTemplate: "type:{selector}:{text}",
		RequiredParams:      []string{"selector", "text"},
		SessionBootstraps:   true,
	},
	{"browser", "read"}: {
		Intent:              "browser_control",
		ActionClass:         "observe",
		DescriptionTemplate: "read:{target}",
		RequiredParams:      []string{"target"},
		SessionBootstraps:   true,
		AllowedValues:       map[string][]string{"target": {"title", "url", "text"}},
	},
	{"browser", "scroll"}: {
		Intent:              "browser_control",
		ActionClass:         "actuate",
		DescriptionTemplate: "scroll:{direction}",
		SessionBootstraps:   true,
		DefaultParams:       map[string]any{"direction": "down"},
		AllowedValues:       map[string][]string{"direction": {"up", "down", "left", "right"}},
	},
	{"browser", "select"}: {
		Intent:              "browser_control",
		ActionClass:         "actuate",
		DescriptionTemplate: "select:{selector}:{value}",
		RequiredParams:      []string{"selector", "value"},
		SessionBootstraps:   true,
	},

	{"file", "create"}: {
		Intent:              "file_operation",
		ActionClass:         "actuate",
		DescriptionTemplate: "create:{object_type}:{name}",
		RequiredParams:      []string{"object_type", "name"},
		AllowedValues:       map[string][]string{"object_type": {"file", "folder"}},
	},
	{"file", "delete"}: {
		Intent:              "file_operation",
		ActionClass:         "actuate",
		DescriptionTemplate: "delete:{object_type}:{name}",
		RequiredParams:      []string{"object_type", "name"},
		AllowedValues:       map[string][]string{"object_type": {"file", "folder"}},
	},
	{"file", "move"}: {
		Intent:              "file_operation",
		ActionClass:         "actuate",
		DescriptionTemplate: "move:{source}:{destination}",
		RequiredParams:      []string{"source", "destination"},
	},
	{"file", "copy"}: {
		Intent:              "file_operation",
		ActionClass:         "actuate",
		DescriptionTemplate: "copy:{source}:{destination}",
		RequiredParams:      []string{"source", "destination"},
	},
	{"file", "read"}: {
		Intent:              "file_operation",
		ActionClass:         "observe",
		DescriptionTemplate: "read:{path}",
		RequiredParams:      []string{"path"},
	},
	{"file", "write"}: {
		Intent:              "file_operation",
		ActionClass:         "actuate",
		DescriptionTemplate: "write:{path}",
		RequiredParams:      []string{"path"},
	},
	{"file", "rename"}: {
		Intent:              "file_operation",
		ActionClass:         "actuate",
		DescriptionTemplate: "rename:{source}:{target}",
		RequiredParams:      []string{"source", "target"},
	},
	{"file", "list"}: {
		Intent:              "file_operation",
		ActionClass:         "observe",
		DescriptionTemplate: "list:{path}",
		DefaultParams:       map[string]any{"path": "."},
	},

	{"app", "launch"}: {
		Intent:              "application_launch",
		ActionClass:         "actuate",
		DescriptionTemplate: "launch:{app_name}",
		RequiredParams:      []string{"app_name"},
	},
	{"app", "focus"}: {
		Intent:              "application_control",
		ActionClass:         "actuate",
		DescriptionTemplate: "focus:{app_name}",
		RequiredParams:      []string{"app_name"},
	},
	{"app", "close"}: {
		Intent:              "application_control",
		ActionClass:         "actuate",
		DescriptionTemplate: "close:{app_name}",
		RequiredParams:      []string{"app_name"},
	},

	{"system", "set"}: {
		Intent:              "system_control",
		ActionClass:         "actuate",
		DescriptionTemplate: "set:{target}:{value}",
		RequiredParams:      []string{"target", "value"},
		AllowedValues:       map[string][]string{"target": {"volume", "brightness"}},
	},
	{"system", "get"}: {
		Intent:              "system_query",
		ActionClass:         "observe",
		DescriptionTemplate: "get:{target}",
		RequiredParams:      []string{"target"},
		AllowedValues:       map[string][]string{"target": {"battery", "time", "screenshot", "wifi", "bluetooth"}},
	},
	{"system", "toggle"}: {
		Intent:              "system_control",
		ActionClass:         "actuate",
		DescriptionTemplate: "toggle:{target}",
		RequiredParams:      []string{"target"},
		AllowedValues:       map[string][]string{"target": {"mute", "wifi", "bluetooth", "airplane_mode"}},
	},
	{"system", "query"}: {
		Intent:              "system_query",
		ActionClass:         "observe",
		DescriptionTemplate: "query:{target}",
		RequiredParams:      []string{"target"},
	},

	{"media", "play"}: {
		Intent: "system_control", ActionClass: "actuate", DescriptionTemplate: "media:play",
	},
	{"media", "pause"}: {
		Intent: "system_control", ActionClass: "actuate", DescriptionTemplate: "media:pause",
	},
	{"media", "stop"}: {
		Intent: "system_control", ActionClass: "actuate", DescriptionTemplate: "media:stop",
	},
	{"media", "next"}: {
		Intent: "system_control", ActionClass: "actuate", DescriptionTemplate: "media:next",
	},
	{"media", "previous"}: {
		Intent: "system_control", ActionClass: "actuate", DescriptionTemplate: "media:previous",
	},

	{"input", "press_key"}: {
		Intent:              "input_control",
		ActionClass:         "actuate",
		DescriptionTemplate: "press_key:{key}",
		RequiredParams:      []string{"key"},
	},
	{"input", "type_text"}: {
		Intent:              "input_control",
		ActionClass:         "actuate",
		DescriptionTemplate: "type_text:{text}",
		RequiredParams:      []string{"text"},
	},
	{"input", "click"}: {
		Intent:              "input_control",
		ActionClass:         "actuate",
		DescriptionTemplate: "click:{x}:{y}",
		RequiredParams:      []string{"x", "y"},
	},
}

// Get returns the rule for (domain, verb) and whether it was found.
func Get(domain, verb string) (Rule, bool) {
	r, ok := Table[key{domain, verb}]
	return r, ok
}

// ValidationError reports a ValidateParams failure.
type ValidationError struct {
	Domain, Verb string
	Message      string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("(%s, %s): %s", e.Domain, e.Verb, e.Message)
}

// ValidateParams applies defaults, checks required params, and checks
// allowed-value constraints, fail-fast, returning the merged param set.
func ValidateParams(domain, verb string, params map[string]any, rule Rule) (map[string]any, error) {
	merged := make(map[string]any, len(rule.DefaultParams)+len(params))
	for k, v := range rule.DefaultParams {
		merged[k] = v
	}
	for k, v := range params {
		merged[k] = v
	}

	var missing []string
	for _, p := range rule.RequiredParams {
		if v, ok := merged[p]; !ok || v == nil {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		return nil, &ValidationError{domain, verb, fmt.Sprintf("missing required params: %v", missing)}
	}

	for paramName, allowed := range rule.AllowedValues {
		v, ok := merged[paramName]
		if !ok {
			continue
		}
		sv, ok := v.(string)
		if !ok || !contains(allowed, sv) {
			sorted := append([]string(nil), allowed...)
			sort.Strings(sorted)
			return nil, &ValidationError{domain, verb, fmt.Sprintf("invalid value %v for %q, allowed: %v", v, paramName, sorted)}
		}
	}

	return merged, nil
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

// FormatDescription fills DescriptionTemplate's {name} placeholders
// from merged params. A placeholder left unfilled is removed rather
// than left as literal template syntax, since a context-only action
// (e.g. navigate with no url) reaches here without its required params.
func FormatDescription(rule Rule, merged map[string]any) string {
	return placeholder.ReplaceAllStringFunc(rule.DescriptionTemplate, func(p string) string {
		if v, ok := merged[p[1:len(p)-1]]; ok {
			return fmt.Sprintf("%v", v)
		}
		return ""
	})
}

var placeholder = regexp.MustCompile(`\{[a-z_]+\}`)

// defaultVerbForIntent names, for browser_control, file_operation and
// system_control, the verb the single-utterance path should reach for
// absent any other signal — the same default the original's
// action_pipeline.py effectively got by only ever handing the resolver
// an intent, not a verb. Any other intent tag, including ones with
// several rules (application_control, system_query, input_control),
// has no entry; DefaultDomainVerb then takes the first of its
// (domain, verb) pairs in sorted order.
var defaultVerbForIntent = map[string]string{
	"browser_control": "navigate",
	"file_operation":  "read",
	"system_control":  "toggle",
}

// DefaultDomainVerb returns the (domain, verb) pair the single-
// utterance path should plan against for a given intent tag, derived
// entirely from Table's own Intent field rather than any new mapping
// data — the single path stays table-driven exactly like the
// multi-goal path, it just skips goal interpretation to get there.
func DefaultDomainVerb(intentTag string) (domain, verb string, ok bool) {
	preferredVerb := defaultVerbForIntent[intentTag]

	keys := make([]key, 0)
	for k, rule := range Table {
		if rule.Intent == intentTag {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return "", "", false
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].domain != keys[j].domain {
			return keys[i].domain < keys[j].domain
		}
		return keys[i].verb < keys[j].verb
	})

	if preferredVerb != "" {
		for _, k := range keys {
			if k.verb == preferredVerb {
				return k.domain, k.verb, true
			}
		}
	}
	return keys[0].domain, keys[0].verb, true
}
