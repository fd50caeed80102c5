package models

// RouteKind is the QueryClassifier's closed output: one atomic goal or
// several. It carries no payload of its own — see Classification for
// the enriched form.
type RouteKind string

const (
	// RouteSingle means the utterance expresses one atomic goal.
	RouteSingle RouteKind = "single"
	// RouteMulti means the utterance expresses multiple goals, whether
	// independent or dependent.
	RouteMulti RouteKind = "multi"
)

// Valid reports whether r is one of the two closed route kinds.
func (r RouteKind) Valid() bool {
	return r == RouteSingle || r == RouteMulti
}

// DetectionMethod records which phase of QueryClassifier produced a
// Classification: the deterministic pattern scan, or the LLM fallback.
type DetectionMethod string

const (
	DetectionSyntactic DetectionMethod = "syntactic"
	DetectionLLM       DetectionMethod = "llm"
)

// Classification is QueryClassifier's result. Route is the single
// required field spec.md describes; Confidence and Method are carried
// per the authority contract noted in spec.md's Open Questions (a
// confidence >= 0.85 classification obliges GoalInterpreter to respect
// the derived topology rather than re-deriving it).
type Classification struct {
	Route      RouteKind
	Confidence float64
	Method     DetectionMethod
	Reasoning  string
}
