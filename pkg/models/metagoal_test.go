package models

import "testing"

func TestNewMetaGoalSingleRejectsExtraGoals(t *testing.T) {
	goals := []Goal{
		NewGoal("g0", "app", "launch", map[string]any{"app_name": "chrome"}, "", ParseScope("root")),
		NewGoal("g1", "app", "launch", map[string]any{"app_name": "spotify"}, "", ParseScope("root")),
	}
	if _, err := NewMetaGoal(MetaSingle, goals, nil); err == nil {
		t.Fatal("expected error for single meta_type with two goals")
	}
}

func TestNewMetaGoalRejectsSelfDependency(t *testing.T) {
	goals := []Goal{
		NewGoal("g0", "file", "create", map[string]any{"object_type": "folder", "name": "a"}, "", ParseScope("root")),
	}
	if _, err := NewMetaGoal(MetaDependentMulti, goals, map[int][]int{0: {0}}); err == nil {
		t.Fatal("expected error for self-dependency")
	}
}

func TestNewMetaGoalRejectsForwardReference(t *testing.T) {
	goals := []Goal{
		NewGoal("g0", "file", "create", map[string]any{"object_type": "folder", "name": "a"}, "", ParseScope("root")),
		NewGoal("g1", "file", "create", map[string]any{"object_type": "file", "name": "b"}, "", ParseScope("inside:a")),
	}
	if _, err := NewMetaGoal(MetaDependentMulti, goals, map[int][]int{0: {1}}); err == nil {
		t.Fatal("expected error for forward reference")
	}
}

func TestNewMetaGoalIndependentMultiRejectsDependencies(t *testing.T) {
	goals := []Goal{
		NewGoal("g0", "app", "launch", map[string]any{"app_name": "chrome"}, "", ParseScope("root")),
		NewGoal("g1", "app", "launch", map[string]any{"app_name": "spotify"}, "", ParseScope("root")),
	}
	if _, err := NewMetaGoal(MetaIndependentMulti, goals, map[int][]int{1: {0}}); err == nil {
		t.Fatal("expected error: independent_multi cannot have dependencies")
	}
}

func TestNewMetaGoalDependentMultiAccepted(t *testing.T) {
	goals := []Goal{
		NewGoal("g0", "file", "create", map[string]any{"object_type": "folder", "name": "alex"}, "", ParseScope("drive:D")),
		NewGoal("g1", "file", "create", map[string]any{"object_type": "file", "name": "presentation.pptx"}, "", ParseScope("inside:alex")),
	}
	mg, err := NewMetaGoal(MetaDependentMulti, goals, map[int][]int{1: {0}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deps := mg.DependenciesOf(1); len(deps) != 1 || deps[0] != 0 {
		t.Errorf("expected goal 1 to depend on goal 0, got %v", deps)
	}
	if deps := mg.DependenciesOf(0); len(deps) != 0 {
		t.Errorf("expected goal 0 to have no dependencies, got %v", deps)
	}
}

func TestParseScope(t *testing.T) {
	cases := []struct {
		raw  string
		kind ScopeKind
		val  string
	}{
		{"root", ScopeRoot, ""},
		{"", ScopeRoot, ""},
		{"after:navigate", ScopeAfterVerb, "navigate"},
		{"after:g0", ScopeAfterGoal, "g0"},
		{"inside:alex", ScopeInside, "alex"},
		{"drive:D", ScopeAnchor, "drive:D"},
		{"desktop", ScopeAnchor, "desktop"},
	}
	for _, c := range cases {
		got := ParseScope(c.raw)
		if got.Kind != c.kind {
			t.Errorf("ParseScope(%q).Kind = %v, want %v", c.raw, got.Kind, c.kind)
		}
		if got.Value != c.val {
			t.Errorf("ParseScope(%q).Value = %q, want %q", c.raw, got.Value, c.val)
		}
	}
}
