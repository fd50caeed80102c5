package models

import "time"

// FocusedWindow is the frozen description of whatever window had focus
// when the WorldState snapshot was taken.
type FocusedWindow struct {
	Title       string
	ProcessName string
}

// WorldState is a frozen snapshot of ambient OS and session state,
// taken once at request entry via the external WorldState provider
// (spec.md §6). Nothing downstream mutates it; planners only read it.
type WorldState struct {
	TakenAt             time.Time
	RunningApplications []string
	FocusedWindow       FocusedWindow
	BrowserSessionOpen   bool
	ClipboardAvailable   bool
	ScreenLocked         bool
	RecentFacts          []string
}

// Snapshot returns a defensively copied WorldState so a caller that
// later mutates the slices it passed in cannot retroactively change
// the snapshot.
func Snapshot(takenAt time.Time, runningApps []string, focused FocusedWindow, browserOpen, clipboardAvailable, screenLocked bool, recentFacts []string) *WorldState {
	appsCp := make([]string, len(runningApps))
	copy(appsCp, runningApps)
	factsCp := make([]string, len(recentFacts))
	copy(factsCp, recentFacts)
	return &WorldState{
		TakenAt:             takenAt,
		RunningApplications: appsCp,
		FocusedWindow:       focused,
		BrowserSessionOpen:  browserOpen,
		ClipboardAvailable:  clipboardAvailable,
		ScreenLocked:        screenLocked,
		RecentFacts:         factsCp,
	}
}

// IsRunning reports whether appName appears in RunningApplications
// (case-sensitive exact match, matching how the original ambient-state
// collector records process names).
func (w *WorldState) IsRunning(appName string) bool {
	if w == nil {
		return false
	}
	for _, a := range w.RunningApplications {
		if a == appName {
			return true
		}
	}
	return false
}
