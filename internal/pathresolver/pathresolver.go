// Package pathresolver is the sole authority for combining base
// anchors with per-goal path identities into absolute filesystem
// paths. No other package may call filepath.Abs or otherwise turn a
// user- or LLM-provided path into an absolute one: GoalPlanner,
// ToolResolver, and PlanExecutor all treat paths as opaque strings
// until PathResolver has stamped them.
package pathresolver

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Anchor names a known base location relative paths can be resolved
// against.
type Anchor string

const (
	AnchorWorkspace Anchor = "WORKSPACE"
	AnchorDesktop   Anchor = "DESKTOP"
	AnchorDocuments Anchor = "DOCUMENTS"
	AnchorDownloads Anchor = "DOWNLOADS"
	AnchorDriveC    Anchor = "DRIVE_C"
	AnchorDriveD    Anchor = "DRIVE_D"
	AnchorDriveE    Anchor = "DRIVE_E"
	AnchorHome      Anchor = "HOME"
	// anchorInherited marks a path resolved against a parent goal's
	// already-resolved path rather than a named base anchor.
	anchorInherited Anchor = "INHERITED"
)

// Resolved is an immutable record of how a path was resolved.
type Resolved struct {
	Raw            string
	BaseAnchor     Anchor // empty iff IsUserAbsolute
	AbsolutePath   string
	IsUserAbsolute bool
}

// Resolver holds the base anchors for one session. WORKSPACE is bound
// once at request entry to the session's captured cwd; it is never
// re-derived from a live process cwd mid-request.
type Resolver struct {
	anchors map[Anchor]string
}

// New builds a Resolver. workspaceRoot is the session's captured
// working directory; home is the user's home directory.
func New(workspaceRoot, home string) *Resolver {
	return &Resolver{anchors: map[Anchor]string{
		AnchorWorkspace: workspaceRoot,
		AnchorDesktop:   filepath.Join(home, "Desktop"),
		AnchorDocuments: filepath.Join(home, "Documents"),
		AnchorDownloads: filepath.Join(home, "Downloads"),
		AnchorDriveC:    "C:/",
		AnchorDriveD:    "D:/",
		AnchorDriveE:    "E:/",
		AnchorHome:      home,
	}}
}

// Resolve turns rawPath into a Resolved absolute path.
//
// Resolution rules, in order:
//  1. If rawPath is already absolute, use it as-is.
//  2. If parentResolved is non-empty (a dependent goal inheriting its
//     parent's location), resolve rawPath against it.
//  3. Otherwise resolve against the named base anchor.
func (r *Resolver) Resolve(rawPath string, baseAnchor Anchor, parentResolved string) (Resolved, error) {
	if rawPath == "" {
		return Resolved{}, fmt.Errorf("pathresolver: raw path cannot be empty")
	}

	if filepath.IsAbs(rawPath) || isWindowsAbs(rawPath) {
		return Resolved{
			Raw:            rawPath,
			AbsolutePath:   rawPath,
			IsUserAbsolute: true,
		}, nil
	}

	if parentResolved != "" {
		return Resolved{
			Raw:          rawPath,
			BaseAnchor:   anchorInherited,
			AbsolutePath: filepath.Join(parentResolved, rawPath),
		}, nil
	}

	base, ok := r.anchors[baseAnchor]
	if !ok {
		return Resolved{}, fmt.Errorf("pathresolver: unknown base anchor %q", baseAnchor)
	}
	return Resolved{
		Raw:          rawPath,
		BaseAnchor:   baseAnchor,
		AbsolutePath: filepath.Join(base, rawPath),
	}, nil
}

// isWindowsAbs reports whether p looks like a Windows drive-letter
// absolute path (e.g. "D:\alex" or "D:/alex"), since filepath.IsAbs
// on a Linux build host does not recognize those.
func isWindowsAbs(p string) bool {
	if len(p) < 3 {
		return false
	}
	return p[1] == ':' && (p[2] == '\\' || p[2] == '/')
}

// InferBaseAnchor infers an explicit base anchor from free-form user
// input, used by GoalInterpreter to detect phrases like "on the D
// drive" or "on my desktop". Returns "" if no explicit location is
// mentioned, in which case the caller's default anchor applies.
func InferBaseAnchor(userInput string) Anchor {
	lower := strings.ToLower(userInput)

	switch {
	case strings.Contains(lower, "d drive") || strings.Contains(lower, "d:"):
		return AnchorDriveD
	case strings.Contains(lower, "c drive") || strings.Contains(lower, "c:"):
		return AnchorDriveC
	case strings.Contains(lower, "e drive") || strings.Contains(lower, "e:"):
		return AnchorDriveE
	case strings.Contains(lower, "desktop"):
		return AnchorDesktop
	case strings.Contains(lower, "documents"):
		return AnchorDocuments
	case strings.Contains(lower, "downloads"):
		return AnchorDownloads
	default:
		return ""
	}
}
