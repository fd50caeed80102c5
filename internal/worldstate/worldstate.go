// Package worldstate implements the WorldState provider consumed at
// request entry (spec.md §6): snapshot() -> WorldState, called once
// and never again for the lifetime of a request. Continuous ambient
// monitoring (the original's five-second background poller) is out of
// scope per the Non-goals; this package takes one on-demand reading,
// built — like the original — from already-registered tools rather
// than duplicating OS queries.
package worldstate

import (
	"context"
	"time"

	"github.com/coreline-ai/deskmind/internal/tool"
	"github.com/coreline-ai/deskmind/pkg/models"
)

// Provider produces a single frozen WorldState snapshot.
type Provider interface {
	Snapshot(ctx context.Context) (*models.WorldState, error)
}

// ToolProvider builds WorldState by querying a handful of
// well-known system.state.* tools through a tool.Provider. Any tool
// that is unregistered or fails is treated as "unknown", matching the
// original's fail-soft, non-blocking capture loop — a missing signal
// degrades the snapshot, it never aborts it.
type ToolProvider struct {
	tools tool.Provider
	now   func() time.Time
}

// NewToolProvider builds a ToolProvider backed by tools.
func NewToolProvider(tools tool.Provider) *ToolProvider {
	return &ToolProvider{tools: tools, now: time.Now}
}

// Snapshot implements Provider.
func (p *ToolProvider) Snapshot(ctx context.Context) (*models.WorldState, error) {
	focused := p.focusedWindow(ctx)
	running := p.runningApplications(ctx)
	browserOpen := p.browserSessionOpen(ctx)
	clipboard := p.clipboardAvailable(ctx)
	locked := p.screenLocked(ctx)

	return models.Snapshot(p.now(), running, focused, browserOpen, clipboard, locked, nil), nil
}

func (p *ToolProvider) focusedWindow(ctx context.Context) models.FocusedWindow {
	data, ok := p.query(ctx, "system.state.get_active_window")
	if !ok {
		return models.FocusedWindow{}
	}
	title, _ := data["title"].(string)
	process, _ := data["process_name"].(string)
	return models.FocusedWindow{Title: title, ProcessName: process}
}

func (p *ToolProvider) runningApplications(ctx context.Context) []string {
	data, ok := p.query(ctx, "system.state.list_processes")
	if !ok {
		return nil
	}
	raw, _ := data["names"].([]string)
	return raw
}

func (p *ToolProvider) browserSessionOpen(ctx context.Context) bool {
	data, ok := p.query(ctx, "browsers.session_status")
	if !ok {
		return false
	}
	open, _ := data["open"].(bool)
	return open
}

func (p *ToolProvider) clipboardAvailable(ctx context.Context) bool {
	data, ok := p.query(ctx, "system.clipboard.get")
	if !ok {
		return false
	}
	_, present := data["text"]
	return present
}

func (p *ToolProvider) screenLocked(ctx context.Context) bool {
	data, ok := p.query(ctx, "system.state.get_session_lock")
	if !ok {
		return false
	}
	locked, _ := data["locked"].(bool)
	return locked
}

func (p *ToolProvider) query(ctx context.Context, toolName string) (map[string]any, bool) {
	if p.tools == nil {
		return nil, false
	}
	t, ok := p.tools.Lookup(toolName)
	if !ok {
		return nil, false
	}
	outcome, err := t.Execute(ctx, map[string]any{})
	if err != nil || outcome.Status != tool.StatusSuccess {
		return nil, false
	}
	return outcome.Data, true
}
