package worldstate

import (
	"context"
	"time"

	"github.com/coreline-ai/deskmind/pkg/models"
)

// Static is a fixed-value Provider for tests and the CLI demo path,
// where no real tool registry is wired for ambient-state queries.
type Static struct {
	State *models.WorldState
}

// Snapshot implements Provider, returning s.State unchanged.
func (s *Static) Snapshot(ctx context.Context) (*models.WorldState, error) {
	return s.State, nil
}

// Empty returns a Static provider backed by a blank, present-moment
// WorldState: nothing running, no focus, nothing locked.
func Empty() *Static {
	return &Static{State: models.Snapshot(time.Now(), nil, models.FocusedWindow{}, false, false, false, nil)}
}
