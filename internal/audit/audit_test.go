package audit

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/coreline-ai/deskmind/internal/executor"
)

func TestRecordAndReadBackPlan(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "audit.db")
	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("unexpected error opening db: %v", err)
	}
	defer db.Close()

	started := time.Now().Add(-time.Second)
	finished := time.Now()
	bundle := executor.Bundle{
		FinalStatus: executor.FinalSuccess,
		Results: map[string]executor.ActionResult{
			"a0": {ActionID: "a0", Status: executor.StatusSuccess, StartedAt: started, FinishedAt: finished},
		},
	}

	if err := db.RecordPlan("plan-1", "sess-1", started, finished, bundle); err != nil {
		t.Fatalf("unexpected error recording plan: %v", err)
	}

	runs, err := db.ActionsForPlan("plan-1")
	if err != nil {
		t.Fatalf("unexpected error reading back: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 action run, got %d", len(runs))
	}
	if runs[0].ActionID != "a0" || runs[0].Status != string(executor.StatusSuccess) {
		t.Errorf("unexpected action run: %+v", runs[0])
	}
}

func TestRecordPlanWithFailureRetainsErrorMessage(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "audit.db")
	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("unexpected error opening db: %v", err)
	}
	defer db.Close()

	now := time.Now()
	bundle := executor.Bundle{
		FinalStatus: executor.FinalFailed,
		Results: map[string]executor.ActionResult{
			"a0": {ActionID: "a0", Status: executor.StatusFailed, Err: errTest{}, StartedAt: now, FinishedAt: now},
		},
	}
	if err := db.RecordPlan("plan-2", "", now, now, bundle); err != nil {
		t.Fatalf("unexpected error recording plan: %v", err)
	}

	runs, err := db.ActionsForPlan("plan-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 1 || runs[0].Error != "boom" {
		t.Errorf("expected error message preserved, got %+v", runs)
	}
}

type errTest struct{}

func (errTest) Error() string { return "boom" }
