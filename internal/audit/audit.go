// Package audit persists a per-plan execution ledger: one row per
// action recording its status and timing. It is deliberately scoped
// to a single plan's lifetime, not a persistent fact/episodic memory
// store — that is the LLM's own long-term memory and out of scope —
// the engineering equivalent of the teacher's internal/state session
// ledger, narrowed to one request.
package audit

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/coreline-ai/deskmind/internal/executor"
)

// DB wraps a SQLite connection holding the audit log.
type DB struct {
	conn *sql.DB
	path string
	mu   sync.Mutex
}

const schema = `
CREATE TABLE IF NOT EXISTS plan_runs (
	plan_id     TEXT PRIMARY KEY,
	session_id  TEXT,
	final_status TEXT NOT NULL,
	started_at  TEXT NOT NULL,
	finished_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS action_runs (
	plan_id     TEXT NOT NULL,
	action_id   TEXT NOT NULL,
	status      TEXT NOT NULL,
	error       TEXT,
	started_at  TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	PRIMARY KEY (plan_id, action_id)
);

CREATE INDEX IF NOT EXISTS idx_action_runs_plan_id ON action_runs(plan_id);
`

// DefaultPath returns the default location for the audit database,
// mirroring the teacher's XDG-aware global-state path convention.
func DefaultPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, _ := os.UserHomeDir()
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "deskmind", "audit.db")
}

// Open opens (creating if necessary) the audit database at path and
// applies its schema. WAL mode is enabled so a concurrently running
// response formatter can read completed rows without blocking writes.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("audit: create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("audit: open database: %w", err)
	}
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("audit: enable WAL mode: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("audit: apply schema: %w", err)
	}

	return &DB{conn: conn, path: path}, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.conn.Close()
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// RecordPlan persists one completed (or partially completed) plan
// execution and every action within it, in a single transaction.
func (db *DB) RecordPlan(planID, sessionID string, startedAt, finishedAt time.Time, bundle executor.Bundle) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("audit: begin transaction: %w", err)
	}

	_, err = tx.Exec(
		`INSERT OR REPLACE INTO plan_runs (plan_id, session_id, final_status, started_at, finished_at) VALUES (?, ?, ?, ?, ?)`,
		planID, sessionID, string(bundle.FinalStatus), formatTime(startedAt), formatTime(finishedAt),
	)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("audit: insert plan_runs: %w", err)
	}

	for actionID, r := range bundle.Results {
		errMsg := ""
		if r.Err != nil {
			errMsg = r.Err.Error()
		}
		_, err = tx.Exec(
			`INSERT OR REPLACE INTO action_runs (plan_id, action_id, status, error, started_at, finished_at) VALUES (?, ?, ?, ?, ?, ?)`,
			planID, actionID, string(r.Status), errMsg, formatTime(r.StartedAt), formatTime(r.FinishedAt),
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("audit: insert action_runs for %q: %w", actionID, err)
		}
	}

	return tx.Commit()
}

// ActionRun is one persisted action row, read back for inspection or
// the response formatter's history view.
type ActionRun struct {
	ActionID   string
	Status     string
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// ActionsForPlan returns every recorded action run for planID, ordered
// by start time.
func (db *DB) ActionsForPlan(planID string) ([]ActionRun, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	rows, err := db.conn.Query(
		`SELECT action_id, status, error, started_at, finished_at FROM action_runs WHERE plan_id = ? ORDER BY started_at ASC`,
		planID,
	)
	if err != nil {
		return nil, fmt.Errorf("audit: query action_runs: %w", err)
	}
	defer rows.Close()

	var out []ActionRun
	for rows.Next() {
		var r ActionRun
		var started, finished string
		if err := rows.Scan(&r.ActionID, &r.Status, &r.Error, &started, &finished); err != nil {
			return nil, fmt.Errorf("audit: scan action_runs row: %w", err)
		}
		r.StartedAt, _ = parseTime(started)
		r.FinishedAt, _ = parseTime(finished)
		out = append(out, r)
	}
	return out, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
