// Package ledger records pipeline stage runs in a local sqlite file so
// operators can audit what was processed and when.
package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	stage       TEXT NOT NULL,
	input       TEXT NOT NULL DEFAULT '',
	outputs     INTEGER NOT NULL DEFAULT 0,
	warnings    INTEGER NOT NULL DEFAULT 0,
	status      TEXT NOT NULL,
	error       TEXT NOT NULL DEFAULT '',
	started_at  DATETIME NOT NULL,
	finished_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);
`

// Run is one recorded stage execution.
type Run struct {
	ID         string    `db:"id" json:"id"`
	Stage      string    `db:"stage" json:"stage"`
	Input      string    `db:"input" json:"input"`
	Outputs    int       `db:"outputs" json:"outputs"`
	Warnings   int       `db:"warnings" json:"warnings"`
	Status     string    `db:"status" json:"status"`
	Error      string    `db:"error" json:"error,omitempty"`
	StartedAt  time.Time `db:"started_at" json:"started_at"`
	FinishedAt time.Time `db:"finished_at" json:"finished_at"`
}

// Store is the sqlite-backed run ledger.
type Store struct {
	db *sqlx.DB
}

// Open opens (creating if needed) the ledger database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing ledger schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts a finished run. A zero ID is filled in.
func (s *Store) Record(run Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	_, err := s.db.NamedExec(`
		INSERT INTO runs (id, stage, input, outputs, warnings, status, error, started_at, finished_at)
		VALUES (:id, :stage, :input, :outputs, :warnings, :status, :error, :started_at, :finished_at)`,
		run)
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	return nil
}

// Recent returns the most recent runs, newest first.
func (s *Store) Recent(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	runs := []Run{}
	err := s.db.Select(&runs, `
		SELECT id, stage, input, outputs, warnings, status, error, started_at, finished_at
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}
