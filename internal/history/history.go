// Package history records every workflow run pad performs: which workflow,
// from which manifest, how it ended. The records live in pad's own SQLite
// database so project directories stay clean.
package history

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/pythonkids/pad/internal/db"
)

//go:embed schema.sql
var schemaSQL string

// Run statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
	StatusDryRun = "dry-run"
)

// timeLayout is how timestamps are stored. RFC3339 in UTC sorts correctly
// as text.
const timeLayout = time.RFC3339

// DefaultListLimit caps List when the caller passes no limit.
const DefaultListLimit = 20

// Run is one recorded workflow execution.
type Run struct {
	ID           int64
	Workflow     string
	ManifestPath string
	Mode         string
	Status       string
	Detail       string
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Duration returns how long the run took.
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Log is an open run-record database.
type Log struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Log, error) {
	conn, err := db.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	if err := db.EnsureSchema(conn, schemaSQL); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &Log{db: conn}, nil
}

// Close releases the underlying database handle.
func (l *Log) Close() error {
	return l.db.Close()
}

// Record inserts a completed run and returns its id.
func (l *Log) Record(run Run) (int64, error) {
	if run.Workflow == "" {
		return 0, errors.New("run has no workflow name")
	}
	switch run.Status {
	case StatusOK, StatusFailed, StatusDryRun:
	default:
		return 0, fmt.Errorf("unknown run status %q", run.Status)
	}
	if run.StartedAt.IsZero() {
		return 0, errors.New("run has no start time")
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = run.StartedAt
	}

	detail := sql.NullString{String: run.Detail, Valid: run.Detail != ""}
	res, err := l.db.Exec(`INSERT INTO workflow_runs (workflow, manifest_path, mode, status, detail, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.Workflow, run.ManifestPath, run.Mode, run.Status, detail,
		run.StartedAt.UTC().Format(timeLayout), run.FinishedAt.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	return res.LastInsertId()
}

// List returns recorded runs, newest first. workflow filters to one
// workflow name when non-empty. A limit of zero or less means
// DefaultListLimit.
func (l *Log) List(workflow string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	query := `SELECT id, workflow, manifest_path, mode, status, detail, started_at, finished_at
		FROM workflow_runs`
	args := []interface{}{}
	if workflow != "" {
		query += " WHERE workflow = ?"
		args = append(args, workflow)
	}
	query += " ORDER BY started_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := l.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// LastRun returns the most recent run, or nil when nothing was recorded.
func (l *Log) LastRun() (*Run, error) {
	row := l.db.QueryRow(`SELECT id, workflow, manifest_path, mode, status, detail, started_at, finished_at
		FROM workflow_runs ORDER BY started_at DESC, id DESC LIMIT 1`)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Clear deletes all recorded runs and returns how many were removed.
func (l *Log) Clear() (int64, error) {
	res, err := l.db.Exec("DELETE FROM workflow_runs")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	var manifestPath, mode, detail sql.NullString
	var started, finished string
	if err := row.Scan(&r.ID, &r.Workflow, &manifestPath, &mode, &r.Status, &detail, &started, &finished); err != nil {
		return nil, err
	}
	r.ManifestPath = manifestPath.String
	r.Mode = mode.String
	r.Detail = detail.String

	var err error
	if r.StartedAt, err = time.Parse(timeLayout, started); err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	if r.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
		return nil, fmt.Errorf("parse finished_at: %w", err)
	}
	return &r, nil
}
