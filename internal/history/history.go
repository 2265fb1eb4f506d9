// Package history persists finished pipeline runs in a local SQLite database.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/karminski/shakedown/internal/report"
)

// DefaultDir is the directory under the project root holding the database.
const DefaultDir = ".shakedown"

// DefaultFile is the database file name inside DefaultDir.
const DefaultFile = "history.db"

// Run is one recorded pipeline run.
type Run struct {
	ID         int64
	UID        string
	Root       string
	StartedAt  time.Time
	FinishedAt time.Time
	Passed     int
	Failed     int
	Skipped    int
	ExitCode   int
}

// Step is one recorded check inside a run.
type Step struct {
	Position   int
	Name       string
	Kind       string
	Status     string
	DurationMS int64
	ExitCode   int
	Detail     string
}

// Store wraps the SQLite database holding run history.
type Store struct {
	db *sql.DB
}

// Open opens and migrates the history database under the project root.
func Open(root string) (*Store, error) {
	dir := filepath.Join(root, DefaultDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	return OpenFile(filepath.Join(dir, DefaultFile))
}

// OpenFile opens a specific database file.
func OpenFile(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		uid TEXT NOT NULL UNIQUE,
		root TEXT NOT NULL,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP NOT NULL,
		passed INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		exit_code INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS run_steps (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		status TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		exit_code INTEGER NOT NULL,
		detail TEXT,
		UNIQUE(run_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_run_steps_run ON run_steps(run_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Record stores one finished run with its steps and returns the run uid.
func (s *Store) Record(root string, startedAt, finishedAt time.Time, results []report.StepResult, summary report.Summary) (string, error) {
	uid := uuid.NewString()

	tx, err := s.db.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO runs (uid, root, started_at, finished_at, passed, failed, skipped, exit_code)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		uid, root, startedAt, finishedAt, summary.Passed, summary.Failed, summary.Skipped, summary.ExitCode,
	)
	if err != nil {
		return "", err
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return "", err
	}

	for i, step := range results {
		if _, err := tx.Exec(
			`INSERT INTO run_steps (run_id, position, name, kind, status, duration_ms, exit_code, detail)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, i, step.Name, step.Kind, step.Status, step.DurationMS, step.ExitCode, step.Detail,
		); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return uid, nil
}

// List returns the most recent runs, newest first.
func (s *Store) List(limit int) ([]Run, error) {
	rows, err := s.db.Query(
		`SELECT id, uid, root, started_at, finished_at, passed, failed, skipped, exit_code
		 FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		err := rows.Scan(
			&run.ID, &run.UID, &run.Root, &run.StartedAt, &run.FinishedAt,
			&run.Passed, &run.Failed, &run.Skipped, &run.ExitCode,
		)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// Get returns the run whose uid starts with the supplied prefix, together
// with its steps in execution order.
func (s *Store) Get(uidPrefix string) (Run, []Step, error) {
	rows, err := s.db.Query(
		`SELECT id, uid, root, started_at, finished_at, passed, failed, skipped, exit_code
		 FROM runs WHERE uid LIKE ?`, uidPrefix+"%",
	)
	if err != nil {
		return Run{}, nil, err
	}
	defer rows.Close()

	var matches []Run
	for rows.Next() {
		var run Run
		err := rows.Scan(
			&run.ID, &run.UID, &run.Root, &run.StartedAt, &run.FinishedAt,
			&run.Passed, &run.Failed, &run.Skipped, &run.ExitCode,
		)
		if err != nil {
			return Run{}, nil, err
		}
		matches = append(matches, run)
	}
	if err := rows.Err(); err != nil {
		return Run{}, nil, err
	}

	switch len(matches) {
	case 0:
		return Run{}, nil, fmt.Errorf("run %q not found", uidPrefix)
	case 1:
	default:
		return Run{}, nil, fmt.Errorf("run id %q is ambiguous (%d matches)", uidPrefix, len(matches))
	}

	run := matches[0]
	steps, err := s.stepsForRun(run.ID)
	if err != nil {
		return Run{}, nil, err
	}
	return run, steps, nil
}

func (s *Store) stepsForRun(runID int64) ([]Step, error) {
	rows, err := s.db.Query(
		`SELECT position, name, kind, status, duration_ms, exit_code, detail
		 FROM run_steps WHERE run_id = ? ORDER BY position`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var steps []Step
	for rows.Next() {
		var step Step
		var detail sql.NullString
		err := rows.Scan(
			&step.Position, &step.Name, &step.Kind, &step.Status,
			&step.DurationMS, &step.ExitCode, &detail,
		)
		if err != nil {
			return nil, err
		}
		if detail.Valid {
			step.Detail = detail.String
		}
		steps = append(steps, step)
	}

	return steps, rows.Err()
}

// Prune deletes all but the newest keep runs.
func (s *Store) Prune(keep int) error {
	if keep <= 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`DELETE FROM run_steps WHERE run_id IN (
			SELECT id FROM runs ORDER BY started_at DESC, id DESC LIMIT -1 OFFSET ?)`, keep,
	); err != nil {
		return err
	}
	if _, err := tx.Exec(
		`DELETE FROM runs WHERE id IN (
			SELECT id FROM runs ORDER BY started_at DESC, id DESC LIMIT -1 OFFSET ?)`, keep,
	); err != nil {
		return err
	}

	return tx.Commit()
}

// FormatTimeAgo renders a timestamp relative to now for list output.
func FormatTimeAgo(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return t.Format("Jan 2")
	}
}
