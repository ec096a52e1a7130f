package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"veil/internal/config"
	"veil/internal/pipeline"
)

// timeLayout sorts lexically in the same order as the instants it encodes.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store manages the run ledger backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open initializes or connects to the history database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.HistoryPath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, now: time.Now}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Begin records a run in the running state along with its templates.
func (s *Store) Begin(ctx context.Context, run Run) error {
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("run id is required")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, input_path, output_path, status, window_size, backend, frame_count, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.InputPath,
		run.OutputPath,
		StatusRunning,
		run.WindowSize,
		run.Backend,
		run.FrameCount,
		s.now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i, tpl := range run.Templates {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO run_templates (run_id, position, name, path, threshold) VALUES (?, ?, ?, ?, ?)`,
			run.ID, i, tpl.Name, nullableString(tpl.Path), tpl.Threshold,
		)
		if err != nil {
			return fmt.Errorf("insert template %s: %w", tpl.Name, err)
		}
	}
	return tx.Commit()
}

// Complete marks a run finished and stores its statistics.
func (s *Store) Complete(ctx context.Context, id string, result pipeline.Result) error {
	return s.finish(ctx, id, StatusCompleted, result, nil)
}

// Fail marks a run failed, keeping whatever statistics it gathered.
func (s *Store) Fail(ctx context.Context, id string, result pipeline.Result, cause error) error {
	if cause == nil {
		cause = errors.New("unknown failure")
	}
	return s.finish(ctx, id, StatusFailed, result, cause)
}

func (s *Store) finish(ctx context.Context, id string, status Status, result pipeline.Result, cause error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var message any
	if cause != nil {
		message = cause.Error()
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE runs SET status = ?, frame_count = ?, frames_emitted = ?, frames_redacted = ?,
            windows = ?, duration_ms = ?, error_message = ?, finished_at = ?
         WHERE id = ?`,
		status,
		result.FrameCount,
		result.FramesEmitted,
		result.FramesRedacted,
		result.Windows,
		result.Duration.Milliseconds(),
		message,
		s.now().UTC().Format(timeLayout),
		id,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	for _, stats := range result.Templates {
		_, err := tx.ExecContext(ctx,
			`UPDATE run_templates SET extract_calls = ?, boundary_hits = ?, reused_frames = ?,
                skipped_frames = ?, occurrences = ?, active_windows = ?, reusable_windows = ?
             WHERE run_id = ? AND name = ?`,
			stats.ExtractCalls,
			stats.BoundaryHits,
			stats.ReusedFrames,
			stats.SkippedFrames,
			stats.Occurrences,
			stats.ActiveWindows,
			stats.ReusableWindows,
			id,
			stats.Name,
		)
		if err != nil {
			return fmt.Errorf("update template %s: %w", stats.Name, err)
		}
	}
	return tx.Commit()
}

const runColumns = `id, input_path, output_path, status, window_size, backend, frame_count,
    frames_emitted, frames_redacted, windows, duration_ms, error_message, created_at, finished_at`

// Get returns the run whose identifier equals or starts with id.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: empty identifier", ErrNotFound)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ? OR id LIKE ? ESCAPE '\' ORDER BY id = ? DESC LIMIT 2`,
		id, escapeLike(id)+"%", id,
	)
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	runs, err := scanRuns(rows)
	if err != nil {
		return nil, err
	}
	switch {
	case len(runs) == 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case len(runs) > 1 && runs[0].ID != id:
		return nil, fmt.Errorf("%w: %s", ErrAmbiguous, id)
	}
	run := runs[0]
	if run.Templates, err = s.templates(ctx, run.ID); err != nil {
		return nil, err
	}
	return run, nil
}

// List returns up to limit runs, newest first. A limit below 1 returns all runs.
func (s *Store) List(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return scanRuns(rows)
}

func (s *Store) templates(ctx context.Context, runID string) ([]Template, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, path, threshold, extract_calls, boundary_hits, reused_frames, skipped_frames,
            occurrences, active_windows, reusable_windows
         FROM run_templates WHERE run_id = ? ORDER BY position`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query templates: %w", err)
	}
	defer rows.Close()

	var out []Template
	for rows.Next() {
		var (
			tpl  Template
			path sql.NullString
		)
		if err := rows.Scan(
			&tpl.Name, &path, &tpl.Threshold, &tpl.ExtractCalls, &tpl.BoundaryHits,
			&tpl.ReusedFrames, &tpl.SkippedFrames, &tpl.Occurrences,
			&tpl.ActiveWindows, &tpl.ReusableWindows,
		); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		tpl.Path = path.String
		out = append(out, tpl)
	}
	return out, rows.Err()
}

func scanRuns(rows *sql.Rows) ([]*Run, error) {
	defer rows.Close()
	var out []*Run
	for rows.Next() {
		var (
			run        Run
			status     string
			durationMS int64
			message    sql.NullString
			created    string
			finished   sql.NullString
		)
		if err := rows.Scan(
			&run.ID, &run.InputPath, &run.OutputPath, &status, &run.WindowSize, &run.Backend,
			&run.FrameCount, &run.FramesEmitted, &run.FramesRedacted, &run.Windows,
			&durationMS, &message, &created, &finished,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Status = Status(status)
		run.Duration = time.Duration(durationMS) * time.Millisecond
		run.ErrorMessage = message.String
		run.CreatedAt = parseTime(created)
		if finished.Valid {
			run.FinishedAt = parseTime(finished.String)
		}
		out = append(out, &run)
	}
	return out, rows.Err()
}

func parseTime(value string) time.Time {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func escapeLike(value string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(value)
}
