package runstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Run statuses.
const (
	StatusRunning = "running"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

// Run is one pipeline run.
type Run struct {
	ID          string
	SourceURL   string
	SourceLang  string
	TargetLang  string
	Status      string
	FailedStage string
	Error       string
	OutputPath  string
	StartedAt   time.Time
	FinishedAt  *time.Time
}

// Event is one engine attempt within a run.
type Event struct {
	RunID     string
	Stage     string
	Engine    string
	Outcome   string
	Detail    string
	Elapsed   time.Duration
	CreatedAt time.Time
}

// StartRun records a new run in the running state.
func (s *Store) StartRun(ctx context.Context, id, sourceURL, sourceLang, targetLang string) error {
	return s.execWithRetry(ctx,
		`INSERT INTO runs (id, source_url, source_lang, target_lang, status, started_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, sourceURL, sourceLang, targetLang, StatusRunning, time.Now().UTC())
}

// FinishRun marks a run done with its final artifact path.
func (s *Store) FinishRun(ctx context.Context, id, outputPath string) error {
	return s.execWithRetry(ctx,
		`UPDATE runs SET status = ?, output_path = ?, finished_at = ? WHERE id = ?`,
		StatusDone, outputPath, time.Now().UTC(), id)
}

// FailRun marks a run failed at the given stage.
func (s *Store) FailRun(ctx context.Context, id, stage, message string) error {
	return s.execWithRetry(ctx,
		`UPDATE runs SET status = ?, failed_stage = ?, error = ?, finished_at = ? WHERE id = ?`,
		StatusFailed, stage, message, time.Now().UTC(), id)
}

// RecordEvent appends an engine attempt to the run's event trail.
func (s *Store) RecordEvent(ctx context.Context, event Event) error {
	return s.execWithRetry(ctx,
		`INSERT INTO run_events (run_id, stage, engine, outcome, detail, elapsed_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.RunID, event.Stage, event.Engine, event.Outcome, event.Detail,
		event.Elapsed.Milliseconds(), time.Now().UTC())
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	ctx = ensureContext(ctx)
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_url, source_lang, target_lang, status, failed_stage, error, output_path, started_at, finished_at
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var finished sql.NullTime
		if err := rows.Scan(&run.ID, &run.SourceURL, &run.SourceLang, &run.TargetLang,
			&run.Status, &run.FailedStage, &run.Error, &run.OutputPath,
			&run.StartedAt, &finished); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if finished.Valid {
			t := finished.Time
			run.FinishedAt = &t
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Events returns the event trail for one run in insertion order.
func (s *Store) Events(ctx context.Context, runID string) ([]Event, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, stage, engine, outcome, detail, elapsed_ms, created_at
		 FROM run_events WHERE run_id = ? ORDER BY id ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var event Event
		var elapsedMS int64
		if err := rows.Scan(&event.RunID, &event.Stage, &event.Engine, &event.Outcome,
			&event.Detail, &elapsedMS, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		event.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		events = append(events, event)
	}
	return events, rows.Err()
}
