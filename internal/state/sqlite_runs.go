package state

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
)

// CreateRun records the start of a run.
func (s *SQLiteStore) CreateRun(command, target string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run := &Run{
		ID:        generateID(),
		Command:   command,
		Target:    target,
		Status:    RunStatusRunning,
		StartedAt: s.now(),
	}
	s.logger.Debug("creating run", slog.String("id", run.ID), slog.String("command", command))

	_, err := s.db.Exec(
		`INSERT INTO runs (id, command, target, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Command, run.Target, string(run.Status), formatTime(run.StartedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// CompleteRun marks a run as finished with the given status.
func (s *SQLiteStore) CompleteRun(id string, status RunStatus, errMsg string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	result, err := s.db.Exec(
		`UPDATE runs SET status = ?, completed_at = ?, error = ? WHERE id = ?`,
		string(status), formatTime(s.now()), nullString(errMsg), id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run not found: %s", id)
	}
	return nil
}

const runColumns = `id, command, target, status, started_at, completed_at, error`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		run                  Run
		status, started      string
		completed, errString sql.NullString
	)
	if err := row.Scan(&run.ID, &run.Command, &run.Target, &status, &started, &completed, &errString); err != nil {
		return nil, err
	}

	run.Status = RunStatus(status)
	t, err := parseTime(started)
	if err != nil {
		return nil, fmt.Errorf("bad started_at for run %s: %w", run.ID, err)
	}
	run.StartedAt = t
	if completed.Valid {
		t, err := parseTime(completed.String)
		if err != nil {
			return nil, fmt.Errorf("bad completed_at for run %s: %w", run.ID, err)
		}
		run.CompletedAt = &t
	}
	run.Error = errString.String
	return &run, nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(id string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run, err := scanRun(s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first. limit <= 0 returns all.
func (s *SQLiteStore) ListRuns(limit int) ([]*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.Query(`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RecordEntityRun stores the outcome of loading one entity, replacing any
// earlier record for the same table in the run.
func (s *SQLiteStore) RecordEntityRun(er *EntityRun) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO entity_runs (run_id, table_name, status, row_count, started_at, completed_at, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		er.RunID, er.Table, string(er.Status), er.Rows,
		formatTime(er.StartedAt), formatTime(er.CompletedAt), nullString(er.Error),
	)
	if err != nil {
		return fmt.Errorf("failed to record entity run for %s: %w", er.Table, err)
	}
	return nil
}

// GetEntityRuns returns the entity records of a run in start order.
func (s *SQLiteStore) GetEntityRuns(runID string) ([]*EntityRun, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT table_name, status, row_count, started_at, completed_at, error
		 FROM entity_runs WHERE run_id = ? ORDER BY started_at, table_name`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get entity runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*EntityRun
	for rows.Next() {
		er := &EntityRun{RunID: runID}
		var status, started string
		var completed, errString sql.NullString
		if err := rows.Scan(&er.Table, &status, &er.Rows, &started, &completed, &errString); err != nil {
			return nil, fmt.Errorf("failed to scan entity run: %w", err)
		}
		er.Status = EntityStatus(status)
		if er.StartedAt, err = parseTime(started); err != nil {
			return nil, err
		}
		if completed.Valid {
			if er.CompletedAt, err = parseTime(completed.String); err != nil {
				return nil, err
			}
		}
		er.Error = errString.String
		out = append(out, er)
	}
	return out, rows.Err()
}

// RecordBackfill stores the outcome of resolving one relationship.
func (s *SQLiteStore) RecordBackfill(b *Backfill) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if b.RecordedAt.IsZero() {
		b.RecordedAt = s.now()
	}

	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO backfills (run_id, relationship, target_surrogate, resolved, orphans, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		b.RunID, b.Relationship, b.TargetSurrogate, b.Resolved, b.Orphans, formatTime(b.RecordedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to record backfill for %s: %w", b.Relationship, err)
	}
	return nil
}

// GetBackfills returns the backfill records of a run in the order recorded.
func (s *SQLiteStore) GetBackfills(runID string) ([]*Backfill, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT relationship, target_surrogate, resolved, orphans, recorded_at
		 FROM backfills WHERE run_id = ? ORDER BY recorded_at, rowid`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get backfills: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*Backfill
	for rows.Next() {
		b := &Backfill{RunID: runID}
		var recorded string
		if err := rows.Scan(&b.Relationship, &b.TargetSurrogate, &b.Resolved, &b.Orphans, &recorded); err != nil {
			return nil, fmt.Errorf("failed to scan backfill: %w", err)
		}
		if b.RecordedAt, err = parseTime(recorded); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
