package runlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"volscribe/internal/services"
)

const runColumns = "id, collection_id, status, volumes_total, volumes_transcribed, passes, remaining_json, archive_path, uploaded, error_message, started_at, finished_at"

// StartRun inserts a running entry.
func (s *Store) StartRun(ctx context.Context, runID, collectionID string, startedAt time.Time) error {
	if strings.TrimSpace(runID) == "" || strings.TrimSpace(collectionID) == "" {
		return errors.New("run id and collection id are required")
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO runs (id, collection_id, status, started_at) VALUES (?, ?, ?, ?)`,
		runID, collectionID, string(StatusRunning), formatTime(startedAt),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RecordOutcome upserts a volume stage outcome. A nil err with outcome
// OutcomeFailed is allowed; the error fields stay empty.
func (s *Store) RecordOutcome(ctx context.Context, runID string, volume int, stage, outcome, detail string, stageErr error, at time.Time) error {
	var errMsg string
	if stageErr != nil {
		errMsg = stageErr.Error()
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO volume_outcomes (run_id, volume, stage, outcome, error_kind, error_message, detail, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(run_id, volume, stage) DO UPDATE SET
		   outcome = excluded.outcome,
		   error_kind = excluded.error_kind,
		   error_message = excluded.error_message,
		   detail = excluded.detail,
		   recorded_at = excluded.recorded_at`,
		runID, volume, stage, outcome,
		nullableString(services.Classify(stageErr)), nullableString(errMsg), nullableString(detail),
		formatTime(at),
	)
	if err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}
	return nil
}

// FinishRun stores the final state of a run.
func (s *Store) FinishRun(ctx context.Context, runID string, f Finish) error {
	remaining, err := json.Marshal(f.Remaining)
	if err != nil {
		return fmt.Errorf("encode remaining: %w", err)
	}
	var errMsg string
	if f.Err != nil {
		errMsg = f.Err.Error()
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE runs SET status = ?, volumes_total = ?, volumes_transcribed = ?, passes = ?,
		   remaining_json = ?, archive_path = ?, uploaded = ?, error_message = ?, finished_at = ?
		 WHERE id = ?`,
		string(f.Status), f.VolumesTotal, f.VolumesTranscribed, f.Passes,
		string(remaining), nullableString(f.ArchivePath), boolToInt(f.Uploaded), nullableString(errMsg),
		formatTime(f.FinishedAt), runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// GetRun returns a run by id.
func (s *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the newest runs first, optionally filtered by collection.
// A limit <= 0 returns every run.
func (s *Store) ListRuns(ctx context.Context, collectionID string, limit int) ([]Run, error) {
	query := "SELECT " + runColumns + " FROM runs"
	var args []any
	if collectionID != "" {
		query += " WHERE collection_id = ?"
		args = append(args, collectionID)
	}
	query += " ORDER BY started_at DESC, id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Outcomes lists a run's volume outcomes ordered by volume then stage.
func (s *Store) Outcomes(ctx context.Context, runID string) ([]VolumeOutcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, volume, stage, outcome, error_kind, error_message, detail, recorded_at
		 FROM volume_outcomes WHERE run_id = ? ORDER BY volume, stage`, runID)
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	defer rows.Close()

	var out []VolumeOutcome
	for rows.Next() {
		var (
			o           VolumeOutcome
			kind, msg   sql.NullString
			detail      sql.NullString
			recordedRaw string
		)
		if err := rows.Scan(&o.RunID, &o.Volume, &o.Stage, &o.Outcome, &kind, &msg, &detail, &recordedRaw); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.ErrorKind = kind.String
		o.ErrorMessage = msg.String
		o.Detail = detail.String
		if t, err := parseTimeString(recordedRaw); err == nil {
			o.RecordedAt = t
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Prune deletes finished runs that started before cutoff and returns how
// many were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.execWithRetry(ctx,
		"DELETE FROM runs WHERE finished_at IS NOT NULL AND started_at < ?", formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run          Run
		status       string
		remaining    sql.NullString
		archivePath  sql.NullString
		uploaded     int
		errorMessage sql.NullString
		startedRaw   string
		finishedRaw  sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&run.CollectionID,
		&status,
		&run.VolumesTotal,
		&run.VolumesTranscribed,
		&run.Passes,
		&remaining,
		&archivePath,
		&uploaded,
		&errorMessage,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}
	run.Status = Status(status)
	run.ArchivePath = archivePath.String
	run.Uploaded = uploaded != 0
	run.ErrorMessage = errorMessage.String
	if remaining.Valid && remaining.String != "" {
		if err := json.Unmarshal([]byte(remaining.String), &run.Remaining); err != nil {
			return nil, fmt.Errorf("decode remaining: %w", err)
		}
	}
	if started, err := parseTimeString(startedRaw); err == nil {
		run.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			run.FinishedAt = &finished
		}
	}
	return &run, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
