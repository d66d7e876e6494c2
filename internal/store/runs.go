package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/cert-organizer/constants"
	"github.com/joseph-ayodele/cert-organizer/internal/entity"
)

// SaveRun stores a finished run with its records and failures in one
// transaction. Saving the same run again replaces it.
func (s *Store) SaveRun(ctx context.Context, res entity.RunResult) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	sum := res.Summary
	runID := sum.RunID.String()
	for _, q := range []string{
		`DELETE FROM failures WHERE run_id = ?`,
		`DELETE FROM certificates WHERE run_id = ?`,
		`DELETE FROM runs WHERE id = ?`,
	} {
		if _, err = tx.ExecContext(ctx, s.rebind(q), runID); err != nil {
			return fmt.Errorf("clear run: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, s.rebind(`INSERT INTO runs
		(id, input_dir, status, started_at, finished_at, total, succeeded, failed, complete, incomplete, renamed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		runID, sum.InputDir, string(sum.Status), formatTime(sum.StartedAt), formatTime(sum.FinishedAt),
		sum.Total, sum.Succeeded, sum.Failed, sum.Complete, sum.Incomplete, sum.Renamed,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, rec := range res.Records {
		_, err = tx.ExecContext(ctx, s.rebind(`INSERT INTO certificates
			(id, run_id, source_filename, new_filename, content_hash, name, course, duration, date, status, pages, method, confidence, extracted_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			rec.ID.String(), runID, rec.SourceFilename, rec.NewFilename, rec.ContentHash,
			rec.Name, rec.Course, rec.Duration, rec.Date, string(rec.Status),
			rec.Pages, rec.Method, float64(rec.Confidence), formatTime(rec.ExtractedAt),
		)
		if err != nil {
			return fmt.Errorf("insert certificate %s: %w", rec.SourceFilename, err)
		}
	}
	for _, f := range res.Failures {
		_, err = tx.ExecContext(ctx, s.rebind(`INSERT INTO failures (run_id, source_filename, reason, failed_at) VALUES (?, ?, ?, ?)`),
			runID, f.SourceFilename, f.Reason, formatTime(f.Timestamp),
		)
		if err != nil {
			return fmt.Errorf("insert failure %s: %w", f.SourceFilename, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Info("run saved", "run_id", runID, "records", len(res.Records), "failures", len(res.Failures))
	return nil
}

// ListRuns returns the most recent runs first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]entity.RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT
		id, input_dir, status, started_at, finished_at, total, succeeded, failed, complete, incomplete, renamed
		FROM runs ORDER BY started_at DESC LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []entity.RunSummary
	for rows.Next() {
		var (
			sum               entity.RunSummary
			id, status        string
			started, finished sql.NullString
		)
		if err := rows.Scan(&id, &sum.InputDir, &status, &started, &finished,
			&sum.Total, &sum.Succeeded, &sum.Failed, &sum.Complete, &sum.Incomplete, &sum.Renamed); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		sum.RunID, _ = uuid.Parse(id)
		sum.Status = constants.RunStatus(status)
		sum.StartedAt = parseTime(started)
		sum.FinishedAt = parseTime(finished)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// FindByHash returns the newest stored record for a file with this content
// hash, or nil when none exists.
func (s *Store) FindByHash(ctx context.Context, hash string) (*entity.CertificateRecord, error) {
	if hash == "" {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT
		id, source_filename, new_filename, content_hash, name, course, duration, date, status, pages, method, confidence, extracted_at
		FROM certificates WHERE content_hash = ? ORDER BY extracted_at DESC LIMIT 1`), hash)

	var (
		rec                                   entity.CertificateRecord
		id, status                            string
		newName, name, course, duration, date sql.NullString
		method, extracted, contentHash        sql.NullString
		confidence                            sql.NullFloat64
	)
	err := row.Scan(&id, &rec.SourceFilename, &newName, &contentHash, &name, &course, &duration, &date,
		&status, &rec.Pages, &method, &confidence, &extracted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by hash: %w", err)
	}
	rec.ID, _ = uuid.Parse(id)
	rec.NewFilename = newName.String
	rec.ContentHash = contentHash.String
	rec.Name = name.String
	rec.Course = course.String
	rec.Duration = duration.String
	rec.Date = date.String
	rec.Status = constants.RecordStatus(status)
	rec.Method = method.String
	rec.Confidence = float32(confidence.Float64)
	rec.ExtractedAt = parseTime(extracted)
	return &rec, nil
}
