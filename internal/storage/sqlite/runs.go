package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lueurxax/portfolio-tagger/internal/core/domain"
)

// AppendRunRecord inserts a generation run record.
func (d *DB) AppendRunRecord(ctx context.Context, run *domain.GenerationRun) (string, error) {
	id := uuid.NewString()

	timestamp := run.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO generation_runs (id, entity_id, entity_type, status, prompt, raw_response, error, retry_count, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, run.EntityID, string(run.EntityType), string(run.Status), run.Prompt, run.RawResponse,
		run.Error, run.RetryCount, run.DurationMillis(), timestamp.UnixMilli())
	if err != nil {
		return "", fmt.Errorf("append run record: %w", err)
	}

	return id, nil
}

// ListRunRecords returns run records newest first. An empty entityID lists all;
// a non-positive limit returns every match.
func (d *DB) ListRunRecords(ctx context.Context, entityID string, limit int) ([]domain.GenerationRun, error) {
	if limit <= 0 {
		limit = -1 // no limit
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT id, entity_id, entity_type, status, prompt, raw_response, error, retry_count, duration_ms, created_at
		FROM generation_runs
		WHERE (?1 = '' OR entity_id = ?1)
		ORDER BY created_at DESC, seq DESC
		LIMIT ?2
	`, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("list run records: %w", err)
	}
	defer rows.Close()

	var runs []domain.GenerationRun

	for rows.Next() {
		var (
			run        domain.GenerationRun
			entityType string
			status     string
			durationMS int64
			createdAt  sql.NullInt64
		)

		if err := rows.Scan(&run.ID, &run.EntityID, &entityType, &status, &run.Prompt, &run.RawResponse,
			&run.Error, &run.RetryCount, &durationMS, &createdAt); err != nil {
			return nil, fmt.Errorf("scan run record: %w", err)
		}

		run.EntityType = domain.EntityType(entityType)
		run.Status = domain.RunStatus(status)
		run.Duration = time.Duration(durationMS) * time.Millisecond
		run.Timestamp = fromMillis(createdAt)

		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run records: %w", err)
	}

	return runs, nil
}
