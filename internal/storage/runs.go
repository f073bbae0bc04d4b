package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lueurxax/portfolio-tagger/internal/core/domain"
)

// AppendRunRecord inserts a generation run record.
func (db *DB) AppendRunRecord(ctx context.Context, run *domain.GenerationRun) (string, error) {
	id := uuid.New()

	_, err := db.Pool.Exec(ctx, `
		INSERT INTO generation_runs (id, entity_id, entity_type, status, prompt, raw_response, error, retry_count, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, toUUID(id.String()), run.EntityID, string(run.EntityType), string(run.Status),
		SanitizeUTF8(run.Prompt), SanitizeUTF8(run.RawResponse), SanitizeUTF8(run.Error),
		safeIntToInt32(run.RetryCount), run.DurationMillis(), toTimestamptz(run.Timestamp))
	if err != nil {
		return "", fmt.Errorf("append run record: %w", err)
	}

	return id.String(), nil
}

// ListRunRecords returns run records newest first. An empty entityID lists all;
// a non-positive limit returns every match.
func (db *DB) ListRunRecords(ctx context.Context, entityID string, limit int) ([]domain.GenerationRun, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, entity_id, entity_type, status, prompt, raw_response, error, retry_count, duration_ms, created_at
		FROM generation_runs
		WHERE ($1 = '' OR entity_id = $1)
		ORDER BY created_at DESC
		LIMIT $2
	`, entityID, pgtype.Int4{Int32: safeIntToInt32(limit), Valid: limit > 0})
	if err != nil {
		return nil, fmt.Errorf("list run records: %w", err)
	}
	defer rows.Close()

	var runs []domain.GenerationRun

	for rows.Next() {
		var (
			id         pgtype.UUID
			entityType string
			status     string
			retryCount int32
			durationMS int64
			createdAt  pgtype.Timestamptz
			run        domain.GenerationRun
		)

		if err := rows.Scan(&id, &run.EntityID, &entityType, &status, &run.Prompt, &run.RawResponse,
			&run.Error, &retryCount, &durationMS, &createdAt); err != nil {
			return nil, fmt.Errorf("scan run record: %w", err)
		}

		run.ID = fromUUID(id)
		run.EntityType = domain.EntityType(entityType)
		run.Status = domain.RunStatus(status)
		run.RetryCount = int(retryCount)
		run.Duration = millisToDuration(durationMS)
		run.Timestamp = fromTimestamptz(createdAt)

		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run records: %w", err)
	}

	return runs, nil
}
