package tagging

import (
	"context"
	"fmt"

	"github.com/lueurxax/portfolio-tagger/internal/core/domain"
	apperrors "github.com/lueurxax/portfolio-tagger/internal/core/errors"
	"github.com/lueurxax/portfolio-tagger/internal/core/ports"
)

// Diagnostics exposes read-only views over runs and stored tags.
type Diagnostics struct {
	runs   ports.RunRepository
	reader ports.TagReader
}

// NewDiagnostics creates a Diagnostics over the given repositories.
func NewDiagnostics(runs ports.RunRepository, reader ports.TagReader) *Diagnostics {
	return &Diagnostics{runs: runs, reader: reader}
}

// ListRunRecords returns run records newest first. An empty entityID lists all
// entities. limit is clamped to (0, 500]; zero selects 50.
func (d *Diagnostics) ListRunRecords(ctx context.Context, entityID string, limit int) ([]domain.GenerationRun, error) {
	switch {
	case limit <= 0:
		limit = defaultRunListLimit
	case limit > maxRunListLimit:
		limit = maxRunListLimit
	}

	runs, err := d.runs.ListRunRecords(ctx, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("list run records: %w", err)
	}

	return runs, nil
}

// ListEntityTags returns the tags associated with an entity.
func (d *Diagnostics) ListEntityTags(ctx context.Context, entity domain.Entity) ([]domain.EntityTag, error) {
	if entity.ID == "" || !entity.Type.Valid() {
		return nil, fmt.Errorf("%w: entity %s/%s", apperrors.ErrInvalidInput, entity.Type, entity.ID)
	}

	tags, err := d.reader.ListEntityTags(ctx, entity.ID, entity.Type)
	if err != nil {
		return nil, fmt.Errorf("list entity tags: %w", err)
	}

	return tags, nil
}

// ListTags returns every stored tag ordered by name.
func (d *Diagnostics) ListTags(ctx context.Context) ([]domain.Tag, error) {
	tags, err := d.reader.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}

	return tags, nil
}
