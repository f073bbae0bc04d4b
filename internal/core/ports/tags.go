package ports

import (
	"context"
	"time"

	"github.com/lueurxax/portfolio-tagger/internal/core/domain"
)

// NewTag is the insert payload for a tag.
type NewTag struct {
	Name        string
	Description string
	Category    domain.TagCategory
	Metadata    domain.TagMetadata
}

// NewAssociation is the insert payload for a tag association.
type NewAssociation struct {
	TagID      string
	EntityID   string
	EntityType domain.EntityType
	Confidence float64
	Metadata   domain.AssociationMetadata
}

// TagRepository is the storage surface the tag generator writes through.
// Find methods return nil, nil when nothing matches.
// InsertTag and InsertAssociation return an error wrapping errors.ErrDuplicate
// when the unique index rejects the row.
type TagRepository interface {
	InsertTag(ctx context.Context, tag NewTag) (string, error)
	PatchTag(ctx context.Context, tagID string, metadata domain.TagMetadata) error
	FindTagByName(ctx context.Context, name string) (*domain.Tag, error)
	InsertAssociation(ctx context.Context, assoc NewAssociation) (string, error)
	PatchAssociation(ctx context.Context, associationID string, confidence float64, metadata domain.AssociationMetadata) error
	FindAssociation(ctx context.Context, tagID, entityID string, entityType domain.EntityType) (*domain.TagAssociation, error)
}

// RunRepository stores generation audit records.
type RunRepository interface {
	AppendRunRecord(ctx context.Context, run *domain.GenerationRun) (string, error)
	ListRunRecords(ctx context.Context, entityID string, limit int) ([]domain.GenerationRun, error)
}

// TagReader provides listings for diagnostics and the HTTP API.
type TagReader interface {
	ListTags(ctx context.Context) ([]domain.Tag, error)
	ListEntityTags(ctx context.Context, entityID string, entityType domain.EntityType) ([]domain.EntityTag, error)
}

// TagStore is implemented by every storage driver.
type TagStore interface {
	TagRepository
	RunRepository
	TagReader
	Ping(ctx context.Context) error
	Close() error
}

// Clock abstracts time.Now for deterministic tests.
type Clock func() time.Time
