package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lueurxax/portfolio-tagger/internal/core/domain"
	apperrors "github.com/lueurxax/portfolio-tagger/internal/core/errors"
	"github.com/lueurxax/portfolio-tagger/internal/core/ports"
)

const tagColumns = `id, name, description, category, source, created_at, last_used_at, usage_count`

// InsertTag inserts a tag. A name collision returns ErrDuplicate.
func (db *DB) InsertTag(ctx context.Context, tag ports.NewTag) (string, error) {
	id := uuid.New()

	_, err := db.Pool.Exec(ctx, `
		INSERT INTO tags (id, name, description, category, source, created_at, last_used_at, usage_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, toUUID(id.String()), SanitizeUTF8(tag.Name), SanitizeUTF8(tag.Description), string(tag.Category),
		string(tag.Metadata.Source), toTimestamptz(tag.Metadata.CreatedAt),
		toTimestamptzPtr(tag.Metadata.LastUsedAt), toInt4Ptr(tag.Metadata.UsageCount))
	if err != nil {
		return "", fmt.Errorf("insert tag: %w", wrapUniqueViolation(err))
	}

	return id.String(), nil
}

// PatchTag replaces the metadata columns of a tag.
func (db *DB) PatchTag(ctx context.Context, tagID string, metadata domain.TagMetadata) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE tags
		SET source = $2,
			created_at = $3,
			last_used_at = $4,
			usage_count = $5,
			updated_at = NOW()
		WHERE id = $1
	`, toUUID(tagID), string(metadata.Source), toTimestamptz(metadata.CreatedAt),
		toTimestamptzPtr(metadata.LastUsedAt), toInt4Ptr(metadata.UsageCount))
	if err != nil {
		return fmt.Errorf("patch tag: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("patch tag %s: %w", tagID, apperrors.ErrNotFound)
	}

	return nil
}

// FindTagByName returns the tag with the exact name, or nil.
func (db *DB) FindTagByName(ctx context.Context, name string) (*domain.Tag, error) {
	row := db.Pool.QueryRow(ctx, `SELECT `+tagColumns+` FROM tags WHERE name = $1`, name)

	tag, err := scanTag(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil //nolint:nilnil // nil,nil indicates no tag with this name
		}

		return nil, fmt.Errorf("find tag by name: %w", err)
	}

	return tag, nil
}

// ListTags returns all tags ordered by name.
func (db *DB) ListTags(ctx context.Context) ([]domain.Tag, error) {
	rows, err := db.Pool.Query(ctx, `SELECT `+tagColumns+` FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var tags []domain.Tag

	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}

		tags = append(tags, *tag)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}

	return tags, nil
}

// InsertAssociation inserts a tag association. A (tag, entity) collision returns ErrDuplicate.
func (db *DB) InsertAssociation(ctx context.Context, assoc ports.NewAssociation) (string, error) {
	id := uuid.New()

	_, err := db.Pool.Exec(ctx, `
		INSERT INTO tag_associations (id, tag_id, entity_id, entity_type, confidence, source, created_at, context)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, toUUID(id.String()), toUUID(assoc.TagID), assoc.EntityID, string(assoc.EntityType), assoc.Confidence,
		string(assoc.Metadata.Source), toTimestamptz(assoc.Metadata.CreatedAt), SanitizeUTF8(assoc.Metadata.Context))
	if err != nil {
		return "", fmt.Errorf("insert association: %w", wrapUniqueViolation(err))
	}

	return id.String(), nil
}

// PatchAssociation overwrites confidence and metadata of an association.
func (db *DB) PatchAssociation(ctx context.Context, associationID string, confidence float64, metadata domain.AssociationMetadata) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE tag_associations
		SET confidence = $2,
			source = $3,
			created_at = $4,
			context = $5,
			updated_at = NOW()
		WHERE id = $1
	`, toUUID(associationID), confidence, string(metadata.Source), toTimestamptz(metadata.CreatedAt),
		SanitizeUTF8(metadata.Context))
	if err != nil {
		return fmt.Errorf("patch association: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("patch association %s: %w", associationID, apperrors.ErrNotFound)
	}

	return nil
}

// FindAssociation returns the association for the triple, or nil.
func (db *DB) FindAssociation(ctx context.Context, tagID, entityID string, entityType domain.EntityType) (*domain.TagAssociation, error) {
	row := db.Pool.QueryRow(ctx, `
		SELECT id, tag_id, entity_id, entity_type, confidence, source, created_at, context
		FROM tag_associations
		WHERE tag_id = $1 AND entity_id = $2 AND entity_type = $3
	`, toUUID(tagID), entityID, string(entityType))

	assoc, err := scanAssociation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil //nolint:nilnil // nil,nil indicates no association for this triple
		}

		return nil, fmt.Errorf("find association: %w", err)
	}

	return assoc, nil
}

// ListEntityTags returns the entity's associations joined with their tags, by descending confidence.
func (db *DB) ListEntityTags(ctx context.Context, entityID string, entityType domain.EntityType) ([]domain.EntityTag, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT t.id, t.name, t.description, t.category, t.source, t.created_at, t.last_used_at, t.usage_count,
			a.id, a.tag_id, a.entity_id, a.entity_type, a.confidence, a.source, a.created_at, a.context
		FROM tag_associations a
		JOIN tags t ON t.id = a.tag_id
		WHERE a.entity_id = $1 AND a.entity_type = $2
		ORDER BY a.confidence DESC, t.name
	`, entityID, string(entityType))
	if err != nil {
		return nil, fmt.Errorf("list entity tags: %w", err)
	}
	defer rows.Close()

	var out []domain.EntityTag

	for rows.Next() {
		var (
			tr tagRow
			ar associationRow
		)

		if err := rows.Scan(append(tr.dest(), ar.dest()...)...); err != nil {
			return nil, fmt.Errorf("scan entity tag: %w", err)
		}

		out = append(out, domain.EntityTag{Tag: tr.toDomain(), Association: ar.toDomain()})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entity tags: %w", err)
	}

	return out, nil
}

type tagRow struct {
	ID          pgtype.UUID
	Name        string
	Description string
	Category    string
	Source      string
	CreatedAt   pgtype.Timestamptz
	LastUsedAt  pgtype.Timestamptz
	UsageCount  pgtype.Int4
}

func (r *tagRow) dest() []any {
	return []any{&r.ID, &r.Name, &r.Description, &r.Category, &r.Source, &r.CreatedAt, &r.LastUsedAt, &r.UsageCount}
}

func (r *tagRow) toDomain() domain.Tag {
	return domain.Tag{
		ID:          fromUUID(r.ID),
		Name:        r.Name,
		Description: r.Description,
		Category:    domain.TagCategory(r.Category),
		Metadata: domain.TagMetadata{
			Source:     domain.Source(r.Source),
			CreatedAt:  fromTimestamptz(r.CreatedAt),
			LastUsedAt: fromTimestamptzPtr(r.LastUsedAt),
			UsageCount: fromInt4Ptr(r.UsageCount),
		},
	}
}

type associationRow struct {
	ID         pgtype.UUID
	TagID      pgtype.UUID
	EntityID   string
	EntityType string
	Confidence float64
	Source     string
	CreatedAt  pgtype.Timestamptz
	Context    string
}

func (r *associationRow) dest() []any {
	return []any{&r.ID, &r.TagID, &r.EntityID, &r.EntityType, &r.Confidence, &r.Source, &r.CreatedAt, &r.Context}
}

func (r *associationRow) toDomain() domain.TagAssociation {
	return domain.TagAssociation{
		ID:         fromUUID(r.ID),
		TagID:      fromUUID(r.TagID),
		EntityID:   r.EntityID,
		EntityType: domain.EntityType(r.EntityType),
		Confidence: r.Confidence,
		Metadata: domain.AssociationMetadata{
			Source:    domain.Source(r.Source),
			CreatedAt: fromTimestamptz(r.CreatedAt),
			Context:   r.Context,
		},
	}
}

func scanTag(row pgx.Row) (*domain.Tag, error) {
	var r tagRow
	if err := row.Scan(r.dest()...); err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with query context
	}

	tag := r.toDomain()

	return &tag, nil
}

func scanAssociation(row pgx.Row) (*domain.TagAssociation, error) {
	var r associationRow
	if err := row.Scan(r.dest()...); err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with query context
	}

	assoc := r.toDomain()

	return &assoc, nil
}
