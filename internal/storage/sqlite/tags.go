package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/lueurxax/portfolio-tagger/internal/core/domain"
	apperrors "github.com/lueurxax/portfolio-tagger/internal/core/errors"
	"github.com/lueurxax/portfolio-tagger/internal/core/ports"
)

const tagColumns = `id, name, description, category, source, created_at, last_used_at, usage_count`

// InsertTag inserts a tag. A name collision returns ErrDuplicate.
func (d *DB) InsertTag(ctx context.Context, tag ports.NewTag) (string, error) {
	id := uuid.NewString()

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO tags (id, name, description, category, source, created_at, last_used_at, usage_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, id, tag.Name, tag.Description, string(tag.Category), string(tag.Metadata.Source),
		toMillis(tag.Metadata.CreatedAt), toMillisPtr(tag.Metadata.LastUsedAt), toNullInt(tag.Metadata.UsageCount))
	if err != nil {
		return "", fmt.Errorf("insert tag: %w", wrapUniqueViolation(err))
	}

	return id, nil
}

// PatchTag replaces the metadata columns of a tag.
func (d *DB) PatchTag(ctx context.Context, tagID string, metadata domain.TagMetadata) error {
	res, err := d.db.ExecContext(ctx, `
		UPDATE tags
		SET source = ?, created_at = ?, last_used_at = ?, usage_count = ?,
			updated_at = CAST(strftime('%s', 'now') AS INTEGER) * 1000
		WHERE id = ?
	`, string(metadata.Source), toMillis(metadata.CreatedAt), toMillisPtr(metadata.LastUsedAt),
		toNullInt(metadata.UsageCount), tagID)
	if err != nil {
		return fmt.Errorf("patch tag: %w", err)
	}

	return requireAffected(res, "patch tag", tagID)
}

// FindTagByName returns the tag with the exact name, or nil.
func (d *DB) FindTagByName(ctx context.Context, name string) (*domain.Tag, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+tagColumns+` FROM tags WHERE name = ?`, name)

	var r tagRow
	if err := row.Scan(r.dest()...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil //nolint:nilnil // nil,nil indicates no tag with this name
		}

		return nil, fmt.Errorf("find tag by name: %w", err)
	}

	tag := r.toDomain()

	return &tag, nil
}

// ListTags returns all tags ordered by name.
func (d *DB) ListTags(ctx context.Context) ([]domain.Tag, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT `+tagColumns+` FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var tags []domain.Tag

	for rows.Next() {
		var r tagRow
		if err := rows.Scan(r.dest()...); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}

		tags = append(tags, r.toDomain())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}

	return tags, nil
}

// InsertAssociation inserts a tag association. A (tag, entity) collision returns ErrDuplicate.
func (d *DB) InsertAssociation(ctx context.Context, assoc ports.NewAssociation) (string, error) {
	id := uuid.NewString()

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO tag_associations (id, tag_id, entity_id, entity_type, confidence, source, created_at, context)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, id, assoc.TagID, assoc.EntityID, string(assoc.EntityType), assoc.Confidence,
		string(assoc.Metadata.Source), toMillis(assoc.Metadata.CreatedAt), assoc.Metadata.Context)
	if err != nil {
		return "", fmt.Errorf("insert association: %w", wrapUniqueViolation(err))
	}

	return id, nil
}

// PatchAssociation overwrites confidence and metadata of an association.
func (d *DB) PatchAssociation(ctx context.Context, associationID string, confidence float64, metadata domain.AssociationMetadata) error {
	res, err := d.db.ExecContext(ctx, `
		UPDATE tag_associations
		SET confidence = ?, source = ?, created_at = ?, context = ?,
			updated_at = CAST(strftime('%s', 'now') AS INTEGER) * 1000
		WHERE id = ?
	`, confidence, string(metadata.Source), toMillis(metadata.CreatedAt), metadata.Context, associationID)
	if err != nil {
		return fmt.Errorf("patch association: %w", err)
	}

	return requireAffected(res, "patch association", associationID)
}

// FindAssociation returns the association for the triple, or nil.
func (d *DB) FindAssociation(ctx context.Context, tagID, entityID string, entityType domain.EntityType) (*domain.TagAssociation, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT id, tag_id, entity_id, entity_type, confidence, source, created_at, context
		FROM tag_associations
		WHERE tag_id = ? AND entity_id = ? AND entity_type = ?
	`, tagID, entityID, string(entityType))

	var r associationRow
	if err := row.Scan(r.dest()...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil //nolint:nilnil // nil,nil indicates no association for this triple
		}

		return nil, fmt.Errorf("find association: %w", err)
	}

	assoc := r.toDomain()

	return &assoc, nil
}

// ListEntityTags returns the entity's associations joined with their tags, by descending confidence.
func (d *DB) ListEntityTags(ctx context.Context, entityID string, entityType domain.EntityType) ([]domain.EntityTag, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.description, t.category, t.source, t.created_at, t.last_used_at, t.usage_count,
			a.id, a.tag_id, a.entity_id, a.entity_type, a.confidence, a.source, a.created_at, a.context
		FROM tag_associations a
		JOIN tags t ON t.id = a.tag_id
		WHERE a.entity_id = ? AND a.entity_type = ?
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

func requireAffected(res sql.Result, op, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}

	if n == 0 {
		return fmt.Errorf("%s %s: %w", op, id, apperrors.ErrNotFound)
	}

	return nil
}

type tagRow struct {
	ID          string
	Name        string
	Description string
	Category    string
	Source      string
	CreatedAt   sql.NullInt64
	LastUsedAt  sql.NullInt64
	UsageCount  sql.NullInt64
}

func (r *tagRow) dest() []any {
	return []any{&r.ID, &r.Name, &r.Description, &r.Category, &r.Source, &r.CreatedAt, &r.LastUsedAt, &r.UsageCount}
}

func (r *tagRow) toDomain() domain.Tag {
	return domain.Tag{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Category:    domain.TagCategory(r.Category),
		Metadata: domain.TagMetadata{
			Source:     domain.Source(r.Source),
			CreatedAt:  fromMillis(r.CreatedAt),
			LastUsedAt: fromMillisPtr(r.LastUsedAt),
			UsageCount: fromNullInt(r.UsageCount),
		},
	}
}

type associationRow struct {
	ID         string
	TagID      string
	EntityID   string
	EntityType string
	Confidence float64
	Source     string
	CreatedAt  sql.NullInt64
	Context    string
}

func (r *associationRow) dest() []any {
	return []any{&r.ID, &r.TagID, &r.EntityID, &r.EntityType, &r.Confidence, &r.Source, &r.CreatedAt, &r.Context}
}

func (r *associationRow) toDomain() domain.TagAssociation {
	return domain.TagAssociation{
		ID:         r.ID,
		TagID:      r.TagID,
		EntityID:   r.EntityID,
		EntityType: domain.EntityType(r.EntityType),
		Confidence: r.Confidence,
		Metadata: domain.AssociationMetadata{
			Source:    domain.Source(r.Source),
			CreatedAt: fromMillis(r.CreatedAt),
			Context:   r.Context,
		},
	}
}
