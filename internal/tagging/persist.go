package tagging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/unicode/norm"

	"github.com/lueurxax/portfolio-tagger/internal/core/domain"
	apperrors "github.com/lueurxax/portfolio-tagger/internal/core/errors"
	"github.com/lueurxax/portfolio-tagger/internal/core/ports"
	"github.com/lueurxax/portfolio-tagger/internal/platform/observability"
)

// PersistResult summarizes what Apply wrote.
type PersistResult struct {
	TagCount            int
	AssociationCount    int
	SkippedAssociations int
}

// Persister upserts a validated payload into the tag store.
// Tags are written before associations; nothing is rolled back on failure.
type Persister struct {
	repo   ports.TagRepository
	logger *zerolog.Logger
	now    ports.Clock
}

// NewPersister creates a Persister writing through repo.
func NewPersister(repo ports.TagRepository, logger *zerolog.Logger) *Persister {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Persister{repo: repo, logger: logger, now: time.Now}
}

// NormalizeTagName trims and NFC-normalizes a tag name so lookups match
// regardless of how the model composed the characters.
func NormalizeTagName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// Apply upserts payload tags by name, then the associations to entity.
// Associations naming a tag absent from payload are skipped.
func (p *Persister) Apply(ctx context.Context, payload *Payload, entity domain.Entity) (PersistResult, error) {
	var result PersistResult

	tagIDs := make(map[string]string, len(payload.Tags))

	for _, tag := range payload.Tags {
		name := NormalizeTagName(tag.Name)
		if name == "" {
			p.logger.Warn().Str(logKeyEntityID, entity.ID).Msg("skipping tag with empty name")
			continue
		}

		// A name proposed twice in one payload counts as one use.
		if _, seen := tagIDs[name]; seen {
			continue
		}

		id, err := p.upsertTag(ctx, name, tag)
		if err != nil {
			return result, err
		}

		tagIDs[name] = id
		result.TagCount++
	}

	for _, assoc := range payload.Associations {
		tagID, ok := tagIDs[NormalizeTagName(assoc.TagName)]
		if !ok {
			result.SkippedAssociations++
			observability.AssociationsSkipped.Inc()
			p.logger.Error().
				Err(apperrors.ErrUnresolvedTagReference).
				Str(logKeyEntityID, entity.ID).
				Str(logKeyTag, assoc.TagName).
				Msg("skipping association")

			continue
		}

		if err := p.upsertAssociation(ctx, tagID, entity, assoc); err != nil {
			return result, err
		}

		result.AssociationCount++
	}

	return result, nil
}

func (p *Persister) upsertTag(ctx context.Context, name string, tag GeneratedTag) (string, error) {
	existing, err := p.repo.FindTagByName(ctx, name)
	if err != nil {
		return "", fmt.Errorf("find tag %q: %w", name, err)
	}

	if existing == nil {
		id, err := p.insertTag(ctx, name, tag)
		if err == nil {
			return id, nil
		}

		if !errors.Is(err, apperrors.ErrDuplicate) {
			return "", err
		}

		// Lost an insert race; the unique index tells us the row now exists.
		existing, err = p.repo.FindTagByName(ctx, name)
		if err != nil {
			return "", fmt.Errorf("find tag %q after duplicate insert: %w", name, err)
		}

		if existing == nil {
			return "", fmt.Errorf("tag %q reported duplicate but not found: %w", name, apperrors.ErrNotFound)
		}
	}

	if err := p.repo.PatchTag(ctx, existing.ID, p.refreshTagMetadata(existing.Metadata, tag)); err != nil {
		return "", fmt.Errorf("patch tag %q: %w", name, err)
	}

	observability.TagsUpserted.WithLabelValues(observability.OpUpdate).Inc()

	return existing.ID, nil
}

func (p *Persister) insertTag(ctx context.Context, name string, tag GeneratedTag) (string, error) {
	now := p.now()
	usage := 1

	id, err := p.repo.InsertTag(ctx, ports.NewTag{
		Name:        name,
		Description: tag.Description,
		Category:    tag.Category,
		Metadata: domain.TagMetadata{
			Source:     tag.Source,
			CreatedAt:  orNow(tag.CreatedAt, now),
			LastUsedAt: &now,
			UsageCount: &usage,
		},
	})
	if err != nil {
		return "", fmt.Errorf("insert tag %q: %w", name, err)
	}

	observability.TagsUpserted.WithLabelValues(observability.OpInsert).Inc()

	return id, nil
}

// refreshTagMetadata keeps the original source and creation time when set,
// stamps lastUsedAt and bumps the usage counter.
func (p *Persister) refreshTagMetadata(current domain.TagMetadata, tag GeneratedTag) domain.TagMetadata {
	now := p.now()

	updated := domain.TagMetadata{
		Source:     current.Source,
		CreatedAt:  current.CreatedAt,
		LastUsedAt: &now,
	}

	if updated.Source == "" {
		updated.Source = tag.Source
	}

	if updated.CreatedAt.IsZero() {
		updated.CreatedAt = orNow(tag.CreatedAt, now)
	}

	usage := 1
	if current.UsageCount != nil {
		usage = *current.UsageCount + 1
	}

	updated.UsageCount = &usage

	return updated
}

func (p *Persister) upsertAssociation(ctx context.Context, tagID string, entity domain.Entity, assoc GeneratedAssociation) error {
	metadata := domain.AssociationMetadata{
		Source:    assoc.Source,
		CreatedAt: orNow(assoc.CreatedAt, p.now()),
		Context:   assoc.Context,
	}

	existing, err := p.repo.FindAssociation(ctx, tagID, entity.ID, entity.Type)
	if err != nil {
		return fmt.Errorf("find association %s/%s: %w", tagID, entity.ID, err)
	}

	if existing == nil {
		_, err = p.repo.InsertAssociation(ctx, ports.NewAssociation{
			TagID:      tagID,
			EntityID:   entity.ID,
			EntityType: entity.Type,
			Confidence: assoc.Confidence,
			Metadata:   metadata,
		})
		if err == nil {
			observability.AssociationsUpserted.WithLabelValues(observability.OpInsert).Inc()

			return nil
		}

		if !errors.Is(err, apperrors.ErrDuplicate) {
			return fmt.Errorf("insert association %s/%s: %w", tagID, entity.ID, err)
		}

		existing, err = p.repo.FindAssociation(ctx, tagID, entity.ID, entity.Type)
		if err != nil {
			return fmt.Errorf("find association %s/%s after duplicate insert: %w", tagID, entity.ID, err)
		}

		if existing == nil {
			return fmt.Errorf("association %s/%s reported duplicate but not found: %w", tagID, entity.ID, apperrors.ErrNotFound)
		}
	}

	if err := p.repo.PatchAssociation(ctx, existing.ID, assoc.Confidence, metadata); err != nil {
		return fmt.Errorf("patch association %s: %w", existing.ID, err)
	}

	observability.AssociationsUpserted.WithLabelValues(observability.OpUpdate).Inc()

	return nil
}

func orNow(t, now time.Time) time.Time {
	if t.IsZero() {
		return now
	}

	return t
}
