package tagging

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lueurxax/portfolio-tagger/internal/core/domain"
	apperrors "github.com/lueurxax/portfolio-tagger/internal/core/errors"
	"github.com/lueurxax/portfolio-tagger/internal/platform/observability"
)

// Result is returned to the publishing workflow after a successful run.
type Result struct {
	Success          bool `json:"success"`
	TagCount         int  `json:"tagCount"`
	AssociationCount int  `json:"associationCount"`
}

// Pipeline generates and stores tags for one entity per call.
// Calls for different entities may run concurrently.
type Pipeline struct {
	generator *Generator
	persister *Persister
	logger    *zerolog.Logger
}

// NewPipeline wires a generator and persister into a pipeline.
func NewPipeline(generator *Generator, persister *Persister, logger *zerolog.Logger) *Pipeline {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Pipeline{generator: generator, persister: persister, logger: logger}
}

// GenerateTags tags a blog post.
func (p *Pipeline) GenerateTags(ctx context.Context, blogID, title, body string) (Result, error) {
	return p.GenerateEntityTags(ctx, domain.Entity{ID: blogID, Type: domain.EntityBlog}, title, body)
}

// GenerateEntityTags tags any taggable entity. It fails with ErrRetriesExhausted
// when no attempt produced a valid payload, and with the storage error when
// persistence stopped partway.
func (p *Pipeline) GenerateEntityTags(ctx context.Context, entity domain.Entity, title, body string) (Result, error) {
	if err := validateInput(entity, title, body); err != nil {
		return Result{}, err
	}

	log := p.logger.With().
		Str(logKeyEntityID, entity.ID).
		Str(logKeyEntityType, string(entity.Type)).
		Logger()

	payload, err := p.generator.Generate(ctx, entity, title, body)
	if err != nil {
		outcome := outcomeExhausted
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			outcome = outcomeCanceled
		}

		observability.GenerationRuns.WithLabelValues(outcome).Inc()
		log.Error().Err(err).Msg("tag generation failed")

		return Result{}, err
	}

	persisted, err := p.persister.Apply(ctx, payload, entity)
	if err != nil {
		observability.GenerationRuns.WithLabelValues(outcomePersistFailed).Inc()
		log.Error().Err(err).
			Int("tags_written", persisted.TagCount).
			Int("associations_written", persisted.AssociationCount).
			Msg("storing generated tags failed")

		return Result{}, fmt.Errorf("persist tags for %s %s: %w", entity.Type, entity.ID, err)
	}

	observability.GenerationRuns.WithLabelValues(outcomeSuccess).Inc()
	log.Info().
		Int("tags", persisted.TagCount).
		Int("associations", persisted.AssociationCount).
		Int("skipped_associations", persisted.SkippedAssociations).
		Msg("tags generated")

	return Result{
		Success:          true,
		TagCount:         persisted.TagCount,
		AssociationCount: persisted.AssociationCount,
	}, nil
}

func validateInput(entity domain.Entity, title, body string) error {
	if strings.TrimSpace(entity.ID) == "" {
		return fmt.Errorf("%w: entity id is required", apperrors.ErrInvalidInput)
	}

	if !entity.Type.Valid() {
		return fmt.Errorf("%w: unknown entity type %q", apperrors.ErrInvalidInput, entity.Type)
	}

	if strings.TrimSpace(title) == "" && strings.TrimSpace(body) == "" {
		return fmt.Errorf("%w: title or body is required", apperrors.ErrInvalidInput)
	}

	return nil
}
