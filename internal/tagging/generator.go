// Package tagging generates tags for blog posts and projects with a language model
// and stores them together with scored tag associations.
package tagging

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/portfolio-tagger/internal/core/domain"
	apperrors "github.com/lueurxax/portfolio-tagger/internal/core/errors"
	"github.com/lueurxax/portfolio-tagger/internal/core/llm"
	"github.com/lueurxax/portfolio-tagger/internal/core/ports"
	"github.com/lueurxax/portfolio-tagger/internal/platform/observability"
)

// GeneratorConfig bounds the retry loop.
type GeneratorConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// Generator asks the model for a tag payload, retrying failed attempts.
type Generator struct {
	provider   llm.Provider
	runs       *RunLogger
	logger     *zerolog.Logger
	maxRetries int
	baseDelay  time.Duration

	sleep func(ctx context.Context, d time.Duration) error
	now   ports.Clock
}

// NewGenerator creates a Generator. Zero config values fall back to the defaults.
func NewGenerator(provider llm.Provider, runs ports.RunRepository, cfg GeneratorConfig, logger *zerolog.Logger) *Generator {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}

	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}

	return &Generator{
		provider:   provider,
		runs:       NewRunLogger(runs, logger),
		logger:     logger,
		maxRetries: cfg.MaxRetries,
		baseDelay:  cfg.BaseDelay,
		sleep:      sleepContext,
		now:        time.Now,
	}
}

// BackoffDelay returns the wait before the attempt following the n-th failure.
func (g *Generator) BackoffDelay(n int) time.Duration {
	return g.baseDelay * time.Duration(n)
}

// Generate runs up to MaxRetries attempts and returns the first valid payload.
// Every attempt appends exactly one run record. When all attempts fail the
// error wraps ErrRetriesExhausted and the last attempt's error.
func (g *Generator) Generate(ctx context.Context, entity domain.Entity, title, body string) (*Payload, error) {
	prompt := BuildPrompt(title, body)

	var lastErr error

	for n := 1; n <= g.maxRetries; n++ {
		payload, err := g.attempt(ctx, entity, prompt, n)
		if err == nil {
			return payload, nil
		}

		lastErr = err

		if !apperrors.IsRetryable(err) {
			return nil, err
		}

		if n == g.maxRetries {
			break
		}

		delay := g.BackoffDelay(n)
		g.logger.Warn().Err(err).
			Str(logKeyEntityID, entity.ID).
			Int(logKeyAttempt, n).
			Dur("backoff", delay).
			Msg("tag generation attempt failed, retrying")

		if err := g.sleep(ctx, delay); err != nil {
			return nil, fmt.Errorf("waiting before attempt %d: %w", n+1, err)
		}
	}

	return nil, fmt.Errorf("%w after %d attempts: %w", apperrors.ErrRetriesExhausted, g.maxRetries, lastErr)
}

func (g *Generator) attempt(ctx context.Context, entity domain.Entity, prompt string, n int) (*Payload, error) {
	start := g.now()

	var raw string

	resp, err := g.provider.Complete(ctx, llm.Request{Prompt: prompt, JSON: true})

	var payload *Payload

	if err == nil {
		raw = resp.Text
		payload, err = ParseResponse(resp.Text, resp.Structured)
	}

	elapsed := g.now().Sub(start)

	run := &domain.GenerationRun{
		EntityID:    entity.ID,
		EntityType:  entity.Type,
		Status:      domain.RunStatusSuccess,
		Prompt:      prompt,
		RawResponse: raw,
		RetryCount:  n - 1,
		Duration:    elapsed,
		Timestamp:   start,
	}

	status := observability.StatusSuccess
	if err != nil {
		run.Status = domain.RunStatusError
		run.Error = err.Error()
		status = observability.StatusError
	}

	g.runs.Record(ctx, run)

	observability.GenerationAttempts.WithLabelValues(status).Inc()
	observability.GenerationAttemptDuration.Observe(elapsed.Seconds())

	g.logger.Debug().
		Str(logKeyEntityID, entity.ID).
		Str(logKeyEntityType, string(entity.Type)).
		Str(logKeyProvider, string(g.provider.Name())).
		Int(logKeyAttempt, n).
		Str(logKeyStatus, string(run.Status)).
		Dur(logKeyDuration, elapsed).
		Msg("tag generation attempt finished")

	return payload, err
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
