// Package llm wraps the language model providers used for tag generation.
package llm

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	apperrors "github.com/lueurxax/portfolio-tagger/internal/core/errors"
	"github.com/lueurxax/portfolio-tagger/internal/platform/config"
)

// New builds the provider selected by LLM_PROVIDER.
// A provider without an API key falls back to the mock provider when APP_ENV
// is local and is an error otherwise.
func New(ctx context.Context, cfg *config.Config, recorder UsageRecorder, logger *zerolog.Logger) (Provider, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	if recorder == nil {
		recorder = NoopUsageRecorder()
	}

	if cfg.MissingProviderKey() {
		if !cfg.IsLocal() {
			return nil, fmt.Errorf("%w: no API key for provider %q", apperrors.ErrInvalidConfig, cfg.LLMProvider)
		}

		logger.Warn().Str(logKeyProvider, cfg.LLMProvider).Msg("no API key configured, using mock LLM provider")

		return NewMockProvider(), nil
	}

	switch cfg.LLMProvider {
	case config.ProviderAnthropic:
		return NewAnthropicProvider(cfg, recorder, logger), nil
	case config.ProviderOpenAI:
		return NewOpenAIProvider(cfg, recorder, logger), nil
	case config.ProviderGoogle:
		p, err := NewGoogleProvider(ctx, cfg, recorder, logger)
		if err != nil {
			return nil, err
		}

		return p, nil
	case config.ProviderMock:
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}
}

func newRateLimiter(rps int) *rate.Limiter {
	if rps <= 0 {
		rps = defaultRateRPS
	}

	return rate.NewLimiter(rate.Limit(float64(rps)), rateLimiterBurst)
}

func maxTokensOrDefault(n int64) int64 {
	if n <= 0 {
		return defaultMaxTokens
	}

	return n
}
