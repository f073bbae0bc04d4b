package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	apperrors "github.com/lueurxax/portfolio-tagger/internal/core/errors"
	"github.com/lueurxax/portfolio-tagger/internal/platform/config"
)

// sanitizeUTF8 replaces invalid UTF-8 sequences with the replacement rune.
// Google's protobuf API rejects invalid UTF-8 and post bodies may be pasted from anywhere.
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}

	var builder strings.Builder
	builder.Grow(len(s))

	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			builder.WriteRune(utf8.RuneError)

			i++
		} else {
			builder.WriteRune(r)

			i += size
		}
	}

	return builder.String()
}

// googleProvider implements the Provider interface for Google Gemini.
type googleProvider struct {
	client      *genai.Client
	model       string
	maxTokens   int64
	logger      *zerolog.Logger
	rateLimiter *rate.Limiter
	recorder    UsageRecorder
}

// NewGoogleProvider creates a new Google Gemini LLM provider.
func NewGoogleProvider(ctx context.Context, cfg *config.Config, recorder UsageRecorder, logger *zerolog.Logger) (*googleProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GoogleAPIKey))
	if err != nil {
		return nil, fmt.Errorf("creating google genai client: %w", err)
	}

	return &googleProvider{
		client:      client,
		model:       resolveGoogleModel(cfg.LLMModel),
		maxTokens:   maxTokensOrDefault(cfg.LLMMaxTokens),
		logger:      logger,
		rateLimiter: newRateLimiter(cfg.RateLimitRPS),
		recorder:    recorder,
	}, nil
}

// Close closes the Google client.
func (p *googleProvider) Close() error {
	if p.client != nil {
		if err := p.client.Close(); err != nil {
			return fmt.Errorf("closing google genai client: %w", err)
		}
	}

	return nil
}

// Name returns the provider identifier.
func (p *googleProvider) Name() ProviderName {
	return ProviderGoogle
}

func resolveGoogleModel(model string) string {
	if strings.HasPrefix(model, modelPrefixGemini) {
		return model
	}

	return defaultGoogleModel
}

// Complete implements Provider interface.
func (p *googleProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf(errRateLimiter, apperrors.ErrModelCall, err)
	}

	model := p.model
	if req.Model != "" {
		model = resolveGoogleModel(req.Model)
	}

	maxTokens := p.maxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}

	genModel := p.client.GenerativeModel(model)
	genModel.SetMaxOutputTokens(int32(maxTokens)) //nolint:gosec // bounded by config

	if req.JSON {
		genModel.ResponseMIMEType = contentTypeJSON
	}

	start := time.Now()

	resp, err := genModel.GenerateContent(ctx, genai.Text(sanitizeUTF8(req.Prompt)))
	if err != nil {
		p.recorder.RecordTokenUsage(ProviderGoogle, model, 0, 0, time.Since(start), false)

		return nil, fmt.Errorf(errCompletion, ProviderGoogle, apperrors.ErrModelCall, err)
	}

	promptTokens, completionTokens := googleUsage(resp)
	p.recorder.RecordTokenUsage(ProviderGoogle, model, promptTokens, completionTokens, time.Since(start), true)

	text := extractGoogleResponseText(resp)
	if text == "" {
		return nil, fmt.Errorf(errCompletion, ProviderGoogle, apperrors.ErrModelCall, apperrors.ErrEmptyResponse)
	}

	p.logger.Debug().Str(logKeyModel, model).Int("completion_tokens", completionTokens).Msg("google completion received")

	return &Response{
		Text:             text,
		Model:            model,
		Structured:       req.JSON,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
	}, nil
}

func googleUsage(resp *genai.GenerateContentResponse) (int, int) {
	if resp == nil || resp.UsageMetadata == nil {
		return 0, 0
	}

	return int(resp.UsageMetadata.PromptTokenCount), int(resp.UsageMetadata.CandidatesTokenCount)
}

func extractGoogleResponseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var result strings.Builder

	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}

		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				result.WriteString(string(text))
			}
		}

		// Only the first candidate carries the answer.
		break
	}

	return result.String()
}

// Ensure googleProvider implements Provider interface.
var _ Provider = (*googleProvider)(nil)
