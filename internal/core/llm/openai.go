package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	apperrors "github.com/lueurxax/portfolio-tagger/internal/core/errors"
	"github.com/lueurxax/portfolio-tagger/internal/platform/config"
)

// openaiProvider implements the Provider interface for OpenAI chat completions.
// JSON requests use response_format=json_object, so output is structured.
type openaiProvider struct {
	client      *openai.Client
	model       string
	maxTokens   int64
	logger      *zerolog.Logger
	rateLimiter *rate.Limiter
	recorder    UsageRecorder
}

// NewOpenAIProvider creates a new OpenAI LLM provider.
func NewOpenAIProvider(cfg *config.Config, recorder UsageRecorder, logger *zerolog.Logger) *openaiProvider {
	clientCfg := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		clientCfg.BaseURL = cfg.OpenAIBaseURL
	}

	return &openaiProvider{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       resolveOpenAIModel(cfg.LLMModel),
		maxTokens:   maxTokensOrDefault(cfg.LLMMaxTokens),
		logger:      logger,
		rateLimiter: newRateLimiter(cfg.RateLimitRPS),
		recorder:    recorder,
	}
}

// Name returns the provider identifier.
func (p *openaiProvider) Name() ProviderName {
	return ProviderOpenAI
}

func resolveOpenAIModel(model string) string {
	if strings.HasPrefix(model, modelPrefixGPT) || strings.HasPrefix(model, modelPrefixO) {
		return model
	}

	return defaultOpenAIModel
}

// Complete implements Provider interface.
func (p *openaiProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf(errRateLimiter, apperrors.ErrModelCall, err)
	}

	model := p.model
	if req.Model != "" {
		model = resolveOpenAIModel(req.Model)
	}

	maxTokens := p.maxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}

	chatReq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: req.Prompt,
			},
		},
		MaxTokens: int(maxTokens),
	}

	if req.JSON {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	start := time.Now()

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		p.recorder.RecordTokenUsage(ProviderOpenAI, model, 0, 0, time.Since(start), false)

		return nil, fmt.Errorf(errCompletion, ProviderOpenAI, apperrors.ErrModelCall, err)
	}

	p.recorder.RecordTokenUsage(ProviderOpenAI, model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens, time.Since(start), true)

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf(errCompletion, ProviderOpenAI, apperrors.ErrModelCall, apperrors.ErrEmptyResponse)
	}

	content := resp.Choices[0].Message.Content
	p.logger.Debug().Str(logKeyModel, model).Int("completion_tokens", resp.Usage.CompletionTokens).Msg("openai completion received")

	return &Response{
		Text:             content,
		Model:            model,
		Structured:       req.JSON,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

// Ensure openaiProvider implements Provider interface.
var _ Provider = (*openaiProvider)(nil)
