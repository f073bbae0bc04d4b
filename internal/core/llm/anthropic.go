package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	apperrors "github.com/lueurxax/portfolio-tagger/internal/core/errors"
	"github.com/lueurxax/portfolio-tagger/internal/platform/config"
)

// anthropicProvider implements the Provider interface for Anthropic Claude.
// Claude has no enforced JSON mode here, so responses are marked unstructured
// and the caller scans them for the JSON object.
type anthropicProvider struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	logger      *zerolog.Logger
	rateLimiter *rate.Limiter
	recorder    UsageRecorder
}

// NewAnthropicProvider creates a new Anthropic LLM provider.
// Extra request options (base URL, retries) are passed through to the SDK client.
func NewAnthropicProvider(cfg *config.Config, recorder UsageRecorder, logger *zerolog.Logger, opts ...option.RequestOption) *anthropicProvider {
	clientOpts := append([]option.RequestOption{option.WithAPIKey(cfg.AnthropicAPIKey)}, opts...)

	return &anthropicProvider{
		client:      anthropic.NewClient(clientOpts...),
		model:       resolveAnthropicModel(cfg.LLMModel),
		maxTokens:   maxTokensOrDefault(cfg.LLMMaxTokens),
		logger:      logger,
		rateLimiter: newRateLimiter(cfg.RateLimitRPS),
		recorder:    recorder,
	}
}

// Name returns the provider identifier.
func (p *anthropicProvider) Name() ProviderName {
	return ProviderAnthropic
}

// resolveAnthropicModel returns the configured model if it names a Claude model.
func resolveAnthropicModel(model string) string {
	if strings.HasPrefix(model, modelPrefixClaude) {
		return model
	}

	return defaultAnthropicModel
}

// Complete implements Provider interface.
func (p *anthropicProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf(errRateLimiter, apperrors.ErrModelCall, err)
	}

	model := p.model
	if req.Model != "" {
		model = resolveAnthropicModel(req.Model)
	}

	maxTokens := p.maxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}

	start := time.Now()

	resp, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	})
	if err != nil {
		p.recorder.RecordTokenUsage(ProviderAnthropic, model, 0, 0, time.Since(start), false)

		return nil, fmt.Errorf(errCompletion, ProviderAnthropic, apperrors.ErrModelCall, err)
	}

	p.recorder.RecordTokenUsage(ProviderAnthropic, model, int(resp.Usage.InputTokens), int(resp.Usage.OutputTokens), time.Since(start), true)

	text, ok := firstTextBlock(resp)
	if !ok {
		return nil, fmt.Errorf(errCompletion, ProviderAnthropic, apperrors.ErrModelCall, apperrors.ErrEmptyResponse)
	}

	p.logger.Debug().Str(logKeyModel, model).Int("output_tokens", int(resp.Usage.OutputTokens)).Msg("anthropic completion received")

	return &Response{
		Text:             text,
		Model:            model,
		PromptTokens:     int(resp.Usage.InputTokens),
		CompletionTokens: int(resp.Usage.OutputTokens),
	}, nil
}

// firstTextBlock returns the first text content block of a message.
func firstTextBlock(resp *anthropic.Message) (string, bool) {
	for _, block := range resp.Content {
		if block.Type == contentTypeText {
			return block.Text, true
		}
	}

	return "", false
}

// Ensure anthropicProvider implements Provider interface.
var _ Provider = (*anthropicProvider)(nil)
