package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	apperrors "github.com/lueurxax/portfolio-tagger/internal/core/errors"
)

// mockProvider implements the Provider interface without network access.
// It always answers with a small valid tag payload.
type mockProvider struct {
	now func() time.Time
}

// NewMockProvider creates a new mock LLM provider.
func NewMockProvider() *mockProvider {
	return &mockProvider{now: time.Now}
}

// Name returns the provider identifier.
func (p *mockProvider) Name() ProviderName {
	return ProviderMock
}

// Complete implements Provider interface.
func (p *mockProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf(errCompletion, ProviderMock, apperrors.ErrModelCall, err)
	}

	createdAt := p.now().UnixMilli()

	payload := map[string]any{
		"tags": []map[string]any{
			{
				"name":        mockTagName,
				"description": "Content published on the portfolio",
				"category":    "general",
				"metadata": map[string]any{
					"source":    "claude",
					"createdAt": createdAt,
				},
			},
		},
		"associations": []map[string]any{
			{
				"tagName":    mockTagName,
				"confidence": mockConfidence,
				"metadata": map[string]any{
					"source":    "claude",
					"createdAt": createdAt,
					"context":   "generated by the mock provider",
				},
			},
		},
	}

	out, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("mock completion: %w", err)
	}

	model := req.Model
	if model == "" {
		model = string(ProviderMock)
	}

	return &Response{
		Text:       string(out),
		Model:      model,
		Structured: true,
	}, nil
}

// Ensure mockProvider implements Provider interface.
var _ Provider = (*mockProvider)(nil)
