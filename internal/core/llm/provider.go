package llm

import "context"

// ProviderName identifies an LLM provider.
type ProviderName string

// Provider name constants.
const (
	ProviderAnthropic ProviderName = "anthropic"
	ProviderOpenAI    ProviderName = "openai"
	ProviderGoogle    ProviderName = "google"
	ProviderMock      ProviderName = "mock"
)

// Request is a single prompt sent to a provider.
type Request struct {
	Prompt    string
	Model     string
	MaxTokens int64

	// JSON asks the provider for its native JSON output mode when it has one.
	JSON bool
}

// Response is the text returned by a provider.
type Response struct {
	Text  string
	Model string

	// Structured is true when the provider enforced JSON output,
	// so Text can be decoded without scanning for a JSON object.
	Structured bool

	PromptTokens     int
	CompletionTokens int
}

// Provider defines the interface for LLM providers.
type Provider interface {
	// Name returns the provider identifier.
	Name() ProviderName

	// Complete sends the prompt and returns the model output.
	// Every failure wraps errors.ErrModelCall.
	Complete(ctx context.Context, req Request) (*Response, error)
}
