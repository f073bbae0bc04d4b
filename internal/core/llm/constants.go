package llm

// Default models per provider. LLM_MODEL overrides them.
const (
	ModelClaudeSonnet    = "claude-3-5-sonnet-latest"
	ModelGPT4oMini       = "gpt-4o-mini"
	ModelGeminiFlashLite = "gemini-2.5-flash-lite"

	defaultAnthropicModel = ModelClaudeSonnet
	defaultOpenAIModel    = ModelGPT4oMini
	defaultGoogleModel    = ModelGeminiFlashLite
)

// Request defaults
const (
	defaultMaxTokens = 1024
	rateLimiterBurst = 5
	defaultRateRPS   = 1
)

// Error message templates
const (
	errRateLimiter = "rate limiter: %w: %w"
	errCompletion  = "%s completion: %w: %w"
)

// HTTP header values
const (
	contentTypeJSON = "application/json"
	contentTypeText = "text"
)

// Model mapping strings
const (
	modelPrefixClaude = "claude"
	modelPrefixGPT    = "gpt"
	modelPrefixO      = "o"
	modelPrefixGemini = "gemini"
)

// Log field keys
const (
	logKeyProvider = "provider"
	logKeyModel    = "model"
)

// Request status for metrics.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Mock provider output
const (
	mockTagName    = "portfolio"
	mockConfidence = 0.5
)
