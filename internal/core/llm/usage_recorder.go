package llm

import (
	"time"

	"github.com/lueurxax/portfolio-tagger/internal/platform/observability"
)

// UsageRecorder records token usage metrics for LLM requests.
// This interface allows for dependency injection and easier testing.
type UsageRecorder interface {
	RecordTokenUsage(provider ProviderName, model string, promptTokens, completionTokens int, elapsed time.Duration, success bool)
}

// metricsRecorder implements UsageRecorder with Prometheus counters.
type metricsRecorder struct{}

// NewUsageRecorder creates the Prometheus-backed UsageRecorder.
func NewUsageRecorder() UsageRecorder {
	return metricsRecorder{}
}

// RecordTokenUsage records token usage metrics for an LLM request.
func (metricsRecorder) RecordTokenUsage(provider ProviderName, model string, promptTokens, completionTokens int, elapsed time.Duration, success bool) {
	status := StatusSuccess
	if !success {
		status = StatusError
	}

	observability.LLMRequests.WithLabelValues(string(provider), model, status).Inc()
	observability.LLMRequestDuration.WithLabelValues(string(provider)).Observe(elapsed.Seconds())

	if promptTokens > 0 {
		observability.LLMTokensPrompt.WithLabelValues(string(provider), model).Add(float64(promptTokens))
	}

	if completionTokens > 0 {
		observability.LLMTokensCompletion.WithLabelValues(string(provider), model).Add(float64(completionTokens))
	}
}

// noopUsageRecorder is a no-op implementation for testing or when usage tracking is disabled.
type noopUsageRecorder struct{}

// NoopUsageRecorder returns a no-op implementation of UsageRecorder.
func NoopUsageRecorder() UsageRecorder {
	return noopUsageRecorder{}
}

// RecordTokenUsage does nothing (no-op implementation).
func (noopUsageRecorder) RecordTokenUsage(_ ProviderName, _ string, _, _ int, _ time.Duration, _ bool) {
	// No-op
}
