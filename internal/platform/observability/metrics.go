package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LLMRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tagger_llm_requests_total",
		Help: "Total number of LLM requests",
	}, []string{"provider", "model", "status"})

	LLMTokensPrompt = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tagger_llm_tokens_prompt_total",
		Help: "Total number of prompt tokens used",
	}, []string{"provider", "model"})

	LLMTokensCompletion = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tagger_llm_tokens_completion_total",
		Help: "Total number of completion tokens used",
	}, []string{"provider", "model"})

	LLMRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tagger_llm_request_duration_seconds",
		Help:    "Duration of LLM requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})

	GenerationAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tagger_generation_attempts_total",
		Help: "Tag generation attempts by outcome",
	}, []string{"status"})

	GenerationAttemptDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tagger_generation_attempt_duration_seconds",
		Help:    "Duration of a single tag generation attempt",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
	})

	GenerationRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tagger_generation_runs_total",
		Help: "Tag generation pipeline invocations by outcome",
	}, []string{"outcome"})

	TagsUpserted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tagger_tags_upserted_total",
		Help: "Tags written by the generator, by operation",
	}, []string{"op"})

	AssociationsUpserted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tagger_associations_upserted_total",
		Help: "Tag associations written by the generator, by operation",
	}, []string{"op"})

	AssociationsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tagger_associations_skipped_total",
		Help: "Associations skipped because their tag could not be resolved",
	})

	RunLogFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tagger_run_log_failures_total",
		Help: "Generation run records that could not be persisted",
	})
)

// Label values shared by the metrics above.
const (
	StatusSuccess = "success"
	StatusError   = "error"

	OpInsert = "insert"
	OpUpdate = "update"
)
