package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Route label values.
const (
	routeGenerate   = "generate"
	routeRuns       = "runs"
	routeEntityTags = "entity_tags"
	routeTags       = "tags"
)

var (
	// RequestsTotal counts API requests by route and HTTP status code.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tagger_api_requests_total",
		Help: "Total number of tagging API requests",
	}, []string{"route", "status"})

	// LatencyHistogram measures API request latency by route.
	LatencyHistogram = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tagger_api_latency_seconds",
		Help:    "Latency of tagging API requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)
