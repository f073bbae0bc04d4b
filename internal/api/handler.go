// Package api serves the tagging HTTP endpoints mounted under /api/.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/portfolio-tagger/internal/core/domain"
	apperrors "github.com/lueurxax/portfolio-tagger/internal/core/errors"
	"github.com/lueurxax/portfolio-tagger/internal/tagging"
)

// Rate limiting constants for the generate endpoint.
const (
	rateLimitRequests = 10
	rateLimitBurst    = 5
	rateLimitWindow   = time.Minute
)

// Request limits.
const (
	maxRequestBodyBytes = 1 << 20
	defaultRunsLimit    = 50
)

// HTTP header constants.
const (
	headerContentType = "Content-Type"
	contentTypeJSON   = "application/json"
)

// TagGenerator runs the tag generation pipeline for one entity.
type TagGenerator interface {
	GenerateEntityTags(ctx context.Context, entity domain.Entity, title, body string) (tagging.Result, error)
}

// Diagnostics lists stored runs and tags.
type Diagnostics interface {
	ListRunRecords(ctx context.Context, entityID string, limit int) ([]domain.GenerationRun, error)
	ListEntityTags(ctx context.Context, entity domain.Entity) ([]domain.EntityTag, error)
	ListTags(ctx context.Context) ([]domain.Tag, error)
}

// Handler serves the tagging API.
type Handler struct {
	generator TagGenerator
	diag      Diagnostics
	logger    *zerolog.Logger
	mux       *http.ServeMux

	// IP-based rate limiting for generation requests
	limiter *clientLimiter
	proxies TrustedProxies
}

// Option configures a Handler.
type Option func(*Handler)

// WithTrustedProxies makes the handler honor forwarding headers from these networks.
func WithTrustedProxies(proxies TrustedProxies) Option {
	return func(h *Handler) {
		h.proxies = proxies
	}
}

// NewHandler creates a new API handler.
func NewHandler(generator TagGenerator, diag Diagnostics, logger *zerolog.Logger, opts ...Option) *Handler {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	h := &Handler{
		generator: generator,
		diag:      diag,
		logger:    logger,
		mux:       http.NewServeMux(),
		limiter:   newClientLimiter(),
	}

	for _, opt := range opts {
		opt(h)
	}

	h.mux.HandleFunc("POST /api/tags/generate", h.instrument(routeGenerate, h.handleGenerate))
	h.mux.HandleFunc("GET /api/runs", h.instrument(routeRuns, h.handleRuns))
	h.mux.HandleFunc("GET /api/entities/{type}/{id}/tags", h.instrument(routeEntityTags, h.handleEntityTags))
	h.mux.HandleFunc("GET /api/tags", h.instrument(routeTags, h.handleTags))

	return h
}

// ServeHTTP dispatches to the API routes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	h.mux.ServeHTTP(w, r)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *Handler) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next(rec, r)

		LatencyHistogram.WithLabelValues(route).Observe(time.Since(start).Seconds())
		RequestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	}
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if !h.limiter.allow(h.proxies.clientIP(r)) {
		h.writeError(w, http.StatusTooManyRequests, "too many generation requests, please wait")

		return
	}

	var req generateRequest

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	if err := dec.Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())

		return
	}

	entity := domain.Entity{ID: req.BlogID, Type: domain.EntityBlog}
	if req.EntityType != "" {
		entity.Type = domain.EntityType(req.EntityType)
	}

	result, err := h.generator.GenerateEntityTags(r.Context(), entity, req.Title, req.Body)
	if err != nil {
		h.writeGenerateError(w, entity, err)

		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) writeGenerateError(w http.ResponseWriter, entity domain.Entity, err error) {
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperrors.ErrRetriesExhausted):
		h.writeError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.logger.Error().Err(err).Str("entity_id", entity.ID).Msg("tag generation request failed")
		h.writeError(w, http.StatusInternalServerError, "tag generation failed")
	}
}

func (h *Handler) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunsLimit

	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")

			return
		}

		limit = parsed
	}

	runs, err := h.diag.ListRunRecords(r.Context(), r.URL.Query().Get("entityId"), limit)
	if err != nil {
		h.writeInternal(w, "list runs", err)

		return
	}

	h.writeJSON(w, http.StatusOK, RunDTOs(runs))
}

func (h *Handler) handleEntityTags(w http.ResponseWriter, r *http.Request) {
	entity := domain.Entity{
		ID:   r.PathValue("id"),
		Type: domain.EntityType(r.PathValue("type")),
	}

	tags, err := h.diag.ListEntityTags(r.Context(), entity)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidInput) {
			h.writeError(w, http.StatusBadRequest, err.Error())

			return
		}

		h.writeInternal(w, "list entity tags", err)

		return
	}

	h.writeJSON(w, http.StatusOK, EntityTagDTOs(tags))
}

func (h *Handler) handleTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.diag.ListTags(r.Context())
	if err != nil {
		h.writeInternal(w, "list tags", err)

		return
	}

	h.writeJSON(w, http.StatusOK, TagDTOs(tags))
}

func (h *Handler) writeInternal(w http.ResponseWriter, op string, err error) {
	h.logger.Error().Err(err).Str("op", op).Msg("API request failed")
	h.writeError(w, http.StatusInternalServerError, op+" failed")
}

func (h *Handler) writeError(w http.ResponseWriter, code int, message string) {
	h.writeJSON(w, code, errorResponse{Error: message})
}

func (h *Handler) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set(headerContentType, contentTypeJSON)
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode API response")
	}
}
