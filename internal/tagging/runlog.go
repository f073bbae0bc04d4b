package tagging

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/lueurxax/portfolio-tagger/internal/core/domain"
	"github.com/lueurxax/portfolio-tagger/internal/core/ports"
	"github.com/lueurxax/portfolio-tagger/internal/platform/observability"
)

// RunLogger appends one audit record per generation attempt.
// A failed append is logged and counted but never fails the attempt.
type RunLogger struct {
	repo   ports.RunRepository
	logger *zerolog.Logger
}

// NewRunLogger creates a RunLogger writing to repo.
func NewRunLogger(repo ports.RunRepository, logger *zerolog.Logger) *RunLogger {
	return &RunLogger{repo: repo, logger: logger}
}

// Record appends run and returns its id, or "" if the append failed.
func (l *RunLogger) Record(ctx context.Context, run *domain.GenerationRun) string {
	// Audit records are written even when the caller has given up.
	id, err := l.repo.AppendRunRecord(context.WithoutCancel(ctx), run)
	if err != nil {
		observability.RunLogFailures.Inc()
		l.logger.Error().Err(err).
			Str(logKeyEntityID, run.EntityID).
			Str(logKeyStatus, string(run.Status)).
			Int(logKeyAttempt, run.RetryCount+1).
			Msg("failed to append generation run record")

		return ""
	}

	return id
}
