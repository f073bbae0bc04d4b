// Package app provides the application bootstrap and runtime orchestration.
//
// The App type wires storage, the language model provider and the tagging
// pipeline together and exposes the operational modes:
//
//   - Serve: HTTP server with health, metrics and the tagging API
//   - Generate: one tag generation run for a single post or project
//   - Runs / Tags: read-only diagnostics over stored data
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/lueurxax/portfolio-tagger/internal/api"
	"github.com/lueurxax/portfolio-tagger/internal/core/domain"
	apperrors "github.com/lueurxax/portfolio-tagger/internal/core/errors"
	"github.com/lueurxax/portfolio-tagger/internal/core/llm"
	"github.com/lueurxax/portfolio-tagger/internal/core/ports"
	"github.com/lueurxax/portfolio-tagger/internal/platform/config"
	"github.com/lueurxax/portfolio-tagger/internal/platform/observability"
	db "github.com/lueurxax/portfolio-tagger/internal/storage"
	"github.com/lueurxax/portfolio-tagger/internal/storage/sqlite"
	"github.com/lueurxax/portfolio-tagger/internal/tagging"
)

// Store is a tag store that can apply its own schema migrations.
type Store interface {
	ports.TagStore
	Migrate(ctx context.Context) error
}

// OpenStore connects to the store selected by STORE_DRIVER.
func OpenStore(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (Store, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		poolOpts := db.PoolOptions{
			MaxConns:          cfg.DBMaxConnections,
			MinConns:          cfg.DBMinConnections,
			MaxConnIdleTime:   cfg.DBMaxConnIdleTime,
			MaxConnLifetime:   cfg.DBMaxConnLifetime,
			HealthCheckPeriod: cfg.DBHealthCheckPeriod,
		}

		store, err := db.NewWithOptions(ctx, cfg.PostgresDSN, poolOpts, logger)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}

		return store, nil
	case config.StoreDriverSQLite:
		store, err := sqlite.Open(cfg.SQLitePath, logger)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}

		return store, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// App holds the application dependencies and provides methods to run different modes.
type App struct {
	cfg      *config.Config
	store    Store
	logger   *zerolog.Logger
	provider llm.Provider

	pipeline    *tagging.Pipeline
	diagnostics *tagging.Diagnostics
}

// New wires the tagging pipeline over an open store.
func New(ctx context.Context, cfg *config.Config, store Store, logger *zerolog.Logger) (*App, error) {
	provider, err := llm.New(ctx, cfg, llm.NewUsageRecorder(), logger)
	if err != nil {
		return nil, fmt.Errorf("init llm provider: %w", err)
	}

	return newWithProvider(cfg, store, provider, logger), nil
}

func newWithProvider(cfg *config.Config, store Store, provider llm.Provider, logger *zerolog.Logger) *App {
	generator := tagging.NewGenerator(provider, store, tagging.GeneratorConfig{
		MaxRetries: cfg.TaggingMaxRetries,
		BaseDelay:  cfg.TaggingBaseDelay,
	}, logger)

	persister := tagging.NewPersister(store, logger)

	return &App{
		cfg:         cfg,
		store:       store,
		logger:      logger,
		provider:    provider,
		pipeline:    tagging.NewPipeline(generator, persister, logger),
		diagnostics: tagging.NewDiagnostics(store, store),
	}
}

// Close releases the provider client when it holds one.
func (a *App) Close() error {
	if closer, ok := a.provider.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			return fmt.Errorf("close llm provider: %w", err)
		}
	}

	return nil
}

// RunServe starts the HTTP server and blocks until ctx is canceled.
func (a *App) RunServe(ctx context.Context) error {
	proxies, err := api.ParseTrustedProxies(a.cfg.TrustedProxies)
	if err != nil {
		return fmt.Errorf("%w: TRUSTED_PROXIES: %w", apperrors.ErrInvalidConfig, err)
	}

	handler := api.NewHandler(a.pipeline, a.diagnostics, a.logger, api.WithTrustedProxies(proxies))
	srv := observability.NewServerWithAPI(a.store, a.cfg.HTTPPort, handler, a.logger)

	a.logger.Info().
		Str("provider", string(a.provider.Name())).
		Str("store", a.cfg.StoreDriver).
		Msg("tagging service starting")

	return srv.Start(ctx)
}

// GenerateTags runs one generation for the given entity.
func (a *App) GenerateTags(ctx context.Context, entity domain.Entity, title, body string) (tagging.Result, error) {
	result, err := a.pipeline.GenerateEntityTags(ctx, entity, title, body)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return result, err
		}

		return result, fmt.Errorf("generate tags for %s/%s: %w", entity.Type, entity.ID, err)
	}

	return result, nil
}

// ListRuns returns recent generation runs, optionally for one entity.
func (a *App) ListRuns(ctx context.Context, entityID string, limit int) ([]domain.GenerationRun, error) {
	return a.diagnostics.ListRunRecords(ctx, entityID, limit)
}

// ListTags returns every stored tag.
func (a *App) ListTags(ctx context.Context) ([]domain.Tag, error) {
	return a.diagnostics.ListTags(ctx)
}

// ListEntityTags returns the tags associated with one entity.
func (a *App) ListEntityTags(ctx context.Context, entity domain.Entity) ([]domain.EntityTag, error) {
	return a.diagnostics.ListEntityTags(ctx, entity)
}
