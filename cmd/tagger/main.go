package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/portfolio-tagger/internal/api"
	"github.com/lueurxax/portfolio-tagger/internal/app"
	"github.com/lueurxax/portfolio-tagger/internal/core/domain"
	"github.com/lueurxax/portfolio-tagger/internal/platform/config"
)

type options struct {
	mode       string
	entityID   string
	entityType string
	title      string
	body       string
	bodyFile   string
	limit      int
	migrate    bool
}

func main() {
	var opts options

	flag.StringVar(&opts.mode, "mode", "serve", "Run mode (serve, generate, runs, tags)")
	flag.StringVar(&opts.entityID, "blog", "", "Blog post or project ID")
	flag.StringVar(&opts.entityType, "entity-type", string(domain.EntityBlog), "Entity type (blog, project)")
	flag.StringVar(&opts.title, "title", "", "Post title (generate mode)")
	flag.StringVar(&opts.body, "body", "", "Post body (generate mode)")
	flag.StringVar(&opts.bodyFile, "body-file", "", "Read the post body from a file (generate mode)")
	flag.IntVar(&opts.limit, "limit", 0, "Maximum run records to list (runs mode)")
	flag.BoolVar(&opts.migrate, "migrate", true, "Apply schema migrations on startup")

	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := app.OpenStore(ctx, cfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open store")
	}
	defer store.Close()

	if opts.migrate {
		if err := store.Migrate(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	application, err := app.New(ctx, cfg, store, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize application")
	}
	defer application.Close()

	if err := runMode(ctx, application, opts); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info().Msg("application stopped")
			return
		}

		logger.Fatal().Err(err).Msg("application error")
	}
}

func newLogger(appEnv, level string) zerolog.Logger {
	var logger zerolog.Logger
	if appEnv == config.AppEnvLocal {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	if lvl, err := zerolog.ParseLevel(level); err == nil && level != "" {
		logger = logger.Level(lvl)
	}

	return logger
}

func runMode(ctx context.Context, application *app.App, opts options) error {
	entity := domain.Entity{ID: opts.entityID, Type: domain.EntityType(opts.entityType)}

	switch opts.mode {
	case "serve":
		return application.RunServe(ctx)
	case "generate":
		body := opts.body
		if opts.bodyFile != "" {
			data, err := os.ReadFile(opts.bodyFile)
			if err != nil {
				return fmt.Errorf("read body file: %w", err)
			}

			body = string(data)
		}

		result, err := application.GenerateTags(ctx, entity, opts.title, body)
		if err != nil {
			return err
		}

		return printJSON(result)
	case "runs":
		runs, err := application.ListRuns(ctx, opts.entityID, opts.limit)
		if err != nil {
			return err
		}

		return printJSON(api.RunDTOs(runs))
	case "tags":
		if entity.ID != "" {
			tags, err := application.ListEntityTags(ctx, entity)
			if err != nil {
				return err
			}

			return printJSON(api.EntityTagDTOs(tags))
		}

		tags, err := application.ListTags(ctx)
		if err != nil {
			return err
		}

		return printJSON(api.TagDTOs(tags))
	default:
		log.Fatalf("Usage: %s --mode=[serve|generate|runs|tags]", os.Args[0])

		return nil
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}

	return nil
}
