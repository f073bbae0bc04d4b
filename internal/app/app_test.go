package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/portfolio-tagger/internal/api"
	"github.com/lueurxax/portfolio-tagger/internal/core/domain"
	"github.com/lueurxax/portfolio-tagger/internal/core/llm"
	"github.com/lueurxax/portfolio-tagger/internal/platform/config"
	"github.com/lueurxax/portfolio-tagger/internal/platform/observability"
	"github.com/lueurxax/portfolio-tagger/internal/storage/sqlite"
)

func newTestApp(t *testing.T) *App {
	t.Helper()

	cfg := &config.Config{
		StoreDriver:       config.StoreDriverSQLite,
		SQLitePath:        sqlite.MemoryPath,
		LLMProvider:       config.ProviderMock,
		TaggingMaxRetries: 2,
		TaggingBaseDelay:  time.Millisecond,
	}
	logger := zerolog.Nop()

	store, err := OpenStore(context.Background(), cfg, &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))

	application, err := New(context.Background(), cfg, store, &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.Close() })

	return application
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	logger := zerolog.Nop()

	_, err := OpenStore(context.Background(), &config.Config{StoreDriver: "mysql"}, &logger)
	require.Error(t, err)
}

func TestApp_GenerateAndList(t *testing.T) {
	application := newTestApp(t)
	ctx := context.Background()

	assert.Equal(t, llm.ProviderMock, application.provider.Name())

	entity := domain.Entity{ID: "post-1", Type: domain.EntityBlog}

	result, err := application.GenerateTags(ctx, entity, "Caching", "Redis in front of Postgres")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.TagCount)
	assert.Equal(t, 1, result.AssociationCount)

	runs, err := application.ListRuns(ctx, entity.ID, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, domain.RunStatusSuccess, runs[0].Status)

	all, err := application.ListTags(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	entityTags, err := application.ListEntityTags(ctx, entity)
	require.NoError(t, err)
	assert.Len(t, entityTags, 1)
}

func TestApp_ServeRoutes(t *testing.T) {
	application := newTestApp(t)

	handler := api.NewHandler(application.pipeline, application.diagnostics, application.logger)
	srv := httptest.NewServer(observability.NewServerWithAPI(application.store, 0, handler, application.logger).Handler())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/readyz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/api/tags/generate", "application/json",
		strings.NewReader(`{"blogId":"post-2","title":"Go","body":"Generics"}`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/entities/blog/post-2/tags")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
