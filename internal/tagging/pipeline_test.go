package tagging

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/portfolio-tagger/internal/core/domain"
	apperrors "github.com/lueurxax/portfolio-tagger/internal/core/errors"
	"github.com/lueurxax/portfolio-tagger/internal/core/ports/mocks"
)

func TestPipeline_SuccessOnFirstTry(t *testing.T) {
	store := mocks.NewTagStore()
	pipeline, _ := newTestPipeline(alwaysText(cachingPayload), store)

	res, err := pipeline.GenerateTags(context.Background(), "b1", "Intro to Caching", "...")
	require.NoError(t, err)
	assert.Equal(t, Result{Success: true, TagCount: 1, AssociationCount: 1}, res)

	runs := store.Runs()
	require.Len(t, runs, 1)
	assert.Equal(t, domain.RunStatusSuccess, runs[0].Status)

	tags := store.Tags()
	require.Len(t, tags, 1)
	assert.Equal(t, "caching", tags[0].Name)

	assocs := store.Associations()
	require.Len(t, assocs, 1)
	assert.Equal(t, "b1", assocs[0].EntityID)
	assert.Equal(t, tags[0].ID, assocs[0].TagID)
	assert.InDelta(t, 0.95, assocs[0].Confidence, 1e-9)
}

func TestPipeline_UnresolvedTagReference(t *testing.T) {
	store := mocks.NewTagStore()
	raw := `{"tags":[{"name":"caching","description":"d","category":"technical","metadata":{"source":"claude","createdAt":1000}}],` +
		`"associations":[` +
		`{"tagName":"caching","confidence":0.9,"metadata":{"source":"claude","createdAt":1000,"context":"c"}},` +
		`{"tagName":"ghost","confidence":0.5,"metadata":{"source":"claude","createdAt":1000,"context":"c"}}]}`
	pipeline, _ := newTestPipeline(alwaysText(raw), store)

	res, err := pipeline.GenerateTags(context.Background(), "b1", "t", "b")
	require.NoError(t, err)
	assert.Equal(t, Result{Success: true, TagCount: 1, AssociationCount: 1}, res)
	assert.Len(t, store.Associations(), 1)
}

func TestPipeline_PermanentMalformedOutput(t *testing.T) {
	store := mocks.NewTagStore()
	provider := alwaysText("I cannot help with that.")
	pipeline, _ := newTestPipeline(provider, store)

	res, err := pipeline.GenerateTags(context.Background(), "b1", "t", "b")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrRetriesExhausted)
	assert.Equal(t, Result{}, res)

	runs := store.Runs()
	require.Len(t, runs, 5)

	for _, run := range runs {
		assert.Equal(t, domain.RunStatusError, run.Status)
	}

	assert.Empty(t, store.Tags())
}

func TestPipeline_IdempotentAcrossInvocations(t *testing.T) {
	store := mocks.NewTagStore()
	pipeline, _ := newTestPipeline(alwaysText(cachingPayload), store)

	for i := 0; i < 3; i++ {
		_, err := pipeline.GenerateTags(context.Background(), "b1", "Intro to Caching", "...")
		require.NoError(t, err)
	}

	tags := store.Tags()
	require.Len(t, tags, 1)
	assert.Equal(t, 3, *tags[0].Metadata.UsageCount)
	assert.Len(t, store.Associations(), 1)
	assert.Len(t, store.Runs(), 3)
}

func TestPipeline_ProjectEntity(t *testing.T) {
	store := mocks.NewTagStore()
	pipeline, _ := newTestPipeline(alwaysText(cachingPayload), store)

	entity := domain.Entity{ID: "p7", Type: domain.EntityProject}
	_, err := pipeline.GenerateEntityTags(context.Background(), entity, "Cache server", "")
	require.NoError(t, err)

	assocs := store.Associations()
	require.Len(t, assocs, 1)
	assert.Equal(t, domain.EntityProject, assocs[0].EntityType)
	assert.Equal(t, domain.EntityProject, store.Runs()[0].EntityType)
}

func TestPipeline_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		entity domain.Entity
		title  string
		body   string
	}{
		{name: "empty id", entity: domain.Entity{Type: domain.EntityBlog}, title: "t", body: "b"},
		{name: "blank id", entity: domain.Entity{ID: "  ", Type: domain.EntityBlog}, title: "t"},
		{name: "unknown type", entity: domain.Entity{ID: "x", Type: "video"}, title: "t"},
		{name: "no content", entity: domain.Entity{ID: "b1", Type: domain.EntityBlog}, title: " ", body: "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := mocks.NewTagStore()
			provider := alwaysText(cachingPayload)
			pipeline, _ := newTestPipeline(provider, store)

			_, err := pipeline.GenerateEntityTags(context.Background(), tt.entity, tt.title, tt.body)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
			assert.Zero(t, provider.callCount())
			assert.Empty(t, store.Runs())
		})
	}
}

func TestPipeline_ConcurrentRunsShareTags(t *testing.T) {
	store := mocks.NewTagStore()
	pipeline, _ := newTestPipeline(alwaysText(cachingPayload), store)

	const posts = 8

	errs := make(chan error, posts)
	for i := 0; i < posts; i++ {
		go func(id string) {
			_, err := pipeline.GenerateTags(context.Background(), id, "Intro to Caching", "...")
			errs <- err
		}("post-" + strings.Repeat("x", i+1))
	}

	for i := 0; i < posts; i++ {
		require.NoError(t, <-errs)
	}

	// Counter increments may interleave; only row uniqueness is guaranteed.
	assert.Len(t, store.Tags(), 1)
	assert.Len(t, store.Associations(), posts)
}
