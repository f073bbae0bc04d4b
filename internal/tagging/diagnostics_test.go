package tagging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/portfolio-tagger/internal/core/domain"
	apperrors "github.com/lueurxax/portfolio-tagger/internal/core/errors"
	"github.com/lueurxax/portfolio-tagger/internal/core/ports/mocks"
)

func TestDiagnostics(t *testing.T) {
	store := mocks.NewTagStore()
	pipeline, _ := newTestPipeline(alwaysText(cachingPayload), store)

	_, err := pipeline.GenerateTags(context.Background(), "b1", "Intro to Caching", "...")
	require.NoError(t, err)
	_, err = pipeline.GenerateTags(context.Background(), "b2", "More caching", "...")
	require.NoError(t, err)

	diag := NewDiagnostics(store, store)

	runs, err := diag.ListRunRecords(context.Background(), "", 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "b2", runs[0].EntityID, "newest first")

	runs, err = diag.ListRunRecords(context.Background(), "b1", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	runs, err = diag.ListRunRecords(context.Background(), "", 1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	tags, err := diag.ListTags(context.Background())
	require.NoError(t, err)
	require.Len(t, tags, 1)

	entityTags, err := diag.ListEntityTags(context.Background(), blogB1)
	require.NoError(t, err)
	require.Len(t, entityTags, 1)
	assert.Equal(t, "caching", entityTags[0].Tag.Name)

	_, err = diag.ListEntityTags(context.Background(), domain.Entity{ID: "b1", Type: "video"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
