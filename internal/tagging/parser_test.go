package tagging

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/portfolio-tagger/internal/core/domain"
	apperrors "github.com/lueurxax/portfolio-tagger/internal/core/errors"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "pure_object", input: `{"key":"value"}`, want: `{"key":"value"}`},
		{name: "object_with_preamble", input: `Here: {"key":"value"} done.`, want: `{"key":"value"}`},
		{name: "markdown_wrapped_object", input: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "object_preferred_over_array", input: `[1] and {"b":2}`, want: `{"b":2}`},
		{name: "array_of_objects_yields_inner_object", input: `[{"a":1}]`, want: `{"a":1}`},
		{name: "pure_array", input: `[1,2]`, want: `[1,2]`},
		{name: "array_with_preamble", input: `Result: [1,2]`, want: `[1,2]`},
		{name: "nested_objects", input: `x {"a":{"b":1}} y`, want: `{"a":{"b":1}}`},
		{name: "no_json", input: "just some text", want: "just some text"},
		{name: "reversed_braces", input: "} nothing {", want: "} nothing {"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.input))
		})
	}
}

func TestParseResponse_Valid(t *testing.T) {
	payload, err := ParseResponse("Sure! Here are the tags:\n"+cachingPayload+"\nLet me know.", false)
	require.NoError(t, err)

	require.Len(t, payload.Tags, 1)
	tag := payload.Tags[0]
	assert.Equal(t, "caching", tag.Name)
	assert.Equal(t, "...", tag.Description)
	assert.Equal(t, domain.CategoryTechnical, tag.Category)
	assert.Equal(t, domain.SourceModel, tag.Source)
	assert.Equal(t, time.UnixMilli(1000).UTC(), tag.CreatedAt)

	require.Len(t, payload.Associations, 1)
	assoc := payload.Associations[0]
	assert.Equal(t, "caching", assoc.TagName)
	assert.InDelta(t, 0.95, assoc.Confidence, 1e-9)
	assert.Equal(t, "main topic", assoc.Context)
}

func TestParseResponse_OutOfRangeCreatedAtIsUnset(t *testing.T) {
	for _, createdAt := range []string{"1e16", "1e20"} {
		t.Run(createdAt, func(t *testing.T) {
			raw := strings.ReplaceAll(cachingPayload, `"createdAt":1000`, `"createdAt":`+createdAt)

			payload, err := ParseResponse(raw, true)
			require.NoError(t, err)

			require.Len(t, payload.Tags, 1)
			assert.True(t, payload.Tags[0].CreatedAt.IsZero())
			require.Len(t, payload.Associations, 1)
			assert.True(t, payload.Associations[0].CreatedAt.IsZero())
		})
	}
}

func TestParseResponse_StructuredSkipsScan(t *testing.T) {
	payload, err := ParseResponse(cachingPayload, true)
	require.NoError(t, err)
	assert.Len(t, payload.Tags, 1)

	// Structured output wrapped in prose still decodes through the scan fallback.
	payload, err = ParseResponse("```json\n"+cachingPayload+"\n```", true)
	require.NoError(t, err)
	assert.Len(t, payload.Associations, 1)
}

func TestParseResponse_EmptyArrays(t *testing.T) {
	payload, err := ParseResponse(`{"tags":[],"associations":[]}`, false)
	require.NoError(t, err)
	assert.Empty(t, payload.Tags)
	assert.Empty(t, payload.Associations)
}

func TestParseResponse_BoundaryConfidence(t *testing.T) {
	for _, c := range []string{"0", "1", "0.0", "1.0"} {
		raw := strings.Replace(cachingPayload, `"confidence":0.95`, `"confidence":`+c, 1)

		_, err := ParseResponse(raw, false)
		assert.NoError(t, err, "confidence %s", c)
	}
}

func TestParseResponse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{name: "empty", raw: "   ", wantErr: apperrors.ErrParse},
		{name: "refusal", raw: "I cannot help with that.", wantErr: apperrors.ErrParse},
		{name: "truncated", raw: `{"tags":[{"name":"x"`, wantErr: apperrors.ErrParse},
		{name: "trailing comma", raw: `{"tags":[],}`, wantErr: apperrors.ErrParse},
		{name: "top level array", raw: `[{"name":"x"}]`, wantErr: apperrors.ErrSchemaValidation},
		{name: "missing tags", raw: `{"associations":[]}`, wantErr: apperrors.ErrSchemaValidation},
		{name: "missing associations", raw: `{"tags":[]}`, wantErr: apperrors.ErrSchemaValidation},
		{name: "null tags", raw: `{"tags":null,"associations":[]}`, wantErr: apperrors.ErrSchemaValidation},
		{name: "tags not array", raw: `{"tags":{},"associations":[]}`, wantErr: apperrors.ErrSchemaValidation},
		{
			name:    "confidence above one",
			raw:     strings.Replace(cachingPayload, `"confidence":0.95`, `"confidence":1.5`, 1),
			wantErr: apperrors.ErrSchemaValidation,
		},
		{
			name:    "confidence below zero",
			raw:     strings.Replace(cachingPayload, `"confidence":0.95`, `"confidence":-0.1`, 1),
			wantErr: apperrors.ErrSchemaValidation,
		},
		{
			name:    "confidence as string",
			raw:     strings.Replace(cachingPayload, `"confidence":0.95`, `"confidence":"high"`, 1),
			wantErr: apperrors.ErrSchemaValidation,
		},
		{
			name:    "missing confidence",
			raw:     strings.Replace(cachingPayload, `"confidence":0.95,`, ``, 1),
			wantErr: apperrors.ErrSchemaValidation,
		},
		{
			name:    "unknown category",
			raw:     strings.Replace(cachingPayload, `"category":"technical"`, `"category":"misc"`, 1),
			wantErr: apperrors.ErrSchemaValidation,
		},
		{
			name:    "tag source not model",
			raw:     strings.Replace(cachingPayload, `"metadata":{"source":"claude","createdAt":1000}}`, `"metadata":{"source":"manual","createdAt":1000}}`, 1),
			wantErr: apperrors.ErrSchemaValidation,
		},
		{
			name:    "createdAt as string",
			raw:     strings.Replace(cachingPayload, `"createdAt":1000}}`, `"createdAt":"yesterday"}}`, 1),
			wantErr: apperrors.ErrSchemaValidation,
		},
		{
			name:    "missing tag metadata",
			raw:     `{"tags":[{"name":"a","description":"b","category":"topic"}],"associations":[]}`,
			wantErr: apperrors.ErrSchemaValidation,
		},
		{
			name:    "missing tag name",
			raw:     `{"tags":[{"description":"b","category":"topic","metadata":{"source":"claude","createdAt":1}}],"associations":[]}`,
			wantErr: apperrors.ErrSchemaValidation,
		},
		{
			name:    "name as number",
			raw:     `{"tags":[{"name":5,"description":"b","category":"topic","metadata":{"source":"claude","createdAt":1}}],"associations":[]}`,
			wantErr: apperrors.ErrSchemaValidation,
		},
		{
			name:    "missing association context",
			raw:     strings.Replace(cachingPayload, `,"context":"main topic"`, ``, 1),
			wantErr: apperrors.ErrSchemaValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := ParseResponse(tt.raw, false)
			require.Error(t, err)
			assert.Nil(t, payload)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, apperrors.IsRetryable(err))
		})
	}
}

func TestParseResponse_UnresolvedReferenceIsStructurallyValid(t *testing.T) {
	raw := strings.Replace(cachingPayload, `"tagName":"caching"`, `"tagName":"missing"`, 1)

	payload, err := ParseResponse(raw, false)
	require.NoError(t, err)
	assert.Equal(t, "missing", payload.Associations[0].TagName)
}
