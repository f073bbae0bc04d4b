package api

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/lueurxax/portfolio-tagger/internal/core/domain"
)

func TestRunDTOs_WireShape(t *testing.T) {
	ts := time.UnixMilli(1_700_000_000_000).UTC()

	out, err := json.Marshal(RunDTOs([]domain.GenerationRun{{
		ID:         "run-1",
		EntityID:   "post-1",
		EntityType: domain.EntityBlog,
		Status:     domain.RunStatusError,
		Error:      "model call failed",
		RetryCount: 2,
		Duration:   1500 * time.Millisecond,
		Timestamp:  ts,
	}}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got []map[string]any
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}

	want := map[string]any{
		"entityId":   "post-1",
		"entityType": "blog",
		"retryCount": float64(2),
		"duration":   float64(1500),
		"timestamp":  float64(ts.UnixMilli()),
		"error":      "model call failed",
	}

	for key, val := range want {
		if got[0][key] != val {
			t.Errorf("%s = %v, want %v", key, got[0][key], val)
		}
	}

	if _, ok := got[0]["Duration"]; ok {
		t.Error("unexpected Go field name in output")
	}
}

func TestTagDTOs_Empty(t *testing.T) {
	out, err := json.Marshal(TagDTOs(nil))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	if string(out) != "[]" {
		t.Errorf("TagDTOs(nil) = %s, want []", out)
	}
}

func TestEntityTagDTOs_NestsTag(t *testing.T) {
	created := time.UnixMilli(1000).UTC()

	dtos := EntityTagDTOs([]domain.EntityTag{{
		Tag: domain.Tag{ID: "t1", Name: "caching", Category: domain.CategoryTechnical},
		Association: domain.TagAssociation{
			ID:         "a1",
			Confidence: 0.8,
			Metadata:   domain.AssociationMetadata{Source: domain.SourceModel, CreatedAt: created, Context: "main topic"},
		},
	}})

	if len(dtos) != 1 {
		t.Fatalf("len = %d, want 1", len(dtos))
	}

	if dtos[0].Tag.Name != "caching" || dtos[0].AssociationID != "a1" {
		t.Errorf("unexpected dto %+v", dtos[0])
	}

	if dtos[0].Metadata.CreatedAt != 1000 {
		t.Errorf("createdAt = %d, want 1000", dtos[0].Metadata.CreatedAt)
	}
}
