package api

import (
	"time"

	"github.com/lueurxax/portfolio-tagger/internal/core/domain"
)

type generateRequest struct {
	BlogID     string `json:"blogId"`
	EntityType string `json:"entityType,omitempty"`
	Title      string `json:"title"`
	Body       string `json:"body"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// TagMetadataDTO is the wire form of domain.TagMetadata. Times are Unix milliseconds.
type TagMetadataDTO struct {
	Source     string `json:"source"`
	CreatedAt  int64  `json:"createdAt,omitempty"`
	LastUsedAt int64  `json:"lastUsedAt,omitempty"`
	UsageCount *int   `json:"usageCount,omitempty"`
}

// TagDTO is the wire form of domain.Tag.
type TagDTO struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	Metadata    TagMetadataDTO `json:"metadata"`
}

// AssociationMetadataDTO is the wire form of domain.AssociationMetadata.
type AssociationMetadataDTO struct {
	Source    string `json:"source"`
	CreatedAt int64  `json:"createdAt,omitempty"`
	Context   string `json:"context"`
}

// EntityTagDTO is an association joined with its tag.
type EntityTagDTO struct {
	AssociationID string                 `json:"associationId"`
	Tag           TagDTO                 `json:"tag"`
	Confidence    float64                `json:"confidence"`
	Metadata      AssociationMetadataDTO `json:"metadata"`
}

// RunDTO is the wire form of domain.GenerationRun. Duration and timestamp are milliseconds.
type RunDTO struct {
	ID          string `json:"id"`
	EntityID    string `json:"entityId"`
	EntityType  string `json:"entityType"`
	Status      string `json:"status"`
	Prompt      string `json:"prompt"`
	RawResponse string `json:"rawResponse"`
	Error       string `json:"error,omitempty"`
	RetryCount  int    `json:"retryCount"`
	DurationMS  int64  `json:"duration"`
	Timestamp   int64  `json:"timestamp"`
}

func unixMilli(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}

	return t.UnixMilli()
}

func toTagDTO(t domain.Tag) TagDTO {
	dto := TagDTO{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Category:    string(t.Category),
		Metadata: TagMetadataDTO{
			Source:     string(t.Metadata.Source),
			CreatedAt:  unixMilli(t.Metadata.CreatedAt),
			UsageCount: t.Metadata.UsageCount,
		},
	}

	if t.Metadata.LastUsedAt != nil {
		dto.Metadata.LastUsedAt = unixMilli(*t.Metadata.LastUsedAt)
	}

	return dto
}

func toEntityTagDTO(et domain.EntityTag) EntityTagDTO {
	return EntityTagDTO{
		AssociationID: et.Association.ID,
		Tag:           toTagDTO(et.Tag),
		Confidence:    et.Association.Confidence,
		Metadata: AssociationMetadataDTO{
			Source:    string(et.Association.Metadata.Source),
			CreatedAt: unixMilli(et.Association.Metadata.CreatedAt),
			Context:   et.Association.Metadata.Context,
		},
	}
}

func toRunDTO(r domain.GenerationRun) RunDTO {
	return RunDTO{
		ID:          r.ID,
		EntityID:    r.EntityID,
		EntityType:  string(r.EntityType),
		Status:      string(r.Status),
		Prompt:      r.Prompt,
		RawResponse: r.RawResponse,
		Error:       r.Error,
		RetryCount:  r.RetryCount,
		DurationMS:  r.DurationMillis(),
		Timestamp:   unixMilli(r.Timestamp),
	}
}

// TagDTOs converts tags for JSON output.
func TagDTOs(tags []domain.Tag) []TagDTO {
	out := make([]TagDTO, 0, len(tags))
	for _, t := range tags {
		out = append(out, toTagDTO(t))
	}

	return out
}

// EntityTagDTOs converts entity tag listings for JSON output.
func EntityTagDTOs(tags []domain.EntityTag) []EntityTagDTO {
	out := make([]EntityTagDTO, 0, len(tags))
	for _, et := range tags {
		out = append(out, toEntityTagDTO(et))
	}

	return out
}

// RunDTOs converts run records for JSON output.
func RunDTOs(runs []domain.GenerationRun) []RunDTO {
	out := make([]RunDTO, 0, len(runs))
	for _, r := range runs {
		out = append(out, toRunDTO(r))
	}

	return out
}
