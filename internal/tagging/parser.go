package tagging

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/lueurxax/portfolio-tagger/internal/core/domain"
	apperrors "github.com/lueurxax/portfolio-tagger/internal/core/errors"
)

// GeneratedTag is a validated tag proposed by the model.
type GeneratedTag struct {
	Name        string
	Description string
	Category    domain.TagCategory
	Source      domain.Source
	CreatedAt   time.Time
}

// GeneratedAssociation is a validated association proposed by the model.
// TagName is not guaranteed to match a tag of the same payload.
type GeneratedAssociation struct {
	TagName    string
	Confidence float64
	Source     domain.Source
	CreatedAt  time.Time
	Context    string
}

// Payload is the validated model output.
type Payload struct {
	Tags         []GeneratedTag
	Associations []GeneratedAssociation
}

// Wire shapes. Pointer fields distinguish a missing key from a zero value.
type rawPayload struct {
	Tags         []rawTag         `json:"tags" validate:"required,dive"`
	Associations []rawAssociation `json:"associations" validate:"required,dive"`
}

type rawTag struct {
	Name        *string         `json:"name" validate:"required"`
	Description *string         `json:"description" validate:"required"`
	Category    *string         `json:"category" validate:"required,oneof=technical topic language general"`
	Metadata    *rawTagMetadata `json:"metadata" validate:"required"`
}

type rawTagMetadata struct {
	Source    *string  `json:"source" validate:"required,eq=claude"`
	CreatedAt *float64 `json:"createdAt" validate:"required"`
}

type rawAssociation struct {
	TagName    *string                 `json:"tagName" validate:"required"`
	Confidence *float64                `json:"confidence" validate:"required,gte=0,lte=1"`
	Metadata   *rawAssociationMetadata `json:"metadata" validate:"required"`
}

type rawAssociationMetadata struct {
	Source    *string  `json:"source" validate:"required"`
	CreatedAt *float64 `json:"createdAt" validate:"required"`
	Context   *string  `json:"context" validate:"required"`
}

var payloadValidator = newPayloadValidator()

func newPayloadValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON key names in validation errors.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})

	return v
}

// ParseResponse decodes and validates raw model output.
// Unstructured output is scanned for the outermost JSON value first.
// Returns an error wrapping ErrParse when no JSON can be decoded and
// ErrSchemaValidation when the JSON does not match the tag payload.
func ParseResponse(raw string, structured bool) (*Payload, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrParse, apperrors.ErrEmptyResponse)
	}

	var payload rawPayload

	err := decodePayload(raw, structured, &payload)
	if err != nil {
		return nil, err
	}

	if err := payloadValidator.Struct(payload); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrSchemaValidation, err)
	}

	return payload.toPayload(), nil
}

func decodePayload(raw string, structured bool, out *rawPayload) error {
	if structured {
		err := classifyDecodeError(json.Unmarshal([]byte(raw), out))
		if err == nil || !errors.Is(err, apperrors.ErrParse) {
			return err
		}

		// Native JSON mode still occasionally wraps the object; scan like plain text.
		*out = rawPayload{}
	}

	return classifyDecodeError(json.Unmarshal([]byte(extractJSON(raw)), out))
}

func classifyDecodeError(err error) error {
	if err == nil {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Errorf("%w: %w", apperrors.ErrSchemaValidation, err)
	}

	return fmt.Errorf("%w: %w", apperrors.ErrParse, err)
}

// extractJSON returns the outermost JSON object in text, falling back to
// the outermost array. Text without either is returned unchanged.
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")

	if start != -1 && end != -1 && end > start {
		return text[start : end+1]
	}

	start = strings.Index(text, "[")
	end = strings.LastIndex(text, "]")

	if start != -1 && end != -1 && end > start {
		return text[start : end+1]
	}

	return text
}

func (p rawPayload) toPayload() *Payload {
	out := &Payload{
		Tags:         make([]GeneratedTag, 0, len(p.Tags)),
		Associations: make([]GeneratedAssociation, 0, len(p.Associations)),
	}

	for _, t := range p.Tags {
		out.Tags = append(out.Tags, GeneratedTag{
			Name:        *t.Name,
			Description: *t.Description,
			Category:    domain.TagCategory(*t.Category),
			Source:      domain.Source(*t.Metadata.Source),
			CreatedAt:   domain.FromUnixMilli(*t.Metadata.CreatedAt),
		})
	}

	for _, a := range p.Associations {
		out.Associations = append(out.Associations, GeneratedAssociation{
			TagName:    *a.TagName,
			Confidence: *a.Confidence,
			Source:     domain.Source(*a.Metadata.Source),
			CreatedAt:  domain.FromUnixMilli(*a.Metadata.CreatedAt),
			Context:    *a.Metadata.Context,
		})
	}

	return out
}
