package domain

import "time"

// TagCategory classifies a tag.
type TagCategory string

// Tag category constants.
const (
	CategoryTechnical TagCategory = "technical"
	CategoryTopic     TagCategory = "topic"
	CategoryLanguage  TagCategory = "language"
	CategoryGeneral   TagCategory = "general"
)

// TagCategories lists every allowed category in prompt order.
var TagCategories = []TagCategory{CategoryTechnical, CategoryTopic, CategoryLanguage, CategoryGeneral}

// Valid reports whether c is one of the allowed categories.
func (c TagCategory) Valid() bool {
	switch c {
	case CategoryTechnical, CategoryTopic, CategoryLanguage, CategoryGeneral:
		return true
	default:
		return false
	}
}

// Source records who created a tag or association.
type Source string

// Source constants. SourceModel is the literal the model is asked to emit.
const (
	SourceModel  Source = "claude"
	SourceManual Source = "manual"
)

// EntityType identifies the kind of content a tag is attached to.
type EntityType string

// Entity type constants.
const (
	EntityBlog    EntityType = "blog"
	EntityProject EntityType = "project"
)

// Valid reports whether t is a taggable entity type.
func (t EntityType) Valid() bool {
	return t == EntityBlog || t == EntityProject
}

// Entity identifies a taggable piece of content.
type Entity struct {
	ID   string
	Type EntityType
}

// TagMetadata carries bookkeeping for a tag.
// LastUsedAt and UsageCount are nil for tags that were never refreshed by the generator.
type TagMetadata struct {
	Source     Source
	CreatedAt  time.Time
	LastUsedAt *time.Time
	UsageCount *int
}

// Tag is a named, categorized label. Names are unique in the store.
type Tag struct {
	ID          string
	Name        string
	Description string
	Category    TagCategory
	Metadata    TagMetadata
}

// AssociationMetadata carries bookkeeping for a tag association.
type AssociationMetadata struct {
	Source    Source
	CreatedAt time.Time
	Context   string
}

// TagAssociation links a tag to an entity with a confidence in [0,1].
// At most one association exists per (TagID, EntityID, EntityType).
type TagAssociation struct {
	ID         string
	TagID      string
	EntityID   string
	EntityType EntityType
	Confidence float64
	Metadata   AssociationMetadata
}

// EntityTag is an association joined with its tag, used for listings.
type EntityTag struct {
	Tag         Tag
	Association TagAssociation
}

// maxUnixMilli is 9999-12-31T23:59:59.999Z, the last instant both stores can hold.
const maxUnixMilli = 253402300799999

// FromUnixMilli converts a model-supplied createdAt number to a time.
// Values outside (0, year 9999] return the zero time, which callers treat as unset.
func FromUnixMilli(ms float64) time.Time {
	if !(ms > 0 && ms <= maxUnixMilli) {
		return time.Time{}
	}

	return time.UnixMilli(int64(ms)).UTC()
}
