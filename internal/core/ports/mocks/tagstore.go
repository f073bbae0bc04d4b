package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/lueurxax/portfolio-tagger/internal/core/domain"
	apperrors "github.com/lueurxax/portfolio-tagger/internal/core/errors"
	"github.com/lueurxax/portfolio-tagger/internal/core/ports"
)

// TagStore is a thread-safe in-memory implementation of ports.TagStore.
// It enforces the same uniqueness rules as the SQL drivers.
type TagStore struct {
	mu           sync.RWMutex
	tags         map[string]domain.Tag
	tagsByName   map[string]string
	associations map[string]domain.TagAssociation
	runs         []domain.GenerationRun

	// InsertTagFn allows overriding InsertTag behavior.
	InsertTagFn func(ctx context.Context, tag ports.NewTag) (string, error)

	// InsertAssociationFn allows overriding InsertAssociation behavior.
	InsertAssociationFn func(ctx context.Context, assoc ports.NewAssociation) (string, error)

	// AppendRunRecordFn allows overriding AppendRunRecord behavior.
	AppendRunRecordFn func(ctx context.Context, run *domain.GenerationRun) (string, error)
}

// NewTagStore creates a new mock tag store.
func NewTagStore() *TagStore {
	return &TagStore{
		tags:         make(map[string]domain.Tag),
		tagsByName:   make(map[string]string),
		associations: make(map[string]domain.TagAssociation),
	}
}

// InsertTag stores a new tag, rejecting duplicate names.
func (s *TagStore) InsertTag(ctx context.Context, tag ports.NewTag) (string, error) {
	if s.InsertTagFn != nil {
		return s.InsertTagFn(ctx, tag)
	}

	return s.InsertTagDirect(tag)
}

// InsertTagDirect performs the default insert, bypassing InsertTagFn.
func (s *TagStore) InsertTagDirect(tag ports.NewTag) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tagsByName[tag.Name]; ok {
		return "", fmt.Errorf("insert tag %q: %w", tag.Name, apperrors.ErrDuplicate)
	}

	id := uuid.NewString()
	s.tags[id] = domain.Tag{
		ID:          id,
		Name:        tag.Name,
		Description: tag.Description,
		Category:    tag.Category,
		Metadata:    copyTagMetadata(tag.Metadata),
	}
	s.tagsByName[tag.Name] = id

	return id, nil
}

// PatchTag replaces the metadata of an existing tag.
func (s *TagStore) PatchTag(_ context.Context, tagID string, metadata domain.TagMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tag, ok := s.tags[tagID]
	if !ok {
		return fmt.Errorf("patch tag %s: %w", tagID, apperrors.ErrNotFound)
	}

	tag.Metadata = copyTagMetadata(metadata)
	s.tags[tagID] = tag

	return nil
}

// FindTagByName returns the tag with the exact name, or nil.
func (s *TagStore) FindTagByName(_ context.Context, name string) (*domain.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.tagsByName[name]
	if !ok {
		return nil, nil //nolint:nilnil // nil,nil indicates no tag with this name
	}

	tag := s.tags[id]
	tag.Metadata = copyTagMetadata(tag.Metadata)

	return &tag, nil
}

// InsertAssociation stores a new association, rejecting duplicate (tag, entity) pairs.
func (s *TagStore) InsertAssociation(ctx context.Context, assoc ports.NewAssociation) (string, error) {
	if s.InsertAssociationFn != nil {
		return s.InsertAssociationFn(ctx, assoc)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.associations {
		if existing.TagID == assoc.TagID && existing.EntityID == assoc.EntityID && existing.EntityType == assoc.EntityType {
			return "", fmt.Errorf("insert association: %w", apperrors.ErrDuplicate)
		}
	}

	id := uuid.NewString()
	s.associations[id] = domain.TagAssociation{
		ID:         id,
		TagID:      assoc.TagID,
		EntityID:   assoc.EntityID,
		EntityType: assoc.EntityType,
		Confidence: assoc.Confidence,
		Metadata:   assoc.Metadata,
	}

	return id, nil
}

// PatchAssociation overwrites confidence and metadata of an association.
func (s *TagStore) PatchAssociation(_ context.Context, associationID string, confidence float64, metadata domain.AssociationMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	assoc, ok := s.associations[associationID]
	if !ok {
		return fmt.Errorf("patch association %s: %w", associationID, apperrors.ErrNotFound)
	}

	assoc.Confidence = confidence
	assoc.Metadata = metadata
	s.associations[associationID] = assoc

	return nil
}

// FindAssociation returns the association for the triple, or nil.
func (s *TagStore) FindAssociation(_ context.Context, tagID, entityID string, entityType domain.EntityType) (*domain.TagAssociation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, assoc := range s.associations {
		if assoc.TagID == tagID && assoc.EntityID == entityID && assoc.EntityType == entityType {
			found := assoc
			return &found, nil
		}
	}

	return nil, nil //nolint:nilnil // nil,nil indicates no association for this triple
}

// AppendRunRecord appends a generation run.
func (s *TagStore) AppendRunRecord(ctx context.Context, run *domain.GenerationRun) (string, error) {
	if s.AppendRunRecordFn != nil {
		return s.AppendRunRecordFn(ctx, run)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *run
	stored.ID = uuid.NewString()
	s.runs = append(s.runs, stored)

	return stored.ID, nil
}

// ListRunRecords returns runs for the entity, newest first. Empty entityID lists all.
func (s *TagStore) ListRunRecords(_ context.Context, entityID string, limit int) ([]domain.GenerationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.GenerationRun

	for i := len(s.runs) - 1; i >= 0; i-- {
		if entityID != "" && s.runs[i].EntityID != entityID {
			continue
		}

		out = append(out, s.runs[i])

		if limit > 0 && len(out) == limit {
			break
		}
	}

	return out, nil
}

// ListTags returns all tags ordered by name.
func (s *TagStore) ListTags(_ context.Context) ([]domain.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Tag, 0, len(s.tags))
	for _, tag := range s.tags {
		tag.Metadata = copyTagMetadata(tag.Metadata)
		out = append(out, tag)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out, nil
}

// ListEntityTags returns the entity's associations joined with their tags, by descending confidence.
func (s *TagStore) ListEntityTags(_ context.Context, entityID string, entityType domain.EntityType) ([]domain.EntityTag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.EntityTag

	for _, assoc := range s.associations {
		if assoc.EntityID != entityID || assoc.EntityType != entityType {
			continue
		}

		out = append(out, domain.EntityTag{Tag: s.tags[assoc.TagID], Association: assoc})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Association.Confidence > out[j].Association.Confidence
	})

	return out, nil
}

// Ping always succeeds.
func (s *TagStore) Ping(_ context.Context) error {
	return nil
}

// Close is a no-op.
func (s *TagStore) Close() error {
	return nil
}

// Tags returns a snapshot of every stored tag.
func (s *TagStore) Tags() []domain.Tag {
	tags, _ := s.ListTags(context.Background()) //nolint:errcheck // in-memory listing never fails

	return tags
}

// Associations returns a snapshot of every stored association.
func (s *TagStore) Associations() []domain.TagAssociation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.TagAssociation, 0, len(s.associations))
	for _, assoc := range s.associations {
		out = append(out, assoc)
	}

	return out
}

// Runs returns a snapshot of every stored run in append order.
func (s *TagStore) Runs() []domain.GenerationRun {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.GenerationRun, len(s.runs))
	copy(out, s.runs)

	return out
}

func copyTagMetadata(m domain.TagMetadata) domain.TagMetadata {
	out := m

	if m.LastUsedAt != nil {
		t := *m.LastUsedAt
		out.LastUsedAt = &t
	}

	if m.UsageCount != nil {
		n := *m.UsageCount
		out.UsageCount = &n
	}

	return out
}

// Ensure TagStore implements ports.TagStore.
var _ ports.TagStore = (*TagStore)(nil)
