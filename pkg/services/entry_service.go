package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abyssal-labs/archive-engine/pkg/apperrors"
	"github.com/abyssal-labs/archive-engine/pkg/models"
	"github.com/abyssal-labs/archive-engine/pkg/repositories"
)

// SearchHit is a semantic search result: a hydrated entry with its score.
type SearchHit struct {
	Entry *models.KnowledgeEntry `json:"entry"`
	Score float64                `json:"score"`
}

// EntryService manages knowledge entries and keeps the vector index in sync
// with the relational store.
type EntryService struct {
	entries repositories.EntryRepository
	indexer EntryIndexer
	logger  *zap.Logger
}

// NewEntryService creates the entry service.
func NewEntryService(entries repositories.EntryRepository, indexer EntryIndexer, logger *zap.Logger) *EntryService {
	return &EntryService{
		entries: entries,
		indexer: indexer,
		logger:  logger.Named("entries"),
	}
}

// Create validates and persists an entry, then indexes it best-effort.
func (s *EntryService) Create(ctx context.Context, entry *models.KnowledgeEntry) error {
	if strings.TrimSpace(entry.Title) == "" {
		return fmt.Errorf("%w: title is required", apperrors.ErrValidation)
	}
	if strings.TrimSpace(entry.Content) == "" {
		return fmt.Errorf("%w: content is required", apperrors.ErrValidation)
	}
	if entry.KnowledgeType == "" {
		entry.KnowledgeType = "writeup"
	}
	if !models.IsValidKnowledgeType(entry.KnowledgeType) {
		return fmt.Errorf("%w: %q", apperrors.ErrInvalidType, entry.KnowledgeType)
	}
	if entry.SkillLevel == 0 {
		entry.SkillLevel = 1
	}
	entry.SkillLevel = clampInt(entry.SkillLevel, 1, 5)
	entry.ConfidenceRating = clampFloat(entry.ConfidenceRating, 0, 5)
	entry.Tags = nonNil(entry.Tags)
	entry.References = nonNil(entry.References)
	entry.MitreTechniques = nonNil(entry.MitreTechniques)
	entry.MitreTactics = nonNil(entry.MitreTactics)
	entry.Dependencies = nonNil(entry.Dependencies)
	entry.RelatedTechniques = nonNil(entry.RelatedTechniques)

	if err := s.entries.Create(ctx, entry); err != nil {
		return err
	}

	s.indexEntry(ctx, entry)
	return nil
}

// Get returns an entry by ID.
func (s *EntryService) Get(ctx context.Context, id uuid.UUID) (*models.KnowledgeEntry, error) {
	return s.entries.Get(ctx, id)
}

// Update applies a partial update, then re-indexes the entry best-effort.
func (s *EntryService) Update(ctx context.Context, id uuid.UUID, update *models.EntryUpdate) (*models.KnowledgeEntry, error) {
	if update.KnowledgeType != nil && !models.IsValidKnowledgeType(*update.KnowledgeType) {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidType, *update.KnowledgeType)
	}

	entry, err := s.entries.Update(ctx, id, update)
	if err != nil {
		return nil, err
	}

	s.indexEntry(ctx, entry)
	return entry, nil
}

// Delete removes an entry from the store, then drops its vector best-effort.
// The store delete runs first: if it fails the entry stays searchable.
func (s *EntryService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.entries.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.indexer.Unindex(ctx, id.String()); err != nil {
		s.logger.Warn("failed to remove entry from vector index",
			zap.String("entry_id", id.String()),
			zap.Error(err))
	}
	return nil
}

// List returns a page of entries matching the filter, plus the total count.
func (s *EntryService) List(ctx context.Context, filter models.EntryFilter, page, pageSize int) ([]*models.KnowledgeEntry, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	if filter.KnowledgeType != "" && !models.IsValidKnowledgeType(filter.KnowledgeType) {
		return nil, 0, fmt.Errorf("%w: %q", apperrors.ErrInvalidType, filter.KnowledgeType)
	}
	return s.entries.List(ctx, filter, page, pageSize)
}

// ListAll returns every entry. Used by export and graph construction.
func (s *EntryService) ListAll(ctx context.Context) ([]*models.KnowledgeEntry, error) {
	return s.entries.ListAll(ctx)
}

// SemanticSearch embeds the query, searches the vector index, and hydrates the
// hits from the relational store in rank order. Hits whose entries no longer
// exist are dropped silently; an unreachable index is a hard error.
func (s *EntryService) SemanticSearch(ctx context.Context, query string, topK int, knowledgeType string) ([]SearchHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is required", apperrors.ErrEmptyQuery)
	}
	if knowledgeType != "" && !models.IsValidKnowledgeType(knowledgeType) {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidType, knowledgeType)
	}

	scored, err := s.indexer.Search(ctx, query, topK, knowledgeType)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(scored))
	scores := make(map[uuid.UUID]float64, len(scored))
	for _, hit := range scored {
		id, err := uuid.Parse(hit.ID)
		if err != nil {
			s.logger.Warn("vector index returned unparseable id", zap.String("id", hit.ID))
			continue
		}
		ids = append(ids, id)
		scores[id] = hit.Score
	}

	if len(ids) == 0 {
		return []SearchHit{}, nil
	}

	entries, err := s.entries.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*models.KnowledgeEntry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}

	// Preserve the index's rank order; drop hits the store no longer has.
	hits := make([]SearchHit, 0, len(ids))
	for _, id := range ids {
		if entry, ok := byID[id]; ok {
			hits = append(hits, SearchHit{Entry: entry, Score: scores[id]})
		}
	}
	return hits, nil
}

// indexEntry pushes an entry into the vector index, best-effort.
func (s *EntryService) indexEntry(ctx context.Context, entry *models.KnowledgeEntry) {
	if result := s.indexer.Index(ctx, entry); result.Indexed {
		if err := s.entries.SetVectorID(ctx, entry.ID, entry.ID.String()); err != nil {
			s.logger.Warn("failed to record vector id",
				zap.String("entry_id", entry.ID.String()),
				zap.Error(err))
		}
	} else {
		s.logger.Warn("entry not indexed",
			zap.String("entry_id", entry.ID.String()),
			zap.String("reason", result.Skipped))
	}
}
