package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abyssal-labs/archive-engine/pkg/apperrors"
	"github.com/abyssal-labs/archive-engine/pkg/repositories"
)

// chatContextLimit bounds how much entry content is injected into chat prompts.
const chatContextLimit = 2000

// skillGapFallbackLimit bounds the canned recommendations when the oracle
// cannot produce any.
const skillGapFallbackLimit = 5

// SkillGapResult reports MITRE coverage against a target technique list.
type SkillGapResult struct {
	Covered         []string `json:"covered"`
	Gaps            []string `json:"gaps"`
	Recommendations []string `json:"recommendations"`
}

// ArchivistService exposes the assistant surface: chat, metadata extraction,
// skill-gap analysis, and notes conversion.
type ArchivistService struct {
	entries repositories.EntryRepository
	oracle  *OracleService
	logger  *zap.Logger
}

// NewArchivistService creates the archivist service.
func NewArchivistService(entries repositories.EntryRepository, oracle *OracleService, logger *zap.Logger) *ArchivistService {
	return &ArchivistService{
		entries: entries,
		oracle:  oracle,
		logger:  logger.Named("archivist"),
	}
}

// Chat answers a free-form message. When contextEntryID is set and resolves to
// an entry, a bounded slice of that entry is injected as context; a missing
// entry degrades to a context-free chat rather than an error.
func (s *ArchivistService) Chat(ctx context.Context, message string, contextEntryID *uuid.UUID) (string, error) {
	if message == "" {
		return "", fmt.Errorf("%w: message is required", apperrors.ErrValidation)
	}

	contextText := ""
	if contextEntryID != nil {
		entry, err := s.entries.Get(ctx, *contextEntryID)
		switch {
		case err == nil:
			contextText = fmt.Sprintf("\n\nCurrent entry context:\nTitle: %s\nType: %s\nContent:\n%s",
				entry.Title, entry.KnowledgeType, truncate(entry.Content, chatContextLimit))
		case errors.Is(err, apperrors.ErrNotFound):
			s.logger.Debug("chat context entry not found",
				zap.String("entry_id", contextEntryID.String()))
		default:
			return "", err
		}
	}

	return s.oracle.Chat(ctx, message, contextText)
}

// AutoTag extracts metadata from raw content.
func (s *ArchivistService) AutoTag(ctx context.Context, content string) (*AutoTagResult, error) {
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", apperrors.ErrValidation)
	}
	return s.oracle.AutoTag(ctx, content)
}

// ConvertNotes turns raw operator notes into a structured entry draft.
func (s *ArchivistService) ConvertNotes(ctx context.Context, rawNotes string) (*StructuredEntry, error) {
	if rawNotes == "" {
		return nil, fmt.Errorf("%w: content is required", apperrors.ErrValidation)
	}
	return s.oracle.ConvertNotes(ctx, rawNotes)
}

// SkillGap compares the archive's MITRE coverage against a target technique
// list. Recommendations come from the oracle when it cooperates; otherwise a
// deterministic fallback covers the first few gaps so the analysis itself
// never fails on oracle outage.
func (s *ArchivistService) SkillGap(ctx context.Context, targets []string) (*SkillGapResult, error) {
	entries, err := s.entries.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	coveredSet := make(map[string]bool)
	for _, e := range entries {
		for _, t := range e.MitreTechniques {
			coveredSet[t] = true
		}
	}

	covered := make([]string, 0)
	gaps := make([]string, 0)
	seen := make(map[string]bool, len(targets))
	for _, t := range targets {
		if seen[t] {
			continue
		}
		seen[t] = true
		if coveredSet[t] {
			covered = append(covered, t)
		} else {
			gaps = append(gaps, t)
		}
	}

	recommendations, err := s.oracle.SkillGapRecommendations(ctx, gaps)
	if err != nil {
		s.logger.Warn("oracle recommendations unavailable, using fallback", zap.Error(err))
		recommendations = fallbackRecommendations(gaps)
	}

	return &SkillGapResult{
		Covered:         covered,
		Gaps:            gaps,
		Recommendations: recommendations,
	}, nil
}

func fallbackRecommendations(gaps []string) []string {
	recs := make([]string, 0, skillGapFallbackLimit)
	for i, t := range gaps {
		if i >= skillGapFallbackLimit {
			break
		}
		recs = append(recs, fmt.Sprintf("Research and document technique: %s", t))
	}
	return recs
}
