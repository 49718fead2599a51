package vector

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/abyssal-labs/archive-engine/pkg/llm"
	"github.com/abyssal-labs/archive-engine/pkg/models"
	"github.com/abyssal-labs/archive-engine/pkg/retry"
)

// embedContentLimit caps how much entry content goes into the embedding input.
const embedContentLimit = 1000

// IndexResult reports what happened to an entry during indexing. Indexing is
// best-effort: a degraded index never fails the caller, so failures surface
// here instead of as errors.
type IndexResult struct {
	Indexed bool
	Skipped string // Reason the entry was not indexed, empty when Indexed
}

// Indexer embeds knowledge entries and maintains them in the vector store.
// Every store operation ensures the collection exists first, so a Qdrant that
// was unreachable at boot starts working as soon as it comes back.
type Indexer struct {
	store    Store
	llm      llm.LLMClient
	dim      int
	retryCfg *retry.Config
	logger   *zap.Logger
}

// NewIndexer creates an indexer over the given store and embedding client.
// dim is the embedding dimension used when the collection must be created.
func NewIndexer(store Store, llmClient llm.LLMClient, dim int, logger *zap.Logger) *Indexer {
	return &Indexer{
		store:    store,
		llm:      llmClient,
		dim:      dim,
		retryCfg: retry.DefaultConfig(),
		logger:   logger.Named("indexer"),
	}
}

// EmbeddingInput builds the text that represents an entry in vector space:
// title, summary, and a bounded prefix of the content.
func EmbeddingInput(entry *models.KnowledgeEntry) string {
	summary := ""
	if entry.Summary != nil {
		summary = *entry.Summary
	}
	content := entry.Content
	if len(content) > embedContentLimit {
		content = content[:embedContentLimit]
	}
	return entry.Title + "\n" + summary + "\n" + content
}

// PayloadFor builds the index payload for an entry.
func PayloadFor(entry *models.KnowledgeEntry) Payload {
	return Payload{
		ID:              entry.ID.String(),
		Title:           entry.Title,
		KnowledgeType:   entry.KnowledgeType,
		Tags:            entry.Tags,
		MitreTechniques: entry.MitreTechniques,
		SkillLevel:      entry.SkillLevel,
	}
}

// Index embeds the entry and upserts it into the vector store. Failures are
// logged and reported in the result, never returned; the entry remains
// retrievable through the relational store either way.
func (ix *Indexer) Index(ctx context.Context, entry *models.KnowledgeEntry) IndexResult {
	if err := ix.store.EnsureCollection(ctx, ix.dim); err != nil {
		ix.logger.Warn("vector collection unavailable, entry not indexed",
			zap.String("entry_id", entry.ID.String()),
			zap.Error(err))
		return IndexResult{Skipped: fmt.Sprintf("collection unavailable: %v", err)}
	}

	vec, err := ix.llm.CreateEmbedding(ctx, EmbeddingInput(entry))
	if err != nil {
		ix.logger.Warn("embedding failed, entry not indexed",
			zap.String("entry_id", entry.ID.String()),
			zap.Error(err))
		return IndexResult{Skipped: fmt.Sprintf("embedding failed: %v", err)}
	}
	if len(vec) == 0 {
		return IndexResult{Skipped: "embedding model returned empty vector"}
	}

	id := entry.ID.String()
	err = retry.DoIfRetryable(ctx, ix.retryCfg, func() error {
		return ix.store.Upsert(ctx, id, vec, PayloadFor(entry))
	})
	if err != nil {
		ix.logger.Warn("vector upsert failed, entry not indexed",
			zap.String("entry_id", id),
			zap.Error(err))
		return IndexResult{Skipped: fmt.Sprintf("vector upsert failed: %v", err)}
	}

	return IndexResult{Indexed: true}
}

// Unindex removes an entry from the vector store. Missing points are fine.
func (ix *Indexer) Unindex(ctx context.Context, entryID string) error {
	if err := ix.store.EnsureCollection(ctx, ix.dim); err != nil {
		return err
	}
	return ix.store.Delete(ctx, entryID)
}

// Search embeds the query and returns the nearest entry IDs. Unlike indexing,
// search failures propagate: an unreachable index means no results, not empty
// results.
func (ix *Indexer) Search(ctx context.Context, query string, topK int, knowledgeType string) ([]ScoredID, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty query")
	}
	if topK <= 0 {
		topK = 10
	}

	if err := ix.store.EnsureCollection(ctx, ix.dim); err != nil {
		return nil, err
	}

	vec, err := ix.llm.CreateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	return ix.store.Search(ctx, vec, topK, knowledgeType)
}
