package services

import (
	"context"

	"github.com/abyssal-labs/archive-engine/pkg/models"
	"github.com/abyssal-labs/archive-engine/pkg/vector"
)

// Acquirer turns an ingest job's source into raw text.
// Satisfied by acquire.Fetcher; mocked in tests.
type Acquirer interface {
	Acquire(ctx context.Context, job *models.IngestJob) (string, error)
}

// EntryIndexer maintains entries in the vector index and searches over them.
// Satisfied by vector.Indexer; mocked in tests.
type EntryIndexer interface {
	Index(ctx context.Context, entry *models.KnowledgeEntry) vector.IndexResult
	Unindex(ctx context.Context, entryID string) error
	Search(ctx context.Context, query string, topK int, knowledgeType string) ([]vector.ScoredID, error)
}
