package services

import (
	"context"

	"github.com/abyssal-labs/archive-engine/pkg/models"
	"github.com/abyssal-labs/archive-engine/pkg/vector"
)

// mockAcquirer is a configurable Acquirer for tests.
type mockAcquirer struct {
	acquireFunc func(ctx context.Context, job *models.IngestJob) (string, error)
	calls       int
}

func (m *mockAcquirer) Acquire(ctx context.Context, job *models.IngestJob) (string, error) {
	m.calls++
	if m.acquireFunc != nil {
		return m.acquireFunc(ctx, job)
	}
	return "", nil
}

// mockIndexer is a configurable EntryIndexer for tests.
type mockIndexer struct {
	indexFunc   func(ctx context.Context, entry *models.KnowledgeEntry) vector.IndexResult
	unindexFunc func(ctx context.Context, entryID string) error
	searchFunc  func(ctx context.Context, query string, topK int, knowledgeType string) ([]vector.ScoredID, error)

	indexCalls   int
	unindexCalls int
	searchCalls  int
}

func (m *mockIndexer) Index(ctx context.Context, entry *models.KnowledgeEntry) vector.IndexResult {
	m.indexCalls++
	if m.indexFunc != nil {
		return m.indexFunc(ctx, entry)
	}
	return vector.IndexResult{Indexed: true}
}

func (m *mockIndexer) Unindex(ctx context.Context, entryID string) error {
	m.unindexCalls++
	if m.unindexFunc != nil {
		return m.unindexFunc(ctx, entryID)
	}
	return nil
}

func (m *mockIndexer) Search(ctx context.Context, query string, topK int, knowledgeType string) ([]vector.ScoredID, error) {
	m.searchCalls++
	if m.searchFunc != nil {
		return m.searchFunc(ctx, query, topK, knowledgeType)
	}
	return nil, nil
}
