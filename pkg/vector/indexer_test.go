package vector

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/abyssal-labs/archive-engine/pkg/llm"
	"github.com/abyssal-labs/archive-engine/pkg/models"
)

func testEntry() *models.KnowledgeEntry {
	summary := "Extracting service tickets for offline cracking"
	return &models.KnowledgeEntry{
		ID:              uuid.New(),
		Title:           "Kerberoasting",
		Content:         strings.Repeat("a", 1500),
		Summary:         &summary,
		KnowledgeType:   "exploit",
		SkillLevel:      3,
		Tags:            []string{"ad", "kerberos"},
		MitreTechniques: []string{"T1558.003"},
	}
}

func TestEmbeddingInput(t *testing.T) {
	entry := testEntry()
	input := EmbeddingInput(entry)

	parts := strings.SplitN(input, "\n", 3)
	require.Len(t, parts, 3)
	assert.Equal(t, "Kerberoasting", parts[0])
	assert.Equal(t, *entry.Summary, parts[1])
	assert.Len(t, parts[2], 1000, "content should be truncated")
}

func TestEmbeddingInputNilSummary(t *testing.T) {
	entry := testEntry()
	entry.Summary = nil
	entry.Content = "short"

	assert.Equal(t, "Kerberoasting\n\nshort", EmbeddingInput(entry))
}

func TestIndexSuccess(t *testing.T) {
	entry := testEntry()
	store := &MockStore{}
	mockLLM := llm.NewMockLLMClient()
	mockLLM.CreateEmbeddingFunc = func(ctx context.Context, input string) ([]float32, error) {
		return []float32{0.1, 0.2, 0.3}, nil
	}

	var gotID string
	var gotPayload Payload
	store.UpsertFunc = func(ctx context.Context, id string, vec []float32, payload Payload) error {
		gotID = id
		gotPayload = payload
		return nil
	}

	ix := NewIndexer(store, mockLLM, 768, zap.NewNop())
	result := ix.Index(context.Background(), entry)

	assert.True(t, result.Indexed)
	assert.Empty(t, result.Skipped)
	assert.Equal(t, entry.ID.String(), gotID)
	assert.Equal(t, "exploit", gotPayload.KnowledgeType)
	assert.Equal(t, []string{"ad", "kerberos"}, gotPayload.Tags)
	assert.Equal(t, 3, gotPayload.SkillLevel)
}

func TestIndexEmbeddingFailureIsBestEffort(t *testing.T) {
	store := &MockStore{}
	mockLLM := llm.NewMockLLMClient()
	mockLLM.CreateEmbeddingFunc = func(ctx context.Context, input string) ([]float32, error) {
		return nil, errors.New("model not loaded")
	}

	ix := NewIndexer(store, mockLLM, 768, zap.NewNop())
	result := ix.Index(context.Background(), testEntry())

	assert.False(t, result.Indexed)
	assert.Contains(t, result.Skipped, "embedding failed")
	assert.Equal(t, 0, store.UpsertCalls)
}

func TestIndexUpsertFailureIsBestEffort(t *testing.T) {
	store := &MockStore{
		UpsertFunc: func(ctx context.Context, id string, vec []float32, payload Payload) error {
			// 400 is not retryable, so the indexer gives up immediately
			return newIndexError("upsert", 400, errors.New("bad vector size"))
		},
	}
	mockLLM := llm.NewMockLLMClient()
	mockLLM.CreateEmbeddingFunc = func(ctx context.Context, input string) ([]float32, error) {
		return []float32{0.1}, nil
	}

	ix := NewIndexer(store, mockLLM, 768, zap.NewNop())
	result := ix.Index(context.Background(), testEntry())

	assert.False(t, result.Indexed)
	assert.Contains(t, result.Skipped, "vector upsert failed")
	assert.Equal(t, 1, store.UpsertCalls)
}

func TestIndexEnsuresCollectionBeforeUpsert(t *testing.T) {
	store := &MockStore{}
	ensured := false
	store.EnsureCollectionFunc = func(ctx context.Context, dim int) error {
		ensured = true
		assert.Equal(t, 768, dim)
		return nil
	}
	store.UpsertFunc = func(ctx context.Context, id string, vec []float32, payload Payload) error {
		assert.True(t, ensured, "collection must exist before the upsert")
		return nil
	}
	mockLLM := llm.NewMockLLMClient()
	mockLLM.CreateEmbeddingFunc = func(ctx context.Context, input string) ([]float32, error) {
		return []float32{0.1}, nil
	}

	ix := NewIndexer(store, mockLLM, 768, zap.NewNop())
	result := ix.Index(context.Background(), testEntry())

	assert.True(t, result.Indexed)
	assert.Equal(t, 1, store.EnsureCollectionCalls)
	assert.Equal(t, 1, store.UpsertCalls)
}

func TestIndexCollectionUnavailableIsBestEffort(t *testing.T) {
	store := &MockStore{
		EnsureCollectionFunc: func(ctx context.Context, dim int) error {
			return newIndexError("ensure", 0, errors.New("connection refused"))
		},
	}

	ix := NewIndexer(store, llm.NewMockLLMClient(), 768, zap.NewNop())
	result := ix.Index(context.Background(), testEntry())

	assert.False(t, result.Indexed)
	assert.Contains(t, result.Skipped, "collection unavailable")
	assert.Equal(t, 0, store.UpsertCalls)
}

func TestUnindexEnsuresCollection(t *testing.T) {
	store := &MockStore{}
	ix := NewIndexer(store, llm.NewMockLLMClient(), 768, zap.NewNop())

	require.NoError(t, ix.Unindex(context.Background(), uuid.New().String()))
	assert.Equal(t, 1, store.EnsureCollectionCalls)
	assert.Equal(t, 1, store.DeleteCalls)
}

func TestSearchEnsuresCollection(t *testing.T) {
	store := &MockStore{}
	mockLLM := llm.NewMockLLMClient()
	mockLLM.CreateEmbeddingFunc = func(ctx context.Context, input string) ([]float32, error) {
		return []float32{0.1}, nil
	}

	ix := NewIndexer(store, mockLLM, 768, zap.NewNop())
	_, err := ix.Search(context.Background(), "persistence", 5, "")
	require.NoError(t, err)
	assert.Equal(t, 1, store.EnsureCollectionCalls)
}

func TestSearchPropagatesStoreError(t *testing.T) {
	store := &MockStore{
		SearchFunc: func(ctx context.Context, vec []float32, topK int, knowledgeType string) ([]ScoredID, error) {
			return nil, newIndexError("search", 503, errors.New("unavailable"))
		},
	}
	mockLLM := llm.NewMockLLMClient()
	mockLLM.CreateEmbeddingFunc = func(ctx context.Context, input string) ([]float32, error) {
		return []float32{0.1}, nil
	}

	ix := NewIndexer(store, mockLLM, 768, zap.NewNop())
	_, err := ix.Search(context.Background(), "credential dumping", 10, "")

	var idxErr *IndexError
	require.True(t, errors.As(err, &idxErr))
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	ix := NewIndexer(&MockStore{}, llm.NewMockLLMClient(), 768, zap.NewNop())
	_, err := ix.Search(context.Background(), "   ", 10, "")
	require.Error(t, err)
}

func TestSearchDefaultsTopK(t *testing.T) {
	var gotTopK int
	store := &MockStore{
		SearchFunc: func(ctx context.Context, vec []float32, topK int, knowledgeType string) ([]ScoredID, error) {
			gotTopK = topK
			return nil, nil
		},
	}
	mockLLM := llm.NewMockLLMClient()
	mockLLM.CreateEmbeddingFunc = func(ctx context.Context, input string) ([]float32, error) {
		return []float32{0.1}, nil
	}

	ix := NewIndexer(store, mockLLM, 768, zap.NewNop())
	_, err := ix.Search(context.Background(), "osint", 0, "")
	require.NoError(t, err)
	assert.Equal(t, 10, gotTopK)
}
