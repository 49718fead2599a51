package vector

import (
	"context"
)

// MockStore is a configurable Store mock for tests.
// Set the function fields to control behavior.
type MockStore struct {
	EnsureCollectionFunc func(ctx context.Context, dim int) error
	UpsertFunc           func(ctx context.Context, id string, vec []float32, payload Payload) error
	DeleteFunc           func(ctx context.Context, id string) error
	SearchFunc           func(ctx context.Context, vec []float32, topK int, knowledgeType string) ([]ScoredID, error)

	// Call tracking for verification
	EnsureCollectionCalls int
	UpsertCalls           int
	DeleteCalls           int
	SearchCalls           int
}

// Ensure MockStore satisfies Store at compile time.
var _ Store = (*MockStore)(nil)

// EnsureCollection implements Store.
func (m *MockStore) EnsureCollection(ctx context.Context, dim int) error {
	m.EnsureCollectionCalls++
	if m.EnsureCollectionFunc != nil {
		return m.EnsureCollectionFunc(ctx, dim)
	}
	return nil
}

// Upsert implements Store.
func (m *MockStore) Upsert(ctx context.Context, id string, vec []float32, payload Payload) error {
	m.UpsertCalls++
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, id, vec, payload)
	}
	return nil
}

// Delete implements Store.
func (m *MockStore) Delete(ctx context.Context, id string) error {
	m.DeleteCalls++
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// Search implements Store.
func (m *MockStore) Search(ctx context.Context, vec []float32, topK int, knowledgeType string) ([]ScoredID, error) {
	m.SearchCalls++
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, vec, topK, knowledgeType)
	}
	return nil, nil
}
