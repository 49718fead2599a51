package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/abyssal-labs/archive-engine/pkg/models"
)

// MockEntryRepository is a configurable EntryRepository mock for tests.
// Set the function fields to control behavior.
type MockEntryRepository struct {
	CreateFunc      func(ctx context.Context, entry *models.KnowledgeEntry) error
	GetFunc         func(ctx context.Context, id uuid.UUID) (*models.KnowledgeEntry, error)
	UpdateFunc      func(ctx context.Context, id uuid.UUID, update *models.EntryUpdate) (*models.KnowledgeEntry, error)
	DeleteFunc      func(ctx context.Context, id uuid.UUID) error
	ListFunc        func(ctx context.Context, filter models.EntryFilter, page, pageSize int) ([]*models.KnowledgeEntry, int, error)
	ListAllFunc     func(ctx context.Context) ([]*models.KnowledgeEntry, error)
	GetByIDsFunc    func(ctx context.Context, ids []uuid.UUID) ([]*models.KnowledgeEntry, error)
	SetVectorIDFunc func(ctx context.Context, id uuid.UUID, vectorID string) error
}

var _ EntryRepository = (*MockEntryRepository)(nil)

func (m *MockEntryRepository) Create(ctx context.Context, entry *models.KnowledgeEntry) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, entry)
	}
	return nil
}

func (m *MockEntryRepository) Get(ctx context.Context, id uuid.UUID) (*models.KnowledgeEntry, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockEntryRepository) Update(ctx context.Context, id uuid.UUID, update *models.EntryUpdate) (*models.KnowledgeEntry, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, update)
	}
	return nil, nil
}

func (m *MockEntryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockEntryRepository) List(ctx context.Context, filter models.EntryFilter, page, pageSize int) ([]*models.KnowledgeEntry, int, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter, page, pageSize)
	}
	return nil, 0, nil
}

func (m *MockEntryRepository) ListAll(ctx context.Context) ([]*models.KnowledgeEntry, error) {
	if m.ListAllFunc != nil {
		return m.ListAllFunc(ctx)
	}
	return nil, nil
}

func (m *MockEntryRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.KnowledgeEntry, error) {
	if m.GetByIDsFunc != nil {
		return m.GetByIDsFunc(ctx, ids)
	}
	return nil, nil
}

func (m *MockEntryRepository) SetVectorID(ctx context.Context, id uuid.UUID, vectorID string) error {
	if m.SetVectorIDFunc != nil {
		return m.SetVectorIDFunc(ctx, id, vectorID)
	}
	return nil
}

// MockJobRepository is a configurable JobRepository mock for tests.
type MockJobRepository struct {
	CreateFunc         func(ctx context.Context, job *models.IngestJob) error
	GetFunc            func(ctx context.Context, id uuid.UUID) (*models.IngestJob, error)
	MarkProcessingFunc func(ctx context.Context, id uuid.UUID) error
	MarkCompletedFunc  func(ctx context.Context, id, entryID uuid.UUID) error
	MarkFailedFunc     func(ctx context.Context, id uuid.UUID, errMsg string) error
	ListRecentFunc     func(ctx context.Context, limit int) ([]*models.IngestJob, error)
}

var _ JobRepository = (*MockJobRepository)(nil)

func (m *MockJobRepository) Create(ctx context.Context, job *models.IngestJob) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, job)
	}
	return nil
}

func (m *MockJobRepository) Get(ctx context.Context, id uuid.UUID) (*models.IngestJob, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockJobRepository) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	if m.MarkProcessingFunc != nil {
		return m.MarkProcessingFunc(ctx, id)
	}
	return nil
}

func (m *MockJobRepository) MarkCompleted(ctx context.Context, id, entryID uuid.UUID) error {
	if m.MarkCompletedFunc != nil {
		return m.MarkCompletedFunc(ctx, id, entryID)
	}
	return nil
}

func (m *MockJobRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	if m.MarkFailedFunc != nil {
		return m.MarkFailedFunc(ctx, id, errMsg)
	}
	return nil
}

func (m *MockJobRepository) ListRecent(ctx context.Context, limit int) ([]*models.IngestJob, error) {
	if m.ListRecentFunc != nil {
		return m.ListRecentFunc(ctx, limit)
	}
	return nil, nil
}
