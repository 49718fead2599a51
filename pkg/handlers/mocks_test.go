package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/abyssal-labs/archive-engine/pkg/models"
	"github.com/abyssal-labs/archive-engine/pkg/services"
	"github.com/abyssal-labs/archive-engine/pkg/services/workqueue"
)

// mockEntryService is a configurable mock for handler tests.
type mockEntryService struct {
	createFunc  func(ctx context.Context, entry *models.KnowledgeEntry) error
	getFunc     func(ctx context.Context, id uuid.UUID) (*models.KnowledgeEntry, error)
	updateFunc  func(ctx context.Context, id uuid.UUID, update *models.EntryUpdate) (*models.KnowledgeEntry, error)
	deleteFunc  func(ctx context.Context, id uuid.UUID) error
	listFunc    func(ctx context.Context, filter models.EntryFilter, page, pageSize int) ([]*models.KnowledgeEntry, int, error)
	listAllFunc func(ctx context.Context) ([]*models.KnowledgeEntry, error)
	searchFunc  func(ctx context.Context, query string, topK int, knowledgeType string) ([]services.SearchHit, error)
}

func (m *mockEntryService) Create(ctx context.Context, entry *models.KnowledgeEntry) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, entry)
	}
	return nil
}

func (m *mockEntryService) Get(ctx context.Context, id uuid.UUID) (*models.KnowledgeEntry, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return &models.KnowledgeEntry{ID: id, Title: "Test Entry", KnowledgeType: "writeup"}, nil
}

func (m *mockEntryService) Update(ctx context.Context, id uuid.UUID, update *models.EntryUpdate) (*models.KnowledgeEntry, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, update)
	}
	return &models.KnowledgeEntry{ID: id, Title: "Updated", KnowledgeType: "writeup"}, nil
}

func (m *mockEntryService) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockEntryService) List(ctx context.Context, filter models.EntryFilter, page, pageSize int) ([]*models.KnowledgeEntry, int, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, filter, page, pageSize)
	}
	return nil, 0, nil
}

func (m *mockEntryService) SemanticSearch(ctx context.Context, query string, topK int, knowledgeType string) ([]services.SearchHit, error) {
	if m.searchFunc != nil {
		return m.searchFunc(ctx, query, topK, knowledgeType)
	}
	return nil, nil
}

func (m *mockEntryService) ListAll(ctx context.Context) ([]*models.KnowledgeEntry, error) {
	if m.listAllFunc != nil {
		return m.listAllFunc(ctx)
	}
	return nil, nil
}

// mockIngestService is a configurable mock for handler tests.
type mockIngestService struct {
	submitFunc      func(ctx context.Context, sourceURL, sourceText *string, knowledgeType string) (*models.IngestJob, error)
	getJobFunc      func(ctx context.Context, id uuid.UUID) (*models.IngestJob, error)
	listJobsFunc    func(ctx context.Context) ([]*models.IngestJob, error)
	queueStatusFunc func() workqueue.Progress
	submitCalls     int
}

func (m *mockIngestService) Submit(ctx context.Context, sourceURL, sourceText *string, knowledgeType string) (*models.IngestJob, error) {
	m.submitCalls++
	if m.submitFunc != nil {
		return m.submitFunc(ctx, sourceURL, sourceText, knowledgeType)
	}
	return &models.IngestJob{ID: uuid.New(), Status: models.JobStatusPending}, nil
}

func (m *mockIngestService) GetJob(ctx context.Context, id uuid.UUID) (*models.IngestJob, error) {
	if m.getJobFunc != nil {
		return m.getJobFunc(ctx, id)
	}
	return &models.IngestJob{ID: id, Status: models.JobStatusPending}, nil
}

func (m *mockIngestService) ListJobs(ctx context.Context) ([]*models.IngestJob, error) {
	if m.listJobsFunc != nil {
		return m.listJobsFunc(ctx)
	}
	return nil, nil
}

func (m *mockIngestService) QueueStatus() workqueue.Progress {
	if m.queueStatusFunc != nil {
		return m.queueStatusFunc()
	}
	return workqueue.Progress{}
}

// mockGraphService is a configurable mock for handler tests.
type mockGraphService struct {
	fullGraphFunc     func(ctx context.Context, knowledgeType string) (*models.GraphData, error)
	entrySubgraphFunc func(ctx context.Context, rootID uuid.UUID, depth int) (*models.GraphData, error)
	coverageGraphFunc func(ctx context.Context) (*models.GraphData, error)
}

func (m *mockGraphService) FullGraph(ctx context.Context, knowledgeType string) (*models.GraphData, error) {
	if m.fullGraphFunc != nil {
		return m.fullGraphFunc(ctx, knowledgeType)
	}
	return &models.GraphData{Nodes: []models.GraphNode{}, Edges: []models.GraphEdge{}}, nil
}

func (m *mockGraphService) EntrySubgraph(ctx context.Context, rootID uuid.UUID, depth int) (*models.GraphData, error) {
	if m.entrySubgraphFunc != nil {
		return m.entrySubgraphFunc(ctx, rootID, depth)
	}
	return &models.GraphData{Nodes: []models.GraphNode{}, Edges: []models.GraphEdge{}}, nil
}

func (m *mockGraphService) CoverageGraph(ctx context.Context) (*models.GraphData, error) {
	if m.coverageGraphFunc != nil {
		return m.coverageGraphFunc(ctx)
	}
	return &models.GraphData{Nodes: []models.GraphNode{}, Edges: []models.GraphEdge{}}, nil
}

// mockArchivistService is a configurable mock for handler tests.
type mockArchivistService struct {
	chatFunc     func(ctx context.Context, message string, contextEntryID *uuid.UUID) (string, error)
	autoTagFunc  func(ctx context.Context, content string) (*services.AutoTagResult, error)
	convertFunc  func(ctx context.Context, rawNotes string) (*services.StructuredEntry, error)
	skillGapFunc func(ctx context.Context, targets []string) (*services.SkillGapResult, error)
}

func (m *mockArchivistService) Chat(ctx context.Context, message string, contextEntryID *uuid.UUID) (string, error) {
	if m.chatFunc != nil {
		return m.chatFunc(ctx, message, contextEntryID)
	}
	return "ok", nil
}

func (m *mockArchivistService) AutoTag(ctx context.Context, content string) (*services.AutoTagResult, error) {
	if m.autoTagFunc != nil {
		return m.autoTagFunc(ctx, content)
	}
	return &services.AutoTagResult{}, nil
}

func (m *mockArchivistService) ConvertNotes(ctx context.Context, rawNotes string) (*services.StructuredEntry, error) {
	if m.convertFunc != nil {
		return m.convertFunc(ctx, rawNotes)
	}
	return &services.StructuredEntry{}, nil
}

func (m *mockArchivistService) SkillGap(ctx context.Context, targets []string) (*services.SkillGapResult, error) {
	if m.skillGapFunc != nil {
		return m.skillGapFunc(ctx, targets)
	}
	return &services.SkillGapResult{}, nil
}
