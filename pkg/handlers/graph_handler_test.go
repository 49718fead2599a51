package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/abyssal-labs/archive-engine/pkg/apperrors"
	"github.com/abyssal-labs/archive-engine/pkg/models"
)

func graphMux(svc GraphService) *http.ServeMux {
	mux := http.NewServeMux()
	NewGraphHandler(svc, zap.NewNop()).RegisterRoutes(mux)
	return mux
}

func TestFullGraphPassesTypeFilter(t *testing.T) {
	var gotType string
	svc := &mockGraphService{
		fullGraphFunc: func(ctx context.Context, knowledgeType string) (*models.GraphData, error) {
			gotType = knowledgeType
			return &models.GraphData{
				Nodes: []models.GraphNode{{ID: uuid.NewString(), Label: "A", KnowledgeType: "exploit"}},
				Edges: []models.GraphEdge{},
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/graph?type=exploit", nil)
	w := httptest.NewRecorder()
	graphMux(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "exploit", gotType)

	var resp struct {
		Data models.GraphData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data.Nodes, 1)
	assert.NotNil(t, resp.Data.Edges)
}

func TestFullGraphInvalidType(t *testing.T) {
	svc := &mockGraphService{
		fullGraphFunc: func(ctx context.Context, knowledgeType string) (*models.GraphData, error) {
			return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidType, knowledgeType)
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/graph?type=blog", nil)
	w := httptest.NewRecorder()
	graphMux(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEntrySubgraphDepthParam(t *testing.T) {
	rootID := uuid.New()
	var gotRoot uuid.UUID
	var gotDepth int
	svc := &mockGraphService{
		entrySubgraphFunc: func(ctx context.Context, id uuid.UUID, depth int) (*models.GraphData, error) {
			gotRoot = id
			gotDepth = depth
			return &models.GraphData{Nodes: []models.GraphNode{}, Edges: []models.GraphEdge{}}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/graph/entry/%s?depth=4", rootID), nil)
	w := httptest.NewRecorder()
	graphMux(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, rootID, gotRoot)
	assert.Equal(t, 4, gotDepth)
}

func TestEntrySubgraphDefaultDepth(t *testing.T) {
	var gotDepth int
	svc := &mockGraphService{
		entrySubgraphFunc: func(ctx context.Context, id uuid.UUID, depth int) (*models.GraphData, error) {
			gotDepth = depth
			return &models.GraphData{}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/graph/entry/"+uuid.NewString(), nil)
	w := httptest.NewRecorder()
	graphMux(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, defaultSubgraphDepth, gotDepth)
}

func TestEntrySubgraphInvalidID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/graph/entry/not-a-uuid", nil)
	w := httptest.NewRecorder()
	graphMux(&mockGraphService{}).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_entry_id")
}

func TestCoverageGraphRoute(t *testing.T) {
	svc := &mockGraphService{
		coverageGraphFunc: func(ctx context.Context) (*models.GraphData, error) {
			return &models.GraphData{
				Nodes: []models.GraphNode{{ID: "mitre-T1003", Label: "T1003", KnowledgeType: "mitre-technique", SkillLevel: 1}},
				Edges: []models.GraphEdge{},
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/graph/mitre", nil)
	w := httptest.NewRecorder()
	graphMux(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "mitre-T1003")
}
