package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abyssal-labs/archive-engine/pkg/models"
)

// defaultSubgraphDepth is the hop budget when the client does not ask for one.
const defaultSubgraphDepth = 2

// GraphService is the graph view surface the handler depends on.
type GraphService interface {
	FullGraph(ctx context.Context, knowledgeType string) (*models.GraphData, error)
	EntrySubgraph(ctx context.Context, rootID uuid.UUID, depth int) (*models.GraphData, error)
	CoverageGraph(ctx context.Context) (*models.GraphData, error)
}

// GraphHandler handles graph view HTTP requests.
type GraphHandler struct {
	graphService GraphService
	logger       *zap.Logger
}

// NewGraphHandler creates a new graph handler.
func NewGraphHandler(graphService GraphService, logger *zap.Logger) *GraphHandler {
	return &GraphHandler{
		graphService: graphService,
		logger:       logger,
	}
}

// RegisterRoutes registers the graph handler's routes on the given mux.
func (h *GraphHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/graph", h.FullGraph)
	mux.HandleFunc("GET /api/v1/graph/entry/{id}", h.EntrySubgraph)
	mux.HandleFunc("GET /api/v1/graph/mitre", h.CoverageGraph)
}

// FullGraph handles GET /api/v1/graph
func (h *GraphHandler) FullGraph(w http.ResponseWriter, r *http.Request) {
	graph, err := h.graphService.FullGraph(r.Context(), r.URL.Query().Get("type"))
	if err != nil {
		h.logger.Error("Failed to build graph", zap.Error(err))
		ServiceError(w, err, "build_graph_failed", h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: graph}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// EntrySubgraph handles GET /api/v1/graph/entry/{id}?depth=N
func (h *GraphHandler) EntrySubgraph(w http.ResponseWriter, r *http.Request) {
	entryID, ok := ParseEntryID(w, r, h.logger)
	if !ok {
		return
	}

	depth := queryInt(r, "depth", defaultSubgraphDepth)

	graph, err := h.graphService.EntrySubgraph(r.Context(), entryID, depth)
	if err != nil {
		h.logger.Error("Failed to build entry subgraph",
			zap.String("entry_id", entryID.String()),
			zap.Error(err))
		ServiceError(w, err, "build_subgraph_failed", h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: graph}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// CoverageGraph handles GET /api/v1/graph/mitre
func (h *GraphHandler) CoverageGraph(w http.ResponseWriter, r *http.Request) {
	graph, err := h.graphService.CoverageGraph(r.Context())
	if err != nil {
		h.logger.Error("Failed to build coverage graph", zap.Error(err))
		ServiceError(w, err, "build_coverage_failed", h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: graph}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
