package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abyssal-labs/archive-engine/pkg/models"
	"github.com/abyssal-labs/archive-engine/pkg/services"
)

// ============================================================================
// Request/Response Types
// ============================================================================

// EntryListResponse for GET /api/v1/knowledge
type EntryListResponse struct {
	Entries  []*models.KnowledgeEntry `json:"entries"`
	Total    int                      `json:"total"`
	Page     int                      `json:"page"`
	PageSize int                      `json:"page_size"`
}

// SemanticSearchRequest for POST /api/v1/knowledge/search/semantic
type SemanticSearchRequest struct {
	Query         string `json:"query"`
	TopK          int    `json:"top_k,omitempty"`
	KnowledgeType string `json:"knowledge_type,omitempty"`
}

// SemanticSearchResponse for POST /api/v1/knowledge/search/semantic
type SemanticSearchResponse struct {
	Results []services.SearchHit `json:"results"`
	Total   int                  `json:"total"`
}

// ============================================================================
// Handler
// ============================================================================

// EntryService is the knowledge entry surface the handler depends on.
type EntryService interface {
	Create(ctx context.Context, entry *models.KnowledgeEntry) error
	Get(ctx context.Context, id uuid.UUID) (*models.KnowledgeEntry, error)
	Update(ctx context.Context, id uuid.UUID, update *models.EntryUpdate) (*models.KnowledgeEntry, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter models.EntryFilter, page, pageSize int) ([]*models.KnowledgeEntry, int, error)
	SemanticSearch(ctx context.Context, query string, topK int, knowledgeType string) ([]services.SearchHit, error)
}

// KnowledgeHandler handles knowledge entry HTTP requests.
type KnowledgeHandler struct {
	entryService EntryService
	logger       *zap.Logger
}

// NewKnowledgeHandler creates a new knowledge handler.
func NewKnowledgeHandler(entryService EntryService, logger *zap.Logger) *KnowledgeHandler {
	return &KnowledgeHandler{
		entryService: entryService,
		logger:       logger,
	}
}

// RegisterRoutes registers the knowledge handler's routes on the given mux.
func (h *KnowledgeHandler) RegisterRoutes(mux *http.ServeMux) {
	base := "/api/v1/knowledge"

	mux.HandleFunc("GET "+base, h.List)
	mux.HandleFunc("POST "+base, h.Create)
	mux.HandleFunc("POST "+base+"/search/semantic", h.SemanticSearch)
	mux.HandleFunc("GET "+base+"/{id}", h.Get)
	mux.HandleFunc("PATCH "+base+"/{id}", h.Update)
	mux.HandleFunc("DELETE "+base+"/{id}", h.Delete)
}

// List handles GET /api/v1/knowledge
func (h *KnowledgeHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.EntryFilter{
		KnowledgeType: q.Get("type"),
		Search:        q.Get("search"),
	}
	if tags := q.Get("tags"); tags != "" {
		for _, tag := range strings.Split(tags, ",") {
			if trimmed := strings.TrimSpace(tag); trimmed != "" {
				filter.Tags = append(filter.Tags, trimmed)
			}
		}
	}

	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", 20)

	entries, total, err := h.entryService.List(r.Context(), filter, page, pageSize)
	if err != nil {
		h.logger.Error("Failed to list knowledge entries", zap.Error(err))
		ServiceError(w, err, "list_entries_failed", h.logger)
		return
	}

	response := EntryListResponse{
		Entries:  entries,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/v1/knowledge
func (h *KnowledgeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var entry models.KnowledgeEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := h.entryService.Create(r.Context(), &entry); err != nil {
		h.logger.Error("Failed to create knowledge entry",
			zap.String("title", entry.Title),
			zap.Error(err))
		ServiceError(w, err, "create_entry_failed", h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: &entry}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/v1/knowledge/{id}
func (h *KnowledgeHandler) Get(w http.ResponseWriter, r *http.Request) {
	entryID, ok := ParseEntryID(w, r, h.logger)
	if !ok {
		return
	}

	entry, err := h.entryService.Get(r.Context(), entryID)
	if err != nil {
		ServiceError(w, err, "get_entry_failed", h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: entry}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PATCH /api/v1/knowledge/{id}
func (h *KnowledgeHandler) Update(w http.ResponseWriter, r *http.Request) {
	entryID, ok := ParseEntryID(w, r, h.logger)
	if !ok {
		return
	}

	var update models.EntryUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	entry, err := h.entryService.Update(r.Context(), entryID, &update)
	if err != nil {
		h.logger.Error("Failed to update knowledge entry",
			zap.String("entry_id", entryID.String()),
			zap.Error(err))
		ServiceError(w, err, "update_entry_failed", h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: entry}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/v1/knowledge/{id}
func (h *KnowledgeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	entryID, ok := ParseEntryID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.entryService.Delete(r.Context(), entryID); err != nil {
		h.logger.Error("Failed to delete knowledge entry",
			zap.String("entry_id", entryID.String()),
			zap.Error(err))
		ServiceError(w, err, "delete_entry_failed", h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SemanticSearch handles POST /api/v1/knowledge/search/semantic
func (h *KnowledgeHandler) SemanticSearch(w http.ResponseWriter, r *http.Request) {
	var req SemanticSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	hits, err := h.entryService.SemanticSearch(r.Context(), req.Query, req.TopK, req.KnowledgeType)
	if err != nil {
		h.logger.Error("Semantic search failed",
			zap.String("query", req.Query),
			zap.Error(err))
		ServiceError(w, err, "semantic_search_failed", h.logger)
		return
	}

	response := SemanticSearchResponse{
		Results: hits,
		Total:   len(hits),
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
