package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abyssal-labs/archive-engine/pkg/services"
)

// ============================================================================
// Request/Response Types
// ============================================================================

// ChatRequest for POST /api/v1/archivist/chat
type ChatRequest struct {
	Message        string     `json:"message"`
	ContextEntryID *uuid.UUID `json:"context_entry_id,omitempty"`
}

// ChatResponse for POST /api/v1/archivist/chat
type ChatResponse struct {
	Response string `json:"response"`
}

// AutoTagRequest for POST /api/v1/archivist/auto-tag
type AutoTagRequest struct {
	Content string `json:"content"`
}

// SkillGapRequest for POST /api/v1/archivist/skill-gap
type SkillGapRequest struct {
	TargetTechniques []string `json:"target_techniques"`
}

// ConvertRequest for POST /api/v1/archivist/convert
type ConvertRequest struct {
	Notes string `json:"notes"`
}

// ============================================================================
// Handler
// ============================================================================

// ArchivistService is the assistant surface the handler depends on.
type ArchivistService interface {
	Chat(ctx context.Context, message string, contextEntryID *uuid.UUID) (string, error)
	AutoTag(ctx context.Context, content string) (*services.AutoTagResult, error)
	ConvertNotes(ctx context.Context, rawNotes string) (*services.StructuredEntry, error)
	SkillGap(ctx context.Context, targets []string) (*services.SkillGapResult, error)
}

// ArchivistHandler handles assistant HTTP requests.
type ArchivistHandler struct {
	archivistService ArchivistService
	logger           *zap.Logger
}

// NewArchivistHandler creates a new archivist handler.
func NewArchivistHandler(archivistService ArchivistService, logger *zap.Logger) *ArchivistHandler {
	return &ArchivistHandler{
		archivistService: archivistService,
		logger:           logger,
	}
}

// RegisterRoutes registers the archivist handler's routes on the given mux.
func (h *ArchivistHandler) RegisterRoutes(mux *http.ServeMux) {
	base := "/api/v1/archivist"

	mux.HandleFunc("POST "+base+"/chat", h.Chat)
	mux.HandleFunc("POST "+base+"/auto-tag", h.AutoTag)
	mux.HandleFunc("POST "+base+"/skill-gap", h.SkillGap)
	mux.HandleFunc("POST "+base+"/convert", h.Convert)
}

// Chat handles POST /api/v1/archivist/chat
func (h *ArchivistHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	reply, err := h.archivistService.Chat(r.Context(), req.Message, req.ContextEntryID)
	if err != nil {
		h.logger.Error("Chat failed", zap.Error(err))
		ServiceError(w, err, "chat_failed", h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: ChatResponse{Response: reply}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// AutoTag handles POST /api/v1/archivist/auto-tag
func (h *ArchivistHandler) AutoTag(w http.ResponseWriter, r *http.Request) {
	var req AutoTagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	result, err := h.archivistService.AutoTag(r.Context(), req.Content)
	if err != nil {
		h.logger.Error("Auto-tag failed", zap.Error(err))
		ServiceError(w, err, "auto_tag_failed", h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: result}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// SkillGap handles POST /api/v1/archivist/skill-gap
func (h *ArchivistHandler) SkillGap(w http.ResponseWriter, r *http.Request) {
	var req SkillGapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	result, err := h.archivistService.SkillGap(r.Context(), req.TargetTechniques)
	if err != nil {
		h.logger.Error("Skill gap analysis failed", zap.Error(err))
		ServiceError(w, err, "skill_gap_failed", h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: result}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Convert handles POST /api/v1/archivist/convert
func (h *ArchivistHandler) Convert(w http.ResponseWriter, r *http.Request) {
	var req ConvertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	draft, err := h.archivistService.ConvertNotes(r.Context(), req.Notes)
	if err != nil {
		h.logger.Error("Notes conversion failed", zap.Error(err))
		ServiceError(w, err, "convert_notes_failed", h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: draft}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
