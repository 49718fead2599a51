package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abyssal-labs/archive-engine/pkg/models"
	"github.com/abyssal-labs/archive-engine/pkg/services/workqueue"
)

// IngestRequest for POST /api/v1/ingest
type IngestRequest struct {
	SourceURL     *string `json:"source_url,omitempty"`
	SourceText    *string `json:"source_text,omitempty"`
	KnowledgeType string  `json:"knowledge_type,omitempty"`
}

// JobListResponse for GET /api/v1/ingest/jobs
type JobListResponse struct {
	Jobs  []*models.IngestJob `json:"jobs"`
	Total int                 `json:"total"`
}

// IngestService is the ingestion surface the handler depends on.
type IngestService interface {
	Submit(ctx context.Context, sourceURL, sourceText *string, knowledgeType string) (*models.IngestJob, error)
	GetJob(ctx context.Context, id uuid.UUID) (*models.IngestJob, error)
	ListJobs(ctx context.Context) ([]*models.IngestJob, error)
	QueueStatus() workqueue.Progress
}

// IngestHandler handles ingestion HTTP requests.
type IngestHandler struct {
	ingestService IngestService
	logger        *zap.Logger
}

// NewIngestHandler creates a new ingest handler.
func NewIngestHandler(ingestService IngestService, logger *zap.Logger) *IngestHandler {
	return &IngestHandler{
		ingestService: ingestService,
		logger:        logger,
	}
}

// RegisterRoutes registers the ingest handler's routes on the given mux.
func (h *IngestHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/ingest", h.Submit)
	mux.HandleFunc("GET /api/v1/ingest/queue", h.QueueStatus)
	mux.HandleFunc("GET /api/v1/ingest/jobs", h.ListJobs)
	mux.HandleFunc("GET /api/v1/ingest/jobs/{id}", h.GetJob)
}

// Submit handles POST /api/v1/ingest
// The job is accepted immediately; the pipeline runs in the background and the
// client polls the job endpoints for the outcome.
func (h *IngestHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	job, err := h.ingestService.Submit(r.Context(), req.SourceURL, req.SourceText, req.KnowledgeType)
	if err != nil {
		h.logger.Warn("Ingest submission rejected", zap.Error(err))
		ServiceError(w, err, "submit_ingest_failed", h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusAccepted, ApiResponse{Success: true, Data: job}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// QueueStatus handles GET /api/v1/ingest/queue
// Reports the background queue's lifetime counters for monitoring.
func (h *IngestHandler) QueueStatus(w http.ResponseWriter, r *http.Request) {
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: h.ingestService.QueueStatus()}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// GetJob handles GET /api/v1/ingest/jobs/{id}
func (h *IngestHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID, ok := ParseJobID(w, r, h.logger)
	if !ok {
		return
	}

	job, err := h.ingestService.GetJob(r.Context(), jobID)
	if err != nil {
		ServiceError(w, err, "get_job_failed", h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: job}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListJobs handles GET /api/v1/ingest/jobs
func (h *IngestHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.ingestService.ListJobs(r.Context())
	if err != nil {
		h.logger.Error("Failed to list ingest jobs", zap.Error(err))
		ServiceError(w, err, "list_jobs_failed", h.logger)
		return
	}

	response := JobListResponse{
		Jobs:  jobs,
		Total: len(jobs),
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
