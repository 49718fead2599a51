package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/abyssal-labs/archive-engine/pkg/models"
)

// exportRow is the NDJSON wire shape: every field present on every line, with
// explicit nulls, so downstream tooling sees a stable schema.
type exportRow struct {
	ID                string         `json:"id"`
	Title             string         `json:"title"`
	Content           string         `json:"content"`
	Summary           *string        `json:"summary"`
	KnowledgeType     string         `json:"knowledge_type"`
	Phase             *string        `json:"phase"`
	SkillLevel        int            `json:"skill_level"`
	ConfidenceRating  float64        `json:"confidence_rating"`
	Author            *string        `json:"author"`
	Tags              []string       `json:"tags"`
	References        []string       `json:"references"`
	CodeBlocks        map[string]any `json:"code_blocks"`
	MitreTechniques   []string       `json:"mitre_techniques"`
	MitreTactics      []string       `json:"mitre_tactics"`
	Dependencies      []string       `json:"dependencies"`
	RelatedTechniques []string       `json:"related_techniques"`
	CreatedAt         string         `json:"created_at"`
	UpdatedAt         string         `json:"updated_at"`
}

// EntryLister lists every entry in the archive.
type EntryLister interface {
	ListAll(ctx context.Context) ([]*models.KnowledgeEntry, error)
}

// ExportHandler streams the whole archive as NDJSON.
type ExportHandler struct {
	entries EntryLister
	logger  *zap.Logger
}

// NewExportHandler creates a new export handler.
func NewExportHandler(entries EntryLister, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{
		entries: entries,
		logger:  logger,
	}
}

// RegisterRoutes registers the export handler's routes on the given mux.
func (h *ExportHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/export/ndjson", h.ExportNDJSON)
}

// ExportNDJSON handles GET /api/v1/export/ndjson
// One JSON object per line. Errors after the first line cannot change the
// status code; they truncate the stream and are logged.
func (h *ExportHandler) ExportNDJSON(w http.ResponseWriter, r *http.Request) {
	entries, err := h.entries.ListAll(r.Context())
	if err != nil {
		h.logger.Error("Failed to load entries for export", zap.Error(err))
		ServiceError(w, err, "export_failed", h.logger)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Content-Disposition", `attachment; filename=abyssal_archive_export.ndjson`)

	enc := json.NewEncoder(w)
	flusher, _ := w.(http.Flusher)
	for _, entry := range entries {
		if err := enc.Encode(rowFor(entry)); err != nil {
			h.logger.Error("Export stream interrupted",
				zap.String("entry_id", entry.ID.String()),
				zap.Error(err))
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

func rowFor(e *models.KnowledgeEntry) exportRow {
	return exportRow{
		ID:                e.ID.String(),
		Title:             e.Title,
		Content:           e.Content,
		Summary:           e.Summary,
		KnowledgeType:     e.KnowledgeType,
		Phase:             e.Phase,
		SkillLevel:        e.SkillLevel,
		ConfidenceRating:  e.ConfidenceRating,
		Author:            e.Author,
		Tags:              e.Tags,
		References:        e.References,
		CodeBlocks:        e.CodeBlocks,
		MitreTechniques:   e.MitreTechniques,
		MitreTactics:      e.MitreTactics,
		Dependencies:      e.Dependencies,
		RelatedTechniques: e.RelatedTechniques,
		CreatedAt:         e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         e.UpdatedAt.Format(time.RFC3339),
	}
}
