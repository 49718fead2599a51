package handlers

import (
	"bytes"
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
	"github.com/abyssal-labs/archive-engine/pkg/llm"
	"github.com/abyssal-labs/archive-engine/pkg/services"
)

func archivistMux(svc ArchivistService) *http.ServeMux {
	mux := http.NewServeMux()
	NewArchivistHandler(svc, zap.NewNop()).RegisterRoutes(mux)
	return mux
}

func TestChatWithContextEntry(t *testing.T) {
	entryID := uuid.New()
	svc := &mockArchivistService{
		chatFunc: func(ctx context.Context, message string, contextEntryID *uuid.UUID) (string, error) {
			assert.Equal(t, "summarize", message)
			require.NotNil(t, contextEntryID)
			assert.Equal(t, entryID, *contextEntryID)
			return "Here is the summary.", nil
		},
	}

	body := fmt.Sprintf(`{"message": "summarize", "context_entry_id": "%s"}`, entryID)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/archivist/chat", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	archivistMux(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data ChatResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Here is the summary.", resp.Data.Response)
}

func TestChatOracleOutage(t *testing.T) {
	svc := &mockArchivistService{
		chatFunc: func(ctx context.Context, message string, contextEntryID *uuid.UUID) (string, error) {
			return "", llm.NewError(llm.ErrorTypeEndpoint, "connection refused", true, nil)
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/archivist/chat",
		bytes.NewBufferString(`{"message": "hello"}`))
	w := httptest.NewRecorder()
	archivistMux(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "oracle_unavailable")
}

func TestAutoTagEmptyContentRejected(t *testing.T) {
	svc := &mockArchivistService{
		autoTagFunc: func(ctx context.Context, content string) (*services.AutoTagResult, error) {
			return nil, fmt.Errorf("%w: content is required", apperrors.ErrValidation)
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/archivist/auto-tag",
		bytes.NewBufferString(`{"content": ""}`))
	w := httptest.NewRecorder()
	archivistMux(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSkillGapRoute(t *testing.T) {
	svc := &mockArchivistService{
		skillGapFunc: func(ctx context.Context, targets []string) (*services.SkillGapResult, error) {
			assert.Equal(t, []string{"T1003", "T1547"}, targets)
			return &services.SkillGapResult{
				Covered:         []string{"T1003"},
				Gaps:            []string{"T1547"},
				Recommendations: []string{"Research and document technique: T1547"},
			}, nil
		},
	}

	body := `{"target_techniques": ["T1003", "T1547"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/archivist/skill-gap", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	archivistMux(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data services.SkillGapResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"T1547"}, resp.Data.Gaps)
	assert.Len(t, resp.Data.Recommendations, 1)
}

func TestConvertNotesRoute(t *testing.T) {
	svc := &mockArchivistService{
		convertFunc: func(ctx context.Context, rawNotes string) (*services.StructuredEntry, error) {
			assert.Equal(t, "dumped lsass with nanodump", rawNotes)
			return &services.StructuredEntry{Title: "LSASS Dumping", KnowledgeType: "post-exploitation"}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/archivist/convert",
		bytes.NewBufferString(`{"notes": "dumped lsass with nanodump"}`))
	w := httptest.NewRecorder()
	archivistMux(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "LSASS Dumping")
}
