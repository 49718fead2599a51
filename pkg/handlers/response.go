package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/abyssal-labs/archive-engine/pkg/acquire"
	"github.com/abyssal-labs/archive-engine/pkg/apperrors"
	"github.com/abyssal-labs/archive-engine/pkg/llm"
	"github.com/abyssal-labs/archive-engine/pkg/vector"
)

// ApiResponse is the standard envelope for successful responses.
type ApiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// ServiceError maps a service-layer error onto an HTTP status and writes it.
// Validation failures become 400, missing records 404, upstream outages
// (oracle, source fetch, vector index) 503, and everything else 500 under the
// given fallback error code.
func ServiceError(w http.ResponseWriter, err error, fallbackCode string, logger *zap.Logger) {
	status := http.StatusInternalServerError
	code := fallbackCode

	var llmErr *llm.Error
	var fetchErr *acquire.FetchError
	var indexErr *vector.IndexError

	switch {
	case errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, apperrors.ErrMissingSource),
		errors.Is(err, apperrors.ErrInvalidType),
		errors.Is(err, apperrors.ErrEmptyQuery):
		status = http.StatusBadRequest
		code = "validation_error"
	case errors.Is(err, apperrors.ErrNotFound):
		status = http.StatusNotFound
		code = "not_found"
	case errors.As(err, &llmErr):
		status = http.StatusServiceUnavailable
		code = "oracle_unavailable"
	case errors.As(err, &fetchErr):
		status = http.StatusServiceUnavailable
		code = "source_unavailable"
	case errors.As(err, &indexErr):
		status = http.StatusServiceUnavailable
		code = "index_unavailable"
	}

	if writeErr := ErrorResponse(w, status, code, err.Error()); writeErr != nil {
		logger.Error("Failed to write error response", zap.Error(writeErr))
	}
}
