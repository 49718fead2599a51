package llm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType classifies oracle failures.
type ErrorType string

const (
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeModel       ErrorType = "model"
	ErrorTypeEndpoint    ErrorType = "endpoint"
	ErrorTypeUnparseable ErrorType = "unparseable"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error represents a structured oracle error with classification.
type Error struct {
	Type       ErrorType // Classification of the error
	Message    string    // Human-readable message
	Retryable  bool      // Whether the operation can be retried
	Cause      error     // Underlying error
	StatusCode int       // HTTP status code if applicable
	Model      string    // Model name if known
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string
	parts = append(parts, string(e.Type))

	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("HTTP %d", e.StatusCode))
	}
	if e.Model != "" {
		parts = append(parts, fmt.Sprintf("model=%s", e.Model))
	}

	parts = append(parts, e.Message)

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", strings.Join(parts, " "), e.Cause)
	}
	return strings.Join(parts, " ")
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable implements the retry.RetryableError interface.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// NewError creates a new structured oracle error.
func NewError(errType ErrorType, message string, retryable bool, cause error) *Error {
	return &Error{
		Type:      errType,
		Message:   message,
		Retryable: retryable,
		Cause:     cause,
	}
}

// ClassifyError categorizes an error and returns a structured Error.
// Keeps error classification in one place so callers can map oracle failures
// to domain failures consistently.
func ClassifyError(err error) *Error {
	if err == nil {
		return nil
	}

	var oracleErr *Error
	if errors.As(err, &oracleErr) {
		return oracleErr
	}

	errStr := err.Error()
	lower := strings.ToLower(errStr)

	statusCode := 0
	for _, code := range []int{400, 401, 403, 404, 429, 500, 502, 503, 504} {
		if strings.Contains(errStr, fmt.Sprintf("%d", code)) {
			statusCode = code
			break
		}
	}

	// Authentication errors (not retryable)
	if strings.Contains(errStr, "401") || strings.Contains(lower, "unauthorized") ||
		strings.Contains(lower, "invalid api key") {
		oracleErr = NewError(ErrorTypeAuth, "authentication failed", false, err)
		oracleErr.StatusCode = statusCode
		return oracleErr
	}

	// Model not found (not retryable without config change)
	if strings.Contains(lower, "model") && (strings.Contains(lower, "not found") ||
		strings.Contains(lower, "does not exist")) {
		oracleErr = NewError(ErrorTypeModel, "model not found", false, err)
		oracleErr.StatusCode = statusCode
		return oracleErr
	}

	// Connection errors (may be retryable)
	if strings.Contains(lower, "connection refused") || strings.Contains(lower, "no such host") {
		oracleErr = NewError(ErrorTypeEndpoint, "connection failed", true, err)
		oracleErr.StatusCode = statusCode
		return oracleErr
	}

	// Timeout and deadline exceeded (retryable)
	if strings.Contains(lower, "timeout") ||
		strings.Contains(lower, "deadline exceeded") ||
		strings.Contains(lower, "context canceled") {
		oracleErr = NewError(ErrorTypeEndpoint, "request timeout", true, err)
		oracleErr.StatusCode = statusCode
		return oracleErr
	}

	// Rate limiting (retryable after backoff)
	if strings.Contains(errStr, "429") || strings.Contains(lower, "rate limit") {
		oracleErr = NewError(ErrorTypeUnknown, "rate limited", true, err)
		oracleErr.StatusCode = statusCode
		return oracleErr
	}

	// 5xx server errors (retryable)
	if strings.Contains(errStr, "500") || strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") || strings.Contains(errStr, "504") {
		oracleErr = NewError(ErrorTypeEndpoint, "server error", true, err)
		oracleErr.StatusCode = statusCode
		return oracleErr
	}

	oracleErr = NewError(ErrorTypeUnknown, "llm error", false, err)
	oracleErr.StatusCode = statusCode
	return oracleErr
}
