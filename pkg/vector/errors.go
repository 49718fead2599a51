package vector

import (
	"fmt"
)

// IndexError represents a failure talking to the vector index. Indexing during
// ingestion treats these as best-effort and continues; semantic search
// propagates them so callers see the index outage.
type IndexError struct {
	Op         string // Operation that failed: "ensure", "upsert", "delete", "search"
	StatusCode int    // HTTP status code if the index responded
	Cause      error
}

// Error implements the error interface.
func (e *IndexError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("vector index %s: HTTP %d: %v", e.Op, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("vector index %s: %v", e.Op, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *IndexError) Unwrap() error {
	return e.Cause
}

// IsRetryable implements the retry.RetryableError interface. Connection
// failures and 5xx responses are transient; 4xx responses are not.
func (e *IndexError) IsRetryable() bool {
	if e.StatusCode == 0 {
		return true // network-level failure
	}
	return e.StatusCode >= 500 || e.StatusCode == 429
}

func newIndexError(op string, statusCode int, cause error) *IndexError {
	return &IndexError{Op: op, StatusCode: statusCode, Cause: cause}
}
