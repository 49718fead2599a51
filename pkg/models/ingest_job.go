package models

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus is the ingest job state machine:
// pending -> processing -> {completed | failed}. Terminal states are absorbing.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// IsTerminal reports whether the status admits no further transitions.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// IngestJob tracks one attempt to convert raw input into a knowledge entry.
// Stored in the ingest_jobs table. Exactly one of SourceURL/SourceText is set,
// validated before the row is created.
type IngestJob struct {
	ID            uuid.UUID  `json:"id"`
	SourceURL     *string    `json:"source_url,omitempty"`
	SourceText    *string    `json:"source_text,omitempty"`
	Status        JobStatus  `json:"status"`
	ResultEntryID *uuid.UUID `json:"result_entry_id,omitempty"`
	Error         *string    `json:"error,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
