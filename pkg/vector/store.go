// Package vector maintains the semantic index of knowledge entries in Qdrant
// and performs similarity search over it.
package vector

import (
	"context"
)

// Payload is the metadata stored alongside each vector. It mirrors the fields
// the retrieval UI needs without a second database round trip.
type Payload struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	KnowledgeType   string   `json:"knowledge_type"`
	Tags            []string `json:"tags"`
	MitreTechniques []string `json:"mitre_techniques"`
	SkillLevel      int      `json:"skill_level"`
}

// ScoredID is a search hit: an entry ID with its similarity score.
type ScoredID struct {
	ID    string
	Score float64
}

// Store defines operations against the vector index.
// Use this interface for dependency injection to enable mocking in tests.
type Store interface {
	// EnsureCollection creates the collection if it does not exist.
	EnsureCollection(ctx context.Context, dim int) error

	// Upsert writes a vector and its payload under the given point ID.
	Upsert(ctx context.Context, id string, vec []float32, payload Payload) error

	// Delete removes the point with the given ID. Deleting a missing point is not an error.
	Delete(ctx context.Context, id string) error

	// Search returns the topK nearest points to vec, optionally filtered by
	// knowledge type (empty string means no filter), ordered by descending score.
	Search(ctx context.Context, vec []float32, topK int, knowledgeType string) ([]ScoredID, error)
}
