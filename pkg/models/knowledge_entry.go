package models

import (
	"time"

	"github.com/google/uuid"
)

// KnowledgeTypes is the closed set of valid entry classifications.
var KnowledgeTypes = []string{
	"recon",
	"exploit",
	"post-exploitation",
	"tool",
	"payload",
	"writeup",
	"poc",
	"zero-day",
	"case-study",
	"mitre-technique",
}

// IsValidKnowledgeType reports whether t is one of the closed classification set.
func IsValidKnowledgeType(t string) bool {
	for _, kt := range KnowledgeTypes {
		if kt == t {
			return true
		}
	}
	return false
}

// KnowledgeEntry is the canonical unit of stored knowledge.
// Stored in the knowledge_entries table.
//
// Dependencies and RelatedTechniques hold identifiers of other entries as opaque
// strings. They are deliberately not foreign keys: a dangling reference is a
// normal, tolerated state that graph derivation must degrade over gracefully.
type KnowledgeEntry struct {
	ID      uuid.UUID `json:"id"`
	Title   string    `json:"title"`
	Content string    `json:"content"`
	Summary *string   `json:"summary,omitempty"`

	// Classification
	KnowledgeType    string  `json:"knowledge_type"` // one of KnowledgeTypes
	Phase            *string `json:"phase,omitempty"`
	SkillLevel       int     `json:"skill_level"`       // 1-5
	ConfidenceRating float64 `json:"confidence_rating"` // 0.0-5.0

	// Metadata
	Author     *string        `json:"author,omitempty"`
	Tags       []string       `json:"tags,omitempty"`
	References []string       `json:"references,omitempty"`
	CodeBlocks map[string]any `json:"code_blocks,omitempty"`

	// MITRE ATT&CK
	MitreTechniques []string `json:"mitre_techniques,omitempty"`
	MitreTactics    []string `json:"mitre_tactics,omitempty"`

	// Graph links (identifiers of other entries, stored as opaque strings)
	Dependencies      []string `json:"dependencies,omitempty"`
	RelatedTechniques []string `json:"related_techniques,omitempty"`

	// Vector embedding reference; absent until indexing first succeeds.
	VectorID *string `json:"vector_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EntryUpdate carries a partial update: nil fields are left untouched.
type EntryUpdate struct {
	Title             *string         `json:"title,omitempty"`
	Content           *string         `json:"content,omitempty"`
	Summary           *string         `json:"summary,omitempty"`
	KnowledgeType     *string         `json:"knowledge_type,omitempty"`
	Phase             *string         `json:"phase,omitempty"`
	SkillLevel        *int            `json:"skill_level,omitempty"`
	ConfidenceRating  *float64        `json:"confidence_rating,omitempty"`
	Author            *string         `json:"author,omitempty"`
	Tags              []string        `json:"tags,omitempty"`
	References        []string        `json:"references,omitempty"`
	CodeBlocks        *map[string]any `json:"code_blocks,omitempty"`
	MitreTechniques   []string        `json:"mitre_techniques,omitempty"`
	MitreTactics      []string        `json:"mitre_tactics,omitempty"`
	Dependencies      []string        `json:"dependencies,omitempty"`
	RelatedTechniques []string        `json:"related_techniques,omitempty"`
}

// EntryFilter restricts List queries.
type EntryFilter struct {
	// KnowledgeType is an exact match when non-empty.
	KnowledgeType string
	// Tags matches entries whose tag set overlaps the given tags.
	Tags []string
	// Search is a case-insensitive substring match over title and content.
	Search string
}
