package repositories

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abyssal-labs/archive-engine/pkg/models"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func TestBuildEntryUpdateEmpty(t *testing.T) {
	clauses, args := buildEntryUpdate(&models.EntryUpdate{})
	assert.Empty(t, clauses)
	assert.Empty(t, args)
}

func TestBuildEntryUpdatePartial(t *testing.T) {
	clauses, args := buildEntryUpdate(&models.EntryUpdate{
		Title:      strPtr("New Title"),
		SkillLevel: intPtr(3),
		Tags:       []string{"ad", "kerberos"},
	})

	// Three touched fields plus updated_at.
	require.Len(t, clauses, 4)
	require.Len(t, args, 4)

	assert.Equal(t, "title = $1", clauses[0])
	assert.Equal(t, "New Title", args[0])
	assert.Equal(t, "skill_level = $2", clauses[1])
	assert.Equal(t, 3, args[1])
	assert.Equal(t, "tags = $3", clauses[2])
	assert.Equal(t, []string{"ad", "kerberos"}, args[2])
	assert.Equal(t, "updated_at = $4", clauses[3])
}

func TestBuildEntryUpdateReferencesColumn(t *testing.T) {
	// "references" is a reserved word; the column is named refs.
	clauses, _ := buildEntryUpdate(&models.EntryUpdate{
		References: []string{"https://example.com"},
	})
	require.Len(t, clauses, 2)
	assert.Equal(t, "refs = $1", clauses[0])
}

func TestBuildEntryFilterEmpty(t *testing.T) {
	where, args := buildEntryFilter(models.EntryFilter{})
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestBuildEntryFilterCombined(t *testing.T) {
	where, args := buildEntryFilter(models.EntryFilter{
		KnowledgeType: "exploit",
		Tags:          []string{"ad"},
		Search:        "ticket",
	})

	require.Len(t, args, 3)
	assert.True(t, strings.HasPrefix(where, " WHERE "))
	assert.Contains(t, where, "knowledge_type = $1")
	assert.Contains(t, where, "tags && $2")
	assert.Contains(t, where, "title ILIKE $3 OR content ILIKE $3")
	assert.Equal(t, "exploit", args[0])
	assert.Equal(t, "%ticket%", args[2])
}

func TestTruncateError(t *testing.T) {
	short := "connection refused"
	assert.Equal(t, short, TruncateError(short))

	long := strings.Repeat("x", 900)
	got := TruncateError(long)
	assert.Len(t, got, 500)
}

func TestTruncateErrorKeepsRuneBoundary(t *testing.T) {
	// 3-byte runes; 500 is not a multiple of 3, so a byte slice would split
	// one and produce invalid UTF-8.
	long := strings.Repeat("世", 300)
	got := TruncateError(long)

	assert.True(t, utf8.ValidString(got))
	assert.LessOrEqual(t, len(got), 500)
	assert.Equal(t, 498, len(got))
}
