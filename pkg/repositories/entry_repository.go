package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/abyssal-labs/archive-engine/pkg/apperrors"
	"github.com/abyssal-labs/archive-engine/pkg/database"
	"github.com/abyssal-labs/archive-engine/pkg/models"
)

const entryColumns = `id, title, content, summary, knowledge_type, phase, skill_level,
	confidence_rating, author, tags, refs, code_blocks, mitre_techniques, mitre_tactics,
	dependencies, related_techniques, vector_id, created_at, updated_at`

// EntryRepository provides data access for knowledge entries.
type EntryRepository interface {
	Create(ctx context.Context, entry *models.KnowledgeEntry) error
	Get(ctx context.Context, id uuid.UUID) (*models.KnowledgeEntry, error)
	Update(ctx context.Context, id uuid.UUID, update *models.EntryUpdate) (*models.KnowledgeEntry, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter models.EntryFilter, page, pageSize int) ([]*models.KnowledgeEntry, int, error)
	ListAll(ctx context.Context) ([]*models.KnowledgeEntry, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.KnowledgeEntry, error)
	SetVectorID(ctx context.Context, id uuid.UUID, vectorID string) error
}

type entryRepository struct {
	db *database.DB
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(db *database.DB) EntryRepository {
	return &entryRepository{db: db}
}

var _ EntryRepository = (*entryRepository)(nil)

func (r *entryRepository) Create(ctx context.Context, entry *models.KnowledgeEntry) error {
	now := time.Now()
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = now
	entry.UpdatedAt = now

	query := `
		INSERT INTO knowledge_entries (
			id, title, content, summary, knowledge_type, phase, skill_level,
			confidence_rating, author, tags, refs, code_blocks, mitre_techniques,
			mitre_tactics, dependencies, related_techniques, vector_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

	_, err := r.db.Exec(ctx, query,
		entry.ID, entry.Title, entry.Content, entry.Summary, entry.KnowledgeType,
		entry.Phase, entry.SkillLevel, entry.ConfidenceRating, entry.Author,
		entry.Tags, entry.References, entry.CodeBlocks, entry.MitreTechniques,
		entry.MitreTactics, entry.Dependencies, entry.RelatedTechniques,
		entry.VectorID, entry.CreatedAt, entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create knowledge entry: %w", err)
	}

	return nil
}

func (r *entryRepository) Get(ctx context.Context, id uuid.UUID) (*models.KnowledgeEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM knowledge_entries WHERE id = $1`

	entry, err := scanEntry(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return entry, nil
}

func (r *entryRepository) Update(ctx context.Context, id uuid.UUID, update *models.EntryUpdate) (*models.KnowledgeEntry, error) {
	setClauses, args := buildEntryUpdate(update)
	if len(setClauses) == 0 {
		// Nothing to change; still refresh updated_at so mutation is observable.
		setClauses = append(setClauses, fmt.Sprintf("updated_at = $%d", len(args)+1))
		args = append(args, time.Now())
	}

	args = append(args, id)
	query := fmt.Sprintf(
		`UPDATE knowledge_entries SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(setClauses, ", "), len(args), entryColumns,
	)

	entry, err := scanEntry(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return entry, nil
}

func (r *entryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM knowledge_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete knowledge entry: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *entryRepository) List(ctx context.Context, filter models.EntryFilter, page, pageSize int) ([]*models.KnowledgeEntry, int, error) {
	where, args := buildEntryFilter(filter)

	countQuery := `SELECT COUNT(*) FROM knowledge_entries` + where
	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count knowledge entries: %w", err)
	}

	query := fmt.Sprintf(
		`SELECT %s FROM knowledge_entries%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		entryColumns, where, len(args)+1, len(args)+2,
	)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list knowledge entries: %w", err)
	}
	defer rows.Close()

	entries, err := collectEntries(rows)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *entryRepository) ListAll(ctx context.Context) ([]*models.KnowledgeEntry, error) {
	rows, err := r.db.Query(ctx, `SELECT `+entryColumns+` FROM knowledge_entries ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list knowledge entries: %w", err)
	}
	defer rows.Close()

	return collectEntries(rows)
}

func (r *entryRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.KnowledgeEntry, error) {
	if len(ids) == 0 {
		return []*models.KnowledgeEntry{}, nil
	}

	rows, err := r.db.Query(ctx, `SELECT `+entryColumns+` FROM knowledge_entries WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get knowledge entries by ids: %w", err)
	}
	defer rows.Close()

	return collectEntries(rows)
}

func (r *entryRepository) SetVectorID(ctx context.Context, id uuid.UUID, vectorID string) error {
	result, err := r.db.Exec(ctx,
		`UPDATE knowledge_entries SET vector_id = $1, updated_at = $2 WHERE id = $3`,
		vectorID, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to set vector id: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// buildEntryUpdate assembles SET clauses for the non-nil fields of an update.
// Always appends an updated_at refresh when any field changes.
func buildEntryUpdate(update *models.EntryUpdate) ([]string, []any) {
	var setClauses []string
	var args []any

	add := func(column string, value any) {
		args = append(args, value)
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Title != nil {
		add("title", *update.Title)
	}
	if update.Content != nil {
		add("content", *update.Content)
	}
	if update.Summary != nil {
		add("summary", *update.Summary)
	}
	if update.KnowledgeType != nil {
		add("knowledge_type", *update.KnowledgeType)
	}
	if update.Phase != nil {
		add("phase", *update.Phase)
	}
	if update.SkillLevel != nil {
		add("skill_level", *update.SkillLevel)
	}
	if update.ConfidenceRating != nil {
		add("confidence_rating", *update.ConfidenceRating)
	}
	if update.Author != nil {
		add("author", *update.Author)
	}
	if update.Tags != nil {
		add("tags", update.Tags)
	}
	if update.References != nil {
		add("refs", update.References)
	}
	if update.CodeBlocks != nil {
		add("code_blocks", *update.CodeBlocks)
	}
	if update.MitreTechniques != nil {
		add("mitre_techniques", update.MitreTechniques)
	}
	if update.MitreTactics != nil {
		add("mitre_tactics", update.MitreTactics)
	}
	if update.Dependencies != nil {
		add("dependencies", update.Dependencies)
	}
	if update.RelatedTechniques != nil {
		add("related_techniques", update.RelatedTechniques)
	}

	if len(setClauses) > 0 {
		add("updated_at", time.Now())
	}

	return setClauses, args
}

// buildEntryFilter assembles a WHERE clause for list filtering.
// Returns an empty string when no filter applies.
func buildEntryFilter(filter models.EntryFilter) (string, []any) {
	var conditions []string
	var args []any

	if filter.KnowledgeType != "" {
		args = append(args, filter.KnowledgeType)
		conditions = append(conditions, fmt.Sprintf("knowledge_type = $%d", len(args)))
	}
	if len(filter.Tags) > 0 {
		args = append(args, filter.Tags)
		conditions = append(conditions, fmt.Sprintf("tags && $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR content ILIKE $%d)", len(args), len(args)))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// ============================================================================
// Helper Functions - Scan
// ============================================================================

func scanEntry(row pgx.Row) (*models.KnowledgeEntry, error) {
	var e models.KnowledgeEntry

	err := row.Scan(
		&e.ID, &e.Title, &e.Content, &e.Summary, &e.KnowledgeType, &e.Phase,
		&e.SkillLevel, &e.ConfidenceRating, &e.Author, &e.Tags, &e.References,
		&e.CodeBlocks, &e.MitreTechniques, &e.MitreTactics, &e.Dependencies,
		&e.RelatedTechniques, &e.VectorID, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan knowledge entry: %w", err)
	}

	return &e, nil
}

func collectEntries(rows pgx.Rows) ([]*models.KnowledgeEntry, error) {
	entries := make([]*models.KnowledgeEntry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating knowledge entries: %w", err)
	}
	return entries, nil
}
