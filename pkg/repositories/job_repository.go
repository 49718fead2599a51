package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/abyssal-labs/archive-engine/pkg/apperrors"
	"github.com/abyssal-labs/archive-engine/pkg/database"
	"github.com/abyssal-labs/archive-engine/pkg/models"
)

// maxJobErrorLen bounds the stored failure description of a job.
const maxJobErrorLen = 500

const jobColumns = `id, source_url, source_text, status, result_entry_id, error, created_at, updated_at`

// JobRepository provides data access for ingest jobs. Status mutators are
// guarded in SQL so terminal states are absorbing: a completed or failed job
// can never transition again, and a job can only enter processing from pending.
type JobRepository interface {
	Create(ctx context.Context, job *models.IngestJob) error
	Get(ctx context.Context, id uuid.UUID) (*models.IngestJob, error)
	MarkProcessing(ctx context.Context, id uuid.UUID) error
	MarkCompleted(ctx context.Context, id, entryID uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
	ListRecent(ctx context.Context, limit int) ([]*models.IngestJob, error)
}

type jobRepository struct {
	db *database.DB
}

// NewJobRepository creates a new JobRepository.
func NewJobRepository(db *database.DB) JobRepository {
	return &jobRepository{db: db}
}

var _ JobRepository = (*jobRepository)(nil)

func (r *jobRepository) Create(ctx context.Context, job *models.IngestJob) error {
	now := time.Now()
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.Status == "" {
		job.Status = models.JobStatusPending
	}
	job.CreatedAt = now
	job.UpdatedAt = now

	query := `
		INSERT INTO ingest_jobs (id, source_url, source_text, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(ctx, query,
		job.ID, job.SourceURL, job.SourceText, job.Status, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create ingest job: %w", err)
	}

	return nil
}

func (r *jobRepository) Get(ctx context.Context, id uuid.UUID) (*models.IngestJob, error) {
	query := `SELECT ` + jobColumns + ` FROM ingest_jobs WHERE id = $1`

	job, err := scanJob(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

func (r *jobRepository) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx,
		`UPDATE ingest_jobs SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		models.JobStatusProcessing, time.Now(), id, models.JobStatusPending,
	)
	if err != nil {
		return fmt.Errorf("failed to mark job processing: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrJobTerminal
	}
	return nil
}

func (r *jobRepository) MarkCompleted(ctx context.Context, id, entryID uuid.UUID) error {
	result, err := r.db.Exec(ctx,
		`UPDATE ingest_jobs SET status = $1, result_entry_id = $2, updated_at = $3
		 WHERE id = $4 AND status = $5`,
		models.JobStatusCompleted, entryID, time.Now(), id, models.JobStatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("failed to mark job completed: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrJobTerminal
	}
	return nil
}

func (r *jobRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	result, err := r.db.Exec(ctx,
		`UPDATE ingest_jobs SET status = $1, error = $2, updated_at = $3
		 WHERE id = $4 AND status IN ($5, $6)`,
		models.JobStatusFailed, TruncateError(errMsg), time.Now(), id,
		models.JobStatusPending, models.JobStatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("failed to mark job failed: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrJobTerminal
	}
	return nil
}

func (r *jobRepository) ListRecent(ctx context.Context, limit int) ([]*models.IngestJob, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+jobColumns+` FROM ingest_jobs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingest jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]*models.IngestJob, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ingest jobs: %w", err)
	}

	return jobs, nil
}

// TruncateError bounds a failure description to the stored limit, backing up
// to a rune boundary. Postgres rejects TEXT values with a split multi-byte
// sequence, and that rejection would strand the job in processing.
func TruncateError(msg string) string {
	if len(msg) <= maxJobErrorLen {
		return msg
	}
	cut := maxJobErrorLen
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut]
}

func scanJob(row pgx.Row) (*models.IngestJob, error) {
	var j models.IngestJob

	err := row.Scan(
		&j.ID, &j.SourceURL, &j.SourceText, &j.Status, &j.ResultEntryID,
		&j.Error, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan ingest job: %w", err)
	}

	return &j, nil
}
