package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abyssal-labs/archive-engine/pkg/apperrors"
	"github.com/abyssal-labs/archive-engine/pkg/models"
	"github.com/abyssal-labs/archive-engine/pkg/repositories"
	"github.com/abyssal-labs/archive-engine/pkg/services/workqueue"
)

// IngestService accepts ingestion submissions and runs them asynchronously.
// A submission creates a pending job and returns immediately; a background
// task drives the job through processing to a terminal state.
type IngestService struct {
	jobs    repositories.JobRepository
	entries repositories.EntryRepository
	oracle  *OracleService
	fetcher Acquirer
	indexer EntryIndexer
	queue   *workqueue.Queue
	logger  *zap.Logger
}

// NewIngestService creates the ingestion service.
func NewIngestService(
	jobs repositories.JobRepository,
	entries repositories.EntryRepository,
	oracle *OracleService,
	fetcher Acquirer,
	indexer EntryIndexer,
	queue *workqueue.Queue,
	logger *zap.Logger,
) *IngestService {
	return &IngestService{
		jobs:    jobs,
		entries: entries,
		oracle:  oracle,
		fetcher: fetcher,
		indexer: indexer,
		queue:   queue,
		logger:  logger.Named("ingest"),
	}
}

// Submit validates the submission, persists a pending job, and schedules the
// processing task. Exactly one task is enqueued per job.
func (s *IngestService) Submit(ctx context.Context, sourceURL, sourceText *string, knowledgeType string) (*models.IngestJob, error) {
	hasURL := sourceURL != nil && strings.TrimSpace(*sourceURL) != ""
	hasText := sourceText != nil && strings.TrimSpace(*sourceText) != ""
	if !hasURL && !hasText {
		return nil, fmt.Errorf("%w: must provide source_url or source_text", apperrors.ErrMissingSource)
	}
	if knowledgeType != "" && !models.IsValidKnowledgeType(knowledgeType) {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidType, knowledgeType)
	}

	job := &models.IngestJob{
		SourceURL:  sourceURL,
		SourceText: sourceText,
		Status:     models.JobStatusPending,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}

	s.queue.Enqueue(&IngestTask{
		BaseTask: workqueue.NewBaseTask(fmt.Sprintf("ingest-%s", job.ID), true),
		svc:      s,
		jobID:    job.ID,
		typeHint: knowledgeType,
	})

	s.logger.Info("ingest job submitted",
		zap.String("job_id", job.ID.String()),
		zap.Bool("from_url", hasURL),
		zap.String("type_hint", knowledgeType))

	return job, nil
}

// GetJob returns a job by ID.
func (s *IngestService) GetJob(ctx context.Context, id uuid.UUID) (*models.IngestJob, error) {
	return s.jobs.Get(ctx, id)
}

// ListJobs returns the most recent jobs, newest first.
func (s *IngestService) ListJobs(ctx context.Context) ([]*models.IngestJob, error) {
	return s.jobs.ListRecent(ctx, 100)
}

// QueueStatus reports lifetime counters for the background ingest queue.
func (s *IngestService) QueueStatus() workqueue.Progress {
	return s.queue.Progress()
}

// IngestTask processes a single ingest job: acquire text, structure it through
// the oracle, persist the entry, index it, and close out the job.
type IngestTask struct {
	workqueue.BaseTask
	svc      *IngestService
	jobID    uuid.UUID
	typeHint string
}

// Execute implements workqueue.Task. Every failure path marks the job failed;
// the returned error only feeds queue logging, never the job state machine.
// A panic anywhere in the pipeline is caught here so the job still reaches a
// terminal state instead of sticking in processing.
func (t *IngestTask) Execute(ctx context.Context, _ workqueue.TaskEnqueuer) (err error) {
	s := t.svc

	defer func() {
		if r := recover(); r != nil {
			err = t.fail(ctx, fmt.Errorf("ingest pipeline panicked: %v", r))
		}
	}()

	job, err := s.jobs.Get(ctx, t.jobID)
	if err != nil {
		// A vanished job has nothing to report against.
		s.logger.Warn("ingest job missing at execution time",
			zap.String("job_id", t.jobID.String()),
			zap.Error(err))
		return nil
	}

	if err := s.jobs.MarkProcessing(ctx, t.jobID); err != nil {
		// Terminal or already claimed; leave it alone.
		s.logger.Warn("ingest job not claimable",
			zap.String("job_id", t.jobID.String()),
			zap.Error(err))
		return nil
	}

	rawText, err := s.fetcher.Acquire(ctx, job)
	if err != nil {
		return t.fail(ctx, fmt.Errorf("acquire content: %w", err))
	}

	structured, err := s.oracle.StructureContent(ctx, rawText, t.typeHint)
	if err != nil {
		return t.fail(ctx, err)
	}

	entry := buildEntry(structured, rawText, job)
	if err := s.entries.Create(ctx, entry); err != nil {
		return t.fail(ctx, fmt.Errorf("persist entry: %w", err))
	}

	// Indexing is best-effort: a degraded vector index must not fail the job.
	if result := s.indexer.Index(ctx, entry); result.Indexed {
		if err := s.entries.SetVectorID(ctx, entry.ID, entry.ID.String()); err != nil {
			s.logger.Warn("failed to record vector id",
				zap.String("entry_id", entry.ID.String()),
				zap.Error(err))
		}
	} else {
		s.logger.Warn("entry not indexed",
			zap.String("entry_id", entry.ID.String()),
			zap.String("reason", result.Skipped))
	}

	if err := s.jobs.MarkCompleted(ctx, t.jobID, entry.ID); err != nil {
		s.logger.Error("failed to mark job completed",
			zap.String("job_id", t.jobID.String()),
			zap.Error(err))
		return err
	}

	s.logger.Info("ingest job completed",
		zap.String("job_id", t.jobID.String()),
		zap.String("entry_id", entry.ID.String()))
	return nil
}

// fail records the failure on the job, truncated to the stored limit.
func (t *IngestTask) fail(ctx context.Context, cause error) error {
	s := t.svc
	if err := s.jobs.MarkFailed(ctx, t.jobID, repositories.TruncateError(cause.Error())); err != nil {
		s.logger.Error("failed to mark job failed",
			zap.String("job_id", t.jobID.String()),
			zap.Error(err))
	}
	s.logger.Warn("ingest job failed",
		zap.String("job_id", t.jobID.String()),
		zap.Error(cause))
	return cause
}

// buildEntry converts the oracle output into a persistable entry, applying the
// defaults and clamps that keep malformed oracle output from poisoning the
// archive.
func buildEntry(structured *StructuredEntry, rawText string, job *models.IngestJob) *models.KnowledgeEntry {
	title := structured.Title
	if strings.TrimSpace(title) == "" {
		title = "Untitled"
	}

	content := structured.Content
	if strings.TrimSpace(content) == "" {
		content = rawText
	}

	knowledgeType := structured.KnowledgeType
	if !models.IsValidKnowledgeType(knowledgeType) {
		knowledgeType = "writeup"
	}

	references := []string{}
	if job.SourceURL != nil && *job.SourceURL != "" {
		references = append(references, *job.SourceURL)
	}

	var summary *string
	if structured.Summary != "" {
		summary = &structured.Summary
	}

	return &models.KnowledgeEntry{
		Title:            title,
		Content:          content,
		Summary:          summary,
		KnowledgeType:    knowledgeType,
		SkillLevel:       clampInt(structured.SkillLevel, 1, 5),
		ConfidenceRating: clampFloat(structured.ConfidenceRating, 0, 5),
		Tags:             nonNil(structured.Tags),
		References:       references,
		MitreTechniques:  nonNil(structured.MitreTechniques),
		MitreTactics:     nonNil(structured.MitreTactics),
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
