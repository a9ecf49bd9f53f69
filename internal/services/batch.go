package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/smart-ats/internal/logger"
	"alfredoptarigan/smart-ats/internal/models"
	"alfredoptarigan/smart-ats/internal/repositories"
)

type BatchRequest struct {
	APIKey         string
	JobDescription string
	Resumes        []models.ResumeSubmission
}

// BatchJob is a recorded batch waiting for a worker. It holds the uploads in
// memory until the batch has been screened.
type BatchJob struct {
	BatchID        uuid.UUID
	JobDescription string
	Resumes        []models.ResumeSubmission

	client EvaluationClient
}

// Failure codes stored on a failed batch.
const (
	FailureNoEvaluation = "no_successful_evaluation"
	FailureRender       = "render_failed"
	FailureStorage      = "storage_failed"
	FailureNotProcessed = "not_processed"
	FailureInterrupted  = "interrupted"
	FailureBatch        = "batch_failed"
)

const interruptedBatchNote = "batch was interrupted by a server restart"

type BatchService interface {
	BatchProcessor
	HasCredential(apiKey string) bool
	Submit(ctx context.Context, req BatchRequest) (*BatchJob, error)
	RecoverUnfinished() (int64, error)
	Get(ctx context.Context, id uuid.UUID) (*models.ScreeningBatch, error)
	Report(ctx context.Context, id uuid.UUID) ([]byte, error)
}

type batchService struct {
	repo          repositories.BatchRepository
	storage       StorageService
	notifier      BatchNotifier
	screener      *Screener
	clientFactory ClientFactory
	defaultAPIKey string
	logger        *zap.Logger
}

func NewBatchService(
	repo repositories.BatchRepository,
	storage StorageService,
	notifier BatchNotifier,
	screener *Screener,
	clientFactory ClientFactory,
	defaultAPIKey string,
	log *zap.Logger,
) BatchService {
	if notifier == nil {
		notifier = NewNopNotifier()
	}
	return &batchService{
		repo:          repo,
		storage:       storage,
		notifier:      notifier,
		screener:      screener,
		clientFactory: clientFactory,
		defaultAPIKey: strings.TrimSpace(defaultAPIKey),
		logger:        logger.OrNop(log),
	}
}

func (s *batchService) resolveAPIKey(apiKey string) string {
	if key := strings.TrimSpace(apiKey); key != "" {
		return key
	}
	return s.defaultAPIKey
}

// HasCredential reports whether a batch submitted with apiKey could run,
// either with that key or with the configured default.
func (s *batchService) HasCredential(apiKey string) bool {
	return s.resolveAPIKey(apiKey) != ""
}

// Submit records a queued batch and returns the job to hand to a Worker. A
// missing credential halts before anything is created.
func (s *batchService) Submit(ctx context.Context, req BatchRequest) (*BatchJob, error) {
	apiKey := s.resolveAPIKey(req.APIKey)
	if apiKey == "" {
		return nil, ErrCredentialMissing
	}

	client, err := s.clientFactory(ctx, apiKey)
	if err != nil {
		if errors.Is(err, ErrCredentialMissing) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create evaluation client: %w", err)
	}

	batch := &models.ScreeningBatch{
		ID:             uuid.New(),
		JobDescription: req.JobDescription,
		Model:          client.Model(),
		Status:         models.StatusQueued,
		ResumeCount:    len(req.Resumes),
	}
	if err := s.repo.Create(batch); err != nil {
		return nil, err
	}

	s.logger.Info("screening batch queued",
		zap.String(logger.FieldBatchID, batch.ID.String()),
		zap.Int("resumes", batch.ResumeCount),
	)

	return &BatchJob{
		BatchID:        batch.ID,
		JobDescription: req.JobDescription,
		Resumes:        req.Resumes,
		client:         client,
	}, nil
}

// Process screens a queued batch. The returned outcome is non-nil whenever
// screening ran, including when the error is ErrEmptyBatch or a *RenderError.
func (s *batchService) Process(ctx context.Context, job *BatchJob) (*BatchOutcome, error) {
	log := s.logger.With(zap.String(logger.FieldBatchID, job.BatchID.String()))
	resumeCount := len(job.Resumes)

	if err := s.repo.MarkProcessing(job.BatchID); err != nil {
		return nil, err
	}
	log.Info("screening batch started", zap.Int("resumes", resumeCount))
	s.publish(ctx, BatchEvent{
		BatchID:     job.BatchID,
		Status:      models.StatusProcessing,
		ResumeCount: resumeCount,
	}, log)

	resumes := job.Resumes
	job.Resumes = nil

	outcome, screenErr := s.screener.Screen(ctx, job.client, job.JobDescription, resumes)

	s.saveResults(job.BatchID, outcome, log)
	successCount := outcome.SuccessCount()

	if screenErr != nil {
		s.fail(ctx, job.BatchID, resumeCount, successCount, failureCode(screenErr), screenErr, log)
		return outcome, screenErr
	}

	key, err := s.storage.SaveReport(ctx, job.BatchID, outcome.Report)
	if err != nil {
		err = fmt.Errorf("failed to store report: %w", err)
		s.fail(ctx, job.BatchID, resumeCount, successCount, FailureStorage, err, log)
		return outcome, err
	}

	completion := &repositories.BatchCompletion{
		SuccessCount:     successCount,
		BestFilename:     outcome.Best.Filename,
		BestMatchPercent: outcome.Best.Record.MatchPercent,
		ReportKey:        key,
	}
	if err := s.repo.Complete(job.BatchID, completion); err != nil {
		return outcome, err
	}

	log.Info("screening batch completed",
		zap.Int("evaluated", successCount),
		zap.String(logger.FieldFilename, outcome.Best.Filename),
	)

	s.publish(ctx, BatchEvent{
		BatchID:          job.BatchID,
		Status:           models.StatusCompleted,
		ResumeCount:      resumeCount,
		SuccessCount:     successCount,
		BestFilename:     outcome.Best.Filename,
		BestMatchPercent: outcome.Best.Record.MatchPercent,
	}, log)

	return outcome, nil
}

// Abandon marks a queued batch as failed without screening it.
func (s *batchService) Abandon(job *BatchJob, cause error) {
	log := s.logger.With(zap.String(logger.FieldBatchID, job.BatchID.String()))
	resumeCount := len(job.Resumes)
	job.Resumes = nil

	s.fail(context.Background(), job.BatchID, resumeCount, 0, FailureNotProcessed, cause, log)
}

// RecoverUnfinished fails batches left queued or processing by a previous
// run. Their uploads only lived in memory, so they cannot be resumed.
func (s *batchService) RecoverUnfinished() (int64, error) {
	n, err := s.repo.FailUnfinished(FailureInterrupted, interruptedBatchNote)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Warn("failed interrupted batches", zap.Int64("count", n))
	}
	return n, nil
}

func failureCode(err error) string {
	var renderErr *RenderError
	switch {
	case errors.Is(err, ErrEmptyBatch):
		return FailureNoEvaluation
	case errors.As(err, &renderErr):
		return FailureRender
	default:
		return FailureBatch
	}
}

func (s *batchService) saveResults(batchID uuid.UUID, outcome *BatchOutcome, log *zap.Logger) {
	for i, r := range outcome.Results {
		row := &models.ResumeResult{
			BatchID:  batchID,
			Position: i,
			Filename: r.Filename,
			Status:   r.Status,
			Stage:    r.Stage,
		}
		if r.Record != nil {
			row.MatchPercent = r.Record.MatchPercent
			row.MissingKeywords = r.Record.MissingKeywords
			row.ProfileSummary = r.Record.ProfileSummary
			row.Suggestions = r.Record.Suggestions
		}
		if r.Err != nil {
			row.ErrorMessage = r.Err.Error()
		}

		if err := s.repo.AddResult(row); err != nil {
			log.Error("failed to save resume result", zap.String(logger.FieldFilename, r.Filename), zap.Error(err))
		}
	}
}

func (s *batchService) fail(ctx context.Context, batchID uuid.UUID, resumeCount, successCount int, code string, cause error, log *zap.Logger) {
	log.Warn("screening batch failed", zap.String("code", code), zap.Error(cause))

	if err := s.repo.Fail(batchID, successCount, code, cause.Error()); err != nil {
		log.Error("failed to mark batch as failed", zap.Error(err))
	}

	s.publish(ctx, BatchEvent{
		BatchID:      batchID,
		Status:       models.StatusFailed,
		ResumeCount:  resumeCount,
		SuccessCount: successCount,
		Error:        cause.Error(),
		ErrorCode:    code,
	}, log)
}

// publish never fails the batch; delivery problems are only logged.
func (s *batchService) publish(ctx context.Context, event BatchEvent, log *zap.Logger) {
	event.Timestamp = time.Now().UTC()
	if err := s.notifier.Publish(ctx, event); err != nil {
		log.Warn("failed to publish batch event", zap.Error(err))
	}
}

func (s *batchService) Get(ctx context.Context, id uuid.UUID) (*models.ScreeningBatch, error) {
	return s.repo.FindByID(id)
}

func (s *batchService) Report(ctx context.Context, id uuid.UUID) ([]byte, error) {
	batch, err := s.repo.FindByID(id)
	if err != nil {
		return nil, err
	}

	if batch.Status != models.StatusCompleted || batch.ReportKey == nil || *batch.ReportKey == "" {
		return nil, ErrReportNotFound
	}

	return s.storage.OpenReport(ctx, *batch.ReportKey)
}
