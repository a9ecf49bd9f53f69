package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/smart-ats/internal/models"
)

var ErrBatchNotFound = errors.New("batch not found")

type BatchRepository interface {
	Create(batch *models.ScreeningBatch) error
	AddResult(result *models.ResumeResult) error
	MarkProcessing(id uuid.UUID) error
	Complete(id uuid.UUID, data *BatchCompletion) error
	Fail(id uuid.UUID, successCount int, errorCode, errorMsg string) error
	FailUnfinished(errorCode, errorMsg string) (int64, error)
	FindByID(id uuid.UUID) (*models.ScreeningBatch, error)
}

// BatchCompletion carries the values written when a batch finishes with a report.
type BatchCompletion struct {
	SuccessCount     int
	BestFilename     string
	BestMatchPercent string
	ReportKey        string
}

type batchRepository struct {
	db *gorm.DB
}

func NewBatchRepository(db *gorm.DB) BatchRepository {
	return &batchRepository{db: db}
}

func (r *batchRepository) Create(batch *models.ScreeningBatch) error {
	if err := r.db.Create(batch).Error; err != nil {
		return fmt.Errorf("failed to create batch: %w", err)
	}
	return nil
}

func (r *batchRepository) AddResult(result *models.ResumeResult) error {
	if err := r.db.Create(result).Error; err != nil {
		return fmt.Errorf("failed to save resume result: %w", err)
	}
	return nil
}

func (r *batchRepository) MarkProcessing(id uuid.UUID) error {
	updates := map[string]interface{}{
		"status":     models.StatusProcessing,
		"updated_at": time.Now(),
	}

	return r.update(id, updates)
}

func (r *batchRepository) Complete(id uuid.UUID, data *BatchCompletion) error {
	updates := map[string]interface{}{
		"status":             models.StatusCompleted,
		"success_count":      data.SuccessCount,
		"best_filename":      data.BestFilename,
		"best_match_percent": data.BestMatchPercent,
		"report_key":         data.ReportKey,
		"updated_at":         time.Now(),
	}

	return r.update(id, updates)
}

func (r *batchRepository) Fail(id uuid.UUID, successCount int, errorCode, errorMsg string) error {
	updates := map[string]interface{}{
		"status":        models.StatusFailed,
		"success_count": successCount,
		"error_code":    errorCode,
		"error_message": errorMsg,
		"updated_at":    time.Now(),
	}

	return r.update(id, updates)
}

// FailUnfinished marks every queued or processing batch as failed and returns
// how many were changed.
func (r *batchRepository) FailUnfinished(errorCode, errorMsg string) (int64, error) {
	result := r.db.Model(&models.ScreeningBatch{}).
		Where("status IN ?", []models.BatchStatus{models.StatusQueued, models.StatusProcessing}).
		Updates(map[string]interface{}{
			"status":        models.StatusFailed,
			"error_code":    errorCode,
			"error_message": errorMsg,
			"updated_at":    time.Now(),
		})

	if result.Error != nil {
		return 0, fmt.Errorf("failed to fail unfinished batches: %w", result.Error)
	}

	return result.RowsAffected, nil
}

func (r *batchRepository) update(id uuid.UUID, updates map[string]interface{}) error {
	result := r.db.Model(&models.ScreeningBatch{}).
		Where("id = ?", id).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("failed to update batch: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrBatchNotFound
	}

	return nil
}

func (r *batchRepository) FindByID(id uuid.UUID) (*models.ScreeningBatch, error) {
	var batch models.ScreeningBatch
	err := r.db.
		Preload("Results", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id = ?", id).
		First(&batch).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBatchNotFound
		}
		return nil, fmt.Errorf("failed to find batch: %w", err)
	}
	return &batch, nil
}
