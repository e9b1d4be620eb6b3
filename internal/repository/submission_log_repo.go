package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/arkode/submithub-api/internal/models"
)

// SubmissionLogRepository manages the per-assignment submission log headers.
type SubmissionLogRepository interface {
	// GetOrCreate returns the log header for an assignment, creating it with
	// the base columns on first use.
	GetOrCreate(ctx context.Context, assignmentUID string) (models.SubmissionLog, error)
	UpdateColumns(ctx context.Context, logID uint, columns []models.LogColumn) error
}

type submissionLogRepository struct {
	db *gorm.DB
}

// NewSubmissionLogRepository instantiates the repository.
func NewSubmissionLogRepository(db *gorm.DB) SubmissionLogRepository {
	return &submissionLogRepository{db: db}
}

func (r *submissionLogRepository) GetOrCreate(ctx context.Context, assignmentUID string) (models.SubmissionLog, error) {
	var log models.SubmissionLog
	err := r.db.WithContext(ctx).Where("assignment_uid = ?", assignmentUID).First(&log).Error
	if err == nil {
		return log, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.SubmissionLog{}, err
	}

	columns, err := models.EncodeColumns(models.BaseColumns())
	if err != nil {
		return models.SubmissionLog{}, err
	}

	log = models.SubmissionLog{AssignmentUID: assignmentUID, Columns: columns}
	if err := r.db.WithContext(ctx).Create(&log).Error; err != nil {
		return models.SubmissionLog{}, err
	}

	return log, nil
}

func (r *submissionLogRepository) UpdateColumns(ctx context.Context, logID uint, columns []models.LogColumn) error {
	encoded, err := models.EncodeColumns(columns)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).
		Model(&models.SubmissionLog{}).
		Where("id = ?", logID).
		Update("columns", encoded).Error
}
