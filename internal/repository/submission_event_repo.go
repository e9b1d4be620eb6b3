package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/arkode/submithub-api/internal/models"
)

// SubmissionEventRepository appends and reads submission log events. The log
// is append-only: there is deliberately no update or delete operation.
type SubmissionEventRepository interface {
	Append(ctx context.Context, event *models.SubmissionEvent) error
	// ListByAssignment returns the assignment's events newest first.
	ListByAssignment(ctx context.Context, assignmentUID string) ([]models.SubmissionEvent, error)
	ListBySubmissionUID(ctx context.Context, submissionUID string) ([]models.SubmissionEvent, error)
	CountByAssignment(ctx context.Context, assignmentUID string) (int64, error)
}

type submissionEventRepository struct {
	db *gorm.DB
}

// NewSubmissionEventRepository instantiates the repository.
func NewSubmissionEventRepository(db *gorm.DB) SubmissionEventRepository {
	return &submissionEventRepository{db: db}
}

func (r *submissionEventRepository) Append(ctx context.Context, event *models.SubmissionEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *submissionEventRepository) ListByAssignment(ctx context.Context, assignmentUID string) ([]models.SubmissionEvent, error) {
	var events []models.SubmissionEvent
	if err := r.db.WithContext(ctx).
		Where("assignment_uid = ?", assignmentUID).
		Order("id DESC").
		Find(&events).Error; err != nil {
		return nil, err
	}

	return events, nil
}

func (r *submissionEventRepository) ListBySubmissionUID(ctx context.Context, submissionUID string) ([]models.SubmissionEvent, error) {
	var events []models.SubmissionEvent
	if err := r.db.WithContext(ctx).
		Where("submission_uid = ?", submissionUID).
		Order("id ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}

	return events, nil
}

func (r *submissionEventRepository) CountByAssignment(ctx context.Context, assignmentUID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.SubmissionEvent{}).
		Where("assignment_uid = ?", assignmentUID).
		Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}
