package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/arkode/submithub-api/internal/models"
)

// MasterIndexRepository manages the global cross-assignment index. Lookups go
// through the unique row key so repeated submissions by the same party always
// resolve to the same row.
type MasterIndexRepository interface {
	GetByRowKey(ctx context.Context, rowKey string) (models.MasterIndexEntry, error)
	GetByID(ctx context.Context, id uint) (models.MasterIndexEntry, error)
	Create(ctx context.Context, entry *models.MasterIndexEntry) error
	Update(ctx context.Context, entry *models.MasterIndexEntry) error
	ListByAssignee(ctx context.Context, assigneeKey string) ([]models.MasterIndexEntry, error)
	ListByAssignment(ctx context.Context, assignmentUID string) ([]models.MasterIndexEntry, error)
}

type masterIndexRepository struct {
	db *gorm.DB
}

// NewMasterIndexRepository instantiates the repository.
func NewMasterIndexRepository(db *gorm.DB) MasterIndexRepository {
	return &masterIndexRepository{db: db}
}

func (r *masterIndexRepository) GetByRowKey(ctx context.Context, rowKey string) (models.MasterIndexEntry, error) {
	var entry models.MasterIndexEntry
	if err := r.db.WithContext(ctx).Where("row_key = ?", rowKey).First(&entry).Error; err != nil {
		return models.MasterIndexEntry{}, err
	}

	return entry, nil
}

func (r *masterIndexRepository) GetByID(ctx context.Context, id uint) (models.MasterIndexEntry, error) {
	var entry models.MasterIndexEntry
	if err := r.db.WithContext(ctx).First(&entry, id).Error; err != nil {
		return models.MasterIndexEntry{}, err
	}

	return entry, nil
}

func (r *masterIndexRepository) Create(ctx context.Context, entry *models.MasterIndexEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *masterIndexRepository) Update(ctx context.Context, entry *models.MasterIndexEntry) error {
	return r.db.WithContext(ctx).Save(entry).Error
}

func (r *masterIndexRepository) ListByAssignee(ctx context.Context, assigneeKey string) ([]models.MasterIndexEntry, error) {
	var entries []models.MasterIndexEntry
	if err := r.db.WithContext(ctx).
		Where("assignee_key = ?", assigneeKey).
		Order("last_edited_at DESC").
		Find(&entries).Error; err != nil {
		return nil, err
	}

	return entries, nil
}

func (r *masterIndexRepository) ListByAssignment(ctx context.Context, assignmentUID string) ([]models.MasterIndexEntry, error) {
	var entries []models.MasterIndexEntry
	if err := r.db.WithContext(ctx).
		Where("assignment_uid = ?", assignmentUID).
		Order("last_edited_at DESC").
		Find(&entries).Error; err != nil {
		return nil, err
	}

	return entries, nil
}
