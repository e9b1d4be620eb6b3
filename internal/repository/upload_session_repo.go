package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/arkode/submithub-api/internal/models"
)

// UploadSessionRepository persists resumable upload session state.
type UploadSessionRepository interface {
	Create(ctx context.Context, session *models.UploadSession) error
	GetByUID(ctx context.Context, uid string) (models.UploadSession, error)
	Update(ctx context.Context, session *models.UploadSession) error
}

type uploadSessionRepository struct {
	db *gorm.DB
}

// NewUploadSessionRepository instantiates the repository.
func NewUploadSessionRepository(db *gorm.DB) UploadSessionRepository {
	return &uploadSessionRepository{db: db}
}

func (r *uploadSessionRepository) Create(ctx context.Context, session *models.UploadSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *uploadSessionRepository) GetByUID(ctx context.Context, uid string) (models.UploadSession, error) {
	var session models.UploadSession
	if err := r.db.WithContext(ctx).Where("uid = ?", uid).First(&session).Error; err != nil {
		return models.UploadSession{}, err
	}

	return session, nil
}

func (r *uploadSessionRepository) Update(ctx context.Context, session *models.UploadSession) error {
	return r.db.WithContext(ctx).Save(session).Error
}
