package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/arkode/submithub-api/internal/models"
)

// PeerRatingRepository manages the per-assignment peer rating sub-store.
// Rows are write-once: there is no update or delete operation.
type PeerRatingRepository interface {
	Create(ctx context.Context, rating *models.PeerRating) error
	ListByAssignment(ctx context.Context, assignmentUID string) ([]models.PeerRating, error)
}

type peerRatingRepository struct {
	db *gorm.DB
}

// NewPeerRatingRepository instantiates the repository.
func NewPeerRatingRepository(db *gorm.DB) PeerRatingRepository {
	return &peerRatingRepository{db: db}
}

func (r *peerRatingRepository) Create(ctx context.Context, rating *models.PeerRating) error {
	return r.db.WithContext(ctx).Create(rating).Error
}

func (r *peerRatingRepository) ListByAssignment(ctx context.Context, assignmentUID string) ([]models.PeerRating, error) {
	var ratings []models.PeerRating
	if err := r.db.WithContext(ctx).
		Where("assignment_uid = ?", assignmentUID).
		Order("id ASC").
		Find(&ratings).Error; err != nil {
		return nil, err
	}

	return ratings, nil
}
