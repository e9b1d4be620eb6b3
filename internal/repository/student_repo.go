package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/arkode/submithub-api/internal/models"
)

// StudentRepository provides read access to the roster. Create exists for
// seeding and admin tooling; the submission path never writes here.
type StudentRepository interface {
	GetByEmail(ctx context.Context, email string) (models.Student, error)
	ListByEmails(ctx context.Context, emails []string) ([]models.Student, error)
	Create(ctx context.Context, student *models.Student) error
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository instantiates the repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) GetByEmail(ctx context.Context, email string) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&student).Error; err != nil {
		return models.Student{}, err
	}

	return student, nil
}

func (r *studentRepository) ListByEmails(ctx context.Context, emails []string) ([]models.Student, error) {
	normalized := make([]string, 0, len(emails))
	for _, email := range emails {
		if trimmed := strings.ToLower(strings.TrimSpace(email)); trimmed != "" {
			normalized = append(normalized, trimmed)
		}
	}
	if len(normalized) == 0 {
		return nil, nil
	}

	var students []models.Student
	if err := r.db.WithContext(ctx).Where("email IN ?", normalized).Find(&students).Error; err != nil {
		return nil, err
	}

	return students, nil
}

func (r *studentRepository) Create(ctx context.Context, student *models.Student) error {
	student.Email = strings.ToLower(strings.TrimSpace(student.Email))
	return r.db.WithContext(ctx).Create(student).Error
}
