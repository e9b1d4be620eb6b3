package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/arkode/submithub-api/internal/dto"
	"github.com/arkode/submithub-api/internal/models"
	"github.com/arkode/submithub-api/internal/repository"
	"github.com/arkode/submithub-api/pkg/blobstore"
)

// ErrAssignmentNotFound indicates the assignment does not exist.
var ErrAssignmentNotFound = errors.New("assignment not found")

// AssignmentService manages assignment records and the external handles
// provisioned at creation time.
type AssignmentService interface {
	Create(ctx context.Context, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error)
	Update(ctx context.Context, uid string, payload dto.AssignmentUpdateRequest) (dto.AssignmentResponse, error)
	Get(ctx context.Context, uid string) (dto.AssignmentResponse, error)
	List(ctx context.Context, filter repository.AssignmentFilter) ([]dto.AssignmentResponse, error)
	Archive(ctx context.Context, uid string) error
}

type assignmentService struct {
	assignments repository.AssignmentRepository
	logs        repository.SubmissionLogRepository
	store       blobstore.Store
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewAssignmentService constructs the assignment service.
func NewAssignmentService(assignments repository.AssignmentRepository, logs repository.SubmissionLogRepository, store blobstore.Store, validate *validator.Validate, logger zerolog.Logger) AssignmentService {
	return &assignmentService{
		assignments: assignments,
		logs:        logs,
		store:       store,
		validator:   validate,
		logger:      logger.With().Str("component", "assignment_service").Logger(),
	}
}

// Create mints the assignment identifier, provisions the submission log and
// the upload/instructor containers, and persists their handles. The handles
// are set here exactly once; no later update can reassign them.
func (s *assignmentService) Create(ctx context.Context, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	questions, err := encodeQuestions(payload.Questions)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment := models.Assignment{
		UID:               uuid.NewString(),
		Title:             payload.Title,
		Cohort:            payload.Cohort,
		Term:              payload.Term,
		Subject:           payload.Subject,
		Published:         payload.Published,
		Status:            models.AssignmentStatusActive,
		GroupMode:         payload.GroupMode,
		PeerRatingEnabled: payload.GroupMode && payload.PeerRatingEnabled,
		MaxGroupSize:      payload.MaxGroupSize,
		Questions:         questions,
	}

	uploadFolder, err := s.store.FindOrCreateContainer(ctx, assignment.UID, "submissions")
	if err != nil {
		return dto.AssignmentResponse{}, fmt.Errorf("failed to provision upload folder: %w", err)
	}
	instructorFolder, err := s.store.FindOrCreateContainer(ctx, assignment.UID, "instructor-files")
	if err != nil {
		return dto.AssignmentResponse{}, fmt.Errorf("failed to provision instructor folder: %w", err)
	}
	assignment.UploadFolderHandle = uploadFolder.Handle
	assignment.InstructorFolderHandle = instructorFolder.Handle

	if err := s.assignments.Create(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	log, err := s.logs.GetOrCreate(ctx, assignment.UID)
	if err != nil {
		return dto.AssignmentResponse{}, fmt.Errorf("failed to provision submission log: %w", err)
	}
	assignment.SubmissionLogHandle = fmt.Sprintf("log:%d", log.ID)
	if err := s.assignments.Update(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().Str("assignment_uid", assignment.UID).Msg("assignment created")

	return dto.NewAssignmentResponse(assignment), nil
}

// Update applies mutable fields only. The stored handles always survive, even
// if a stale caller tries to blank or replace them.
func (s *assignmentService) Update(ctx context.Context, uid string, payload dto.AssignmentUpdateRequest) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment, err := s.assignments.GetByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	if payload.Title != nil {
		assignment.Title = *payload.Title
	}
	if payload.Term != nil {
		assignment.Term = *payload.Term
	}
	if payload.Subject != nil {
		assignment.Subject = *payload.Subject
	}
	if payload.Published != nil {
		assignment.Published = *payload.Published
	}
	if payload.GroupMode != nil {
		assignment.GroupMode = *payload.GroupMode
	}
	if payload.PeerRatingEnabled != nil {
		assignment.PeerRatingEnabled = assignment.GroupMode && *payload.PeerRatingEnabled
	}
	if payload.MaxGroupSize != nil {
		assignment.MaxGroupSize = *payload.MaxGroupSize
	}
	if payload.Questions != nil {
		questions, err := encodeQuestions(payload.Questions)
		if err != nil {
			return dto.AssignmentResponse{}, err
		}
		assignment.Questions = questions
	}

	if err := s.assignments.Update(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Get(ctx context.Context, uid string) (dto.AssignmentResponse, error) {
	assignment, err := s.assignments.GetByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) List(ctx context.Context, filter repository.AssignmentFilter) ([]dto.AssignmentResponse, error) {
	assignments, err := s.assignments.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return dto.NewAssignmentResponseSlice(assignments), nil
}

// Archive soft-deletes: the status flag flips, the record and its submission
// history stay.
func (s *assignmentService) Archive(ctx context.Context, uid string) error {
	assignment, err := s.assignments.GetByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		return err
	}

	assignment.Status = models.AssignmentStatusArchived
	assignment.Published = false

	return s.assignments.Update(ctx, &assignment)
}

func encodeQuestions(payloads []dto.QuestionPayload) (datatypes.JSON, error) {
	if len(payloads) > models.MaxQuestions {
		return nil, fmt.Errorf("at most %d questions are allowed", models.MaxQuestions)
	}
	questions := make([]models.Question, 0, len(payloads))
	for _, payload := range payloads {
		questions = append(questions, models.Question{Text: payload.Text, Mandatory: payload.Mandatory})
	}
	encoded, err := json.Marshal(questions)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(encoded), nil
}
