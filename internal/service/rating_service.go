package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/arkode/submithub-api/internal/dto"
	"github.com/arkode/submithub-api/internal/models"
	"github.com/arkode/submithub-api/internal/observability"
	"github.com/arkode/submithub-api/internal/repository"
)

var (
	// ErrRatingLocked indicates the rater already has a row for this
	// submission identifier. Rating rows are write-once; the caller should
	// explain immutability rather than suggest a retry.
	ErrRatingLocked = errors.New("rating already locked for this submission")
	// ErrPeerRatingDisabled indicates the assignment has no peer rating.
	ErrPeerRatingDisabled = errors.New("peer rating is not enabled for this assignment")
)

// RatingService manages the per-assignment peer rating ledger.
type RatingService interface {
	Submit(ctx context.Context, payload dto.RatingSubmitRequest) error
	Aggregate(ctx context.Context, assignmentUID, rateeName string) (dto.RatingAggregateResponse, error)
}

type ratingService struct {
	ratings     repository.PeerRatingRepository
	assignments repository.AssignmentRepository
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewRatingService constructs the peer rating ledger service.
func NewRatingService(ratings repository.PeerRatingRepository, assignments repository.AssignmentRepository, validate *validator.Validate, logger zerolog.Logger) RatingService {
	return &ratingService{
		ratings:     ratings,
		assignments: assignments,
		validator:   validate,
		logger:      logger.With().Str("component", "rating_service").Logger(),
	}
}

func (s *ratingService) Submit(ctx context.Context, payload dto.RatingSubmitRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	assignment, err := s.assignments.GetByUID(ctx, payload.AssignmentUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		return err
	}
	if !assignment.PeerRatingEnabled {
		return ErrPeerRatingDisabled
	}

	if assignment.MaxGroupSize > 0 && len(payload.Slots) > assignment.MaxGroupSize {
		return errors.New("more rating slots than group members")
	}

	// The lock check is a linear scan of the sub-store; it is scoped to one
	// assignment, so the row count stays bounded.
	raterEmail := strings.ToLower(strings.TrimSpace(payload.RaterEmail))
	rows, err := s.ratings.ListByAssignment(ctx, assignment.UID)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if row.SubmissionUID == payload.SubmissionUID && strings.ToLower(row.RaterEmail) == raterEmail {
			observability.RatingLocks().Inc()
			return ErrRatingLocked
		}
	}

	slots := make([]models.RatingSlot, 0, len(payload.Slots))
	for _, slot := range payload.Slots {
		slots = append(slots, models.RatingSlot{
			RateeName: slot.RateeName,
			Score:     slot.Score,
			Remark:    slot.Remark,
		})
	}
	encoded, err := json.Marshal(slots)
	if err != nil {
		return err
	}

	rating := models.PeerRating{
		AssignmentUID: assignment.UID,
		SubmissionUID: payload.SubmissionUID,
		RaterEmail:    raterEmail,
		RaterName:     payload.RaterName,
		Slots:         datatypes.JSON(encoded),
	}
	if err := s.ratings.Create(ctx, &rating); err != nil {
		return err
	}

	s.logger.Info().
		Str("assignment_uid", assignment.UID).
		Str("submission_uid", payload.SubmissionUID).
		Msg("peer rating recorded")

	return nil
}

// Aggregate scans every rater's row, collects the slots naming the ratee and
// returns the mean of valid scores plus the remarks. Rater identity is never
// joined into the output: anonymity is structural, not redacted after the
// fact.
func (s *ratingService) Aggregate(ctx context.Context, assignmentUID, rateeName string) (dto.RatingAggregateResponse, error) {
	rows, err := s.ratings.ListByAssignment(ctx, assignmentUID)
	if err != nil {
		return dto.RatingAggregateResponse{}, err
	}

	target := strings.ToLower(strings.TrimSpace(rateeName))
	var total float64
	var count int
	var remarks []string

	for _, row := range rows {
		for _, slot := range row.SlotList() {
			if strings.ToLower(strings.TrimSpace(slot.RateeName)) != target {
				continue
			}
			if slot.Valid() {
				total += slot.Score
				count++
			}
			if remark := strings.TrimSpace(slot.Remark); remark != "" {
				remarks = append(remarks, remark)
			}
		}
	}

	response := dto.RatingAggregateResponse{
		RateeName:   rateeName,
		RatingCount: count,
		Remarks:     remarks,
	}
	if count > 0 {
		response.AverageScore = total / float64(count)
	}

	return response, nil
}
