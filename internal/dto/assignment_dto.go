package dto

import (
	"time"

	"github.com/arkode/submithub-api/internal/models"
)

// QuestionPayload carries one question definition on create/update requests.
type QuestionPayload struct {
	Text      string `json:"text" validate:"required"`
	Mandatory bool   `json:"mandatory"`
}

// AssignmentCreateRequest is the payload for creating an assignment.
type AssignmentCreateRequest struct {
	Title             string            `json:"title" validate:"required"`
	Cohort            string            `json:"cohort" validate:"required"`
	Term              string            `json:"term"`
	Subject           string            `json:"subject"`
	Published         bool              `json:"published"`
	GroupMode         bool              `json:"group_mode"`
	PeerRatingEnabled bool              `json:"peer_rating_enabled"`
	MaxGroupSize      int               `json:"max_group_size" validate:"min=0,max=20"`
	Questions         []QuestionPayload `json:"questions" validate:"max=20,dive"`
}

// AssignmentUpdateRequest is the payload for updating mutable assignment
// fields. The external handles are deliberately absent: they cannot be
// reassigned through any update.
type AssignmentUpdateRequest struct {
	Title             *string           `json:"title"`
	Term              *string           `json:"term"`
	Subject           *string           `json:"subject"`
	Published         *bool             `json:"published"`
	GroupMode         *bool             `json:"group_mode"`
	PeerRatingEnabled *bool             `json:"peer_rating_enabled"`
	MaxGroupSize      *int              `json:"max_group_size"`
	Questions         []QuestionPayload `json:"questions" validate:"max=20,dive"`
}

// AssignmentResponse is the API shape of an assignment.
type AssignmentResponse struct {
	UID               string            `json:"uid"`
	Title             string            `json:"title"`
	Cohort            string            `json:"cohort"`
	Term              string            `json:"term"`
	Subject           string            `json:"subject"`
	Published         bool              `json:"published"`
	Status            string            `json:"status"`
	GroupMode         bool              `json:"group_mode"`
	PeerRatingEnabled bool              `json:"peer_rating_enabled"`
	MaxGroupSize      int               `json:"max_group_size"`
	Questions         []models.Question `json:"questions"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// NewAssignmentResponse maps a model to its API shape.
func NewAssignmentResponse(assignment models.Assignment) AssignmentResponse {
	return AssignmentResponse{
		UID:               assignment.UID,
		Title:             assignment.Title,
		Cohort:            assignment.Cohort,
		Term:              assignment.Term,
		Subject:           assignment.Subject,
		Published:         assignment.Published,
		Status:            assignment.Status,
		GroupMode:         assignment.GroupMode,
		PeerRatingEnabled: assignment.PeerRatingEnabled,
		MaxGroupSize:      assignment.MaxGroupSize,
		Questions:         assignment.QuestionList(),
		CreatedAt:         assignment.CreatedAt,
		UpdatedAt:         assignment.UpdatedAt,
	}
}

// NewAssignmentResponseSlice maps a slice of models to API shapes.
func NewAssignmentResponseSlice(assignments []models.Assignment) []AssignmentResponse {
	responses := make([]AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, NewAssignmentResponse(assignment))
	}
	return responses
}
