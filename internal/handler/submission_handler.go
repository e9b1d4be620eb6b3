package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/arkode/submithub-api/internal/dto"
	"github.com/arkode/submithub-api/internal/service"
	"github.com/arkode/submithub-api/internal/utils"
)

// SubmissionHandler manages submit and history endpoints.
type SubmissionHandler struct {
	service service.SubmissionService
	logger  zerolog.Logger
}

// NewSubmissionHandler builds a submission handler instance.
func NewSubmissionHandler(service service.SubmissionService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service: service,
		logger:  logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *SubmissionHandler) Register(router fiber.Router) {
	router.Post("", h.submit)
	router.Get("/history", h.history)
}

func (h *SubmissionHandler) submit(c *fiber.Ctx) error {
	var payload dto.SubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if payload.SubmitterEmail == "" {
		payload.SubmitterEmail = userEmailFromContext(c)
	}

	submission, err := h.service.Submit(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "submission recorded", submission)
}

func (h *SubmissionHandler) history(c *fiber.Ctx) error {
	assignmentUID := c.Query("assignment_uid")
	if assignmentUID == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "assignment_uid is required")
	}
	email := c.Query("email")
	if email == "" {
		email = userEmailFromContext(c)
	}
	if email == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "email is required")
	}

	history, err := h.service.History(c.Context(), assignmentUID, email)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission history retrieved", history)
}

func (h *SubmissionHandler) handleError(c *fiber.Ctx, err error) error {
	var fileErr *service.FileVerificationError

	switch {
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.As(err, &fileErr):
		// The whole batch aborted; the caller gets the failed files and must
		// retry the entire submission.
		return utils.SendError(c, fiber.StatusUnprocessableEntity, fileErr.Error())
	case errors.Is(err, service.ErrAssignmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrAssignmentClosed),
		errors.Is(err, service.ErrSubmitterNotEnrolled),
		errors.Is(err, service.ErrMandatoryAnswerMissing):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("submission request failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to process submission")
	}
}
