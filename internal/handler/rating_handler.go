package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/arkode/submithub-api/internal/dto"
	"github.com/arkode/submithub-api/internal/service"
	"github.com/arkode/submithub-api/internal/utils"
)

// RatingHandler manages peer rating endpoints.
type RatingHandler struct {
	service service.RatingService
	logger  zerolog.Logger
}

// NewRatingHandler builds a rating handler instance.
func NewRatingHandler(service service.RatingService, logger zerolog.Logger) *RatingHandler {
	return &RatingHandler{
		service: service,
		logger:  logger.With().Str("component", "rating_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *RatingHandler) Register(router fiber.Router) {
	router.Post("", h.submit)
	router.Get("/aggregate", h.aggregate)
}

func (h *RatingHandler) submit(c *fiber.Ctx) error {
	var payload dto.RatingSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if payload.RaterEmail == "" {
		payload.RaterEmail = userEmailFromContext(c)
	}

	if err := h.service.Submit(c.Context(), payload); err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrRatingLocked):
			// Distinct from validation failures so the UI can explain
			// immutability instead of suggesting a retry.
			return utils.SendError(c, fiber.StatusConflict, err.Error())
		case errors.Is(err, service.ErrAssignmentNotFound):
			return utils.SendError(c, fiber.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrPeerRatingDisabled):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("rating submission failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to record rating")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "rating recorded", nil)
}

func (h *RatingHandler) aggregate(c *fiber.Ctx) error {
	assignmentUID := c.Query("assignment_uid")
	rateeName := c.Query("ratee")
	if assignmentUID == "" || rateeName == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "assignment_uid and ratee are required")
	}

	aggregate, err := h.service.Aggregate(c.Context(), assignmentUID, rateeName)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("rating aggregation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to aggregate ratings")
	}

	return utils.SendSuccess(c, "ratings aggregated", aggregate)
}
