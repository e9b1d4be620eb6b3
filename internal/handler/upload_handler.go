package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/arkode/submithub-api/internal/dto"
	"github.com/arkode/submithub-api/internal/service"
	"github.com/arkode/submithub-api/internal/utils"
)

// UploadHandler manages inline uploads and resumable upload sessions.
type UploadHandler struct {
	service service.UploadService
	logger  zerolog.Logger
}

// NewUploadHandler builds an upload handler instance.
func NewUploadHandler(service service.UploadService, logger zerolog.Logger) *UploadHandler {
	return &UploadHandler{
		service: service,
		logger:  logger.With().Str("component", "upload_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *UploadHandler) Register(router fiber.Router) {
	router.Post("/inline", h.inline)
	router.Post("/sessions", h.initiate)
	router.Post("/sessions/:uid/finalize", h.finalize)
}

func (h *UploadHandler) inline(c *fiber.Ctx) error {
	assignmentUID := c.FormValue("assignment_uid")
	if assignmentUID == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "assignment_uid is required")
	}
	email := c.FormValue("email")
	if email == "" {
		email = userEmailFromContext(c)
	}

	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}

	result, err := h.service.InlineUpload(c.Context(), assignmentUID, email, file)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "file uploaded", result)
}

func (h *UploadHandler) initiate(c *fiber.Ctx) error {
	var payload dto.UploadInitiateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if payload.SubmitterEmail == "" {
		payload.SubmitterEmail = userEmailFromContext(c)
	}

	session, err := h.service.Initiate(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "upload session opened", session)
}

func (h *UploadHandler) finalize(c *fiber.Ctx) error {
	uid := c.Params("uid")
	if uid == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "session uid is required")
	}

	result, err := h.service.Finalize(c.Context(), uid)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "upload finalized", result)
}

func (h *UploadHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrSessionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrSessionClosed):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrUploadTooLarge),
		errors.Is(err, service.ErrUploadTypeNotAllowed):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUploadIncomplete):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrAssignmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("upload request failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to process upload")
	}
}
