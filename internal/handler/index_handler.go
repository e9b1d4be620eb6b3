package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/arkode/submithub-api/internal/service"
	"github.com/arkode/submithub-api/internal/utils"
)

// IndexHandler exposes read-optimized global queries over the master index.
type IndexHandler struct {
	service service.IndexService
	logger  zerolog.Logger
}

// NewIndexHandler builds an index handler instance.
func NewIndexHandler(service service.IndexService, logger zerolog.Logger) *IndexHandler {
	return &IndexHandler{
		service: service,
		logger:  logger.With().Str("component", "index_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *IndexHandler) Register(router fiber.Router) {
	router.Get("", h.list)
}

func (h *IndexHandler) list(c *fiber.Ctx) error {
	assignee := c.Query("assignee")
	assignmentUID := c.Query("assignment_uid")

	switch {
	case assignee != "":
		entries, err := h.service.ListByAssignee(c.Context(), assignee)
		if err != nil {
			return h.handleError(c, err)
		}
		return utils.SendSuccess(c, "index entries retrieved", entries)
	case assignmentUID != "":
		entries, err := h.service.ListByAssignment(c.Context(), assignmentUID)
		if err != nil {
			return h.handleError(c, err)
		}
		return utils.SendSuccess(c, "index entries retrieved", entries)
	default:
		return utils.SendError(c, fiber.StatusBadRequest, "assignee or assignment_uid is required")
	}
}

func (h *IndexHandler) handleError(c *fiber.Ctx, err error) error {
	requestLogger(h.logger, c).Error().Err(err).Msg("index query failed")
	return utils.SendError(c, fiber.StatusInternalServerError, "failed to query index")
}
