package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/arkode/submithub-api/internal/config"
	"github.com/arkode/submithub-api/internal/handler"
	"github.com/arkode/submithub-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AssignmentHandler *handler.AssignmentHandler
	SubmissionHandler *handler.SubmissionHandler
	UploadHandler     *handler.UploadHandler
	RatingHandler     *handler.RatingHandler
	IndexHandler      *handler.IndexHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	api.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.AssignmentHandler != nil {
		assignments := app.Group("/api/v1/assignments", jwtMiddleware)
		deps.AssignmentHandler.Register(assignments)
	}

	if deps.SubmissionHandler != nil {
		submissions := app.Group("/api/v1/submissions", jwtMiddleware)
		deps.SubmissionHandler.Register(submissions)
	}

	if deps.UploadHandler != nil {
		uploads := app.Group("/api/v1/uploads", jwtMiddleware)
		deps.UploadHandler.Register(uploads)
	}

	if deps.RatingHandler != nil {
		ratings := app.Group("/api/v1/ratings", jwtMiddleware)
		deps.RatingHandler.Register(ratings)
	}

	if deps.IndexHandler != nil {
		index := app.Group("/api/v1/index", jwtMiddleware)
		deps.IndexHandler.Register(index)
	}
}
