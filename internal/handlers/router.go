package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
)

// SetupRoutes mounts the form and the JSON API on app.
func SetupRoutes(app *fiber.App, evaluateHandler *EvaluationHandler, resultHandler *ResultHandler) {
	app.Get("/", HandleIndex)

	api := app.Group("/api/v1")

	// Health check
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	api.Post("/evaluate", evaluateHandler.HandleEvaluate)
	api.Get("/batches/:id", resultHandler.HandleGetBatch)
	api.Get("/batches/:id/report", resultHandler.HandleDownloadReport)
}

// ErrorHandler renders unhandled errors as {"error", "code"}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
