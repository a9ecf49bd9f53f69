package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/smart-ats/internal/models"
	"alfredoptarigan/smart-ats/internal/repositories"
	"alfredoptarigan/smart-ats/internal/services"
)

type ResultHandler struct {
	batchService services.BatchService
}

func NewResultHandler(batchService services.BatchService) *ResultHandler {
	return &ResultHandler{
		batchService: batchService,
	}
}

// HandleGetBatch handles GET /batches/:id
func (h *ResultHandler) HandleGetBatch(c *fiber.Ctx) error {
	batchID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid batch ID format",
			"code":  "invalid_id",
		})
	}

	batch, err := h.batchService.Get(c.UserContext(), batchID)
	if err != nil {
		if errors.Is(err, repositories.ErrBatchNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Batch not found",
				"code":  "not_found",
			})
		}
		return err
	}

	response := models.BatchResponse{ScreeningBatch: batch}
	if batch.Status == models.StatusCompleted && batch.ReportKey != nil && *batch.ReportKey != "" {
		response.ReportURL = reportURL(batch.ID)
	}

	return c.JSON(response)
}

// HandleDownloadReport handles GET /batches/:id/report
func (h *ResultHandler) HandleDownloadReport(c *fiber.Ctx) error {
	batchID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid batch ID format",
			"code":  "invalid_id",
		})
	}

	report, err := h.batchService.Report(c.UserContext(), batchID)
	if err != nil {
		if errors.Is(err, repositories.ErrBatchNotFound) || errors.Is(err, services.ErrReportNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Report not found",
				"code":  "not_found",
			})
		}
		return err
	}

	c.Set(fiber.HeaderContentType, services.ReportContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", services.ReportFilename))
	return c.Send(report)
}
