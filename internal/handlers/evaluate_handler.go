package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/smart-ats/internal/models"
	"alfredoptarigan/smart-ats/internal/services"
)

const APIKeyHeader = "X-API-Key"

type EvaluationHandler struct {
	batchService services.BatchService
	worker       services.Worker
	validate     *validator.Validate
	limits       uploadLimits
}

func NewEvaluationHandler(
	batchService services.BatchService,
	worker services.Worker,
	maxFileSize int64,
	maxResumes int,
) *EvaluationHandler {
	return &EvaluationHandler{
		batchService: batchService,
		worker:       worker,
		validate:     validator.New(),
		limits: uploadLimits{
			maxFileSize: maxFileSize,
			maxResumes:  maxResumes,
		},
	}
}

// HandleEvaluate handles POST /evaluate
func (h *EvaluationHandler) HandleEvaluate(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to parse multipart form",
			"code":  "invalid_form",
		})
	}

	req := models.EvaluateRequest{
		APIKey:         strings.TrimSpace(firstValue(form.Value["api_key"])),
		JobDescription: strings.TrimSpace(firstValue(form.Value["job_description"])),
		Resumes:        form.File["resumes"],
	}
	if req.APIKey == "" {
		req.APIKey = strings.TrimSpace(c.Get(APIKeyHeader))
	}

	// Without a credential nothing else is looked at
	if !h.batchService.HasCredential(req.APIKey) {
		return credentialMissing(c)
	}

	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": validationMessage(err),
			"code":  "invalid_request",
		})
	}

	if err := h.limits.check(req.Resumes); err != nil {
		var upErr *uploadError
		if errors.As(err, &upErr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": upErr.message,
				"code":  upErr.code,
			})
		}
		return err
	}

	resumes, err := readResumes(req.Resumes)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
			"code":  "invalid_upload",
		})
	}

	job, err := h.batchService.Submit(c.UserContext(), services.BatchRequest{
		APIKey:         req.APIKey,
		JobDescription: req.JobDescription,
		Resumes:        resumes,
	})
	if err != nil {
		if errors.Is(err, services.ErrCredentialMissing) {
			return credentialMissing(c)
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create screening batch",
			"code":  "internal_error",
		})
	}

	// Enqueue job to worker
	if err := h.worker.EnqueueJob(job); err != nil {
		h.batchService.Abandon(job, err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "The screening queue is full, try again later",
			"code":  "queue_unavailable",
		})
	}

	// Return batch ID immediately
	return c.Status(fiber.StatusAccepted).JSON(models.EvaluateResponse{
		BatchID:   job.BatchID.String(),
		Status:    string(models.StatusQueued),
		StatusURL: batchURL(job.BatchID),
	})
}

func credentialMissing(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "An API key is required to evaluate resumes",
		"code":  "credential_missing",
	})
}

func batchURL(id uuid.UUID) string {
	return fmt.Sprintf("/api/v1/batches/%s", id)
}

func reportURL(id uuid.UUID) string {
	return batchURL(id) + "/report"
}

func firstValue(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request payload"
	}

	fe := verrs[0]
	switch fe.Field() {
	case "JobDescription":
		if fe.Tag() == "required" {
			return "job_description is required"
		}
		return "job_description is too long"
	case "Resumes":
		return "at least one resume is required"
	case "APIKey":
		return "api_key is too long"
	default:
		return fmt.Sprintf("invalid field %s", fe.Field())
	}
}
