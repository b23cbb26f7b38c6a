package simulator

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/zyncrender/max-plugin/internal/auth"
	"github.com/zyncrender/max-plugin/internal/model"
	"github.com/zyncrender/max-plugin/pkg/response"
)

// Handler serves the simulator's HTTP API.
type Handler struct {
	service   *JobService
	validate  *validator.Validate
	jwtSecret string
	tokenTTL  time.Duration
}

func NewHandler(service *JobService, validate *validator.Validate, jwtSecret string, tokenTTL time.Duration) *Handler {
	return &Handler{
		service:   service,
		validate:  validate,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

// Login issues a session token. The simulator accepts any credential pair,
// the password is never checked.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}
	if err := h.validate.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	token, err := auth.GenerateSessionToken(h.jwtSecret, req.Email, h.tokenTTL)
	if err != nil {
		log.Printf("Failed to issue session token: %v", err)
		return response.ServiceError(c, "Failed to issue session token")
	}
	log.Printf("Issued session token for %s", req.Email)
	return response.OK(c, LoginResponse{Token: token, Email: req.Email})
}

// Logout acknowledges the end of a session. Tokens are stateless, nothing
// is revoked.
func (h *Handler) Logout(c *fiber.Ctx) error {
	log.Printf("Logged out %s", SessionEmail(c))
	return response.NoContent(c)
}

// Account reports the authenticated account.
func (h *Handler) Account(c *fiber.Ctx) error {
	return response.OK(c, AccountResponse{Email: SessionEmail(c)})
}

// Projects lists the account's render projects.
func (h *Handler) Projects(c *fiber.Ctx) error {
	names, err := h.service.ProjectNames(c.Context())
	if err != nil {
		log.Printf("Failed to list projects: %v", err)
		return response.ServiceError(c, "Failed to list projects")
	}
	projects := make([]Project, 0, len(names))
	for _, name := range names {
		projects = append(projects, Project{Name: name})
	}
	return response.OK(c, ProjectsResponse{Projects: projects})
}

// InstanceTypes serves the machine catalog for a renderer.
func (h *Handler) InstanceTypes(c *fiber.Ctx) error {
	renderer := c.Query("renderer")
	if renderer == "" {
		return response.ValidationError(c, "Missing renderer parameter", nil)
	}
	types, ok := InstanceTypesFor(renderer, c.Query("usage_tag"))
	if !ok {
		return response.ValidationError(c, fmt.Sprintf("Unknown renderer: %s", renderer), nil)
	}
	return response.OK(c, InstanceTypesResponse{InstanceTypes: types})
}

// SubmitJob accepts a render job for simulation.
func (h *Handler) SubmitJob(c *fiber.Ctx) error {
	var req SubmitJobRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}
	if err := h.validate.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	result, err := h.service.Submit(c.Context(), SessionEmail(c), &req)
	if err != nil {
		if errors.Is(err, model.ErrInvalidFrameRange) {
			return response.ValidationError(c, err.Error(), nil)
		}
		log.Printf("Failed to submit job: %v", err)
		return response.ServiceError(c, "Failed to submit job")
	}
	return response.Accepted(c, result)
}

// JobStatus reports the progress of a job.
func (h *Handler) JobStatus(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	result, err := h.service.Status(c.Context(), jobID)
	if err != nil {
		if errors.Is(err, ErrJobNotFound) {
			return response.NotFound(c, "Job not found")
		}
		log.Printf("Failed to load job %s: %v", jobID, err)
		return response.ServiceError(c, "Failed to load job")
	}
	return response.OK(c, result)
}

// CancelJob stops a queued or running job.
func (h *Handler) CancelJob(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	result, err := h.service.Cancel(c.Context(), jobID)
	if err != nil {
		switch {
		case errors.Is(err, ErrJobNotFound):
			return response.NotFound(c, "Job not found")
		case errors.Is(err, ErrJobCompleted):
			return response.ValidationError(c, "Job already completed", nil)
		}
		log.Printf("Failed to cancel job %s: %v", jobID, err)
		return response.ServiceError(c, "Failed to cancel job")
	}
	return response.OK(c, result)
}

// formatValidationErrors flattens validator errors into a field to rule map
func formatValidationErrors(err error) map[string]string {
	details := make(map[string]string)
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, fieldError := range validationErrors {
			details[fieldError.Field()] = fieldError.Tag()
		}
	}
	return details
}
