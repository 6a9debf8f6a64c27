package handler

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/peergrade-api/internal/dto"
	"github.com/noah-isme/peergrade-api/internal/service"
	"github.com/noah-isme/peergrade-api/internal/utils"
)

// AssignmentHandler exposes the assignment round endpoint.
type AssignmentHandler struct {
	assignments   service.AssignmentService
	validate      *validator.Validate
	gradingWindow time.Duration
}

// NewAssignmentHandler instantiates the handler. The grading window is the
// default task deadline applied when a round is triggered without one.
func NewAssignmentHandler(assignments service.AssignmentService, validate *validator.Validate, gradingWindow time.Duration) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments, validate: validate, gradingWindow: gradingWindow}
}

// Assign runs an assignment round for a question.
// POST /api/v1/questions/:id/assign
func (h *AssignmentHandler) Assign(c *fiber.Ctx) error {
	questionID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	if req.DueDate.IsZero() {
		req.DueDate = time.Now().Add(h.gradingWindow)
	}

	result, err := h.assignments.Assign(c.UserContext(), questionID, req.DueDate)
	if err != nil {
		return handleError(c, err)
	}

	return utils.SendSuccess(c, "assignment round completed", result)
}
