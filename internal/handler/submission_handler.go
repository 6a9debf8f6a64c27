package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/peergrade-api/internal/dto"
	"github.com/noah-isme/peergrade-api/internal/middleware"
	"github.com/noah-isme/peergrade-api/internal/service"
	"github.com/noah-isme/peergrade-api/internal/utils"
)

// SubmissionHandler exposes the student-facing submission endpoints.
type SubmissionHandler struct {
	submissions service.SubmissionService
	aggregation service.AggregationService
	validate    *validator.Validate
}

// NewSubmissionHandler instantiates the handler.
func NewSubmissionHandler(submissions service.SubmissionService, aggregation service.AggregationService, validate *validator.Validate) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions, aggregation: aggregation, validate: validate}
}

// Submit records a new answer to a question.
// POST /api/v1/questions/:id/submission
func (h *SubmissionHandler) Submit(c *fiber.Ctx) error {
	questionID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var req dto.SubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.StudentID == 0 {
		req.StudentID = middleware.CallerID(c)
	}
	if err := h.validate.Struct(req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.submissions.Submit(c.UserContext(), questionID, req)
	if err != nil {
		return handleError(c, err)
	}

	return utils.SendSuccess(c, "submission recorded", submission)
}

// Load returns the student's current submission, the lock state and, after
// the deadline, the reference solution.
// GET /api/v1/questions/:id/submission?student_id=
func (h *SubmissionHandler) Load(c *fiber.Ctx) error {
	questionID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	studentID := queryID(c, "student_id")
	if studentID == 0 {
		studentID = middleware.CallerID(c)
	}
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "student_id is required")
	}

	view, err := h.submissions.Load(c.UserContext(), questionID, studentID)
	if err != nil {
		return handleError(c, err)
	}

	return utils.SendSuccess(c, "submission retrieved", view)
}

// Aggregate returns the submission's current aggregate grade.
// GET /api/v1/submissions/:id/aggregate
func (h *SubmissionHandler) Aggregate(c *fiber.Ctx) error {
	submissionID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	aggregate, err := h.aggregation.Aggregate(c.UserContext(), submissionID)
	if err != nil {
		return handleError(c, err)
	}

	return utils.SendSuccess(c, "aggregate retrieved", aggregate)
}
