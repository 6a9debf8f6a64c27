package handler

import (
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/peergrade-api/internal/dto"
	"github.com/noah-isme/peergrade-api/internal/middleware"
	"github.com/noah-isme/peergrade-api/internal/service"
	"github.com/noah-isme/peergrade-api/internal/utils"
)

// GradingHandler exposes the grader-facing endpoints: task listing, grade
// and rating recording, and the rating summary.
type GradingHandler struct {
	grading     service.GradingService
	aggregation service.AggregationService
	validate    *validator.Validate
}

// NewGradingHandler instantiates the handler.
func NewGradingHandler(grading service.GradingService, aggregation service.AggregationService, validate *validator.Validate) *GradingHandler {
	return &GradingHandler{grading: grading, aggregation: aggregation, validate: validate}
}

// Tasks lists a grader's obligations for a question.
// GET /api/v1/questions/:id/grading-tasks?grader_id=
func (h *GradingHandler) Tasks(c *fiber.Ctx) error {
	questionID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	graderID := queryID(c, "grader_id")
	if graderID == 0 {
		graderID = middleware.CallerID(c)
	}
	if graderID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "grader_id is required")
	}

	tasks, err := h.grading.TasksForGrader(c.UserContext(), questionID, graderID)
	if err != nil {
		return handleError(c, err)
	}

	return utils.SendSuccess(c, "grading tasks retrieved", tasks)
}

// Feedback lists the completed peer feedback on the caller's work.
// GET /api/v1/questions/:id/feedback?student_id=
func (h *GradingHandler) Feedback(c *fiber.Ctx) error {
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

	feedback, err := h.grading.FeedbackForStudent(c.UserContext(), questionID, studentID)
	if err != nil {
		return handleError(c, err)
	}

	return utils.SendSuccess(c, "feedback retrieved", feedback)
}

// RecordGrade stores one grade for a task and returns the refreshed
// aggregate of the graded submission.
// POST /api/v1/grading-tasks/:id/grade
func (h *GradingHandler) RecordGrade(c *fiber.Ctx) error {
	taskID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var req dto.RecordGradeRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.GraderID == 0 {
		req.GraderID = middleware.CallerID(c)
	}
	if err := h.validate.Struct(req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	aggregate, err := h.grading.RecordGrade(c.UserContext(), taskID, req)
	if err != nil {
		return handleError(c, err)
	}

	return utils.SendSuccess(c, "grade recorded", aggregate)
}

// RecordRating stores the submitter's rating of received feedback.
// POST /api/v1/grading-tasks/:id/rating
func (h *GradingHandler) RecordRating(c *fiber.Ctx) error {
	taskID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var req dto.RecordRatingRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.SubmitterID == 0 {
		req.SubmitterID = middleware.CallerID(c)
	}
	if err := h.validate.Struct(req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	task, err := h.grading.RecordRating(c.UserContext(), taskID, req)
	if err != nil {
		return handleError(c, err)
	}

	return utils.SendSuccess(c, "rating recorded", task)
}

// RatingSummary reports how peers rated a grader's feedback on a question.
// GET /api/v1/questions/:id/rating-summary?grader_id=
func (h *GradingHandler) RatingSummary(c *fiber.Ctx) error {
	questionID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	graderID := queryID(c, "grader_id")
	if graderID == 0 {
		graderID = middleware.CallerID(c)
	}
	if graderID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "grader_id is required")
	}

	summary, err := h.aggregation.RatingSummary(c.UserContext(), questionID, graderID)
	if err != nil {
		return handleError(c, err)
	}

	return utils.SendSuccess(c, "rating summary retrieved", summary)
}

func queryID(c *fiber.Ctx, name string) uint {
	value, err := strconv.ParseUint(c.Query(name), 10, 64)
	if err != nil {
		return 0
	}
	return uint(value)
}
