package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/peergrade-api/internal/middleware"
	"github.com/noah-isme/peergrade-api/internal/service"
	"github.com/noah-isme/peergrade-api/internal/utils"
)

// GradebookHandler exposes the settled-grade endpoints.
type GradebookHandler struct {
	gradebook service.GradebookService
}

// NewGradebookHandler instantiates the handler.
func NewGradebookHandler(gradebook service.GradebookService) *GradebookHandler {
	return &GradebookHandler{gradebook: gradebook}
}

// Refresh recomputes gradebook rows for a past-due homework.
// POST /api/v1/homeworks/:id/grades/refresh
func (h *GradebookHandler) Refresh(c *fiber.Ctx) error {
	homeworkID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	written, err := h.gradebook.RefreshHomework(c.UserContext(), homeworkID)
	if err != nil {
		return handleError(c, err)
	}

	return utils.SendSuccess(c, "gradebook refreshed", fiber.Map{"rows_written": written})
}

// Grades lists the caller's settled grades.
// GET /api/v1/grades?student_id=
func (h *GradebookHandler) Grades(c *fiber.Ctx) error {
	studentID := queryID(c, "student_id")
	if studentID == 0 {
		studentID = middleware.CallerID(c)
	}
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "student_id is required")
	}

	grades, err := h.gradebook.GradesForStudent(c.UserContext(), studentID)
	if err != nil {
		return handleError(c, err)
	}

	return utils.SendSuccess(c, "grades retrieved", grades)
}
