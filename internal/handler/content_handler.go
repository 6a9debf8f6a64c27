package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/peergrade-api/internal/dto"
	"github.com/noah-isme/peergrade-api/internal/service"
	"github.com/noah-isme/peergrade-api/internal/utils"
)

// ContentHandler exposes the staff-facing course material endpoints.
type ContentHandler struct {
	content service.ContentService
}

// NewContentHandler instantiates the handler.
func NewContentHandler(content service.ContentService) *ContentHandler {
	return &ContentHandler{content: content}
}

// CreateHomework creates a homework.
// POST /api/v1/homeworks
func (h *ContentHandler) CreateHomework(c *fiber.Ctx) error {
	var req dto.HomeworkCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	homework, err := h.content.CreateHomework(c.UserContext(), req)
	if err != nil {
		return handleError(c, err)
	}

	return utils.SendSuccess(c, "homework created", homework)
}

// CreateQuestion creates a question from its JSON definition.
// POST /api/v1/questions
func (h *ContentHandler) CreateQuestion(c *fiber.Ctx) error {
	var req dto.QuestionCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	question, err := h.content.CreateQuestion(c.UserContext(), req)
	if err != nil {
		return handleError(c, err)
	}

	return utils.SendSuccess(c, "question created", question)
}

// ListHomeworks lists all homeworks with their questions.
// GET /api/v1/homeworks
func (h *ContentHandler) ListHomeworks(c *fiber.Ctx) error {
	homeworks, err := h.content.ListHomeworks(c.UserContext())
	if err != nil {
		return handleError(c, err)
	}

	return utils.SendSuccess(c, "homeworks retrieved", homeworks)
}

// GetHomework returns one homework.
// GET /api/v1/homeworks/:id
func (h *ContentHandler) GetHomework(c *fiber.Ctx) error {
	homeworkID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	homework, err := h.content.GetHomework(c.UserContext(), homeworkID)
	if err != nil {
		return handleError(c, err)
	}

	return utils.SendSuccess(c, "homework retrieved", homework)
}
