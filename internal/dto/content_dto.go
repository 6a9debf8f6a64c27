package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/peergrade-api/internal/models"
)

// HomeworkCreateRequest describes a new homework.
type HomeworkCreateRequest struct {
	Name      string     `json:"name" validate:"required,min=1,max=100"`
	StartDate *time.Time `json:"start_date"`
	DueDate   time.Time  `json:"due_date" validate:"required"`
}

// QuestionCreateRequest describes a new question. Definition is the JSON
// document holding the item variants; it is validated against the question
// schema before anything is persisted.
type QuestionCreateRequest struct {
	HomeworkID     uint            `json:"homework_id" validate:"required,gt=0"`
	Name           string          `json:"name" validate:"max=100"`
	SelfAssessment bool            `json:"self_assessment"`
	Definition     json.RawMessage `json:"definition" validate:"required"`
}

// QuestionResponse serializes a question for API clients.
type QuestionResponse struct {
	ID             uint      `json:"id"`
	HomeworkID     uint      `json:"homework_id"`
	Name           string    `json:"name"`
	Points         float64   `json:"points"`
	SelfAssessment bool      `json:"self_assessment"`
	ItemCount      int       `json:"item_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewQuestionResponse converts a Question model into a DTO.
func NewQuestionResponse(model models.Question) QuestionResponse {
	return QuestionResponse{
		ID:             model.ID,
		HomeworkID:     model.HomeworkID,
		Name:           model.Name,
		Points:         model.Points,
		SelfAssessment: model.SelfAssessment,
		ItemCount:      len(model.Items),
		CreatedAt:      model.CreatedAt,
	}
}

// HomeworkResponse serializes a homework for API clients.
type HomeworkResponse struct {
	ID        uint       `json:"id"`
	Name      string     `json:"name"`
	StartDate *time.Time `json:"start_date"`
	DueDate   time.Time  `json:"due_date"`
}

// NewHomeworkResponse converts a Homework model into a DTO.
func NewHomeworkResponse(model models.Homework) HomeworkResponse {
	return HomeworkResponse{
		ID:        model.ID,
		Name:      model.Name,
		StartDate: model.StartDate,
		DueDate:   model.DueDate,
	}
}
