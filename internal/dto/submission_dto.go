package dto

import (
	"time"

	"github.com/noah-isme/peergrade-api/internal/models"
)

// SubmitRequest carries a student's raw answers, one per question item.
type SubmitRequest struct {
	StudentID uint     `json:"student_id" validate:"required,gt=0"`
	Responses []string `json:"responses" validate:"required,min=1"`
}

// SubmissionResponse serializes one submission for API clients.
type SubmissionResponse struct {
	ID          uint      `json:"id"`
	QuestionID  uint      `json:"question_id"`
	StudentID   uint      `json:"student_id"`
	SubmittedAt time.Time `json:"submitted_at"`
	Answers     string    `json:"answers"`
	Score       *float64  `json:"score"`
	Feedback    string    `json:"feedback"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:          model.ID,
		QuestionID:  model.QuestionID,
		StudentID:   model.StudentID,
		SubmittedAt: model.SubmittedAt,
		Answers:     string(model.Answers),
		Score:       model.Score,
		Feedback:    model.Feedback,
	}
}

// SubmissionView is the lock-aware view of a student's current submission.
// Solution is populated only once the homework deadline has passed.
type SubmissionView struct {
	Submission *SubmissionResponse `json:"submission"`
	Locked     bool                `json:"locked"`
	Solution   []string            `json:"solution,omitempty"`
}
