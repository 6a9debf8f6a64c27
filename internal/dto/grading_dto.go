package dto

import (
	"time"

	"github.com/noah-isme/peergrade-api/internal/models"
)

// RecordGradeRequest carries one peer grade for a task.
type RecordGradeRequest struct {
	GraderID uint    `json:"grader_id" validate:"required,gt=0"`
	Score    float64 `json:"score" validate:"gte=0"`
	Comment  string  `json:"comment"`
}

// RecordRatingRequest carries the submitter's 1-4 rating of received feedback.
type RecordRatingRequest struct {
	SubmitterID uint `json:"submitter_id" validate:"required,gt=0"`
	Rating      int  `json:"rating" validate:"required,min=1,max=4"`
}

// GradingTaskResponse is one grading obligation as shown to its grader.
type GradingTaskResponse struct {
	ID             uint       `json:"id"`
	QuestionID     uint       `json:"question_id"`
	GraderID       uint       `json:"grader_id"`
	SubmissionID   uint       `json:"submission_id"`
	SelfAssessment bool       `json:"self_assessment"`
	AssignedAt     time.Time  `json:"assigned_at"`
	Score          *float64   `json:"score"`
	Comment        string     `json:"comment"`
	CompletedAt    *time.Time `json:"completed_at"`
	Rating         *int       `json:"rating"`
	Answers        string     `json:"answers"`
	Locked         bool       `json:"locked"`
}

// NewGradingTaskResponse converts a task model into its DTO.
func NewGradingTaskResponse(task models.GradingTask, locked bool) GradingTaskResponse {
	return GradingTaskResponse{
		ID:             task.ID,
		QuestionID:     task.QuestionID,
		GraderID:       task.GraderID,
		SubmissionID:   task.SubmissionID,
		SelfAssessment: task.IsSelfAssessment(),
		AssignedAt:     task.AssignedAt,
		Score:          task.Score,
		Comment:        task.Comment,
		CompletedAt:    task.CompletedAt,
		Rating:         task.Rating,
		Answers:        string(task.Submission.Answers),
		Locked:         locked,
	}
}

// NewGradingTaskResponseSlice converts task models into DTOs.
func NewGradingTaskResponseSlice(tasks []models.GradingTask, locked bool) []GradingTaskResponse {
	responses := make([]GradingTaskResponse, 0, len(tasks))
	for _, task := range tasks {
		responses = append(responses, NewGradingTaskResponse(task, locked))
	}

	return responses
}

// FeedbackResponse is one piece of completed peer feedback as shown to the
// student who was graded. The grader stays anonymous and the score is
// omitted; scores are only released through the submission aggregate.
type FeedbackResponse struct {
	TaskID      uint       `json:"task_id"`
	Comment     string     `json:"comment"`
	CompletedAt *time.Time `json:"completed_at"`
	Rating      *int       `json:"rating"`
}

// NewFeedbackResponseSlice converts completed tasks into feedback entries.
func NewFeedbackResponseSlice(tasks []models.GradingTask) []FeedbackResponse {
	responses := make([]FeedbackResponse, 0, len(tasks))
	for _, task := range tasks {
		responses = append(responses, FeedbackResponse{
			TaskID:      task.ID,
			Comment:     task.Comment,
			CompletedAt: task.CompletedAt,
			Rating:      task.Rating,
		})
	}

	return responses
}

// AggregateGradeResponse is the outcome of recomputing a submission's
// aggregate. Pending means no completed peer grades exist yet.
type AggregateGradeResponse struct {
	SubmissionID   uint     `json:"submission_id"`
	Score          *float64 `json:"score"`
	Pending        bool     `json:"pending"`
	CompletedCount int      `json:"completed_count"`
}

// RatingSummaryResponse reports how peers rated a grader's feedback.
type RatingSummaryResponse struct {
	RatingCount int    `json:"rating_count"`
	Median      *int   `json:"median"`
	Comment     string `json:"comment"`
}
