package models

import (
	"time"

	"gorm.io/datatypes"
)

// Submission is one student answer to a question. A student may submit
// multiple times; the row with the latest SubmittedAt is the current one.
// Rows are never deleted and only Score and Feedback change after insert.
type Submission struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	QuestionID  uint           `gorm:"not null;index:idx_submission_question_student" json:"question_id"`
	StudentID   uint           `gorm:"not null;index:idx_submission_question_student" json:"student_id"`
	SubmittedAt time.Time      `gorm:"not null" json:"submitted_at"`
	Answers     datatypes.JSON `json:"answers"`
	Score       *float64       `json:"score"`
	Feedback    string         `gorm:"type:text" json:"feedback"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Question    Question       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"question"`
	Student     Student        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
}

// IsScored reports whether an aggregate or auto-check score is recorded.
func (s Submission) IsScored() bool {
	return s.Score != nil
}
