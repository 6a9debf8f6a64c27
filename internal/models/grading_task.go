package models

import "time"

// GradingTask is one obligation for one grader to evaluate one specific
// submission. The unique index on (question_id, grader_id, submission_id)
// is the storage-level guarantee that re-running assignment never creates
// duplicate pairs.
type GradingTask struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	QuestionID   uint       `gorm:"not null;uniqueIndex:idx_task_pair" json:"question_id"`
	GraderID     uint       `gorm:"not null;uniqueIndex:idx_task_pair" json:"grader_id"`
	StudentID    uint       `gorm:"not null;index" json:"student_id"`
	SubmissionID uint       `gorm:"not null;uniqueIndex:idx_task_pair;index" json:"submission_id"`
	AssignedAt   time.Time  `gorm:"not null" json:"assigned_at"`
	Score        *float64   `json:"score"`
	Comment      string     `gorm:"type:text" json:"comment"`
	CompletedAt  *time.Time `json:"completed_at"`
	Rating       *int       `json:"rating"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Question     Question   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"question"`
	Submission   Submission `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"submission"`
}

// IsCompleted reports whether the grader has recorded a score.
func (t GradingTask) IsCompleted() bool {
	return t.CompletedAt != nil && t.Score != nil
}

// IsSelfAssessment reports whether the grader is reviewing their own work.
func (t GradingTask) IsSelfAssessment() bool {
	return t.GraderID == t.StudentID
}
