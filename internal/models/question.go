package models

import (
	"time"

	"gorm.io/datatypes"
)

// Question is one gradeable unit of a homework. Its items determine how
// responses are checked: auto-checked items produce a score immediately,
// long-answer items leave the score unset until peers have reviewed it.
type Question struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	HomeworkID     uint           `gorm:"not null;index" json:"homework_id"`
	Name           string         `gorm:"size:100" json:"name"`
	Points         float64        `gorm:"not null" json:"points"`
	SelfAssessment bool           `gorm:"not null;default:false" json:"self_assessment"`
	GradingDueDate *time.Time     `json:"grading_due_date"`
	Definition     datatypes.JSON `json:"definition"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	Homework       Homework       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"homework"`
	Items          []Item         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"items,omitempty"`
}

// IsPeerReviewed reports whether any item requires peer grading.
func (q Question) IsPeerReviewed() bool {
	for _, item := range q.Items {
		if item.Type == ItemTypeLongAnswer {
			return true
		}
	}
	return false
}

// GradingLocked returns true once the grading window has closed.
func (q Question) GradingLocked(reference time.Time) bool {
	return q.GradingDueDate != nil && reference.After(*q.GradingDueDate)
}
