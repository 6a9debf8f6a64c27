package models

import "time"

// Grade is a gradebook row: the settled score for one student on one
// homework, written once every question response has been scored.
type Grade struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	StudentID  uint      `gorm:"not null;uniqueIndex:idx_grade_student_homework" json:"student_id"`
	HomeworkID uint      `gorm:"not null;uniqueIndex:idx_grade_student_homework" json:"homework_id"`
	Score      float64   `gorm:"not null" json:"score"`
	Points     float64   `gorm:"not null" json:"points"`
	RecordedAt time.Time `gorm:"not null" json:"recorded_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
