package models

import "time"

// Homework groups questions under a shared release and due date.
type Homework struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Name      string     `gorm:"size:100;uniqueIndex;not null" json:"name"`
	StartDate *time.Time `json:"start_date"`
	DueDate   time.Time  `gorm:"not null" json:"due_date"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Questions []Question `json:"questions,omitempty"`
}

// IsPastDue returns true when the homework deadline has already passed.
func (h Homework) IsPastDue(reference time.Time) bool {
	return reference.After(h.DueDate)
}

// IsReleased reports whether the homework is visible to students.
func (h Homework) IsReleased(reference time.Time) bool {
	return h.StartDate == nil || !h.StartDate.After(reference)
}
