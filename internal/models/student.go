package models

import "time"

// Student roles.
const (
	StudentRoleStudent = "student"
	StudentRoleStaff   = "staff"
)

// Student represents a course participant.
type Student struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Role      string    `gorm:"size:32;not null;default:student" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsStaff reports whether the student has course staff privileges.
func (s Student) IsStaff() bool {
	return s.Role == StudentRoleStaff
}
