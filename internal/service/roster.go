package service

import (
	"context"

	"github.com/noah-isme/peergrade-api/internal/models"
	"github.com/noah-isme/peergrade-api/internal/repository"
)

// RosterProvider supplies the ordered list of students eligible for an
// assignment round. The default implementation takes every enrolled
// student; deployments with sections can swap in their own.
type RosterProvider interface {
	EligibleStudents(ctx context.Context, questionID uint) ([]models.Student, error)
}

type enrolledRoster struct {
	students repository.StudentRepository
}

// NewEnrolledRoster returns a RosterProvider backed by the student table.
func NewEnrolledRoster(students repository.StudentRepository) RosterProvider {
	return &enrolledRoster{students: students}
}

func (r *enrolledRoster) EligibleStudents(ctx context.Context, _ uint) ([]models.Student, error) {
	return r.students.ListByRole(ctx, models.StudentRoleStudent)
}
