package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/peergrade-api/internal/models"
)

// GradeRepository defines data operations for the homework gradebook.
type GradeRepository interface {
	Upsert(ctx context.Context, grade *models.Grade) error
	ListForStudent(ctx context.Context, studentID uint) ([]models.Grade, error)
}

type gradeRepository struct {
	db *gorm.DB
}

// NewGradeRepository instantiates the repository.
func NewGradeRepository(db *gorm.DB) GradeRepository {
	return &gradeRepository{db: db}
}

func (r *gradeRepository) Upsert(ctx context.Context, grade *models.Grade) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}, {Name: "homework_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"score", "points", "recorded_at"}),
		}).
		Create(grade).Error
}

func (r *gradeRepository) ListForStudent(ctx context.Context, studentID uint) ([]models.Grade, error) {
	var grades []models.Grade
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("recorded_at ASC").
		Find(&grades).Error
	if err != nil {
		return nil, err
	}

	return grades, nil
}
