package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/noah-isme/peergrade-api/internal/models"
)

// SubmissionRepository defines data operations for question submissions.
type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	ListByQuestionAndStudent(ctx context.Context, questionID, studentID uint) ([]models.Submission, error)
	LastByQuestionAndStudent(ctx context.Context, questionID, studentID uint) (*models.Submission, error)
	LatestPerStudent(ctx context.Context, questionID uint) (map[uint]models.Submission, error)
	UpdateScore(ctx context.Context, id uint, score *float64, feedback string) error
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Submission{}).
		Preload("Question").
		Preload("Question.Homework").
		Preload("Question.Items").
		Preload("Student")
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) ListByQuestionAndStudent(ctx context.Context, questionID, studentID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	err := r.baseQuery(ctx).
		Where("question_id = ?", questionID).
		Where("student_id = ?", studentID).
		Order("submitted_at ASC").
		Find(&submissions).Error
	if err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) LastByQuestionAndStudent(ctx context.Context, questionID, studentID uint) (*models.Submission, error) {
	var submission models.Submission
	err := r.baseQuery(ctx).
		Where("question_id = ?", questionID).
		Where("student_id = ?", studentID).
		Order("submitted_at DESC").
		First(&submission).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &submission, nil
}

// LatestPerStudent returns the current submission of every student who
// answered the question, keyed by student id.
func (r *submissionRepository) LatestPerStudent(ctx context.Context, questionID uint) (map[uint]models.Submission, error) {
	var submissions []models.Submission
	err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("question_id = ?", questionID).
		Order("submitted_at ASC").
		Find(&submissions).Error
	if err != nil {
		return nil, err
	}

	latest := make(map[uint]models.Submission, len(submissions))
	for _, submission := range submissions {
		current, exists := latest[submission.StudentID]
		if !exists || submission.SubmittedAt.After(current.SubmittedAt) {
			latest[submission.StudentID] = submission
		}
	}

	return latest, nil
}

// UpdateScore touches only the mutable columns of a submission row.
func (r *submissionRepository) UpdateScore(ctx context.Context, id uint, score *float64, feedback string) error {
	return r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"score": score, "feedback": feedback}).Error
}
