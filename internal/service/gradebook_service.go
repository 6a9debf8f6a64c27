package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/peergrade-api/internal/dto"
	"github.com/noah-isme/peergrade-api/internal/models"
	"github.com/noah-isme/peergrade-api/internal/repository"
)

// GradebookService settles per-homework grades once every response has been
// scored, and serves the settled rows back to students.
type GradebookService interface {
	RefreshHomework(ctx context.Context, homeworkID uint) (int, error)
	GradesForStudent(ctx context.Context, studentID uint) ([]dto.GradeResponse, error)
}

type gradebookService struct {
	grades      repository.GradeRepository
	questions   repository.QuestionRepository
	submissions repository.SubmissionRepository
	logger      zerolog.Logger
	now         func() time.Time
}

// NewGradebookService constructs the gradebook service.
func NewGradebookService(grades repository.GradeRepository, questions repository.QuestionRepository, submissions repository.SubmissionRepository, logger zerolog.Logger) GradebookService {
	return &gradebookService{
		grades:      grades,
		questions:   questions,
		submissions: submissions,
		logger:      logger.With().Str("component", "gradebook_service").Logger(),
		now:         time.Now,
	}
}

// RefreshHomework recomputes gradebook rows for one homework. A student's
// grade is the sum of their current submissions' scores over the homework's
// questions; a question they never answered counts zero. Students with any
// still-unscored submission are skipped until aggregation settles it.
// Returns the number of rows written.
func (s *gradebookService) RefreshHomework(ctx context.Context, homeworkID uint) (int, error) {
	homework, err := s.questions.GetHomework(ctx, homeworkID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNotFound
		}
		return 0, err
	}

	if !homework.IsPastDue(s.now()) {
		return 0, ErrLocked
	}

	totals := make(map[uint]float64)
	settled := make(map[uint]bool)
	points := 0.0

	for _, question := range homework.Questions {
		points += question.Points

		latest, err := s.submissions.LatestPerStudent(ctx, question.ID)
		if err != nil {
			return 0, err
		}
		for studentID, submission := range latest {
			if _, known := settled[studentID]; !known {
				settled[studentID] = true
			}
			if submission.Score == nil {
				settled[studentID] = false
				continue
			}
			totals[studentID] += *submission.Score
		}
	}

	recordedAt := s.now()
	written := 0
	for studentID, ok := range settled {
		if !ok {
			continue
		}
		grade := models.Grade{
			StudentID:  studentID,
			HomeworkID: homeworkID,
			Score:      totals[studentID],
			Points:     points,
			RecordedAt: recordedAt,
		}
		if err := s.grades.Upsert(ctx, &grade); err != nil {
			return written, err
		}
		written++
	}

	s.logger.Info().
		Uint("homework_id", homeworkID).
		Int("rows", written).
		Msg("gradebook refreshed")

	return written, nil
}

func (s *gradebookService) GradesForStudent(ctx context.Context, studentID uint) ([]dto.GradeResponse, error) {
	grades, err := s.grades.ListForStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	return dto.NewGradeResponseSlice(grades), nil
}
