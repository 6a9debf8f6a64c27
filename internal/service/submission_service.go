package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/peergrade-api/internal/dto"
	"github.com/noah-isme/peergrade-api/internal/models"
	"github.com/noah-isme/peergrade-api/internal/repository"
)

const pendingReviewFeedback = "Feedback for this submission will not be available until after a peer or an instructor has reviewed it."

// SubmissionService handles the student-facing side of answering questions:
// accepting new submissions and loading the current one back.
type SubmissionService interface {
	Submit(ctx context.Context, questionID uint, req dto.SubmitRequest) (dto.SubmissionResponse, error)
	Load(ctx context.Context, questionID, studentID uint) (dto.SubmissionView, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	questions   repository.QuestionRepository
	aggregation AggregationService
	clock       *LockClock
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSubmissionService constructs the submission workflow service.
func NewSubmissionService(submissions repository.SubmissionRepository, questions repository.QuestionRepository, aggregation AggregationService, clock *LockClock, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		submissions: submissions,
		questions:   questions,
		aggregation: aggregation,
		clock:       clock,
		logger:      logger.With().Str("component", "submission_service").Logger(),
		now:         time.Now,
	}
}

// Submit records a new answer. Prior submissions are never overwritten; the
// new row becomes the current one by virtue of its later timestamp. Items
// that can be auto-checked are scored immediately; if any item needs review
// the whole submission stays unscored until peers weigh in.
func (s *submissionService) Submit(ctx context.Context, questionID uint, req dto.SubmitRequest) (dto.SubmissionResponse, error) {
	question, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	now := s.now()
	if !question.Homework.IsReleased(now) {
		return dto.SubmissionResponse{}, ErrNotFound
	}

	prior, err := s.submissions.ListByQuestionAndStudent(ctx, questionID, req.StudentID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	if s.clock.IsSubmissionLocked(question.Homework.DueDate, prior) {
		return dto.SubmissionResponse{}, ErrLocked
	}

	if len(req.Responses) != len(question.Items) {
		return dto.SubmissionResponse{}, ErrInvalidResponse
	}

	score, feedback, err := s.checkResponses(question, req.Responses)
	if err != nil {
		return dto.SubmissionResponse{}, ErrInvalidResponse
	}

	answers, err := json.Marshal(req.Responses)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission := models.Submission{
		QuestionID:  questionID,
		StudentID:   req.StudentID,
		SubmittedAt: now,
		Answers:     answers,
		Score:       score,
		Feedback:    feedback,
	}
	if err := s.submissions.Create(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().
		Uint("question_id", questionID).
		Uint("student_id", req.StudentID).
		Uint("submission_id", submission.ID).
		Bool("auto_scored", score != nil).
		Msg("submission recorded")

	return s.aggregation.DelayFeedback(submission, question.Homework.DueDate), nil
}

// checkResponses runs every item's checker. A single unreviewable item
// makes the whole submission pending.
func (s *submissionService) checkResponses(question models.Question, responses []string) (*float64, string, error) {
	total := 0.0
	var comments []string
	pending := false

	for i, item := range question.Items {
		result, err := item.Check(responses[i])
		if err != nil {
			return nil, "", err
		}
		if result.Score == nil {
			pending = true
			continue
		}
		total += *result.Score
		if result.Comment != "" {
			comments = append(comments, result.Comment)
		}
	}

	if pending {
		return nil, pendingReviewFeedback, nil
	}

	return &total, strings.Join(comments, "\n"), nil
}

// Load returns the student's current submission with the lock state and,
// once the deadline has passed, the reference solution. Feedback on a
// scored submission is withheld for a short window after submitting.
func (s *submissionService) Load(ctx context.Context, questionID, studentID uint) (dto.SubmissionView, error) {
	question, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionView{}, ErrNotFound
		}
		return dto.SubmissionView{}, err
	}

	prior, err := s.submissions.ListByQuestionAndStudent(ctx, questionID, studentID)
	if err != nil {
		return dto.SubmissionView{}, err
	}

	view := dto.SubmissionView{
		Locked: s.clock.IsSubmissionLocked(question.Homework.DueDate, prior),
	}

	if len(prior) > 0 {
		latest := prior[len(prior)-1]
		response := s.aggregation.DelayFeedback(latest, question.Homework.DueDate)
		view.Submission = &response
	}

	if question.Homework.IsPastDue(s.now()) {
		for _, item := range question.Items {
			view.Solution = append(view.Solution, item.Solution)
		}
	}

	return view, nil
}
