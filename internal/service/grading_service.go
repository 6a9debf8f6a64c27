package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/peergrade-api/internal/dto"
	"github.com/noah-isme/peergrade-api/internal/models"
	"github.com/noah-isme/peergrade-api/internal/observability"
	"github.com/noah-isme/peergrade-api/internal/repository"
)

// GradingService handles the grader-facing side of the workflow: listing a
// grader's obligations and recording their scores, comments and ratings.
type GradingService interface {
	TasksForGrader(ctx context.Context, questionID, graderID uint) ([]dto.GradingTaskResponse, error)
	FeedbackForStudent(ctx context.Context, questionID, studentID uint) ([]dto.FeedbackResponse, error)
	RecordGrade(ctx context.Context, taskID uint, req dto.RecordGradeRequest) (dto.AggregateGradeResponse, error)
	RecordRating(ctx context.Context, taskID uint, req dto.RecordRatingRequest) (dto.GradingTaskResponse, error)
}

type gradingService struct {
	tasks       repository.GradingTaskRepository
	questions   repository.QuestionRepository
	submissions repository.SubmissionRepository
	aggregation AggregationService
	clock       *LockClock
	nats        *nats.Conn
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	now         func() time.Time
}

type gradeEvent struct {
	TaskID       uint      `json:"task_id"`
	QuestionID   uint      `json:"question_id"`
	SubmissionID uint      `json:"submission_id"`
	Kind         string    `json:"kind"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// NewGradingService constructs the grading workflow service. Grader comments
// are shown verbatim to other students, so they pass through an HTML
// sanitizer before storage.
func NewGradingService(tasks repository.GradingTaskRepository, questions repository.QuestionRepository, submissions repository.SubmissionRepository, aggregation AggregationService, clock *LockClock, natsConn *nats.Conn, logger zerolog.Logger) GradingService {
	return &gradingService{
		tasks:       tasks,
		questions:   questions,
		submissions: submissions,
		aggregation: aggregation,
		clock:       clock,
		nats:        natsConn,
		sanitizer:   bluemonday.UGCPolicy(),
		logger:      logger.With().Str("component", "grading_service").Logger(),
		now:         time.Now,
	}
}

// TasksForGrader lists the grader's peer tasks for a question, plus their
// self-assessment task when the question calls for one. The self task is
// created lazily on first access so it only exists for students who come
// back to review their own work.
func (s *gradingService) TasksForGrader(ctx context.Context, questionID, graderID uint) ([]dto.GradingTaskResponse, error) {
	question, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	peerTasks, err := s.tasks.PeerTasksForGrader(ctx, questionID, graderID)
	if err != nil {
		return nil, err
	}

	selfTasks, err := s.selfTasks(ctx, question, graderID)
	if err != nil {
		return nil, err
	}

	locked := s.clock.IsGradingLocked(question.GradingDueDate)

	responses := dto.NewGradingTaskResponseSlice(peerTasks, locked)
	responses = append(responses, dto.NewGradingTaskResponseSlice(selfTasks, locked)...)

	return responses, nil
}

func (s *gradingService) selfTasks(ctx context.Context, question models.Question, graderID uint) ([]models.GradingTask, error) {
	if !question.SelfAssessment {
		return nil, nil
	}

	tasks, err := s.tasks.SelfTasksForStudent(ctx, question.ID, graderID)
	if err != nil {
		return nil, err
	}
	if len(tasks) > 0 {
		return tasks, nil
	}

	latest, err := s.submissions.LastByQuestionAndStudent(ctx, question.ID, graderID)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return nil, nil
	}

	_, err = s.tasks.CreateBatch(ctx, []models.GradingTask{{
		QuestionID:   question.ID,
		GraderID:     graderID,
		StudentID:    graderID,
		SubmissionID: latest.ID,
		AssignedAt:   s.now(),
	}})
	if err != nil {
		return nil, err
	}

	return s.tasks.SelfTasksForStudent(ctx, question.ID, graderID)
}

// FeedbackForStudent lists the completed peer feedback on a student's work
// for one question. Comments become visible as graders submit them; each
// entry carries the task id so the student can rate the feedback.
func (s *gradingService) FeedbackForStudent(ctx context.Context, questionID, studentID uint) ([]dto.FeedbackResponse, error) {
	if _, err := s.questions.GetByID(ctx, questionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	tasks, err := s.tasks.PeerTasksForStudent(ctx, questionID, studentID)
	if err != nil {
		return nil, err
	}

	completed := tasks[:0]
	for _, task := range tasks {
		if task.IsCompleted() {
			completed = append(completed, task)
		}
	}

	return dto.NewFeedbackResponseSlice(completed), nil
}

// RecordGrade stores one grader's verdict on a task and recomputes the
// target submission's aggregate. The returned aggregate reflects the grade
// just recorded.
func (s *gradingService) RecordGrade(ctx context.Context, taskID uint, req dto.RecordGradeRequest) (dto.AggregateGradeResponse, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AggregateGradeResponse{}, ErrNotFound
		}
		return dto.AggregateGradeResponse{}, err
	}

	if task.GraderID != req.GraderID {
		return dto.AggregateGradeResponse{}, ErrUnauthorized
	}
	if s.clock.IsGradingLocked(task.Question.GradingDueDate) {
		return dto.AggregateGradeResponse{}, ErrLocked
	}
	if req.Score < 0 || req.Score > task.Question.Points {
		return dto.AggregateGradeResponse{}, ErrInvalidScore
	}

	comment := strings.TrimSpace(s.sanitizer.Sanitize(req.Comment))
	if comment == "" && !task.IsSelfAssessment() {
		return dto.AggregateGradeResponse{}, ErrMissingComment
	}

	completedAt := s.now()
	task.Score = &req.Score
	task.Comment = comment
	task.CompletedAt = &completedAt

	if err := s.tasks.Update(ctx, &task); err != nil {
		return dto.AggregateGradeResponse{}, err
	}

	kind := "peer"
	if task.IsSelfAssessment() {
		kind = "self"
	}
	observability.GradesRecorded().WithLabelValues(kind).Inc()
	s.publishEvent(task, kind)

	s.logger.Info().
		Uint("task_id", task.ID).
		Uint("submission_id", task.SubmissionID).
		Str("kind", kind).
		Float64("score", req.Score).
		Msg("grade recorded")

	return s.aggregation.Recompute(ctx, task.SubmissionID)
}

// RecordRating stores the submitter's 1-4 assessment of the feedback they
// received on one task. Only the student whose work was graded may rate it,
// only while the grading window is open, and only once the grader has
// actually completed the task.
func (s *gradingService) RecordRating(ctx context.Context, taskID uint, req dto.RecordRatingRequest) (dto.GradingTaskResponse, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GradingTaskResponse{}, ErrNotFound
		}
		return dto.GradingTaskResponse{}, err
	}

	if task.StudentID != req.SubmitterID || task.IsSelfAssessment() {
		return dto.GradingTaskResponse{}, ErrUnauthorized
	}
	if s.clock.IsGradingLocked(task.Question.GradingDueDate) {
		return dto.GradingTaskResponse{}, ErrLocked
	}
	if !task.IsCompleted() {
		return dto.GradingTaskResponse{}, ErrNotCompleted
	}
	if req.Rating < 1 || req.Rating > 4 {
		return dto.GradingTaskResponse{}, ErrInvalidRating
	}

	task.Rating = &req.Rating
	if err := s.tasks.Update(ctx, &task); err != nil {
		return dto.GradingTaskResponse{}, err
	}

	s.logger.Info().
		Uint("task_id", task.ID).
		Int("rating", req.Rating).
		Msg("feedback rating recorded")

	return dto.NewGradingTaskResponse(task, false), nil
}

func (s *gradingService) publishEvent(task models.GradingTask, kind string) {
	if s.nats == nil {
		return
	}

	payload, err := json.Marshal(gradeEvent{
		TaskID:       task.ID,
		QuestionID:   task.QuestionID,
		SubmissionID: task.SubmissionID,
		Kind:         kind,
		RecordedAt:   time.Now().UTC(),
	})
	if err != nil {
		return
	}
	if err := s.nats.Publish("peergrade.grades", payload); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish grade event")
	}
}
