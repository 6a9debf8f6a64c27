package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/noah-isme/peergrade-api/internal/dto"
	"github.com/noah-isme/peergrade-api/internal/models"
	"github.com/noah-isme/peergrade-api/internal/observability"
	"github.com/noah-isme/peergrade-api/internal/repository"
)

// peerOffsets are the rotation distances used to pair responders. They are
// pairwise non-adjacent so that no two students grade each other more than
// once across a course's assignment rounds. The values are a compatibility
// contract; do not change them.
var peerOffsets = [3]int{1, 3, 6}

// fallbackTaskCount is how many grading obligations a roster member without
// a qualifying submission still receives.
const fallbackTaskCount = 3

// AssignmentService computes the grader-to-submission mapping for a
// question once its homework is due.
type AssignmentService interface {
	Assign(ctx context.Context, questionID uint, dueDate time.Time) (dto.AssignResponse, error)
	AssignRoster(ctx context.Context, questionID uint, roster []models.Student, dueDate time.Time) (dto.AssignResponse, error)
}

type assignmentService struct {
	questions   repository.QuestionRepository
	submissions repository.SubmissionRepository
	tasks       repository.GradingTaskRepository
	students    repository.StudentRepository
	roster      RosterProvider
	notifier    Notifier
	locks       *redis.Client
	lockTTL     time.Duration
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAssignmentService constructs the assignment engine. The redis client
// provides a per-question advisory lock; when nil, only the storage-level
// unique index guards against concurrent rounds.
func NewAssignmentService(questions repository.QuestionRepository, submissions repository.SubmissionRepository, tasks repository.GradingTaskRepository, students repository.StudentRepository, roster RosterProvider, notifier Notifier, locks *redis.Client, lockTTL time.Duration, logger zerolog.Logger) AssignmentService {
	return &assignmentService{
		questions:   questions,
		submissions: submissions,
		tasks:       tasks,
		students:    students,
		roster:      roster,
		notifier:    notifier,
		locks:       locks,
		lockTTL:     lockTTL,
		logger:      logger.With().Str("component", "assignment_service").Logger(),
		now:         time.Now,
	}
}

// Assign fetches the eligible roster and runs an assignment round.
func (s *assignmentService) Assign(ctx context.Context, questionID uint, dueDate time.Time) (dto.AssignResponse, error) {
	roster, err := s.roster.EligibleStudents(ctx, questionID)
	if err != nil {
		return dto.AssignResponse{}, err
	}

	return s.AssignRoster(ctx, questionID, roster, dueDate)
}

// AssignRoster runs one assignment round for the question over the given
// roster. The round is deterministic for a fixed roster ordering (the
// shuffle is seeded by the question id) and idempotent: re-invocation after
// a partial failure creates no duplicate tasks.
func (s *assignmentService) AssignRoster(ctx context.Context, questionID uint, roster []models.Student, dueDate time.Time) (dto.AssignResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/peergrade-api/internal/service/assignment")
	ctx, span := tracer.Start(ctx, "assignment.assign")
	span.SetAttributes(
		attribute.Int64("assignment.question_id", int64(questionID)),
		attribute.Int("assignment.roster_size", len(roster)),
	)
	defer span.End()

	question, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignResponse{}, ErrNotFound
		}
		return dto.AssignResponse{}, err
	}

	unlock, err := s.acquireLock(ctx, questionID)
	if err != nil {
		return dto.AssignResponse{}, err
	}
	defer unlock()

	latest, err := s.submissions.LatestPerStudent(ctx, questionID)
	if err != nil {
		return dto.AssignResponse{}, err
	}

	var responders, nonResponders []models.Student
	for _, student := range roster {
		if _, ok := latest[student.ID]; ok {
			responders = append(responders, student)
		} else {
			nonResponders = append(nonResponders, student)
		}
	}

	response := dto.AssignResponse{
		AssignedCount:   len(responders),
		UnassignedCount: len(nonResponders),
	}
	for _, student := range nonResponders {
		response.Unassigned = append(response.Unassigned, student.ID)
	}

	if len(responders) == 0 {
		observability.AssignmentRounds().WithLabelValues("empty").Inc()
		s.logger.Warn().Uint("question_id", questionID).Msg("assignment round with no responders")
		return response, nil
	}

	existing, err := s.tasks.ExistingPairs(ctx, questionID)
	if err != nil {
		return dto.AssignResponse{}, err
	}

	tasks := s.buildTasks(question, responders, nonResponders, latest, existing)

	created, err := s.tasks.CreateBatch(ctx, tasks)
	if err != nil {
		return dto.AssignResponse{}, err
	}
	response.TasksCreated = created

	if err := s.questions.SetGradingDueDate(ctx, questionID, dueDate); err != nil {
		return dto.AssignResponse{}, err
	}

	observability.GradingTasksCreated().Add(float64(created))
	outcome := "assigned"
	if created == 0 {
		outcome = "noop"
	}
	observability.AssignmentRounds().WithLabelValues(outcome).Inc()
	span.SetAttributes(attribute.Int("assignment.tasks_created", created))

	s.logger.Info().
		Uint("question_id", questionID).
		Int("responders", len(responders)).
		Int("non_responders", len(nonResponders)).
		Int("tasks_created", created).
		Msg("assignment round completed")

	if created > 0 {
		s.notify(ctx, question, responders, nonResponders, dueDate)
	}

	return response, nil
}

// buildTasks produces the full task set for one round. The shuffle is
// seeded by the question id so a re-run reproduces the same pairing, and
// pairs already persisted by an earlier round are filtered up front; the
// unique index behind CreateBatch remains the authoritative guard.
func (s *assignmentService) buildTasks(question models.Question, responders, nonResponders []models.Student, latest map[uint]models.Submission, existing map[[2]uint]struct{}) []models.GradingTask {
	rng := rand.New(rand.NewSource(int64(question.ID)))

	shuffled := make([]models.Student, len(responders))
	copy(shuffled, responders)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	n := len(shuffled)
	assignedAt := s.now()
	seen := make(map[[2]uint]struct{}, len(existing))
	for pair := range existing {
		seen[pair] = struct{}{}
	}
	var tasks []models.GradingTask

	addTask := func(graderID uint, target models.Student) {
		submission := latest[target.ID]
		pair := [2]uint{graderID, submission.ID}
		if _, dup := seen[pair]; dup {
			return
		}
		seen[pair] = struct{}{}
		tasks = append(tasks, models.GradingTask{
			QuestionID:   question.ID,
			GraderID:     graderID,
			StudentID:    target.ID,
			SubmissionID: submission.ID,
			AssignedAt:   assignedAt,
		})
	}

	// Responders grade the peers at fixed rotation offsets. Offsets that
	// collapse onto the grader's own position are skipped for small n.
	for i, grader := range shuffled {
		for _, offset := range peerOffsets {
			j := (i + offset) % n
			if j == i {
				continue
			}
			addTask(grader.ID, shuffled[j])
		}
	}

	// Non-responders still grade, over a re-shuffled responder pool so the
	// same pairs of students rarely meet twice, but they receive responder
	// work only and are reported as unassigned for notification purposes.
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	for i, grader := range nonResponders {
		for offset := 0; offset < fallbackTaskCount; offset++ {
			j := (i*fallbackTaskCount + offset) % n
			addTask(grader.ID, shuffled[j])
		}
	}

	if question.SelfAssessment {
		for _, student := range responders {
			addTask(student.ID, student)
		}
	}

	return tasks
}

func (s *assignmentService) notify(ctx context.Context, question models.Question, responders, nonResponders []models.Student, dueDate time.Time) {
	deadline := dueDate.Format("Monday, Jan 2 at 3:04 PM")

	s.notifier.Send(ctx, recipients(responders),
		fmt.Sprintf("Peer Assessment for %s is Ready", question.Homework.Name),
		fmt.Sprintf("Dear %%name,\n\nWe've made the peer-grading assignments. The assessments are due %s.\n\nYou will be able to view your peers' comments on your answers as they are submitted, but your score will not be available until %s.", deadline, deadline))

	if len(nonResponders) > 0 {
		s.notifier.Send(ctx, recipients(nonResponders),
			fmt.Sprintf("Peer Assessment for %s is Ready", question.Homework.Name),
			fmt.Sprintf("Dear %%name,\n\nYou did not submit an answer to this question, so your own work will not be peer reviewed. You have still been assigned a reduced set of peer assessments, due %s.", deadline))
	}

	staff, err := s.students.ListByRole(ctx, models.StudentRoleStaff)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to load staff for assignment digest")
		return
	}
	s.notifier.Send(ctx, recipients(staff),
		fmt.Sprintf("Peer Assessment for %s is Ready", question.Homework.Name),
		fmt.Sprintf("Dear %%name,\n\nThe peer assessment round was just released. It is due %s.", deadline))
}

func (s *assignmentService) acquireLock(ctx context.Context, questionID uint) (func(), error) {
	if s.locks == nil {
		return func() {}, nil
	}

	key := fmt.Sprintf("assign:question:%d", questionID)
	acquired, err := s.locks.SetNX(ctx, key, "1", s.lockTTL).Result()
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("advisory lock unavailable, relying on unique index")
		return func() {}, nil
	}
	if !acquired {
		return nil, ErrAssignmentInProgress
	}

	return func() {
		if err := s.locks.Del(context.WithoutCancel(ctx), key).Err(); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("failed to release advisory lock")
		}
	}, nil
}

func recipients(students []models.Student) []Recipient {
	out := make([]Recipient, 0, len(students))
	for _, student := range students {
		out = append(out, Recipient{ID: student.ID, Name: student.Name, Email: student.Email})
	}

	return out
}
