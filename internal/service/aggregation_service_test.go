package service_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/peergrade-api/internal/models"
	"github.com/noah-isme/peergrade-api/internal/repository"
	"github.com/noah-isme/peergrade-api/internal/service"
)

func newAggregationService(t *testing.T, db *gorm.DB, cache *redis.Client) service.AggregationService {
	t.Helper()

	return service.NewAggregationService(
		repository.NewGradingTaskRepository(db),
		repository.NewSubmissionRepository(db),
		cache,
		time.Minute,
		30*time.Minute,
		zerolog.New(io.Discard),
	)
}

func seedCompletedTask(t *testing.T, db *gorm.DB, question models.Question, graderID uint, submission models.Submission, score float64) models.GradingTask {
	t.Helper()

	completedAt := time.Now()
	task := models.GradingTask{
		QuestionID:   question.ID,
		GraderID:     graderID,
		StudentID:    submission.StudentID,
		SubmissionID: submission.ID,
		AssignedAt:   time.Now().Add(-time.Hour),
		Score:        &score,
		Comment:      "solid work",
		CompletedAt:  &completedAt,
	}
	require.NoError(t, db.Create(&task).Error)

	return task
}

func TestAggregationService_LowerMedian(t *testing.T) {
	db := openTestDB(t)
	question := seedQuestion(t, db, time.Now().Add(-time.Hour), false)
	students := seedStudents(t, db, 4)
	submission := seedSubmission(t, db, question.ID, students[0].ID, time.Now().Add(-2*time.Hour))

	// Insertion order deliberately unsorted; the aggregate depends only on
	// the multiset of scores.
	seedCompletedTask(t, db, question, students[1].ID, submission, 90)
	seedCompletedTask(t, db, question, students[2].ID, submission, 70)
	seedCompletedTask(t, db, question, students[3].ID, submission, 80)

	svc := newAggregationService(t, db, nil)
	result, err := svc.Recompute(context.Background(), submission.ID)
	require.NoError(t, err)
	require.False(t, result.Pending)
	require.Equal(t, 3, result.CompletedCount)
	require.NotNil(t, result.Score)
	require.Equal(t, 80.0, *result.Score)

	var stored models.Submission
	require.NoError(t, db.First(&stored, submission.ID).Error)
	require.NotNil(t, stored.Score)
	require.Equal(t, 80.0, *stored.Score)
}

func TestAggregationService_EvenCountTakesUpperOfMiddlePair(t *testing.T) {
	db := openTestDB(t)
	question := seedQuestion(t, db, time.Now().Add(-time.Hour), false)
	students := seedStudents(t, db, 5)
	submission := seedSubmission(t, db, question.ID, students[0].ID, time.Now().Add(-2*time.Hour))

	seedCompletedTask(t, db, question, students[1].ID, submission, 100)
	seedCompletedTask(t, db, question, students[2].ID, submission, 70)
	seedCompletedTask(t, db, question, students[3].ID, submission, 90)
	seedCompletedTask(t, db, question, students[4].ID, submission, 80)

	svc := newAggregationService(t, db, nil)
	result, err := svc.Recompute(context.Background(), submission.ID)
	require.NoError(t, err)
	require.NotNil(t, result.Score)
	require.Equal(t, 90.0, *result.Score)
}

func TestAggregationService_PendingWithoutCompletedGrades(t *testing.T) {
	db := openTestDB(t)
	question := seedQuestion(t, db, time.Now().Add(-time.Hour), false)
	students := seedStudents(t, db, 2)
	submission := seedSubmission(t, db, question.ID, students[0].ID, time.Now().Add(-2*time.Hour))

	task := models.GradingTask{
		QuestionID:   question.ID,
		GraderID:     students[1].ID,
		StudentID:    students[0].ID,
		SubmissionID: submission.ID,
		AssignedAt:   time.Now(),
	}
	require.NoError(t, db.Create(&task).Error)

	svc := newAggregationService(t, db, nil)
	result, err := svc.Recompute(context.Background(), submission.ID)
	require.NoError(t, err)
	require.True(t, result.Pending)
	require.Nil(t, result.Score)
}

func TestAggregationService_SelfAssessmentExcluded(t *testing.T) {
	db := openTestDB(t)
	question := seedQuestion(t, db, time.Now().Add(-time.Hour), true)
	students := seedStudents(t, db, 3)
	submission := seedSubmission(t, db, question.ID, students[0].ID, time.Now().Add(-2*time.Hour))

	// The student rates their own work generously; it must not move the
	// aggregate.
	seedCompletedTask(t, db, question, students[0].ID, submission, 100)
	seedCompletedTask(t, db, question, students[1].ID, submission, 60)
	seedCompletedTask(t, db, question, students[2].ID, submission, 70)

	svc := newAggregationService(t, db, nil)
	result, err := svc.Recompute(context.Background(), submission.ID)
	require.NoError(t, err)
	require.Equal(t, 2, result.CompletedCount)
	require.NotNil(t, result.Score)
	require.Equal(t, 70.0, *result.Score)
}

func TestAggregationService_AggregateUsesCache(t *testing.T) {
	db := openTestDB(t)
	question := seedQuestion(t, db, time.Now().Add(-time.Hour), false)
	students := seedStudents(t, db, 2)
	submission := seedSubmission(t, db, question.ID, students[0].ID, time.Now().Add(-2*time.Hour))
	seedCompletedTask(t, db, question, students[1].ID, submission, 85)

	mini := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mini.Addr()})

	svc := newAggregationService(t, db, cache)
	first, err := svc.Recompute(context.Background(), submission.ID)
	require.NoError(t, err)

	// Wipe the tasks; the cached aggregate must still be served.
	require.NoError(t, db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.GradingTask{}).Error)

	cached, err := svc.Aggregate(context.Background(), submission.ID)
	require.NoError(t, err)
	require.Equal(t, first, cached)
}

func TestAggregationService_RatingSummarySatisfied(t *testing.T) {
	db := openTestDB(t)
	question := seedQuestion(t, db, time.Now().Add(-time.Hour), false)
	students := seedStudents(t, db, 4)
	grader := students[0]

	ratings := []int{4, 4, 3}
	for i, rating := range ratings {
		submission := seedSubmission(t, db, question.ID, students[i+1].ID, time.Now().Add(-2*time.Hour))
		task := seedCompletedTask(t, db, question, grader.ID, submission, 80)
		r := rating
		task.Rating = &r
		require.NoError(t, db.Save(&task).Error)
	}

	svc := newAggregationService(t, db, nil)
	summary, err := svc.RatingSummary(context.Background(), question.ID, grader.ID)
	require.NoError(t, err)
	require.Equal(t, 3, summary.RatingCount)
	require.NotNil(t, summary.Median)
	require.Equal(t, 4, *summary.Median)
	require.Contains(t, summary.Comment, "satisfied overall")
}

func TestAggregationService_RatingSummaryEscalation(t *testing.T) {
	db := openTestDB(t)
	question := seedQuestion(t, db, time.Now().Add(-time.Hour), false)
	students := seedStudents(t, db, 3)
	grader := students[0]

	ratings := []int{2, 1}
	for i, rating := range ratings {
		submission := seedSubmission(t, db, question.ID, students[i+1].ID, time.Now().Add(-2*time.Hour))
		task := seedCompletedTask(t, db, question, grader.ID, submission, 80)
		r := rating
		task.Rating = &r
		require.NoError(t, db.Save(&task).Error)
	}

	svc := newAggregationService(t, db, nil)
	summary, err := svc.RatingSummary(context.Background(), question.ID, grader.ID)
	require.NoError(t, err)
	require.NotNil(t, summary.Median)
	require.Equal(t, 2, *summary.Median)
	require.Contains(t, summary.Comment, "did not find your feedback satisfactory")
}

func TestAggregationService_RatingSummaryWaitsForTwoRatings(t *testing.T) {
	db := openTestDB(t)
	question := seedQuestion(t, db, time.Now().Add(-time.Hour), false)
	students := seedStudents(t, db, 2)
	grader := students[0]

	submission := seedSubmission(t, db, question.ID, students[1].ID, time.Now().Add(-2*time.Hour))
	seedCompletedTask(t, db, question, grader.ID, submission, 80)

	svc := newAggregationService(t, db, nil)
	summary, err := svc.RatingSummary(context.Background(), question.ID, grader.ID)
	require.NoError(t, err)
	require.Equal(t, 0, summary.RatingCount)
	require.Nil(t, summary.Median)
	require.Contains(t, summary.Comment, "have not had the chance yet")
}

func TestAggregationService_DelayFeedbackWithholdsFreshScores(t *testing.T) {
	db := openTestDB(t)
	svc := newAggregationService(t, db, nil)

	score := 8.0
	submission := models.Submission{
		ID:          1,
		QuestionID:  1,
		StudentID:   1,
		SubmittedAt: time.Now(),
		Score:       &score,
		Feedback:    "well argued",
	}

	response := svc.DelayFeedback(submission, time.Now().Add(24*time.Hour))
	require.Nil(t, response.Score)
	require.Contains(t, response.Feedback, "will be available in")
}

func TestAggregationService_DelayFeedbackExpires(t *testing.T) {
	db := openTestDB(t)
	svc := newAggregationService(t, db, nil)

	score := 8.0
	submission := models.Submission{
		ID:          1,
		QuestionID:  1,
		StudentID:   1,
		SubmittedAt: time.Now().Add(-time.Hour),
		Score:       &score,
		Feedback:    "well argued",
	}

	response := svc.DelayFeedback(submission, time.Now().Add(24*time.Hour))
	require.NotNil(t, response.Score)
	require.Equal(t, 8.0, *response.Score)
	require.Equal(t, "well argued", response.Feedback)
}

func TestAggregationService_DelayFeedbackCappedByDueDate(t *testing.T) {
	db := openTestDB(t)
	svc := newAggregationService(t, db, nil)

	score := 8.0
	submission := models.Submission{
		ID:          1,
		QuestionID:  1,
		StudentID:   1,
		SubmittedAt: time.Now(),
		Score:       &score,
		Feedback:    "well argued",
	}

	// The deadline has already passed, so the delay window collapses.
	response := svc.DelayFeedback(submission, time.Now().Add(-time.Minute))
	require.NotNil(t, response.Score)
}
