package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/peergrade-api/internal/config"
	"github.com/noah-isme/peergrade-api/internal/handler"
	"github.com/noah-isme/peergrade-api/internal/models"
	"github.com/noah-isme/peergrade-api/internal/repository"
	"github.com/noah-isme/peergrade-api/internal/router"
	"github.com/noah-isme/peergrade-api/internal/service"
	"github.com/noah-isme/peergrade-api/internal/utils"
	"github.com/noah-isme/peergrade-api/pkg/mailer"
)

func setupApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Student{},
		&models.Homework{},
		&models.Question{},
		&models.Item{},
		&models.Submission{},
		&models.GradingTask{},
		&models.Grade{},
	))

	logger := zerolog.New(io.Discard)
	validate := validator.New(validator.WithRequiredStructEnabled())

	questionRepo := repository.NewQuestionRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	taskRepo := repository.NewGradingTaskRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	gradeRepo := repository.NewGradeRepository(db)

	clock := service.NewLockClock(6*time.Hour, 2)
	notifier := service.NewNotifier(mailer.NewConsole(logger), nil, logger)
	roster := service.NewEnrolledRoster(studentRepo)

	aggregationService := service.NewAggregationService(taskRepo, submissionRepo, nil, time.Minute, 30*time.Minute, logger)
	assignmentService := service.NewAssignmentService(questionRepo, submissionRepo, taskRepo, studentRepo, roster, notifier, nil, time.Minute, logger)
	gradingService := service.NewGradingService(taskRepo, questionRepo, submissionRepo, aggregationService, clock, nil, logger)
	submissionService := service.NewSubmissionService(submissionRepo, questionRepo, aggregationService, clock, logger)
	contentService := service.NewContentService(questionRepo, validate, logger)
	gradebookService := service.NewGradebookService(gradeRepo, questionRepo, submissionRepo, logger)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "Test", JWTSecret: "secret"}, router.Dependencies{
		AssignmentHandler: handler.NewAssignmentHandler(assignmentService, validate, 72*time.Hour),
		GradingHandler:    handler.NewGradingHandler(gradingService, aggregationService, validate),
		SubmissionHandler: handler.NewSubmissionHandler(submissionService, aggregationService, validate),
		ContentHandler:    handler.NewContentHandler(contentService),
		GradebookHandler:  handler.NewGradebookHandler(gradebookService),
		JWTMiddleware: func(c *fiber.Ctx) error {
			c.Locals("student_id", uint(1))
			return c.Next()
		},
	})

	return app, db
}

func seedGradingScenario(t *testing.T, db *gorm.DB) (models.Question, []models.Student, models.Submission, models.GradingTask) {
	t.Helper()

	homework := models.Homework{Name: fmt.Sprintf("HW %s", t.Name()), DueDate: time.Now().Add(-time.Hour)}
	require.NoError(t, db.Create(&homework).Error)

	question := models.Question{
		HomeworkID: homework.ID,
		Name:       "Essay",
		Points:     10,
		Items:      []models.Item{{Type: models.ItemTypeLongAnswer, Points: 10, Solution: "A proof."}},
	}
	require.NoError(t, db.Create(&question).Error)

	students := make([]models.Student, 2)
	for i := range students {
		students[i] = models.Student{
			Name:  fmt.Sprintf("Student %d", i+1),
			Email: fmt.Sprintf("s%d+%s@example.edu", i+1, t.Name()),
			Role:  models.StudentRoleStudent,
		}
		require.NoError(t, db.Create(&students[i]).Error)
	}

	submission := models.Submission{
		QuestionID:  question.ID,
		StudentID:   students[0].ID,
		SubmittedAt: time.Now().Add(-2 * time.Hour),
		Answers:     []byte(`["my essay"]`),
	}
	require.NoError(t, db.Create(&submission).Error)

	task := models.GradingTask{
		QuestionID:   question.ID,
		GraderID:     students[1].ID,
		StudentID:    students[0].ID,
		SubmissionID: submission.ID,
		AssignedAt:   time.Now().Add(-time.Hour),
	}
	require.NoError(t, db.Create(&task).Error)

	return question, students, submission, task
}

func postJSON(t *testing.T, app *fiber.App, path string, payload interface{}) *http.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	return resp
}

func decodeResponse(t *testing.T, resp *http.Response) utils.APIResponse {
	t.Helper()

	var payload utils.APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.NoError(t, resp.Body.Close())

	return payload
}

func TestGradingHandler_RecordGrade(t *testing.T) {
	app, db := setupApp(t)
	_, students, submission, task := seedGradingScenario(t, db)

	resp := postJSON(t, app, fmt.Sprintf("/api/v1/grading-tasks/%d/grade", task.ID), fiber.Map{
		"grader_id": students[1].ID,
		"score":     8,
		"comment":   "Well structured argument.",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	payload := decodeResponse(t, resp)
	require.True(t, payload.Success)

	var stored models.Submission
	require.NoError(t, db.First(&stored, submission.ID).Error)
	require.NotNil(t, stored.Score)
	require.Equal(t, 8.0, *stored.Score)
}

func TestGradingHandler_RecordGradeErrors(t *testing.T) {
	app, db := setupApp(t)
	_, students, _, task := seedGradingScenario(t, db)

	resp := postJSON(t, app, "/api/v1/grading-tasks/999/grade", fiber.Map{
		"grader_id": students[1].ID,
		"score":     8,
		"comment":   "ghost task",
	})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = postJSON(t, app, fmt.Sprintf("/api/v1/grading-tasks/%d/grade", task.ID), fiber.Map{
		"grader_id": students[0].ID,
		"score":     8,
		"comment":   "not mine",
	})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = postJSON(t, app, fmt.Sprintf("/api/v1/grading-tasks/%d/grade", task.ID), fiber.Map{
		"grader_id": students[1].ID,
		"score":     42,
		"comment":   "too generous",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, app, fmt.Sprintf("/api/v1/grading-tasks/%d/grade", task.ID), fiber.Map{
		"grader_id": students[1].ID,
		"score":     8,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGradingHandler_RecordGradeLocked(t *testing.T) {
	app, db := setupApp(t)
	question, students, _, task := seedGradingScenario(t, db)

	past := time.Now().Add(-time.Minute)
	require.NoError(t, db.Model(&models.Question{}).Where("id = ?", question.ID).
		Update("grading_due_date", past).Error)

	resp := postJSON(t, app, fmt.Sprintf("/api/v1/grading-tasks/%d/grade", task.ID), fiber.Map{
		"grader_id": students[1].ID,
		"score":     8,
		"comment":   "after hours",
	})
	require.Equal(t, http.StatusLocked, resp.StatusCode)
}

func TestGradingHandler_TasksAndRating(t *testing.T) {
	app, db := setupApp(t)
	question, students, _, task := seedGradingScenario(t, db)

	req := httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/api/v1/questions/%d/grading-tasks?grader_id=%d", question.ID, students[1].ID), nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, app, fmt.Sprintf("/api/v1/grading-tasks/%d/rating", task.ID), fiber.Map{
		"submitter_id": students[0].ID,
		"rating":       4,
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode, "cannot rate an incomplete task")

	resp = postJSON(t, app, fmt.Sprintf("/api/v1/grading-tasks/%d/grade", task.ID), fiber.Map{
		"grader_id": students[1].ID,
		"score":     8,
		"comment":   "Well done.",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, app, fmt.Sprintf("/api/v1/grading-tasks/%d/rating", task.ID), fiber.Map{
		"submitter_id": students[0].ID,
		"rating":       4,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGradingHandler_Feedback(t *testing.T) {
	app, db := setupApp(t)
	question, students, _, task := seedGradingScenario(t, db)

	resp := postJSON(t, app, fmt.Sprintf("/api/v1/grading-tasks/%d/grade", task.ID), fiber.Map{
		"grader_id": students[1].ID,
		"score":     8,
		"comment":   "Readable and correct.",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/api/v1/questions/%d/feedback?student_id=%d", question.ID, students[0].ID), nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	payload := decodeResponse(t, resp)
	require.True(t, payload.Success)

	entries, ok := payload.Data.([]interface{})
	require.True(t, ok)
	require.Len(t, entries, 1)
	entry := entries[0].(map[string]interface{})
	require.Equal(t, "Readable and correct.", entry["comment"])
	require.NotContains(t, entry, "grader_id", "feedback is anonymous")
}

func TestAssignmentHandler_Assign(t *testing.T) {
	app, db := setupApp(t)

	homework := models.Homework{Name: fmt.Sprintf("HW %s", t.Name()), DueDate: time.Now().Add(-time.Hour)}
	require.NoError(t, db.Create(&homework).Error)
	question := models.Question{
		HomeworkID: homework.ID,
		Points:     10,
		Items:      []models.Item{{Type: models.ItemTypeLongAnswer, Points: 10}},
	}
	require.NoError(t, db.Create(&question).Error)

	for i := 0; i < 4; i++ {
		student := models.Student{
			Name:  fmt.Sprintf("Student %d", i+1),
			Email: fmt.Sprintf("a%d+%s@example.edu", i+1, t.Name()),
			Role:  models.StudentRoleStudent,
		}
		require.NoError(t, db.Create(&student).Error)
		submission := models.Submission{
			QuestionID:  question.ID,
			StudentID:   student.ID,
			SubmittedAt: time.Now().Add(-2 * time.Hour),
			Answers:     []byte(`["essay"]`),
		}
		require.NoError(t, db.Create(&submission).Error)
	}

	resp := postJSON(t, app, fmt.Sprintf("/api/v1/questions/%d/assign", question.ID), fiber.Map{
		"due_date": time.Now().Add(72 * time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var count int64
	require.NoError(t, db.Model(&models.GradingTask{}).Count(&count).Error)
	require.EqualValues(t, 12, count)
}

func TestHealthEndpoint(t *testing.T) {
	app, _ := setupApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
