package service_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/peergrade-api/internal/dto"
	"github.com/noah-isme/peergrade-api/internal/models"
	"github.com/noah-isme/peergrade-api/internal/repository"
	"github.com/noah-isme/peergrade-api/internal/service"
)

func newContentService(t *testing.T, db *gorm.DB) service.ContentService {
	t.Helper()

	validate := validator.New(validator.WithRequiredStructEnabled())
	return service.NewContentService(repository.NewQuestionRepository(db), validate, zerolog.New(io.Discard))
}

func TestContentService_CreateQuestion(t *testing.T) {
	db := openTestDB(t)
	svc := newContentService(t, db)

	homework, err := svc.CreateHomework(context.Background(), dto.HomeworkCreateRequest{
		Name:    "Week 3",
		DueDate: time.Now().Add(7 * 24 * time.Hour),
	})
	require.NoError(t, err)

	definition := `{
		"items": [
			{"type": "multiple_choice", "points": 2, "solution": "Paris",
			 "options": [{"text": "Paris", "correct": true}, {"text": "Lyon"}]},
			{"type": "short_answer", "points": 3, "solution": "42",
			 "answers": [{"type": "exact", "exact": "42"}]},
			{"type": "long_answer", "points": 10, "solution": "A full proof."}
		]
	}`

	question, err := svc.CreateQuestion(context.Background(), dto.QuestionCreateRequest{
		HomeworkID: homework.ID,
		Name:       "Mixed question",
		Definition: []byte(definition),
	})
	require.NoError(t, err)
	require.Equal(t, 15.0, question.Points)
	require.Equal(t, 3, question.ItemCount)

	var items []models.Item
	require.NoError(t, db.Where("question_id = ?", question.ID).Order("id ASC").Find(&items).Error)
	require.Len(t, items, 3)
	require.Equal(t, models.ItemTypeMultipleChoice, items[0].Type)
	require.Equal(t, models.ItemTypeLongAnswer, items[2].Type)
}

func TestContentService_CreateQuestionRejectsBadDefinition(t *testing.T) {
	db := openTestDB(t)
	svc := newContentService(t, db)

	homework, err := svc.CreateHomework(context.Background(), dto.HomeworkCreateRequest{
		Name:    "Week 4",
		DueDate: time.Now().Add(7 * 24 * time.Hour),
	})
	require.NoError(t, err)

	cases := map[string]string{
		"not json":       `{"items": `,
		"no items":       `{"items": []}`,
		"unknown type":   `{"items": [{"type": "drawing", "points": 5}]}`,
		"missing points": `{"items": [{"type": "long_answer"}]}`,
		"mc no options":  `{"items": [{"type": "multiple_choice", "points": 2}]}`,
	}

	for name, definition := range cases {
		_, err := svc.CreateQuestion(context.Background(), dto.QuestionCreateRequest{
			HomeworkID: homework.ID,
			Name:       name,
			Definition: []byte(definition),
		})
		require.ErrorIs(t, err, service.ErrInvalidResponse, name)
	}
}

func TestContentService_CreateQuestionUnknownHomework(t *testing.T) {
	db := openTestDB(t)
	svc := newContentService(t, db)

	_, err := svc.CreateQuestion(context.Background(), dto.QuestionCreateRequest{
		HomeworkID: 999,
		Name:       "Orphan",
		Definition: []byte(`{"items": [{"type": "long_answer", "points": 10}]}`),
	})
	require.ErrorIs(t, err, service.ErrNotFound)
}
