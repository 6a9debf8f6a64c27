package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/peergrade-api/internal/models"
)

// QuestionRepository defines data operations for homeworks and questions.
type QuestionRepository interface {
	GetByID(ctx context.Context, id uint) (models.Question, error)
	Create(ctx context.Context, question *models.Question) error
	SetGradingDueDate(ctx context.Context, id uint, dueDate time.Time) error
	CreateHomework(ctx context.Context, homework *models.Homework) error
	GetHomework(ctx context.Context, id uint) (models.Homework, error)
	ListHomeworks(ctx context.Context) ([]models.Homework, error)
}

type questionRepository struct {
	db *gorm.DB
}

// NewQuestionRepository instantiates the repository.
func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

func (r *questionRepository) GetByID(ctx context.Context, id uint) (models.Question, error) {
	var question models.Question
	err := r.db.WithContext(ctx).Model(&models.Question{}).
		Preload("Homework").
		Preload("Items").
		First(&question, id).Error
	if err != nil {
		return models.Question{}, err
	}

	return question, nil
}

func (r *questionRepository) Create(ctx context.Context, question *models.Question) error {
	return r.db.WithContext(ctx).Create(question).Error
}

func (r *questionRepository) SetGradingDueDate(ctx context.Context, id uint, dueDate time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Question{}).
		Where("id = ?", id).
		Update("grading_due_date", dueDate).Error
}

func (r *questionRepository) CreateHomework(ctx context.Context, homework *models.Homework) error {
	return r.db.WithContext(ctx).Create(homework).Error
}

func (r *questionRepository) GetHomework(ctx context.Context, id uint) (models.Homework, error) {
	var homework models.Homework
	err := r.db.WithContext(ctx).Model(&models.Homework{}).
		Preload("Questions").
		Preload("Questions.Items").
		First(&homework, id).Error
	if err != nil {
		return models.Homework{}, err
	}

	return homework, nil
}

func (r *questionRepository) ListHomeworks(ctx context.Context) ([]models.Homework, error) {
	var homeworks []models.Homework
	err := r.db.WithContext(ctx).Model(&models.Homework{}).
		Preload("Questions").
		Order("due_date ASC").
		Find(&homeworks).Error
	if err != nil {
		return nil, err
	}

	return homeworks, nil
}
