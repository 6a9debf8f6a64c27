package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/peergrade-api/internal/models"
)

// GradingTaskRepository defines data operations for grading tasks.
type GradingTaskRepository interface {
	CreateBatch(ctx context.Context, tasks []models.GradingTask) (int, error)
	GetByID(ctx context.Context, id uint) (models.GradingTask, error)
	PeerTasksForGrader(ctx context.Context, questionID, graderID uint) ([]models.GradingTask, error)
	SelfTasksForStudent(ctx context.Context, questionID, studentID uint) ([]models.GradingTask, error)
	TasksForSubmission(ctx context.Context, submissionID uint) ([]models.GradingTask, error)
	PeerTasksForStudent(ctx context.Context, questionID, studentID uint) ([]models.GradingTask, error)
	ExistingPairs(ctx context.Context, questionID uint) (map[[2]uint]struct{}, error)
	Update(ctx context.Context, task *models.GradingTask) error
}

type gradingTaskRepository struct {
	db *gorm.DB
}

// NewGradingTaskRepository instantiates the repository.
func NewGradingTaskRepository(db *gorm.DB) GradingTaskRepository {
	return &gradingTaskRepository{db: db}
}

func (r *gradingTaskRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.GradingTask{}).
		Preload("Question").
		Preload("Question.Homework").
		Preload("Submission")
}

// CreateBatch inserts tasks, silently discarding rows that collide with the
// (question, grader, submission) unique index. Returns the number of rows
// actually written so re-invocations report zero new tasks.
func (r *gradingTaskRepository) CreateBatch(ctx context.Context, tasks []models.GradingTask) (int, error) {
	if len(tasks) == 0 {
		return 0, nil
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "question_id"}, {Name: "grader_id"}, {Name: "submission_id"}},
			DoNothing: true,
		}).
		Create(&tasks)
	if result.Error != nil {
		return 0, result.Error
	}

	return int(result.RowsAffected), nil
}

func (r *gradingTaskRepository) GetByID(ctx context.Context, id uint) (models.GradingTask, error) {
	var task models.GradingTask
	if err := r.baseQuery(ctx).First(&task, id).Error; err != nil {
		return models.GradingTask{}, err
	}

	return task, nil
}

func (r *gradingTaskRepository) PeerTasksForGrader(ctx context.Context, questionID, graderID uint) ([]models.GradingTask, error) {
	var tasks []models.GradingTask
	err := r.baseQuery(ctx).
		Where("question_id = ?", questionID).
		Where("grader_id = ?", graderID).
		Where("student_id <> grader_id").
		Order("id ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}

	return tasks, nil
}

func (r *gradingTaskRepository) SelfTasksForStudent(ctx context.Context, questionID, studentID uint) ([]models.GradingTask, error) {
	var tasks []models.GradingTask
	err := r.baseQuery(ctx).
		Where("question_id = ?", questionID).
		Where("grader_id = ?", studentID).
		Where("student_id = grader_id").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}

	return tasks, nil
}

func (r *gradingTaskRepository) TasksForSubmission(ctx context.Context, submissionID uint) ([]models.GradingTask, error) {
	var tasks []models.GradingTask
	err := r.db.WithContext(ctx).Model(&models.GradingTask{}).
		Where("submission_id = ?", submissionID).
		Order("id ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}

	return tasks, nil
}

// PeerTasksForStudent lists the tasks other students hold against the given
// student's work, used for the rating loop.
func (r *gradingTaskRepository) PeerTasksForStudent(ctx context.Context, questionID, studentID uint) ([]models.GradingTask, error) {
	var tasks []models.GradingTask
	err := r.baseQuery(ctx).
		Where("question_id = ?", questionID).
		Where("student_id = ?", studentID).
		Where("grader_id <> student_id").
		Order("id ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}

	return tasks, nil
}

// ExistingPairs returns the set of (grader, submission) pairs already
// assigned for the question.
func (r *gradingTaskRepository) ExistingPairs(ctx context.Context, questionID uint) (map[[2]uint]struct{}, error) {
	var tasks []models.GradingTask
	err := r.db.WithContext(ctx).Model(&models.GradingTask{}).
		Select("grader_id", "submission_id").
		Where("question_id = ?", questionID).
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}

	pairs := make(map[[2]uint]struct{}, len(tasks))
	for _, task := range tasks {
		pairs[[2]uint{task.GraderID, task.SubmissionID}] = struct{}{}
	}

	return pairs, nil
}

func (r *gradingTaskRepository) Update(ctx context.Context, task *models.GradingTask) error {
	return r.db.WithContext(ctx).Save(task).Error
}
