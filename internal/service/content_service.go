package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gorm.io/gorm"

	"github.com/noah-isme/peergrade-api/internal/dto"
	"github.com/noah-isme/peergrade-api/internal/models"
	"github.com/noah-isme/peergrade-api/internal/repository"
)

// questionSchema constrains the definition document a question is created
// from. Item payloads are validated structurally here and semantically in
// buildItems.
const questionSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["items"],
  "properties": {
    "items": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["type", "points"],
        "properties": {
          "type": {"enum": ["multiple_choice", "short_answer", "long_answer"]},
          "points": {"type": "number", "minimum": 0},
          "solution": {"type": "string"},
          "options": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["text"],
              "properties": {
                "text": {"type": "string"},
                "points": {"type": "number"},
                "correct": {"type": "boolean"},
                "comment": {"type": "string"}
              }
            }
          },
          "answers": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["type"],
              "properties": {
                "type": {"enum": ["exact", "range"]},
                "exact": {"type": "string"},
                "lower_bound": {"type": "number"},
                "upper_bound": {"type": "number"},
                "points": {"type": "number"},
                "comment": {"type": "string"}
              }
            }
          }
        }
      }
    }
  }
}`

// ContentService manages the course material: homeworks and the questions
// under them.
type ContentService interface {
	CreateHomework(ctx context.Context, req dto.HomeworkCreateRequest) (dto.HomeworkResponse, error)
	CreateQuestion(ctx context.Context, req dto.QuestionCreateRequest) (dto.QuestionResponse, error)
	GetHomework(ctx context.Context, id uint) (dto.HomeworkResponse, error)
	ListHomeworks(ctx context.Context) ([]dto.HomeworkResponse, error)
}

type contentService struct {
	questions repository.QuestionRepository
	validate  *validator.Validate
	schema    *jsonschema.Schema
	logger    zerolog.Logger
}

type questionDefinition struct {
	Items []itemDefinition `json:"items"`
}

type itemDefinition struct {
	Type     string                   `json:"type"`
	Points   float64                  `json:"points"`
	Solution string                   `json:"solution"`
	Options  []models.ChoiceOption    `json:"options"`
	Answers  []models.ShortAnswerRule `json:"answers"`
}

// NewContentService constructs the content service. The question schema is
// compiled once at startup; a broken schema is a programming error.
func NewContentService(questions repository.QuestionRepository, validate *validator.Validate, logger zerolog.Logger) ContentService {
	schema := jsonschema.MustCompileString("question.schema.json", questionSchema)

	return &contentService{
		questions: questions,
		validate:  validate,
		schema:    schema,
		logger:    logger.With().Str("component", "content_service").Logger(),
	}
}

func (s *contentService) CreateHomework(ctx context.Context, req dto.HomeworkCreateRequest) (dto.HomeworkResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return dto.HomeworkResponse{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	homework := models.Homework{
		Name:      req.Name,
		StartDate: req.StartDate,
		DueDate:   req.DueDate,
	}
	if err := s.questions.CreateHomework(ctx, &homework); err != nil {
		return dto.HomeworkResponse{}, err
	}

	s.logger.Info().Uint("homework_id", homework.ID).Str("name", homework.Name).Msg("homework created")

	return dto.NewHomeworkResponse(homework), nil
}

// CreateQuestion validates the definition document, expands it into item
// rows and persists question and items in one create. Question points are
// the sum of the item points.
func (s *contentService) CreateQuestion(ctx context.Context, req dto.QuestionCreateRequest) (dto.QuestionResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return dto.QuestionResponse{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	var document interface{}
	decoder := json.NewDecoder(bytes.NewReader(req.Definition))
	decoder.UseNumber()
	if err := decoder.Decode(&document); err != nil {
		return dto.QuestionResponse{}, fmt.Errorf("%w: definition is not valid JSON", ErrInvalidResponse)
	}
	if err := s.schema.Validate(document); err != nil {
		return dto.QuestionResponse{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	var definition questionDefinition
	if err := json.Unmarshal(req.Definition, &definition); err != nil {
		return dto.QuestionResponse{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	items, points, err := buildItems(definition.Items)
	if err != nil {
		return dto.QuestionResponse{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	if _, err := s.questions.GetHomework(ctx, req.HomeworkID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuestionResponse{}, ErrNotFound
		}
		return dto.QuestionResponse{}, err
	}

	question := models.Question{
		HomeworkID:     req.HomeworkID,
		Name:           req.Name,
		Points:         points,
		SelfAssessment: req.SelfAssessment,
		Definition:     []byte(req.Definition),
		Items:          items,
	}
	if err := s.questions.Create(ctx, &question); err != nil {
		return dto.QuestionResponse{}, err
	}

	s.logger.Info().
		Uint("question_id", question.ID).
		Uint("homework_id", question.HomeworkID).
		Float64("points", points).
		Int("items", len(items)).
		Msg("question created")

	return dto.NewQuestionResponse(question), nil
}

func (s *contentService) GetHomework(ctx context.Context, id uint) (dto.HomeworkResponse, error) {
	homework, err := s.questions.GetHomework(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.HomeworkResponse{}, ErrNotFound
		}
		return dto.HomeworkResponse{}, err
	}

	return dto.NewHomeworkResponse(homework), nil
}

func (s *contentService) ListHomeworks(ctx context.Context) ([]dto.HomeworkResponse, error) {
	homeworks, err := s.questions.ListHomeworks(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.HomeworkResponse, 0, len(homeworks))
	for _, homework := range homeworks {
		responses = append(responses, dto.NewHomeworkResponse(homework))
	}

	return responses, nil
}

func buildItems(definitions []itemDefinition) ([]models.Item, float64, error) {
	items := make([]models.Item, 0, len(definitions))
	total := 0.0

	for i, def := range definitions {
		item := models.Item{
			Type:     def.Type,
			Points:   def.Points,
			Solution: def.Solution,
		}

		switch def.Type {
		case models.ItemTypeMultipleChoice:
			if len(def.Options) == 0 {
				return nil, 0, fmt.Errorf("item %d: multiple choice requires options", i)
			}
			body, err := json.Marshal(map[string]interface{}{"options": def.Options})
			if err != nil {
				return nil, 0, err
			}
			item.Body = body
		case models.ItemTypeShortAnswer:
			if len(def.Answers) == 0 {
				return nil, 0, fmt.Errorf("item %d: short answer requires accepted answers", i)
			}
			body, err := json.Marshal(map[string]interface{}{"answers": def.Answers})
			if err != nil {
				return nil, 0, err
			}
			item.Body = body
		case models.ItemTypeLongAnswer:
			// No payload; checked by peers.
		default:
			return nil, 0, fmt.Errorf("item %d: unknown type %q", i, def.Type)
		}

		total += def.Points
		items = append(items, item)
	}

	return items, total, nil
}
