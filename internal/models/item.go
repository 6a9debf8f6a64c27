package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Item type tags. The tag selects the checking behaviour; there is no
// inheritance hierarchy, just a variant dispatched on Type.
const (
	ItemTypeMultipleChoice = "multiple_choice"
	ItemTypeShortAnswer    = "short_answer"
	ItemTypeLongAnswer     = "long_answer"
)

// Item is one answerable part of a question. Body holds the variant
// payload (options, accepted answers) as JSON.
type Item struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	QuestionID uint           `gorm:"not null;index" json:"question_id"`
	Type       string         `gorm:"size:32;not null" json:"type"`
	Points     float64        `gorm:"not null" json:"points"`
	Solution   string         `gorm:"type:text" json:"solution"`
	Body       datatypes.JSON `json:"body"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// CheckResult is the outcome of checking one item response. A nil Score
// means the item cannot be auto-checked and is awaiting review.
type CheckResult struct {
	Score   *float64
	Comment string
}

// ChoiceOption is one selectable answer of a multiple-choice item.
type ChoiceOption struct {
	Text    string  `json:"text"`
	Points  float64 `json:"points"`
	Correct bool    `json:"correct"`
	Comment string  `json:"comment"`
}

type multipleChoiceBody struct {
	Options []ChoiceOption `json:"options"`
}

// ShortAnswerRule describes one accepted answer for a short-answer item.
// Type is either "exact" (case-insensitive string match) or "range"
// (numeric bounds, inclusive).
type ShortAnswerRule struct {
	Type       string   `json:"type"`
	Exact      string   `json:"exact,omitempty"`
	LowerBound float64  `json:"lower_bound,omitempty"`
	UpperBound float64  `json:"upper_bound,omitempty"`
	Points     *float64 `json:"points,omitempty"`
	Comment    string   `json:"comment,omitempty"`
}

type shortAnswerBody struct {
	Answers []ShortAnswerRule `json:"answers"`
}

const rangeTolerance = 1e-10

// Check evaluates a raw response against this item. Long-answer items
// always return a nil score; they are settled by peer grading.
func (i Item) Check(response string) (CheckResult, error) {
	switch i.Type {
	case ItemTypeMultipleChoice:
		return i.checkMultipleChoice(response)
	case ItemTypeShortAnswer:
		return i.checkShortAnswer(response)
	case ItemTypeLongAnswer:
		return CheckResult{}, nil
	default:
		return CheckResult{}, fmt.Errorf("unknown item type %q", i.Type)
	}
}

func (i Item) checkMultipleChoice(response string) (CheckResult, error) {
	var body multipleChoiceBody
	if err := json.Unmarshal(i.Body, &body); err != nil {
		return CheckResult{}, fmt.Errorf("invalid multiple choice body: %w", err)
	}

	index, err := strconv.Atoi(strings.TrimSpace(response))
	if err != nil || index < 0 || index >= len(body.Options) {
		return CheckResult{}, fmt.Errorf("invalid multiple choice answer")
	}

	option := body.Options[index]
	score := option.Points
	if option.Correct {
		score = i.Points
	}

	return CheckResult{Score: &score, Comment: option.Comment}, nil
}

func (i Item) checkShortAnswer(response string) (CheckResult, error) {
	var body shortAnswerBody
	if err := json.Unmarshal(i.Body, &body); err != nil {
		return CheckResult{}, fmt.Errorf("invalid short answer body: %w", err)
	}

	for _, rule := range body.Answers {
		matched, err := rule.matches(response)
		if err != nil {
			return CheckResult{}, err
		}
		if matched {
			score := i.Points
			if rule.Points != nil {
				score = *rule.Points
			}
			return CheckResult{Score: &score, Comment: rule.Comment}, nil
		}
	}

	zero := 0.0
	return CheckResult{Score: &zero}, nil
}

func (r ShortAnswerRule) matches(response string) (bool, error) {
	switch r.Type {
	case "exact":
		return strings.EqualFold(strings.TrimSpace(response), strings.TrimSpace(r.Exact)), nil
	case "range":
		cleaned := strings.Map(func(c rune) rune {
			if strings.ContainsRune("1234567890.-", c) {
				return c
			}
			return -1
		}, response)
		value, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return false, fmt.Errorf("could not parse numeric answer %q", response)
		}
		return r.LowerBound-rangeTolerance <= value && value <= r.UpperBound+rangeTolerance, nil
	default:
		return false, fmt.Errorf("unknown short answer rule type %q", r.Type)
	}
}
