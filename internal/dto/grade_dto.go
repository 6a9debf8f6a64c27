package dto

import (
	"time"

	"github.com/noah-isme/peergrade-api/internal/models"
)

// GradeResponse is one settled gradebook row.
type GradeResponse struct {
	HomeworkID uint      `json:"homework_id"`
	Score      float64   `json:"score"`
	Points     float64   `json:"points"`
	RecordedAt time.Time `json:"recorded_at"`
}

// NewGradeResponseSlice converts gradebook rows into DTOs.
func NewGradeResponseSlice(grades []models.Grade) []GradeResponse {
	responses := make([]GradeResponse, 0, len(grades))
	for _, grade := range grades {
		responses = append(responses, GradeResponse{
			HomeworkID: grade.HomeworkID,
			Score:      grade.Score,
			Points:     grade.Points,
			RecordedAt: grade.RecordedAt,
		})
	}

	return responses
}
