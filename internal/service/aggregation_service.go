package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/peergrade-api/internal/dto"
	"github.com/noah-isme/peergrade-api/internal/models"
	"github.com/noah-isme/peergrade-api/internal/observability"
	"github.com/noah-isme/peergrade-api/internal/repository"
)

const aggregateFeedback = "Your peers' comments on your submission are available. Please review and rate them."

// AggregationService turns completed peer grades into one authoritative
// score per submission and produces rating summaries for graders.
type AggregationService interface {
	Recompute(ctx context.Context, submissionID uint) (dto.AggregateGradeResponse, error)
	Aggregate(ctx context.Context, submissionID uint) (dto.AggregateGradeResponse, error)
	RatingSummary(ctx context.Context, questionID, graderID uint) (dto.RatingSummaryResponse, error)
	DelayFeedback(submission models.Submission, dueDate time.Time) dto.SubmissionResponse
}

type aggregationService struct {
	tasks         repository.GradingTaskRepository
	submissions   repository.SubmissionRepository
	cache         *redis.Client
	cacheTTL      time.Duration
	feedbackDelay time.Duration
	logger        zerolog.Logger
	now           func() time.Time
}

// NewAggregationService constructs the aggregation engine. The redis cache
// is optional; when absent every read recomputes from storage.
func NewAggregationService(tasks repository.GradingTaskRepository, submissions repository.SubmissionRepository, cache *redis.Client, cacheTTL, feedbackDelay time.Duration, logger zerolog.Logger) AggregationService {
	return &aggregationService{
		tasks:         tasks,
		submissions:   submissions,
		cache:         cache,
		cacheTTL:      cacheTTL,
		feedbackDelay: feedbackDelay,
		logger:        logger.With().Str("component", "aggregation_service").Logger(),
		now:           time.Now,
	}
}

// Recompute derives the aggregate grade from the full set of completed peer
// tasks targeting the submission. It is a pure function of that set, so
// concurrent invocations converge on the same value; the submission row is
// only written when the aggregate actually changed.
func (s *aggregationService) Recompute(ctx context.Context, submissionID uint) (dto.AggregateGradeResponse, error) {
	tasks, err := s.tasks.TasksForSubmission(ctx, submissionID)
	if err != nil {
		return dto.AggregateGradeResponse{}, err
	}

	var scores []float64
	for _, task := range tasks {
		if task.IsCompleted() && !task.IsSelfAssessment() {
			scores = append(scores, *task.Score)
		}
	}

	observability.AggregateRecomputes().Inc()

	result := dto.AggregateGradeResponse{
		SubmissionID:   submissionID,
		CompletedCount: len(scores),
	}

	if len(scores) == 0 {
		result.Pending = true
		s.cacheResult(ctx, result)
		return result, nil
	}

	median := lowerMedian(scores)
	result.Score = &median

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AggregateGradeResponse{}, ErrNotFound
		}
		return dto.AggregateGradeResponse{}, err
	}

	if submission.Score == nil || *submission.Score != median {
		if err := s.submissions.UpdateScore(ctx, submissionID, &median, aggregateFeedback); err != nil {
			return dto.AggregateGradeResponse{}, err
		}
		s.logger.Info().
			Uint("submission_id", submissionID).
			Float64("score", median).
			Int("completed", len(scores)).
			Msg("aggregate grade updated")
	}

	s.cacheResult(ctx, result)

	return result, nil
}

// Aggregate returns the cached aggregate when available, recomputing
// otherwise. The cache is overwritten on every task completion, so a stale
// read can only ever lag by one recompute.
func (s *aggregationService) Aggregate(ctx context.Context, submissionID uint) (dto.AggregateGradeResponse, error) {
	if s.cache != nil {
		key := fmt.Sprintf("aggregate:submission:%d", submissionID)
		if cached, err := s.cache.Get(ctx, key).Result(); err == nil {
			var result dto.AggregateGradeResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &result); unmarshalErr == nil {
				return result, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read aggregate cache")
		}
	}

	return s.Recompute(ctx, submissionID)
}

// RatingSummary reports how a grader's feedback was received. At least two
// peers must have rated the feedback before a qualitative summary is given.
func (s *aggregationService) RatingSummary(ctx context.Context, questionID, graderID uint) (dto.RatingSummaryResponse, error) {
	tasks, err := s.tasks.PeerTasksForGrader(ctx, questionID, graderID)
	if err != nil {
		return dto.RatingSummaryResponse{}, err
	}

	var ratings []int
	completed := 0
	for _, task := range tasks {
		if task.IsCompleted() {
			completed++
		}
		if task.Rating != nil {
			ratings = append(ratings, *task.Rating)
		}
	}

	summary := dto.RatingSummaryResponse{RatingCount: len(ratings)}

	if len(ratings) < 2 {
		if completed > 0 {
			summary.Comment = "Your peers have not had the chance yet to look over their feedback. When they do, their feedback will be shown here."
		}
		return summary, nil
	}

	sort.Ints(ratings)
	median := ratings[len(ratings)/2]
	summary.Median = &median

	comment := fmt.Sprintf("%d peers responded to your feedback. ", len(ratings))
	switch {
	case median == 4:
		comment += "They were satisfied overall with the quality of your feedback."
	case median == 3:
		comment += "Your feedback was good, but some peers felt that it could have been better."
	case median <= 2:
		comment += "Your peers did not find your feedback satisfactory. If you are concerned, please see a member of the course staff to discuss strategies to improve."
	}
	summary.Comment = comment

	return summary, nil
}

// DelayFeedback withholds score and comments for a fixed window after
// submission, or until the homework due date, whichever comes first. The
// stored row is never mutated; this is a read-side transformation only.
func (s *aggregationService) DelayFeedback(submission models.Submission, dueDate time.Time) dto.SubmissionResponse {
	response := dto.NewSubmissionResponse(submission)
	if submission.Score == nil {
		return response
	}

	available := submission.SubmittedAt.Add(s.feedbackDelay)
	if dueDate.Before(available) {
		available = dueDate
	}

	now := s.now()
	if now.Before(available) {
		response.Score = nil
		response.Feedback = fmt.Sprintf(
			"Feedback on your submission will be available in %d minutes, at %s. Please refresh the page at that time to view it.",
			1+int(available.Sub(now).Minutes()), available.Format("15:04"))
	}

	return response
}

func (s *aggregationService) cacheResult(ctx context.Context, result dto.AggregateGradeResponse) {
	if s.cache == nil {
		return
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return
	}

	key := fmt.Sprintf("aggregate:submission:%d", result.SubmissionID)
	if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to store aggregate cache")
	}
}

// lowerMedian returns sorted(scores)[len/2]. The index choice is part of
// the grading contract and must not change between releases.
func lowerMedian(scores []float64) float64 {
	sorted := make([]float64, len(scores))
	copy(sorted, scores)
	sort.Float64s(sorted)

	return sorted[len(sorted)/2]
}
