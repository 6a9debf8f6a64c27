package service

import (
	"time"

	"github.com/noah-isme/peergrade-api/internal/models"
)

// LockClock decides whether submission or grading actions are permitted at
// the current wall-clock time. It is a pure predicate re-evaluated on every
// request; nothing about the locked state is persisted.
type LockClock struct {
	cooldown    time.Duration
	freeRetries int
	now         func() time.Time
}

// NewLockClock builds a LockClock with the given resubmission throttle. A
// student gets freeRetries submissions before the cooldown window applies.
func NewLockClock(cooldown time.Duration, freeRetries int) *LockClock {
	return &LockClock{
		cooldown:    cooldown,
		freeRetries: freeRetries,
		now:         time.Now,
	}
}

// IsSubmissionLocked reports whether a new submission is rejected: either
// the homework deadline has passed, or the student has exhausted their free
// retries and their most recent submission is still inside the cooldown.
func (l *LockClock) IsSubmissionLocked(deadline time.Time, prior []models.Submission) bool {
	now := l.now()
	if now.After(deadline) {
		return true
	}

	if len(prior) >= l.freeRetries {
		latest := prior[0].SubmittedAt
		for _, submission := range prior[1:] {
			if submission.SubmittedAt.After(latest) {
				latest = submission.SubmittedAt
			}
		}
		if now.Sub(latest) < l.cooldown {
			return true
		}
	}

	return false
}

// IsGradingLocked reports whether the grading window has closed. A nil
// deadline means grading has not been opened for the question at all.
func (l *LockClock) IsGradingLocked(gradingDeadline *time.Time) bool {
	if gradingDeadline == nil {
		return false
	}
	return l.now().After(*gradingDeadline)
}
