package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/peergrade-api/internal/models"
	"github.com/noah-isme/peergrade-api/internal/service"
)

func TestLockClock_DeadlineBoundary(t *testing.T) {
	clock := service.NewLockClock(6*time.Hour, 2)

	require.False(t, clock.IsSubmissionLocked(time.Now().Add(time.Second), nil))
	require.True(t, clock.IsSubmissionLocked(time.Now().Add(-time.Second), nil))
}

func TestLockClock_CooldownAfterFreeRetries(t *testing.T) {
	clock := service.NewLockClock(6*time.Hour, 2)
	deadline := time.Now().Add(24 * time.Hour)

	prior := []models.Submission{
		{SubmittedAt: time.Now().Add(-10 * time.Hour)},
		{SubmittedAt: time.Now().Add(-time.Hour)},
	}
	require.True(t, clock.IsSubmissionLocked(deadline, prior), "recent resubmission inside cooldown")

	cooled := []models.Submission{
		{SubmittedAt: time.Now().Add(-20 * time.Hour)},
		{SubmittedAt: time.Now().Add(-7 * time.Hour)},
	}
	require.False(t, clock.IsSubmissionLocked(deadline, cooled), "cooldown elapsed")
}

func TestLockClock_FreeRetriesNotThrottled(t *testing.T) {
	clock := service.NewLockClock(6*time.Hour, 2)
	deadline := time.Now().Add(24 * time.Hour)

	prior := []models.Submission{
		{SubmittedAt: time.Now().Add(-time.Minute)},
	}
	require.False(t, clock.IsSubmissionLocked(deadline, prior))
}

func TestLockClock_GradingWindow(t *testing.T) {
	clock := service.NewLockClock(6*time.Hour, 2)

	require.False(t, clock.IsGradingLocked(nil), "grading not opened yet")

	future := time.Now().Add(time.Hour)
	require.False(t, clock.IsGradingLocked(&future))

	past := time.Now().Add(-time.Hour)
	require.True(t, clock.IsGradingLocked(&past))
}
