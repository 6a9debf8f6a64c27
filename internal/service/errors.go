package service

import "errors"

// Workflow outcomes surfaced to callers as typed errors. Handlers map each
// one to a distinct HTTP status; none of them is retried internally.
var (
	// ErrUnauthorized indicates the caller is not the actor a task belongs to.
	ErrUnauthorized = errors.New("caller is not authorized to act on this task")

	// ErrLocked indicates a deadline has passed or the resubmission cooldown is active.
	ErrLocked = errors.New("the deadline for this action has passed")

	// ErrNotFound indicates an unknown question, submission or task id.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidScore indicates a grade outside [0, question points].
	ErrInvalidScore = errors.New("score is outside the allowed range")

	// ErrMissingComment indicates a grade submitted without feedback text.
	ErrMissingComment = errors.New("comments are required for all responses")

	// ErrInvalidRating indicates a feedback rating outside the 1-4 scale.
	ErrInvalidRating = errors.New("rating must be between 1 and 4")

	// ErrNotCompleted indicates an attempt to rate feedback that has not been given yet.
	ErrNotCompleted = errors.New("task has no recorded grade to rate")

	// ErrInvalidResponse indicates a submission payload that does not match the question items.
	ErrInvalidResponse = errors.New("responses do not match the question items")

	// ErrAssignmentInProgress indicates another assignment round holds the per-question lock.
	ErrAssignmentInProgress = errors.New("an assignment round for this question is already running")
)
