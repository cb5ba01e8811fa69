package submission

import (
	"context"
)

// Repository defines the storage contract for submissions.
// Implementations live in infrastructure/persistence.
type Repository interface {
	// Create inserts a new submission.
	// Returns shared.ErrAlreadyExists when the (assignment, student) pair
	// already has one.
	Create(ctx context.Context, sub *Submission) error

	// Get returns the submission for (assignmentID, studentEmail).
	// Returns shared.ErrNotFound if absent.
	Get(ctx context.Context, assignmentID, studentEmail string) (*Submission, error)

	// Update persists a submission unconditionally. Prefer UpdateIf for
	// status transitions.
	Update(ctx context.Context, sub *Submission) error

	// UpdateIf persists the submission only while the stored status still
	// equals expected (compare-and-set). Returns
	// shared.ErrConcurrentModification when the stored status has moved on,
	// letting a racing writer lose cleanly instead of clobbering.
	UpdateIf(ctx context.Context, sub *Submission, expected Status) error

	// ListByAssignment returns every submission for an assignment.
	ListByAssignment(ctx context.Context, assignmentID string) ([]*Submission, error)

	// ListByStatus returns submissions currently in the given status,
	// oldest-first. Used by recovery sweeps over stuck grading jobs.
	ListByStatus(ctx context.Context, status Status) ([]*Submission, error)
}
