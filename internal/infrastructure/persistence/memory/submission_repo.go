package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/shared"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/submission"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMISSION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// SubmissionRepository implements submission.Repository in memory. UpdateIf
// checks the stored status under the same lock as the write, matching the
// compare-and-set the SQL layer gets from its WHERE clause.
type SubmissionRepository struct {
	mu   sync.RWMutex
	subs map[submissionKey]*submission.Submission
}

type submissionKey struct {
	assignmentID string
	studentEmail string
}

// NewSubmissionRepository creates a new in-memory SubmissionRepository.
func NewSubmissionRepository() *SubmissionRepository {
	return &SubmissionRepository{
		subs: make(map[submissionKey]*submission.Submission),
	}
}

// Create inserts a new submission.
func (r *SubmissionRepository) Create(ctx context.Context, sub *submission.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := submissionKey{sub.AssignmentID, sub.StudentEmail}
	if _, exists := r.subs[key]; exists {
		return shared.NewDomainError("submission", "Create", shared.ErrAlreadyExists,
			"submission already exists for this assignment and student")
	}

	clone := *sub
	r.subs[key] = &clone
	return nil
}

// Get returns the submission for (assignmentID, studentEmail).
func (r *SubmissionRepository) Get(ctx context.Context, assignmentID, studentEmail string) (*submission.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sub, ok := r.subs[submissionKey{assignmentID, studentEmail}]
	if !ok {
		return nil, shared.NewDomainError("submission", "Get", shared.ErrNotFound, "submission not found")
	}

	clone := *sub
	return &clone, nil
}

// Update persists a submission unconditionally.
func (r *SubmissionRepository) Update(ctx context.Context, sub *submission.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := submissionKey{sub.AssignmentID, sub.StudentEmail}
	if _, ok := r.subs[key]; !ok {
		return shared.NewDomainError("submission", "Update", shared.ErrNotFound, "submission not found")
	}

	clone := *sub
	r.subs[key] = &clone
	return nil
}

// UpdateIf persists the submission only while the stored status still equals
// expected.
func (r *SubmissionRepository) UpdateIf(ctx context.Context, sub *submission.Submission, expected submission.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := submissionKey{sub.AssignmentID, sub.StudentEmail}
	stored, ok := r.subs[key]
	if !ok {
		return shared.NewDomainError("submission", "UpdateIf", shared.ErrNotFound, "submission not found")
	}

	if stored.Status != expected {
		return shared.NewDomainError("submission", "UpdateIf", shared.ErrConcurrentModification,
			fmt.Sprintf("status is no longer %s", expected))
	}

	clone := *sub
	r.subs[key] = &clone
	return nil
}

// ListByAssignment returns every submission for an assignment.
func (r *SubmissionRepository) ListByAssignment(ctx context.Context, assignmentID string) ([]*submission.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*submission.Submission
	for key, sub := range r.subs {
		if key.assignmentID == assignmentID {
			clone := *sub
			out = append(out, &clone)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].SubmittedAt.Before(out[j].SubmittedAt)
	})
	return out, nil
}

// ListByStatus returns submissions currently in the given status, oldest-first.
func (r *SubmissionRepository) ListByStatus(ctx context.Context, status submission.Status) ([]*submission.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*submission.Submission
	for _, sub := range r.subs {
		if sub.Status == status {
			clone := *sub
			out = append(out, &clone)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.Before(out[j].UpdatedAt)
	})
	return out, nil
}
