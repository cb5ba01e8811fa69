// Package submission governs the lifecycle of one assignment submission per
// (assignment, student) pair, including unlock requests for late work.
// This package exclusively owns status transitions; every transition is
// guarded on the currently-read status so a stale read cannot clobber a
// newer one.
package submission

import (
	"fmt"
	"time"

	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/shared"
)

// RetryingFeedback is the sentinel written into Feedback while a grading
// retry is in flight.
const RetryingFeedback = "Retrying grading..."

// ══════════════════════════════════════════════════════════════════════════════
// STATUS
// ══════════════════════════════════════════════════════════════════════════════

// Status is the submission lifecycle state.
//
//	Submitted → PendingReview → {Graded | UnlockRequested}
//	UnlockRequested → {Unlocked | UnlockDenied}
//	Unlocked → Submitted (resubmission)
type Status string

const (
	// StatusSubmitted - student submitted work, grading not yet picked up.
	StatusSubmitted Status = "Submitted"

	// StatusPendingReview - the grading job is working on it ("awaiting AI").
	StatusPendingReview Status = "PendingReview"

	// StatusGraded - grading finished; feedback recorded.
	StatusGraded Status = "Graded"

	// StatusUnlockRequested - student asked to submit past the due date.
	StatusUnlockRequested Status = "UnlockRequested"

	// StatusUnlocked - admin approved the unlock; the student may resubmit.
	StatusUnlocked Status = "Unlocked"

	// StatusUnlockDenied - admin denied the unlock. The submission survives;
	// the student may request again.
	StatusUnlockDenied Status = "UnlockDenied"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusSubmitted, StatusPendingReview, StatusGraded,
		StatusUnlockRequested, StatusUnlocked, StatusUnlockDenied:
		return true
	}
	return false
}

// AwaitingGrading reports whether the grading job may pick this status up.
func (s Status) AwaitingGrading() bool {
	return s == StatusSubmitted || s == StatusPendingReview
}

// ══════════════════════════════════════════════════════════════════════════════
// SUBMISSION
// ══════════════════════════════════════════════════════════════════════════════

// Submission is one student's submission for one assignment. Unique per
// (AssignmentID, StudentEmail).
type Submission struct {
	AssignmentID string
	StudentEmail string
	Answer       string
	Status       Status
	Feedback     string
	GradedBy     string
	GradedAt     *time.Time
	UnlockReason string
	SubmittedAt  time.Time
	UpdatedAt    time.Time
}

// New creates a submission in the initial Submitted state.
func New(assignmentID, studentEmail, answer string) (*Submission, error) {
	if assignmentID == "" || studentEmail == "" {
		return nil, shared.NewDomainError("submission", "New", shared.ErrEmptyValue,
			"assignment id and student email are required")
	}
	now := time.Now().UTC()
	return &Submission{
		AssignmentID: assignmentID,
		StudentEmail: studentEmail,
		Answer:       answer,
		Status:       StatusSubmitted,
		SubmittedAt:  now,
		UpdatedAt:    now,
	}, nil
}

// transitionErr builds the guard-violation error naming the current status,
// so the caller can choose a different action.
func (s *Submission) transitionErr(op string, target Status) error {
	return shared.NewDomainError("submission", op, shared.ErrStateTransition,
		fmt.Sprintf("cannot transition %s -> %s for assignment %s", s.Status, target, s.AssignmentID))
}

// Resubmit returns the submission to Submitted with a fresh answer. Only
// allowed after an approved unlock.
func (s *Submission) Resubmit(answer string) error {
	if s.Status != StatusUnlocked {
		return s.transitionErr("Resubmit", StatusSubmitted)
	}
	s.Answer = answer
	s.Status = StatusSubmitted
	s.Feedback = ""
	s.GradedBy = ""
	s.GradedAt = nil
	s.SubmittedAt = time.Now().UTC()
	s.UpdatedAt = s.SubmittedAt
	return nil
}

// RequestUnlock records a late-work unlock request. Allowed from any status.
func (s *Submission) RequestUnlock(reason string) error {
	if reason == "" {
		return shared.NewDomainError("submission", "RequestUnlock", shared.ErrEmptyValue,
			"unlock reason is required")
	}
	s.Status = StatusUnlockRequested
	s.UnlockReason = reason
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// ApproveUnlock transitions UnlockRequested -> Unlocked. Approving an
// already-Unlocked submission is a no-op, so duplicate admin decisions are
// harmless.
func (s *Submission) ApproveUnlock() error {
	if s.Status == StatusUnlocked {
		return nil
	}
	if s.Status != StatusUnlockRequested {
		return s.transitionErr("ApproveUnlock", StatusUnlocked)
	}
	s.Status = StatusUnlocked
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// DenyUnlock transitions UnlockRequested -> UnlockDenied. Denial does not
// destroy the submission; the student may request unlock again.
func (s *Submission) DenyUnlock() error {
	if s.Status == StatusUnlockDenied {
		return nil
	}
	if s.Status != StatusUnlockRequested {
		return s.transitionErr("DenyUnlock", StatusUnlockDenied)
	}
	s.Status = StatusUnlockDenied
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// BeginGrading marks the submission as picked up by the grading job.
// Only allowed from Submitted.
func (s *Submission) BeginGrading() error {
	if s.Status != StatusSubmitted {
		return s.transitionErr("BeginGrading", StatusPendingReview)
	}
	s.Status = StatusPendingReview
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// CompleteGrading records the grading result and transitions to Graded.
// A submission may reach Graded only from Submitted or PendingReview.
func (s *Submission) CompleteGrading(feedback, gradedBy string) error {
	if !s.Status.AwaitingGrading() {
		return s.transitionErr("CompleteGrading", StatusGraded)
	}
	now := time.Now().UTC()
	s.Status = StatusGraded
	s.Feedback = feedback
	s.GradedBy = gradedBy
	s.GradedAt = &now
	s.UpdatedAt = now
	return nil
}

// FailGrading records a grading failure, leaving the submission recoverable
// in PendingReview so retryGrading can re-enqueue it. The failure reason is
// kept in Feedback for operators.
func (s *Submission) FailGrading(reason string) {
	s.Status = StatusPendingReview
	s.Feedback = reason
	s.UpdatedAt = time.Now().UTC()
}

// PrepareRetry resets grading fields ahead of a re-enqueued grading job.
// Allowed only while awaiting grading (Submitted or PendingReview); any other
// status is rejected without mutating a single field.
func (s *Submission) PrepareRetry() error {
	if !s.Status.AwaitingGrading() {
		return shared.NewDomainError("submission", "RetryGrading", shared.ErrStateTransition,
			fmt.Sprintf("retry not allowed from status %s", s.Status))
	}
	s.Feedback = RetryingFeedback
	s.GradedBy = ""
	s.GradedAt = nil
	s.UpdatedAt = time.Now().UTC()
	return nil
}
