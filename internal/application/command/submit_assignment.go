package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/course"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/shared"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/submission"
	"github.com/Rashid-RG/gemini-lms-sub003/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT ASSIGNMENT COMMAND
// First submission creates the record in Submitted; a resubmission is only
// accepted after an approved unlock. Overdue work is directed to the unlock
// request path instead of being accepted.
// ══════════════════════════════════════════════════════════════════════════════

// SubmitAssignmentCommand contains the data to submit assignment work.
type SubmitAssignmentCommand struct {
	AssignmentID string
	StudentEmail string
	Answer       string
}

// Validate validates the command.
func (c SubmitAssignmentCommand) Validate() error {
	if c.AssignmentID == "" || c.StudentEmail == "" {
		return shared.NewDomainError("command", "SubmitAssignment", shared.ErrEmptyValue,
			"assignment id and student email are required")
	}
	if c.Answer == "" {
		return shared.NewDomainError("command", "SubmitAssignment", shared.ErrEmptyValue,
			"answer is required")
	}
	return nil
}

// SubmitAssignmentResult reports the accepted submission.
type SubmitAssignmentResult struct {
	AssignmentID string
	StudentEmail string
	Status       submission.Status
	Resubmission bool
}

// SubmitAssignmentHandler handles the SubmitAssignmentCommand.
type SubmitAssignmentHandler struct {
	courseRepo     course.Repository
	submissionRepo submission.Repository
	publisher      shared.EventPublisher
	logger         *slog.Logger
}

// NewSubmitAssignmentHandler creates a new SubmitAssignmentHandler.
func NewSubmitAssignmentHandler(
	courseRepo course.Repository,
	submissionRepo submission.Repository,
	publisher shared.EventPublisher,
	logger *slog.Logger,
) *SubmitAssignmentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubmitAssignmentHandler{
		courseRepo:     courseRepo,
		submissionRepo: submissionRepo,
		publisher:      publisher,
		logger:         logger,
	}
}

// Handle executes the submit assignment command.
func (h *SubmitAssignmentHandler) Handle(ctx context.Context, cmd SubmitAssignmentCommand) (*SubmitAssignmentResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	assignment, err := h.courseRepo.GetAssignment(ctx, cmd.AssignmentID)
	if err != nil {
		return nil, err
	}

	existing, err := h.submissionRepo.Get(ctx, cmd.AssignmentID, cmd.StudentEmail)
	switch {
	case err == nil:
		return h.resubmit(ctx, existing, cmd)
	case shared.IsNotFound(err):
		return h.firstSubmission(ctx, assignment, cmd)
	default:
		return nil, err
	}
}

// firstSubmission creates the submission record and enqueues grading.
func (h *SubmitAssignmentHandler) firstSubmission(ctx context.Context, assignment *course.Assignment, cmd SubmitAssignmentCommand) (*SubmitAssignmentResult, error) {
	if assignment.IsOverdue(timeutil.Now()) {
		return nil, shared.NewDomainError("command", "SubmitAssignment", shared.ErrStateTransition,
			fmt.Sprintf("assignment %s is past its due date; request an unlock first", assignment.ID))
	}

	sub, err := submission.New(cmd.AssignmentID, cmd.StudentEmail, cmd.Answer)
	if err != nil {
		return nil, err
	}
	if err := h.submissionRepo.Create(ctx, sub); err != nil {
		return nil, err
	}

	return h.enqueueGrading(sub, false)
}

// resubmit re-enters the normal submit path after an approved unlock.
func (h *SubmitAssignmentHandler) resubmit(ctx context.Context, sub *submission.Submission, cmd SubmitAssignmentCommand) (*SubmitAssignmentResult, error) {
	prior := sub.Status
	if err := sub.Resubmit(cmd.Answer); err != nil {
		return nil, err
	}

	if err := h.submissionRepo.UpdateIf(ctx, sub, prior); err != nil {
		return nil, err
	}

	return h.enqueueGrading(sub, true)
}

func (h *SubmitAssignmentHandler) enqueueGrading(sub *submission.Submission, resubmission bool) (*SubmitAssignmentResult, error) {
	event := shared.NewAssignmentGradeRequestedEvent(sub.AssignmentID, sub.StudentEmail)
	if err := h.publisher.Publish(event); err != nil {
		return nil, fmt.Errorf("submit_assignment: enqueue grading: %w", err)
	}

	h.logger.Info("submission accepted",
		"assignment_id", sub.AssignmentID,
		"student", sub.StudentEmail,
		"resubmission", resubmission,
	)

	return &SubmitAssignmentResult{
		AssignmentID: sub.AssignmentID,
		StudentEmail: sub.StudentEmail,
		Status:       sub.Status,
		Resubmission: resubmission,
	}, nil
}
