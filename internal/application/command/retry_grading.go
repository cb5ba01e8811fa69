package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/shared"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/submission"
)

// ══════════════════════════════════════════════════════════════════════════════
// RETRY GRADING COMMAND
// Human-triggered recovery for a submission stuck awaiting AI. Allowed only
// while the status is Submitted or PendingReview; any other status is rejected
// without mutating a single field.
// ══════════════════════════════════════════════════════════════════════════════

// RetryGradingCommand identifies the stuck submission.
type RetryGradingCommand struct {
	AssignmentID string
	StudentEmail string
}

// Validate validates the command.
func (c RetryGradingCommand) Validate() error {
	if c.AssignmentID == "" || c.StudentEmail == "" {
		return shared.NewDomainError("command", "RetryGrading", shared.ErrEmptyValue,
			"assignment id and student email are required")
	}
	return nil
}

// RetryGradingHandler handles the RetryGradingCommand.
type RetryGradingHandler struct {
	submissionRepo submission.Repository
	publisher      shared.EventPublisher
	logger         *slog.Logger
}

// NewRetryGradingHandler creates a new RetryGradingHandler.
func NewRetryGradingHandler(
	submissionRepo submission.Repository,
	publisher shared.EventPublisher,
	logger *slog.Logger,
) *RetryGradingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RetryGradingHandler{
		submissionRepo: submissionRepo,
		publisher:      publisher,
		logger:         logger,
	}
}

// Handle executes the retry grading command: resets the grading fields to the
// retrying sentinel and re-emits the assignment.grade event.
func (h *RetryGradingHandler) Handle(ctx context.Context, cmd RetryGradingCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	sub, err := h.submissionRepo.Get(ctx, cmd.AssignmentID, cmd.StudentEmail)
	if err != nil {
		return err
	}

	prior := sub.Status
	if err := sub.PrepareRetry(); err != nil {
		return err
	}

	if err := h.submissionRepo.UpdateIf(ctx, sub, prior); err != nil {
		return err
	}

	event := shared.NewAssignmentGradeRequestedEvent(cmd.AssignmentID, cmd.StudentEmail)
	if err := h.publisher.Publish(event); err != nil {
		return fmt.Errorf("retry_grading: re-enqueue grading: %w", err)
	}

	h.logger.Info("grading retry enqueued",
		"assignment_id", cmd.AssignmentID,
		"student", cmd.StudentEmail,
		"from_status", prior,
	)
	return nil
}
