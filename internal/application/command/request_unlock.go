package command

import (
	"context"
	"log/slog"

	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/shared"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/submission"
)

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST UNLOCK COMMAND
// A student asks to submit past the due date. Allowed from any prior status.
// ══════════════════════════════════════════════════════════════════════════════

// RequestUnlockCommand contains the data for a late-work unlock request.
type RequestUnlockCommand struct {
	AssignmentID string
	StudentEmail string
	Reason       string
}

// Validate validates the command.
func (c RequestUnlockCommand) Validate() error {
	if c.AssignmentID == "" || c.StudentEmail == "" {
		return shared.NewDomainError("command", "RequestUnlock", shared.ErrEmptyValue,
			"assignment id and student email are required")
	}
	if c.Reason == "" {
		return shared.NewDomainError("command", "RequestUnlock", shared.ErrEmptyValue,
			"unlock reason is required")
	}
	return nil
}

// RequestUnlockHandler handles the RequestUnlockCommand.
type RequestUnlockHandler struct {
	submissionRepo submission.Repository
	logger         *slog.Logger
}

// NewRequestUnlockHandler creates a new RequestUnlockHandler.
func NewRequestUnlockHandler(submissionRepo submission.Repository, logger *slog.Logger) *RequestUnlockHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RequestUnlockHandler{submissionRepo: submissionRepo, logger: logger}
}

// Handle executes the request unlock command. When no submission exists yet
// (the student never submitted before the deadline), an empty-answer record is
// created so the unlock request has a row to live on.
func (h *RequestUnlockHandler) Handle(ctx context.Context, cmd RequestUnlockCommand) (*submission.Submission, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	sub, err := h.submissionRepo.Get(ctx, cmd.AssignmentID, cmd.StudentEmail)
	if shared.IsNotFound(err) {
		sub, err = submission.New(cmd.AssignmentID, cmd.StudentEmail, "")
		if err != nil {
			return nil, err
		}
		if err := sub.RequestUnlock(cmd.Reason); err != nil {
			return nil, err
		}
		if err := h.submissionRepo.Create(ctx, sub); err != nil {
			return nil, err
		}
		h.logger.Info("unlock requested on new submission",
			"assignment_id", cmd.AssignmentID, "student", cmd.StudentEmail)
		return sub, nil
	}
	if err != nil {
		return nil, err
	}

	prior := sub.Status
	if err := sub.RequestUnlock(cmd.Reason); err != nil {
		return nil, err
	}
	if err := h.submissionRepo.UpdateIf(ctx, sub, prior); err != nil {
		return nil, err
	}

	h.logger.Info("unlock requested",
		"assignment_id", cmd.AssignmentID, "student", cmd.StudentEmail, "from_status", prior)
	return sub, nil
}
