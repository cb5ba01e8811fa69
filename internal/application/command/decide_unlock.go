package command

import (
	"context"
	"log/slog"

	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/shared"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/submission"
)

// ══════════════════════════════════════════════════════════════════════════════
// DECIDE UNLOCK COMMAND
// Admin approves or denies unlock requests, singly or in bulk. Bulk applies
// the same rule independently per (assignment, student) pair: a pair missing
// identifiers is skipped, not failed, and the result reports only the pairs
// that were actually updated.
// ══════════════════════════════════════════════════════════════════════════════

// UnlockDecision is the admin's verdict.
type UnlockDecision string

const (
	DecisionApprove UnlockDecision = "approve"
	DecisionDeny    UnlockDecision = "deny"
)

// SubmissionRef identifies one (assignment, student) pair.
type SubmissionRef struct {
	AssignmentID string
	StudentEmail string
}

// DecideUnlockCommand contains a single unlock decision.
type DecideUnlockCommand struct {
	AssignmentID string
	StudentEmail string
	Decision     UnlockDecision
}

// Validate validates the command.
func (c DecideUnlockCommand) Validate() error {
	if c.AssignmentID == "" || c.StudentEmail == "" {
		return shared.NewDomainError("command", "DecideUnlock", shared.ErrEmptyValue,
			"assignment id and student email are required")
	}
	if c.Decision != DecisionApprove && c.Decision != DecisionDeny {
		return shared.NewDomainError("command", "DecideUnlock", shared.ErrInvalidInput,
			"decision must be approve or deny")
	}
	return nil
}

// BulkDecideUnlockCommand applies one decision to many pairs.
type BulkDecideUnlockCommand struct {
	Pairs    []SubmissionRef
	Decision UnlockDecision
}

// BulkDecideUnlockResult reports the successfully updated pairs.
type BulkDecideUnlockResult struct {
	Updated []SubmissionRef
	Skipped int // pairs missing identifiers
	Failed  int // pairs rejected by the state machine or storage
}

// DecideUnlockHandler handles single and bulk unlock decisions.
type DecideUnlockHandler struct {
	submissionRepo submission.Repository
	logger         *slog.Logger
}

// NewDecideUnlockHandler creates a new DecideUnlockHandler.
func NewDecideUnlockHandler(submissionRepo submission.Repository, logger *slog.Logger) *DecideUnlockHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DecideUnlockHandler{submissionRepo: submissionRepo, logger: logger}
}

// Handle executes a single unlock decision.
func (h *DecideUnlockHandler) Handle(ctx context.Context, cmd DecideUnlockCommand) (*submission.Submission, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	sub, err := h.submissionRepo.Get(ctx, cmd.AssignmentID, cmd.StudentEmail)
	if err != nil {
		return nil, err
	}

	prior := sub.Status
	switch cmd.Decision {
	case DecisionApprove:
		err = sub.ApproveUnlock()
	case DecisionDeny:
		err = sub.DenyUnlock()
	}
	if err != nil {
		return nil, err
	}

	// An already-decided submission comes back unchanged; nothing to write.
	if sub.Status == prior {
		return sub, nil
	}

	if err := h.submissionRepo.UpdateIf(ctx, sub, prior); err != nil {
		return nil, err
	}

	h.logger.Info("unlock decided",
		"assignment_id", cmd.AssignmentID,
		"student", cmd.StudentEmail,
		"decision", cmd.Decision,
	)
	return sub, nil
}

// HandleBulk applies the decision independently per pair.
func (h *DecideUnlockHandler) HandleBulk(ctx context.Context, cmd BulkDecideUnlockCommand) (*BulkDecideUnlockResult, error) {
	if cmd.Decision != DecisionApprove && cmd.Decision != DecisionDeny {
		return nil, shared.NewDomainError("command", "DecideUnlock", shared.ErrInvalidInput,
			"decision must be approve or deny")
	}

	result := &BulkDecideUnlockResult{}
	for _, pair := range cmd.Pairs {
		if pair.AssignmentID == "" || pair.StudentEmail == "" {
			result.Skipped++
			continue
		}

		_, err := h.Handle(ctx, DecideUnlockCommand{
			AssignmentID: pair.AssignmentID,
			StudentEmail: pair.StudentEmail,
			Decision:     cmd.Decision,
		})
		if err != nil {
			result.Failed++
			h.logger.Warn("bulk unlock decision failed for pair",
				"assignment_id", pair.AssignmentID,
				"student", pair.StudentEmail,
				"error", err,
			)
			continue
		}

		result.Updated = append(result.Updated, pair)
	}

	return result, nil
}
