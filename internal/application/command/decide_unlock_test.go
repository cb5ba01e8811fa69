package command_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rashid-RG/gemini-lms-sub003/internal/application/command"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/submission"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/infrastructure/persistence/memory"
)

func seedUnlockRequest(t *testing.T, repo *memory.SubmissionRepository, assignmentID, email string) {
	t.Helper()
	sub, err := submission.New(assignmentID, email, "answer")
	require.NoError(t, err)
	require.NoError(t, sub.RequestUnlock("deadline passed"))
	require.NoError(t, repo.Create(context.Background(), sub))
}

func TestDecideUnlockApproveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSubmissionRepository()
	handler := command.NewDecideUnlockHandler(repo, nil)

	seedUnlockRequest(t, repo, "a1", "s@example.com")

	cmd := command.DecideUnlockCommand{
		AssignmentID: "a1",
		StudentEmail: "s@example.com",
		Decision:     command.DecisionApprove,
	}

	sub, err := handler.Handle(ctx, cmd)
	require.NoError(t, err)
	assert.Equal(t, submission.StatusUnlocked, sub.Status)
	firstDecidedAt := sub.UpdatedAt

	// A repeated approval is a no-op, not an error, and writes nothing.
	sub, err = handler.Handle(ctx, cmd)
	require.NoError(t, err)
	assert.Equal(t, submission.StatusUnlocked, sub.Status)

	stored, err := repo.Get(ctx, "a1", "s@example.com")
	require.NoError(t, err)
	assert.Equal(t, submission.StatusUnlocked, stored.Status)
	assert.Equal(t, firstDecidedAt, stored.UpdatedAt)
}

func TestDecideUnlockDeny(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSubmissionRepository()
	handler := command.NewDecideUnlockHandler(repo, nil)

	seedUnlockRequest(t, repo, "a1", "s@example.com")

	sub, err := handler.Handle(ctx, command.DecideUnlockCommand{
		AssignmentID: "a1",
		StudentEmail: "s@example.com",
		Decision:     command.DecisionDeny,
	})
	require.NoError(t, err)
	assert.Equal(t, submission.StatusUnlockDenied, sub.Status)
}

func TestDecideUnlockRejectsUndecidableStatus(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSubmissionRepository()
	handler := command.NewDecideUnlockHandler(repo, nil)

	sub, err := submission.New("a1", "s@example.com", "answer")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, sub))

	// No unlock was requested; approving a Submitted record is illegal.
	_, err = handler.Handle(ctx, command.DecideUnlockCommand{
		AssignmentID: "a1",
		StudentEmail: "s@example.com",
		Decision:     command.DecisionApprove,
	})
	assert.Error(t, err)
}

func TestBulkDecideUnlock(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSubmissionRepository()
	handler := command.NewDecideUnlockHandler(repo, nil)

	seedUnlockRequest(t, repo, "a1", "x@example.com")
	seedUnlockRequest(t, repo, "a1", "y@example.com")

	// z never requested an unlock, so their pair fails the state machine.
	sub, err := submission.New("a1", "z@example.com", "answer")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, sub))

	result, err := handler.HandleBulk(ctx, command.BulkDecideUnlockCommand{
		Decision: command.DecisionApprove,
		Pairs: []command.SubmissionRef{
			{AssignmentID: "a1", StudentEmail: "x@example.com"},
			{AssignmentID: "a1", StudentEmail: "y@example.com"},
			{AssignmentID: "a1", StudentEmail: "z@example.com"},
			{AssignmentID: "", StudentEmail: "missing@example.com"},
			{AssignmentID: "a1", StudentEmail: "ghost@example.com"},
		},
	})
	require.NoError(t, err)

	assert.Len(t, result.Updated, 2)
	assert.Equal(t, 1, result.Skipped) // empty assignment id
	assert.Equal(t, 2, result.Failed)  // illegal state + not found

	for _, email := range []string{"x@example.com", "y@example.com"} {
		stored, err := repo.Get(ctx, "a1", email)
		require.NoError(t, err)
		assert.Equal(t, submission.StatusUnlocked, stored.Status)
	}
}

func TestBulkDecideUnlockValidatesDecision(t *testing.T) {
	handler := command.NewDecideUnlockHandler(memory.NewSubmissionRepository(), nil)
	_, err := handler.HandleBulk(context.Background(), command.BulkDecideUnlockCommand{
		Decision: command.UnlockDecision("maybe"),
	})
	assert.Error(t, err)
}
