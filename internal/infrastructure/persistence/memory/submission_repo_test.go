package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/shared"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/submission"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/infrastructure/persistence/memory"
)

func TestSubmissionRepositoryUpdateIfMatchesStoredStatus(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSubmissionRepository()

	sub, err := submission.New("a1", "s@example.com", "answer")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, sub))

	require.NoError(t, sub.BeginGrading())
	require.NoError(t, repo.UpdateIf(ctx, sub, submission.StatusSubmitted))

	stored, err := repo.Get(ctx, "a1", "s@example.com")
	require.NoError(t, err)
	assert.Equal(t, submission.StatusPendingReview, stored.Status)
}

func TestSubmissionRepositoryUpdateIfDetectsConcurrentWriter(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSubmissionRepository()

	sub, err := submission.New("a1", "s@example.com", "answer")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, sub))

	// Another worker moved the submission first.
	first, err := repo.Get(ctx, "a1", "s@example.com")
	require.NoError(t, err)
	require.NoError(t, first.BeginGrading())
	require.NoError(t, repo.UpdateIf(ctx, first, submission.StatusSubmitted))

	// The slower worker's compare-and-set fails and writes nothing.
	second, err := submission.New("a1", "s@example.com", "answer")
	require.NoError(t, err)
	require.NoError(t, second.BeginGrading())
	err = repo.UpdateIf(ctx, second, submission.StatusSubmitted)
	assert.ErrorIs(t, err, shared.ErrConcurrentModification)
}

func TestSubmissionRepositoryListByStatus(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSubmissionRepository()

	for _, email := range []string{"a@example.com", "b@example.com"} {
		sub, err := submission.New("a1", email, "answer")
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, sub))
	}

	graded, err := repo.Get(ctx, "a1", "b@example.com")
	require.NoError(t, err)
	require.NoError(t, graded.BeginGrading())
	require.NoError(t, graded.CompleteGrading("Score: 90/100. Solid.", "gemini"))
	require.NoError(t, repo.Update(ctx, graded))

	pending, err := repo.ListByStatus(ctx, submission.StatusSubmitted)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "a@example.com", pending[0].StudentEmail)
}
