package submission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/shared"
)

func newSubmitted(t *testing.T) *Submission {
	t.Helper()
	sub, err := New("assignment-1", "student@example.com", "my answer")
	require.NoError(t, err)
	return sub
}

func TestGradingHappyPath(t *testing.T) {
	sub := newSubmitted(t)

	require.NoError(t, sub.BeginGrading())
	assert.Equal(t, StatusPendingReview, sub.Status)

	require.NoError(t, sub.CompleteGrading("Score: 85/100. Good work.", "gemini"))
	assert.Equal(t, StatusGraded, sub.Status)
	assert.Equal(t, "gemini", sub.GradedBy)
	require.NotNil(t, sub.GradedAt)
}

func TestIllegalTransitionsAreRejected(t *testing.T) {
	sub := newSubmitted(t)
	require.NoError(t, sub.BeginGrading())
	require.NoError(t, sub.CompleteGrading("done", "gemini"))

	// Every transition out of Graded except RequestUnlock must fail, and the
	// failed call must not mutate the submission.
	before := *sub

	assert.True(t, shared.IsStateTransition(sub.BeginGrading()))
	assert.True(t, shared.IsStateTransition(sub.CompleteGrading("again", "gemini")))
	assert.True(t, shared.IsStateTransition(sub.Resubmit("new answer")))
	assert.True(t, shared.IsStateTransition(sub.ApproveUnlock()))
	assert.True(t, shared.IsStateTransition(sub.DenyUnlock()))

	assert.Equal(t, before, *sub)
}

func TestPrepareRetryOnlyWhileAwaitingGrading(t *testing.T) {
	sub := newSubmitted(t)
	require.NoError(t, sub.BeginGrading())

	require.NoError(t, sub.PrepareRetry())
	assert.Equal(t, RetryingFeedback, sub.Feedback)
	assert.Empty(t, sub.GradedBy)
	assert.Nil(t, sub.GradedAt)

	require.NoError(t, sub.CompleteGrading("done", "gemini"))

	// Retry of a graded submission is rejected without touching any field.
	before := *sub
	err := sub.PrepareRetry()
	assert.True(t, shared.IsStateTransition(err))
	assert.Equal(t, before, *sub)
}

func TestUnlockFlow(t *testing.T) {
	sub := newSubmitted(t)
	require.NoError(t, sub.BeginGrading())
	require.NoError(t, sub.CompleteGrading("done", "gemini"))

	// Graded work can still ask for an unlock to improve the grade.
	require.NoError(t, sub.RequestUnlock("missed the deadline"))
	assert.Equal(t, StatusUnlockRequested, sub.Status)
	assert.Equal(t, "missed the deadline", sub.UnlockReason)

	require.NoError(t, sub.ApproveUnlock())
	assert.Equal(t, StatusUnlocked, sub.Status)

	// Approving again is a harmless no-op.
	require.NoError(t, sub.ApproveUnlock())
	assert.Equal(t, StatusUnlocked, sub.Status)

	// Resubmission resets the grading fields and returns to Submitted.
	require.NoError(t, sub.Resubmit("improved answer"))
	assert.Equal(t, StatusSubmitted, sub.Status)
	assert.Equal(t, "improved answer", sub.Answer)
	assert.Empty(t, sub.Feedback)
	assert.Empty(t, sub.GradedBy)
	assert.Nil(t, sub.GradedAt)
}

func TestDenyUnlock(t *testing.T) {
	sub := newSubmitted(t)
	require.NoError(t, sub.RequestUnlock("traveling"))

	require.NoError(t, sub.DenyUnlock())
	assert.Equal(t, StatusUnlockDenied, sub.Status)

	// Denying again is a no-op.
	require.NoError(t, sub.DenyUnlock())
	assert.Equal(t, StatusUnlockDenied, sub.Status)

	// The submission survives denial; the student may ask again.
	require.NoError(t, sub.RequestUnlock("second attempt"))
	assert.Equal(t, StatusUnlockRequested, sub.Status)
}

func TestRequestUnlockRequiresReason(t *testing.T) {
	sub := newSubmitted(t)
	err := sub.RequestUnlock("")
	assert.Error(t, err)
	assert.Equal(t, StatusSubmitted, sub.Status)
}

func TestStatusAwaitingGrading(t *testing.T) {
	assert.True(t, StatusSubmitted.AwaitingGrading())
	assert.True(t, StatusPendingReview.AwaitingGrading())
	assert.False(t, StatusGraded.AwaitingGrading())
	assert.False(t, StatusUnlockRequested.AwaitingGrading())
	assert.False(t, StatusUnlocked.AwaitingGrading())
	assert.False(t, StatusUnlockDenied.AwaitingGrading())
}
