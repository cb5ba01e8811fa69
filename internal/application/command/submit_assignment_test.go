package command_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rashid-RG/gemini-lms-sub003/internal/application/command"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/course"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/shared"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/submission"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/infrastructure/persistence/memory"
)

type submitFixture struct {
	handler        *command.SubmitAssignmentHandler
	unlockHandler  *command.RequestUnlockHandler
	decideHandler  *command.DecideUnlockHandler
	courseRepo     *memory.CourseRepository
	submissionRepo *memory.SubmissionRepository
	publisher      *capturePublisher
	assignment     *course.Assignment
}

func newSubmitFixture(t *testing.T) *submitFixture {
	t.Helper()
	ctx := context.Background()

	courseRepo := memory.NewCourseRepository()
	submissionRepo := memory.NewSubmissionRepository()
	publisher := &capturePublisher{}

	c, err := course.NewCourse("Go Fundamentals", "teacher@example.com")
	require.NoError(t, err)
	require.NoError(t, courseRepo.CreateCourse(ctx, c))

	a, err := course.NewAssignment(c.ID, "Essay", "clarity and depth", 100, c.CreatedAt)
	require.NoError(t, err)
	require.NoError(t, courseRepo.CreateAssignment(ctx, a))

	return &submitFixture{
		handler:        command.NewSubmitAssignmentHandler(courseRepo, submissionRepo, publisher, nil),
		unlockHandler:  command.NewRequestUnlockHandler(submissionRepo, nil),
		decideHandler:  command.NewDecideUnlockHandler(submissionRepo, nil),
		courseRepo:     courseRepo,
		submissionRepo: submissionRepo,
		publisher:      publisher,
		assignment:     a,
	}
}

func TestSubmitAssignmentFirstSubmission(t *testing.T) {
	ctx := context.Background()
	f := newSubmitFixture(t)

	result, err := f.handler.Handle(ctx, command.SubmitAssignmentCommand{
		AssignmentID: f.assignment.ID,
		StudentEmail: "student@example.com",
		Answer:       "my essay",
	})
	require.NoError(t, err)
	assert.Equal(t, submission.StatusSubmitted, result.Status)
	assert.False(t, result.Resubmission)

	// Grading is enqueued exactly once.
	events := f.publisher.Events()
	require.Len(t, events, 1)
	evt, err := shared.DecodeEvent[shared.AssignmentGradeRequestedEvent](events[0])
	require.NoError(t, err)
	assert.Equal(t, f.assignment.ID, evt.AssignmentID)
	assert.Equal(t, "student@example.com", evt.StudentEmail)
}

func TestSubmitAssignmentOverdueRequiresUnlock(t *testing.T) {
	ctx := context.Background()
	f := newSubmitFixture(t)

	f.assignment.DueDate = time.Now().UTC().Add(-time.Hour)
	require.NoError(t, f.courseRepo.UpdateAssignmentDueDate(ctx, f.assignment.ID, f.assignment.DueDate))

	_, err := f.handler.Handle(ctx, command.SubmitAssignmentCommand{
		AssignmentID: f.assignment.ID,
		StudentEmail: "student@example.com",
		Answer:       "too late",
	})
	require.Error(t, err)
	assert.True(t, shared.IsStateTransition(err))
	assert.Empty(t, f.publisher.Events())
}

func TestSubmitAssignmentResubmitOnlyAfterUnlock(t *testing.T) {
	ctx := context.Background()
	f := newSubmitFixture(t)

	cmd := command.SubmitAssignmentCommand{
		AssignmentID: f.assignment.ID,
		StudentEmail: "student@example.com",
		Answer:       "first try",
	}
	_, err := f.handler.Handle(ctx, cmd)
	require.NoError(t, err)

	// A second submit without an unlock is rejected by the state machine.
	cmd.Answer = "second try"
	_, err = f.handler.Handle(ctx, cmd)
	require.Error(t, err)
	assert.True(t, shared.IsStateTransition(err))

	// Unlock path: request, approve, then resubmit succeeds.
	_, err = f.unlockHandler.Handle(ctx, command.RequestUnlockCommand{
		AssignmentID: f.assignment.ID,
		StudentEmail: "student@example.com",
		Reason:       "want to improve",
	})
	require.NoError(t, err)

	_, err = f.decideHandler.Handle(ctx, command.DecideUnlockCommand{
		AssignmentID: f.assignment.ID,
		StudentEmail: "student@example.com",
		Decision:     command.DecisionApprove,
	})
	require.NoError(t, err)

	result, err := f.handler.Handle(ctx, cmd)
	require.NoError(t, err)
	assert.True(t, result.Resubmission)
	assert.Equal(t, submission.StatusSubmitted, result.Status)

	stored, err := f.submissionRepo.Get(ctx, f.assignment.ID, "student@example.com")
	require.NoError(t, err)
	assert.Equal(t, "second try", stored.Answer)

	// First submit + resubmit each enqueued grading.
	assert.Len(t, f.publisher.Events(), 2)
}

func TestRequestUnlockWithoutPriorSubmission(t *testing.T) {
	ctx := context.Background()
	f := newSubmitFixture(t)

	sub, err := f.unlockHandler.Handle(ctx, command.RequestUnlockCommand{
		AssignmentID: f.assignment.ID,
		StudentEmail: "student@example.com",
		Reason:       "never submitted, deadline passed",
	})
	require.NoError(t, err)
	assert.Equal(t, submission.StatusUnlockRequested, sub.Status)
	assert.Empty(t, sub.Answer)

	stored, err := f.submissionRepo.Get(ctx, f.assignment.ID, "student@example.com")
	require.NoError(t, err)
	assert.Equal(t, submission.StatusUnlockRequested, stored.Status)
}
