package command_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rashid-RG/gemini-lms-sub003/internal/application/command"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/course"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/infrastructure/persistence/memory"
)

func TestRecomputeDueDates(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewCourseRepository()
	handler := command.NewRecomputeDueDatesHandler(repo, nil)

	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := &course.Course{ID: "course-1", Title: "Go", CreatedBy: "t@example.com", CreatedAt: created}
	require.NoError(t, repo.CreateCourse(ctx, c))

	a1, err := course.NewAssignment(c.ID, "Essay", "rubric", 100, created)
	require.NoError(t, err)
	a2, err := course.NewAssignment(c.ID, "Quiz", "rubric", 50, created)
	require.NoError(t, err)
	require.NoError(t, repo.CreateAssignment(ctx, a1))
	require.NoError(t, repo.CreateAssignment(ctx, a2))

	t.Run("no enrollments leaves creation-anchored dates alone", func(t *testing.T) {
		result, err := handler.Handle(ctx, command.RecomputeDueDatesCommand{CourseID: c.ID})
		require.NoError(t, err)
		assert.Equal(t, 0, result.Updated)
	})

	t.Run("late enrollment pushes every due date", func(t *testing.T) {
		// Course created day 0, a student enrolls day 10: each assignment
		// becomes due one month after the enrollment, day 40 overall.
		enrolledAt := created.AddDate(0, 0, 10)
		require.NoError(t, repo.CreateEnrollment(ctx, &course.Enrollment{
			CourseID:     c.ID,
			StudentEmail: "s@example.com",
			EnrolledAt:   enrolledAt,
		}))

		result, err := handler.Handle(ctx, command.RecomputeDueDatesCommand{CourseID: c.ID})
		require.NoError(t, err)
		assert.Equal(t, 2, result.Updated)

		want := time.Date(2026, 2, 11, 0, 0, 0, 0, time.UTC)
		for _, id := range []string{a1.ID, a2.ID} {
			got, err := repo.GetAssignment(ctx, id)
			require.NoError(t, err)
			assert.True(t, got.DueDate.Equal(want), "assignment %s due %s, want %s", id, got.DueDate, want)
		}
	})

	t.Run("recompute is idempotent", func(t *testing.T) {
		result, err := handler.Handle(ctx, command.RecomputeDueDatesCommand{CourseID: c.ID})
		require.NoError(t, err)
		assert.Equal(t, 0, result.Updated)
	})

	t.Run("latest enrollment wins over earlier ones", func(t *testing.T) {
		later := created.AddDate(0, 0, 20)
		require.NoError(t, repo.CreateEnrollment(ctx, &course.Enrollment{
			CourseID:     c.ID,
			StudentEmail: "s2@example.com",
			EnrolledAt:   later,
		}))

		result, err := handler.Handle(ctx, command.RecomputeDueDatesCommand{CourseID: c.ID})
		require.NoError(t, err)
		assert.Equal(t, 2, result.Updated)

		want := time.Date(2026, 2, 21, 0, 0, 0, 0, time.UTC)
		got, err := repo.GetAssignment(ctx, a1.ID)
		require.NoError(t, err)
		assert.True(t, got.DueDate.Equal(want))
	})
}

func TestRecomputeDueDatesUnknownCourse(t *testing.T) {
	handler := command.NewRecomputeDueDatesHandler(memory.NewCourseRepository(), nil)
	_, err := handler.Handle(context.Background(), command.RecomputeDueDatesCommand{CourseID: "ghost"})
	assert.Error(t, err)
}
