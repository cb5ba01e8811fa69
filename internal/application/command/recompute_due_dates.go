package command

import (
	"context"
	"log/slog"

	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/course"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECOMPUTE DUE DATES COMMAND
// Maintenance operation: every assignment of a course gets a due date one
// month past the later of course creation and the latest enrollment.
// ══════════════════════════════════════════════════════════════════════════════

// RecomputeDueDatesCommand identifies the course to recompute.
type RecomputeDueDatesCommand struct {
	CourseID string
}

// RecomputeDueDatesResult reports the assignments that were updated.
type RecomputeDueDatesResult struct {
	CourseID string
	Updated  int
}

// RecomputeDueDatesHandler handles the RecomputeDueDatesCommand.
type RecomputeDueDatesHandler struct {
	courseRepo course.Repository
	logger     *slog.Logger
}

// NewRecomputeDueDatesHandler creates a new RecomputeDueDatesHandler.
func NewRecomputeDueDatesHandler(courseRepo course.Repository, logger *slog.Logger) *RecomputeDueDatesHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecomputeDueDatesHandler{courseRepo: courseRepo, logger: logger}
}

// Handle executes the recompute due dates command.
func (h *RecomputeDueDatesHandler) Handle(ctx context.Context, cmd RecomputeDueDatesCommand) (*RecomputeDueDatesResult, error) {
	if cmd.CourseID == "" {
		return nil, shared.NewDomainError("command", "RecomputeDueDates", shared.ErrEmptyValue,
			"course id is required")
	}

	c, err := h.courseRepo.GetCourse(ctx, cmd.CourseID)
	if err != nil {
		return nil, err
	}

	latest, err := h.courseRepo.LatestEnrollment(ctx, cmd.CourseID)
	if err != nil {
		return nil, err
	}

	dueDate := course.DueDateFrom(c.CreatedAt, latest)

	assignments, err := h.courseRepo.ListAssignmentsByCourse(ctx, cmd.CourseID)
	if err != nil {
		return nil, err
	}

	result := &RecomputeDueDatesResult{CourseID: cmd.CourseID}
	for _, a := range assignments {
		if a.DueDate.Equal(dueDate) {
			continue
		}
		if err := h.courseRepo.UpdateAssignmentDueDate(ctx, a.ID, dueDate); err != nil {
			return result, err
		}
		result.Updated++
	}

	h.logger.Info("due dates recomputed",
		"course_id", cmd.CourseID,
		"due_date", dueDate,
		"updated", result.Updated,
	)
	return result, nil
}
