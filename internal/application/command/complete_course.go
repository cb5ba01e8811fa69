package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/course"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETE COURSE COMMAND
// Records a course completion and enqueues the course.completed job, which
// issues the certificate and fires the leaderboard qualifying update. The
// certificate's unique (course, student) constraint is the idempotency guard
// against duplicate deliveries.
// ══════════════════════════════════════════════════════════════════════════════

// CompleteCourseCommand contains the completion data.
type CompleteCourseCommand struct {
	CourseID     string
	StudentEmail string
	TotalPoints  int
	Rating       float64 // optional course rating left by the student
}

// Validate validates the command.
func (c CompleteCourseCommand) Validate() error {
	if c.CourseID == "" || c.StudentEmail == "" {
		return shared.NewDomainError("command", "CompleteCourse", shared.ErrEmptyValue,
			"course id and student email are required")
	}
	if c.TotalPoints < 0 {
		return shared.NewDomainError("command", "CompleteCourse", shared.ErrInvalidInput,
			"total points cannot be negative")
	}
	return nil
}

// CompleteCourseHandler handles the CompleteCourseCommand.
type CompleteCourseHandler struct {
	courseRepo course.Repository
	publisher  shared.EventPublisher
	logger     *slog.Logger
}

// NewCompleteCourseHandler creates a new CompleteCourseHandler.
func NewCompleteCourseHandler(
	courseRepo course.Repository,
	publisher shared.EventPublisher,
	logger *slog.Logger,
) *CompleteCourseHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CompleteCourseHandler{
		courseRepo: courseRepo,
		publisher:  publisher,
		logger:     logger,
	}
}

// Handle executes the complete course command. Completing an already-completed
// course is rejected up front; the event handler re-checks anyway because
// delivery is at-least-once.
func (h *CompleteCourseHandler) Handle(ctx context.Context, cmd CompleteCourseCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	if _, err := h.courseRepo.GetCourse(ctx, cmd.CourseID); err != nil {
		return err
	}

	if _, err := h.courseRepo.GetCertificate(ctx, cmd.CourseID, cmd.StudentEmail); err == nil {
		return shared.NewDomainError("command", "CompleteCourse", shared.ErrAlreadyExists,
			"course already completed by this student")
	} else if !shared.IsNotFound(err) {
		return err
	}

	event := shared.NewCourseCompletedEvent(cmd.CourseID, cmd.StudentEmail, cmd.TotalPoints)
	event.Rating = cmd.Rating
	if err := h.publisher.Publish(event); err != nil {
		return fmt.Errorf("complete_course: enqueue completion: %w", err)
	}

	h.logger.Info("course completion accepted",
		"course_id", cmd.CourseID,
		"student", cmd.StudentEmail,
		"total_points", cmd.TotalPoints,
	)
	return nil
}
