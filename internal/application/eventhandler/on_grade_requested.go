package eventhandler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/adaptive"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/course"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/shared"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/submission"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/infrastructure/external/gemini"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/infrastructure/service"
)

// GradedBy is recorded on submissions graded by the model.
const GradedBy = "gemini"

// ══════════════════════════════════════════════════════════════════════════════
// ON GRADE REQUESTED HANDLER
// Runs the AI grading job and drives the submission state machine. Every
// transition is compare-and-set guarded, so a duplicate delivery or a racing
// admin decision loses cleanly instead of clobbering.
// ══════════════════════════════════════════════════════════════════════════════

// SubmissionGrader scores submitted work against an assignment rubric.
type SubmissionGrader interface {
	GradeSubmission(ctx context.Context, assignmentDescription, submissionText string) (*gemini.GradeResult, error)
}

// OnGradeRequestedHandler handles the assignment.grade event.
type OnGradeRequestedHandler struct {
	courseRepo     course.Repository
	submissionRepo submission.Repository
	adaptiveRepo   adaptive.Repository
	grader         SubmissionGrader
	notifier       service.Notifier
	timeout        time.Duration
	logger         *slog.Logger
}

// NewOnGradeRequestedHandler creates a new OnGradeRequestedHandler.
func NewOnGradeRequestedHandler(
	courseRepo course.Repository,
	submissionRepo submission.Repository,
	adaptiveRepo adaptive.Repository,
	grader SubmissionGrader,
	notifier service.Notifier,
	logger *slog.Logger,
) *OnGradeRequestedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnGradeRequestedHandler{
		courseRepo:     courseRepo,
		submissionRepo: submissionRepo,
		adaptiveRepo:   adaptiveRepo,
		grader:         grader,
		notifier:       notifier,
		timeout:        90 * time.Second,
		logger:         logger.With("handler", "on_grade_requested"),
	}
}

// EventType returns the event type this handler processes.
func (h *OnGradeRequestedHandler) EventType() shared.EventType {
	return shared.EventAssignmentGrade
}

// Handle processes the assignment.grade event.
func (h *OnGradeRequestedHandler) Handle(event shared.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	evt, err := shared.DecodeEvent[shared.AssignmentGradeRequestedEvent](event)
	if err != nil {
		return err
	}

	sub, err := h.submissionRepo.Get(ctx, evt.AssignmentID, evt.StudentEmail)
	if err != nil {
		return fmt.Errorf("on_grade_requested: load submission: %w", err)
	}

	if !sub.Status.AwaitingGrading() {
		h.logger.Info("submission not awaiting grading, skipping duplicate delivery",
			"assignment_id", evt.AssignmentID,
			"student", evt.StudentEmail,
			"status", sub.Status,
		)
		return nil
	}

	// Claim the job. Losing this CAS means another worker (or an admin
	// decision) got there first; the delivery is then a duplicate.
	if sub.Status == submission.StatusSubmitted {
		if err := sub.BeginGrading(); err != nil {
			return err
		}
		if err := h.submissionRepo.UpdateIf(ctx, sub, submission.StatusSubmitted); err != nil {
			if errors.Is(err, shared.ErrConcurrentModification) {
				h.logger.Info("submission claimed by another worker",
					"assignment_id", evt.AssignmentID, "student", evt.StudentEmail)
				return nil
			}
			return err
		}
	}

	assignment, err := h.courseRepo.GetAssignment(ctx, evt.AssignmentID)
	if err != nil {
		return fmt.Errorf("on_grade_requested: load assignment: %w", err)
	}

	result, err := h.grader.GradeSubmission(ctx, assignment.Rubric, sub.Answer)
	if err != nil {
		// Leave the submission recoverable and let the dispatcher retry.
		sub.FailGrading("grading failed: " + err.Error())
		if updateErr := h.submissionRepo.UpdateIf(ctx, sub, submission.StatusPendingReview); updateErr != nil {
			h.logger.Error("failed to record grading failure",
				"assignment_id", evt.AssignmentID, "error", updateErr)
		}
		return fmt.Errorf("on_grade_requested: grade: %w", err)
	}

	feedback := fmt.Sprintf("Score: %d/100. %s", result.Score, result.Feedback)
	if err := sub.CompleteGrading(feedback, GradedBy); err != nil {
		return err
	}
	if err := h.submissionRepo.UpdateIf(ctx, sub, submission.StatusPendingReview); err != nil {
		if errors.Is(err, shared.ErrConcurrentModification) {
			h.logger.Info("grading result discarded, status moved on",
				"assignment_id", evt.AssignmentID, "student", evt.StudentEmail)
			return nil
		}
		return fmt.Errorf("on_grade_requested: persist grade: %w", err)
	}

	h.recordPerformance(ctx, assignment, evt.StudentEmail, float64(result.Score))

	if h.notifier != nil {
		_ = h.notifier.Notify(ctx, service.Notification{
			Recipient: evt.StudentEmail,
			Subject:   "Assignment graded: " + assignment.Title,
			Body:      feedback,
		})
	}

	h.logger.Info("submission graded",
		"assignment_id", evt.AssignmentID,
		"student", evt.StudentEmail,
		"score", result.Score,
	)
	return nil
}

// recordPerformance folds the score into the adaptive aggregate. Best effort:
// mastery bookkeeping must not fail an already-persisted grade.
func (h *OnGradeRequestedHandler) recordPerformance(ctx context.Context, assignment *course.Assignment, studentEmail string, score float64) {
	if h.adaptiveRepo == nil {
		return
	}

	perf, err := h.adaptiveRepo.Get(ctx, assignment.CourseID, studentEmail, assignment.ID)
	switch {
	case shared.IsNotFound(err):
		perf, err = adaptive.NewPerformance(assignment.CourseID, studentEmail, assignment.ID, score)
		if err != nil {
			h.logger.Warn("failed to create performance row", "error", err)
			return
		}
	case err != nil:
		h.logger.Warn("failed to load performance row", "error", err)
		return
	default:
		perf.Record(score)
	}

	if err := h.adaptiveRepo.Upsert(ctx, perf); err != nil {
		h.logger.Warn("failed to record performance",
			"course_id", assignment.CourseID,
			"student", studentEmail,
			"error", err,
		)
	}
}
