package eventhandler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/course"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/leaderboard"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/shared"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/infrastructure/cache"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/infrastructure/service"
)

// ══════════════════════════════════════════════════════════════════════════════
// ON COURSE COMPLETED HANDLER
// Issues the certificate and fires the leaderboard qualifying update. The
// certificate's unique (course, student) constraint is the idempotency guard:
// a duplicate delivery hits it and stops before double-counting points.
// ══════════════════════════════════════════════════════════════════════════════

// OnCourseCompletedHandler handles the course.completed event.
type OnCourseCompletedHandler struct {
	courseRepo      course.Repository
	leaderboardRepo leaderboard.Repository
	cache           cache.Store
	notifier        service.Notifier
	logger          *slog.Logger
}

// NewOnCourseCompletedHandler creates a new OnCourseCompletedHandler.
func NewOnCourseCompletedHandler(
	courseRepo course.Repository,
	leaderboardRepo leaderboard.Repository,
	store cache.Store,
	notifier service.Notifier,
	logger *slog.Logger,
) *OnCourseCompletedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnCourseCompletedHandler{
		courseRepo:      courseRepo,
		leaderboardRepo: leaderboardRepo,
		cache:           store,
		notifier:        notifier,
		logger:          logger.With("handler", "on_course_completed"),
	}
}

// EventType returns the event type this handler processes.
func (h *OnCourseCompletedHandler) EventType() shared.EventType {
	return shared.EventCourseCompleted
}

// Handle processes the course.completed event.
func (h *OnCourseCompletedHandler) Handle(event shared.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	evt, err := shared.DecodeEvent[shared.CourseCompletedEvent](event)
	if err != nil {
		return err
	}

	cert, err := course.NewCertificate(evt.CourseID, evt.StudentEmail)
	if err != nil {
		return err
	}
	if err := h.courseRepo.CreateCertificate(ctx, cert); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			h.logger.Info("certificate already issued, skipping duplicate delivery",
				"course_id", evt.CourseID, "student", evt.StudentEmail)
			return nil
		}
		return fmt.Errorf("on_course_completed: issue certificate: %w", err)
	}

	if err := h.updateLeaderboard(ctx, evt); err != nil {
		return fmt.Errorf("on_course_completed: leaderboard update: %w", err)
	}

	if h.cache != nil {
		if err := h.cache.DeleteByPattern(ctx, cache.PrefixLeaderboard+"*"); err != nil {
			h.logger.Warn("leaderboard cache invalidation failed", "error", err)
		}
	}

	if h.notifier != nil {
		_ = h.notifier.Notify(ctx, service.Notification{
			Recipient: evt.StudentEmail,
			Subject:   "Course completed",
			Body:      fmt.Sprintf("Certificate %s issued for course %s.", cert.ID, evt.CourseID),
		})
	}

	h.logger.Info("course completion processed",
		"course_id", evt.CourseID,
		"student", evt.StudentEmail,
		"certificate_id", cert.ID,
	)
	return nil
}

// updateLeaderboard folds the completion into the student's entry and
// recomputes ranks and badges across the board.
func (h *OnCourseCompletedHandler) updateLeaderboard(ctx context.Context, evt shared.CourseCompletedEvent) error {
	entry, err := h.leaderboardRepo.Get(ctx, evt.StudentEmail)
	if shared.IsNotFound(err) {
		entry, err = leaderboard.NewEntry(evt.StudentEmail, "")
		if err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	completed := entry.TotalCoursesCompleted + 1
	update := leaderboard.Update{
		TotalPoints:           entry.TotalPoints + evt.TotalPoints,
		TotalCoursesCompleted: completed,
	}
	if evt.Rating > 0 {
		// Running mean over completions that carried a rating.
		update.AverageRating = (entry.AverageRating*float64(entry.TotalCoursesCompleted) + evt.Rating) / float64(completed)
	}
	entry.Apply(update)

	if err := h.leaderboardRepo.Save(ctx, entry); err != nil {
		return err
	}

	all, err := h.leaderboardRepo.ListAll(ctx)
	if err != nil {
		return err
	}
	leaderboard.Rank(all)

	return h.leaderboardRepo.SaveAll(ctx, all)
}
