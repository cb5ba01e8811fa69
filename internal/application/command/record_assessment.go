package command

import (
	"context"
	"log/slog"

	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/adaptive"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/shared"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/infrastructure/cache"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD ASSESSMENT COMMAND
// Folds a quiz/assessment score into the rolling per-topic aggregate that
// drives the mastery summary and difficulty recommendation.
// ══════════════════════════════════════════════════════════════════════════════

// RecordAssessmentCommand contains one assessment result.
type RecordAssessmentCommand struct {
	CourseID     string
	StudentEmail string
	TopicID      string
	Score        float64 // 0-100
}

// Validate validates the command.
func (c RecordAssessmentCommand) Validate() error {
	if c.CourseID == "" || c.StudentEmail == "" || c.TopicID == "" {
		return shared.NewDomainError("command", "RecordAssessment", shared.ErrEmptyValue,
			"course id, student email and topic id are required")
	}
	if c.Score < 0 || c.Score > 100 {
		return shared.NewDomainError("command", "RecordAssessment", shared.ErrInvalidInput,
			"score must be between 0 and 100")
	}
	return nil
}

// RecordAssessmentHandler handles the RecordAssessmentCommand.
type RecordAssessmentHandler struct {
	adaptiveRepo adaptive.Repository
	cache        cache.Store
	logger       *slog.Logger
}

// NewRecordAssessmentHandler creates a new RecordAssessmentHandler.
func NewRecordAssessmentHandler(adaptiveRepo adaptive.Repository, store cache.Store, logger *slog.Logger) *RecordAssessmentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordAssessmentHandler{adaptiveRepo: adaptiveRepo, cache: store, logger: logger}
}

// Handle executes the record assessment command and invalidates the cached
// mastery summary in the same operation.
func (h *RecordAssessmentHandler) Handle(ctx context.Context, cmd RecordAssessmentCommand) (*adaptive.Performance, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	perf, err := h.adaptiveRepo.Get(ctx, cmd.CourseID, cmd.StudentEmail, cmd.TopicID)
	switch {
	case shared.IsNotFound(err):
		perf, err = adaptive.NewPerformance(cmd.CourseID, cmd.StudentEmail, cmd.TopicID, cmd.Score)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		perf.Record(cmd.Score)
	}

	if err := h.adaptiveRepo.Upsert(ctx, perf); err != nil {
		return nil, err
	}

	if h.cache != nil {
		if err := h.cache.Delete(ctx, cache.MasteryKey(cmd.CourseID, cmd.StudentEmail)); err != nil {
			h.logger.Warn("mastery cache invalidation failed",
				"course_id", cmd.CourseID, "student", cmd.StudentEmail, "error", err)
		}
	}

	return perf, nil
}
