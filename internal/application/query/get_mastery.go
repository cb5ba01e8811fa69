package query

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/adaptive"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/shared"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/infrastructure/cache"
)

// ══════════════════════════════════════════════════════════════════════════════
// MASTERY QUERY
// ══════════════════════════════════════════════════════════════════════════════

// GetMasteryHandler serves the mastery roll-up for one (course, student),
// read through the cache.
type GetMasteryHandler struct {
	adaptiveRepo adaptive.Repository
	cache        cache.Store
	logger       *slog.Logger
}

// NewGetMasteryHandler creates a new GetMasteryHandler.
func NewGetMasteryHandler(adaptiveRepo adaptive.Repository, store cache.Store, logger *slog.Logger) *GetMasteryHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GetMasteryHandler{
		adaptiveRepo: adaptiveRepo,
		cache:        store,
		logger:       logger.With("query", "get_mastery"),
	}
}

// Handle returns the mastery summary. Cache misses recompute from the
// performance rows; cache failures degrade to a direct read.
func (h *GetMasteryHandler) Handle(ctx context.Context, courseID, studentEmail string) (*adaptive.Summary, error) {
	if courseID == "" || studentEmail == "" {
		return nil, shared.NewDomainError("query", "GetMastery", shared.ErrEmptyValue,
			"course id and student email are required")
	}

	key := cache.MasteryKey(courseID, studentEmail)
	if h.cache != nil {
		var cached adaptive.Summary
		if err := h.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			h.logger.Warn("mastery cache read failed", "key", key, "error", err)
		}
	}

	rows, err := h.adaptiveRepo.ListByStudent(ctx, courseID, studentEmail)
	if err != nil {
		return nil, err
	}
	summary := adaptive.Summarize(courseID, studentEmail, rows)

	if h.cache != nil {
		if err := h.cache.Set(ctx, key, summary, cache.TTLMasterySummary); err != nil {
			h.logger.Warn("mastery cache write failed", "key", key, "error", err)
		}
	}
	return summary, nil
}
