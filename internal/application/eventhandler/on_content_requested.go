package eventhandler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/course"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/shared"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/infrastructure/cache"
)

// ══════════════════════════════════════════════════════════════════════════════
// ON CONTENT REQUESTED HANDLER
// Runs the AI generation job against its durable anchor. The anchor's status
// is the idempotency guard: a duplicate delivery finds the anchor already
// ready and stops without a second model call.
// ══════════════════════════════════════════════════════════════════════════════

// ContentGenerator produces study material as structured JSON.
type ContentGenerator interface {
	GenerateStudyContent(ctx context.Context, studyType, topic string) (json.RawMessage, error)
}

// OnContentRequestedHandler handles the studyType.content event.
type OnContentRequestedHandler struct {
	courseRepo course.Repository
	generator  ContentGenerator
	cache      cache.Store
	timeout    time.Duration
	logger     *slog.Logger
}

// NewOnContentRequestedHandler creates a new OnContentRequestedHandler.
func NewOnContentRequestedHandler(
	courseRepo course.Repository,
	generator ContentGenerator,
	store cache.Store,
	logger *slog.Logger,
) *OnContentRequestedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnContentRequestedHandler{
		courseRepo: courseRepo,
		generator:  generator,
		cache:      store,
		timeout:    90 * time.Second,
		logger:     logger.With("handler", "on_content_requested"),
	}
}

// EventType returns the event type this handler processes.
func (h *OnContentRequestedHandler) EventType() shared.EventType {
	return shared.EventStudyContent
}

// Handle processes the studyType.content event. A model failure propagates so
// the dispatcher retries; after exhaustion MarkFailed records the stuck state.
func (h *OnContentRequestedHandler) Handle(event shared.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	evt, err := shared.DecodeEvent[shared.StudyContentRequestedEvent](event)
	if err != nil {
		return err
	}

	anchor, err := h.courseRepo.GetStudyContent(ctx, evt.ContentID)
	if err != nil {
		return fmt.Errorf("on_content_requested: load anchor: %w", err)
	}

	if !anchor.InFlight() {
		h.logger.Info("anchor already settled, skipping duplicate delivery",
			"content_id", evt.ContentID, "status", anchor.Status)
		return nil
	}

	payload, err := h.generator.GenerateStudyContent(ctx, evt.StudyType, evt.Topic)
	if err != nil {
		h.logger.Error("content generation failed",
			"content_id", evt.ContentID,
			"study_type", evt.StudyType,
			"error", err,
		)
		return fmt.Errorf("on_content_requested: generate: %w", err)
	}

	anchor.Complete(payload)
	if err := h.courseRepo.UpdateStudyContent(ctx, anchor); err != nil {
		return fmt.Errorf("on_content_requested: persist result: %w", err)
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, cache.ContentKey(anchor.ID), payload, cache.TTLStudyContent); err != nil {
			h.logger.Warn("content cache write failed", "content_id", anchor.ID, "error", err)
		}
	}

	h.logger.Info("study content generated",
		"content_id", anchor.ID,
		"course_id", anchor.CourseID,
		"study_type", anchor.Type,
	)
	return nil
}

// MarkFailed records the stuck state after the dispatcher exhausted its
// retries. Wired as the dead-letter callback for studyType.content events.
func (h *OnContentRequestedHandler) MarkFailed(ctx context.Context, contentID, reason string) error {
	anchor, err := h.courseRepo.GetStudyContent(ctx, contentID)
	if err != nil {
		return err
	}

	anchor.Fail(reason)
	return h.courseRepo.UpdateStudyContent(ctx, anchor)
}
