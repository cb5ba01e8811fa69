// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/course"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/credit"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/shared"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/infrastructure/ratelimit"
)

// GenerationCost is the credit price of one study-content generation.
const GenerationCost = 1

// ══════════════════════════════════════════════════════════════════════════════
// GENERATE CONTENT COMMAND
// Debits a credit, creates the durable generation anchor, and enqueues the
// studyType.content job. The caller gets an answer immediately; the AI call
// happens on the dispatcher.
// ══════════════════════════════════════════════════════════════════════════════

// GenerateContentCommand contains the data to request study-content generation.
type GenerateContentCommand struct {
	// CourseID is the course the content belongs to.
	CourseID string

	// StudyType is one of Flashcard, Quiz, MCQ, qa.
	StudyType course.StudyType

	// Topic narrows the generation subject.
	Topic string

	// RequesterEmail identifies the paying user; also the rate-limit identity.
	RequesterEmail string
}

// Validate validates the command.
func (c GenerateContentCommand) Validate() error {
	if c.CourseID == "" || c.RequesterEmail == "" {
		return shared.NewDomainError("command", "GenerateContent", shared.ErrEmptyValue,
			"course id and requester email are required")
	}
	if !c.StudyType.IsValid() {
		return shared.NewDomainError("command", "GenerateContent", shared.ErrInvalidInput,
			"unknown study type: "+string(c.StudyType))
	}
	return nil
}

// GenerateContentResult reports the accepted generation job.
type GenerateContentResult struct {
	ContentID string
	Remaining int // rate-limit quota left in the current window
}

// GenerateContentHandler handles the GenerateContentCommand.
type GenerateContentHandler struct {
	courseRepo course.Repository
	ledger     *credit.Ledger
	limiter    *ratelimit.Limiter
	publisher  shared.EventPublisher
	logger     *slog.Logger
}

// NewGenerateContentHandler creates a new GenerateContentHandler.
func NewGenerateContentHandler(
	courseRepo course.Repository,
	ledger *credit.Ledger,
	limiter *ratelimit.Limiter,
	publisher shared.EventPublisher,
	logger *slog.Logger,
) *GenerateContentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GenerateContentHandler{
		courseRepo: courseRepo,
		ledger:     ledger,
		limiter:    limiter,
		publisher:  publisher,
		logger:     logger,
	}
}

// Handle executes the generate content command. Refusals (rate limit,
// insufficient credits, unknown course) happen before any durable write or
// enqueue, so a rejected request leaves no trace.
func (h *GenerateContentHandler) Handle(ctx context.Context, cmd GenerateContentCommand) (*GenerateContentResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	decision, err := h.limiter.Allow(ctx, cmd.RequesterEmail, "content-generation")
	if err != nil {
		return nil, fmt.Errorf("generate_content: rate limit check: %w", err)
	}
	if decision.Limited {
		return nil, shared.NewDomainError("command", "GenerateContent", shared.ErrRateLimited, decision.Message)
	}

	if _, err := h.courseRepo.GetCourse(ctx, cmd.CourseID); err != nil {
		return nil, err
	}

	if _, err := h.ledger.Debit(ctx, cmd.RequesterEmail, GenerationCost,
		"study content generation", cmd.CourseID); err != nil {
		return nil, err
	}

	anchor, err := course.NewStudyContent(cmd.CourseID, cmd.StudyType, cmd.Topic)
	if err != nil {
		return nil, err
	}
	if err := h.courseRepo.CreateStudyContent(ctx, anchor); err != nil {
		return nil, fmt.Errorf("generate_content: create anchor: %w", err)
	}

	event := shared.NewStudyContentRequestedEvent(anchor.ID, cmd.CourseID, string(cmd.StudyType), cmd.Topic)
	if err := h.publisher.Publish(event); err != nil {
		return nil, fmt.Errorf("generate_content: enqueue job: %w", err)
	}

	h.logger.Info("generation job accepted",
		"content_id", anchor.ID,
		"course_id", cmd.CourseID,
		"study_type", cmd.StudyType,
		"requester", cmd.RequesterEmail,
	)

	return &GenerateContentResult{
		ContentID: anchor.ID,
		Remaining: decision.Remaining,
	}, nil
}
