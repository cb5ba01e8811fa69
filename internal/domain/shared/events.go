package shared

import (
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the asynchronous generation/grading
// pipeline. Each event names a unit of deferred work with a fixed payload.
const (
	// User lifecycle events
	EventUserCreate EventType = "user.create"

	// Content generation events
	EventStudyContent EventType = "studyType.content"

	// Grading events
	EventAssignmentGrade EventType = "assignment.grade"

	// Course events
	EventCourseCompleted EventType = "course.completed"

	// Notification events
	EventNotificationSent   EventType = "notification.sent"
	EventNotificationFailed EventType = "notification.failed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Validate reports whether the payload carries every identifier its
	// handler needs. Malformed payloads are rejected at publish time.
	Validate() error
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// User Events
// ═══════════════════════════════════════════════════════════════════════════

// UserCreateEvent is emitted on a user's first sign-in. The handler
// provisions the User record and grants the signup credit bonus.
type UserCreateEvent struct {
	BaseEvent
	Email string `json:"email"`
	Name  string `json:"name"`
}

// NewUserCreateEvent creates a new UserCreateEvent.
func NewUserCreateEvent(email, name string) UserCreateEvent {
	return UserCreateEvent{
		BaseEvent: NewBaseEvent(EventUserCreate, email),
		Email:     email,
		Name:      name,
	}
}

// Validate implements Event interface.
func (e UserCreateEvent) Validate() error {
	if e.Email == "" {
		return NewDomainError("event", "Validate", ErrEmptyValue, "user.create requires email")
	}
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Content Generation Events
// ═══════════════════════════════════════════════════════════════════════════

// StudyContentRequestedEvent is emitted when AI study material must be
// produced for a course. The durable StudyTypeContent anchor identified by
// ContentID is created before this event is published; the handler fills it in.
type StudyContentRequestedEvent struct {
	BaseEvent
	ContentID string `json:"content_id"`
	CourseID  string `json:"course_id"`
	StudyType string `json:"study_type"` // Flashcard, Quiz, MCQ, qa
	Topic     string `json:"topic"`
}

// NewStudyContentRequestedEvent creates a new StudyContentRequestedEvent.
func NewStudyContentRequestedEvent(contentID, courseID, studyType, topic string) StudyContentRequestedEvent {
	return StudyContentRequestedEvent{
		BaseEvent: NewBaseEvent(EventStudyContent, contentID),
		ContentID: contentID,
		CourseID:  courseID,
		StudyType: studyType,
		Topic:     topic,
	}
}

// Validate implements Event interface.
func (e StudyContentRequestedEvent) Validate() error {
	if e.ContentID == "" || e.CourseID == "" {
		return NewDomainError("event", "Validate", ErrEmptyValue, "studyType.content requires content_id and course_id")
	}
	if e.StudyType == "" {
		return NewDomainError("event", "Validate", ErrEmptyValue, "studyType.content requires study_type")
	}
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Grading Events
// ═══════════════════════════════════════════════════════════════════════════

// AssignmentGradeRequestedEvent is emitted when a submission needs AI grading.
// The handler is idempotent: it re-reads the submission status and skips work
// already done by an earlier delivery.
type AssignmentGradeRequestedEvent struct {
	BaseEvent
	AssignmentID string `json:"assignment_id"`
	StudentEmail string `json:"student_email"`
}

// NewAssignmentGradeRequestedEvent creates a new AssignmentGradeRequestedEvent.
func NewAssignmentGradeRequestedEvent(assignmentID, studentEmail string) AssignmentGradeRequestedEvent {
	return AssignmentGradeRequestedEvent{
		BaseEvent:    NewBaseEvent(EventAssignmentGrade, assignmentID),
		AssignmentID: assignmentID,
		StudentEmail: studentEmail,
	}
}

// Validate implements Event interface.
func (e AssignmentGradeRequestedEvent) Validate() error {
	if e.AssignmentID == "" || e.StudentEmail == "" {
		return NewDomainError("event", "Validate", ErrEmptyValue, "assignment.grade requires assignment_id and student_email")
	}
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Course Events
// ═══════════════════════════════════════════════════════════════════════════

// CourseCompletedEvent is emitted when a student finishes a course. It drives
// certificate issuance and the leaderboard qualifying update.
type CourseCompletedEvent struct {
	BaseEvent
	CourseID     string  `json:"course_id"`
	StudentEmail string  `json:"student_email"`
	TotalPoints  int     `json:"total_points"`
	Rating       float64 `json:"rating,omitempty"`
}

// NewCourseCompletedEvent creates a new CourseCompletedEvent.
func NewCourseCompletedEvent(courseID, studentEmail string, totalPoints int) CourseCompletedEvent {
	return CourseCompletedEvent{
		BaseEvent:    NewBaseEvent(EventCourseCompleted, courseID),
		CourseID:     courseID,
		StudentEmail: studentEmail,
		TotalPoints:  totalPoints,
	}
}

// Validate implements Event interface.
func (e CourseCompletedEvent) Validate() error {
	if e.CourseID == "" || e.StudentEmail == "" {
		return NewDomainError("event", "Validate", ErrEmptyValue, "course.completed requires course_id and student_email")
	}
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Bus Contracts
// ═══════════════════════════════════════════════════════════════════════════

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
// Publish enqueues the event and returns immediately; handlers run on a
// separate execution context with at-least-once delivery.
type EventPublisher interface {
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}

// RawPayloadEvent is implemented by transport-reconstructed events whose
// concrete Go type was lost in serialization. Handlers decode the JSON
// payload themselves via DecodeEvent.
type RawPayloadEvent interface {
	Event
	RawPayload() []byte
}

// DecodeEvent materializes a typed event from e. Events published in-process
// keep their concrete type and are returned as-is; events that crossed a
// transport boundary are decoded from their raw JSON payload.
func DecodeEvent[T Event](e Event) (T, error) {
	if typed, ok := e.(T); ok {
		return typed, nil
	}
	var typed T
	raw, ok := e.(RawPayloadEvent)
	if !ok {
		return typed, NewDomainError("event", "DecodeEvent", ErrInvalidInput,
			"event is neither the expected type nor payload-carrying")
	}
	if err := json.Unmarshal(raw.RawPayload(), &typed); err != nil {
		return typed, WrapError("event", "DecodeEvent", ErrInvalidInput, "malformed event payload", err)
	}
	return typed, typed.Validate()
}
