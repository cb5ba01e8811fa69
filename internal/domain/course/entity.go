// Package course contains course content entities produced by the generation
// pipeline: assignments, AI study material anchors and certificates.
package course

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/shared"
	"github.com/Rashid-RG/gemini-lms-sub003/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// COURSE & ENROLLMENT
// ══════════════════════════════════════════════════════════════════════════════

// Course is the durable root every assignment and study item hangs off.
type Course struct {
	ID        string
	Title     string
	CreatedBy string // user email
	CreatedAt time.Time
}

// NewCourse creates a course with a generated ID.
func NewCourse(title, createdBy string) (*Course, error) {
	if title == "" {
		return nil, shared.NewDomainError("course", "NewCourse", shared.ErrEmptyValue, "title is required")
	}
	return &Course{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Enrollment links a student to a course.
type Enrollment struct {
	CourseID     string
	StudentEmail string
	EnrolledAt   time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// COURSE ASSIGNMENT
// ══════════════════════════════════════════════════════════════════════════════

// Assignment is gradeable work attached to a course. Created by the
// generation pipeline; the due date may later be recomputed by the
// maintenance operation.
type Assignment struct {
	ID          string
	CourseID    string
	Title       string
	Rubric      string
	TotalPoints int
	DueDate     time.Time
	CreatedAt   time.Time
}

// NewAssignment creates an assignment with a generated ID and a due date one
// month after course creation.
func NewAssignment(courseID, title, rubric string, totalPoints int, courseCreatedAt time.Time) (*Assignment, error) {
	if courseID == "" || title == "" {
		return nil, shared.NewDomainError("course", "NewAssignment", shared.ErrEmptyValue,
			"course id and title are required")
	}
	if totalPoints <= 0 {
		return nil, shared.NewDomainError("course", "NewAssignment", shared.ErrInvalidInput,
			"total points must be positive")
	}
	return &Assignment{
		ID:          uuid.NewString(),
		CourseID:    courseID,
		Title:       title,
		Rubric:      rubric,
		TotalPoints: totalPoints,
		DueDate:     DueDateFrom(courseCreatedAt, nil),
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// IsOverdue reports whether now is past the due date.
func (a *Assignment) IsOverdue(now time.Time) bool {
	return now.After(a.DueDate)
}

// DueDateFrom computes the assignment due date: one month past the later of
// course creation and the latest enrollment across the course.
func DueDateFrom(courseCreatedAt time.Time, latestEnrollment *time.Time) time.Time {
	anchor := courseCreatedAt
	if latestEnrollment != nil && latestEnrollment.After(anchor) {
		anchor = *latestEnrollment
	}
	return timeutil.AddMonths(anchor, 1)
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDY TYPE CONTENT
// ══════════════════════════════════════════════════════════════════════════════

// StudyType is the kind of AI-generated study material.
type StudyType string

const (
	StudyTypeFlashcard StudyType = "Flashcard"
	StudyTypeQuiz      StudyType = "Quiz"
	StudyTypeMCQ       StudyType = "MCQ"
	StudyTypeQA        StudyType = "qa"
)

// IsValid reports whether t is a known study type.
func (t StudyType) IsValid() bool {
	switch t {
	case StudyTypeFlashcard, StudyTypeQuiz, StudyTypeMCQ, StudyTypeQA:
		return true
	}
	return false
}

// ContentStatus tracks a generation job against its durable anchor.
type ContentStatus string

const (
	// ContentPending - the anchor exists, the job has not finished.
	// Existence with empty content signals "in flight".
	ContentPending ContentStatus = "pending"

	// ContentReady - the job completed and wrote its result.
	ContentReady ContentStatus = "ready"

	// ContentFailed - the job exhausted its retries. The record stays in
	// this explicit stuck state instead of silently discarding the request.
	ContentFailed ContentStatus = "failed"
)

// StudyContent is a generation job's durable anchor. It is created before the
// studyType.content event is dispatched and populated when the job completes,
// so a duplicate delivery can detect already-done work.
type StudyContent struct {
	ID        string
	CourseID  string
	Type      StudyType
	Topic     string
	Content   json.RawMessage // empty while in flight
	Status    ContentStatus
	Error     string // last failure, for operators
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewStudyContent creates a pending anchor with a generated ID.
func NewStudyContent(courseID string, studyType StudyType, topic string) (*StudyContent, error) {
	if courseID == "" {
		return nil, shared.NewDomainError("course", "NewStudyContent", shared.ErrEmptyValue, "course id is required")
	}
	if !studyType.IsValid() {
		return nil, shared.NewDomainError("course", "NewStudyContent", shared.ErrInvalidInput,
			"unknown study type: "+string(studyType))
	}
	now := time.Now().UTC()
	return &StudyContent{
		ID:        uuid.NewString(),
		CourseID:  courseID,
		Type:      studyType,
		Topic:     topic,
		Status:    ContentPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Complete writes the generated payload. Completing an already-ready anchor
// is a no-op so duplicate job deliveries are harmless.
func (c *StudyContent) Complete(payload json.RawMessage) {
	if c.Status == ContentReady {
		return
	}
	c.Content = payload
	c.Status = ContentReady
	c.Error = ""
	c.UpdatedAt = time.Now().UTC()
}

// Fail marks the anchor stuck after the job exhausted its retries.
func (c *StudyContent) Fail(reason string) {
	if c.Status == ContentReady {
		return
	}
	c.Status = ContentFailed
	c.Error = reason
	c.UpdatedAt = time.Now().UTC()
}

// InFlight reports whether the generation job has not completed yet.
func (c *StudyContent) InFlight() bool {
	return c.Status == ContentPending
}

// ══════════════════════════════════════════════════════════════════════════════
// CERTIFICATE
// ══════════════════════════════════════════════════════════════════════════════

// Certificate is issued once per (course, student) on completion.
type Certificate struct {
	ID           string
	CourseID     string
	StudentEmail string
	IssuedAt     time.Time
}

// NewCertificate creates a certificate with a generated ID.
func NewCertificate(courseID, studentEmail string) (*Certificate, error) {
	if courseID == "" || studentEmail == "" {
		return nil, shared.NewDomainError("course", "NewCertificate", shared.ErrEmptyValue,
			"course id and student email are required")
	}
	return &Certificate{
		ID:           uuid.NewString(),
		CourseID:     courseID,
		StudentEmail: studentEmail,
		IssuedAt:     time.Now().UTC(),
	}, nil
}
