package course

import (
	"context"
	"time"
)

// Repository defines the storage contract for courses, assignments, study
// content anchors and certificates. Implementations live in
// infrastructure/persistence.
type Repository interface {
	// Courses

	CreateCourse(ctx context.Context, c *Course) error
	GetCourse(ctx context.Context, id string) (*Course, error)

	// Enrollments

	CreateEnrollment(ctx context.Context, e *Enrollment) error

	// LatestEnrollment returns the most recent enrollment time for a
	// course, or nil when nobody has enrolled yet.
	LatestEnrollment(ctx context.Context, courseID string) (*time.Time, error)

	// Assignments

	CreateAssignment(ctx context.Context, a *Assignment) error
	GetAssignment(ctx context.Context, id string) (*Assignment, error)
	ListAssignmentsByCourse(ctx context.Context, courseID string) ([]*Assignment, error)

	// UpdateAssignmentDueDate persists a recomputed due date.
	UpdateAssignmentDueDate(ctx context.Context, assignmentID string, dueDate time.Time) error

	// Study content

	CreateStudyContent(ctx context.Context, sc *StudyContent) error
	GetStudyContent(ctx context.Context, id string) (*StudyContent, error)
	UpdateStudyContent(ctx context.Context, sc *StudyContent) error

	// Certificates

	// CreateCertificate issues a certificate. Returns shared.ErrAlreadyExists
	// when the (course, student) pair already holds one.
	CreateCertificate(ctx context.Context, cert *Certificate) error
	GetCertificate(ctx context.Context, courseID, studentEmail string) (*Certificate, error)
}
