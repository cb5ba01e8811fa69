package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/course"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// COURSE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// CourseRepository implements course.Repository for PostgreSQL.
type CourseRepository struct {
	conn *Connection
}

// NewCourseRepository creates a new CourseRepository.
func NewCourseRepository(conn *Connection) *CourseRepository {
	return &CourseRepository{conn: conn}
}

// ─────────────────────────────────────────────────────────────────────────────
// Courses
// ─────────────────────────────────────────────────────────────────────────────

// CreateCourse inserts a new course.
func (r *CourseRepository) CreateCourse(ctx context.Context, c *course.Course) error {
	query := `
		INSERT INTO courses (id, title, created_by, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.conn.Exec(ctx, query, c.ID, c.Title, c.CreatedBy, c.CreatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.NewDomainError("course", "CreateCourse", shared.ErrAlreadyExists,
				"course already exists: "+c.ID)
		}
		return fmt.Errorf("failed to create course: %w", err)
	}

	return nil
}

// GetCourse returns a course by ID.
func (r *CourseRepository) GetCourse(ctx context.Context, id string) (*course.Course, error) {
	query := `
		SELECT id, title, created_by, created_at
		FROM courses
		WHERE id = $1
	`

	var c course.Course
	err := r.conn.QueryRow(ctx, query, id).Scan(&c.ID, &c.Title, &c.CreatedBy, &c.CreatedAt)
	if IsNoRows(err) {
		return nil, shared.NewDomainError("course", "GetCourse", shared.ErrNotFound, "course not found: "+id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan course: %w", err)
	}

	return &c, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Enrollments
// ─────────────────────────────────────────────────────────────────────────────

// CreateEnrollment inserts an enrollment.
func (r *CourseRepository) CreateEnrollment(ctx context.Context, e *course.Enrollment) error {
	query := `
		INSERT INTO enrollments (course_id, student_email, enrolled_at)
		VALUES ($1, $2, $3)
	`

	_, err := r.conn.Exec(ctx, query, e.CourseID, e.StudentEmail, e.EnrolledAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.NewDomainError("course", "CreateEnrollment", shared.ErrAlreadyExists,
				"student already enrolled")
		}
		return fmt.Errorf("failed to create enrollment: %w", err)
	}

	return nil
}

// LatestEnrollment returns the most recent enrollment time for a course, or
// nil when nobody has enrolled yet.
func (r *CourseRepository) LatestEnrollment(ctx context.Context, courseID string) (*time.Time, error) {
	query := `
		SELECT enrolled_at
		FROM enrollments
		WHERE course_id = $1
		ORDER BY enrolled_at DESC
		LIMIT 1
	`

	var enrolledAt time.Time
	err := r.conn.QueryRow(ctx, query, courseID).Scan(&enrolledAt)
	if IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest enrollment: %w", err)
	}

	return &enrolledAt, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Assignments
// ─────────────────────────────────────────────────────────────────────────────

// CreateAssignment inserts an assignment.
func (r *CourseRepository) CreateAssignment(ctx context.Context, a *course.Assignment) error {
	query := `
		INSERT INTO assignments (id, course_id, title, rubric, total_points, due_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.conn.Exec(ctx, query,
		a.ID, a.CourseID, a.Title, a.Rubric, a.TotalPoints, a.DueDate, a.CreatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.NewDomainError("course", "CreateAssignment", shared.ErrAlreadyExists,
				"assignment already exists: "+a.ID)
		}
		return fmt.Errorf("failed to create assignment: %w", err)
	}

	return nil
}

// GetAssignment returns an assignment by ID.
func (r *CourseRepository) GetAssignment(ctx context.Context, id string) (*course.Assignment, error) {
	query := `
		SELECT id, course_id, title, rubric, total_points, due_date, created_at
		FROM assignments
		WHERE id = $1
	`

	return scanAssignment(r.conn.QueryRow(ctx, query, id))
}

// ListAssignmentsByCourse returns every assignment of a course.
func (r *CourseRepository) ListAssignmentsByCourse(ctx context.Context, courseID string) ([]*course.Assignment, error) {
	query := `
		SELECT id, course_id, title, rubric, total_points, due_date, created_at
		FROM assignments
		WHERE course_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.conn.Query(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	var assignments []*course.Assignment
	for rows.Next() {
		var a course.Assignment
		err := rows.Scan(&a.ID, &a.CourseID, &a.Title, &a.Rubric, &a.TotalPoints, &a.DueDate, &a.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, &a)
	}

	return assignments, rows.Err()
}

// UpdateAssignmentDueDate persists a recomputed due date.
func (r *CourseRepository) UpdateAssignmentDueDate(ctx context.Context, assignmentID string, dueDate time.Time) error {
	result, err := r.conn.Exec(ctx,
		"UPDATE assignments SET due_date = $1 WHERE id = $2",
		dueDate, assignmentID,
	)
	if err != nil {
		return fmt.Errorf("failed to update due date: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.NewDomainError("course", "UpdateAssignmentDueDate", shared.ErrNotFound,
			"assignment not found: "+assignmentID)
	}

	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Study content
// ─────────────────────────────────────────────────────────────────────────────

// CreateStudyContent inserts a generation anchor.
func (r *CourseRepository) CreateStudyContent(ctx context.Context, sc *course.StudyContent) error {
	query := `
		INSERT INTO study_contents (
			id, course_id, study_type, topic, content, status, fail_reason, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.conn.Exec(ctx, query,
		sc.ID,
		sc.CourseID,
		string(sc.Type),
		sc.Topic,
		nullableJSON(sc.Content),
		string(sc.Status),
		sc.Error,
		sc.CreatedAt,
		sc.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.NewDomainError("course", "CreateStudyContent", shared.ErrAlreadyExists,
				"study content already exists: "+sc.ID)
		}
		return fmt.Errorf("failed to create study content: %w", err)
	}

	return nil
}

// GetStudyContent returns an anchor by ID.
func (r *CourseRepository) GetStudyContent(ctx context.Context, id string) (*course.StudyContent, error) {
	query := `
		SELECT id, course_id, study_type, topic, content, status, fail_reason, created_at, updated_at
		FROM study_contents
		WHERE id = $1
	`

	var sc course.StudyContent
	var studyType, status string
	var content []byte

	err := r.conn.QueryRow(ctx, query, id).Scan(
		&sc.ID, &sc.CourseID, &studyType, &sc.Topic, &content, &status, &sc.Error,
		&sc.CreatedAt, &sc.UpdatedAt,
	)
	if IsNoRows(err) {
		return nil, shared.NewDomainError("course", "GetStudyContent", shared.ErrNotFound,
			"study content not found: "+id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan study content: %w", err)
	}

	sc.Type = course.StudyType(studyType)
	sc.Status = course.ContentStatus(status)
	sc.Content = content
	return &sc, nil
}

// UpdateStudyContent persists an anchor's generation result.
func (r *CourseRepository) UpdateStudyContent(ctx context.Context, sc *course.StudyContent) error {
	query := `
		UPDATE study_contents SET
			content = $1,
			status = $2,
			fail_reason = $3,
			updated_at = $4
		WHERE id = $5
	`

	result, err := r.conn.Exec(ctx, query,
		nullableJSON(sc.Content),
		string(sc.Status),
		sc.Error,
		sc.UpdatedAt,
		sc.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update study content: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.NewDomainError("course", "UpdateStudyContent", shared.ErrNotFound,
			"study content not found: "+sc.ID)
	}

	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Certificates
// ─────────────────────────────────────────────────────────────────────────────

// CreateCertificate issues a certificate. The unique (course, student)
// constraint is what makes duplicate course-completion deliveries harmless.
func (r *CourseRepository) CreateCertificate(ctx context.Context, cert *course.Certificate) error {
	query := `
		INSERT INTO certificates (id, course_id, student_email, issued_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.conn.Exec(ctx, query, cert.ID, cert.CourseID, cert.StudentEmail, cert.IssuedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.NewDomainError("course", "CreateCertificate", shared.ErrAlreadyExists,
				"certificate already issued")
		}
		return fmt.Errorf("failed to create certificate: %w", err)
	}

	return nil
}

// GetCertificate returns the certificate for (courseID, studentEmail).
func (r *CourseRepository) GetCertificate(ctx context.Context, courseID, studentEmail string) (*course.Certificate, error) {
	query := `
		SELECT id, course_id, student_email, issued_at
		FROM certificates
		WHERE course_id = $1 AND student_email = $2
	`

	var cert course.Certificate
	err := r.conn.QueryRow(ctx, query, courseID, studentEmail).Scan(
		&cert.ID, &cert.CourseID, &cert.StudentEmail, &cert.IssuedAt)
	if IsNoRows(err) {
		return nil, shared.NewDomainError("course", "GetCertificate", shared.ErrNotFound,
			"certificate not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan certificate: %w", err)
	}

	return &cert, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

// scanAssignment scans a single assignment from a row.
func scanAssignment(row pgx.Row) (*course.Assignment, error) {
	var a course.Assignment

	err := row.Scan(&a.ID, &a.CourseID, &a.Title, &a.Rubric, &a.TotalPoints, &a.DueDate, &a.CreatedAt)
	if IsNoRows(err) {
		return nil, shared.NewDomainError("course", "GetAssignment", shared.ErrNotFound, "assignment not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan assignment: %w", err)
	}

	return &a, nil
}

// nullableJSON maps an empty payload to SQL NULL so JSONB columns never hold
// a zero-length document.
func nullableJSON(data []byte) interface{} {
	if len(data) == 0 {
		return nil
	}
	return data
}
