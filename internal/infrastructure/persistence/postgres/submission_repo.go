package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/shared"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/submission"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMISSION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// SubmissionRepository implements submission.Repository for PostgreSQL.
// Status transitions go through UpdateIf: the stored status is part of the
// WHERE clause, so a writer racing against a newer transition loses cleanly.
type SubmissionRepository struct {
	conn *Connection
}

// NewSubmissionRepository creates a new SubmissionRepository.
func NewSubmissionRepository(conn *Connection) *SubmissionRepository {
	return &SubmissionRepository{conn: conn}
}

const submissionColumns = `assignment_id, student_email, answer, status, feedback,
	   graded_by, graded_at, unlock_reason, submitted_at, updated_at`

// Create inserts a new submission.
func (r *SubmissionRepository) Create(ctx context.Context, sub *submission.Submission) error {
	query := `
		INSERT INTO submissions (
			assignment_id, student_email, answer, status, feedback,
			graded_by, graded_at, unlock_reason, submitted_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.conn.Exec(ctx, query,
		sub.AssignmentID,
		sub.StudentEmail,
		sub.Answer,
		string(sub.Status),
		sub.Feedback,
		sub.GradedBy,
		sub.GradedAt,
		sub.UnlockReason,
		sub.SubmittedAt,
		sub.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.NewDomainError("submission", "Create", shared.ErrAlreadyExists,
				"submission already exists for this assignment and student")
		}
		return fmt.Errorf("failed to create submission: %w", err)
	}

	return nil
}

// Get returns the submission for (assignmentID, studentEmail).
func (r *SubmissionRepository) Get(ctx context.Context, assignmentID, studentEmail string) (*submission.Submission, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM submissions
		WHERE assignment_id = $1 AND student_email = $2
	`, submissionColumns)

	return scanSubmission(r.conn.QueryRow(ctx, query, assignmentID, studentEmail))
}

// Update persists a submission unconditionally.
func (r *SubmissionRepository) Update(ctx context.Context, sub *submission.Submission) error {
	query := `
		UPDATE submissions SET
			answer = $1,
			status = $2,
			feedback = $3,
			graded_by = $4,
			graded_at = $5,
			unlock_reason = $6,
			submitted_at = $7,
			updated_at = $8
		WHERE assignment_id = $9 AND student_email = $10
	`

	result, err := r.conn.Exec(ctx, query,
		sub.Answer,
		string(sub.Status),
		sub.Feedback,
		sub.GradedBy,
		sub.GradedAt,
		sub.UnlockReason,
		sub.SubmittedAt,
		sub.UpdatedAt,
		sub.AssignmentID,
		sub.StudentEmail,
	)
	if err != nil {
		return fmt.Errorf("failed to update submission: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.NewDomainError("submission", "Update", shared.ErrNotFound, "submission not found")
	}

	return nil
}

// UpdateIf persists the submission only while the stored status still equals
// expected (compare-and-set).
func (r *SubmissionRepository) UpdateIf(ctx context.Context, sub *submission.Submission, expected submission.Status) error {
	query := `
		UPDATE submissions SET
			answer = $1,
			status = $2,
			feedback = $3,
			graded_by = $4,
			graded_at = $5,
			unlock_reason = $6,
			submitted_at = $7,
			updated_at = $8
		WHERE assignment_id = $9 AND student_email = $10 AND status = $11
	`

	result, err := r.conn.Exec(ctx, query,
		sub.Answer,
		string(sub.Status),
		sub.Feedback,
		sub.GradedBy,
		sub.GradedAt,
		sub.UnlockReason,
		sub.SubmittedAt,
		sub.UpdatedAt,
		sub.AssignmentID,
		sub.StudentEmail,
		string(expected),
	)
	if err != nil {
		return fmt.Errorf("failed to update submission: %w", err)
	}

	if result.RowsAffected() == 0 {
		// Either the row is gone or the status moved on; distinguish so the
		// caller can tell a lost race from a missing submission.
		if _, getErr := r.Get(ctx, sub.AssignmentID, sub.StudentEmail); getErr != nil {
			return getErr
		}
		return shared.NewDomainError("submission", "UpdateIf", shared.ErrConcurrentModification,
			fmt.Sprintf("status is no longer %s", expected))
	}

	return nil
}

// ListByAssignment returns every submission for an assignment.
func (r *SubmissionRepository) ListByAssignment(ctx context.Context, assignmentID string) ([]*submission.Submission, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM submissions
		WHERE assignment_id = $1
		ORDER BY submitted_at ASC
	`, submissionColumns)

	rows, err := r.conn.Query(ctx, query, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions by assignment: %w", err)
	}
	defer rows.Close()

	return scanSubmissions(rows)
}

// ListByStatus returns submissions currently in the given status, oldest-first.
func (r *SubmissionRepository) ListByStatus(ctx context.Context, status submission.Status) ([]*submission.Submission, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM submissions
		WHERE status = $1
		ORDER BY updated_at ASC
	`, submissionColumns)

	rows, err := r.conn.Query(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions by status: %w", err)
	}
	defer rows.Close()

	return scanSubmissions(rows)
}

// scanSubmission scans a single submission from a row.
func scanSubmission(row pgx.Row) (*submission.Submission, error) {
	var s submission.Submission
	var status string

	err := row.Scan(
		&s.AssignmentID,
		&s.StudentEmail,
		&s.Answer,
		&status,
		&s.Feedback,
		&s.GradedBy,
		&s.GradedAt,
		&s.UnlockReason,
		&s.SubmittedAt,
		&s.UpdatedAt,
	)

	if IsNoRows(err) {
		return nil, shared.NewDomainError("submission", "Get", shared.ErrNotFound, "submission not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan submission: %w", err)
	}

	s.Status = submission.Status(status)
	return &s, nil
}

// scanSubmissions scans multiple submissions from rows.
func scanSubmissions(rows pgx.Rows) ([]*submission.Submission, error) {
	var subs []*submission.Submission

	for rows.Next() {
		var s submission.Submission
		var status string

		err := rows.Scan(
			&s.AssignmentID,
			&s.StudentEmail,
			&s.Answer,
			&status,
			&s.Feedback,
			&s.GradedBy,
			&s.GradedAt,
			&s.UnlockReason,
			&s.SubmittedAt,
			&s.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}

		s.Status = submission.Status(status)
		subs = append(subs, &s)
	}

	return subs, rows.Err()
}
