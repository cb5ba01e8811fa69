package postgres

import (
	"context"
	"fmt"

	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/adaptive"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ADAPTIVE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// AdaptiveRepository implements adaptive.Repository for PostgreSQL.
type AdaptiveRepository struct {
	conn *Connection
}

// NewAdaptiveRepository creates a new AdaptiveRepository.
func NewAdaptiveRepository(conn *Connection) *AdaptiveRepository {
	return &AdaptiveRepository{conn: conn}
}

// Get returns the aggregate for (courseID, studentEmail, topicID).
func (r *AdaptiveRepository) Get(ctx context.Context, courseID, studentEmail, topicID string) (*adaptive.Performance, error) {
	query := `
		SELECT course_id, student_email, topic_id, average_score, attempts,
			   recommended_difficulty, is_weak_topic, updated_at
		FROM adaptive_performance
		WHERE course_id = $1 AND student_email = $2 AND topic_id = $3
	`

	var p adaptive.Performance
	var difficulty string

	err := r.conn.QueryRow(ctx, query, courseID, studentEmail, topicID).Scan(
		&p.CourseID,
		&p.StudentEmail,
		&p.TopicID,
		&p.AverageScore,
		&p.Attempts,
		&difficulty,
		&p.IsWeakTopic,
		&p.UpdatedAt,
	)
	if IsNoRows(err) {
		return nil, shared.NewDomainError("adaptive", "Get", shared.ErrNotFound,
			"no performance recorded for topic "+topicID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan performance: %w", err)
	}

	p.RecommendedDifficulty = adaptive.Difficulty(difficulty)
	return &p, nil
}

// Upsert inserts or replaces the aggregate row for its key.
func (r *AdaptiveRepository) Upsert(ctx context.Context, p *adaptive.Performance) error {
	query := `
		INSERT INTO adaptive_performance (
			course_id, student_email, topic_id, average_score, attempts,
			recommended_difficulty, is_weak_topic, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (course_id, student_email, topic_id) DO UPDATE SET
			average_score = EXCLUDED.average_score,
			attempts = EXCLUDED.attempts,
			recommended_difficulty = EXCLUDED.recommended_difficulty,
			is_weak_topic = EXCLUDED.is_weak_topic,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.conn.Exec(ctx, query,
		p.CourseID,
		p.StudentEmail,
		p.TopicID,
		p.AverageScore,
		p.Attempts,
		string(p.RecommendedDifficulty),
		p.IsWeakTopic,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert performance: %w", err)
	}

	return nil
}

// ListByStudent returns every aggregate row for (courseID, studentEmail).
func (r *AdaptiveRepository) ListByStudent(ctx context.Context, courseID, studentEmail string) ([]*adaptive.Performance, error) {
	query := `
		SELECT course_id, student_email, topic_id, average_score, attempts,
			   recommended_difficulty, is_weak_topic, updated_at
		FROM adaptive_performance
		WHERE course_id = $1 AND student_email = $2
		ORDER BY topic_id ASC
	`

	rows, err := r.conn.Query(ctx, query, courseID, studentEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to query performance rows: %w", err)
	}
	defer rows.Close()

	var perfs []*adaptive.Performance
	for rows.Next() {
		var p adaptive.Performance
		var difficulty string

		err := rows.Scan(
			&p.CourseID,
			&p.StudentEmail,
			&p.TopicID,
			&p.AverageScore,
			&p.Attempts,
			&difficulty,
			&p.IsWeakTopic,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan performance: %w", err)
		}

		p.RecommendedDifficulty = adaptive.Difficulty(difficulty)
		perfs = append(perfs, &p)
	}

	return perfs, rows.Err()
}
