package adaptive

import (
	"context"
)

// Repository defines the storage contract for adaptive performance rows.
// Implementations live in infrastructure/persistence.
type Repository interface {
	// Get returns the aggregate for (courseID, studentEmail, topicID).
	// Returns shared.ErrNotFound if the topic has never been attempted.
	Get(ctx context.Context, courseID, studentEmail, topicID string) (*Performance, error)

	// Upsert inserts or replaces the aggregate row for its
	// (course, student, topic) key.
	Upsert(ctx context.Context, p *Performance) error

	// ListByStudent returns every aggregate row for (courseID, studentEmail).
	ListByStudent(ctx context.Context, courseID, studentEmail string) ([]*Performance, error)
}
