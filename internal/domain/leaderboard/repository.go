package leaderboard

import (
	"context"
)

// Repository defines the storage contract for leaderboard entries.
// Implementations live in infrastructure/persistence.
type Repository interface {
	// Get returns the entry for a student.
	// Returns shared.ErrNotFound if absent.
	Get(ctx context.Context, studentEmail string) (*Entry, error)

	// Save inserts or replaces an entry by student email.
	Save(ctx context.Context, entry *Entry) error

	// SaveAll persists a batch of entries (used after a rank recompute).
	SaveAll(ctx context.Context, entries []*Entry) error

	// ListAll returns every entry.
	ListAll(ctx context.Context) ([]*Entry, error)

	// ListTop returns the top n entries by rank.
	ListTop(ctx context.Context, n int) ([]*Entry, error)
}
