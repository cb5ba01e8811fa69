package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/leaderboard"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardRepository implements leaderboard.Repository in memory.
type LeaderboardRepository struct {
	mu      sync.RWMutex
	entries map[string]*leaderboard.Entry
}

// NewLeaderboardRepository creates a new in-memory LeaderboardRepository.
func NewLeaderboardRepository() *LeaderboardRepository {
	return &LeaderboardRepository{
		entries: make(map[string]*leaderboard.Entry),
	}
}

// Get returns the entry for a student.
func (r *LeaderboardRepository) Get(ctx context.Context, studentEmail string) (*leaderboard.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[studentEmail]
	if !ok {
		return nil, shared.NewDomainError("leaderboard", "Get", shared.ErrNotFound, "entry not found")
	}

	return e.Clone(), nil
}

// Save inserts or replaces an entry by student email.
func (r *LeaderboardRepository) Save(ctx context.Context, entry *leaderboard.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[entry.StudentEmail] = entry.Clone()
	return nil
}

// SaveAll persists a batch of entries.
func (r *LeaderboardRepository) SaveAll(ctx context.Context, entries []*leaderboard.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, entry := range entries {
		r.entries[entry.StudentEmail] = entry.Clone()
	}
	return nil
}

// ListAll returns every entry.
func (r *LeaderboardRepository) ListAll(ctx context.Context) ([]*leaderboard.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*leaderboard.Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Clone())
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Rank != out[j].Rank {
			return out[i].Rank < out[j].Rank
		}
		return out[i].StudentEmail < out[j].StudentEmail
	})
	return out, nil
}

// ListTop returns the top n entries by rank.
func (r *LeaderboardRepository) ListTop(ctx context.Context, n int) ([]*leaderboard.Entry, error) {
	all, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	var ranked []*leaderboard.Entry
	for _, e := range all {
		if e.Rank > 0 {
			ranked = append(ranked, e)
		}
	}

	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked, nil
}
