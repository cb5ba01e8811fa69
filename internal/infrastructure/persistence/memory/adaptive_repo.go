package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/adaptive"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ADAPTIVE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// AdaptiveRepository implements adaptive.Repository in memory.
type AdaptiveRepository struct {
	mu    sync.RWMutex
	perfs map[perfKey]*adaptive.Performance
}

type perfKey struct {
	courseID     string
	studentEmail string
	topicID      string
}

// NewAdaptiveRepository creates a new in-memory AdaptiveRepository.
func NewAdaptiveRepository() *AdaptiveRepository {
	return &AdaptiveRepository{
		perfs: make(map[perfKey]*adaptive.Performance),
	}
}

// Get returns the aggregate for (courseID, studentEmail, topicID).
func (r *AdaptiveRepository) Get(ctx context.Context, courseID, studentEmail, topicID string) (*adaptive.Performance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.perfs[perfKey{courseID, studentEmail, topicID}]
	if !ok {
		return nil, shared.NewDomainError("adaptive", "Get", shared.ErrNotFound,
			"no performance recorded for topic "+topicID)
	}

	clone := *p
	return &clone, nil
}

// Upsert inserts or replaces the aggregate row for its key.
func (r *AdaptiveRepository) Upsert(ctx context.Context, p *adaptive.Performance) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *p
	r.perfs[perfKey{p.CourseID, p.StudentEmail, p.TopicID}] = &clone
	return nil
}

// ListByStudent returns every aggregate row for (courseID, studentEmail).
func (r *AdaptiveRepository) ListByStudent(ctx context.Context, courseID, studentEmail string) ([]*adaptive.Performance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*adaptive.Performance
	for key, p := range r.perfs {
		if key.courseID == courseID && key.studentEmail == studentEmail {
			clone := *p
			out = append(out, &clone)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].TopicID < out[j].TopicID
	})
	return out, nil
}
