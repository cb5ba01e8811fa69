package query

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/leaderboard"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/infrastructure/cache"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD QUERY
// ══════════════════════════════════════════════════════════════════════════════

// DefaultLeaderboardSize is how many ranked entries a page shows.
const DefaultLeaderboardSize = 100

// LeaderboardRow is the public projection of one entry. Anonymous students
// are masked here at read time; stored identity is never touched.
type LeaderboardRow struct {
	Rank                  int               `json:"rank"`
	DisplayName           string            `json:"display_name"`
	TotalPoints           int               `json:"total_points"`
	TotalCoursesCompleted int               `json:"total_courses_completed"`
	AverageRating         float64           `json:"average_rating"`
	Badge                 leaderboard.Badge `json:"badge"`
}

// GetLeaderboardHandler serves ranked leaderboard pages, read through the
// cache.
type GetLeaderboardHandler struct {
	leaderboardRepo leaderboard.Repository
	cache           cache.Store
	logger          *slog.Logger
}

// NewGetLeaderboardHandler creates a new GetLeaderboardHandler.
func NewGetLeaderboardHandler(leaderboardRepo leaderboard.Repository, store cache.Store, logger *slog.Logger) *GetLeaderboardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GetLeaderboardHandler{
		leaderboardRepo: leaderboardRepo,
		cache:           store,
		logger:          logger.With("query", "get_leaderboard"),
	}
}

// Handle returns the top ranked entries as public rows. limit <= 0 falls back
// to DefaultLeaderboardSize.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, limit int) ([]LeaderboardRow, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardSize
	}

	key := cache.LeaderboardKey("top")
	if h.cache != nil {
		var cached []LeaderboardRow
		if err := h.cache.Get(ctx, key, &cached); err == nil {
			if len(cached) > limit {
				cached = cached[:limit]
			}
			return cached, nil
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			h.logger.Warn("leaderboard cache read failed", "key", key, "error", err)
		}
	}

	entries, err := h.leaderboardRepo.ListTop(ctx, DefaultLeaderboardSize)
	if err != nil {
		return nil, err
	}

	rows := make([]LeaderboardRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, LeaderboardRow{
			Rank:                  e.Rank,
			DisplayName:           e.PublicName(),
			TotalPoints:           e.TotalPoints,
			TotalCoursesCompleted: e.TotalCoursesCompleted,
			AverageRating:         e.AverageRating,
			Badge:                 e.Badge,
		})
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, key, rows, cache.TTLLeaderboard); err != nil {
			h.logger.Warn("leaderboard cache write failed", "key", key, "error", err)
		}
	}

	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}
