package eventhandler_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rashid-RG/gemini-lms-sub003/internal/application/eventhandler"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/shared"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/infrastructure/cache"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/infrastructure/persistence/memory"
)

type completionFixture struct {
	handler         *eventhandler.OnCourseCompletedHandler
	courseRepo      *memory.CourseRepository
	leaderboardRepo *memory.LeaderboardRepository
	store           *cache.MemoryStore
}

func newCompletionFixture(t *testing.T) *completionFixture {
	t.Helper()
	store := cache.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	courseRepo := memory.NewCourseRepository()
	leaderboardRepo := memory.NewLeaderboardRepository()

	return &completionFixture{
		handler:         eventhandler.NewOnCourseCompletedHandler(courseRepo, leaderboardRepo, store, nil, nil),
		courseRepo:      courseRepo,
		leaderboardRepo: leaderboardRepo,
		store:           store,
	}
}

func TestOnCourseCompletedIssuesCertificateAndRanks(t *testing.T) {
	ctx := context.Background()
	f := newCompletionFixture(t)

	event := shared.NewCourseCompletedEvent("course-1", "student@example.com", 300)
	require.NoError(t, f.handler.Handle(event))

	cert, err := f.courseRepo.GetCertificate(ctx, "course-1", "student@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, cert.ID)

	entry, err := f.leaderboardRepo.Get(ctx, "student@example.com")
	require.NoError(t, err)
	assert.Equal(t, 300, entry.TotalPoints)
	assert.Equal(t, 1, entry.TotalCoursesCompleted)
	assert.Equal(t, 1, entry.Rank)
}

func TestOnCourseCompletedDuplicateDeliveryCountsOnce(t *testing.T) {
	ctx := context.Background()
	f := newCompletionFixture(t)

	event := shared.NewCourseCompletedEvent("course-1", "student@example.com", 300)
	require.NoError(t, f.handler.Handle(event))
	require.NoError(t, f.handler.Handle(event))
	require.NoError(t, f.handler.Handle(event))

	// The certificate guard stopped the redeliveries before the points write.
	entry, err := f.leaderboardRepo.Get(ctx, "student@example.com")
	require.NoError(t, err)
	assert.Equal(t, 300, entry.TotalPoints)
	assert.Equal(t, 1, entry.TotalCoursesCompleted)
}

func TestOnCourseCompletedSharedRanksAndBadges(t *testing.T) {
	ctx := context.Background()
	f := newCompletionFixture(t)

	completions := []struct {
		courseID string
		email    string
		points   int
	}{
		{"course-1", "a@example.com", 300},
		{"course-2", "b@example.com", 300},
		{"course-3", "c@example.com", 100},
	}
	for _, c := range completions {
		require.NoError(t, f.handler.Handle(shared.NewCourseCompletedEvent(c.courseID, c.email, c.points)))
	}

	all, err := f.leaderboardRepo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)

	byEmail := map[string]int{}
	for _, e := range all {
		byEmail[e.StudentEmail] = e.Rank
	}
	assert.Equal(t, 1, byEmail["a@example.com"])
	assert.Equal(t, 1, byEmail["b@example.com"])
	assert.Equal(t, 3, byEmail["c@example.com"])
}

func TestOnCourseCompletedRatingRunningMean(t *testing.T) {
	ctx := context.Background()
	f := newCompletionFixture(t)

	first := shared.NewCourseCompletedEvent("course-1", "s@example.com", 100)
	first.Rating = 4.0
	require.NoError(t, f.handler.Handle(first))

	second := shared.NewCourseCompletedEvent("course-2", "s@example.com", 100)
	second.Rating = 5.0
	require.NoError(t, f.handler.Handle(second))

	entry, err := f.leaderboardRepo.Get(ctx, "s@example.com")
	require.NoError(t, err)
	assert.Equal(t, 200, entry.TotalPoints)
	assert.Equal(t, 2, entry.TotalCoursesCompleted)
	assert.InDelta(t, 4.5, entry.AverageRating, 0.001)
}

func TestOnCourseCompletedInvalidatesLeaderboardCache(t *testing.T) {
	ctx := context.Background()
	f := newCompletionFixture(t)

	require.NoError(t, f.store.Set(ctx, cache.LeaderboardKey("top"), "stale", 0))

	event := shared.NewCourseCompletedEvent("course-1", "student@example.com", 50)
	require.NoError(t, f.handler.Handle(event))

	exists, err := f.store.Exists(ctx, cache.LeaderboardKey("top"))
	require.NoError(t, err)
	assert.False(t, exists)
}
