package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rashid-RG/gemini-lms-sub003/internal/infrastructure/cache"
)

func newTestLimiter(t *testing.T, limit int, window time.Duration) (*Limiter, *time.Time) {
	t.Helper()
	store := cache.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	l := New(store, Config{Limit: limit, Window: window})

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestAllowWithinLimit(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLimiter(t, 20, 15*time.Minute)

	for i := 1; i <= 20; i++ {
		d, err := l.Allow(ctx, "user@example.com", "content-generation")
		require.NoError(t, err)
		assert.False(t, d.Limited, "request %d should be allowed", i)
		assert.Equal(t, 20-i, d.Remaining)
	}
}

func TestTwentyFirstRequestIsLimited(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLimiter(t, 20, 15*time.Minute)

	for i := 0; i < 20; i++ {
		_, err := l.Allow(ctx, "user@example.com", "content-generation")
		require.NoError(t, err)
	}

	d, err := l.Allow(ctx, "user@example.com", "content-generation")
	require.NoError(t, err)
	assert.True(t, d.Limited)
	assert.Equal(t, 0, d.Remaining)
	assert.NotEmpty(t, d.Message)
	assert.Greater(t, d.ResetIn, time.Duration(0))
}

func TestWindowRollover(t *testing.T) {
	ctx := context.Background()
	l, now := newTestLimiter(t, 2, 15*time.Minute)

	for i := 0; i < 2; i++ {
		_, err := l.Allow(ctx, "user@example.com", "content-generation")
		require.NoError(t, err)
	}
	d, err := l.Allow(ctx, "user@example.com", "content-generation")
	require.NoError(t, err)
	require.True(t, d.Limited)

	// The next window starts a fresh count.
	*now = now.Add(15 * time.Minute)
	d, err = l.Allow(ctx, "user@example.com", "content-generation")
	require.NoError(t, err)
	assert.False(t, d.Limited)
	assert.Equal(t, 1, d.Remaining)
}

func TestWindowsAreIsolatedPerIdentityAndOperation(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLimiter(t, 1, 15*time.Minute)

	d, err := l.Allow(ctx, "a@example.com", "content-generation")
	require.NoError(t, err)
	require.False(t, d.Limited)

	d, err = l.Allow(ctx, "a@example.com", "content-generation")
	require.NoError(t, err)
	require.True(t, d.Limited)

	// Another user, and another operation for the same user, are unaffected.
	d, err = l.Allow(ctx, "b@example.com", "content-generation")
	require.NoError(t, err)
	assert.False(t, d.Limited)

	d, err = l.Allow(ctx, "a@example.com", "grading")
	require.NoError(t, err)
	assert.False(t, d.Limited)
}

func TestPeekDoesNotConsume(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLimiter(t, 2, 15*time.Minute)

	_, err := l.Allow(ctx, "user@example.com", "content-generation")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		d, err := l.Peek(ctx, "user@example.com", "content-generation")
		require.NoError(t, err)
		assert.False(t, d.Limited)
		assert.Equal(t, 1, d.Remaining)
	}
}

func TestAllowRequiresIdentityAndOperation(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLimiter(t, 20, 15*time.Minute)

	_, err := l.Allow(ctx, "", "content-generation")
	assert.Error(t, err)
	_, err = l.Allow(ctx, "user@example.com", "")
	assert.Error(t, err)
}
