// Package cache implements read-through caching for derived views: mastery
// summaries, leaderboard pages, credit balances. It provides an in-memory
// store for single-instance deployments and a Redis store for distributed
// ones, behind a common contract.
//
// The cache is never authoritative. Every value it holds can be recomputed
// from storage; invalidation errs on the side of dropping too much.
package cache

import (
	"context"
	"errors"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrCacheMiss is returned when the requested key is not found in cache.
	ErrCacheMiss = errors.New("cache: key not found")

	// ErrCacheConnection is returned when the backing store is unreachable.
	ErrCacheConnection = errors.New("cache: connection failed")

	// ErrCacheSerialization is returned when serialization/deserialization fails.
	ErrCacheSerialization = errors.New("cache: serialization failed")

	// ErrCacheInvalidTTL is returned when an invalid TTL is provided.
	ErrCacheInvalidTTL = errors.New("cache: invalid TTL")

	// ErrCacheKeyEmpty is returned when an empty key is provided.
	ErrCacheKeyEmpty = errors.New("cache: key cannot be empty")

	// ErrCacheNilValue is returned when attempting to cache a nil value.
	ErrCacheNilValue = errors.New("cache: value cannot be nil")
)

// ══════════════════════════════════════════════════════════════════════════════
// KEY PREFIXES
// ══════════════════════════════════════════════════════════════════════════════

// Key prefixes for namespacing cache keys. Invalidation works per prefix:
// a write to a domain drops that domain's derived views wholesale.
const (
	// PrefixMastery is the prefix for per-student mastery summaries.
	PrefixMastery = "mastery:"

	// PrefixLeaderboard is the prefix for ranked leaderboard pages.
	PrefixLeaderboard = "leaderboard:"

	// PrefixCredit is the prefix for credit balance reads.
	PrefixCredit = "credit:"

	// PrefixContent is the prefix for generated study content payloads.
	PrefixContent = "content:"

	// PrefixRateLimit is the prefix for rate limiting counters.
	PrefixRateLimit = "ratelimit:"
)

// ══════════════════════════════════════════════════════════════════════════════
// DEFAULT TTLs
// ══════════════════════════════════════════════════════════════════════════════

// Default TTL values for different classes of cached data.
const (
	// TTLMasterySummary is the TTL for mastery summaries. Short: summaries
	// shift with every graded quiz.
	TTLMasterySummary = 5 * time.Minute

	// TTLLeaderboard is the TTL for leaderboard pages.
	TTLLeaderboard = 5 * time.Minute

	// TTLCreditBalance is the TTL for credit balance reads. Very short: the
	// ledger is the authority and balances move often.
	TTLCreditBalance = 30 * time.Second

	// TTLStudyContent is the TTL for generated content. Long: content is
	// immutable once its anchor reaches the ready state.
	TTLStudyContent = 24 * time.Hour

	// TTLRateLimitWindow is the default rate limit window.
	TTLRateLimitWindow = 15 * time.Minute
)

// ══════════════════════════════════════════════════════════════════════════════
// STORE CONTRACT
// ══════════════════════════════════════════════════════════════════════════════

// Store is the caching contract shared by the in-memory and Redis backends.
// Values are serialized to JSON on the way in and out.
type Store interface {
	// Set stores a value with the given key and TTL.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Get retrieves and deserializes a value by key.
	// Returns ErrCacheMiss if the key doesn't exist or has expired.
	Get(ctx context.Context, key string, dest interface{}) error

	// Delete removes keys from the cache. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// DeleteByPattern deletes all keys matching a glob-style pattern
	// (e.g. "mastery:*"). Used for per-domain invalidation.
	DeleteByPattern(ctx context.Context, pattern string) error

	// Exists checks if a key exists in the cache.
	Exists(ctx context.Context, key string) (bool, error)

	// Incr increments a counter and returns the new value, creating the
	// key at 1 if absent.
	Incr(ctx context.Context, key string) (int64, error)

	// Expire sets a new TTL on an existing key.
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// TTL returns the remaining TTL for a key.
	TTL(ctx context.Context, key string) (time.Duration, error)

	// Close releases the store's resources.
	Close() error
}

// ══════════════════════════════════════════════════════════════════════════════
// KEY HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// MasteryKey generates a cache key for a student's mastery summary in a course.
func MasteryKey(courseID, studentEmail string) string {
	return PrefixMastery + courseID + ":" + studentEmail
}

// LeaderboardKey generates a cache key for a leaderboard page.
func LeaderboardKey(page string) string {
	if page == "" {
		return PrefixLeaderboard + "all"
	}
	return PrefixLeaderboard + page
}

// CreditKey generates a cache key for a user's credit balance.
func CreditKey(email string) string {
	return PrefixCredit + email
}

// ContentKey generates a cache key for generated study content.
func ContentKey(contentID string) string {
	return PrefixContent + contentID
}

// RateLimitKey generates a cache key for rate limiting.
func RateLimitKey(identifier, action string) string {
	return PrefixRateLimit + identifier + ":" + action
}
