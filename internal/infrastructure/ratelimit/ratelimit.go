// Package ratelimit implements fixed-window request limiting for expensive
// operations, chiefly AI content generation. Windows are keyed by
// (identity, operation) and aligned to the epoch, so every instance sharing
// a Redis-backed store agrees on window boundaries.
//
// A limited request is refused before any work happens: no credits move, no
// event is published, nothing is enqueued.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/Rashid-RG/gemini-lms-sub003/internal/infrastructure/cache"
	"github.com/Rashid-RG/gemini-lms-sub003/pkg/timeutil"
)

// Default limits for content generation.
const (
	// DefaultLimit is the number of requests allowed per window.
	DefaultLimit = 20

	// DefaultWindow is the fixed window size.
	DefaultWindow = 15 * time.Minute
)

// Decision is the outcome of a rate limit check.
type Decision struct {
	// Limited reports whether the request must be refused.
	Limited bool

	// Remaining is the number of requests left in the current window.
	Remaining int

	// ResetIn is how long until the current window rolls over.
	ResetIn time.Duration

	// Message is a human-readable refusal message, empty when allowed.
	Message string
}

// Config holds limiter configuration.
type Config struct {
	// Limit is the maximum requests per window. Default: 20
	Limit int

	// Window is the fixed window size. Default: 15m
	Window time.Duration

	// Logger for structured logging
	Logger *slog.Logger
}

// DefaultConfig returns the content-generation defaults.
func DefaultConfig() Config {
	return Config{
		Limit:  DefaultLimit,
		Window: DefaultWindow,
	}
}

// Limiter counts requests per (identity, operation) in fixed windows. The
// counter lives in a cache.Store: in-memory for single-instance deployments,
// Redis when the window must be shared across workers.
type Limiter struct {
	store  cache.Store
	limit  int
	window time.Duration
	logger *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// New creates a new Limiter backed by the given store.
func New(store cache.Store, config Config) *Limiter {
	if config.Limit <= 0 {
		config.Limit = DefaultLimit
	}
	if config.Window <= 0 {
		config.Window = DefaultWindow
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Limiter{
		store:  store,
		limit:  config.Limit,
		window: config.Window,
		logger: config.Logger,
		now:    timeutil.Now,
	}
}

// Allow records one request for (identity, operation) and decides whether it
// may proceed. The count includes the current request: the 21st call in a
// window of 20 comes back Limited.
func (l *Limiter) Allow(ctx context.Context, identity, operation string) (Decision, error) {
	if identity == "" || operation == "" {
		return Decision{}, fmt.Errorf("ratelimit: identity and operation are required")
	}

	now := l.now()
	key := l.windowKey(identity, operation, now)

	count, err := l.store.Incr(ctx, key)
	if err != nil {
		return Decision{}, fmt.Errorf("ratelimit: increment window counter: %w", err)
	}

	resetIn := timeutil.WindowRemaining(now, l.window)

	// First hit in the window owns setting the expiry. The key also carries
	// the window start in its name, so a missed expiry can never leak counts
	// into the next window.
	if count == 1 {
		if err := l.store.Expire(ctx, key, resetIn); err != nil {
			l.logger.Warn("failed to set window expiry", "key", key, "error", err)
		}
	}

	if count > int64(l.limit) {
		l.logger.Info("request rate limited",
			"identity", identity,
			"operation", operation,
			"count", count,
			"limit", l.limit,
			"reset_in", resetIn,
		)
		return Decision{
			Limited:   true,
			Remaining: 0,
			ResetIn:   resetIn,
			Message: fmt.Sprintf("rate limit of %d per %s exceeded for %s, retry in %s",
				l.limit, l.window, operation, resetIn.Round(time.Second)),
		}, nil
	}

	return Decision{
		Remaining: l.limit - int(count),
		ResetIn:   resetIn,
	}, nil
}

// Peek reports the state of the current window without consuming a request.
func (l *Limiter) Peek(ctx context.Context, identity, operation string) (Decision, error) {
	now := l.now()
	key := l.windowKey(identity, operation, now)
	resetIn := timeutil.WindowRemaining(now, l.window)

	var count int64
	err := l.store.Get(ctx, key, &count)
	if err != nil && err != cache.ErrCacheMiss {
		return Decision{}, fmt.Errorf("ratelimit: read window counter: %w", err)
	}

	remaining := l.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return Decision{
		Limited:   count >= int64(l.limit),
		Remaining: remaining,
		ResetIn:   resetIn,
	}, nil
}

// windowKey namespaces the counter by identity, operation, and window start.
func (l *Limiter) windowKey(identity, operation string, now time.Time) string {
	windowStart := timeutil.WindowStart(now, l.window)
	return cache.RateLimitKey(identity, operation) + ":" + strconv.FormatInt(windowStart.Unix(), 10)
}
