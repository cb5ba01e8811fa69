package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rashid-RG/gemini-lms-sub003/pkg/retry"
)

func fastOpts() []retry.Option {
	return []retry.Option{
		retry.WithInitialDelay(time.Millisecond),
		retry.WithMaxDelay(5 * time.Millisecond),
		retry.WithJitter(0),
	}
}

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	err := retry.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return retry.Retryable(errors.New("connection reset"))
		}
		return nil
	}, append(fastOpts(), retry.WithMaxAttempts(5))...)

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	cause := errors.New("email is required")
	attempts := 0
	err := retry.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return retry.Permanent(cause)
	}, append(fastOpts(), retry.WithMaxAttempts(5))...)

	// The wrapper is stripped before the error reaches the caller.
	require.Equal(t, cause, err)
	assert.Equal(t, 1, attempts)
}

func TestDoDoesNotRetryUnmarkedErrors(t *testing.T) {
	attempts := 0
	err := retry.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return errors.New("unknown failure")
	}, append(fastOpts(), retry.WithMaxAttempts(5))...)

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDoExhaustsAttempts(t *testing.T) {
	cause := errors.New("still down")
	attempts := 0
	err := retry.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return retry.Retryable(cause)
	}, append(fastOpts(), retry.WithMaxAttempts(3))...)

	require.Equal(t, cause, err)
	assert.Equal(t, 3, attempts)
}

func TestDoHonorsCustomRetryIf(t *testing.T) {
	transient := errors.New("429 too many requests")
	attempts := 0
	err := retry.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts == 1 {
			return transient
		}
		return nil
	}, append(fastOpts(),
		retry.WithMaxAttempts(3),
		retry.WithRetryIf(func(err error) bool { return errors.Is(err, transient) }),
	)...)

	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestDoStopsOnContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	err := retry.Do(ctx, func(ctx context.Context) error {
		attempts++
		cancel()
		return retry.Retryable(errors.New("interrupted"))
	}, retry.WithMaxAttempts(10), retry.WithInitialDelay(50*time.Millisecond))

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDoWithDataReturnsResult(t *testing.T) {
	attempts := 0
	got, err := retry.DoWithData(context.Background(), func(ctx context.Context) (int, error) {
		attempts++
		if attempts < 2 {
			return 0, retry.Retryable(errors.New("flaky"))
		}
		return 42, nil
	}, append(fastOpts(), retry.WithMaxAttempts(3))...)

	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 2, attempts)
}

func TestOnRetryCallbackObservesAttempts(t *testing.T) {
	var observed []int
	_ = retry.Do(context.Background(), func(ctx context.Context) error {
		return retry.Retryable(errors.New("flaky"))
	}, append(fastOpts(),
		retry.WithMaxAttempts(3),
		retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			observed = append(observed, attempt)
		}),
	)...)

	// No callback fires for the final attempt: there is nothing left to wait for.
	assert.Equal(t, []int{1, 2}, observed)
}
