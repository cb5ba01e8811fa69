package circuitbreaker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rashid-RG/gemini-lms-sub003/pkg/circuitbreaker"
)

var errDown = errors.New("model unavailable")

func failing(ctx context.Context) error { return errDown }
func succeeding(ctx context.Context) error { return nil }

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	ctx := context.Background()
	cb := circuitbreaker.New("test", circuitbreaker.WithFailureThreshold(3))

	for i := 0; i < 3; i++ {
		require.ErrorIs(t, cb.Execute(ctx, failing), errDown)
	}
	assert.True(t, cb.IsOpen())

	// Requests are now shed without invoking the protected call.
	called := false
	err := cb.Execute(ctx, func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, circuitbreaker.ErrCircuitOpen)
	assert.False(t, called)
}

func TestBreakerSuccessResetsFailureStreak(t *testing.T) {
	ctx := context.Background()
	cb := circuitbreaker.New("test", circuitbreaker.WithFailureThreshold(3))

	require.Error(t, cb.Execute(ctx, failing))
	require.Error(t, cb.Execute(ctx, failing))
	require.NoError(t, cb.Execute(ctx, succeeding))
	require.Error(t, cb.Execute(ctx, failing))
	require.Error(t, cb.Execute(ctx, failing))

	assert.True(t, cb.IsClosed())
}

func TestBreakerRecoversThroughHalfOpen(t *testing.T) {
	ctx := context.Background()

	var transitions []string
	cb := circuitbreaker.New("test",
		circuitbreaker.WithFailureThreshold(1),
		circuitbreaker.WithSuccessThreshold(2),
		circuitbreaker.WithTimeout(10*time.Millisecond),
		circuitbreaker.WithMaxHalfOpenRequests(2),
		circuitbreaker.WithOnStateChange(func(name string, from, to circuitbreaker.State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		}),
	)

	require.Error(t, cb.Execute(ctx, failing))
	require.True(t, cb.IsOpen())

	time.Sleep(15 * time.Millisecond)

	// Two probe successes close the circuit again.
	require.NoError(t, cb.Execute(ctx, succeeding))
	require.NoError(t, cb.Execute(ctx, succeeding))
	assert.True(t, cb.IsClosed())

	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, transitions)
}

func TestBreakerReopensOnHalfOpenFailure(t *testing.T) {
	ctx := context.Background()
	cb := circuitbreaker.New("test",
		circuitbreaker.WithFailureThreshold(1),
		circuitbreaker.WithTimeout(10*time.Millisecond),
	)

	require.Error(t, cb.Execute(ctx, failing))
	time.Sleep(15 * time.Millisecond)

	require.ErrorIs(t, cb.Execute(ctx, failing), errDown)
	assert.True(t, cb.IsOpen())
}

func TestBreakerLimitsHalfOpenProbes(t *testing.T) {
	ctx := context.Background()
	cb := circuitbreaker.New("test",
		circuitbreaker.WithFailureThreshold(1),
		circuitbreaker.WithSuccessThreshold(5),
		circuitbreaker.WithTimeout(10*time.Millisecond),
		circuitbreaker.WithMaxHalfOpenRequests(1),
	)

	require.Error(t, cb.Execute(ctx, failing))
	time.Sleep(15 * time.Millisecond)

	// First probe is admitted and blocks the slot; the second is shed.
	slow := make(chan struct{})
	go func() {
		_ = cb.Execute(ctx, func(ctx context.Context) error {
			<-slow
			return nil
		})
	}()

	require.Eventually(t, func() bool {
		return cb.State() == circuitbreaker.StateHalfOpen
	}, time.Second, time.Millisecond)

	err := cb.Execute(ctx, succeeding)
	assert.ErrorIs(t, err, circuitbreaker.ErrTooManyRequests)
	close(slow)
}

func TestExecuteWithFallback(t *testing.T) {
	ctx := context.Background()
	cb := circuitbreaker.New("test", circuitbreaker.WithFailureThreshold(1))

	require.Error(t, cb.Execute(ctx, failing))
	require.True(t, cb.IsOpen())

	err := cb.ExecuteWithFallback(ctx, failing, func(cause error) error {
		assert.ErrorIs(t, cause, circuitbreaker.ErrCircuitOpen)
		return nil
	})
	assert.NoError(t, err)
}

func TestBreakerHonorsIsFailure(t *testing.T) {
	ctx := context.Background()
	benign := errors.New("not found")
	cb := circuitbreaker.New("test",
		circuitbreaker.WithFailureThreshold(1),
		circuitbreaker.WithIsFailure(func(err error) bool { return !errors.Is(err, benign) }),
	)

	// A benign error passes through without tripping the breaker.
	require.ErrorIs(t, cb.Execute(ctx, func(ctx context.Context) error { return benign }), benign)
	assert.True(t, cb.IsClosed())
}
