package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errStore = errors.New("disk I/O error")

func frozenBreaker(config CircuitBreakerConfig) (*CircuitBreaker, *time.Time) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker("result_store", config)
	cb.now = func() time.Time { return now }
	return cb, &now
}

func failing() error { return errStore }

func succeeding() error { return nil }

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb, _ := frozenBreaker(CircuitBreakerConfig{FailureThreshold: 3, RecoveryTimeout: time.Minute, SuccessThreshold: 1})

	for i := 0; i < 2; i++ {
		assert.ErrorIs(t, cb.Call(failing, nil), errStore)
		assert.Equal(t, StateClosed, cb.State())
	}
	assert.ErrorIs(t, cb.Call(failing, nil), errStore)
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Call(func() error { called = true; return nil }, nil)
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called, "open circuit must not call through")
	assert.Equal(t, int64(1), cb.GetStats()["rejected_calls"])
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb, _ := frozenBreaker(CircuitBreakerConfig{FailureThreshold: 2})

	_ = cb.Call(failing, nil)
	require.NoError(t, cb.Call(succeeding, nil))
	_ = cb.Call(failing, nil)
	assert.Equal(t, StateClosed, cb.State(), "failures must be consecutive")
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb, now := frozenBreaker(CircuitBreakerConfig{FailureThreshold: 1, RecoveryTimeout: 30 * time.Second, SuccessThreshold: 2})

	_ = cb.Call(failing, nil)
	require.Equal(t, StateOpen, cb.State())

	*now = now.Add(29 * time.Second)
	assert.ErrorIs(t, cb.Call(succeeding, nil), ErrOpen)

	*now = now.Add(time.Second)
	require.NoError(t, cb.Call(succeeding, nil))
	assert.Equal(t, StateHalfOpen, cb.State())
	require.NoError(t, cb.Call(succeeding, nil))
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_FailedTrialReopens(t *testing.T) {
	cb, now := frozenBreaker(CircuitBreakerConfig{FailureThreshold: 3, RecoveryTimeout: time.Second, SuccessThreshold: 2})

	for i := 0; i < 3; i++ {
		_ = cb.Call(failing, nil)
	}
	*now = now.Add(time.Second)

	assert.ErrorIs(t, cb.Call(failing, nil), errStore)
	assert.Equal(t, StateOpen, cb.State())
	assert.ErrorIs(t, cb.Call(succeeding, nil), ErrOpen)
}

func TestCircuitBreaker_UncountedErrorsPassThrough(t *testing.T) {
	cb, _ := frozenBreaker(CircuitBreakerConfig{FailureThreshold: 1})
	errMissing := errors.New("no rows")
	notMissing := func(err error) bool { return !errors.Is(err, errMissing) }

	for i := 0; i < 5; i++ {
		assert.ErrorIs(t, cb.Call(func() error { return errMissing }, notMissing), errMissing)
	}
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, int64(0), cb.GetStats()["total_failures"])
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb, _ := frozenBreaker(CircuitBreakerConfig{FailureThreshold: 1})
	_ = cb.Call(failing, nil)
	require.Equal(t, StateOpen, cb.State())

	cb.Reset()
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, "closed", cb.GetStats()["state"])
}

func TestNewCircuitBreaker_Defaults(t *testing.T) {
	cb := NewCircuitBreaker("x", CircuitBreakerConfig{})
	assert.Equal(t, DefaultCircuitBreakerConfig(), cb.config)
}

func TestRetry(t *testing.T) {
	errBusy := errors.New("database is locked")
	isBusy := func(err error) bool { return errors.Is(err, errBusy) }
	config := RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, BackoffFactor: 2, Retryable: isBusy}

	t.Run("retries until success", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), config, func() error {
			calls++
			if calls < 3 {
				return errBusy
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), config, func() error { calls++; return errBusy })
		assert.ErrorIs(t, err, errBusy)
		assert.Equal(t, 3, calls)
	})

	t.Run("non-retryable error stops at once", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), config, func() error { calls++; return errStore })
		assert.ErrorIs(t, err, errStore)
		assert.Equal(t, 1, calls)
	})

	t.Run("nil predicate retries nothing", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), RetryConfig{MaxAttempts: 5}, func() error { calls++; return errBusy })
		assert.ErrorIs(t, err, errBusy)
		assert.Equal(t, 1, calls)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		calls := 0
		err := Retry(ctx, config, func() error { calls++; return nil })
		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, calls)
	})
}

func TestCalculateDelay(t *testing.T) {
	config := RetryConfig{InitialDelay: 10 * time.Millisecond, MaxDelay: 50 * time.Millisecond, BackoffFactor: 2}

	assert.Equal(t, 10*time.Millisecond, calculateDelay(config, 0))
	assert.Equal(t, 40*time.Millisecond, calculateDelay(config, 2))
	assert.Equal(t, 50*time.Millisecond, calculateDelay(config, 5), "capped")

	config.JitterEnabled = true
	d := calculateDelay(config, 0)
	assert.GreaterOrEqual(t, d, 10*time.Millisecond)
	assert.Less(t, d, 11*time.Millisecond)
}
