package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func TestDoVal_RecoversFromThrottledPull(t *testing.T) {
	var calls int
	val, err := DoVal(context.Background(), fastRetry(3), func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", NewTransientError(errors.New("throttled"), 429)
		}
		return "card_revenue_amount", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "card_revenue_amount", val)
	assert.Equal(t, 2, calls)
}

func TestDoVal_PermanentErrorFailsFast(t *testing.T) {
	var calls int
	_, err := DoVal(context.Background(), fastRetry(3), func(context.Context) (int, error) {
		calls++
		return 0, errors.New("invalid api key")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls, "permanent failures get no second attempt")
}

func TestDoVal_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls int
	val, err := DoVal(context.Background(), fastRetry(3), func(context.Context) (int, error) {
		calls++
		return 42, NewTransientError(errors.New("upstream unavailable"), 503)
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Zero(t, val, "failed runs return the zero value")
}

func TestDoVal_StopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls int
	_, err := DoVal(ctx, fastRetry(5), func(context.Context) (int, error) {
		calls++
		if calls == 2 {
			cancel()
		}
		return 0, NewTransientError(errors.New("upstream unavailable"), 503)
	})
	require.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestDoVal_OnRetryReportsEachWait(t *testing.T) {
	cfg := fastRetry(3)
	var attempts []int
	var waits []time.Duration
	cfg.OnRetry = func(attempt int, wait time.Duration, _ error) {
		attempts = append(attempts, attempt)
		waits = append(waits, wait)
	}

	_, _ = DoVal(context.Background(), cfg, func(context.Context) (int, error) {
		return 0, NewTransientError(errors.New("upstream unavailable"), 502)
	})

	require.Equal(t, []int{1, 2}, attempts)
	for _, w := range waits {
		assert.Positive(t, w)
	}
}

func TestDoVal_ZeroConfigUsesDefaults(t *testing.T) {
	val, err := DoVal(context.Background(), RetryConfig{}, func(context.Context) (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", val)
}

func TestBackoff_DoublesUpToCap(t *testing.T) {
	cfg := withDefaults(RetryConfig{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     time.Second,
		Multiplier:     2.0,
	})
	cfg.JitterFraction = 0

	assert.Equal(t, 100*time.Millisecond, backoff(1, cfg))
	assert.Equal(t, 200*time.Millisecond, backoff(2, cfg))
	assert.Equal(t, 400*time.Millisecond, backoff(3, cfg))
	assert.Equal(t, time.Second, backoff(5, cfg), "wait never exceeds MaxBackoff")
}

func TestBackoff_JitterStaysInBand(t *testing.T) {
	cfg := withDefaults(RetryConfig{
		InitialBackoff: time.Second,
		JitterFraction: 0.5,
	})

	seen := map[time.Duration]bool{}
	for i := 0; i < 100; i++ {
		w := backoff(1, cfg)
		seen[w] = true
		assert.GreaterOrEqual(t, w, 500*time.Millisecond)
		assert.LessOrEqual(t, w, 1500*time.Millisecond)
	}
	assert.Greater(t, len(seen), 1, "jitter spreads the waits")
}

func TestRetryLogger_DoesNotPanic(t *testing.T) {
	RetryLogger("enigma", "graphql")(1, time.Second, errors.New("upstream unavailable"))
}
