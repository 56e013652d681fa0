// Package resilience retries flaky provider calls. The card-transaction pull
// is the main consumer: one session fans out over hundreds of operating
// locations, and a single throttled response should not sink the batch.
package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// RetryConfig bounds the retry loop. Zero fields take the defaults.
type RetryConfig struct {
	// MaxAttempts counts the first try too; 1 disables retries.
	MaxAttempts int

	// InitialBackoff is the wait before the first retry; each further retry
	// scales it by Multiplier, capped at MaxBackoff.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64

	// JitterFraction spreads each wait by up to this fraction either way, so
	// concurrent pull workers that hit the same throttle do not retry in
	// lockstep.
	JitterFraction float64

	// OnRetry, when set, observes each retry before its wait.
	OnRetry func(attempt int, wait time.Duration, err error)
}

// DefaultRetryConfig is tuned to the provider pull paths: the first retry
// lands after about a second, which is past the throttle window of a 2 req/s
// budget, and three retries cover a short upstream outage without stalling
// the session.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    4,
		InitialBackoff: time.Second,
		MaxBackoff:     20 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.2,
	}
}

// DoVal runs fn until it succeeds, fails with a non-transient error, runs out
// of attempts, or ctx is done. The last error is returned as-is so callers
// keep the provider's wrapping.
func DoVal[T any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	cfg = withDefaults(cfg)

	var zero T
	for attempt := 1; ; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		if ctx.Err() != nil || !IsTransient(err) || attempt == cfg.MaxAttempts {
			return zero, err
		}

		wait := backoff(attempt, cfg)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, wait, err)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, err
		case <-timer.C:
		}
	}
}

func withDefaults(cfg RetryConfig) RetryConfig {
	def := DefaultRetryConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = def.InitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = def.MaxBackoff
	}
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = def.Multiplier
	}
	if cfg.JitterFraction < 0 {
		cfg.JitterFraction = 0
	}
	return cfg
}

// backoff computes the wait before retrying after the given 1-based attempt.
func backoff(attempt int, cfg RetryConfig) time.Duration {
	wait := float64(cfg.InitialBackoff) * math.Pow(cfg.Multiplier, float64(attempt-1))
	if wait > float64(cfg.MaxBackoff) {
		wait = float64(cfg.MaxBackoff)
	}
	if cfg.JitterFraction > 0 {
		wait += wait * cfg.JitterFraction * (2*rand.Float64() - 1)
	}
	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}

// RetryLogger returns an OnRetry hook that records the backoff under the
// provider's log fields.
func RetryLogger(service, op string) func(int, time.Duration, error) {
	return func(attempt int, wait time.Duration, err error) {
		zap.L().Warn("transient failure, backing off",
			zap.String("service", service),
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}
}
