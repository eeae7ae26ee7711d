package utils

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"time"
)

// RetryConfig holds the configuration for the retry mechanism.
type RetryConfig struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffFactor   float64
	Timeout         time.Duration
	RetryableErrors []string
}

// RetryableFunc defines the signature for operations that can be retried.
type RetryableFunc[T any] func(ctx context.Context) (T, error)

// StartupRetryConfig suits connecting to backing services (Postgres, Redis)
// that may still be starting when the process comes up.
func StartupRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   6,
		InitialDelay:  500 * time.Millisecond,
		MaxDelay:      8 * time.Second,
		BackoffFactor: 2.0,
		Timeout:       10 * time.Second,
		RetryableErrors: []string{
			"connection refused",
			"connection reset",
			"no such host",
			"i/o timeout",
			"timeout",
			"the database system is starting up",
			"loading the dataset in memory", // redis LOADING
			"eof",
		},
	}
}

// IsRetryableError checks if err is transient: an attempt deadline, or a
// message matching one of patterns.
func IsRetryableError(err error, patterns []string) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	errMsg := strings.ToLower(err.Error())
	for _, pattern := range patterns {
		if strings.Contains(errMsg, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

// WithRetry executes operation until it succeeds, fails with a permanent
// error, or runs out of attempts. Each attempt gets its own Timeout.
func WithRetry[T any](ctx context.Context, name string, operation RetryableFunc[T], config RetryConfig) (T, error) {
	var lastErr error
	var zero T

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, config.Timeout)
		result, err := operation(attemptCtx)
		cancel()

		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == config.MaxAttempts || ctx.Err() != nil || !IsRetryableError(err, config.RetryableErrors) {
			break
		}

		delay := backoff(config, attempt)
		slog.WarnContext(ctx, "Operation failed, retrying",
			"operation", name,
			"attempt", attempt,
			"max_attempts", config.MaxAttempts,
			"delay", delay,
			"error", err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}

	return zero, lastErr
}

// backoff is InitialDelay * BackoffFactor^(attempt-1), capped at MaxDelay,
// plus up to 10% jitter.
func backoff(config RetryConfig, attempt int) time.Duration {
	delay := time.Duration(float64(config.InitialDelay) * math.Pow(config.BackoffFactor, float64(attempt-1)))
	if config.MaxDelay > 0 && delay > config.MaxDelay {
		delay = config.MaxDelay
	}
	if jitterRange := int64(delay) / 10; jitterRange > 0 {
		delay += time.Duration(rand.Int63n(jitterRange))
	}
	return delay
}
