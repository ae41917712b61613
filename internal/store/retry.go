// Package store decorates raw database operations with bounded
// exponential-backoff retry. Only transient network failures are retried;
// everything else (constraint violations, not-found, validation) surfaces
// immediately.
package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"strings"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Default retry policy: 3 attempts total, 1s initial delay, doubling between
// attempts, no jitter.
const (
	DefaultMaxAttempts   = 3
	DefaultInitialDelay  = time.Second
	DefaultBackoffFactor = 2.0
)

// transientMarkers are substrings of error messages produced by the drivers
// and the net stack for retryable connectivity failures.
var transientMarkers = []string{
	"fetch failed",
	"network error",
	"connection refused",
	"connection reset",
	"broken pipe",
	"i/o timeout",
	"invalid connection",
	"bad connection",
	"try again",
}

// IsTransient classifies an error as a retryable network failure.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}

	return false
}

// WithRetry invokes op under the default retry policy.
func WithRetry[T any](ctx context.Context, op func() (T, error)) (T, error) {
	return WithRetryPolicy(ctx, op, DefaultMaxAttempts, DefaultInitialDelay, DefaultBackoffFactor)
}

// WithRetryPolicy invokes op, retrying transient failures up to maxAttempts
// total invocations, waiting initialDelay * factor^attempt between attempts.
// Non-transient failures are returned without retry; after the attempt budget
// is exhausted the last failure is returned.
func WithRetryPolicy[T any](ctx context.Context, op func() (T, error), maxAttempts int, initialDelay time.Duration, factor float64) (T, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initialDelay
	bo.Multiplier = factor
	bo.RandomizationFactor = 0 // no jitter
	bo.MaxInterval = initialDelay * time.Duration(1<<uint(maxAttempts))
	bo.MaxElapsedTime = 0

	wrapped := func() (T, error) {
		v, err := op()
		if err != nil && !IsTransient(err) {
			var zero T
			return zero, backoff.Permanent(err)
		}
		return v, err
	}

	if maxAttempts < 1 {
		maxAttempts = 1
	}

	return backoff.RetryWithData(wrapped,
		backoff.WithContext(backoff.WithMaxRetries(bo, uint64(maxAttempts-1)), ctx))
}
