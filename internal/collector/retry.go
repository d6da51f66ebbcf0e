package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net"
	"time"

	"google.golang.org/api/googleapi"
)

// RetryConfig controls the bounded retry applied to transient errors.
// Sleep is injectable so tests run without real delays.
type RetryConfig struct {
	MaxRetries  int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
	Sleep       func(ctx context.Context, d time.Duration) error
}

// DefaultRetryConfig is suitable for YouTube Data API calls.
var DefaultRetryConfig = RetryConfig{
	MaxRetries:  3,
	InitialWait: 500 * time.Millisecond,
	MaxWait:     10 * time.Second,
	Multiplier:  2.0,
}

func (rc RetryConfig) wait(attempt int) time.Duration {
	d := time.Duration(float64(rc.InitialWait) * math.Pow(rc.Multiplier, float64(attempt)))
	if d > rc.MaxWait {
		d = rc.MaxWait
	}
	return d
}

func (rc RetryConfig) sleep(ctx context.Context, d time.Duration) error {
	if rc.Sleep != nil {
		return rc.Sleep(ctx, d)
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// isQuotaError reports whether err is a rate/quota exhaustion response
// for the credential used, recoverable by rotating to another key.
func isQuotaError(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == 403 || gerr.Code == 429
	}
	return false
}

// isTransient reports whether err is worth retrying on the same key.
func isTransient(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case 500, 502, 503, 504:
			return true
		}
		return false
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

// executeWithRetry runs call with at most one key attempt per key in
// the pool. A quota-class error rotates to the next key; a transient
// error retries the same key with backoff, bounded by rc; any other
// error propagates immediately.
func executeWithRetry[T any](ctx context.Context, pool *KeyPool, rc RetryConfig, logger *slog.Logger, call func(ctx context.Context, apiKey string) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for i := 0; i < pool.Size(); i++ {
		key := pool.Next()
		result, err := callWithBackoff(ctx, key, rc, logger, call)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if isQuotaError(err) {
			logger.Warn("quota exhausted, rotating API key", "error", err)
			continue
		}
		return zero, err
	}
	return zero, fmt.Errorf("all %d API keys exhausted: %w", pool.Size(), lastErr)
}

// callWithBackoff retries call on the same key for transient errors.
// Quota and permanent errors return without retrying.
func callWithBackoff[T any](ctx context.Context, key string, rc RetryConfig, logger *slog.Logger, call func(ctx context.Context, apiKey string) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= rc.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		result, err := call(ctx, key)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if isQuotaError(err) || !isTransient(err) {
			return zero, err
		}
		if attempt < rc.MaxRetries {
			wait := rc.wait(attempt)
			logger.Debug("transient API error, retrying", "attempt", attempt+1, "wait", wait, "error", err)
			if err := rc.sleep(ctx, wait); err != nil {
				return zero, err
			}
		}
	}
	return zero, lastErr
}
