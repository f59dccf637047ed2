package common

import (
	"context"
	"time"

	"golang.org/x/exp/rand"
)

// Retry calls fn up to attempts times, sleeping a random delay below base<<attempt
// between calls (exponential backoff with full jitter). onRetry, when set, is told
// about each delay. The last error is returned if no call succeeds.
func Retry(ctx context.Context, attempts int, base time.Duration, fn func() error, onRetry func(attempt int, delay time.Duration)) error {
	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}

		if attempt == attempts-1 {
			break
		}

		delay := time.Duration(rand.Int63n(int64(base) << uint(attempt)))
		if onRetry != nil {
			onRetry(attempt, delay)
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return err
}
