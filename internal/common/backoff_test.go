package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetry(t *testing.T) {
	boom := errors.New("boom")

	t.Run("succeeds after failures", func(t *testing.T) {
		calls := 0
		var delays []time.Duration
		err := Retry(context.Background(), 5, time.Millisecond, func() error {
			calls++
			if calls < 3 {
				return boom
			}
			return nil
		}, func(attempt int, delay time.Duration) {
			assert.Less(t, delay, time.Millisecond<<uint(attempt))
			delays = append(delays, delay)
		})

		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
		assert.Len(t, delays, 2)
	})

	t.Run("gives up", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), 3, time.Millisecond, func() error {
			calls++
			return boom
		}, nil)

		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := Retry(ctx, 5, time.Hour, func() error { return boom }, nil)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
