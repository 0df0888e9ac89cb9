package ratelimiting_test

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/Amund211/staticstr/internal/ratelimiting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucketRateLimiter(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping test in short mode")
	}
	t.Parallel()

	rateLimiter, stop := ratelimiting.NewTokenBucketRateLimiter(1, 2)
	defer stop()

	assert.True(t, rateLimiter.Consume("worker2"))

	// Burst of 2
	assert.True(t, rateLimiter.Consume("worker1"))
	assert.True(t, rateLimiter.Consume("worker1"))
	assert.False(t, rateLimiter.Consume("worker1"))

	time.Sleep(1000 * time.Millisecond)
	runtime.Gosched()

	// Refill rate of 1
	assert.True(t, rateLimiter.Consume("worker1"))
	assert.False(t, rateLimiter.Consume("worker1"))

	// Burst of 2 - even after refill
	assert.True(t, rateLimiter.Consume("worker3"))
	assert.True(t, rateLimiter.Consume("worker3"))
	assert.False(t, rateLimiter.Consume("worker3"))

	assert.True(t, rateLimiter.Consume("worker2"))
	assert.True(t, rateLimiter.Consume("worker2"))
	assert.False(t, rateLimiter.Consume("worker2"))
}

func TestTokenBucketRateLimiterWait(t *testing.T) {
	t.Parallel()

	t.Run("burst does not block", func(t *testing.T) {
		t.Parallel()

		rateLimiter, stop := ratelimiting.NewTokenBucketRateLimiter(1, 3)
		defer stop()

		start := time.Now()
		for range 3 {
			require.NoError(t, rateLimiter.Wait(t.Context(), "worker"))
		}
		require.Less(t, time.Since(start), 500*time.Millisecond)
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		rateLimiter, stop := ratelimiting.NewTokenBucketRateLimiter(1, 1)
		defer stop()

		require.NoError(t, rateLimiter.Wait(t.Context(), "worker"))

		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		err := rateLimiter.Wait(ctx, "worker")
		require.Error(t, err)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestWorkerKey(t *testing.T) {
	t.Parallel()

	require.Equal(t, "worker: 3", ratelimiting.WorkerKey(3))
}
