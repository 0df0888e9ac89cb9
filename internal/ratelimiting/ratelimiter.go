package ratelimiting

import (
	"context"
	"fmt"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/time/rate"
)

// RateLimiter hands out tokens from one bucket per key.
type RateLimiter interface {
	// Consume takes a token if one is available
	Consume(key string) bool
	// Wait blocks until a token is available or ctx is done
	Wait(ctx context.Context, key string) error
}

type tokenBucketRateLimiter struct {
	limiterByKey    *ttlcache.Cache[string, *rate.Limiter]
	refillPerSecond int
	burstSize       int
}

func (rateLimiter *tokenBucketRateLimiter) limiter(key string) *rate.Limiter {
	if item := rateLimiter.limiterByKey.Get(key); item != nil {
		return item.Value()
	}
	item, _ := rateLimiter.limiterByKey.GetOrSet(key, rate.NewLimiter(rate.Limit(rateLimiter.refillPerSecond), rateLimiter.burstSize))
	return item.Value()
}

func (rateLimiter *tokenBucketRateLimiter) Consume(key string) bool {
	return rateLimiter.limiter(key).Allow()
}

func (rateLimiter *tokenBucketRateLimiter) Wait(ctx context.Context, key string) error {
	err := rateLimiter.limiter(key).Wait(ctx)
	if err != nil {
		return fmt.Errorf("failed to wait for token for %s: %w", key, err)
	}
	return nil
}

type RefillPerSecond int
type BurstSize int

// NewTokenBucketRateLimiter returns the limiter and a function stopping the
// expiry of idle buckets.
func NewTokenBucketRateLimiter(refillPerSecond RefillPerSecond, burstSize BurstSize) (RateLimiter, func()) {
	limiterTTLCache := ttlcache.New[string, *rate.Limiter](
		ttlcache.WithTTL[string, *rate.Limiter](30 * time.Minute),
	)
	go limiterTTLCache.Start()

	return &tokenBucketRateLimiter{
		limiterByKey:    limiterTTLCache,
		refillPerSecond: int(refillPerSecond),
		burstSize:       int(burstSize),
	}, limiterTTLCache.Stop
}

// WorkerKey names the bucket of one workload worker.
func WorkerKey(worker int) string {
	return fmt.Sprintf("worker: %d", worker)
}
