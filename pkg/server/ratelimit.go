// Copyright 2025 Certen Protocol
//
// Request rate limiting for the REST surface. MemoryLimiter is a
// per-process token bucket, grounded on the teacher's
// pkg/server/bundle_handlers.go RateLimiter. RedisLimiter backs the same
// Allow contract with a shared counter so multiple aig-server replicas
// enforce one limit, using INCR+EXPIRE the way a fixed-window limiter is
// conventionally built on Redis.

package server

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter decides whether the caller identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// MemoryLimiter is an in-process token bucket limiter, one bucket per
// key, refilled continuously at ratePerMinute.
type MemoryLimiter struct {
	mu         sync.Mutex
	buckets    map[string]*tokenBucket
	ratePerMin int
}

type tokenBucket struct {
	tokens    float64
	lastFill  time.Time
	maxTokens float64
}

func NewMemoryLimiter(ratePerMinute int) *MemoryLimiter {
	return &MemoryLimiter{
		buckets:    make(map[string]*tokenBucket),
		ratePerMin: ratePerMinute,
	}
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &tokenBucket{tokens: float64(l.ratePerMin), maxTokens: float64(l.ratePerMin), lastFill: time.Now()}
		l.buckets[key] = b
	}

	elapsed := time.Since(b.lastFill)
	b.tokens = minFloat(b.tokens+elapsed.Minutes()*float64(l.ratePerMin), b.maxTokens)
	b.lastFill = time.Now()

	if b.tokens < 1 {
		return false, nil
	}
	b.tokens--
	return true, nil
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// RedisLimiter is a fixed-window limiter shared across replicas: each
// key gets a counter that expires at the window boundary.
type RedisLimiter struct {
	client        *redis.Client
	ratePerWindow int
	window        time.Duration
}

func NewRedisLimiter(client *redis.Client, ratePerWindow int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, ratePerWindow: ratePerWindow, window: window}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := "aig:ratelimit:" + key
	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		l.client.Expire(ctx, redisKey, l.window)
	}
	return count <= int64(l.ratePerWindow), nil
}
