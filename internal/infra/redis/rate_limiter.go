package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter decides whether one more request under key fits in the window.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

var (
	_ Limiter = (*RateLimiter)(nil)
	_ Limiter = (*LocalRateLimiter)(nil)
)

// RateLimiter is a fixed-window counter shared by every instance through Redis.
type RateLimiter struct {
	client RedisClient
}

func NewRateLimiter(client RedisClient) *RateLimiter {
	return &RateLimiter{client: client}
}

func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := r.client.Incr(ctx, key)
	if err != nil {
		return false, err
	}

	if count == 1 {
		err = r.client.Expire(ctx, key, window)
		if err != nil {
			return false, err
		}
	}

	if count > int64(limit) {
		return false, nil
	}

	return true, nil
}

// LocalRateLimiter is the single-process fallback used when Redis is not
// configured. Each key gets a token bucket refilled at limit per window.
// A bucket idle for a whole window is full again, so it is dropped and
// recreated on demand; the map never holds more than maxKeys buckets.
type LocalRateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*localBucket
	maxKeys   int
	lastSweep time.Time
	now       func() time.Time
}

type localBucket struct {
	lim    *rate.Limiter
	window time.Duration
	seen   time.Time
}

const (
	defaultLocalMaxKeys = 10000
	localSweepEvery     = time.Minute
)

func NewLocalRateLimiter() *LocalRateLimiter {
	return &LocalRateLimiter{
		buckets: make(map[string]*localBucket),
		maxKeys: defaultLocalMaxKeys,
		now:     time.Now,
	}
}

func (l *LocalRateLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 || window <= 0 {
		return true, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if now.Sub(l.lastSweep) >= localSweepEvery {
		l.sweep(now)
	}
	b, ok := l.buckets[key]
	if !ok {
		if len(l.buckets) >= l.maxKeys {
			l.sweep(now)
			if len(l.buckets) >= l.maxKeys {
				l.evictOldest()
			}
		}
		b = &localBucket{lim: rate.NewLimiter(rate.Every(window/time.Duration(limit)), limit), window: window}
		l.buckets[key] = b
	}
	b.seen = now
	return b.lim.AllowN(now, 1), nil
}

// Len reports how many buckets are held.
func (l *LocalRateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// sweep drops buckets idle for at least their window. Caller holds mu.
func (l *LocalRateLimiter) sweep(now time.Time) {
	for k, b := range l.buckets {
		if now.Sub(b.seen) >= b.window {
			delete(l.buckets, k)
		}
	}
	l.lastSweep = now
}

// evictOldest drops the least recently used bucket. Caller holds mu.
func (l *LocalRateLimiter) evictOldest() {
	var (
		oldestKey string
		oldest    time.Time
	)
	for k, b := range l.buckets {
		if oldestKey == "" || b.seen.Before(oldest) {
			oldestKey, oldest = k, b.seen
		}
	}
	delete(l.buckets, oldestKey)
}

func RequestKey(subject, route string) string {
	return fmt.Sprintf("rate_limit:%s:%s", subject, route)
}
