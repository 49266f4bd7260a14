package rdapbootstrap

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const memorySweepEvery = time.Minute

type memoryLimiter struct {
	mu        sync.Mutex
	now       func() time.Time
	buckets   map[string]*memBucket
	lastSweep time.Time
}

type memBucket struct {
	lim      *rate.Limiter
	window   time.Duration
	lastSeen time.Time
}

// NewMemoryLimiter returns a process-local Limiter.
func NewMemoryLimiter() Limiter {
	return newMemoryLimiter()
}

func newMemoryLimiter() *memoryLimiter {
	return &memoryLimiter{
		now:     time.Now,
		buckets: make(map[string]*memBucket),
	}
}

func (l *memoryLimiter) Allow(_ context.Context, identity string, p Policy) (Decision, error) {
	if !p.enabled() {
		return Decision{Allowed: true}, nil
	}
	key := p.bucketKey(identity)
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.buckets[key]
	if b == nil {
		b = &memBucket{lim: rate.NewLimiter(rate.Limit(p.perSecond()), p.Limit), window: p.Window}
		l.buckets[key] = b
	}
	b.lastSeen = now
	l.sweepLocked(now)

	if b.lim.AllowN(now, 1) {
		return Decision{Allowed: true}, nil
	}
	missing := 1 - b.lim.TokensAt(now)
	retry := time.Duration(missing / p.perSecond() * float64(time.Second))
	return Decision{Allowed: false, RetryAfter: retry}, nil
}

// sweepLocked drops buckets idle for a whole window; they would be full
// again anyway.
func (l *memoryLimiter) sweepLocked(now time.Time) {
	if now.Sub(l.lastSweep) < memorySweepEvery {
		return
	}
	l.lastSweep = now
	for k, b := range l.buckets {
		if now.Sub(b.lastSeen) >= b.window {
			delete(l.buckets, k)
		}
	}
}

func (l *memoryLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
