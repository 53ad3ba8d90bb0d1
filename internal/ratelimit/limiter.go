package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"postrelay/internal/constants"
	"postrelay/pkg/metrics"
)

type bucket struct {
	limiter  *rate.Limiter
	rps      int
	lastSeen time.Time
}

// Limiter keeps one token bucket per profile. Buckets are created lazily on
// first use, refill from the injected clock rather than a background timer,
// and are evicted after prolonged inactivity.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time

	defaultRPS int
	idleAfter  time.Duration

	stopOnce sync.Once
	stop     chan struct{}
}

func NewLimiter(defaultRPS int) *Limiter {
	return NewLimiterWithClock(defaultRPS, time.Now)
}

func NewLimiterWithClock(defaultRPS int, now func() time.Time) *Limiter {
	if defaultRPS <= 0 {
		defaultRPS = constants.DefaultRateLimitRPS
	}
	l := &Limiter{
		buckets:    make(map[string]*bucket),
		now:        now,
		defaultRPS: defaultRPS,
		idleAfter:  10 * time.Minute,
		stop:       make(chan struct{}),
	}
	go l.evictionLoop()
	return l
}

// Admit reports whether one event for the profile fits its per-second ceiling
// right now. rps <= 0 selects the configured default ceiling. Changing a
// profile's ceiling replaces its bucket on the next call.
func (l *Limiter) Admit(profileID string, rps int) bool {
	if rps <= 0 {
		rps = l.defaultRPS
	}

	l.mu.Lock()
	b, ok := l.buckets[profileID]
	if !ok || b.rps != rps {
		// Bucket capacity equals the per-second ceiling: a same-instant
		// burst admits at most rps events.
		b = &bucket{
			limiter: rate.NewLimiter(rate.Limit(rps), rps),
			rps:     rps,
		}
		l.buckets[profileID] = b
	}
	b.lastSeen = l.now()
	l.mu.Unlock()

	allowed := b.limiter.AllowN(l.now(), 1)

	status := "limited"
	if allowed {
		status = "allowed"
	}
	metrics.RateLimitDecisionsTotal.WithLabelValues(status).Inc()
	return allowed
}

func (l *Limiter) evictionLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.evictIdle()
		case <-l.stop:
			return
		}
	}
}

func (l *Limiter) evictIdle() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.idleAfter)
	for profileID, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, profileID)
		}
	}
	metrics.SetRateLimitActiveBuckets(len(l.buckets))
}

func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}
