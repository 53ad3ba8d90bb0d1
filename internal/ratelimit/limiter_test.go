package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLimiter(t *testing.T, defaultRPS int, start time.Time) (*Limiter, *time.Time) {
	t.Helper()
	now := start
	l := NewLimiterWithClock(defaultRPS, func() time.Time { return now })
	t.Cleanup(l.Stop)
	return l, &now
}

func TestAdmitWithinCeiling(t *testing.T) {
	l, _ := newTestLimiter(t, 10, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	rps := 2
	admitted := 0
	for i := 0; i < rps+5; i++ {
		if l.Admit("p1", rps) {
			admitted++
		}
	}
	assert.Equal(t, rps, admitted, "a same-instant burst admits exactly the ceiling")
}

func TestAdmitRefillsOverTime(t *testing.T) {
	l, now := newTestLimiter(t, 10, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	assert.True(t, l.Admit("p1", 1))
	assert.False(t, l.Admit("p1", 1))

	*now = now.Add(time.Second)
	assert.True(t, l.Admit("p1", 1), "one token refills after one second at 1 rps")
	assert.False(t, l.Admit("p1", 1))
}

func TestAdmitBucketsAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(t, 10, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	assert.True(t, l.Admit("p1", 1))
	assert.False(t, l.Admit("p1", 1))

	// Exhausting p1 must not touch p2's budget.
	assert.True(t, l.Admit("p2", 1))
}

func TestAdmitDefaultCeiling(t *testing.T) {
	l, _ := newTestLimiter(t, 3, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	admitted := 0
	for i := 0; i < 10; i++ {
		if l.Admit("p1", 0) {
			admitted++
		}
	}
	assert.Equal(t, 3, admitted)
}

func TestAdmitCeilingChangeReplacesBucket(t *testing.T) {
	l, _ := newTestLimiter(t, 10, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	assert.True(t, l.Admit("p1", 1))
	assert.False(t, l.Admit("p1", 1))

	// A raised ceiling takes effect immediately with a fresh bucket.
	assert.True(t, l.Admit("p1", 5))
}

func TestEvictIdleBuckets(t *testing.T) {
	l, now := newTestLimiter(t, 10, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	l.Admit("p1", 1)
	assert.Len(t, l.buckets, 1)

	*now = now.Add(11 * time.Minute)
	l.evictIdle()
	assert.Empty(t, l.buckets)
}
