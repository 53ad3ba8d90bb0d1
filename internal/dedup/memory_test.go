package dedup

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepositorySetNX(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := NewMemoryRepositoryWithClock(0, func() time.Time { return now })
	ctx := context.Background()

	first, err := repo.SetNX(ctx, "dedup:p1:tx-1", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	second, err := repo.SetNX(ctx, "dedup:p1:tx-1", 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, second)

	other, err := repo.SetNX(ctx, "dedup:p1:tx-2", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, other)
}

// Racing SetNX calls on one key must elect exactly one winner; the check and
// the record happen under the same lock.
func TestMemoryRepositorySetNXConcurrent(t *testing.T) {
	repo := NewMemoryRepository(0)
	ctx := context.Background()

	const workers = 50
	results := make(chan bool, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			first, err := repo.SetNX(ctx, "dedup:p1:tx-race", 1, time.Minute)
			assert.NoError(t, err)
			results <- first
		}()
	}
	wg.Wait()
	close(results)

	firsts := 0
	for first := range results {
		if first {
			firsts++
		}
	}
	assert.Equal(t, 1, firsts)

	size, err := repo.CacheSize(ctx, "dedup:p1:")
	require.NoError(t, err)
	assert.Equal(t, 1, size)
}

func TestMemoryRepositoryExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := NewMemoryRepositoryWithClock(0, func() time.Time { return now })
	ctx := context.Background()

	first, err := repo.SetNX(ctx, "dedup:p1:tx-1", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	now = now.Add(61 * time.Second)

	again, err := repo.SetNX(ctx, "dedup:p1:tx-1", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, again, "expired key should read as a first sighting")
}

func TestMemoryRepositoryPerProfileCeiling(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := NewMemoryRepositoryWithClock(2, func() time.Time { return now })
	ctx := context.Background()

	keys := []string{"dedup:p1:a", "dedup:p1:b", "dedup:p1:c"}
	for _, key := range keys {
		first, err := repo.SetNX(ctx, key, 1, time.Hour)
		require.NoError(t, err)
		assert.True(t, first)
		now = now.Add(time.Second)
	}

	size, err := repo.CacheSize(ctx, "dedup:p1:")
	require.NoError(t, err)
	assert.Equal(t, 2, size)

	// The oldest key was evicted, so it reads as new again.
	first, err := repo.SetNX(ctx, "dedup:p1:a", 1, time.Hour)
	require.NoError(t, err)
	assert.True(t, first)

	// The newest survivors are still tracked.
	dup, err := repo.SetNX(ctx, "dedup:p1:c", 1, time.Hour)
	require.NoError(t, err)
	assert.False(t, dup)
}

func TestMemoryRepositoryCeilingIsPerProfile(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := NewMemoryRepositoryWithClock(1, func() time.Time { return now })
	ctx := context.Background()

	_, err := repo.SetNX(ctx, "dedup:p1:a", 1, time.Hour)
	require.NoError(t, err)
	now = now.Add(time.Second)
	_, err = repo.SetNX(ctx, "dedup:p2:a", 1, time.Hour)
	require.NoError(t, err)

	// Each profile keeps its own key: p2's insert must not evict p1's.
	dup, err := repo.SetNX(ctx, "dedup:p1:a", 1, time.Hour)
	require.NoError(t, err)
	assert.False(t, dup)
}

func TestMemoryRepositoryCacheSizeSkipsExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := NewMemoryRepositoryWithClock(0, func() time.Time { return now })
	ctx := context.Background()

	_, err := repo.SetNX(ctx, "dedup:p1:a", 1, time.Minute)
	require.NoError(t, err)
	_, err = repo.SetNX(ctx, "dedup:p1:b", 1, time.Hour)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)

	size, err := repo.CacheSize(ctx, "dedup:")
	require.NoError(t, err)
	assert.Equal(t, 1, size)
}
