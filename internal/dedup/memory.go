package dedup

import (
	"context"
	"strings"
	"sync"
	"time"
)

type memoryEntry struct {
	expiresAt  time.Time
	recordedAt time.Time
}

// MemoryRepository is an in-process alternative to redis for single-instance
// deployments and tests. Entries expire lazily on access; each profile bucket
// is capped and evicts its oldest keys once the ceiling is exceeded.
type MemoryRepository struct {
	mu           sync.Mutex
	entries      map[string]memoryEntry
	maxPerWindow int
	now          func() time.Time
}

func NewMemoryRepository(maxKeysPerProfile int) *MemoryRepository {
	return NewMemoryRepositoryWithClock(maxKeysPerProfile, time.Now)
}

func NewMemoryRepositoryWithClock(maxKeysPerProfile int, now func() time.Time) *MemoryRepository {
	return &MemoryRepository{
		entries:      make(map[string]memoryEntry),
		maxPerWindow: maxKeysPerProfile,
		now:          now,
	}
}

func (m *MemoryRepository) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if entry, ok := m.entries[key]; ok {
		if now.Before(entry.expiresAt) {
			return false, nil
		}
		delete(m.entries, key)
	}

	m.entries[key] = memoryEntry{
		expiresAt:  now.Add(ttl),
		recordedAt: now,
	}
	m.evictOverflow(bucketPrefix(key), now)
	return true, nil
}

func (m *MemoryRepository) CacheSize(ctx context.Context, prefix string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	count := 0
	for key, entry := range m.entries {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if now.Before(entry.expiresAt) {
			count++
		}
	}
	return count, nil
}

// evictOverflow drops expired keys in the bucket first, then the oldest live
// keys until the bucket fits under the ceiling. Caller holds the lock.
func (m *MemoryRepository) evictOverflow(bucket string, now time.Time) {
	if m.maxPerWindow <= 0 {
		return
	}

	type liveKey struct {
		key        string
		recordedAt time.Time
	}
	var live []liveKey
	for key, entry := range m.entries {
		if !strings.HasPrefix(key, bucket) {
			continue
		}
		if !now.Before(entry.expiresAt) {
			delete(m.entries, key)
			continue
		}
		live = append(live, liveKey{key: key, recordedAt: entry.recordedAt})
	}

	for len(live) > m.maxPerWindow {
		oldest := 0
		for i := 1; i < len(live); i++ {
			if live[i].recordedAt.Before(live[oldest].recordedAt) {
				oldest = i
			}
		}
		delete(m.entries, live[oldest].key)
		live[oldest] = live[len(live)-1]
		live = live[:len(live)-1]
	}
}

// bucketPrefix isolates the "<prefix><profile_id>:" portion of a cache key so
// the per-profile ceiling applies independently per profile.
func bucketPrefix(key string) string {
	idx := strings.LastIndex(key, ":")
	if idx < 0 {
		return key
	}
	return key[:idx+1]
}
