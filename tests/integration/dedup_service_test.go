package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postrelay/internal/dedup"
)

func TestDedupService_FirstSightingThenDuplicate(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, false, false, true)

	repo := dedup.NewRedisRepository(infra.RedisClient)
	svc := dedup.NewService(repo, createTestDeduplicationConfig(), createTestLogger())
	defer svc.StopCacheMetricsUpdater()

	ctx := context.Background()

	first, err := svc.SeenOrRecord(ctx, "profile-1", "tx-100", time.Hour)
	require.NoError(t, err)
	assert.True(t, first)

	first, err = svc.SeenOrRecord(ctx, "profile-1", "tx-100", time.Hour)
	require.NoError(t, err)
	assert.False(t, first)
}

func TestDedupService_KeysAreProfileScoped(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, false, false, true)

	repo := dedup.NewRedisRepository(infra.RedisClient)
	svc := dedup.NewService(repo, createTestDeduplicationConfig(), createTestLogger())
	defer svc.StopCacheMetricsUpdater()

	ctx := context.Background()

	first, err := svc.SeenOrRecord(ctx, "profile-1", "tx-100", time.Hour)
	require.NoError(t, err)
	assert.True(t, first)

	first, err = svc.SeenOrRecord(ctx, "profile-2", "tx-100", time.Hour)
	require.NoError(t, err)
	assert.True(t, first, "same key under another profile is a first sighting")
}

func TestDedupService_WindowExpiry(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, false, false, true)

	repo := dedup.NewRedisRepository(infra.RedisClient)
	svc := dedup.NewService(repo, createTestDeduplicationConfig(), createTestLogger())
	defer svc.StopCacheMetricsUpdater()

	ctx := context.Background()

	first, err := svc.SeenOrRecord(ctx, "profile-1", "tx-200", time.Second)
	require.NoError(t, err)
	assert.True(t, first)

	time.Sleep(1500 * time.Millisecond)

	first, err = svc.SeenOrRecord(ctx, "profile-1", "tx-200", time.Second)
	require.NoError(t, err)
	assert.True(t, first, "key is eligible again after the window lapses")
}

func TestDedupService_CacheSize(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, false, false, true)

	repo := dedup.NewRedisRepository(infra.RedisClient)
	ctx := context.Background()

	for _, key := range []string{"dedup:profile-1:a", "dedup:profile-1:b", "dedup:profile-2:c"} {
		_, err := repo.SetNX(ctx, key, 1, time.Hour)
		require.NoError(t, err)
	}

	size, err := repo.CacheSize(ctx, "dedup:")
	require.NoError(t, err)
	assert.Equal(t, 3, size)
}
