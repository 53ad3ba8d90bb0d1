package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postrelay/internal/profile"
	pkgerrors "postrelay/pkg/errors"
)

func TestProfileRepository_Create(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false, false)

	repo := profile.NewRepository(infra.PostgresDB)

	p := createTestProfile(t, repo, 1001)
	assert.NotEmpty(t, p.ID)
	assert.False(t, p.CreatedAt.IsZero())
	assert.False(t, p.UpdatedAt.IsZero())
}

func TestProfileRepository_Create_DuplicateOwner(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false, false)

	repo := profile.NewRepository(infra.PostgresDB)
	ctx := context.Background()

	createTestProfile(t, repo, 1001)

	secret, err := profile.NewSecret()
	require.NoError(t, err)

	err = repo.Create(ctx, &profile.Profile{
		OwnerUserID:   1001,
		Secret:        secret,
		DefaultChatID: -500,
		Enabled:       true,
		RateLimitRPS:  27,
		DedupTTLSec:   3600,
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsConflict(err))
}

func TestProfileRepository_GetBySecret(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false, false)

	repo := profile.NewRepository(infra.PostgresDB)
	ctx := context.Background()

	p := createTestProfile(t, repo, 1001)

	retrieved, err := repo.GetBySecret(ctx, p.Secret)
	require.NoError(t, err)
	assert.Equal(t, p.ID, retrieved.ID)
	assert.Equal(t, p.OwnerUserID, retrieved.OwnerUserID)
	assert.Equal(t, p.DefaultChatID, retrieved.DefaultChatID)

	_, err = repo.GetBySecret(ctx, "does-not-exist")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestProfileRepository_GetByOwner(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false, false)

	repo := profile.NewRepository(infra.PostgresDB)
	ctx := context.Background()

	p := createTestProfile(t, repo, 424242)

	retrieved, err := repo.GetByOwner(ctx, 424242)
	require.NoError(t, err)
	assert.Equal(t, p.ID, retrieved.ID)
}

func TestProfileRepository_Update(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false, false)

	repo := profile.NewRepository(infra.PostgresDB)
	ctx := context.Background()

	p := createTestProfile(t, repo, 1001)

	topicID := int64(77)
	p.DefaultChatID = -9999
	p.DefaultTopicID = &topicID
	p.RateLimitRPS = 5
	require.NoError(t, repo.Update(ctx, p))

	retrieved, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(-9999), retrieved.DefaultChatID)
	require.NotNil(t, retrieved.DefaultTopicID)
	assert.Equal(t, int64(77), *retrieved.DefaultTopicID)
	assert.Equal(t, 5, retrieved.RateLimitRPS)
}

func TestProfileRepository_SetEnabled(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false, false)

	repo := profile.NewRepository(infra.PostgresDB)
	ctx := context.Background()

	p := createTestProfile(t, repo, 1001)

	require.NoError(t, repo.SetEnabled(ctx, p.ID, false))

	retrieved, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, retrieved.Enabled)

	err = repo.SetEnabled(ctx, "00000000-0000-0000-0000-000000000000", false)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestProfileRepository_RotateSecret(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false, false)

	repo := profile.NewRepository(infra.PostgresDB)
	ctx := context.Background()

	p := createTestProfile(t, repo, 1001)
	oldSecret := p.Secret

	newSecret, err := profile.NewSecret()
	require.NoError(t, err)
	require.NoError(t, repo.RotateSecret(ctx, p.ID, newSecret))

	_, err = repo.GetBySecret(ctx, oldSecret)
	assert.True(t, pkgerrors.IsNotFound(err))

	retrieved, err := repo.GetBySecret(ctx, newSecret)
	require.NoError(t, err)
	assert.Equal(t, p.ID, retrieved.ID)
}
