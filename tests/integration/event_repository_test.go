package integration

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postrelay/internal/postback"
	"postrelay/internal/profile"
)

func TestEventRepository_AppendAndList(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false, false)

	profiles := profile.NewRepository(infra.PostgresDB)
	events := postback.NewEventStore(infra.PostgresDB)
	ctx := context.Background()

	p := createTestProfile(t, profiles, 1001)

	chatID := int64(-1000)
	ev := &postback.Event{
		ProfileID:  p.ID,
		DedupKey:   "tx-1",
		Status:     postback.StatusDeposit,
		RawStatus:  "sale",
		Revenue:    postback.Amount{Valid: true, Value: 49.99},
		Currency:   "USD",
		Country:    "DE",
		Outcome:    postback.OutcomeDelivered,
		Processed:  true,
		SentChatID: &chatID,
	}
	require.NoError(t, events.Append(ctx, ev))
	assert.NotEmpty(t, ev.ID)
	assert.False(t, ev.CreatedAt.IsZero())

	list, err := events.ListByProfile(ctx, p.ID, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)

	got := list[0]
	assert.Equal(t, ev.ID, got.ID)
	assert.Equal(t, postback.StatusDeposit, got.Status)
	assert.Equal(t, "sale", got.RawStatus)
	require.True(t, got.Revenue.Valid)
	assert.InDelta(t, 49.99, got.Revenue.Value, 0.001)
	assert.False(t, got.Payout.Valid)
	assert.Equal(t, postback.OutcomeDelivered, got.Outcome)
	assert.True(t, got.Processed)
	require.NotNil(t, got.SentChatID)
	assert.Equal(t, int64(-1000), *got.SentChatID)
	assert.Empty(t, got.Error)
}

func TestEventRepository_ListNewestFirst(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false, false)

	profiles := profile.NewRepository(infra.PostgresDB)
	events := postback.NewEventStore(infra.PostgresDB)
	ctx := context.Background()

	p := createTestProfile(t, profiles, 1001)

	for i := 0; i < 5; i++ {
		ev := &postback.Event{
			ProfileID: p.ID,
			DedupKey:  fmt.Sprintf("tx-%d", i),
			Status:    postback.StatusRegistration,
			Outcome:   postback.OutcomeDelivered,
			Processed: true,
		}
		require.NoError(t, events.Append(ctx, ev))
	}

	list, err := events.ListByProfile(ctx, p.ID, 3)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "tx-4", list[0].DedupKey)
}

func TestEventRepository_SuppressedOutcomeRoundTrip(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false, false)

	profiles := profile.NewRepository(infra.PostgresDB)
	events := postback.NewEventStore(infra.PostgresDB)
	ctx := context.Background()

	p := createTestProfile(t, profiles, 1001)

	ev := &postback.Event{
		ProfileID:         p.ID,
		DedupKey:          "abcdef0123456789abcdef0123456789",
		DedupKeyGenerated: true,
		Status:            postback.StatusUnknown,
		RawStatus:         "weird",
		Outcome:           postback.OutcomeDeliveryFailed,
		Error:             "telegram api error 400: chat not found",
	}
	require.NoError(t, events.Append(ctx, ev))

	list, err := events.ListByProfile(ctx, p.ID, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].DedupKeyGenerated)
	assert.False(t, list[0].Processed)
	assert.Equal(t, "telegram api error 400: chat not found", list[0].Error)
}
