package integration

import (
	"context"
	"testing"

	"postrelay/internal/config"
	"postrelay/internal/constants"
	"postrelay/internal/logger"
	"postrelay/internal/profile"
	"postrelay/internal/routing"
)

const (
	containerStartupTimeout = 60
)

func createTestLogger() logger.Logger {
	return logger.NopLogger()
}

func createTestDeduplicationConfig() config.DeduplicationConfig {
	return config.DeduplicationConfig{
		Backend:      "redis",
		OnRedisError: constants.FallbackAllow,
	}
}

func createTestProfile(t *testing.T, repo profile.Repository, ownerUserID int64) *profile.Profile {
	t.Helper()

	secret, err := profile.NewSecret()
	if err != nil {
		t.Fatalf("failed to generate secret: %v", err)
	}

	p := &profile.Profile{
		OwnerUserID:   ownerUserID,
		Secret:        secret,
		DefaultChatID: -1000 - ownerUserID,
		Enabled:       true,
		RateLimitRPS:  27,
		DedupTTLSec:   3600,
	}
	if err := repo.Create(context.Background(), p); err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}
	return p
}

func createTestRoute(t *testing.T, repo routing.Repository, profileID string, matchBy routing.MatchBy, matchValue string, priority int) *routing.Route {
	t.Helper()

	chatID := int64(-2000 - int64(priority))
	route := &routing.Route{
		ProfileID:  profileID,
		MatchBy:    matchBy,
		MatchValue: matchValue,
		ChatID:     &chatID,
		Priority:   priority,
		Enabled:    true,
	}
	if err := repo.Create(context.Background(), route); err != nil {
		t.Fatalf("failed to create route: %v", err)
	}
	return route
}
