package management

import (
	"context"
	"fmt"
	"strings"

	"postrelay/internal/config"
	"postrelay/internal/constants"
	"postrelay/internal/logger"
	"postrelay/internal/postback"
	"postrelay/internal/profile"
	"postrelay/internal/routing"
	pkgerrors "postrelay/pkg/errors"
)

type Service interface {
	CreateProfile(ctx context.Context, req CreateProfileRequest) (*profile.Profile, error)
	GetProfile(ctx context.Context, id string) (*profile.Profile, error)
	UpdateProfile(ctx context.Context, id string, req UpdateProfileRequest) (*profile.Profile, error)
	SetProfileEnabled(ctx context.Context, id string, enabled bool) error
	RotateProfileSecret(ctx context.Context, id string) (string, error)
	ListProfileEvents(ctx context.Context, profileID string, limit int) ([]postback.Event, error)

	CreateRoute(ctx context.Context, profileID string, req CreateRouteRequest) (*routing.Route, error)
	ListRoutes(ctx context.Context, profileID string) ([]routing.Route, error)
	UpdateRoute(ctx context.Context, id string, req UpdateRouteRequest) (*routing.Route, error)
	SetRouteEnabled(ctx context.Context, id string, enabled bool) error
	DeleteRoute(ctx context.Context, id string) error
}

type service struct {
	profiles profile.Repository
	routes   routing.Repository
	events   postback.EventStore
	cfg      config.IngestConfig
	logger   logger.Logger
}

func NewService(profiles profile.Repository, routes routing.Repository, events postback.EventStore, cfg config.IngestConfig, log logger.Logger) Service {
	return &service{
		profiles: profiles,
		routes:   routes,
		events:   events,
		cfg:      cfg,
		logger:   log,
	}
}

func (s *service) CreateProfile(ctx context.Context, req CreateProfileRequest) (*profile.Profile, error) {
	secret, err := profile.NewSecret()
	if err != nil {
		return nil, pkgerrors.ErrInternal.WithCause(err)
	}

	p := &profile.Profile{
		OwnerUserID:    req.OwnerUserID,
		Secret:         secret,
		DefaultChatID:  req.DefaultChatID,
		DefaultTopicID: req.DefaultTopicID,
		Enabled:        true,
		RateLimitRPS:   req.RateLimitRPS,
		DedupTTLSec:    req.DedupTTLSec,
	}
	s.applyProfileDefaults(p)

	if err := s.profiles.Create(ctx, p); err != nil {
		return nil, err
	}

	s.logger.InfowCtx(ctx, "Profile created",
		"profile_id", p.ID,
		"owner_user_id", p.OwnerUserID,
	)
	return p, nil
}

func (s *service) applyProfileDefaults(p *profile.Profile) {
	if p.RateLimitRPS <= 0 {
		p.RateLimitRPS = s.cfg.DefaultRateLimitRPS
	}
	if p.RateLimitRPS <= 0 {
		p.RateLimitRPS = constants.DefaultRateLimitRPS
	}
	if p.DedupTTLSec <= 0 {
		p.DedupTTLSec = s.cfg.DefaultDedupTTLSec
	}
	if p.DedupTTLSec <= 0 {
		p.DedupTTLSec = constants.DefaultDedupTTLSec
	}
}

func (s *service) GetProfile(ctx context.Context, id string) (*profile.Profile, error) {
	return s.profiles.Get(ctx, id)
}

func (s *service) UpdateProfile(ctx context.Context, id string, req UpdateProfileRequest) (*profile.Profile, error) {
	p, err := s.profiles.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.DefaultChatID != nil {
		p.DefaultChatID = *req.DefaultChatID
	}
	if req.DefaultTopicID != nil {
		p.DefaultTopicID = req.DefaultTopicID
	}
	if req.RateLimitRPS != nil {
		if *req.RateLimitRPS <= 0 {
			return nil, pkgerrors.ErrValidation.WithDetail("message", "rate_limit_rps must be positive")
		}
		p.RateLimitRPS = *req.RateLimitRPS
	}
	if req.DedupTTLSec != nil {
		if *req.DedupTTLSec <= 0 {
			return nil, pkgerrors.ErrValidation.WithDetail("message", "dedup_ttl_sec must be positive")
		}
		p.DedupTTLSec = *req.DedupTTLSec
	}

	if err := s.profiles.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) SetProfileEnabled(ctx context.Context, id string, enabled bool) error {
	if err := s.profiles.SetEnabled(ctx, id, enabled); err != nil {
		return err
	}
	s.logger.InfowCtx(ctx, "Profile enabled state changed",
		"profile_id", id,
		"enabled", enabled,
	)
	return nil
}

func (s *service) RotateProfileSecret(ctx context.Context, id string) (string, error) {
	secret, err := profile.NewSecret()
	if err != nil {
		return "", pkgerrors.ErrInternal.WithCause(err)
	}
	if err := s.profiles.RotateSecret(ctx, id, secret); err != nil {
		return "", err
	}
	s.logger.InfowCtx(ctx, "Profile secret rotated", "profile_id", id)
	return secret, nil
}

func (s *service) ListProfileEvents(ctx context.Context, profileID string, limit int) ([]postback.Event, error) {
	if _, err := s.profiles.Get(ctx, profileID); err != nil {
		return nil, err
	}
	return s.events.ListByProfile(ctx, profileID, limit)
}

func (s *service) CreateRoute(ctx context.Context, profileID string, req CreateRouteRequest) (*routing.Route, error) {
	if _, err := s.profiles.Get(ctx, profileID); err != nil {
		return nil, err
	}

	route := &routing.Route{
		ProfileID:  profileID,
		MatchBy:    routing.MatchBy(req.MatchBy),
		MatchValue: strings.TrimSpace(req.MatchValue),
		Statuses:   normalizeStatusSet(req.Statuses),
		Countries:  req.Countries,
		ChatID:     req.ChatID,
		TopicID:    req.TopicID,
		Priority:   req.Priority,
		Enabled:    true,
	}
	if req.Enabled != nil {
		route.Enabled = *req.Enabled
	}

	if err := validateRoute(route); err != nil {
		return nil, err
	}

	if err := s.routes.Create(ctx, route); err != nil {
		return nil, err
	}
	return route, nil
}

func (s *service) ListRoutes(ctx context.Context, profileID string) ([]routing.Route, error) {
	if _, err := s.profiles.Get(ctx, profileID); err != nil {
		return nil, err
	}
	return s.routes.ListByProfile(ctx, profileID)
}

func (s *service) UpdateRoute(ctx context.Context, id string, req UpdateRouteRequest) (*routing.Route, error) {
	route, err := s.routes.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	route.MatchBy = routing.MatchBy(req.MatchBy)
	route.MatchValue = strings.TrimSpace(req.MatchValue)
	route.Statuses = normalizeStatusSet(req.Statuses)
	route.Countries = req.Countries
	route.ChatID = req.ChatID
	route.TopicID = req.TopicID
	route.Priority = req.Priority
	if req.Enabled != nil {
		route.Enabled = *req.Enabled
	}

	if err := validateRoute(route); err != nil {
		return nil, err
	}

	if err := s.routes.Update(ctx, route); err != nil {
		return nil, err
	}
	return route, nil
}

func (s *service) SetRouteEnabled(ctx context.Context, id string, enabled bool) error {
	return s.routes.SetEnabled(ctx, id, enabled)
}

func (s *service) DeleteRoute(ctx context.Context, id string) error {
	return s.routes.Delete(ctx, id)
}

func validateRoute(route *routing.Route) error {
	if !route.MatchBy.Valid() {
		return pkgerrors.ErrValidation.WithDetail("message",
			fmt.Sprintf("match_by must be one of: %s, %s, %s",
				routing.MatchByCampaignID, routing.MatchBySource, routing.MatchByAny))
	}
	if route.MatchBy != routing.MatchByAny && route.MatchValue == "" {
		return pkgerrors.ErrValidation.WithDetail("message",
			fmt.Sprintf("match_value is required for match_by=%s", route.MatchBy))
	}
	for _, status := range route.Statuses {
		if !postback.ValidStatus(status) {
			return pkgerrors.ErrValidation.WithDetail("message",
				fmt.Sprintf("unknown status '%s' in statuses filter", status))
		}
	}
	return nil
}

func normalizeStatusSet(statuses []string) []string {
	normalized := make([]string, 0, len(statuses))
	for _, status := range statuses {
		normalized = append(normalized, strings.ToLower(strings.TrimSpace(status)))
	}
	if len(normalized) == 0 {
		return nil
	}
	return normalized
}
