package dedup

import (
	"context"
	"fmt"
	"time"

	"postrelay/internal/config"
	"postrelay/internal/constants"
	"postrelay/internal/logger"
	"postrelay/pkg/metrics"
	"postrelay/pkg/tracing"
)

type redisErrorHandlingStatus int

const (
	redisErrorHandlingDeny redisErrorHandlingStatus = iota
	redisErrorHandlingAllow
)

// Service answers "seen before?" per profile with TTL expiry. The
// check-and-record is a single atomic repository operation, so two concurrent
// requests for the same key can never both be told "first sighting".
type Service struct {
	repo             Repository
	cfg              config.DeduplicationConfig
	logger           logger.Logger
	stopCacheMetrics chan struct{}
	cancelMetricsCtx context.CancelFunc
}

func NewService(repo Repository, cfg config.DeduplicationConfig, log logger.Logger) *Service {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Service{
		repo:             repo,
		cfg:              cfg,
		logger:           log,
		stopCacheMetrics: make(chan struct{}),
		cancelMetricsCtx: cancel,
	}

	go s.updateCacheSizeMetrics(ctx)

	return s
}

// SeenOrRecord atomically records the key for the profile and reports whether
// this call was the first sighting within ttl.
func (s *Service) SeenOrRecord(ctx context.Context, profileID, key string, ttl time.Duration) (bool, error) {
	ctx, span := tracing.GetTracer("ingest-service").Start(ctx, "dedup.seen_or_record")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return false, err
	}

	cacheKey := constants.CacheKeyPrefixDedup + profileID + ":" + key
	start := time.Now()
	first, err := s.repo.SetNX(ctx, cacheKey, time.Now().Unix(), ttl)
	duration := time.Since(start)

	if err != nil {
		return s.handleRedisError(ctx, err, duration, key)
	}

	s.recordMetrics(duration, first)
	return first, nil
}

func (s *Service) handleRedisError(ctx context.Context, err error, duration time.Duration, key string) (bool, error) {
	s.recordMetricsWithStatus(duration, "error")

	if s.getRedisErrorHandlingStatus(ctx, err) == redisErrorHandlingAllow {
		return true, nil
	}
	return false, fmt.Errorf("redis error during dedup check for key %s: %w", key, err)
}

func (s *Service) getRedisErrorHandlingStatus(ctx context.Context, err error) redisErrorHandlingStatus {
	if s.cfg.OnRedisError == constants.FallbackAllow {
		metrics.FallbackUsageTotal.WithLabelValues("dedup", "allow_on_error", err.Error()).Inc()
		s.logger.WarnwCtx(ctx, "Redis error during dedup check, treating as first sighting (fallback: allow)",
			"error", err,
		)
		return redisErrorHandlingAllow
	}

	metrics.FallbackUsageTotal.WithLabelValues("dedup", "deny_on_error", err.Error()).Inc()
	return redisErrorHandlingDeny
}

func (s *Service) recordMetrics(duration time.Duration, first bool) {
	status := "duplicate"
	if first {
		status = "unique"
	}
	s.recordMetricsWithStatus(duration, status)
}

func (s *Service) recordMetricsWithStatus(duration time.Duration, status string) {
	metrics.DedupChecksTotal.WithLabelValues(status).Inc()
	metrics.ObserveDedupDuration(duration, status)
}

// updateCacheSizeMetrics periodically refreshes the tracked-key gauge.
func (s *Service) updateCacheSizeMetrics(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			size, err := s.repo.CacheSize(ctx, constants.CacheKeyPrefixDedup)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				s.logger.Debugw("Failed to get cache size for metrics",
					"error", err,
				)
				continue
			}
			metrics.SetDedupCacheSize(size)
		case <-s.stopCacheMetrics:
			return
		case <-ctx.Done():
			return
		}
	}
}

// StopCacheMetricsUpdater stops the background cache metrics goroutine.
func (s *Service) StopCacheMetricsUpdater() {
	if s.cancelMetricsCtx != nil {
		s.cancelMetricsCtx()
	}
	close(s.stopCacheMetrics)
}
