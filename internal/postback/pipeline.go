package postback

import (
	"context"
	"time"

	"github.com/google/uuid"

	"postrelay/internal/config"
	"postrelay/internal/constants"
	"postrelay/internal/logger"
	"postrelay/internal/profile"
	"postrelay/internal/routing"
	"postrelay/pkg/metrics"
	"postrelay/pkg/tracing"
)

// Collaborator contracts, narrowed so the pipeline stays testable with
// injected fakes.
type DedupChecker interface {
	SeenOrRecord(ctx context.Context, profileID, key string, ttl time.Duration) (bool, error)
}

type Admitter interface {
	Admit(profileID string, rps int) bool
}

type RouteSource interface {
	ListEnabled(ctx context.Context, profileID string) ([]routing.Route, error)
}

type Deliverer interface {
	Deliver(ctx context.Context, dest routing.Destination, ev Event) error
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, ev Event) error
}

// Pipeline composes normalize, dedup, rate limit, route and deliver into the
// fixed ingestion sequence. Dedup and limiter state is shared across all
// concurrent requests; everything else is per-event. A failure anywhere past
// authentication is contained to its own event record.
type Pipeline struct {
	dedup     DedupChecker
	limiter   Admitter
	routes    RouteSource
	events    EventStore
	deliverer Deliverer
	archiver  Archiver       // optional
	publisher EventPublisher // optional
	logger    logger.Logger

	persistTimeout  time.Duration
	deliveryTimeout time.Duration
	defaultTTL      time.Duration
	now             func() time.Time
}

type PipelineOptions struct {
	Dedup     DedupChecker
	Limiter   Admitter
	Routes    RouteSource
	Events    EventStore
	Deliverer Deliverer
	Archiver  Archiver
	Publisher EventPublisher
	Logger    logger.Logger
	Config    config.IngestConfig
	Now       func() time.Time
}

func NewPipeline(opts PipelineOptions) *Pipeline {
	persistTimeout := time.Duration(opts.Config.PersistTimeoutSeconds) * time.Second
	if persistTimeout <= 0 {
		persistTimeout = constants.DefaultPersistTimeout
	}
	deliveryTimeout := time.Duration(opts.Config.DeliveryTimeoutSeconds) * time.Second
	if deliveryTimeout <= 0 {
		deliveryTimeout = constants.DefaultDeliveryTimeout
	}
	defaultTTL := time.Duration(opts.Config.DefaultDedupTTLSec) * time.Second
	if defaultTTL <= 0 {
		defaultTTL = constants.DefaultDedupTTLSec * time.Second
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	log := opts.Logger
	if log == nil {
		log = logger.NopLogger()
	}

	return &Pipeline{
		dedup:           opts.Dedup,
		limiter:         opts.Limiter,
		routes:          opts.Routes,
		events:          opts.Events,
		deliverer:       opts.Deliverer,
		archiver:        opts.Archiver,
		publisher:       opts.Publisher,
		logger:          log,
		persistTimeout:  persistTimeout,
		deliveryTimeout: deliveryTimeout,
		defaultTTL:      defaultTTL,
		now:             now,
	}
}

// Process runs one authenticated, enabled-profile postback through the
// pipeline and returns the recorded event. The returned error is diagnostic
// only: every downstream outcome is already folded into the event record and
// the caller must still answer success.
func (p *Pipeline) Process(ctx context.Context, prof *profile.Profile, fields Fields) *Event {
	ctx, span := tracing.GetTracer("ingest-service").Start(ctx, "postback.process")
	defer span.End()

	start := p.now()

	ev := Normalize(fields)
	ev.ID = uuid.New().String()
	ev.ProfileID = prof.ID
	ev.CreatedAt = start

	p.archiveRaw(ctx, prof.ID, fields)

	p.decide(ctx, prof, &ev)

	p.persist(ctx, &ev)
	p.publish(ctx, ev)

	metrics.PostbacksTotal.WithLabelValues(string(ev.Outcome)).Inc()
	metrics.ObservePostbackDuration(p.now().Sub(start), string(ev.Outcome))

	return &ev
}

// decide walks the stateful gates in order: dedup first so a flood of true
// duplicates cannot drain the profile's admitted-request budget, then the
// rate limiter, then routing and delivery.
func (p *Pipeline) decide(ctx context.Context, prof *profile.Profile, ev *Event) {
	first, err := p.dedup.SeenOrRecord(ctx, prof.ID, ev.DedupKey, p.dedupTTL(prof))
	if err != nil {
		// Deny fallback: suppress rather than risk a double delivery.
		ev.Outcome = OutcomeDuplicate
		ev.Error = err.Error()
		p.logger.WarnwCtx(ctx, "Dedup check failed, suppressing event",
			"error", err,
			"event_id", ev.ID,
		)
		return
	}
	if !first {
		ev.Outcome = OutcomeDuplicate
		return
	}

	if !p.limiter.Admit(prof.ID, prof.RateLimitRPS) {
		ev.Outcome = OutcomeRateLimited
		return
	}

	dest := p.resolveDestination(ctx, prof, ev)

	deliveryCtx, cancel := context.WithTimeout(ctx, p.deliveryTimeout)
	defer cancel()

	if err := p.deliverer.Deliver(deliveryCtx, dest, *ev); err != nil {
		ev.Outcome = OutcomeDeliveryFailed
		ev.Error = err.Error()
		p.logger.WarnwCtx(ctx, "Delivery failed",
			"error", err,
			"event_id", ev.ID,
			"chat_id", dest.ChatID,
		)
		return
	}

	ev.Outcome = OutcomeDelivered
	ev.Processed = true
	ev.SentChatID = &dest.ChatID
	ev.SentTopicID = dest.TopicID
}

func (p *Pipeline) resolveDestination(ctx context.Context, prof *profile.Profile, ev *Event) routing.Destination {
	defaultDest := routing.Destination{
		ChatID:  prof.DefaultChatID,
		TopicID: prof.DefaultTopicID,
	}

	routes, err := p.routes.ListEnabled(ctx, prof.ID)
	if err != nil {
		// No route list means no overrides; the default destination still
		// lets the event through.
		p.logger.WarnwCtx(ctx, "Failed to load routes, using default destination",
			"error", err,
			"profile_id", prof.ID,
		)
		routes = nil
	}

	dest, matched := routing.Match(routes, routing.EventKey{
		CampaignID: ev.CampaignID,
		Source:     ev.Source,
		Status:     string(ev.Status),
		Country:    ev.Country,
	}, defaultDest)

	result := "default"
	if matched != nil {
		result = "route"
	}
	metrics.RouteMatchesTotal.WithLabelValues(result).Inc()

	return dest
}

func (p *Pipeline) dedupTTL(prof *profile.Profile) time.Duration {
	if prof.DedupTTLSec > 0 {
		return time.Duration(prof.DedupTTLSec) * time.Second
	}
	return p.defaultTTL
}

func (p *Pipeline) archiveRaw(ctx context.Context, profileID string, fields Fields) {
	if p.archiver == nil {
		return
	}
	archiveCtx, cancel := context.WithTimeout(ctx, p.persistTimeout)
	defer cancel()
	if err := p.archiver.ArchiveRaw(archiveCtx, profileID, fields); err != nil {
		p.logger.WarnwCtx(ctx, "Failed to archive raw postback",
			"error", err,
			"profile_id", profileID,
		)
	}
}

func (p *Pipeline) persist(ctx context.Context, ev *Event) {
	persistCtx, cancel := context.WithTimeout(ctx, p.persistTimeout)
	defer cancel()
	if err := p.events.Append(persistCtx, ev); err != nil {
		p.logger.ErrorwCtx(ctx, "Failed to append event record",
			"error", err,
			"event_id", ev.ID,
			"outcome", ev.Outcome,
		)
	}
}

func (p *Pipeline) publish(ctx context.Context, ev Event) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.PublishEvent(ctx, ev); err != nil {
		p.logger.WarnwCtx(ctx, "Failed to publish event to stream",
			"error", err,
			"event_id", ev.ID,
		)
	}
}
