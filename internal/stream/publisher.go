package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"postrelay/internal/config"
	"postrelay/internal/constants"
	"postrelay/internal/logger"
	"postrelay/internal/postback"
	"postrelay/pkg/metrics"
	"postrelay/pkg/retry"
	"postrelay/pkg/tracing"
)

// Publisher fans accepted canonical events out to the audit stream.
type Publisher interface {
	PublishEvent(ctx context.Context, ev postback.Event) error
	Close() error
}

// messageWriter is satisfied by *kafka.Writer and by test fakes.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
	topic  string
	policy retry.Policy
	logger logger.Logger
}

func NewKafkaPublisher(cfg config.KafkaConfig, log logger.Logger) *KafkaPublisher {
	topic := cfg.Topic
	if topic == "" {
		topic = constants.DefaultEventStreamTopic
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: constants.KafkaBatchTimeout,
		WriteTimeout: constants.KafkaWriteTimeout,
		Async:        false,
	}

	return newKafkaPublisher(w, topic, cfg.Retry, log)
}

func newKafkaPublisher(w messageWriter, topic string, retryCfg config.RetryConfig, log logger.Logger) *KafkaPublisher {
	policy := retry.DefaultPolicy()
	if retryCfg.MaxAttempts > 0 {
		policy.MaxAttempts = retryCfg.MaxAttempts
	}
	if retryCfg.InitialInterval > 0 {
		policy.InitialInterval = retryCfg.InitialInterval
	}
	if retryCfg.MaxInterval > 0 {
		policy.MaxInterval = retryCfg.MaxInterval
	}
	if retryCfg.Multiplier > 0 {
		policy.Multiplier = retryCfg.Multiplier
	}
	if retryCfg.MaxElapsedTime > 0 {
		policy.MaxElapsedTime = retryCfg.MaxElapsedTime
	}

	return &KafkaPublisher{
		writer: w,
		topic:  topic,
		policy: policy,
		logger: log,
	}
}

// PublishEvent writes the event as JSON keyed by profile id, so per-profile
// ordering survives partitioning. Transient write errors are retried with
// backoff; a final failure is reported to the caller but never blocks the
// ingestion pipeline.
func (p *KafkaPublisher) PublishEvent(ctx context.Context, ev postback.Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	headers := tracing.InjectTraceContext(ctx, []kafka.Header{})

	msg := kafka.Message{
		Topic:   p.topic,
		Key:     []byte(ev.ProfileID),
		Value:   body,
		Headers: headers,
		Time:    time.Now(),
	}

	err = retry.Do(ctx, p.policy, func() error {
		return p.writer.WriteMessages(ctx, msg)
	})
	if err != nil {
		metrics.EventStreamWritesTotal.WithLabelValues(p.topic, "error").Inc()
		p.logger.ErrorwCtx(ctx, "Failed to publish event to stream",
			"error", err,
			"topic", p.topic,
			"event_id", ev.ID,
		)
		return fmt.Errorf("failed to write stream message: %w", err)
	}

	metrics.EventStreamWritesTotal.WithLabelValues(p.topic, "success").Inc()
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
