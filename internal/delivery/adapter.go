package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"postrelay/internal/config"
	"postrelay/internal/postback"
	"postrelay/internal/routing"
	"postrelay/pkg/circuitbreaker"
	"postrelay/pkg/metrics"
)

// Adapter renders the canonical event and hands the text to the sink behind
// a circuit breaker. Any failure is terminal for the event.
type Adapter struct {
	sink Sink
	cb   *circuitbreaker.Wrapper
}

func NewAdapter(sink Sink, cfg config.CircuitBreakerConfig) *Adapter {
	a := &Adapter{sink: sink}

	if cfg.Enabled {
		cbConfig := circuitbreaker.DefaultConfig("telegram-sink")
		if cfg.MaxRequests > 0 {
			cbConfig.MaxRequests = cfg.MaxRequests
		}
		if cfg.Interval > 0 {
			cbConfig.Interval = cfg.Interval
		}
		if cfg.Timeout > 0 {
			cbConfig.Timeout = cfg.Timeout
		}
		if cfg.FailureRatio > 0 && cfg.MinRequests > 0 {
			cbConfig.ReadyToTrip = func(counts gobreaker.Counts) bool {
				if counts.Requests < uint32(cfg.MinRequests) {
					return false
				}
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return failureRatio >= cfg.FailureRatio
			}
		}
		a.cb = circuitbreaker.NewWrapper(cbConfig)
	}

	return a
}

// Deliver renders ev and sends it to dest. The passed context must already
// carry the pipeline's delivery timeout.
func (a *Adapter) Deliver(ctx context.Context, dest routing.Destination, ev postback.Event) error {
	return a.send(ctx, dest, Render(ev))
}

func (a *Adapter) send(ctx context.Context, dest routing.Destination, text string) error {
	start := time.Now()
	err := a.execute(ctx, dest, text)
	duration := time.Since(start)

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DeliveriesTotal.WithLabelValues(status).Inc()
	metrics.ObserveDeliveryDuration(duration, status)

	return err
}

func (a *Adapter) execute(ctx context.Context, dest routing.Destination, text string) error {
	if a.cb == nil {
		return a.sink.SendMessage(ctx, dest, text)
	}

	_, err := a.cb.ExecuteWithContext(ctx, func() (interface{}, error) {
		return nil, a.sink.SendMessage(ctx, dest, text)
	})
	a.cb.RecordRequest(err == nil)

	if err != nil && a.cb.IsOpen() {
		return fmt.Errorf("circuit breaker is open for telegram-sink: %w", err)
	}
	return err
}
