package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/c360/guardrail/retry"
)

// NATSSink publishes notifications as JSON to NATS subjects so external
// consumers can observe store activity in real time. Subjects follow
// "<prefix>.cache.<store>.<kind>" and "<prefix>.limit.<store>.<kind>".
//
// Publishing is best-effort: failures are retried briefly, then logged
// locally and dropped. A sink with a nil connection is inert.
type NATSSink struct {
	nc      *nats.Conn
	prefix  string
	logger  *slog.Logger
	retries retry.Config
	enabled bool
}

// NewNATSSink creates a NATS-backed notification sink. The prefix defaults
// to "guardrail" when empty.
func NewNATSSink(nc *nats.Conn, prefix string, logger *slog.Logger) *NATSSink {
	if prefix == "" {
		prefix = "guardrail"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NATSSink{
		nc:     nc,
		prefix: prefix,
		logger: logger,
		retries: retry.Config{
			MaxAttempts:  3,
			InitialDelay: 10 * time.Millisecond,
			MaxDelay:     100 * time.Millisecond,
			Multiplier:   2.0,
			AddJitter:    true,
		},
		enabled: nc != nil,
	}
}

// OnCacheEvent publishes a cache notification.
func (s *NATSSink) OnCacheEvent(ctx context.Context, ev CacheEvent) {
	subject := fmt.Sprintf("%s.cache.%s.%s", s.prefix, ev.Store, ev.Kind)
	s.publish(ctx, subject, ev)
}

// OnLimitEvent publishes a rate-limit notification.
func (s *NATSSink) OnLimitEvent(ctx context.Context, ev LimitEvent) {
	subject := fmt.Sprintf("%s.limit.%s.%s", s.prefix, ev.Store, ev.Kind)
	s.publish(ctx, subject, ev)
}

func (s *NATSSink) publish(ctx context.Context, subject string, payload any) {
	if !s.enabled {
		return
	}

	// Check context before any I/O.
	select {
	case <-ctx.Done():
		return
	default:
	}

	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("failed to marshal notification", "error", err, "subject", subject)
		return
	}

	nc := s.nc
	if nc == nil {
		return
	}

	err = retry.Do(ctx, s.retries, func() error {
		return nc.Publish(subject, data)
	})
	if err != nil {
		s.logger.Error("failed to publish notification", "error", err, "subject", subject)
	}
}
