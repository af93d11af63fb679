package notify

import (
	"context"
	"log/slog"
)

// SlogSink logs notifications through a structured logger. Hit/miss/allowed
// events log at debug, state-changing events at info, denials at warn.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink creates a logging sink. A nil logger falls back to the default
// slog logger.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger}
}

// OnCacheEvent logs a cache notification.
func (s *SlogSink) OnCacheEvent(ctx context.Context, ev CacheEvent) {
	attrs := []any{
		"store", ev.Store,
		"key", ev.Key,
	}
	if ev.Kind == CacheClear {
		attrs = append(attrs, "count", ev.Count)
	}
	switch ev.Kind {
	case CacheHit, CacheMiss:
		s.logger.DebugContext(ctx, "cache "+string(ev.Kind), attrs...)
	default:
		s.logger.InfoContext(ctx, "cache "+string(ev.Kind), attrs...)
	}
}

// OnLimitEvent logs a rate-limit notification.
func (s *SlogSink) OnLimitEvent(ctx context.Context, ev LimitEvent) {
	attrs := []any{
		"store", ev.Store,
		"identifier", ev.Identifier,
		"count", ev.CurrentCount,
		"limit", ev.Limit,
	}
	switch ev.Kind {
	case LimitDenied:
		s.logger.WarnContext(ctx, "rate limit denied", attrs...)
	case LimitAllowed:
		s.logger.DebugContext(ctx, "rate limit allowed", attrs...)
	default:
		s.logger.InfoContext(ctx, "rate limit "+string(ev.Kind), attrs...)
	}
}
