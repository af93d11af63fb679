package guard

import (
	"context"
	"log/slog"

	"github.com/c360/guardrail/key"
)

// OperationKind identifies which store operation a backend error came from,
// so handlers can treat reads and writes differently.
type OperationKind string

const (
	OpGet   OperationKind = "get"
	OpPut   OperationKind = "put"
	OpEvict OperationKind = "evict"
	OpClear OperationKind = "clear"
)

// CacheErrorHandler decides what a backend operation failure does to the
// pipeline. Returning nil swallows the failure and the pipeline moves on to
// the next backend; returning an error aborts the whole guarded call.
// A failing backend never prevents its siblings in the same step from being
// attempted first.
type CacheErrorHandler interface {
	Handle(ctx context.Context, kind OperationKind, store string, k key.Key, err error) error
}

// LoggingErrorHandler swallows backend failures after logging them. This is
// the default: a broken cache degrades to a cache miss, it does not break
// the protected call.
type LoggingErrorHandler struct {
	logger *slog.Logger
}

// NewLoggingErrorHandler creates the swallow-and-log handler. A nil logger
// falls back to slog.Default.
func NewLoggingErrorHandler(logger *slog.Logger) *LoggingErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingErrorHandler{logger: logger}
}

func (h *LoggingErrorHandler) Handle(_ context.Context, kind OperationKind, store string, k key.Key, err error) error {
	h.logger.Warn("cache backend operation failed",
		"operation", string(kind),
		"store", store,
		"key", k.String(),
		"error", err)
	return nil
}

// StrictErrorHandler rethrows every backend failure, aborting the guarded
// call. Use it when a stale or unprotected call is worse than a failed one.
type StrictErrorHandler struct{}

func (StrictErrorHandler) Handle(_ context.Context, _ OperationKind, _ string, _ key.Key, err error) error {
	return err
}
