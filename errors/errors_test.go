package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestErrorClass_String(t *testing.T) {
	tests := []struct {
		class    ErrorClass
		expected string
	}{
		{ErrorTransient, "transient"},
		{ErrorInvalid, "invalid"},
		{ErrorFatal, "fatal"},
		{ErrorClass(999), "unknown"},
	}

	for _, test := range tests {
		t.Run(test.expected, func(t *testing.T) {
			result := test.class.String()
			if result != test.expected {
				t.Errorf("expected %s, got %s", test.expected, result)
			}
		})
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"rate limit exceeded", ErrRateLimitExceeded, true},
		{"context deadline exceeded", context.DeadlineExceeded, true},
		{"context canceled", context.Canceled, true},
		{"invalid key", ErrInvalidKey, false},
		{"backend not found", ErrBackendNotFound, false},
		{"capacity exceeded", ErrCapacityExceeded, false},
		{"timeout in message", fmt.Errorf("operation timeout occurred"), true},
		{"network error", fmt.Errorf("network connection failed"), true},
		{"classified transient", &ClassifiedError{Class: ErrorTransient, Err: fmt.Errorf("test")}, true},
		{"classified fatal", &ClassifiedError{Class: ErrorFatal, Err: fmt.Errorf("test")}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := IsTransient(test.err)
			if result != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, result, test.err)
			}
		})
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"backend not found", ErrBackendNotFound, true},
		{"resolver not found", ErrResolverNotFound, true},
		{"manager not found", ErrManagerNotFound, true},
		{"capacity exceeded", ErrCapacityExceeded, true},
		{"invalid config", ErrInvalidConfig, true},
		{"missing property", ErrMissingProperty, true},
		{"rate limit exceeded", ErrRateLimitExceeded, false},
		{"invalid key", ErrInvalidKey, false},
		{"fatal in message", fmt.Errorf("fatal system error occurred"), true},
		{"panic in message", fmt.Errorf("panic: system failure"), true},
		{"classified fatal", &ClassifiedError{Class: ErrorFatal, Err: fmt.Errorf("test")}, true},
		{"classified transient", &ClassifiedError{Class: ErrorTransient, Err: fmt.Errorf("test")}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := IsFatal(test.err)
			if result != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, result, test.err)
			}
		})
	}
}

func TestIsInvalid(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"invalid key", ErrInvalidKey, true},
		{"key not found", ErrKeyNotFound, true},
		{"invalid limit", ErrInvalidLimit, true},
		{"invalid window", ErrInvalidWindow, true},
		{"invalid identifier", ErrInvalidIdentifier, true},
		{"unknown policy", ErrUnknownPolicy, true},
		{"duplicate backend", ErrDuplicateBackend, true},
		{"backend not found", ErrBackendNotFound, false},
		{"classified invalid", &ClassifiedError{Class: ErrorInvalid, Err: fmt.Errorf("test")}, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := IsInvalid(test.err)
			if result != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, result, test.err)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorClass
	}{
		{"nil error", nil, ErrorTransient},
		{"rate limited", ErrRateLimitExceeded, ErrorTransient},
		{"backend not found", ErrBackendNotFound, ErrorFatal},
		{"invalid key", ErrInvalidKey, ErrorInvalid},
		{"unknown error", fmt.Errorf("something odd"), ErrorTransient},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := Classify(test.err)
			if result != test.expected {
				t.Errorf("expected %v, got %v", test.expected, result)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	base := fmt.Errorf("boom")
	wrapped := Wrap(base, "MemoryStore", "Put", "capacity check")

	if wrapped == nil {
		t.Fatal("expected non-nil wrapped error")
	}
	expected := "MemoryStore.Put: capacity check failed: boom"
	if wrapped.Error() != expected {
		t.Errorf("expected %q, got %q", expected, wrapped.Error())
	}
	if !errors.Is(wrapped, base) {
		t.Error("wrapped error should match base via errors.Is")
	}
	if Wrap(nil, "a", "b", "c") != nil {
		t.Error("wrapping nil should return nil")
	}
}

func TestWrapClassified(t *testing.T) {
	base := ErrCapacityExceeded

	transient := WrapTransient(base, "MemoryStore", "Put", "insert")
	invalid := WrapInvalid(base, "MemoryStore", "Put", "insert")
	fatal := WrapFatal(base, "MemoryStore", "Put", "insert")

	if !IsTransient(transient) {
		t.Error("WrapTransient result should classify as transient")
	}
	if !IsInvalid(invalid) {
		t.Error("WrapInvalid result should classify as invalid")
	}
	if !IsFatal(fatal) {
		t.Error("WrapFatal result should classify as fatal")
	}

	// The sentinel survives the classification wrapper.
	for _, err := range []error{transient, invalid, fatal} {
		if !errors.Is(err, ErrCapacityExceeded) {
			t.Errorf("sentinel lost through wrapping: %v", err)
		}
		if !strings.Contains(err.Error(), "MemoryStore.Put") {
			t.Errorf("component context missing: %v", err)
		}
	}

	if WrapTransient(nil, "a", "b", "c") != nil {
		t.Error("wrapping nil should return nil")
	}
}

func TestRetryConfig_ShouldRetry(t *testing.T) {
	cfg := DefaultRetryConfig()

	if cfg.ShouldRetry(nil, 0) {
		t.Error("nil error should not retry")
	}
	if cfg.ShouldRetry(ErrRateLimitExceeded, cfg.MaxRetries) {
		t.Error("should not retry past MaxRetries")
	}
	if !cfg.ShouldRetry(ErrRateLimitExceeded, 0) {
		t.Error("transient error should retry")
	}
	if cfg.ShouldRetry(ErrInvalidKey, 0) {
		t.Error("invalid error should not retry")
	}

	// Restricted retryable set.
	cfg.RetryableErrors = []error{ErrRateLimitExceeded}
	if !cfg.ShouldRetry(ErrRateLimitExceeded, 0) {
		t.Error("listed error should retry")
	}
	if cfg.ShouldRetry(fmt.Errorf("temporary outage"), 0) {
		t.Error("unlisted error should not retry when list is set")
	}
}

func TestRetryConfig_ToRetryConfig(t *testing.T) {
	rc := RetryConfig{
		MaxRetries:    2,
		InitialDelay:  10 * time.Millisecond,
		MaxDelay:      time.Second,
		BackoffFactor: 3.0,
	}

	cfg := rc.ToRetryConfig()
	if cfg.MaxAttempts != 3 {
		t.Errorf("expected 3 total attempts, got %d", cfg.MaxAttempts)
	}
	if cfg.InitialDelay != rc.InitialDelay || cfg.MaxDelay != rc.MaxDelay {
		t.Error("delays should carry over unchanged")
	}
	if cfg.Multiplier != rc.BackoffFactor {
		t.Error("multiplier should carry over unchanged")
	}
	if !cfg.AddJitter {
		t.Error("jitter should be enabled by default")
	}
}
