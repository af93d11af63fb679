package config

import (
	"fmt"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/c360/guardrail/errors"
)

// Property names recognized by FromSource. Hosts supply them through any
// Source implementation (environment, static map, layered chain).
const (
	PropDefaultTTL       = "cache.default_ttl"
	PropEvictionPolicy   = "cache.eviction_policy"
	PropMaxEntries       = "cache.max_entries"
	PropDefaultBackend   = "engine.default_backend"
	PropAutoCreate       = "engine.auto_create_backends"
	PropFailIfNotFound   = "engine.fail_if_not_found"
	PropNotifications    = "engine.notifications_enabled"
	PropMetrics          = "engine.metrics_enabled"
	PropRollbackRetries  = "engine.rollback_retries"
	PropRollbackInterval = "engine.rollback_retry_interval"
)

// Settings holds the static engine configuration: cache defaults, backend
// auto-creation behavior, and observability toggles.
type Settings struct {
	// DefaultTTL applies to cache entries written without an explicit TTL.
	// Zero means entries never expire.
	DefaultTTL time.Duration `mapstructure:"default_ttl"`

	// EvictionPolicy names the policy for auto-created cache backends:
	// "fifo", "lru", "lfu", or "" for none.
	EvictionPolicy string `mapstructure:"eviction_policy"`

	// MaxEntries bounds auto-created cache backends. Zero means unbounded.
	MaxEntries int `mapstructure:"max_entries"`

	// DefaultBackend is the backend name used when an operation spec
	// declares no backends of its own.
	DefaultBackend string `mapstructure:"default_backend"`

	// AutoCreateBackends makes managers create an in-memory backend for
	// unknown names instead of failing resolution.
	AutoCreateBackends bool `mapstructure:"auto_create_backends"`

	// FailIfNotFound makes resolution of an unknown backend a hard error.
	// Ignored when AutoCreateBackends is set.
	FailIfNotFound bool `mapstructure:"fail_if_not_found"`

	// NotificationsEnabled gates event emission to the configured sink.
	NotificationsEnabled bool `mapstructure:"notifications_enabled"`

	// MetricsEnabled gates Prometheus metric registration for stores.
	MetricsEnabled bool `mapstructure:"metrics_enabled"`

	// RollbackRetries bounds transient retries of a failed consumption
	// rollback before it is abandoned.
	RollbackRetries int `mapstructure:"rollback_retries"`

	// RollbackRetryInterval is the initial backoff between rollback retries.
	RollbackRetryInterval time.Duration `mapstructure:"rollback_retry_interval"`
}

// DefaultSettings returns the engine defaults: no TTL, LRU policy for
// auto-created backends, auto-creation on, notifications and metrics on.
func DefaultSettings() Settings {
	return Settings{
		DefaultTTL:            0,
		EvictionPolicy:        "lru",
		MaxEntries:            0,
		DefaultBackend:        "default",
		AutoCreateBackends:    true,
		FailIfNotFound:        false,
		NotificationsEnabled:  true,
		MetricsEnabled:        true,
		RollbackRetries:       3,
		RollbackRetryInterval: 50 * time.Millisecond,
	}
}

// FromSource builds Settings from a property source, starting from defaults
// and overriding every property the source provides.
func FromSource(src Source) (Settings, error) {
	s := DefaultSettings()
	if src == nil {
		return s, nil
	}

	if d, ok := GetDuration(src, PropDefaultTTL); ok {
		s.DefaultTTL = d
	}
	if v, ok := src.GetProperty(PropEvictionPolicy); ok {
		s.EvictionPolicy = ExpandEnv(v)
	}
	if n, ok := GetInt(src, PropMaxEntries); ok {
		s.MaxEntries = n
	}
	if v, ok := src.GetProperty(PropDefaultBackend); ok {
		s.DefaultBackend = ExpandEnv(v)
	}
	if b, ok := GetBool(src, PropAutoCreate); ok {
		s.AutoCreateBackends = b
	}
	if b, ok := GetBool(src, PropFailIfNotFound); ok {
		s.FailIfNotFound = b
	}
	if b, ok := GetBool(src, PropNotifications); ok {
		s.NotificationsEnabled = b
	}
	if b, ok := GetBool(src, PropMetrics); ok {
		s.MetricsEnabled = b
	}
	if n, ok := GetInt(src, PropRollbackRetries); ok {
		s.RollbackRetries = n
	}
	if d, ok := GetDuration(src, PropRollbackInterval); ok {
		s.RollbackRetryInterval = d
	}

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// DecodeSettings builds Settings from a generic configuration document,
// typically a section of a host config file. Missing fields keep their
// defaults; duration fields accept strings like "30s" or "7d".
func DecodeSettings(raw map[string]any) (Settings, error) {
	s := DefaultSettings()

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &s,
		DecodeHook:       DurationHook(),
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Settings{}, errors.WrapFatal(err, "config", "DecodeSettings", "decoder construction")
	}
	if err := decoder.Decode(raw); err != nil {
		return Settings{}, errors.WrapInvalid(err, "config", "DecodeSettings", "settings decode")
	}

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// DurationHook decodes duration fields from strings ("250ms", "7d") and
// bare numbers (seconds).
func DurationHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return ParseDuration(v)
		case int:
			return time.Duration(v) * time.Second, nil
		case int64:
			return time.Duration(v) * time.Second, nil
		case float64:
			return time.Duration(v * float64(time.Second)), nil
		}
		_ = from
		return data, nil
	}
}

// Validate checks settings for values the engine cannot run with.
func (s Settings) Validate() error {
	if s.DefaultTTL < 0 {
		return errors.WrapInvalid(
			fmt.Errorf("default_ttl %v is negative: %w", s.DefaultTTL, errors.ErrInvalidConfig),
			"config", "Validate", "default TTL check")
	}
	if s.MaxEntries < 0 {
		return errors.WrapInvalid(
			fmt.Errorf("max_entries %d is negative: %w", s.MaxEntries, errors.ErrInvalidConfig),
			"config", "Validate", "max entries check")
	}
	switch s.EvictionPolicy {
	case "", "none", "fifo", "lru", "lfu":
	default:
		return errors.WrapInvalid(
			fmt.Errorf("eviction policy %q: %w", s.EvictionPolicy, errors.ErrUnknownPolicy),
			"config", "Validate", "eviction policy check")
	}
	if s.DefaultBackend == "" {
		return errors.WrapInvalid(
			fmt.Errorf("default_backend cannot be empty: %w", errors.ErrInvalidConfig),
			"config", "Validate", "default backend check")
	}
	if s.RollbackRetries < 0 {
		return errors.WrapInvalid(
			fmt.Errorf("rollback_retries %d is negative: %w", s.RollbackRetries, errors.ErrInvalidConfig),
			"config", "Validate", "rollback retries check")
	}
	return nil
}
