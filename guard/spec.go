package guard

import (
	stderrors "errors"
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/c360/guardrail/condition"
	"github.com/c360/guardrail/config"
	"github.com/c360/guardrail/errors"
)

// CacheSpec declares how one cache policy applies to a guarded call:
// which backends hold the entries, which key generator names them, and
// under what conditions the policy is active at all. Conditions are code,
// not configuration, so they are excluded from map decoding.
type CacheSpec struct {
	// Backends names the stores this policy targets. Empty means the
	// engine's default backend.
	Backends []string `mapstructure:"backends"`

	// KeyGenerator names a registered key generator. Empty means the
	// interceptor's default generator.
	KeyGenerator string `mapstructure:"key_generator"`

	// Resolver names a registered custom resolver. When set it fully
	// replaces backend resolution for this spec.
	Resolver string `mapstructure:"resolver"`

	// Manager names a registered manager override. When set, every
	// backend that manager knows participates.
	Manager string `mapstructure:"manager"`

	// TTL overrides the store default for entries written by this spec.
	// Zero defers to the store.
	TTL time.Duration `mapstructure:"ttl"`

	// Condition, when set, must evaluate true for the policy to apply.
	Condition condition.Condition `mapstructure:"-"`

	// Unless, when set and true, disables the policy. Evaluated before
	// Condition.
	Unless condition.Condition `mapstructure:"-"`
}

// InvalidateSpec is a CacheSpec that removes entries instead of reading
// or writing them.
type InvalidateSpec struct {
	CacheSpec `mapstructure:",squash"`

	// BeforeInvocation runs the invalidation before the protected call
	// instead of after it.
	BeforeInvocation bool `mapstructure:"before_invocation"`

	// AllEntries clears the whole backend rather than evicting the
	// generated key.
	AllEntries bool `mapstructure:"all_entries"`
}

// CacheOperation bundles every cache policy attached to one guarded call.
// Any of the three parts may be absent.
type CacheOperation struct {
	// Read is the read-through policy: probe before the call, complete
	// the miss after it.
	Read *CacheSpec

	// Write lists write-through policies applied to a produced result.
	Write []CacheSpec

	// Invalidate lists invalidation policies, each running before or
	// after the call per its flag.
	Invalidate []InvalidateSpec
}

// LimitSpec declares a rate limit on a guarded call.
type LimitSpec struct {
	// Backends names the limit stores that must all accept the call.
	// Empty means the engine's default backend.
	Backends []string `mapstructure:"backends"`

	// Name labels this limit in denial results and logs.
	Name string `mapstructure:"name"`

	// Limit is the number of calls permitted per window. Must be positive.
	Limit int `mapstructure:"limit"`

	// Window is the fixed window length. Must be positive.
	Window time.Duration `mapstructure:"window"`

	// KeyGenerator names a registered generator for the limit identifier.
	KeyGenerator string `mapstructure:"key_generator"`

	// Resolver names a registered custom resolver override.
	Resolver string `mapstructure:"resolver"`

	// Manager names a registered manager override.
	Manager string `mapstructure:"manager"`

	// SilentOnExceeded swallows a denial into a nil result instead of
	// returning a RateLimitExceededError.
	SilentOnExceeded bool `mapstructure:"silent_on_exceeded"`

	Condition condition.Condition `mapstructure:"-"`
	Unless    condition.Condition `mapstructure:"-"`
}

// Validate rejects limits that can never admit a call or never roll over.
func (s *LimitSpec) Validate() error {
	if s.Limit <= 0 {
		return errors.WrapInvalid(
			fmt.Errorf("limit %d must be positive: %w", s.Limit, errors.ErrInvalidLimit),
			"guard", "LimitSpec.Validate", "limit validation")
	}
	if s.Window <= 0 {
		return errors.WrapInvalid(
			fmt.Errorf("window %s must be positive: %w", s.Window, errors.ErrInvalidWindow),
			"guard", "LimitSpec.Validate", "window validation")
	}
	return nil
}

// DecodeCacheSpec builds a CacheSpec from a generic map, typically a host
// configuration fragment. Durations accept Go duration strings, a "d" day
// suffix, or bare integer seconds.
func DecodeCacheSpec(raw map[string]any) (CacheSpec, error) {
	var spec CacheSpec
	if err := decodeSpec(raw, &spec); err != nil {
		return CacheSpec{}, errors.WrapInvalid(err, "guard", "DecodeCacheSpec", "spec decoding")
	}
	return spec, nil
}

// DecodeInvalidateSpec builds an InvalidateSpec from a generic map.
func DecodeInvalidateSpec(raw map[string]any) (InvalidateSpec, error) {
	var spec InvalidateSpec
	if err := decodeSpec(raw, &spec); err != nil {
		return InvalidateSpec{}, errors.WrapInvalid(err, "guard", "DecodeInvalidateSpec", "spec decoding")
	}
	return spec, nil
}

// DecodeLimitSpec builds a validated LimitSpec from a generic map.
func DecodeLimitSpec(raw map[string]any) (LimitSpec, error) {
	var spec LimitSpec
	if err := decodeSpec(raw, &spec); err != nil {
		return LimitSpec{}, errors.WrapInvalid(err, "guard", "DecodeLimitSpec", "spec decoding")
	}
	if err := spec.Validate(); err != nil {
		return LimitSpec{}, err
	}
	return spec, nil
}

func decodeSpec(raw map[string]any, out any) error {
	if raw == nil {
		return stderrors.New("nil spec map")
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		DecodeHook:       config.DurationHook(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(raw)
}
