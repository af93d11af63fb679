package guard

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/guardrail/condition"
	"github.com/c360/guardrail/config"
	"github.com/c360/guardrail/errors"
	"github.com/c360/guardrail/invoke"
	"github.com/c360/guardrail/ratelimit"
)

func newLimitPair(t *testing.T, opts ...LimitOption) (*ratelimit.Manager, *LimitInterceptor) {
	t.Helper()
	manager := ratelimit.NewManager(config.DefaultSettings())
	return manager, NewLimitInterceptor(manager, config.DefaultSettings(), opts...)
}

func remaining(t *testing.T, manager *ratelimit.Manager, backend, id string, limit int, window time.Duration) int {
	t.Helper()
	st, err := manager.Store(backend)
	require.NoError(t, err)
	left, err := st.RemainingRequests(context.Background(), id, limit, window)
	require.NoError(t, err)
	return left
}

func TestLimitAllowsUnderLimit(t *testing.T) {
	manager, li := newLimitPair(t)
	spec := &LimitSpec{Backends: []string{"api"}, Name: "perUser", Limit: 3, Window: time.Minute}

	for i := 0; i < 3; i++ {
		inv, calls := testInvocation("ok", nil, "user1")
		result, err := li.Execute(context.Background(), spec, inv)
		require.NoError(t, err)
		assert.Equal(t, "ok", result)
		assert.Equal(t, 1, *calls)
	}
	assert.Equal(t, 0, remaining(t, manager, "api", "user1", 3, time.Minute))
}

func TestLimitDenialCarriesResult(t *testing.T) {
	_, li := newLimitPair(t)
	spec := &LimitSpec{Backends: []string{"api"}, Name: "perUser", Limit: 1, Window: time.Minute}

	inv, _ := testInvocation("ok", nil, "user1")
	_, err := li.Execute(context.Background(), spec, inv)
	require.NoError(t, err)

	inv, calls := testInvocation("ok", nil, "user1")
	_, err = li.Execute(context.Background(), spec, inv)
	require.Error(t, err)
	assert.Equal(t, 0, *calls, "denied call must not invoke the method")
	assert.ErrorIs(t, err, errors.ErrRateLimitExceeded)

	var denied *RateLimitExceededError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, "perUser", denied.Result.LimitName)
	assert.Equal(t, `user1`, denied.Result.Identifier)
	assert.Equal(t, 1, denied.Result.Limit)
	assert.False(t, denied.Result.Allowed)
	assert.Greater(t, denied.Result.RetryAfter, time.Duration(0))
	assert.Equal(t, 0, denied.Result.Remaining())
}

func TestLimitSilentDenial(t *testing.T) {
	_, li := newLimitPair(t)
	spec := &LimitSpec{
		Backends: []string{"api"}, Name: "quiet",
		Limit: 1, Window: time.Minute, SilentOnExceeded: true,
	}

	inv, _ := testInvocation("ok", nil, "user1")
	_, err := li.Execute(context.Background(), spec, inv)
	require.NoError(t, err)

	inv, calls := testInvocation("ok", nil, "user1")
	result, err := li.Execute(context.Background(), spec, inv)
	require.NoError(t, err, "silent specs swallow the denial")
	assert.Nil(t, result)
	assert.Equal(t, 0, *calls)
}

func TestLimitDenialRollsBackEarlierStores(t *testing.T) {
	manager, li := newLimitPair(t)
	spec := &LimitSpec{
		Backends: []string{"first", "second"},
		Name:     "tiered", Limit: 3, Window: time.Minute,
	}

	// Exhaust the second store out of band so consumption denies there.
	second, err := manager.Store("second")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		res, err := second.TryConsume(context.Background(), "user1", 3, time.Minute)
		require.NoError(t, err)
		require.True(t, res.Allowed)
	}

	inv, calls := testInvocation("ok", nil, "user1")
	_, err = li.Execute(context.Background(), spec, inv)
	require.ErrorIs(t, err, errors.ErrRateLimitExceeded)
	assert.Equal(t, 0, *calls)

	assert.Equal(t, 3, remaining(t, manager, "first", "user1", 3, time.Minute),
		"first store's consumption must be rolled back after the second denies")
}

func TestLimitProceedFailureCompensatesAllStores(t *testing.T) {
	manager, li := newLimitPair(t)
	spec := &LimitSpec{
		Backends: []string{"first", "second"},
		Name:     "tiered", Limit: 3, Window: time.Minute,
	}

	boom := stderrors.New("downstream failed")
	inv, calls := testInvocation(nil, boom, "user1")
	_, err := li.Execute(context.Background(), spec, inv)
	require.ErrorIs(t, err, boom, "the method's own error propagates unchanged")
	assert.Equal(t, 1, *calls)

	for _, name := range []string{"first", "second"} {
		assert.Equal(t, 3, remaining(t, manager, name, "user1", 3, time.Minute),
			"store %q should be compensated after the call failed", name)
	}
}

func TestLimitGatingSkipsMetering(t *testing.T) {
	manager, li := newLimitPair(t)
	spec := &LimitSpec{
		Backends: []string{"api"}, Name: "gated",
		Limit: 1, Window: time.Minute,
		Unless: condition.Always(),
	}

	for i := 0; i < 5; i++ {
		inv, calls := testInvocation("ok", nil, "user1")
		result, err := li.Execute(context.Background(), spec, inv)
		require.NoError(t, err)
		assert.Equal(t, "ok", result)
		assert.Equal(t, 1, *calls)
	}
	assert.Equal(t, 1, remaining(t, manager, "api", "user1", 1, time.Minute),
		"skipped calls are unmetered")
}

func TestLimitConditionFalseSkips(t *testing.T) {
	manager, li := newLimitPair(t)
	spec := &LimitSpec{
		Backends: []string{"api"}, Name: "gated",
		Limit: 1, Window: time.Minute,
		Condition: condition.Never(),
	}

	inv, calls := testInvocation("ok", nil, "user1")
	_, err := li.Execute(context.Background(), spec, inv)
	require.NoError(t, err)
	assert.Equal(t, 1, *calls)
	assert.Equal(t, 1, remaining(t, manager, "api", "user1", 1, time.Minute))
}

func TestLimitSpecValidation(t *testing.T) {
	_, li := newLimitPair(t)

	inv, _ := testInvocation("ok", nil, "user1")
	_, err := li.Execute(context.Background(),
		&LimitSpec{Limit: 0, Window: time.Minute}, inv)
	assert.ErrorIs(t, err, errors.ErrInvalidLimit)

	inv, _ = testInvocation("ok", nil, "user1")
	_, err = li.Execute(context.Background(),
		&LimitSpec{Limit: 5, Window: 0}, inv)
	assert.ErrorIs(t, err, errors.ErrInvalidWindow)
}

func TestLimitResolverOverride(t *testing.T) {
	custom, err := ratelimit.NewMemoryStore("custom")
	require.NoError(t, err)

	_, li := newLimitPair(t, WithLimitResolver("special",
		LimitResolverFunc(func(context.Context, *LimitSpec, *invoke.Invocation) ([]ratelimit.Store, error) {
			return []ratelimit.Store{custom}, nil
		})))

	spec := &LimitSpec{
		Backends: []string{"ignored"}, Resolver: "special",
		Name: "custom", Limit: 2, Window: time.Minute,
	}
	inv, _ := testInvocation("ok", nil, "user1")
	_, err = li.Execute(context.Background(), spec, inv)
	require.NoError(t, err)

	left, err := custom.RemainingRequests(context.Background(), "user1", 2, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, left, "the resolver's store should have been consumed")
}

func TestLimitNilSpecProceeds(t *testing.T) {
	_, li := newLimitPair(t)
	inv, calls := testInvocation("plain", nil)
	result, err := li.Execute(context.Background(), nil, inv)
	require.NoError(t, err)
	assert.Equal(t, "plain", result)
	assert.Equal(t, 1, *calls)
}

func TestDecodeLimitSpec(t *testing.T) {
	spec, err := DecodeLimitSpec(map[string]any{
		"backends": []string{"api"},
		"name":     "perUser",
		"limit":    10,
		"window":   "1m",
	})
	require.NoError(t, err)
	assert.Equal(t, "perUser", spec.Name)
	assert.Equal(t, 10, spec.Limit)
	assert.Equal(t, time.Minute, spec.Window)

	_, err = DecodeLimitSpec(map[string]any{"limit": 0, "window": "1m"})
	assert.ErrorIs(t, err, errors.ErrInvalidLimit)
}
