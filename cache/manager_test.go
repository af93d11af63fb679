package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/guardrail/config"
	"github.com/c360/guardrail/errors"
)

func TestManagerAutoCreate(t *testing.T) {
	settings := config.DefaultSettings()
	settings.MaxEntries = 10
	settings.EvictionPolicy = "fifo"
	m := NewManager(settings)

	store, err := m.Store("users")
	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, "users", store.Name())

	// Second resolution returns the same instance.
	again, err := m.Store("users")
	require.NoError(t, err)
	assert.Same(t, store, again)

	assert.Equal(t, []string{"users"}, m.StoreNames())
}

func TestManagerDefaultBackendName(t *testing.T) {
	m := NewManager(config.DefaultSettings())

	store, err := m.Store("")
	require.NoError(t, err)
	assert.Equal(t, "default", store.Name())
}

func TestManagerFailFast(t *testing.T) {
	settings := config.DefaultSettings()
	settings.AutoCreateBackends = false
	m := NewManager(settings)

	_, err := m.Store("unknown")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrBackendNotFound)
	assert.True(t, errors.IsFatal(err))
}

func TestManagerRegister(t *testing.T) {
	m := NewManager(config.DefaultSettings())

	store := mustStore(t, "explicit")
	require.NoError(t, m.Register(store))

	resolved, err := m.Store("explicit")
	require.NoError(t, err)
	assert.Same(t, Store(store), resolved)

	// Duplicates are rejected.
	err = m.Register(store)
	assert.ErrorIs(t, err, errors.ErrDuplicateBackend)

	// Nil store is rejected.
	assert.Error(t, m.Register(nil))
}

func TestManagerAutoCreateHonorsSettings(t *testing.T) {
	settings := config.DefaultSettings()
	settings.MaxEntries = 1
	settings.EvictionPolicy = "none"
	m := NewManager(settings)

	store, err := m.Store("tiny")
	require.NoError(t, err)

	require.NoError(t, store.Put("a", 1, 0))
	err = store.Put("b", 2, 0)
	assert.ErrorIs(t, err, errors.ErrCapacityExceeded)
}

func TestManagerRejectsBadPolicy(t *testing.T) {
	settings := config.DefaultSettings()
	settings.EvictionPolicy = "bogus" // bypass Validate on purpose
	m := NewManager(settings)

	_, err := m.Store("x")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUnknownPolicy)
}

func TestManagerCloseAll(t *testing.T) {
	m := NewManager(config.DefaultSettings())
	store, err := m.Store("a")
	require.NoError(t, err)

	require.NoError(t, m.CloseAll())
	assert.Error(t, store.Put("k", 1, 0))
}
