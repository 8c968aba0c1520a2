package signals

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_HooksRunInRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	var order []string

	r.OnPreSetup(func(ctx context.Context) error {
		order = append(order, "first")
		return nil
	})
	r.OnPreSetup(func(ctx context.Context) error {
		order = append(order, "second")
		return nil
	})

	require.NoError(t, r.EmitPreSetup(context.Background()))
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestRegistry_PreSetupAndPostTeardownAreSeparate(t *testing.T) {
	r := NewRegistry()
	var setup, teardown int

	r.OnPreSetup(func(ctx context.Context) error {
		setup++
		return nil
	})
	r.OnPostTeardown(func(ctx context.Context) error {
		teardown++
		return nil
	})

	require.NoError(t, r.EmitPreSetup(context.Background()))
	require.NoError(t, r.EmitPostTeardown(context.Background()))
	require.NoError(t, r.EmitPostTeardown(context.Background()))

	assert.Equal(t, 1, setup)
	assert.Equal(t, 2, teardown)
}

func TestRegistry_AllHooksRunDespiteFailures(t *testing.T) {
	r := NewRegistry()
	var ran []string

	errFirst := errors.New("first failed")
	r.OnPreSetup(func(ctx context.Context) error {
		ran = append(ran, "first")
		return errFirst
	})
	r.OnPreSetup(func(ctx context.Context) error {
		ran = append(ran, "second")
		return nil
	})

	err := r.EmitPreSetup(context.Background())
	assert.ErrorIs(t, err, errFirst)
	assert.Equal(t, []string{"first", "second"}, ran)
}

func TestRegistry_Unregister(t *testing.T) {
	r := NewRegistry()
	var calls int

	unregister := r.OnPostTeardown(func(ctx context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, r.EmitPostTeardown(context.Background()))
	unregister()
	require.NoError(t, r.EmitPostTeardown(context.Background()))

	assert.Equal(t, 1, calls)
}

func TestRegistry_EmptyRegistryEmitsNoError(t *testing.T) {
	r := NewRegistry()
	assert.NoError(t, r.EmitPreSetup(context.Background()))
	assert.NoError(t, r.EmitPostTeardown(context.Background()))
}

func TestDefaultRegistry(t *testing.T) {
	var called bool
	unregister := OnPreSetup(func(ctx context.Context) error {
		called = true
		return nil
	})
	defer unregister()

	require.NoError(t, EmitPreSetup(context.Background()))
	assert.True(t, called)
}
