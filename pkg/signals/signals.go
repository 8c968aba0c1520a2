// Package signals lets other packages hook into test suite setup and
// teardown, e.g. to reset shared state or clean up resources between tests.
package signals

import (
	"context"
	"errors"
	"sync"
)

// Hook runs at a test lifecycle boundary.
type Hook func(ctx context.Context) error

// Registry holds ordered pre-setup and post-teardown hooks.
type Registry struct {
	mu           sync.Mutex
	nextID       int
	preSetup     []entry
	postTeardown []entry
}

type entry struct {
	id   int
	hook Hook
}

// NewRegistry creates an empty hook registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// OnPreSetup registers a hook that runs before each test's setup.
// The returned func unregisters the hook.
func (r *Registry) OnPreSetup(h Hook) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := r.nextID
	r.preSetup = append(r.preSetup, entry{id: id, hook: h})
	return func() { r.remove(&r.preSetup, id) }
}

// OnPostTeardown registers a hook that runs after each test's teardown.
// The returned func unregisters the hook.
func (r *Registry) OnPostTeardown(h Hook) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := r.nextID
	r.postTeardown = append(r.postTeardown, entry{id: id, hook: h})
	return func() { r.remove(&r.postTeardown, id) }
}

// remove deletes the hook with the given id from the list.
func (r *Registry) remove(list *[]entry, id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range *list {
		if e.id == id {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return
		}
	}
}

// EmitPreSetup runs all pre-setup hooks in registration order. Every hook
// runs even when an earlier one fails; failures are joined.
func (r *Registry) EmitPreSetup(ctx context.Context) error {
	return r.emit(ctx, r.snapshot(&r.preSetup))
}

// EmitPostTeardown runs all post-teardown hooks in registration order.
// Every hook runs even when an earlier one fails; failures are joined.
func (r *Registry) EmitPostTeardown(ctx context.Context) error {
	return r.emit(ctx, r.snapshot(&r.postTeardown))
}

// snapshot copies the hook list so emission does not hold the lock.
func (r *Registry) snapshot(list *[]entry) []entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entry, len(*list))
	copy(out, *list)
	return out
}

func (r *Registry) emit(ctx context.Context, hooks []entry) error {
	var errs []error
	for _, e := range hooks {
		if err := e.hook(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Default is the registry used by the package-level functions. Libraries
// built on testkit typically register against it once at init time.
var Default = NewRegistry()

// OnPreSetup registers a pre-setup hook on the default registry.
func OnPreSetup(h Hook) func() { return Default.OnPreSetup(h) }

// OnPostTeardown registers a post-teardown hook on the default registry.
func OnPostTeardown(h Hook) func() { return Default.OnPostTeardown(h) }

// EmitPreSetup runs the default registry's pre-setup hooks.
func EmitPreSetup(ctx context.Context) error { return Default.EmitPreSetup(ctx) }

// EmitPostTeardown runs the default registry's post-teardown hooks.
func EmitPostTeardown(ctx context.Context) error { return Default.EmitPostTeardown(ctx) }
