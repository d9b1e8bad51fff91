package store

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/modernmen/collectiongen/schema"
)

// HookInput is the state passed to a lifecycle hook.
type HookInput struct {
	Collection string
	Event      schema.HookEvent
	Op         schema.Op
	// ID is empty in the create hooks that run before the id is assigned.
	ID string
	// Data is the incoming payload in beforeValidate and beforeChange,
	// and the stored document in the read, afterChange and delete hooks.
	Data Record
	// Original is the stored document before an update or delete.
	Original Record
}

// Hook runs at one lifecycle event. A non-nil record replaces Data for
// the hooks that follow and for the operation itself; returning nil keeps
// Data. An error aborts the operation.
type Hook func(ctx context.Context, in *HookInput) (Record, error)

// Registry resolves the hook names of collection definitions.
// It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	hooks map[string]Hook
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{hooks: make(map[string]Hook)}
}

// Register adds a named hook. Names must be unique.
func (r *Registry) Register(name string, h Hook) error {
	if name == "" || h == nil {
		return fmt.Errorf("store: hook name and function are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.hooks[name]; ok {
		return fmt.Errorf("store: hook %q registered twice", name)
	}
	r.hooks[name] = h
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(name string, h Hook) *Registry {
	if err := r.Register(name, h); err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the hook registered under name.
func (r *Registry) Lookup(name string) (Hook, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.hooks[name]
	return h, ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.hooks))
}

// namedHook keeps the declared name for error messages.
type namedHook struct {
	name string
	fn   Hook
}

// resolve binds the declared hooks of a collection to registered functions.
func (r *Registry) resolve(def *schema.Collection) (map[schema.HookEvent][]namedHook, error) {
	bound := make(map[schema.HookEvent][]namedHook)
	for _, event := range slices.Sorted(maps.Keys(def.Hooks)) {
		if !event.Valid() {
			return nil, fmt.Errorf("store: collection %s: unknown hook event %q", def.Name, event)
		}
		for _, name := range def.Hooks[event] {
			fn, ok := r.Lookup(name)
			if !ok {
				return nil, fmt.Errorf("store: collection %s: hook %q for %s is not registered", def.Name, name, event)
			}
			bound[event] = append(bound[event], namedHook{name: name, fn: fn})
		}
	}
	return bound, nil
}

// run applies the hooks of event in declaration order and returns the
// resulting data.
func (c *Collection) run(ctx context.Context, event schema.HookEvent, in HookInput) (Record, error) {
	in.Collection = c.def.Name
	in.Event = event
	for _, h := range c.hooks[event] {
		out, err := h.fn(ctx, &in)
		if err != nil {
			return nil, fmt.Errorf("%s hook %q: %w", event, h.name, err)
		}
		if out != nil {
			in.Data = out
		}
	}
	return in.Data, nil
}
