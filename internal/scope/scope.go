// Package scope provides the shared capability slot a widget surface exposes
// to the code running inside it.
//
// The original bridge design publishes the capability object into a mutable
// global; here it is an explicit registry owned by the host-side runtime
// with a guarded single-assignment operation, so a second initialization can
// never clobber a live instance.
package scope

import "sync"

// WellKnownSlot is the slot name widget code looks up for the combined
// capability surface.
const WellKnownSlot = "widget"

// Registry is a single-assignment key/value scope shared with widget code.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]any
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]any, 4)}
}

// Publish installs value under key only if the slot is empty. It reports
// whether the value was installed; a false return means an instance already
// owns the slot and was left untouched.
func (r *Registry) Publish(key string, value any) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.entries[key]; taken {
		return false
	}

	r.entries[key] = value

	return true
}

// Lookup returns the value installed under key, if any.
func (r *Registry) Lookup(key string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.entries[key]

	return v, ok
}

// Remove clears the slot, allowing a later Publish to succeed. Used when a
// surface unloads.
func (r *Registry) Remove(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, key)
}
