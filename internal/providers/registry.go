// Package providers holds the provider registry used by the dispatcher to
// resolve a request's provider name to a concrete adapter.
package providers

import (
	"sort"
	"sync"

	"chatgate/internal/core"
)

// Registry maps provider names to adapters. Registration happens once at
// startup; lookups are concurrent-safe.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]core.Provider
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]core.Provider)}
}

// Register adds a provider under its own Name. A duplicate name overwrites
// the previous registration.
func (r *Registry) Register(p core.Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Get returns the provider registered under name, or nil if unknown.
func (r *Registry) Get(name string) core.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.providers[name]
}

// Names returns the registered provider names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
