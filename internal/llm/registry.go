package llm

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Builder constructs a Provider from its descriptor.
type Builder func(d Descriptor) (Provider, error)

// Registry maps provider names to builders. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

var defaultRegistry = NewRegistry()

// NewRegistry returns an empty registry, handy for isolated tests.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]Builder)}
}

// Default exposes the process-wide registry backends register into.
func Default() *Registry { return defaultRegistry }

// Register adds or replaces the builder under name.
func (r *Registry) Register(name string, b Builder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builders[strings.ToLower(name)] = b
}

// Names lists registered providers in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.builders))
	for n := range r.builders {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Build instantiates the provider named by d. An unknown name is a
// configuration error surfaced here, never at call time.
func (r *Registry) Build(d Descriptor) (Provider, error) {
	r.mu.RLock()
	b, ok := r.builders[strings.ToLower(d.Name)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q (known: %s)", ErrUnknownProvider, d.Name, strings.Join(r.Names(), ", "))
	}
	p, err := b(d)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", d, err)
	}
	return p, nil
}
