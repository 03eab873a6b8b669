package sandbox

import (
	"fmt"
	"sort"
	"sync"
)

// Registry manages invoker instances keyed by backend kind.
type Registry struct {
	mu       sync.RWMutex
	invokers map[Kind]Invoker
}

// NewRegistry creates an empty invoker registry.
func NewRegistry() *Registry {
	return &Registry{invokers: make(map[Kind]Invoker)}
}

// Register adds an invoker to the registry.
func (r *Registry) Register(inv Invoker) error {
	if inv == nil {
		return fmt.Errorf("invoker is nil")
	}
	kind := inv.Kind()
	if kind == "" {
		return fmt.Errorf("invoker kind is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.invokers[kind]; exists {
		return fmt.Errorf("%w: %s", ErrInvokerExists, kind)
	}
	r.invokers[kind] = inv
	return nil
}

// Get retrieves the invoker registered for a kind.
func (r *Registry) Get(kind Kind) (Invoker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inv, ok := r.invokers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvokerNotFound, kind)
	}
	return inv, nil
}

// Has reports whether an invoker is registered for a kind.
func (r *Registry) Has(kind Kind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.invokers[kind]
	return ok
}

// Kinds returns registered kinds sorted for deterministic output.
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Kind, 0, len(r.invokers))
	for k := range r.invokers {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
