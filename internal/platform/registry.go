package platform

import "sync"

// Registry maps a chain ID to its active adapters, preserving
// registration order.
type Registry struct {
	mu       sync.RWMutex
	adapters map[uint64][]Adapter
}

func NewRegistry() *Registry {
	return &Registry{adapters: make(map[uint64][]Adapter)}
}

// Register adds an adapter for a chain.
func (r *Registry) Register(chainID uint64, adapter Adapter) {
	if adapter == nil {
		return
	}
	r.mu.Lock()
	r.adapters[chainID] = append(r.adapters[chainID], adapter)
	r.mu.Unlock()
}

// ForChain returns the adapters registered for a chain.
func (r *Registry) ForChain(chainID uint64) []Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Adapter, len(r.adapters[chainID]))
	copy(out, r.adapters[chainID])
	return out
}

// Lookup returns the adapter with the given name for a chain.
func (r *Registry) Lookup(chainID uint64, name string) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, adapter := range r.adapters[chainID] {
		if adapter.Name() == name {
			return adapter, true
		}
	}
	return nil, false
}
