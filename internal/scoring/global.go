package scoring

import "sync"

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
	defaultRegistryMu   sync.RWMutex
)

// DefaultRegistry returns the process-wide registry, creating it on first use.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistryMu.Lock()
		defer defaultRegistryMu.Unlock()
		if defaultRegistry == nil {
			defaultRegistry = NewRegistry()
		}
	})
	defaultRegistryMu.RLock()
	defer defaultRegistryMu.RUnlock()
	return defaultRegistry
}

// SetDefaultRegistry replaces the process-wide registry, typically once at
// start-up after profiles were restored from storage.
func SetDefaultRegistry(r *Registry) {
	defaultRegistryOnce.Do(func() {})
	defaultRegistryMu.Lock()
	defer defaultRegistryMu.Unlock()
	defaultRegistry = r
}
