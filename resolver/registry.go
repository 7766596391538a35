package resolver

import (
	"database/sql/driver"
	"fmt"
	"sort"
	"sync"
)

// Registry maps driver names to implementations. Unlike database/sql's own
// table it supports deregistration, so a driver loaded from a plugin can be
// removed when its session ends.
type Registry struct {
	mu      sync.RWMutex
	drivers map[string]driver.Driver
}

func NewRegistry() *Registry {
	return &Registry{drivers: make(map[string]driver.Driver)}
}

// Register adds d under name. Names are unique.
func (r *Registry) Register(name string, d driver.Driver) error {
	if d == nil {
		return fmt.Errorf("register %q: driver is nil", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.drivers[name]; dup {
		return fmt.Errorf("register %q: driver already registered", name)
	}
	r.drivers[name] = d
	return nil
}

// Deregister removes name. It fails if name is not registered.
func (r *Registry) Deregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.drivers[name]; !ok {
		return fmt.Errorf("deregister %q: driver not registered", name)
	}
	delete(r.drivers, name)
	return nil
}

func (r *Registry) Lookup(name string) (driver.Driver, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.drivers[name]
	return d, ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.drivers))
	for n := range r.drivers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
