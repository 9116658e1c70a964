// Package priority provides the class identities used to group storage
// operations for fair scheduling.
//
// A Class is an opaque, immutable identity carrying a name and a share
// weight. Classes are minted by a Registry instance; there is no
// process-wide registry and no implicit default class; components that
// need a fallback class receive it explicitly through configuration.
package priority

import (
	"fmt"
	"sync"
)

// Class identifies one priority class. Instances are immutable once
// registered and are compared by pointer identity.
type Class struct {
	id     uint32
	name   string
	shares uint32
}

// ID returns the registry-local numeric id of the class.
func (c *Class) ID() uint32 { return c.id }

// Name returns the class name.
func (c *Class) Name() string { return c.name }

// Shares returns the class's fair-scheduling weight. Higher shares mean
// a proportionally larger fraction of the available capacity under
// contention.
func (c *Class) Shares() uint32 { return c.shares }

// String renders the class for logs and metrics labels.
func (c *Class) String() string {
	return fmt.Sprintf("%s(%d)", c.name, c.shares)
}

// Registry mints Class identities. Name uniqueness is enforced per
// registry; metadata beyond name and shares is the caller's concern.
//
// Thread safety:
// Register and Lookup are safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	byName  map[string]*Class
	classes []*Class
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Class)}
}

// Register mints a class with the given name and share weight.
//
// Returns an error when the name is already taken or shares is zero.
func (r *Registry) Register(name string, shares uint32) (*Class, error) {
	if shares == 0 {
		return nil, fmt.Errorf("priority: class %q registered with zero shares", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[name]; ok {
		return nil, fmt.Errorf("priority: class %q already registered", name)
	}

	c := &Class{id: uint32(len(r.classes)), name: name, shares: shares}
	r.byName[name] = c
	r.classes = append(r.classes, c)
	return c, nil
}

// Lookup returns the class registered under name, or nil.
func (r *Registry) Lookup(name string) *Class {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byName[name]
}
