// Package registry implements the process-wide plugin registry of
// spec.md §4.3: a table of plugin kinds (descriptor + factory)
// populated at static initialization, and the live-instance table
// created from it.
package registry

import (
	"sync"

	"github.com/deeedob/clap-rci/descriptor"
	"github.com/deeedob/clap-rci/errors"
)

// ErrDuplicateID is wrapped and returned by RegisterKind when a
// descriptor id is already registered. RegisterKind never panics on a
// duplicate, and nothing in this module (boundary included) turns the
// error into a panic; the caller of RegisterKind decides how to react
// (the demo host's serve command returns it as a command error).
var ErrDuplicateID = errors.New("registry: duplicate descriptor id")

// HostHandle is opaque to the registry; it is whatever the host passes
// to a Factory to let the resulting instance call back into the host.
type HostHandle any

// Instance is the minimal surface the instance table needs from a live
// plugin instance. coreplugin.CorePlugin implements it; registry does
// not import coreplugin; to avoid a cycle the table instead depends on
// this small interface.
type Instance interface {
	InstanceID() uint64
}

// Factory turns a host handle into a new live Instance, emplacing it
// into the instance table as a side effect (spec.md §4.3's "factory
// fan-in"). Implementations typically call Registry.Instances().Emplace
// themselves before returning.
type Factory func(host HostHandle) (Instance, error)

type entry struct {
	descriptor *descriptor.Descriptor
	factory    Factory
}

// Registry holds the kind table (descriptor+factory per plugin kind)
// and the live instance table.
type Registry struct {
	mu          sync.RWMutex
	entries     []entry
	byID        map[string]int
	path        string
	initialized bool

	instances *Instances
}

// New creates an empty Registry with its own instance table. Most
// callers want Default(), the process-wide singleton; New exists for
// tests and for embedding multiple independent registries in-process.
func New() *Registry {
	return &Registry{
		byID:      make(map[string]int),
		instances: newInstances(),
	}
}

// RegisterKind adds a plugin kind to the registry. Call before Init;
// this models the "static initialization registration side effect" of
// spec.md §4.3 (constructor-initialized registration in a language with
// pre-main initializers, or an explicit registration call in Go).
func (r *Registry) RegisterKind(d *descriptor.Descriptor, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[d.ID()]; exists {
		return errors.Wrapf(ErrDuplicateID, "id %q", d.ID())
	}

	r.byID[d.ID()] = len(r.entries)
	r.entries = append(r.entries, entry{descriptor: d, factory: factory})
	return nil
}

// Init records the host-provided plugin search path. Returns false if
// no kinds have been registered, matching spec.md §4.3.
func (r *Registry) Init(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.entries) == 0 {
		return false
	}
	r.path = path
	r.initialized = true
	return true
}

// Deinit clears the search path. It panics if the instance table is
// not empty, matching spec.md §4.3's "asserts instance table is empty".
func (r *Registry) Deinit() {
	if r.instances.count() != 0 {
		panic("registry: Deinit called with live instances outstanding")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.path = ""
	r.initialized = false
}

// Path returns the host-provided plugin search path recorded by Init.
func (r *Registry) Path() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.path
}

// EntrySize returns the number of registered plugin kinds.
func (r *Registry) EntrySize() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// FindDescriptorByID returns the descriptor registered under id.
func (r *Registry) FindDescriptorByID(id string) (*descriptor.Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	return r.entries[idx].descriptor, true
}

// FindDescriptorByIndex returns the descriptor at position index among
// [0, EntrySize), the enumeration order used by the host ABI's
// get_plugin_count/get_plugin_descriptor pair.
func (r *Registry) FindDescriptorByIndex(index int) (*descriptor.Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if index < 0 || index >= len(r.entries) {
		return nil, false
	}
	return r.entries[index].descriptor, true
}

// Create invokes the factory registered under id, the boundary's
// factory fan-in (spec.md §4.10). It does not itself emplace the
// resulting instance; well-behaved factories do that as part of
// construction so partially-constructed instances never appear in the
// table.
func (r *Registry) Create(host HostHandle, id string) (Instance, error) {
	r.mu.RLock()
	idx, ok := r.byID[id]
	var f Factory
	if ok {
		f = r.entries[idx].factory
	}
	r.mu.RUnlock()

	if !ok {
		return nil, errors.Newf("registry: no such plugin kind %q", id)
	}
	return f(host)
}

// Instances returns the process-wide live-instance table.
func (r *Registry) Instances() *Instances {
	return r.instances
}

// Default process-wide registry, lazily created on first use.
var (
	defaultRegistry *Registry
	defaultOnce     sync.Once
)

// Default returns the process-wide Registry singleton.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = New()
	})
	return defaultRegistry
}
