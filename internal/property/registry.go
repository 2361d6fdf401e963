package property

import (
	"fmt"
	"sort"
	"sync"
)

// table holds the descriptors of one module kind.
type table struct {
	byName map[string]Descriptor
	byKind map[Kind]string
	order  []string // registration order
}

// Registry maps (module kind, property name) to a Descriptor.
//
// All public methods are thread-safe. Returned descriptors are copies.
type Registry struct {
	mu     sync.RWMutex
	tables map[ModuleKind]*table
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tables: make(map[ModuleKind]*table),
	}
}

// Register adds a descriptor to the table of its module kind.
//
// Composite descriptors must name components that are already registered
// for the same module kind.
func (r *Registry) Register(d Descriptor) error {
	if err := validateDescriptor(d); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tables[d.Module]
	if !ok {
		t = &table{
			byName: make(map[string]Descriptor),
			byKind: make(map[Kind]string),
		}
		r.tables[d.Module] = t
	}

	if _, exists := t.byName[d.Name]; exists {
		return fmt.Errorf("%w: %s/%s", ErrDuplicateProperty, d.Module, d.Name)
	}
	if d.Property != 0 {
		if other, exists := t.byKind[d.Property]; exists {
			return fmt.Errorf("%w: %s property %d already used by %s", ErrDuplicateProperty, d.Module, d.Property, other)
		}
	}
	for _, c := range d.Components {
		comp, exists := t.byName[c]
		if !exists || comp.Composite() {
			return fmt.Errorf("%w: %s: component %q is not a registered single-valued property",
				ErrInvalidDescriptor, d.Name, c)
		}
	}

	d = d.clone()
	t.byName[d.Name] = d
	if d.Property != 0 {
		t.byKind[d.Property] = d.Name
	}
	t.order = append(t.order, d.Name)
	return nil
}

// MustRegister is Register for static tables; it panics on error.
func (r *Registry) MustRegister(ds ...Descriptor) {
	for _, d := range ds {
		if err := r.Register(d); err != nil {
			panic(err)
		}
	}
}

// DescriptorFor returns the descriptor for a property name of a module kind.
// Returns an error matching ErrUnknownProperty if there is no such property.
func (r *Registry) DescriptorFor(module ModuleKind, name string) (Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tables[module]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: module kind %q has no properties", ErrUnknownProperty, module)
	}
	d, ok := t.byName[name]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %s/%s", ErrUnknownProperty, module, name)
	}
	return d.clone(), nil
}

// DescriptorForKind returns the descriptor carrying a telemetry property number.
func (r *Registry) DescriptorForKind(module ModuleKind, kind Kind) (Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tables[module]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: module kind %q has no properties", ErrUnknownProperty, module)
	}
	name, ok := t.byKind[kind]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %s property %d", ErrUnknownProperty, module, kind)
	}
	return t.byName[name].clone(), nil
}

// Descriptors returns all descriptors of a module kind in registration order.
func (r *Registry) Descriptors(module ModuleKind) []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tables[module]
	if !ok {
		return nil
	}
	out := make([]Descriptor, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, t.byName[name].clone())
	}
	return out
}

// ModuleKinds returns the registered module kinds, sorted.
func (r *Registry) ModuleKinds() []ModuleKind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]ModuleKind, 0, len(r.tables))
	for k := range r.tables {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// HasModuleKind reports whether any property is registered for the kind.
func (r *Registry) HasModuleKind(module ModuleKind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tables[module]
	return ok
}

// clone copies the Components slice so callers cannot reach registry state.
func (d Descriptor) clone() Descriptor {
	if d.Components != nil {
		d.Components = append([]string(nil), d.Components...)
	}
	return d
}
