package module

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/modi-core/internal/property"
)

// Event announces a module on the bus.
type Event struct {
	Identity Identity            `json:"identity"`
	Kind     property.ModuleKind `json:"kind"`
	At       time.Time           `json:"at,omitempty"`
}

// Telemetry is one property sample reported by a module.
type Telemetry struct {
	Destination uint16        `json:"destination"`
	Property    property.Kind `json:"property"`
	Values      []float64     `json:"values"`
	At          time.Time     `json:"at,omitempty"`
}

// Sample is an accepted telemetry value, resolved to its module and
// property, as handed to a Recorder.
type Sample struct {
	Identity Identity
	Module   property.ModuleKind
	Property property.Descriptor
	Values   []float64
	At       time.Time
}

// Inventory persists the modules seen on the bus.
type Inventory interface {
	Record(ctx context.Context, ev Event) error
	MarkDetached(ctx context.Context, id uuid.UUID, at time.Time) error
}

// Recorder receives every accepted telemetry sample. Record must not block.
type Recorder interface {
	Record(s Sample)
}

// ManagerOptions configures optional Manager collaborators.
type ManagerOptions struct {
	Inventory Inventory
	Recorder  Recorder
	Metrics   *Metrics
	Logger    Logger

	// Now overrides the clock used to stamp telemetry without a timestamp.
	Now func() time.Time
}

// Manager owns the modules bound in this process and routes telemetry to
// their caches.
//
// Thread Safety: all methods are safe for concurrent use.
type Manager struct {
	registry *property.Registry
	sender   Sender

	inventory Inventory
	recorder  Recorder
	metrics   *Metrics
	logger    Logger
	now       func() time.Time

	mu     sync.RWMutex
	byID   map[uint16]*Module
	byUUID map[uuid.UUID]uint16
}

// NewManager creates a manager. Every module it binds shares sender.
func NewManager(registry *property.Registry, sender Sender, opts ManagerOptions) *Manager {
	m := &Manager{
		registry:  registry,
		sender:    sender,
		inventory: opts.Inventory,
		recorder:  opts.Recorder,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
		now:       opts.Now,
		byID:      make(map[uint16]*Module),
		byUUID:    make(map[uuid.UUID]uint16),
	}
	if m.logger == nil {
		m.logger = noopLogger{}
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// Registry returns the property registry modules are bound to.
func (m *Manager) Registry() *property.Registry {
	return m.registry
}

// Attach binds the announced module and returns its handle.
//
// Announcing an already bound module again returns the existing handle with
// its cache intact. When a known UUID reappears under a new ID the old
// binding is replaced. An ID held by a different UUID fails with
// ErrModuleExists.
func (m *Manager) Attach(ctx context.Context, ev Event) (*Module, error) {
	if err := ev.Identity.Validate(); err != nil {
		return nil, err
	}
	if !m.registry.HasModuleKind(ev.Kind) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModuleKind, ev.Kind)
	}
	if ev.At.IsZero() {
		ev.At = m.now()
	}

	m.mu.Lock()
	if existing, ok := m.byID[ev.Identity.ID]; ok {
		if existing.identity.UUID != ev.Identity.UUID {
			m.mu.Unlock()
			return nil, fmt.Errorf("%w: id %d is bound to %s", ErrModuleExists, ev.Identity.ID, existing.identity.UUID)
		}
		m.mu.Unlock()
		return existing, nil
	}

	if oldID, ok := m.byUUID[ev.Identity.UUID]; ok {
		delete(m.byID, oldID)
		m.logger.Info("module reconnected under new id",
			"uuid", ev.Identity.UUID.String(),
			"old_id", oldID,
			"new_id", ev.Identity.ID,
		)
	}

	mod := New(ev.Identity, ev.Kind, m.registry, m.sender)
	mod.SetLogger(m.logger)
	m.byID[ev.Identity.ID] = mod
	m.byUUID[ev.Identity.UUID] = ev.Identity.ID
	count := len(m.byID)
	m.mu.Unlock()

	m.metrics.setModules(count)
	m.logger.Info("module attached",
		"id", ev.Identity.ID,
		"uuid", ev.Identity.UUID.String(),
		"kind", string(ev.Kind),
	)

	if m.inventory != nil {
		if err := m.inventory.Record(ctx, ev); err != nil {
			m.logger.Error("recording module in inventory", "id", ev.Identity.ID, "error", err)
		}
	}
	return mod, nil
}

// Detach unbinds the module with the given ID.
func (m *Manager) Detach(ctx context.Context, id uint16) error {
	m.mu.Lock()
	mod, ok := m.byID[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: id %d", ErrModuleNotFound, id)
	}
	delete(m.byID, id)
	delete(m.byUUID, mod.identity.UUID)
	count := len(m.byID)
	m.mu.Unlock()

	m.metrics.setModules(count)
	m.logger.Info("module detached", "id", id, "uuid", mod.identity.UUID.String())

	if m.inventory != nil {
		if err := m.inventory.MarkDetached(ctx, mod.identity.UUID, m.now()); err != nil {
			m.logger.Error("marking module detached", "id", id, "error", err)
		}
	}
	return nil
}

// Module returns the module bound to id.
func (m *Manager) Module(id uint16) (*Module, error) {
	m.mu.RLock()
	mod, ok := m.byID[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrModuleNotFound, id)
	}
	return mod, nil
}

// Modules returns every bound module ordered by ID.
func (m *Manager) Modules() []*Module {
	m.mu.RLock()
	out := make([]*Module, 0, len(m.byID))
	for _, mod := range m.byID {
		out = append(out, mod)
	}
	m.mu.RUnlock()

	slices.SortFunc(out, func(a, b *Module) int {
		return int(a.identity.ID) - int(b.identity.ID)
	})
	return out
}

// Ingest stores a telemetry sample in the destination module's cache.
//
// It reports whether the sample was accepted. Samples for unbound modules,
// unknown property kinds or with the wrong number of values are dropped
// and counted.
func (m *Manager) Ingest(t Telemetry) bool {
	m.mu.RLock()
	mod, ok := m.byID[t.Destination]
	m.mu.RUnlock()
	if !ok {
		m.metrics.recordDrop(dropUnknownModule)
		m.logger.Debug("telemetry for unknown module dropped", "id", t.Destination)
		return false
	}

	d, err := m.registry.DescriptorForKind(mod.kind, t.Property)
	if err != nil {
		m.metrics.recordDrop(dropUnknownProperty)
		m.logger.Debug("telemetry for unknown property dropped",
			"id", t.Destination,
			"property", uint16(t.Property),
		)
		return false
	}
	if len(t.Values) != d.Cardinality {
		m.metrics.recordDrop(dropCardinality)
		m.logger.Debug("telemetry with wrong cardinality dropped",
			"id", t.Destination,
			"property", d.Name,
			"values", len(t.Values),
			"want", d.Cardinality,
		)
		return false
	}

	at := t.At
	if at.IsZero() {
		at = m.now()
	}
	mod.cache.Update(t.Property, t.Values, at)
	m.metrics.recordIngest()

	if m.recorder != nil {
		m.recorder.Record(Sample{
			Identity: mod.identity,
			Module:   mod.kind,
			Property: d,
			Values:   slices.Clone(t.Values),
			At:       at,
		})
	}
	return true
}
