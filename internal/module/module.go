package module

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/modi-core/internal/property"
)

// Sender accepts encoded commands for delivery.
// *dispatch.Queue[Command] satisfies it.
type Sender interface {
	Send(ctx context.Context, cmd Command) error
}

// Logger defines the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Reading is a property value resolved by name.
// Composite properties are assembled from their components.
type Reading struct {
	Name       string    `json:"name"`
	Values     []float64 `json:"values"`
	ObservedAt time.Time `json:"observed_at,omitempty"`
	Valid      bool      `json:"valid"`
}

// Module is the handle for one physical module.
//
// Thread Safety: all methods are safe for concurrent use. Reads and writes
// are independent; a Get issued after a Set may still return the value from
// before the Set until the module reports back.
type Module struct {
	identity Identity
	kind     property.ModuleKind
	registry *property.Registry
	sender   Sender
	cache    *Cache
	logger   Logger
}

// New binds a module of the given kind to the registry and sender.
func New(identity Identity, kind property.ModuleKind, registry *property.Registry, sender Sender) *Module {
	return &Module{
		identity: identity,
		kind:     kind,
		registry: registry,
		sender:   sender,
		cache:    NewCache(),
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the module.
func (m *Module) SetLogger(logger Logger) {
	m.logger = logger
}

// Identity returns the module identity.
func (m *Module) Identity() Identity {
	return m.identity
}

// Kind returns the module kind.
func (m *Module) Kind() property.ModuleKind {
	return m.kind
}

// Cache returns the module's property cache. Telemetry ingestion writes it.
func (m *Module) Cache() *Cache {
	return m.cache
}

// GetProperty returns the cached value of a property. It never blocks.
func (m *Module) GetProperty(kind property.Kind) CachedValue {
	return m.cache.Read(kind)
}

// Get resolves a property by name and returns its cached value.
//
// A composite reading is valid only when every component is; its
// ObservedAt is that of the oldest component.
func (m *Module) Get(name string) (Reading, error) {
	d, err := m.registry.DescriptorFor(m.kind, name)
	if err != nil {
		return Reading{}, err
	}
	return m.read(d), nil
}

// Readings returns every property of the module in registry order.
func (m *Module) Readings() []Reading {
	ds := m.registry.Descriptors(m.kind)
	out := make([]Reading, 0, len(ds))
	for _, d := range ds {
		out = append(out, m.read(d))
	}
	return out
}

// read resolves d from the cache. A composite whose component cannot be
// resolved reads as invalid.
func (m *Module) read(d property.Descriptor) Reading {
	if !d.Composite() {
		v := m.cache.Read(d.Property)
		return Reading{Name: d.Name, Values: v.Values, ObservedAt: v.ObservedAt, Valid: v.Valid}
	}

	r := Reading{Name: d.Name, Values: make([]float64, len(d.Components)), Valid: true}
	for i, name := range d.Components {
		c, err := m.registry.DescriptorFor(m.kind, name)
		if err != nil {
			m.logger.Debug("composite component not resolvable",
				"id", m.identity.ID,
				"property", d.Name,
				"component", name,
				"error", err,
			)
			r.Valid = false
			continue
		}
		v := m.cache.Read(c.Property)
		if !v.Valid || len(v.Values) == 0 {
			r.Valid = false
			continue
		}
		r.Values[i] = v.Values[0]
		if r.ObservedAt.IsZero() || v.ObservedAt.Before(r.ObservedAt) {
			r.ObservedAt = v.ObservedAt
		}
	}
	if !r.Valid {
		r.ObservedAt = time.Time{}
	}
	return r
}

// SetProperty validates values against d, encodes them and hands the
// command to the sender. Nothing is sent when validation fails.
//
// Setting one component of a composite re-sends the whole composite, with
// the other components taken from the cache (zero when unknown).
func (m *Module) SetProperty(ctx context.Context, d property.Descriptor, values []float64) error {
	if !d.Writable() {
		return fmt.Errorf("%w: %s.%s", property.ErrNotWritable, d.Module, d.Name)
	}

	validated, err := property.Validate(d, values)
	if err != nil {
		return err
	}

	if parent, idx, ok := m.compositeOf(d); ok {
		full := m.compositeValues(parent)
		full[idx] = validated[0]
		if validated, err = property.Validate(parent, full); err != nil {
			return err
		}
		d = parent
	}

	cmd := Encode(m.identity, d, validated)
	if err := m.sender.Send(ctx, cmd); err != nil {
		m.logger.Warn("command not queued",
			"module", m.identity.String(),
			"property", d.Name,
			"error", err,
		)
		return fmt.Errorf("sending %s to module %d: %w", d.Name, m.identity.ID, err)
	}

	m.logger.Debug("command queued",
		"module", m.identity.String(),
		"property", d.Name,
		"command", uint16(cmd.Kind),
		"payload", cmd.Payload,
	)
	return nil
}

// Set resolves a property by name and sets it.
func (m *Module) Set(ctx context.Context, name string, values ...float64) error {
	d, err := m.registry.DescriptorFor(m.kind, name)
	if err != nil {
		return err
	}
	return m.SetProperty(ctx, d, values)
}

// TurnOn sets every rgb channel to its maximum.
func (m *Module) TurnOn(ctx context.Context) error {
	return m.fillColor(ctx, func(r property.Range) float64 { return r.Max })
}

// TurnOff sets every rgb channel to its minimum.
func (m *Module) TurnOff(ctx context.Context) error {
	return m.fillColor(ctx, func(r property.Range) float64 { return r.Min })
}

func (m *Module) fillColor(ctx context.Context, pick func(property.Range) float64) error {
	d, err := m.registry.DescriptorFor(m.kind, "rgb")
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNoColor, m.kind)
	}
	values := make([]float64, d.Cardinality)
	for i := range values {
		values[i] = pick(d.Range)
	}
	return m.SetProperty(ctx, d, values)
}

// compositeOf finds the writable composite that lists d as a component and
// shares its command.
func (m *Module) compositeOf(d property.Descriptor) (property.Descriptor, int, bool) {
	if d.Composite() {
		return property.Descriptor{}, 0, false
	}
	for _, c := range m.registry.Descriptors(m.kind) {
		if !c.Composite() || c.Command != d.Command {
			continue
		}
		for i, name := range c.Components {
			if name == d.Name {
				return c, i, true
			}
		}
	}
	return property.Descriptor{}, 0, false
}

// compositeValues returns the cached component values of a composite,
// using the lower range bound for components not yet observed.
func (m *Module) compositeValues(c property.Descriptor) []float64 {
	out := make([]float64, len(c.Components))
	for i, name := range c.Components {
		out[i] = c.Range.Min
		comp, err := m.registry.DescriptorFor(m.kind, name)
		if err != nil {
			continue
		}
		if v := m.cache.Read(comp.Property); v.Valid && len(v.Values) > 0 {
			out[i] = v.Values[0]
		}
	}
	return out
}
