package property

import (
	"fmt"
	"math"
)

// ModuleKind names a family of modules sharing one property table.
type ModuleKind string

// Module kinds with built-in property tables.
const (
	ModuleLED    ModuleKind = "led"
	ModuleButton ModuleKind = "button"
)

// Kind is the property type number reported by module telemetry.
// It is only unique within a module kind.
type Kind uint16

// CommandKind is the command number a module accepts to set a property.
// Zero means the property cannot be written.
type CommandKind uint16

// CommandNone marks a read-only property.
const CommandNone CommandKind = 0

// Range is an inclusive numeric bound applied to every component of a value.
type Range struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Contains reports whether v lies within the range, bounds included.
// NaN is never contained.
func (r Range) Contains(v float64) bool {
	if math.IsNaN(v) {
		return false
	}
	return v >= r.Min && v <= r.Max
}

// String returns the range in interval notation.
func (r Range) String() string {
	return fmt.Sprintf("[%g, %g]", r.Min, r.Max)
}

// Descriptor describes one property of a module kind.
//
// Descriptors are values: once registered they are never mutated and are
// shared by every module of that kind.
type Descriptor struct {
	// Name is the accessor name used by façades (e.g. "rgb", "pressed").
	Name string `json:"name"`

	// Module is the module kind this property belongs to.
	Module ModuleKind `json:"module"`

	// Property is the telemetry property number. Zero for composite
	// properties, which are assembled from Components.
	Property Kind `json:"property"`

	// Command is the command used to write the property, or CommandNone.
	Command CommandKind `json:"command"`

	// Cardinality is the number of numeric components in a value.
	Cardinality int `json:"cardinality"`

	// Range bounds every component.
	Range Range `json:"range"`

	// Components lists the names of the single-valued properties a composite
	// property is read from, in payload order.
	Components []string `json:"components,omitempty"`
}

// Writable reports whether the property accepts a set command.
func (d Descriptor) Writable() bool {
	return d.Command != CommandNone
}

// Composite reports whether the property is read from other properties.
func (d Descriptor) Composite() bool {
	return len(d.Components) > 0
}
