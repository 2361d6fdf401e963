// Package property holds the static property tables for MODI module kinds and
// the validation applied to values before they are turned into bus commands.
//
// # Key Types
//
//   - Descriptor: one readable/writable property of a module kind
//   - Registry: per-module-kind table of descriptors, looked up by name
//   - CardinalityError, RangeError: validation failures returned by Validate
//
// # Usage
//
//	reg := property.DefaultRegistry()
//	d, err := reg.DescriptorFor(property.ModuleLED, "rgb")
//	if err != nil {
//	    return err // errors.Is(err, property.ErrUnknownProperty)
//	}
//	values, err := property.Validate(d, []float64{255, 128, 0})
//
// # Thread Safety
//
// A Registry is safe for concurrent lookups. Registration is expected to
// happen during startup, before the registry is shared.
package property
