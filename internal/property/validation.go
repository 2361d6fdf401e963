package property

import "fmt"

// Validate checks values against the descriptor's cardinality and range.
//
// On success the input slice is returned as is; values are never clamped or
// coerced. The first failing component is reported. Validate has no side
// effects and may be called any number of times.
func Validate(d Descriptor, values []float64) ([]float64, error) {
	if len(values) != d.Cardinality {
		return nil, &CardinalityError{
			Property: d.Name,
			Expected: d.Cardinality,
			Got:      len(values),
		}
	}

	for i, v := range values {
		if !d.Range.Contains(v) {
			return nil, &RangeError{
				Property: d.Name,
				Index:    i,
				Value:    v,
				Range:    d.Range,
			}
		}
	}

	return values, nil
}

// validateDescriptor checks a descriptor before it enters a registry.
func validateDescriptor(d Descriptor) error {
	if d.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDescriptor)
	}
	if d.Module == "" {
		return fmt.Errorf("%w: %s: module kind is required", ErrInvalidDescriptor, d.Name)
	}
	if d.Cardinality < 1 {
		return fmt.Errorf("%w: %s: cardinality must be at least 1", ErrInvalidDescriptor, d.Name)
	}
	if d.Range.Min > d.Range.Max {
		return fmt.Errorf("%w: %s: range min %g exceeds max %g", ErrInvalidDescriptor, d.Name, d.Range.Min, d.Range.Max)
	}
	if d.Composite() {
		if len(d.Components) != d.Cardinality {
			return fmt.Errorf("%w: %s: %d components for cardinality %d",
				ErrInvalidDescriptor, d.Name, len(d.Components), d.Cardinality)
		}
		if d.Property != 0 {
			return fmt.Errorf("%w: %s: composite property cannot carry a property number", ErrInvalidDescriptor, d.Name)
		}
	} else if d.Property == 0 {
		return fmt.Errorf("%w: %s: property number is required", ErrInvalidDescriptor, d.Name)
	}
	return nil
}
