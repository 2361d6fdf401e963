package property

import (
	"errors"
	"fmt"
)

// Domain errors for the property package.
//
// Validation failures are returned as *CardinalityError or *RangeError; both
// match their sentinel with errors.Is:
//
//	if errors.Is(err, property.ErrRange) {
//	    var re *property.RangeError
//	    errors.As(err, &re) // re.Index, re.Value
//	}
var (
	// ErrUnknownProperty is returned when a module kind has no property with
	// the requested name or number.
	ErrUnknownProperty = errors.New("property: unknown property")

	// ErrNotWritable is returned when setting a read-only property.
	ErrNotWritable = errors.New("property: not writable")

	// ErrCardinality is matched by *CardinalityError.
	ErrCardinality = errors.New("property: wrong number of values")

	// ErrRange is matched by *RangeError.
	ErrRange = errors.New("property: value out of range")

	// ErrInvalidDescriptor is returned when registering a malformed descriptor.
	ErrInvalidDescriptor = errors.New("property: invalid descriptor")

	// ErrDuplicateProperty is returned when a property name or number is
	// registered twice for the same module kind.
	ErrDuplicateProperty = errors.New("property: already registered")
)

// CardinalityError reports a value with the wrong number of components.
type CardinalityError struct {
	Property string
	Expected int
	Got      int
}

func (e *CardinalityError) Error() string {
	return fmt.Sprintf("property: %s expects %d values, got %d", e.Property, e.Expected, e.Got)
}

// Is matches ErrCardinality.
func (e *CardinalityError) Is(target error) bool {
	return target == ErrCardinality
}

// RangeError reports the first component that falls outside the valid range.
type RangeError struct {
	Property string
	Index    int
	Value    float64
	Range    Range
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("property: %s value %g at index %d outside %s", e.Property, e.Value, e.Index, e.Range)
}

// Is matches ErrRange.
func (e *RangeError) Is(target error) bool {
	return target == ErrRange
}
