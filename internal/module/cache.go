package module

import (
	"slices"
	"sync"
	"time"

	"github.com/nerrad567/modi-core/internal/property"
)

// PropertyState is the lifecycle of one cached property.
type PropertyState int

const (
	// StateUninitialized means no telemetry has been observed.
	StateUninitialized PropertyState = iota

	// StateFresh means at least one sample has been observed. Every further
	// sample keeps the property fresh.
	StateFresh
)

func (s PropertyState) String() string {
	if s == StateFresh {
		return "fresh"
	}
	return "uninitialized"
}

// CachedValue is the last observed value of a property.
//
// The zero value (Valid=false) is returned for properties that have never
// reported.
type CachedValue struct {
	Property   property.Kind `json:"property"`
	Values     []float64     `json:"values"`
	ObservedAt time.Time     `json:"observed_at"`
	Valid      bool          `json:"valid"`
}

// State reports whether the value has ever been observed.
func (v CachedValue) State() PropertyState {
	if v.Valid {
		return StateFresh
	}
	return StateUninitialized
}

// Age returns how long ago the value was observed, or zero if never.
func (v CachedValue) Age(now time.Time) time.Duration {
	if !v.Valid {
		return 0
	}
	return now.Sub(v.ObservedAt)
}

// Stale reports whether the value is missing or older than maxAge.
// A non-positive maxAge only treats missing values as stale.
func (v CachedValue) Stale(now time.Time, maxAge time.Duration) bool {
	if !v.Valid {
		return true
	}
	return maxAge > 0 && v.Age(now) > maxAge
}

// SameValues reports whether both values are valid and hold identical
// components.
func (v CachedValue) SameValues(other CachedValue) bool {
	return v.Valid && other.Valid && slices.Equal(v.Values, other.Values)
}

// Cache holds the last observed value of each property of one module.
//
// Thread Safety: Read is safe concurrently with Update and Invalidate.
// Values are copied on the way in and out, so readers never see a
// partially written value.
type Cache struct {
	mu     sync.RWMutex
	values map[property.Kind]CachedValue
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{values: make(map[property.Kind]CachedValue)}
}

// Read returns the cached value for kind, or an invalid CachedValue if the
// property has not been observed.
func (c *Cache) Read(kind property.Kind) CachedValue {
	c.mu.RLock()
	v, ok := c.values[kind]
	c.mu.RUnlock()

	if !ok {
		return CachedValue{Property: kind}
	}
	v.Values = slices.Clone(v.Values)
	return v
}

// Update stores values for kind. The latest call wins.
func (c *Cache) Update(kind property.Kind, values []float64, at time.Time) {
	v := CachedValue{
		Property:   kind,
		Values:     slices.Clone(values),
		ObservedAt: at,
		Valid:      true,
	}

	c.mu.Lock()
	c.values[kind] = v
	c.mu.Unlock()
}

// Invalidate returns kind to the uninitialized state.
func (c *Cache) Invalidate(kind property.Kind) {
	c.mu.Lock()
	delete(c.values, kind)
	c.mu.Unlock()
}

// Snapshot returns every observed value ordered by property kind.
func (c *Cache) Snapshot() []CachedValue {
	c.mu.RLock()
	out := make([]CachedValue, 0, len(c.values))
	for _, v := range c.values {
		v.Values = slices.Clone(v.Values)
		out = append(out, v)
	}
	c.mu.RUnlock()

	slices.SortFunc(out, func(a, b CachedValue) int {
		return int(a.Property) - int(b.Property)
	})
	return out
}
