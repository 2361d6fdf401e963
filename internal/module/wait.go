package module

import (
	"context"
	"time"

	"github.com/nerrad567/modi-core/internal/property"
)

// DefaultPollInterval is used by the wait helpers when interval is not positive.
const DefaultPollInterval = 10 * time.Millisecond

// PropertyReader reads cached property values. *Module satisfies it.
type PropertyReader interface {
	GetProperty(kind property.Kind) CachedValue
}

// WaitValid polls until the property has been observed at least once.
// It returns ctx.Err() if ctx ends first.
func WaitValid(ctx context.Context, r PropertyReader, kind property.Kind, interval time.Duration) (CachedValue, error) {
	return poll(ctx, interval, func() (CachedValue, bool) {
		v := r.GetProperty(kind)
		return v, v.Valid
	})
}

// WaitConverged polls until n consecutive reads return the same values.
// It suits boolean flags that flicker while a module settles.
func WaitConverged(ctx context.Context, r PropertyReader, kind property.Kind, n int, interval time.Duration) (CachedValue, error) {
	if n < 1 {
		n = 1
	}

	var (
		last CachedValue
		same int
	)
	return poll(ctx, interval, func() (CachedValue, bool) {
		v := r.GetProperty(kind)
		switch {
		case !v.Valid:
			same = 0
		case v.SameValues(last):
			same++
		default:
			same = 1
		}
		last = v
		return v, same >= n
	})
}

func poll(ctx context.Context, interval time.Duration, check func() (CachedValue, bool)) (CachedValue, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	if v, ok := check(); ok {
		return v, nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return CachedValue{}, ctx.Err()
		case <-ticker.C:
			if v, ok := check(); ok {
				return v, nil
			}
		}
	}
}
