package module

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/modi-core/internal/property"
)

// scriptedReader returns a fixed sequence of values, repeating the last.
type scriptedReader struct {
	mu    sync.Mutex
	steps []CachedValue
	calls int
}

func (r *scriptedReader) GetProperty(property.Kind) CachedValue {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.calls
	if i >= len(r.steps) {
		i = len(r.steps) - 1
	}
	r.calls++
	return r.steps[i]
}

func valid(v float64) CachedValue {
	return CachedValue{Values: []float64{v}, Valid: true}
}

func TestWaitValid(t *testing.T) {
	r := &scriptedReader{steps: []CachedValue{{}, {}, valid(1)}}

	v, err := WaitValid(context.Background(), r, property.ButtonPressed, time.Millisecond)
	if err != nil {
		t.Fatalf("WaitValid() error = %v", err)
	}
	if !v.Valid || v.Values[0] != 1 {
		t.Errorf("WaitValid() = %+v", v)
	}
}

func TestWaitValid_Timeout(t *testing.T) {
	r := &scriptedReader{steps: []CachedValue{{}}}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := WaitValid(ctx, r, property.ButtonPressed, time.Millisecond); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitValid() error = %v, want DeadlineExceeded", err)
	}
}

func TestWaitConverged(t *testing.T) {
	r := &scriptedReader{steps: []CachedValue{
		{}, valid(1), valid(0), valid(1), valid(1), valid(1),
	}}

	v, err := WaitConverged(context.Background(), r, property.ButtonPressed, 3, time.Millisecond)
	if err != nil {
		t.Fatalf("WaitConverged() error = %v", err)
	}
	if v.Values[0] != 1 {
		t.Errorf("WaitConverged() = %+v, want 1", v)
	}
	if r.calls != 6 {
		t.Errorf("reads = %d, want 6", r.calls)
	}
}

func TestWaitConverged_WithModule(t *testing.T) {
	button := New(testIdentity(2), property.ModuleButton, property.DefaultRegistry(), &mockSender{})
	button.Cache().Update(property.ButtonPressed, []float64{0}, time.Now())

	v, err := WaitConverged(context.Background(), button, property.ButtonPressed, 2, time.Millisecond)
	if err != nil {
		t.Fatalf("WaitConverged() error = %v", err)
	}
	if v.Values[0] != 0 {
		t.Errorf("WaitConverged() = %+v", v)
	}
}
