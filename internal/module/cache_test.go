package module

import (
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/modi-core/internal/property"
)

func TestCache_ReadReturnsCopy(t *testing.T) {
	c := NewCache()
	in := []float64{1, 2, 3}
	c.Update(1, in, time.Now())

	in[0] = 99
	v := c.Read(1)
	if v.Values[0] != 1 {
		t.Errorf("cache aliased caller slice: %v", v.Values)
	}

	v.Values[1] = 99
	if c.Read(1).Values[1] != 2 {
		t.Error("cache aliased returned slice")
	}
}

func TestCache_Invalidate(t *testing.T) {
	c := NewCache()
	c.Update(5, []float64{1}, time.Now())
	c.Invalidate(5)

	if v := c.Read(5); v.Valid {
		t.Errorf("Read() after Invalidate = %+v, want invalid", v)
	}
}

func TestCache_Snapshot(t *testing.T) {
	c := NewCache()
	now := time.Now()
	c.Update(4, []float64{4}, now)
	c.Update(2, []float64{2}, now)

	snap := c.Snapshot()
	if len(snap) != 2 || snap[0].Property != 2 || snap[1].Property != 4 {
		t.Errorf("Snapshot() = %+v, want kinds [2 4]", snap)
	}
}

func TestCachedValue_Staleness(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 10, 0, time.UTC)
	v := CachedValue{Values: []float64{1}, ObservedAt: now.Add(-5 * time.Second), Valid: true}

	tests := []struct {
		name   string
		v      CachedValue
		maxAge time.Duration
		want   bool
	}{
		{name: "never observed", v: CachedValue{}, maxAge: time.Minute, want: true},
		{name: "within max age", v: v, maxAge: 10 * time.Second, want: false},
		{name: "older than max age", v: v, maxAge: time.Second, want: true},
		{name: "no max age", v: v, maxAge: 0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.Stale(now, tt.maxAge); got != tt.want {
				t.Errorf("Stale() = %v, want %v", got, tt.want)
			}
		})
	}

	if got := v.Age(now); got != 5*time.Second {
		t.Errorf("Age() = %v, want 5s", got)
	}
	if v.State() != StateFresh {
		t.Errorf("State() = %v, want fresh", v.State())
	}
}

// Concurrent readers must only ever see one of the written values whole.
func TestCache_ConcurrentTearFree(t *testing.T) {
	c := NewCache()
	a := []float64{1, 1, 1}
	b := []float64{2, 2, 2}
	c.Update(property.LEDRed, a, time.Now())

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			if i%2 == 0 {
				c.Update(property.LEDRed, a, time.Now())
			} else {
				c.Update(property.LEDRed, b, time.Now())
			}
		}
	}()

	for r := 0; r < 8; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				v := c.Read(property.LEDRed)
				if !slices.Equal(v.Values, a) && !slices.Equal(v.Values, b) {
					t.Errorf("torn read: %v", v.Values)
					return
				}
			}
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(stop)
	wg.Wait()
}

func TestEncode_Deterministic(t *testing.T) {
	id := Identity{ID: 9, UUID: uuid.New()}
	rgb, _ := property.DefaultRegistry().DescriptorFor(property.ModuleLED, "rgb")
	payload := []float64{1, 2, 3}

	first := Encode(id, rgb, payload)
	second := Encode(id, rgb, payload)
	if first.Destination != second.Destination || first.Kind != second.Kind ||
		!slices.Equal(first.Payload, second.Payload) {
		t.Errorf("Encode() not deterministic: %+v vs %+v", first, second)
	}

	payload[0] = 99
	if first.Payload[0] != 1 {
		t.Error("Encode() payload aliases caller slice")
	}
}

func TestParseIdentity(t *testing.T) {
	u := uuid.New()

	id, err := ParseIdentity(12, u.String())
	if err != nil {
		t.Fatalf("ParseIdentity() error = %v", err)
	}
	if id.ID != 12 || id.UUID != u {
		t.Errorf("ParseIdentity() = %+v", id)
	}

	for _, raw := range []string{"", "not-a-uuid", uuid.Nil.String()} {
		if _, err := ParseIdentity(1, raw); err == nil {
			t.Errorf("ParseIdentity(%q) error = nil", raw)
		}
	}
}
