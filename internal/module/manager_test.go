package module

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/nerrad567/modi-core/internal/property"
)

type mockInventory struct {
	mu       sync.Mutex
	recorded []Event
	detached []uuid.UUID
}

func (m *mockInventory) Record(_ context.Context, ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recorded = append(m.recorded, ev)
	return nil
}

func (m *mockInventory) MarkDetached(_ context.Context, id uuid.UUID, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detached = append(m.detached, id)
	return nil
}

type mockRecorder struct {
	mu      sync.Mutex
	samples []Sample
}

func (m *mockRecorder) Record(s Sample) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = append(m.samples, s)
}

func newTestManager(t *testing.T) (*Manager, *mockInventory, *mockRecorder, *Metrics) {
	t.Helper()
	metrics, err := NewMetrics(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}
	inv := &mockInventory{}
	rec := &mockRecorder{}
	fixed := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	mgr := NewManager(property.DefaultRegistry(), &mockSender{}, ManagerOptions{
		Inventory: inv,
		Recorder:  rec,
		Metrics:   metrics,
		Now:       func() time.Time { return fixed },
	})
	return mgr, inv, rec, metrics
}

func TestManager_AttachAndLookup(t *testing.T) {
	mgr, inv, _, metrics := newTestManager(t)
	ctx := context.Background()
	id := testIdentity(5)

	mod, err := mgr.Attach(ctx, Event{Identity: id, Kind: property.ModuleLED})
	if err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	if mod.Identity() != id || mod.Kind() != property.ModuleLED {
		t.Errorf("Attach() module = %v/%s", mod.Identity(), mod.Kind())
	}

	got, err := mgr.Module(5)
	if err != nil || got != mod {
		t.Errorf("Module(5) = %v, %v", got, err)
	}
	if len(inv.recorded) != 1 {
		t.Errorf("inventory recorded %d events, want 1", len(inv.recorded))
	}
	if inv.recorded[0].At.IsZero() {
		t.Error("attach event not stamped")
	}
	if v := testutil.ToFloat64(metrics.modules); v != 1 {
		t.Errorf("modules gauge = %v, want 1", v)
	}

	// Re-announce keeps the same handle
	again, err := mgr.Attach(ctx, Event{Identity: id, Kind: property.ModuleLED})
	if err != nil || again != mod {
		t.Errorf("re-Attach() = %p, %v; want same handle", again, err)
	}
}

func TestManager_AttachRejects(t *testing.T) {
	mgr, _, _, _ := newTestManager(t)
	ctx := context.Background()
	_, _ = mgr.Attach(ctx, Event{Identity: testIdentity(1), Kind: property.ModuleLED})

	tests := []struct {
		name    string
		ev      Event
		wantErr error
	}{
		{name: "id taken by other uuid", ev: Event{Identity: testIdentity(1), Kind: property.ModuleLED}, wantErr: ErrModuleExists},
		{name: "unknown kind", ev: Event{Identity: testIdentity(2), Kind: "network"}, wantErr: ErrUnknownModuleKind},
		{name: "nil uuid", ev: Event{Identity: Identity{ID: 3}, Kind: property.ModuleLED}, wantErr: ErrInvalidIdentity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := mgr.Attach(ctx, tt.ev); !errors.Is(err, tt.wantErr) {
				t.Errorf("Attach() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestManager_ReconnectUnderNewID(t *testing.T) {
	mgr, _, _, _ := newTestManager(t)
	ctx := context.Background()
	u := uuid.New()

	_, _ = mgr.Attach(ctx, Event{Identity: Identity{ID: 10, UUID: u}, Kind: property.ModuleButton})
	if _, err := mgr.Attach(ctx, Event{Identity: Identity{ID: 11, UUID: u}, Kind: property.ModuleButton}); err != nil {
		t.Fatalf("Attach() reconnect error = %v", err)
	}

	if _, err := mgr.Module(10); !errors.Is(err, ErrModuleNotFound) {
		t.Errorf("Module(10) error = %v, want ErrModuleNotFound", err)
	}
	if _, err := mgr.Module(11); err != nil {
		t.Errorf("Module(11) error = %v", err)
	}
	if n := len(mgr.Modules()); n != 1 {
		t.Errorf("Modules() len = %d, want 1", n)
	}
}

func TestManager_Detach(t *testing.T) {
	mgr, inv, _, _ := newTestManager(t)
	ctx := context.Background()
	id := testIdentity(4)
	_, _ = mgr.Attach(ctx, Event{Identity: id, Kind: property.ModuleLED})

	if err := mgr.Detach(ctx, 4); err != nil {
		t.Fatalf("Detach() error = %v", err)
	}
	if _, err := mgr.Module(4); !errors.Is(err, ErrModuleNotFound) {
		t.Errorf("Module() after Detach error = %v", err)
	}
	if len(inv.detached) != 1 || inv.detached[0] != id.UUID {
		t.Errorf("inventory detached = %v", inv.detached)
	}
	if err := mgr.Detach(ctx, 4); !errors.Is(err, ErrModuleNotFound) {
		t.Errorf("second Detach() error = %v, want ErrModuleNotFound", err)
	}
}

func TestManager_ModulesOrdered(t *testing.T) {
	mgr, _, _, _ := newTestManager(t)
	ctx := context.Background()
	for _, id := range []uint16{30, 10, 20} {
		_, _ = mgr.Attach(ctx, Event{Identity: testIdentity(id), Kind: property.ModuleLED})
	}

	var ids []uint16
	for _, m := range mgr.Modules() {
		ids = append(ids, m.Identity().ID)
	}
	if !slices.Equal(ids, []uint16{10, 20, 30}) {
		t.Errorf("Modules() ids = %v, want [10 20 30]", ids)
	}
}

func TestManager_Ingest(t *testing.T) {
	mgr, _, rec, metrics := newTestManager(t)
	ctx := context.Background()
	mod, _ := mgr.Attach(ctx, Event{Identity: testIdentity(8), Kind: property.ModuleLED})

	at := time.Date(2026, 3, 1, 1, 0, 0, 0, time.UTC)
	if !mgr.Ingest(Telemetry{Destination: 8, Property: property.LEDRed, Values: []float64{128}, At: at}) {
		t.Fatal("Ingest() rejected known property")
	}

	v := mod.GetProperty(property.LEDRed)
	if !v.Valid || !slices.Equal(v.Values, []float64{128}) || !v.ObservedAt.Equal(at) {
		t.Errorf("cached red = %+v", v)
	}
	if len(rec.samples) != 1 || rec.samples[0].Property.Name != "red" {
		t.Errorf("recorder samples = %+v", rec.samples)
	}

	// Missing timestamp takes the manager clock
	mgr.Ingest(Telemetry{Destination: 8, Property: property.LEDGreen, Values: []float64{1}})
	if got := mod.GetProperty(property.LEDGreen).ObservedAt; got.IsZero() {
		t.Error("telemetry without timestamp not stamped")
	}

	if mgr.Ingest(Telemetry{Destination: 99, Property: property.LEDRed, Values: []float64{1}}) {
		t.Error("Ingest() accepted unknown module")
	}
	if mgr.Ingest(Telemetry{Destination: 8, Property: 42, Values: []float64{1}}) {
		t.Error("Ingest() accepted unknown property")
	}
	if mgr.Ingest(Telemetry{Destination: 8, Property: property.LEDBlue, Values: []float64{1, 2, 3}}) {
		t.Error("Ingest() accepted three values for a single-valued property")
	}
	if mgr.Ingest(Telemetry{Destination: 8, Property: property.LEDBlue}) {
		t.Error("Ingest() accepted an empty sample")
	}
	if v := mod.GetProperty(property.LEDBlue); v.Valid {
		t.Errorf("blue cached from a bad sample: %+v", v)
	}
	if len(rec.samples) != 2 {
		t.Errorf("recorder got %d samples, want 2", len(rec.samples))
	}

	if v := testutil.ToFloat64(metrics.ingested); v != 2 {
		t.Errorf("ingested = %v, want 2", v)
	}
	if v := testutil.ToFloat64(metrics.dropped.WithLabelValues(dropUnknownModule)); v != 1 {
		t.Errorf("dropped unknown_module = %v, want 1", v)
	}
	if v := testutil.ToFloat64(metrics.dropped.WithLabelValues(dropUnknownProperty)); v != 1 {
		t.Errorf("dropped unknown_property = %v, want 1", v)
	}
	if v := testutil.ToFloat64(metrics.dropped.WithLabelValues(dropCardinality)); v != 2 {
		t.Errorf("dropped cardinality = %v, want 2", v)
	}
}

func TestManager_NilOptions(t *testing.T) {
	mgr := NewManager(property.DefaultRegistry(), &mockSender{}, ManagerOptions{})
	ctx := context.Background()

	if _, err := mgr.Attach(ctx, Event{Identity: testIdentity(1), Kind: property.ModuleButton}); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	if !mgr.Ingest(Telemetry{Destination: 1, Property: property.ButtonPressed, Values: []float64{1}}) {
		t.Error("Ingest() rejected")
	}
	if err := mgr.Detach(ctx, 1); err != nil {
		t.Errorf("Detach() error = %v", err)
	}
}
