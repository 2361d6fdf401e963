package property

import (
	"errors"
	"sync"
	"testing"
)

func TestDefaultRegistry_LED(t *testing.T) {
	reg := DefaultRegistry()

	d, err := reg.DescriptorFor(ModuleLED, "rgb")
	if err != nil {
		t.Fatalf("DescriptorFor(led, rgb) error = %v", err)
	}
	if d.Command != LEDSetRGB {
		t.Errorf("rgb command = %d, want %d", d.Command, LEDSetRGB)
	}
	if d.Cardinality != 3 {
		t.Errorf("rgb cardinality = %d, want 3", d.Cardinality)
	}
	if d.Range != (Range{Min: 0, Max: 255}) {
		t.Errorf("rgb range = %v, want [0, 255]", d.Range)
	}
	if !d.Composite() {
		t.Error("rgb should be composite")
	}

	red, err := reg.DescriptorForKind(ModuleLED, LEDRed)
	if err != nil {
		t.Fatalf("DescriptorForKind(led, 2) error = %v", err)
	}
	if red.Name != "red" {
		t.Errorf("property 2 name = %q, want red", red.Name)
	}
}

func TestDefaultRegistry_ButtonReadOnly(t *testing.T) {
	reg := DefaultRegistry()

	for _, name := range []string{"clicked", "double_clicked", "pressed", "toggled"} {
		d, err := reg.DescriptorFor(ModuleButton, name)
		if err != nil {
			t.Fatalf("DescriptorFor(button, %s) error = %v", name, err)
		}
		if d.Writable() {
			t.Errorf("button %s should be read-only", name)
		}
	}
}

func TestRegistry_UnknownProperty(t *testing.T) {
	reg := DefaultRegistry()

	tests := []struct {
		name   string
		module ModuleKind
		prop   string
	}{
		{name: "unknown name", module: ModuleLED, prop: "brightness"},
		{name: "unknown module kind", module: "network", prop: "rgb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.DescriptorFor(tt.module, tt.prop)
			if !errors.Is(err, ErrUnknownProperty) {
				t.Errorf("DescriptorFor() error = %v, want ErrUnknownProperty", err)
			}
		})
	}

	if _, err := reg.DescriptorForKind(ModuleLED, 99); !errors.Is(err, ErrUnknownProperty) {
		t.Errorf("DescriptorForKind(99) error = %v, want ErrUnknownProperty", err)
	}
}

func TestRegistry_RegisterRejects(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(Descriptor{Name: "level", Module: "dial", Property: 2, Cardinality: 1, Range: Range{Max: 100}})

	tests := []struct {
		name    string
		d       Descriptor
		wantErr error
	}{
		{
			name:    "duplicate name",
			d:       Descriptor{Name: "level", Module: "dial", Property: 3, Cardinality: 1},
			wantErr: ErrDuplicateProperty,
		},
		{
			name:    "duplicate property number",
			d:       Descriptor{Name: "speed", Module: "dial", Property: 2, Cardinality: 1},
			wantErr: ErrDuplicateProperty,
		},
		{
			name:    "unknown component",
			d:       Descriptor{Name: "both", Module: "dial", Cardinality: 2, Components: []string{"level", "speed"}},
			wantErr: ErrInvalidDescriptor,
		},
		{
			name:    "invalid descriptor",
			d:       Descriptor{Name: "bad", Module: "dial"},
			wantErr: ErrInvalidDescriptor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := reg.Register(tt.d); !errors.Is(err, tt.wantErr) {
				t.Errorf("Register() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	// Same name under another module kind is fine
	if err := reg.Register(Descriptor{Name: "level", Module: "speaker", Property: 2, Cardinality: 1}); err != nil {
		t.Errorf("Register() other module kind error = %v", err)
	}
}

func TestRegistry_DescriptorsOrderAndIsolation(t *testing.T) {
	reg := DefaultRegistry()

	ds := reg.Descriptors(ModuleLED)
	want := []string{"red", "green", "blue", "rgb"}
	if len(ds) != len(want) {
		t.Fatalf("Descriptors(led) len = %d, want %d", len(ds), len(want))
	}
	for i, d := range ds {
		if d.Name != want[i] {
			t.Errorf("Descriptors(led)[%d] = %q, want %q", i, d.Name, want[i])
		}
	}

	// Mutating a returned descriptor must not leak into the registry
	ds[3].Components[0] = "tampered"
	d, _ := reg.DescriptorFor(ModuleLED, "rgb")
	if d.Components[0] != "red" {
		t.Errorf("registry descriptor mutated: components = %v", d.Components)
	}

	if got := reg.Descriptors("unknown"); got != nil {
		t.Errorf("Descriptors(unknown) = %v, want nil", got)
	}
}

func TestRegistry_ModuleKinds(t *testing.T) {
	reg := DefaultRegistry()

	kinds := reg.ModuleKinds()
	if len(kinds) != 2 || kinds[0] != ModuleButton || kinds[1] != ModuleLED {
		t.Errorf("ModuleKinds() = %v, want [button led]", kinds)
	}
	if !reg.HasModuleKind(ModuleLED) {
		t.Error("HasModuleKind(led) = false")
	}
	if reg.HasModuleKind("network") {
		t.Error("HasModuleKind(network) = true")
	}
}

func TestRegistry_ConcurrentLookups(t *testing.T) {
	reg := DefaultRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if _, err := reg.DescriptorFor(ModuleLED, "rgb"); err != nil {
					t.Errorf("DescriptorFor() error = %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()
}
