package registry

import (
	"errors"
	"testing"

	"github.com/calder-vis/motionlink/internal/infrastructure/config"
)

func testDevices() map[string]config.InputDeviceConfig {
	return map[string]config.InputDeviceConfig{
		"Bluetooth_mouse": {
			VID:     "046d",
			PID:     "b03a",
			Type:    "mouse",
			Axes:    []string{"x", "y"},
			Buttons: []string{"left_click", "right_click"},
		},
		"SpaceMouse": {
			VID:     "256f",
			PID:     "c635",
			Type:    "3dconnexion",
			Axes:    []string{"x", "y", "z", "rx", "ry", "rz"},
			Buttons: []string{"button_1", "button_2"},
		},
	}
}

func TestNew_BuildsCatalogue(t *testing.T) {
	r, err := New(testDevices())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	list := r.List()
	if len(list) != 2 {
		t.Fatalf("List() returned %d entries, want 2", len(list))
	}
	// Sorted by name.
	if list[0].Name != "Bluetooth_mouse" || list[1].Name != "SpaceMouse" {
		t.Errorf("List() order = %q, %q", list[0].Name, list[1].Name)
	}
}

func TestLookup_KnownPairs(t *testing.T) {
	r, err := New(testDevices())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		vendorID  uint16
		productID uint16
		wantName  string
		wantType  DeviceType
	}{
		{0x046d, 0xb03a, "Bluetooth_mouse", TypeMouse},
		{0x256f, 0xc635, "SpaceMouse", Type3DConnexion},
	}

	for _, tt := range tests {
		desc, err := r.Lookup(tt.vendorID, tt.productID)
		if err != nil {
			t.Errorf("Lookup(%04x, %04x) error = %v", tt.vendorID, tt.productID, err)
			continue
		}
		if desc.Name != tt.wantName {
			t.Errorf("Lookup(%04x, %04x).Name = %q, want %q", tt.vendorID, tt.productID, desc.Name, tt.wantName)
		}
		if desc.Type != tt.wantType {
			t.Errorf("Lookup(%04x, %04x).Type = %q, want %q", tt.vendorID, tt.productID, desc.Type, tt.wantType)
		}
	}
}

func TestLookup_UnknownPair(t *testing.T) {
	r, err := New(testDevices())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := r.Lookup(0xdead, 0xbeef); !errors.Is(err, ErrUnknownDevice) {
		t.Errorf("Lookup() error = %v, want ErrUnknownDevice", err)
	}
}

func TestLookupName(t *testing.T) {
	r, err := New(testDevices())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	desc, err := r.LookupName("SpaceMouse")
	if err != nil {
		t.Fatalf("LookupName() error = %v", err)
	}
	if desc.VendorID != 0x256f || desc.ProductID != 0xc635 {
		t.Errorf("LookupName() ids = %04x:%04x, want 256f:c635", desc.VendorID, desc.ProductID)
	}

	if _, err := r.LookupName("no_such_device"); !errors.Is(err, ErrUnknownDevice) {
		t.Errorf("LookupName() error = %v, want ErrUnknownDevice", err)
	}
}

func TestNew_DuplicateIDs(t *testing.T) {
	devices := testDevices()
	devices["Clone_mouse"] = config.InputDeviceConfig{
		VID: "046d", PID: "b03a", Type: "mouse", Axes: []string{"x", "y"},
	}

	if _, err := New(devices); !errors.Is(err, ErrDuplicateDevice) {
		t.Errorf("New() error = %v, want ErrDuplicateDevice", err)
	}
}

func TestNew_MalformedID(t *testing.T) {
	devices := map[string]config.InputDeviceConfig{
		"Broken": {VID: "xyz", PID: "b03a", Type: "mouse", Axes: []string{"x"}},
	}

	if _, err := New(devices); err == nil {
		t.Error("New() expected error for malformed vid, got nil")
	}
}
