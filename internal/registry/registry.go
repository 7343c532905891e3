package registry

import (
	"fmt"
	"sort"

	"github.com/calder-vis/motionlink/internal/hid"
	"github.com/calder-vis/motionlink/internal/infrastructure/config"
)

// DeviceType is the logical category a physical device maps to,
// independent of its vendor/product identifiers. It selects the command
// template used to render that device's motion.
type DeviceType string

// Known logical device types. The set is open: any type is accepted as
// long as a command template is configured for it.
const (
	TypeMouse       DeviceType = "mouse"
	Type3DConnexion DeviceType = "3dconnexion"
	TypeGamepad     DeviceType = "gamepad"
)

// Descriptor is the immutable catalogue entry for one configured device.
type Descriptor struct {
	// Name is the configuration key, e.g. "Bluetooth_mouse".
	Name string

	// VID and PID are the configured 4-digit hex identifier strings.
	VID string
	PID string

	// VendorID and ProductID are the parsed numeric identifiers.
	VendorID  uint16
	ProductID uint16

	// Type is the logical device type.
	Type DeviceType

	// Axes and Buttons are the configured channel names, in report order.
	Axes    []string
	Buttons []string
}

// Registry is the read-only device catalogue, keyed uniquely by
// (vendor ID, product ID). It is built once from configuration at startup
// and never mutated afterwards, so lookups need no locking.
type Registry struct {
	byID   map[[2]uint16]*Descriptor
	byName map[string]*Descriptor
}

// New builds a Registry from the input_devices configuration section.
//
// Parameters:
//   - devices: The input_devices map from config.yaml
//
// Returns:
//   - *Registry: Immutable catalogue ready for lookups
//   - error: If an identifier fails to parse or two devices share a
//     (vid, pid) pair
func New(devices map[string]config.InputDeviceConfig) (*Registry, error) {
	r := &Registry{
		byID:   make(map[[2]uint16]*Descriptor, len(devices)),
		byName: make(map[string]*Descriptor, len(devices)),
	}

	for name, dev := range devices {
		vendorID, err := hid.ParseID(dev.VID)
		if err != nil {
			return nil, fmt.Errorf("device %q: %w", name, err)
		}
		productID, err := hid.ParseID(dev.PID)
		if err != nil {
			return nil, fmt.Errorf("device %q: %w", name, err)
		}

		key := [2]uint16{vendorID, productID}
		if existing, ok := r.byID[key]; ok {
			return nil, fmt.Errorf("%w: %q and %q both claim %s:%s",
				ErrDuplicateDevice, existing.Name, name, dev.VID, dev.PID)
		}

		desc := &Descriptor{
			Name:      name,
			VID:       dev.VID,
			PID:       dev.PID,
			VendorID:  vendorID,
			ProductID: productID,
			Type:      DeviceType(dev.Type),
			Axes:      append([]string(nil), dev.Axes...),
			Buttons:   append([]string(nil), dev.Buttons...),
		}
		r.byID[key] = desc
		r.byName[name] = desc
	}

	return r, nil
}

// Lookup returns the descriptor for a (vendor ID, product ID) pair.
// Returns ErrUnknownDevice when no match exists; callers must not assume
// a default type.
func (r *Registry) Lookup(vendorID, productID uint16) (Descriptor, error) {
	desc, ok := r.byID[[2]uint16{vendorID, productID}]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %04x:%04x", ErrUnknownDevice, vendorID, productID)
	}
	return *desc, nil
}

// LookupName returns the descriptor for a configured device name.
// Returns ErrUnknownDevice when the name is not in the catalogue.
func (r *Registry) LookupName(name string) (Descriptor, error) {
	desc, ok := r.byName[name]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrUnknownDevice, name)
	}
	return *desc, nil
}

// List returns all catalogue entries sorted by name.
func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, 0, len(r.byName))
	for _, desc := range r.byName {
		out = append(out, *desc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
