package hid

import (
	"fmt"
	"sync"
	"time"
)

// MockManager is an in-memory Manager for tests.
//
// Devices are registered with AddDevice and scripted by pushing reports or
// failures onto the returned MockDevice. Exclusive access is enforced the
// same way the real backend does: a second Open before Close returns
// ErrDeviceBusy.
type MockManager struct {
	mu      sync.Mutex
	devices map[[2]uint16]*MockDevice
	claimed map[[2]uint16]bool
}

// NewMockManager creates an empty mock HID manager.
func NewMockManager() *MockManager {
	return &MockManager{
		devices: make(map[[2]uint16]*MockDevice),
		claimed: make(map[[2]uint16]bool),
	}
}

// AddDevice registers a device and returns its scriptable handle.
func (m *MockManager) AddDevice(vendorID, productID uint16) *MockDevice {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := [2]uint16{vendorID, productID}
	dev := &MockDevice{}
	dev.onClose = func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.claimed[key] = false
	}
	m.devices[key] = dev
	return dev
}

// RemoveDevice unregisters a device, simulating an unplug.
func (m *MockManager) RemoveDevice(vendorID, productID uint16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.devices, [2]uint16{vendorID, productID})
}

// Present reports whether a device with the given IDs is registered.
func (m *MockManager) Present(vendorID, productID uint16) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.devices[[2]uint16{vendorID, productID}]
	return ok, nil
}

// Open claims the registered device, enforcing exclusive access.
func (m *MockManager) Open(vendorID, productID uint16) (Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := [2]uint16{vendorID, productID}
	dev, ok := m.devices[key]
	if !ok {
		return nil, fmt.Errorf("%w: %04x:%04x", ErrDeviceNotPresent, vendorID, productID)
	}
	if m.claimed[key] {
		return nil, fmt.Errorf("%w: %04x:%04x", ErrDeviceBusy, vendorID, productID)
	}

	m.claimed[key] = true
	dev.reopen()
	return dev, nil
}

// MockDevice is a scriptable Device implementation.
//
// Read drains injected failures first, then queued reports, then returns
// ErrNoData. All methods are safe for concurrent use.
type MockDevice struct {
	mu       sync.Mutex
	events   []RawEvent
	failures []error
	closed   bool
	onClose  func()
}

// Emit queues a raw input report for the next Read.
func (d *MockDevice) Emit(data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, RawEvent{Data: data, At: time.Now()})
}

// FailWith queues a read failure, consumed before any queued reports.
func (d *MockDevice) FailWith(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures = append(d.failures, err)
}

// Read returns the next scripted failure or report, or ErrNoData.
func (d *MockDevice) Read() (RawEvent, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return RawEvent{}, ErrClosed
	}
	if len(d.failures) > 0 {
		err := d.failures[0]
		d.failures = d.failures[1:]
		return RawEvent{}, err
	}
	if len(d.events) > 0 {
		ev := d.events[0]
		d.events = d.events[1:]
		return ev, nil
	}
	return RawEvent{}, ErrNoData
}

// Close releases the mock claim. Idempotent.
func (d *MockDevice) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	onClose := d.onClose
	d.mu.Unlock()

	if onClose != nil {
		onClose()
	}
	return nil
}

// reopen resets the closed flag when the manager hands the device out again.
func (d *MockDevice) reopen() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = false
}
