package hid

import (
	"fmt"
	"strconv"
	"time"
)

// RawEvent is one raw input report read from an open device.
// It is ephemeral; decoding into axis deltas happens in the session layer.
type RawEvent struct {
	// Data is the raw HID input report payload.
	Data []byte

	// At is the monotonic read timestamp.
	At time.Time
}

// Device is an open, exclusively-owned hardware handle.
//
// Read is short-blocking: it returns the next available input report, or
// ErrNoData when the device currently has nothing new to report. The caller
// decides whether to retry or idle. Close releases the handle and is
// idempotent.
type Device interface {
	Read() (RawEvent, error)
	Close() error
}

// Manager enumerates and opens HID devices by vendor and product ID.
//
// It is the only boundary through which the rest of the system touches
// hardware, which keeps every other package testable against a mock.
type Manager interface {
	// Present reports whether a device with the given IDs is currently
	// enumerated on the host.
	Present(vendorID, productID uint16) (bool, error)

	// Open requests exclusive access to the device with the given IDs.
	// It returns ErrDeviceNotPresent if the device is not enumerated and
	// ErrDeviceBusy if another process or session holds the handle.
	Open(vendorID, productID uint16) (Device, error)
}

// ParseID converts a 4-digit hex identifier string (e.g. "046d") to its
// numeric form.
//
// Returns:
//   - uint16: The parsed identifier
//   - error: If the string is not valid 4-digit hex
func ParseID(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("parsing hex identifier %q: %w", s, err)
	}
	return uint16(v), nil
}
