package hid

import "errors"

// Domain errors for the hid package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, hid.ErrNoData) {
//	    // idle and retry
//	}
var (
	// ErrDeviceNotPresent is returned when the requested device is not
	// currently enumerated on the host.
	ErrDeviceNotPresent = errors.New("hid: device not present")

	// ErrDeviceBusy is returned when the device is already claimed by
	// another handle.
	ErrDeviceBusy = errors.New("hid: device busy")

	// ErrNoData is returned by Read when no new input report is available.
	// It is a flow-control signal, not a failure.
	ErrNoData = errors.New("hid: no data")

	// ErrClosed is returned when operating on a closed device handle.
	ErrClosed = errors.New("hid: device closed")
)
