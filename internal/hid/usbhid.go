package hid

import (
	"fmt"
	"sync"
	"time"

	usbhid "rafaelmartins.com/p/usbhid"
)

// readBufferSize is the capacity of the report channel between the
// reader goroutine and Read. When it fills, the oldest report is
// dropped; a motion stream only cares about the freshest deltas.
const readBufferSize = 64

// USBManager is the production Manager backed by rafaelmartins.com/p/usbhid.
type USBManager struct{}

// NewUSBManager returns the usbhid-backed HID manager.
func NewUSBManager() *USBManager {
	return &USBManager{}
}

// Present reports whether a device with the given IDs is enumerated.
func (m *USBManager) Present(vendorID, productID uint16) (bool, error) {
	devs, err := usbhid.Enumerate(func(d *usbhid.Device) bool {
		return d.VendorId() == vendorID && d.ProductId() == productID
	})
	if err != nil {
		return false, fmt.Errorf("enumerating devices: %w", err)
	}
	return len(devs) > 0, nil
}

// Open claims exclusive access to the device with the given IDs.
//
// Enumeration misses map to ErrDeviceNotPresent; an enumerated device that
// cannot be claimed maps to ErrDeviceBusy. The raw usbhid error is wrapped
// so operators can still see the underlying cause in logs.
func (m *USBManager) Open(vendorID, productID uint16) (Device, error) {
	present, err := m.Present(vendorID, productID)
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, fmt.Errorf("%w: %04x:%04x", ErrDeviceNotPresent, vendorID, productID)
	}

	d, err := usbhid.Get(func(dev *usbhid.Device) bool {
		return dev.VendorId() == vendorID && dev.ProductId() == productID
	}, true, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %04x:%04x: %v", ErrDeviceBusy, vendorID, productID, err)
	}

	return newUSBDevice(d), nil
}

// reportSource is the blocking read surface of an open usbhid handle.
// Satisfied by *usbhid.Device.
type reportSource interface {
	GetInputReport() (byte, []byte, error)
	Close() error
}

// usbDevice adapts a blocking usbhid handle to the short-blocking Device
// contract.
//
// The OS read blocks until the hardware produces a report, which would
// park the poll loop indefinitely on an idle device and make a
// disconnect wait for physical input. A dedicated reader goroutine owns
// the blocking call and feeds a buffered channel; Read drains that
// channel without blocking, and Close releases the OS handle, which
// fails the pending read and lets the goroutine exit.
type usbDevice struct {
	src     reportSource
	reports chan RawEvent

	mu      sync.Mutex
	closed  bool
	readErr error
}

// newUSBDevice wraps an open handle and starts its reader goroutine.
func newUSBDevice(src reportSource) *usbDevice {
	d := &usbDevice{
		src:     src,
		reports: make(chan RawEvent, readBufferSize),
	}
	go d.readLoop()
	return d
}

// readLoop blocks on the OS read and queues each report for Read.
// It exits when the handle errors, which includes the handle being
// closed underneath it.
func (d *usbDevice) readLoop() {
	for {
		_, buf, err := d.src.GetInputReport()
		if err != nil {
			d.mu.Lock()
			if !d.closed {
				// A real hardware failure; make it sticky so every
				// subsequent Read reports it and the session's failure
				// budget can trip.
				d.readErr = fmt.Errorf("reading input report: %w", err)
			}
			d.mu.Unlock()
			return
		}
		if len(buf) == 0 {
			continue
		}

		ev := RawEvent{Data: buf, At: time.Now()}
		select {
		case d.reports <- ev:
		default:
			// Full buffer: drop the oldest report to make room.
			select {
			case <-d.reports:
			default:
			}
			select {
			case d.reports <- ev:
			default:
			}
		}
	}
}

// Read returns the next queued input report, or ErrNoData when the
// device has produced nothing new. It never blocks on the hardware.
func (d *usbDevice) Read() (RawEvent, error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return RawEvent{}, ErrClosed
	}
	readErr := d.readErr
	d.mu.Unlock()

	select {
	case ev := <-d.reports:
		return ev, nil
	default:
	}

	if readErr != nil {
		return RawEvent{}, readErr
	}
	return RawEvent{}, ErrNoData
}

// Close releases the hardware handle, unblocking the reader goroutine's
// pending OS read. Idempotent.
func (d *usbDevice) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	return d.src.Close()
}
