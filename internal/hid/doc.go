// Package hid is the hardware capability boundary for motionlink.
//
// It exposes exactly the three operations the core pipeline needs from the
// operating system's HID layer: enumerate a device by vendor/product ID,
// open it for exclusive access, and read raw input reports from the open
// handle. Descriptor parsing, driver calls, and transport details stay on
// the far side of this boundary.
//
// # Implementations
//
//   - Open (usbhid.go): production backend on rafaelmartins.com/p/usbhid
//   - Mock (mock.go): scripted in-memory backend for tests
//
// # Usage
//
//	mgr := hid.NewUSBManager()
//	present, _ := mgr.Present(0x046d, 0xb03a)
//	if present {
//	    dev, err := mgr.Open(0x046d, 0xb03a)
//	    ...
//	}
package hid
