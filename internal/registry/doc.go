// Package registry provides the device catalogue for motionlink.
//
// The catalogue maps a device's USB vendor and product identifiers to its
// logical type (mouse, 3dconnexion, gamepad) and channel names. It is
// loaded once from the input_devices configuration section and is
// read-only for the lifetime of the process.
//
// A lookup miss is a hard ErrUnknownDevice; there is no default type.
package registry
