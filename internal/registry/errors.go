package registry

import "errors"

// Domain errors for the registry package.
var (
	// ErrUnknownDevice is returned when a lookup finds no configured device.
	ErrUnknownDevice = errors.New("registry: unknown device")

	// ErrDuplicateDevice is returned at construction when two configured
	// devices share the same (vendor ID, product ID) pair.
	ErrDuplicateDevice = errors.New("registry: duplicate device")
)
