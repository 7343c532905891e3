package profile

import "errors"

// Domain errors for the profile package.
var (
	// ErrProfileNotFound is returned when a device has no stored profile.
	// Callers fall back to the identity Default profile.
	ErrProfileNotFound = errors.New("profile: not found")
)
